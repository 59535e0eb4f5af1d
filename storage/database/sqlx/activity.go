package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
)

const (
	activitySelect = `SELECT a.id, a.school_id, a.name, a.description, a.category_id, a.start_at, a.venue_id,
		a.distance_from_school, c.name AS category_name, v.name AS venue_name,
		a.created_by_id, a.created_at, a.updated_by_id, a.updated_at
		FROM activity a
		JOIN lookup_code c ON c.id = a.category_id
		JOIN venue v ON v.id = a.venue_id`

	attendeeSelect = `SELECT at.id, at.user_id, at.is_organiser, at.attendee_type_id, at.activity_id,
		at.approved_at, at.approved_by_id, at.attended_at,
		COALESCE(NULLIF(TRIM(CONCAT_WS(' ', u.first_name, u.last_name)), ''), u.email) AS user_name,
		c.name AS attendee_type,
		at.created_by_id, at.created_at, at.updated_by_id, at.updated_at
		FROM activity_attendee at
		JOIN "user" u ON u.id = at.user_id
		JOIN lookup_code c ON c.id = at.attendee_type_id`
)

type (
	activityRow struct {
		ID                 int64     `db:"id"`
		SchoolID           int64     `db:"school_id"`
		Name               string    `db:"name"`
		Description        string    `db:"description"`
		CategoryID         int64     `db:"category_id"`
		StartAt            time.Time `db:"start_at"`
		VenueID            int64     `db:"venue_id"`
		DistanceFromSchool int       `db:"distance_from_school"`
		CategoryName       string    `db:"category_name"`
		VenueName          string    `db:"venue_name"`
		TrackingRow
	}

	attendeeRow struct {
		ID             int64      `db:"id"`
		UserID         int64      `db:"user_id"`
		IsOrganiser    bool       `db:"is_organiser"`
		AttendeeTypeID int64      `db:"attendee_type_id"`
		ActivityID     int64      `db:"activity_id"`
		ApprovedAt     null.Time  `db:"approved_at"`
		ApprovedByID   null.Int64 `db:"approved_by_id"`
		AttendedAt     null.Time  `db:"attended_at"`
		UserName       string     `db:"user_name"`
		AttendeeType   string     `db:"attendee_type"`
		TrackingRow
	}
)

type activityRepository struct {
	repository
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(exec core.DBExecutor) activity.Repository {
	return &activityRepository{repository{exec: exec}}
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	return core.TimePtr(t.Time.UTC())
}

func (repo activityRepository) unboilActivity(row activityRow) activity.Activity {
	return activity.Activity{
		ID:                 row.ID,
		SchoolID:           row.SchoolID,
		Name:               row.Name,
		Description:        row.Description,
		CategoryID:         row.CategoryID,
		StartAt:            row.StartAt.UTC(),
		VenueID:            row.VenueID,
		DistanceFromSchool: row.DistanceFromSchool,
		CategoryName:       row.CategoryName,
		VenueName:          row.VenueName,
		Tracking:           row.TrackingRow.unboil(),
	}
}

func (repo activityRepository) boilAttendee(at activity.Attendee) attendeeRow {
	return attendeeRow{
		ID:             at.ID,
		UserID:         at.UserID,
		IsOrganiser:    at.IsOrganiser,
		AttendeeTypeID: at.AttendeeTypeID,
		ActivityID:     at.ActivityID,
		ApprovedAt:     null.TimeFromPtr(at.ApprovedAt),
		ApprovedByID:   null.Int64FromPtr(at.ApprovedByID),
		AttendedAt:     null.TimeFromPtr(at.AttendedAt),
		TrackingRow:    boilTracking(at.Tracking),
	}
}

func (repo activityRepository) unboilAttendee(row attendeeRow) activity.Attendee {
	return activity.Attendee{
		ID:             row.ID,
		UserID:         row.UserID,
		IsOrganiser:    row.IsOrganiser,
		AttendeeTypeID: row.AttendeeTypeID,
		ActivityID:     row.ActivityID,
		ApprovedAt:     utcPtr(row.ApprovedAt),
		ApprovedByID:   row.ApprovedByID.Ptr(),
		AttendedAt:     utcPtr(row.AttendedAt),
		UserName:       row.UserName,
		AttendeeType:   row.AttendeeType,
		Tracking:       row.TrackingRow.unboil(),
	}
}

func (repo activityRepository) CreateActivity(ctx context.Context, a activity.Activity, exec ...core.DBExecutor) (activity.Activity, error) {
	exe := repo.getExec(exec)
	tr := boilTracking(a.Tracking)

	var id int64
	q := `INSERT INTO activity (school_id, name, description, category_id, start_at, venue_id, distance_from_school, ` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := exe.GetContext(ctx, &id, q,
		a.SchoolID, a.Name, a.Description, a.CategoryID, a.StartAt.UTC(), a.VenueID, a.DistanceFromSchool,
		tr.CreatedByID, tr.CreatedAt, tr.UpdatedByID, tr.UpdatedAt)
	if err != nil {
		return activity.Activity{}, trapWriteErr(err, "inserting activity")
	}
	return repo.GetActivity(ctx, activity.GetFilter{ID: id}, exe)
}

func (repo activityRepository) GetActivity(ctx context.Context, filter activity.GetFilter, exec ...core.DBExecutor) (activity.Activity, error) {
	var w where
	w.add("a.id = $%d", filter.ID)
	if filter.SchoolID != nil {
		w.add("a.school_id = $%d", *filter.SchoolID)
	}

	var row activityRow
	if err := repo.getExec(exec).GetContext(ctx, &row, activitySelect+w.String(), w.args...); err != nil {
		if err == sql.ErrNoRows {
			return activity.Activity{}, activity.ErrNotFound
		}
		return activity.Activity{}, errors.Wrap(err, "finding activity")
	}
	return repo.unboilActivity(row), nil
}

func (repo activityRepository) QueryActivities(ctx context.Context, filter *activity.QueryFilter, exec ...core.DBExecutor) ([]activity.Activity, error) {
	var w where
	if filter != nil {
		if filter.SchoolID != nil {
			w.add("a.school_id = $%d", *filter.SchoolID)
		}
		if filter.Search != "" {
			w.add("a.name ILIKE $%d", "%"+filter.Search+"%")
		}
	}

	var rows []activityRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, activitySelect+w.String()+` ORDER BY a.start_at, a.id`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	activities := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, repo.unboilActivity(row))
	}
	return activities, nil
}

// DeleteActivitiesByID relies on the schema to cascade attendee rows.
func (repo activityRepository) DeleteActivitiesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "activity", ids)
}

const approvalPairCheck = "activity_attendee_approval_pair"

// trapAttendeeWriteErr also maps the approval pair CHECK constraint to activity.ErrApprovalPair.
func trapAttendeeWriteErr(err error, msg string) error {
	if pqCode(err) == checkViolation && pqConstraint(err) == approvalPairCheck {
		return activity.ErrApprovalPair
	}
	return trapWriteErr(err, msg)
}

func (repo activityRepository) CreateAttendee(ctx context.Context, at activity.Attendee, exec ...core.DBExecutor) (activity.Attendee, error) {
	exe := repo.getExec(exec)
	row := repo.boilAttendee(at)

	q := `INSERT INTO activity_attendee (user_id, is_organiser, attendee_type_id, activity_id, approved_at, approved_by_id, attended_at, ` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := exe.GetContext(ctx, &row.ID, q,
		row.UserID, row.IsOrganiser, row.AttendeeTypeID, row.ActivityID, row.ApprovedAt, row.ApprovedByID, row.AttendedAt,
		row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return activity.Attendee{}, trapAttendeeWriteErr(err, "inserting attendee")
	}
	return repo.GetAttendee(ctx, row.ID, exe)
}

func (repo activityRepository) GetAttendee(ctx context.Context, id int64, exec ...core.DBExecutor) (activity.Attendee, error) {
	var row attendeeRow
	if err := repo.getExec(exec).GetContext(ctx, &row, attendeeSelect+` WHERE at.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return activity.Attendee{}, activity.ErrAttendeeNotFound
		}
		return activity.Attendee{}, errors.Wrap(err, "finding attendee")
	}
	return repo.unboilAttendee(row), nil
}

func (repo activityRepository) UpdateAttendee(ctx context.Context, at activity.Attendee, exec ...core.DBExecutor) (activity.Attendee, error) {
	row := repo.boilAttendee(at)
	q := `UPDATE activity_attendee SET is_organiser = $2, attendee_type_id = $3, approved_at = $4, approved_by_id = $5,
		attended_at = $6, updated_by_id = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		row.ID, row.IsOrganiser, row.AttendeeTypeID, row.ApprovedAt, row.ApprovedByID, row.AttendedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return activity.Attendee{}, trapAttendeeWriteErr(err, "updating attendee")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return activity.Attendee{}, activity.ErrAttendeeNotFound
	}
	return at, nil
}

func (repo activityRepository) QueryAttendees(ctx context.Context, filter *activity.AttendeeFilter, exec ...core.DBExecutor) ([]activity.Attendee, error) {
	var w where
	if filter != nil {
		if filter.ActivityID != nil {
			w.add("at.activity_id = $%d", *filter.ActivityID)
		}
		if filter.UserID != nil {
			w.add("at.user_id = $%d", *filter.UserID)
		}
	}

	var rows []attendeeRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, attendeeSelect+w.String()+` ORDER BY at.id`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendees")
	}
	attendees := make([]activity.Attendee, 0, len(rows))
	for _, row := range rows {
		attendees = append(attendees, repo.unboilAttendee(row))
	}
	return attendees, nil
}

func (repo activityRepository) DeleteAttendeesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "activity_attendee", ids)
}
