package activity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("activity not found")
	ErrAttendeeNotFound = errors.New("attendee not found")
	ErrNoSchool         = errors.New("user is not attached to a school")
	ErrApprovalPair     = errors.New("approved at and approved by must be set together")
)

type (
	Repository interface {
		CreateActivity(ctx context.Context, a Activity, exec ...core.DBExecutor) (Activity, error)
		GetActivity(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Activity, error)
		// QueryActivities returns activities ordered by StartAt then ID.
		QueryActivities(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Activity, error)
		// DeleteActivitiesByID also removes the activities' attendee rows.
		DeleteActivitiesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)

		CreateAttendee(ctx context.Context, at Attendee, exec ...core.DBExecutor) (Attendee, error)
		GetAttendee(ctx context.Context, id int64, exec ...core.DBExecutor) (Attendee, error)
		UpdateAttendee(ctx context.Context, at Attendee, exec ...core.DBExecutor) (Attendee, error)
		// QueryAttendees returns attendee rows ordered by ID.
		QueryAttendees(ctx context.Context, filter *AttendeeFilter, exec ...core.DBExecutor) ([]Attendee, error)
		DeleteAttendeesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		// ListForUser returns the activities of the user's school.
		ListForUser(ctx context.Context, usr user.User) ([]Activity, error)
		// GetDetail returns an activity of the user's school with its organisers and attendees.
		GetDetail(ctx context.Context, usr user.User, id int64) (Detail, error)

		Create(ctx context.Context, na NewActivity, by *int64, exec ...core.DBExecutor) (Activity, error)
		Get(ctx context.Context, id int64) (Activity, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Activity, error)
		Delete(ctx context.Context, ids ...int64) (int, error)

		AddAttendee(ctx context.Context, na NewAttendee, by *int64, exec ...core.DBExecutor) (Attendee, error)
		Approve(ctx context.Context, attendeeID int64, approver user.User) (Attendee, error)
		MarkAttended(ctx context.Context, attendeeID int64, by *int64) (Attendee, error)
		QueryAttendees(ctx context.Context, filter *AttendeeFilter) ([]Attendee, error)
		DeleteAttendees(ctx context.Context, ids ...int64) (int, error)
	}

	service struct {
		repo      Repository
		lookupSvc lookup.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, lookupSvc lookup.Service) Service {
	return &service{repo: repo, lookupSvc: lookupSvc}
}

// trapInvalidRefErr reports a dangling reference as a form-level validation error.
func trapInvalidRefErr(err error) error {
	if errors.Cause(err) == core.ErrInvalidReference {
		return core.NewValidationError(err)
	}
	return err
}

func (svc *service) ListForUser(ctx context.Context, usr user.User) ([]Activity, error) {
	if usr.SchoolID == nil {
		return nil, ErrNoSchool
	}
	activities, err := svc.repo.QueryActivities(ctx, &QueryFilter{SchoolID: usr.SchoolID})
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return activities, nil
}

func (svc *service) GetDetail(ctx context.Context, usr user.User, id int64) (Detail, error) {
	if usr.SchoolID == nil {
		return Detail{}, ErrNoSchool
	}
	act, err := svc.repo.GetActivity(ctx, GetFilter{ID: id, SchoolID: usr.SchoolID})
	if err != nil {
		return Detail{}, err
	}
	rows, err := svc.repo.QueryAttendees(ctx, &AttendeeFilter{ActivityID: &act.ID})
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying attendees")
	}
	organisers, attendees := Partition(rows)
	return Detail{Activity: act, Organisers: organisers, Attendees: attendees}, nil
}

func (svc *service) Create(ctx context.Context, na NewActivity, by *int64, exec ...core.DBExecutor) (Activity, error) {
	if na.DistanceFromSchool < 0 {
		return Activity{}, core.NewValidationError(nil, core.FieldError{Field: "distance_from_school", Error: "distance cannot be negative"})
	}
	if err := svc.lookupSvc.CheckCodeType(ctx, na.CategoryID, lookup.TypeActivityCategory, "category_id", exec...); err != nil {
		return Activity{}, err
	}
	a := Activity{
		SchoolID:           na.SchoolID,
		Name:               na.Name,
		Description:        na.Description,
		CategoryID:         na.CategoryID,
		StartAt:            na.StartAt.UTC(),
		VenueID:            na.VenueID,
		DistanceFromSchool: na.DistanceFromSchool,
		Tracking:           core.NewTracking(by),
	}
	a, err := svc.repo.CreateActivity(ctx, a, exec...)
	return a, trapInvalidRefErr(err)
}

func (svc *service) Get(ctx context.Context, id int64) (Activity, error) {
	return svc.repo.GetActivity(ctx, GetFilter{ID: id})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Activity, error) {
	return svc.repo.QueryActivities(ctx, filter)
}

func (svc *service) Delete(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteActivitiesByID(ctx, ids)
}

func (svc *service) AddAttendee(ctx context.Context, na NewAttendee, by *int64, exec ...core.DBExecutor) (Attendee, error) {
	if (na.ApprovedAt == nil) != (na.ApprovedByID == nil) {
		return Attendee{}, core.NewValidationError(ErrApprovalPair, core.FieldError{Field: "approved_by_id", Error: ErrApprovalPair.Error()})
	}
	if err := svc.lookupSvc.CheckCodeType(ctx, na.AttendeeTypeID, lookup.TypeAttendeeType, "attendee_type_id", exec...); err != nil {
		return Attendee{}, err
	}
	at := Attendee{
		UserID:         na.UserID,
		IsOrganiser:    na.IsOrganiser,
		AttendeeTypeID: na.AttendeeTypeID,
		ActivityID:     na.ActivityID,
		ApprovedByID:   na.ApprovedByID,
		Tracking:       core.NewTracking(by),
	}
	if na.ApprovedAt != nil {
		at.ApprovedAt = core.TimePtr(na.ApprovedAt.UTC())
	}
	if na.AttendedAt != nil {
		at.AttendedAt = core.TimePtr(na.AttendedAt.UTC())
	}
	at, err := svc.repo.CreateAttendee(ctx, at, exec...)
	return at, trapInvalidRefErr(err)
}

// Approve records approver's approval of the attendee row, now.
func (svc *service) Approve(ctx context.Context, attendeeID int64, approver user.User) (Attendee, error) {
	at, err := svc.repo.GetAttendee(ctx, attendeeID)
	if err != nil {
		return Attendee{}, err
	}
	at.ApprovedAt = core.TimePtr(core.NowFunc())
	at.ApprovedByID = core.Int64Ptr(approver.ID)
	at.Touch(&approver.ID)
	return svc.repo.UpdateAttendee(ctx, at)
}

func (svc *service) MarkAttended(ctx context.Context, attendeeID int64, by *int64) (Attendee, error) {
	at, err := svc.repo.GetAttendee(ctx, attendeeID)
	if err != nil {
		return Attendee{}, err
	}
	at.AttendedAt = core.TimePtr(core.NowFunc())
	at.Touch(by)
	return svc.repo.UpdateAttendee(ctx, at)
}

func (svc *service) QueryAttendees(ctx context.Context, filter *AttendeeFilter) ([]Attendee, error) {
	return svc.repo.QueryAttendees(ctx, filter)
}

func (svc *service) DeleteAttendees(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteAttendeesByID(ctx, ids)
}
