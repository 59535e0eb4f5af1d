package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/school"
)

const (
	locationColumns = `id, address1, address2, city, state, postcode, ` + trackingColumns
	schoolColumns   = `id, name, location_id, ` + trackingColumns
	venueColumns    = `id, name, description, location_id, ` + trackingColumns
)

type (
	locationRow struct {
		ID       int64       `db:"id"`
		Address1 string      `db:"address1"`
		Address2 null.String `db:"address2"`
		City     string      `db:"city"`
		State    string      `db:"state"`
		Postcode string      `db:"postcode"`
		TrackingRow
	}

	schoolRow struct {
		ID         int64  `db:"id"`
		Name       string `db:"name"`
		LocationID int64  `db:"location_id"`
		TrackingRow
	}

	venueRow struct {
		ID          int64       `db:"id"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		LocationID  int64       `db:"location_id"`
		TrackingRow
	}
)

type schoolRepository struct {
	repository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) school.Repository {
	return &schoolRepository{repository{exec: exec}}
}

func (repo schoolRepository) boilLocation(loc school.Location) locationRow {
	return locationRow{
		ID:          loc.ID,
		Address1:    loc.Address1,
		Address2:    null.NewString(loc.Address2, loc.Address2 != ""),
		City:        loc.City,
		State:       string(loc.State),
		Postcode:    loc.Postcode,
		TrackingRow: boilTracking(loc.Tracking),
	}
}

func (repo schoolRepository) unboilLocation(row locationRow) school.Location {
	return school.Location{
		ID:       row.ID,
		Address1: row.Address1,
		Address2: row.Address2.String,
		City:     row.City,
		State:    school.State(row.State),
		Postcode: row.Postcode,
		Tracking: row.TrackingRow.unboil(),
	}
}

func (repo schoolRepository) unboilSchool(row schoolRow) school.School {
	return school.School{ID: row.ID, Name: row.Name, LocationID: row.LocationID, Tracking: row.TrackingRow.unboil()}
}

func (repo schoolRepository) unboilVenue(row venueRow) school.Venue {
	return school.Venue{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		LocationID:  row.LocationID,
		Tracking:    row.TrackingRow.unboil(),
	}
}

func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []int64) (int, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, trapDeleteErr(err, "deleting from "+table)
	}
	cnt, err := res.RowsAffected()
	return int(cnt), err
}

func (repo schoolRepository) CreateLocation(ctx context.Context, loc school.Location, exec ...core.DBExecutor) (school.Location, error) {
	row := repo.boilLocation(loc)
	q := `INSERT INTO location (address1, address2, city, state, postcode, ` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q,
		row.Address1, row.Address2, row.City, row.State, row.Postcode,
		row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return school.Location{}, trapWriteErr(err, "inserting location")
	}
	return repo.unboilLocation(row), nil
}

func (repo schoolRepository) UpdateLocation(ctx context.Context, loc school.Location, exec ...core.DBExecutor) (school.Location, error) {
	row := repo.boilLocation(loc)
	q := `UPDATE location SET address1 = $2, address2 = $3, city = $4, state = $5, postcode = $6, updated_by_id = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		row.ID, row.Address1, row.Address2, row.City, row.State, row.Postcode, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return school.Location{}, trapWriteErr(err, "updating location")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return school.Location{}, school.ErrLocationNotFound
	}
	return repo.unboilLocation(row), nil
}

func (repo schoolRepository) GetLocation(ctx context.Context, id int64, exec ...core.DBExecutor) (school.Location, error) {
	var row locationRow
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+locationColumns+` FROM location WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Location{}, school.ErrLocationNotFound
		}
		return school.Location{}, errors.Wrap(err, "finding location")
	}
	return repo.unboilLocation(row), nil
}

func (repo schoolRepository) QueryLocations(ctx context.Context, exec ...core.DBExecutor) ([]school.Location, error) {
	var rows []locationRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+locationColumns+` FROM location ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying locations")
	}
	locs := make([]school.Location, 0, len(rows))
	for _, row := range rows {
		locs = append(locs, repo.unboilLocation(row))
	}
	return locs, nil
}

func (repo schoolRepository) DeleteLocationsByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "location", ids)
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	row := schoolRow{Name: sch.Name, LocationID: sch.LocationID, TrackingRow: boilTracking(sch.Tracking)}
	q := `INSERT INTO school (name, location_id, ` + trackingColumns + `) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q,
		row.Name, row.LocationID, row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return school.School{}, trapWriteErr(err, "inserting school")
	}
	return repo.unboilSchool(row), nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id int64, exec ...core.DBExecutor) (school.School, error) {
	var row schoolRow
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+schoolColumns+` FROM school WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrSchoolNotFound
		}
		return school.School{}, errors.Wrap(err, "finding school")
	}
	return repo.unboilSchool(row), nil
}

func (repo schoolRepository) QuerySchools(ctx context.Context, exec ...core.DBExecutor) ([]school.School, error) {
	var rows []schoolRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+schoolColumns+` FROM school ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.unboilSchool(row))
	}
	return schools, nil
}

func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "school", ids)
}

func (repo schoolRepository) CreateVenue(ctx context.Context, v school.Venue, exec ...core.DBExecutor) (school.Venue, error) {
	row := venueRow{
		Name:        v.Name,
		Description: null.NewString(v.Description, v.Description != ""),
		LocationID:  v.LocationID,
		TrackingRow: boilTracking(v.Tracking),
	}
	q := `INSERT INTO venue (name, description, location_id, ` + trackingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q,
		row.Name, row.Description, row.LocationID, row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return school.Venue{}, trapWriteErr(err, "inserting venue")
	}
	return repo.unboilVenue(row), nil
}

func (repo schoolRepository) GetVenue(ctx context.Context, id int64, exec ...core.DBExecutor) (school.Venue, error) {
	var row venueRow
	if err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+venueColumns+` FROM venue WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Venue{}, school.ErrVenueNotFound
		}
		return school.Venue{}, errors.Wrap(err, "finding venue")
	}
	return repo.unboilVenue(row), nil
}

func (repo schoolRepository) QueryVenues(ctx context.Context, exec ...core.DBExecutor) ([]school.Venue, error) {
	var rows []venueRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+venueColumns+` FROM venue ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying venues")
	}
	venues := make([]school.Venue, 0, len(rows))
	for _, row := range rows {
		venues = append(venues, repo.unboilVenue(row))
	}
	return venues, nil
}

func (repo schoolRepository) DeleteVenuesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "venue", ids)
}
