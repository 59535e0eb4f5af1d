package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
)

var (
	// errors
	ErrLocationNotFound = errors.New("location not found")
	ErrSchoolNotFound   = errors.New("school not found")
	ErrVenueNotFound    = errors.New("venue not found")
)

type (
	Repository interface {
		CreateLocation(ctx context.Context, loc Location, exec ...core.DBExecutor) (Location, error)
		UpdateLocation(ctx context.Context, loc Location, exec ...core.DBExecutor) (Location, error)
		GetLocation(ctx context.Context, id int64, exec ...core.DBExecutor) (Location, error)
		QueryLocations(ctx context.Context, exec ...core.DBExecutor) ([]Location, error)
		// DeleteLocationsByID returns core.ErrProtected while a School or Venue references one of the locations.
		DeleteLocationsByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)

		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		GetSchool(ctx context.Context, id int64, exec ...core.DBExecutor) (School, error)
		QuerySchools(ctx context.Context, exec ...core.DBExecutor) ([]School, error)
		// DeleteSchoolsByID returns core.ErrProtected while a User or Activity references one of the schools.
		DeleteSchoolsByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)

		CreateVenue(ctx context.Context, v Venue, exec ...core.DBExecutor) (Venue, error)
		GetVenue(ctx context.Context, id int64, exec ...core.DBExecutor) (Venue, error)
		QueryVenues(ctx context.Context, exec ...core.DBExecutor) ([]Venue, error)
		// DeleteVenuesByID returns core.ErrProtected while an Activity references one of the venues.
		DeleteVenuesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CreateLocation(ctx context.Context, nl NewLocation, by *int64, exec ...core.DBExecutor) (Location, error)
		UpdateLocation(ctx context.Context, id int64, nl NewLocation, by *int64) (Location, error)
		GetLocation(ctx context.Context, id int64) (Location, error)
		QueryLocations(ctx context.Context) ([]Location, error)
		DeleteLocations(ctx context.Context, ids ...int64) (int, error)

		CreateSchool(ctx context.Context, ns NewSchool, by *int64, exec ...core.DBExecutor) (School, error)
		GetSchool(ctx context.Context, id int64) (School, error)
		QuerySchools(ctx context.Context) ([]School, error)
		DeleteSchools(ctx context.Context, ids ...int64) (int, error)

		CreateVenue(ctx context.Context, nv NewVenue, by *int64, exec ...core.DBExecutor) (Venue, error)
		GetVenue(ctx context.Context, id int64) (Venue, error)
		QueryVenues(ctx context.Context) ([]Venue, error)
		DeleteVenues(ctx context.Context, ids ...int64) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// checkPostcode guards writes that skipped struct validation.
func checkPostcode(postcode string) error {
	if err := ValidatePostcode(postcode); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "postcode", Error: err.Error()})
	}
	return nil
}

func checkState(st string) error {
	if !State(st).IsValid() {
		return core.NewValidationError(nil, core.FieldError{Field: "state", Error: auStateText})
	}
	return nil
}

func (svc *service) CreateLocation(ctx context.Context, nl NewLocation, by *int64, exec ...core.DBExecutor) (Location, error) {
	if err := checkPostcode(nl.Postcode); err != nil {
		return Location{}, err
	}
	if err := checkState(nl.State); err != nil {
		return Location{}, err
	}
	loc := Location{
		Address1: nl.Address1,
		Address2: nl.Address2,
		City:     nl.City,
		State:    State(nl.State),
		Postcode: nl.Postcode,
		Tracking: core.NewTracking(by),
	}
	return svc.repo.CreateLocation(ctx, loc, exec...)
}

func (svc *service) UpdateLocation(ctx context.Context, id int64, nl NewLocation, by *int64) (Location, error) {
	if err := checkPostcode(nl.Postcode); err != nil {
		return Location{}, err
	}
	if err := checkState(nl.State); err != nil {
		return Location{}, err
	}
	loc, err := svc.repo.GetLocation(ctx, id)
	if err != nil {
		return Location{}, err
	}
	loc.Address1 = nl.Address1
	loc.Address2 = nl.Address2
	loc.City = nl.City
	loc.State = State(nl.State)
	loc.Postcode = nl.Postcode
	loc.Touch(by)
	return svc.repo.UpdateLocation(ctx, loc)
}

func (svc *service) GetLocation(ctx context.Context, id int64) (Location, error) {
	return svc.repo.GetLocation(ctx, id)
}

func (svc *service) QueryLocations(ctx context.Context) ([]Location, error) {
	return svc.repo.QueryLocations(ctx)
}

func (svc *service) DeleteLocations(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteLocationsByID(ctx, ids)
}

// locationExists reports a missing location as a field error on location_id.
func (svc *service) locationExists(ctx context.Context, id int64, exec []core.DBExecutor) error {
	if _, err := svc.repo.GetLocation(ctx, id, exec...); err != nil {
		if errors.Cause(err) == ErrLocationNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "location_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateSchool(ctx context.Context, ns NewSchool, by *int64, exec ...core.DBExecutor) (School, error) {
	if err := svc.locationExists(ctx, ns.LocationID, exec); err != nil {
		return School{}, err
	}
	sch := School{Name: ns.Name, LocationID: ns.LocationID, Tracking: core.NewTracking(by)}
	return svc.repo.CreateSchool(ctx, sch, exec...)
}

func (svc *service) GetSchool(ctx context.Context, id int64) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *service) QuerySchools(ctx context.Context) ([]School, error) {
	return svc.repo.QuerySchools(ctx)
}

func (svc *service) DeleteSchools(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteSchoolsByID(ctx, ids)
}

func (svc *service) CreateVenue(ctx context.Context, nv NewVenue, by *int64, exec ...core.DBExecutor) (Venue, error) {
	if err := svc.locationExists(ctx, nv.LocationID, exec); err != nil {
		return Venue{}, err
	}
	v := Venue{
		Name:        nv.Name,
		Description: nv.Description,
		LocationID:  nv.LocationID,
		Tracking:    core.NewTracking(by),
	}
	return svc.repo.CreateVenue(ctx, v, exec...)
}

func (svc *service) GetVenue(ctx context.Context, id int64) (Venue, error) {
	return svc.repo.GetVenue(ctx, id)
}

func (svc *service) QueryVenues(ctx context.Context) ([]Venue, error) {
	return svc.repo.QueryVenues(ctx)
}

func (svc *service) DeleteVenues(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteVenuesByID(ctx, ids)
}
