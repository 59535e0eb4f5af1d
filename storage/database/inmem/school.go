package inmemdb

import (
	"context"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateLocation(_ context.Context, loc school.Location, _ ...core.DBExecutor) (school.Location, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.checkTracking(loc.Tracking); err != nil {
		return school.Location{}, err
	}
	loc.ID = repo.db.nextID()
	repo.db.locations[loc.ID] = &loc
	return loc, nil
}

func (repo *schoolRepository) UpdateLocation(_ context.Context, loc school.Location, _ ...core.DBExecutor) (school.Location, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.locations[loc.ID]; !ok {
		return school.Location{}, school.ErrLocationNotFound
	}
	if err := repo.db.checkTracking(loc.Tracking); err != nil {
		return school.Location{}, err
	}
	repo.db.locations[loc.ID] = &loc
	return loc, nil
}

func (repo *schoolRepository) GetLocation(_ context.Context, id int64, _ ...core.DBExecutor) (school.Location, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if loc, ok := repo.db.locations[id]; ok {
		return *loc, nil
	}
	return school.Location{}, school.ErrLocationNotFound
}

func (repo *schoolRepository) QueryLocations(_ context.Context, _ ...core.DBExecutor) ([]school.Location, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	locs := make([]school.Location, 0, len(repo.db.locations))
	for _, id := range sortedIDs(repo.db.locations) {
		locs = append(locs, *repo.db.locations[id])
	}
	return locs, nil
}

func (repo *schoolRepository) DeleteLocationsByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, sch := range repo.db.schools {
		if set[sch.LocationID] {
			return 0, core.ErrProtected
		}
	}
	for _, v := range repo.db.venues {
		if set[v.LocationID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.locations[id]; ok {
			delete(repo.db.locations, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School, _ ...core.DBExecutor) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.locations[sch.LocationID]; !ok {
		return school.School{}, core.ErrInvalidReference
	}
	if err := repo.db.checkTracking(sch.Tracking); err != nil {
		return school.School{}, err
	}
	sch.ID = repo.db.nextID()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, id int64, _ ...core.DBExecutor) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrSchoolNotFound
}

func (repo *schoolRepository) QuerySchools(_ context.Context, _ ...core.DBExecutor) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, id := range sortedIDs(repo.db.schools) {
		schools = append(schools, *repo.db.schools[id])
	}
	return schools, nil
}

func (repo *schoolRepository) DeleteSchoolsByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, usr := range repo.db.users {
		if usr.SchoolID != nil && set[*usr.SchoolID] {
			return 0, core.ErrProtected
		}
	}
	for _, act := range repo.db.activities {
		if set[act.SchoolID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.schools[id]; ok {
			delete(repo.db.schools, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *schoolRepository) CreateVenue(_ context.Context, v school.Venue, _ ...core.DBExecutor) (school.Venue, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.locations[v.LocationID]; !ok {
		return school.Venue{}, core.ErrInvalidReference
	}
	if err := repo.db.checkTracking(v.Tracking); err != nil {
		return school.Venue{}, err
	}
	v.ID = repo.db.nextID()
	repo.db.venues[v.ID] = &v
	return v, nil
}

func (repo *schoolRepository) GetVenue(_ context.Context, id int64, _ ...core.DBExecutor) (school.Venue, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.venues[id]; ok {
		return *v, nil
	}
	return school.Venue{}, school.ErrVenueNotFound
}

func (repo *schoolRepository) QueryVenues(_ context.Context, _ ...core.DBExecutor) ([]school.Venue, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	venues := make([]school.Venue, 0, len(repo.db.venues))
	for _, id := range sortedIDs(repo.db.venues) {
		venues = append(venues, *repo.db.venues[id])
	}
	return venues, nil
}

func (repo *schoolRepository) DeleteVenuesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, act := range repo.db.activities {
		if set[act.VenueID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.venues[id]; ok {
			delete(repo.db.venues, id)
			cnt++
		}
	}
	return cnt, nil
}
