package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
)

type activityRepository struct {
	db *DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db}
}

// joinActivity fills the joined fields of a. Must be called with a lock held.
func (repo *activityRepository) joinActivity(a activity.Activity) activity.Activity {
	if c, ok := repo.db.codes[a.CategoryID]; ok {
		a.CategoryName = c.Name
	}
	if v, ok := repo.db.venues[a.VenueID]; ok {
		a.VenueName = v.Name
	}
	return a
}

// joinAttendee fills the joined fields of at. Must be called with a lock held.
func (repo *activityRepository) joinAttendee(at activity.Attendee) activity.Attendee {
	if usr, ok := repo.db.users[at.UserID]; ok {
		at.UserName = usr.String()
	}
	if c, ok := repo.db.codes[at.AttendeeTypeID]; ok {
		at.AttendeeType = c.Name
	}
	return at
}

func (repo *activityRepository) checkActivityRefs(a activity.Activity) error {
	if _, ok := repo.db.schools[a.SchoolID]; !ok {
		return core.ErrInvalidReference
	}
	if _, ok := repo.db.codes[a.CategoryID]; !ok {
		return core.ErrInvalidReference
	}
	if _, ok := repo.db.venues[a.VenueID]; !ok {
		return core.ErrInvalidReference
	}
	return repo.db.checkTracking(a.Tracking)
}

func (repo *activityRepository) checkAttendeeRefs(at activity.Attendee) error {
	if _, ok := repo.db.users[at.UserID]; !ok {
		return core.ErrInvalidReference
	}
	if _, ok := repo.db.codes[at.AttendeeTypeID]; !ok {
		return core.ErrInvalidReference
	}
	if _, ok := repo.db.activities[at.ActivityID]; !ok {
		return core.ErrInvalidReference
	}
	if at.ApprovedByID != nil {
		if _, ok := repo.db.users[*at.ApprovedByID]; !ok {
			return core.ErrInvalidReference
		}
	}
	if (at.ApprovedAt == nil) != (at.ApprovedByID == nil) {
		return activity.ErrApprovalPair
	}
	return repo.db.checkTracking(at.Tracking)
}

func (repo *activityRepository) CreateActivity(_ context.Context, a activity.Activity, _ ...core.DBExecutor) (activity.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkActivityRefs(a); err != nil {
		return activity.Activity{}, err
	}
	a.ID = repo.db.nextID()
	a.CategoryName, a.VenueName = "", ""
	repo.db.activities[a.ID] = &a
	return repo.joinActivity(a), nil
}

func (repo *activityRepository) GetActivity(_ context.Context, filter activity.GetFilter, _ ...core.DBExecutor) (activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	a, ok := repo.db.activities[filter.ID]
	if !ok || (filter.SchoolID != nil && a.SchoolID != *filter.SchoolID) {
		return activity.Activity{}, activity.ErrNotFound
	}
	return repo.joinActivity(*a), nil
}

func (repo *activityRepository) QueryActivities(_ context.Context, filter *activity.QueryFilter, _ ...core.DBExecutor) ([]activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	activities := make([]activity.Activity, 0, len(repo.db.activities))
	for _, a := range repo.db.activities {
		if filter != nil {
			if filter.SchoolID != nil && a.SchoolID != *filter.SchoolID {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		activities = append(activities, repo.joinActivity(*a))
	}
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].StartAt.Equal(activities[j].StartAt) {
			return activities[i].StartAt.Before(activities[j].StartAt)
		}
		return activities[i].ID < activities[j].ID
	})
	return activities, nil
}

func (repo *activityRepository) DeleteActivitiesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	var cnt int
	for id := range set {
		if _, ok := repo.db.activities[id]; ok {
			delete(repo.db.activities, id)
			cnt++
		}
	}
	for id, at := range repo.db.attendees {
		if set[at.ActivityID] {
			delete(repo.db.attendees, id)
		}
	}
	return cnt, nil
}

func (repo *activityRepository) CreateAttendee(_ context.Context, at activity.Attendee, _ ...core.DBExecutor) (activity.Attendee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkAttendeeRefs(at); err != nil {
		return activity.Attendee{}, err
	}
	at.ID = repo.db.nextID()
	at.UserName, at.AttendeeType = "", ""
	repo.db.attendees[at.ID] = &at
	return repo.joinAttendee(at), nil
}

func (repo *activityRepository) GetAttendee(_ context.Context, id int64, _ ...core.DBExecutor) (activity.Attendee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if at, ok := repo.db.attendees[id]; ok {
		return repo.joinAttendee(*at), nil
	}
	return activity.Attendee{}, activity.ErrAttendeeNotFound
}

func (repo *activityRepository) UpdateAttendee(_ context.Context, at activity.Attendee, _ ...core.DBExecutor) (activity.Attendee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.attendees[at.ID]; !ok {
		return activity.Attendee{}, activity.ErrAttendeeNotFound
	}
	if err := repo.checkAttendeeRefs(at); err != nil {
		return activity.Attendee{}, err
	}
	at.UserName, at.AttendeeType = "", ""
	repo.db.attendees[at.ID] = &at
	return repo.joinAttendee(at), nil
}

func (repo *activityRepository) QueryAttendees(_ context.Context, filter *activity.AttendeeFilter, _ ...core.DBExecutor) ([]activity.Attendee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attendees := make([]activity.Attendee, 0)
	for _, id := range sortedIDs(repo.db.attendees) {
		at := repo.db.attendees[id]
		if filter != nil {
			if filter.ActivityID != nil && at.ActivityID != *filter.ActivityID {
				continue
			}
			if filter.UserID != nil && at.UserID != *filter.UserID {
				continue
			}
		}
		attendees = append(attendees, repo.joinAttendee(*at))
	}
	return attendees, nil
}

func (repo *activityRepository) DeleteAttendeesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for id := range idSet(ids) {
		if _, ok := repo.db.attendees[id]; ok {
			delete(repo.db.attendees, id)
			cnt++
		}
	}
	return cnt, nil
}
