package inmemdb

import (
	"sort"
	"sync"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
)

// DB is an in-memory store applying the same referential rules as the SQL schema.
// A single lock guards all tables since deletes cascade across them.
type DB struct {
	sync.RWMutex
	pkCount int64

	users        map[int64]*user.User
	accountTypes map[int64]*user.AccountType
	locations    map[int64]*school.Location
	schools      map[int64]*school.School
	venues       map[int64]*school.Venue
	codeTypes    map[int64]*lookup.CodeType
	codes        map[int64]*lookup.Code
	activities   map[int64]*activity.Activity
	attendees    map[int64]*activity.Attendee
}

func Open() *DB {
	return &DB{
		users:        make(map[int64]*user.User),
		accountTypes: make(map[int64]*user.AccountType),
		locations:    make(map[int64]*school.Location),
		schools:      make(map[int64]*school.School),
		venues:       make(map[int64]*school.Venue),
		codeTypes:    make(map[int64]*lookup.CodeType),
		codes:        make(map[int64]*lookup.Code),
		activities:   make(map[int64]*activity.Activity),
		attendees:    make(map[int64]*activity.Attendee),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID() int64 {
	db.pkCount++
	return db.pkCount
}

// trackings returns every tracking fragment in the store. Must be called with the write lock held.
func (db *DB) trackings() []*core.Tracking {
	var trs []*core.Tracking
	for _, r := range db.users {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.accountTypes {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.locations {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.schools {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.venues {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.codeTypes {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.codes {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.activities {
		trs = append(trs, &r.Tracking)
	}
	for _, r := range db.attendees {
		trs = append(trs, &r.Tracking)
	}
	return trs
}

// checkTracking rejects tracking references to missing users.
func (db *DB) checkTracking(tr core.Tracking) error {
	for _, id := range []*int64{tr.CreatedByID, tr.UpdatedByID} {
		if id == nil {
			continue
		}
		if _, ok := db.users[*id]; !ok {
			return core.ErrInvalidReference
		}
	}
	return nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortedIDs[T any](table map[int64]*T) []int64 {
	ids := make([]int64, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
