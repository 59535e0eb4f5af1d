package inmemdb

import (
	"context"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/lookup"
)

type lookupRepository struct {
	db *DB
}

var _ lookup.Repository = (*lookupRepository)(nil) // interface compliance check

func NewLookupRepository(db *DB) lookup.Repository {
	return &lookupRepository{db: db}
}

// withType fills the joined fields of c. Must be called with a lock held.
func (repo *lookupRepository) withType(c lookup.Code) lookup.Code {
	if ct, ok := repo.db.codeTypes[c.TypeID]; ok {
		c.TypeCode = ct.Code
	}
	return c
}

func (repo *lookupRepository) CreateType(_ context.Context, ct lookup.CodeType, _ ...core.DBExecutor) (lookup.CodeType, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, t := range repo.db.codeTypes {
		if t.Code == ct.Code {
			return lookup.CodeType{}, lookup.ErrTypeExists
		}
	}
	if err := repo.db.checkTracking(ct.Tracking); err != nil {
		return lookup.CodeType{}, err
	}
	ct.ID = repo.db.nextID()
	repo.db.codeTypes[ct.ID] = &ct
	return ct, nil
}

func (repo *lookupRepository) GetTypeByCode(_ context.Context, code string, _ ...core.DBExecutor) (lookup.CodeType, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, ct := range repo.db.codeTypes {
		if ct.Code == code {
			return *ct, nil
		}
	}
	return lookup.CodeType{}, lookup.ErrTypeNotFound
}

func (repo *lookupRepository) QueryTypes(_ context.Context, _ ...core.DBExecutor) ([]lookup.CodeType, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	types := make([]lookup.CodeType, 0, len(repo.db.codeTypes))
	for _, id := range sortedIDs(repo.db.codeTypes) {
		types = append(types, *repo.db.codeTypes[id])
	}
	return types, nil
}

func (repo *lookupRepository) DeleteTypesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, c := range repo.db.codes {
		if set[c.TypeID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.codeTypes[id]; ok {
			delete(repo.db.codeTypes, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *lookupRepository) CreateCode(_ context.Context, c lookup.Code, _ ...core.DBExecutor) (lookup.Code, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.codeTypes[c.TypeID]; !ok {
		return lookup.Code{}, lookup.ErrTypeNotFound
	}
	for _, other := range repo.db.codes {
		if other.TypeID == c.TypeID && other.Code == c.Code {
			return lookup.Code{}, lookup.ErrCodeExists
		}
	}
	if err := repo.db.checkTracking(c.Tracking); err != nil {
		return lookup.Code{}, err
	}
	c.ID = repo.db.nextID()
	c.TypeCode = ""
	repo.db.codes[c.ID] = &c
	return repo.withType(c), nil
}

func (repo *lookupRepository) GetCode(_ context.Context, id int64, _ ...core.DBExecutor) (lookup.Code, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.codes[id]; ok {
		return repo.withType(*c), nil
	}
	return lookup.Code{}, lookup.ErrCodeNotFound
}

func (repo *lookupRepository) QueryCodes(_ context.Context, filter *lookup.QueryFilter, _ ...core.DBExecutor) ([]lookup.Code, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	codes := make([]lookup.Code, 0, len(repo.db.codes))
	for _, id := range sortedIDs(repo.db.codes) {
		c := repo.withType(*repo.db.codes[id])
		if filter != nil && filter.TypeCode != "" && c.TypeCode != filter.TypeCode {
			continue
		}
		codes = append(codes, c)
	}
	return codes, nil
}

func (repo *lookupRepository) DeleteCodesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, act := range repo.db.activities {
		if set[act.CategoryID] {
			return 0, core.ErrProtected
		}
	}
	for _, at := range repo.db.attendees {
		if set[at.AttendeeTypeID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.codes[id]; ok {
			delete(repo.db.codes, id)
			cnt++
		}
	}
	return cnt, nil
}
