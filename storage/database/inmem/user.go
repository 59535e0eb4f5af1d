package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) checkRefs(usr user.User) error {
	if usr.SchoolID != nil {
		if _, ok := repo.db.schools[*usr.SchoolID]; !ok {
			return core.ErrInvalidReference
		}
	}
	if usr.AccountTypeID != nil {
		if _, ok := repo.db.accountTypes[*usr.AccountTypeID]; !ok {
			return core.ErrInvalidReference
		}
	}
	return repo.db.checkTracking(usr.Tracking)
}

func (repo *userRepository) emailTaken(email string, excludedUsers []user.User) bool {
	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) && !isExcluded(*usr, excludedUsers) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.emailTaken(email, excludedUsers) {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(usr.Email, nil) {
		return user.User{}, user.ErrEmailExists
	}
	if err := repo.checkRefs(usr); err != nil {
		return user.User{}, err
	}
	usr.ID = repo.db.nextID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, id := range sortedIDs(repo.db.users) {
		usr := *repo.db.users[id]
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !(strings.Contains(strings.ToLower(usr.FirstName), search) ||
					strings.Contains(strings.ToLower(usr.LastName), search) ||
					strings.Contains(strings.ToLower(usr.Email), search)) {
					continue
				}
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsStaff != nil && usr.IsStaff != *filter.IsStaff {
				continue
			}
			if filter.SchoolID != nil && (usr.SchoolID == nil || *usr.SchoolID != *filter.SchoolID) {
				continue
			}
		}
		users = append(users, usr)
	}

	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		var less func(a, b user.User) bool
		switch ord.Field {
		case "email":
			less = func(a, b user.User) bool { return a.Email < b.Email }
		case "created_at":
			less = func(a, b user.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
		default:
			less = func(a, b user.User) bool { return a.ID < b.ID }
		}
		sort.SliceStable(users, func(i, j int) bool {
			if ord.Ascending {
				return less(users[i], users[j])
			}
			return less(users[j], users[i])
		})
	}
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.users {
			if strings.EqualFold(usr.Email, filter.Email) {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, []user.User{usr}) {
		return user.User{}, user.ErrEmailExists
	}
	if err := repo.checkRefs(usr); err != nil {
		return user.User{}, err
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

// DeleteUsersByID cascades to attendee rows and nulls tracking references.
// Approvals made by the users protect them from deletion.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, at := range repo.db.attendees {
		if at.ApprovedByID != nil && set[*at.ApprovedByID] && !set[at.UserID] {
			return 0, core.ErrProtected
		}
	}

	var cnt int
	for id := range set {
		if _, ok := repo.db.users[id]; !ok {
			continue
		}
		delete(repo.db.users, id)
		cnt++
	}
	for id, at := range repo.db.attendees {
		if set[at.UserID] {
			delete(repo.db.attendees, id)
		}
	}
	for _, tr := range repo.db.trackings() {
		for id := range set {
			tr.Forget(id)
		}
	}
	return cnt, nil
}

func (repo *userRepository) CreateAccountType(_ context.Context, at user.AccountType, _ ...core.DBExecutor) (user.AccountType, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.db.checkTracking(at.Tracking); err != nil {
		return user.AccountType{}, err
	}
	at.ID = repo.db.nextID()
	repo.db.accountTypes[at.ID] = &at
	return at, nil
}

func (repo *userRepository) QueryAccountTypes(_ context.Context, _ ...core.DBExecutor) ([]user.AccountType, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	types := make([]user.AccountType, 0, len(repo.db.accountTypes))
	for _, id := range sortedIDs(repo.db.accountTypes) {
		types = append(types, *repo.db.accountTypes[id])
	}
	return types, nil
}

func (repo *userRepository) GetAccountType(_ context.Context, id int64, _ ...core.DBExecutor) (user.AccountType, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if at, ok := repo.db.accountTypes[id]; ok {
		return *at, nil
	}
	return user.AccountType{}, user.ErrAccountTypeNotFound
}

func (repo *userRepository) DeleteAccountTypesByID(_ context.Context, ids []int64, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, usr := range repo.db.users {
		if usr.AccountTypeID != nil && set[*usr.AccountTypeID] {
			return 0, core.ErrProtected
		}
	}
	var cnt int
	for id := range set {
		if _, ok := repo.db.accountTypes[id]; ok {
			delete(repo.db.accountTypes, id)
			cnt++
		}
	}
	return cnt, nil
}
