package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
)

const userColumns = `id, email, first_name, last_name, password_hash, is_active, is_staff, last_login, school_id, account_type_id, ` + trackingColumns

var userOrderings = map[string]string{
	"id":         "id",
	"email":      "email",
	"first_name": "first_name",
	"last_name":  "last_name",
	"created_at": "created_at",
}

type userRow struct {
	ID            int64       `db:"id"`
	Email         string      `db:"email"`
	FirstName     null.String `db:"first_name"`
	LastName      null.String `db:"last_name"`
	PasswordHash  []byte      `db:"password_hash"`
	IsActive      bool        `db:"is_active"`
	IsStaff       bool        `db:"is_staff"`
	LastLogin     null.Time   `db:"last_login"`
	SchoolID      null.Int64  `db:"school_id"`
	AccountTypeID null.Int64  `db:"account_type_id"`
	TrackingRow
}

type accountTypeRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	TrackingRow
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) boil(usr user.User) userRow {
	row := userRow{
		ID:            usr.ID,
		Email:         usr.Email,
		FirstName:     null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:      null.NewString(usr.LastName, usr.LastName != ""),
		PasswordHash:  usr.PasswordHash,
		IsActive:      usr.IsActive,
		IsStaff:       usr.IsStaff,
		LastLogin:     null.TimeFromPtr(usr.LastLogin),
		SchoolID:      null.Int64FromPtr(usr.SchoolID),
		AccountTypeID: null.Int64FromPtr(usr.AccountTypeID),
		TrackingRow:   boilTracking(usr.Tracking),
	}
	if row.LastLogin.Valid {
		row.LastLogin.Time = row.LastLogin.Time.UTC()
	}
	return row
}

func (repo userRepository) unboil(row userRow) user.User {
	usr := user.User{
		ID:            row.ID,
		Email:         row.Email,
		FirstName:     row.FirstName.String,
		LastName:      row.LastName.String,
		PasswordHash:  row.PasswordHash,
		IsActive:      row.IsActive,
		IsStaff:       row.IsStaff,
		SchoolID:      row.SchoolID.Ptr(),
		AccountTypeID: row.AccountTypeID.Ptr(),
		Tracking:      row.TrackingRow.unboil(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = core.TimePtr(row.LastLogin.Time.UTC())
	}
	return usr
}

// trapWriteErr also maps the unique email index violation to user.ErrEmailExists.
func (repo userRepository) trapWriteErr(err error, msg string) error {
	if pqCode(err) == uniqueViolation {
		return user.ErrEmailExists
	}
	return trapWriteErr(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	ids := make([]int64, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE LOWER(email) = LOWER($1) AND NOT (id = ANY($2)))`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, email, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := repo.boil(usr)
	q := `INSERT INTO "user" (email, first_name, last_name, password_hash, is_active, is_staff, last_login, school_id, account_type_id, ` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q,
		row.Email, row.FirstName, row.LastName, row.PasswordHash, row.IsActive, row.IsStaff, row.LastLogin,
		row.SchoolID, row.AccountTypeID, row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return user.User{}, repo.trapWriteErr(err, "inserting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var w where
	if filter != nil {
		// users with FirstName, LastName or Email matching the search keyword
		if filter.Search != "" {
			w.add("(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.IsActive != nil {
			w.add("is_active = $%d", *filter.IsActive)
		}
		if filter.IsStaff != nil {
			w.add("is_staff = $%d", *filter.IsStaff)
		}
		if filter.SchoolID != nil {
			w.add("school_id = $%d", *filter.SchoolID)
		}
	}

	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + w.String() + orderBy(ordering, userOrderings, "id ASC")
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var w where
	switch {
	case filter.ID != 0:
		w.add("id = $%d", filter.ID)
	case filter.Email != "":
		w.add("LOWER(email) = LOWER($%d)", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + w.String()
	if err := repo.getExec(exec).GetContext(ctx, &row, q, w.args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := repo.boil(usr)
	q := `UPDATE "user" SET email = $2, first_name = $3, last_name = $4, password_hash = $5, is_active = $6, is_staff = $7,
		last_login = $8, school_id = $9, account_type_id = $10, updated_by_id = $11, updated_at = $12
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		row.ID, row.Email, row.FirstName, row.LastName, row.PasswordHash, row.IsActive, row.IsStaff,
		row.LastLogin, row.SchoolID, row.AccountTypeID, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return user.User{}, repo.trapWriteErr(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unboil(row), nil
}

// DeleteUsersByID relies on the schema to cascade attendee rows and null tracking references.
func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, trapDeleteErr(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	return int(cnt), err
}

func (repo userRepository) CreateAccountType(ctx context.Context, at user.AccountType, exec ...core.DBExecutor) (user.AccountType, error) {
	row := accountTypeRow{Name: at.Name, TrackingRow: boilTracking(at.Tracking)}
	q := `INSERT INTO user_account_type (name, ` + trackingColumns + `) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q, row.Name, row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		return user.AccountType{}, trapWriteErr(err, "inserting account type")
	}
	return user.AccountType{ID: row.ID, Name: row.Name, Tracking: row.TrackingRow.unboil()}, nil
}

func (repo userRepository) QueryAccountTypes(ctx context.Context, exec ...core.DBExecutor) ([]user.AccountType, error) {
	var rows []accountTypeRow
	q := `SELECT id, name, ` + trackingColumns + ` FROM user_account_type ORDER BY id`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying account types")
	}
	types := make([]user.AccountType, 0, len(rows))
	for _, row := range rows {
		types = append(types, user.AccountType{ID: row.ID, Name: row.Name, Tracking: row.TrackingRow.unboil()})
	}
	return types, nil
}

func (repo userRepository) GetAccountType(ctx context.Context, id int64, exec ...core.DBExecutor) (user.AccountType, error) {
	var row accountTypeRow
	q := `SELECT id, name, ` + trackingColumns + ` FROM user_account_type WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return user.AccountType{}, user.ErrAccountTypeNotFound
		}
		return user.AccountType{}, errors.Wrap(err, "finding account type")
	}
	return user.AccountType{ID: row.ID, Name: row.Name, Tracking: row.TrackingRow.unboil()}, nil
}

func (repo userRepository) DeleteAccountTypesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM user_account_type WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, trapDeleteErr(err, "deleting account types")
	}
	cnt, err := res.RowsAffected()
	return int(cnt), err
}
