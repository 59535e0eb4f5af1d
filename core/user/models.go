package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/simplesis/simplesis/core"
)

// AccountType classifies users (staff, student, volunteer, ...).
type AccountType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	core.Tracking
}

func (at AccountType) String() string { return at.Name }

type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PasswordHash  []byte     `json:"-"`
	IsActive      bool       `json:"is_active"`
	IsStaff       bool       `json:"is_staff"`
	LastLogin     *time.Time `json:"last_login"` // UTC
	SchoolID      *int64     `json:"school_id"`
	AccountTypeID *int64     `json:"account_type_id"`
	core.Tracking
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) String() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// IsSuperAdmin reports whether the user is not attached to any school.
func (u User) IsSuperAdmin() bool { return u.SchoolID == nil }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email           string `json:"email" form:"email" validate:"required,email"`
	FirstName       string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" form:"last_name" validate:"max=150"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
	IsStaff         bool   `json:"is_staff" form:"is_staff"`
	SchoolID        *int64 `json:"school_id" form:"school_id"`
	AccountTypeID   *int64 `json:"account_type_id" form:"account_type_id"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Email           string `json:"email" form:"email" validate:"omitempty,email"`
	FirstName       string `json:"first_name" form:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" form:"last_name" validate:"max=150"`
	IsActive        *bool  `json:"is_active" form:"is_active"`
	IsStaff         *bool  `json:"is_staff" form:"is_staff"`
	SchoolID        *int64 `json:"school_id" form:"school_id"`
	AccountTypeID   *int64 `json:"account_type_id" form:"account_type_id"`
	Password        string `json:"password" form:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if name := core.CleanString(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if name := core.CleanString(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" form:"token" validate:"required"`
	UID             string `json:"uid,omitempty" form:"uid" validate:"required"`
	Password        string `json:"password,omitempty" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" form:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	IsStaff  *bool  `query:"is_staff"`
	SchoolID *int64 `query:"school_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsActive == nil && qf.IsStaff == nil && qf.SchoolID == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; the first non-zero field wins.
type GetFilter struct {
	ID    int64
	Email string
}

type NewAccountType struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=150"`
}

func (nat *NewAccountType) Validate(validate *validator.Validate) error {
	nat.Name = core.CleanString(nat.Name)
	return validate.Struct(nat)
}
