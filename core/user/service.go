package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
)

var (
	// errors
	ErrNotFound            = errors.New("user not found")
	ErrEmailExists         = errors.New("a user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountTypeNotFound = errors.New("account type not found")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FirstName, User.LastName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// DeleteUsersByID also removes the users' attendee rows and nulls their tracking references.
		DeleteUsersByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)

		CreateAccountType(ctx context.Context, at AccountType, exec ...core.DBExecutor) (AccountType, error)
		QueryAccountTypes(ctx context.Context, exec ...core.DBExecutor) ([]AccountType, error)
		GetAccountType(ctx context.Context, id int64, exec ...core.DBExecutor) (AccountType, error)
		DeleteAccountTypesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser, by *int64, exec ...core.DBExecutor) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int64) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser, by *int64) (User, error)
		Delete(ctx context.Context, ids ...int64) (int, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error

		CreateAccountType(ctx context.Context, nat NewAccountType, by *int64, exec ...core.DBExecutor) (AccountType, error)
		QueryAccountTypes(ctx context.Context) ([]AccountType, error)
		GetAccountType(ctx context.Context, id int64) (AccountType, error)
		DeleteAccountTypes(ctx context.Context, ids ...int64) (int, error)
	}

	service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
	}

	passwordResetData struct {
		Name  string
		UID   string
		Token string
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) Service {
	return &service{conf: conf, repo: repo, mailSvc: mailSvc}
}

// trapInvalidRefErr reports a missing school or account type as a form-level validation error.
func trapInvalidRefErr(err error) error {
	if errors.Cause(err) == core.ErrInvalidReference {
		return core.NewValidationError(err)
	}
	return err
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser, by *int64, exec ...core.DBExecutor) (User, error) {
	usr := User{
		Email:         nu.Email,
		FirstName:     nu.FirstName,
		LastName:      nu.LastName,
		IsActive:      true,
		IsStaff:       nu.IsStaff,
		SchoolID:      nu.SchoolID,
		AccountTypeID: nu.AccountTypeID,
		Tracking:      core.NewTracking(by),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr, exec...)
	return usr, trapInvalidRefErr(err)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser, by *int64) (User, error) {
	usr.Email = uu.Email
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.IsStaff != nil {
		usr.IsStaff = *uu.IsStaff
	}
	if uu.SchoolID != nil {
		usr.SchoolID = uu.SchoolID
	}
	if uu.AccountTypeID != nil {
		usr.AccountTypeID = uu.AccountTypeID
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.Touch(by)
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, trapInvalidRefErr(err)
}

func (svc *service) Delete(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteUsersByID(ctx, ids)
}

// Authenticate returns the active user matching the credentials, or ErrInvalidCredentials.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.IsActive || usr.CheckPassword(pwd) != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.TimePtr(core.NowFunc())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	msg, err := svc.passwordResetMessage(usr)
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) passwordResetMessage(usr User) (*core.EmailMessage, error) {
	token, err := MakeToken(usr, svc.conf.SecretKey)
	if err != nil {
		return nil, errors.Wrap(err, "making password reset token")
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:  usr.String(),
			UID:   EncodeUID(usr),
			Token: token,
		},
	}, nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidErr := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidErr
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidErr
		}
		return err
	}
	if err := verifyToken(usr, data.Token, svc.conf.SecretKey, svc.conf.PasswordResetTimeoutDelta); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	if err := usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.Touch(&usr.ID)
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) CreateAccountType(ctx context.Context, nat NewAccountType, by *int64, exec ...core.DBExecutor) (AccountType, error) {
	return svc.repo.CreateAccountType(ctx, AccountType{Name: nat.Name, Tracking: core.NewTracking(by)}, exec...)
}

func (svc *service) QueryAccountTypes(ctx context.Context) ([]AccountType, error) {
	return svc.repo.QueryAccountTypes(ctx)
}

func (svc *service) GetAccountType(ctx context.Context, id int64) (AccountType, error) {
	return svc.repo.GetAccountType(ctx, id)
}

func (svc *service) DeleteAccountTypes(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteAccountTypesByID(ctx, ids)
}
