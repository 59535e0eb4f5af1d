package lookup

import (
	"context"

	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
)

var (
	// errors
	ErrTypeNotFound = errors.New("lookup code type not found")
	ErrCodeNotFound = errors.New("lookup code not found")
	ErrTypeExists   = errors.New("a lookup code type with this code already exists")
	ErrCodeExists   = errors.New("a lookup code with this code already exists for this type")
)

type (
	Repository interface {
		CreateType(ctx context.Context, ct CodeType, exec ...core.DBExecutor) (CodeType, error)
		GetTypeByCode(ctx context.Context, code string, exec ...core.DBExecutor) (CodeType, error)
		QueryTypes(ctx context.Context, exec ...core.DBExecutor) ([]CodeType, error)
		// DeleteTypesByID returns core.ErrProtected while a Code references one of the types.
		DeleteTypesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)

		CreateCode(ctx context.Context, c Code, exec ...core.DBExecutor) (Code, error)
		GetCode(ctx context.Context, id int64, exec ...core.DBExecutor) (Code, error)
		QueryCodes(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Code, error)
		// DeleteCodesByID returns core.ErrProtected while an Activity or Attendee references one of the codes.
		DeleteCodesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CreateType(ctx context.Context, nct NewCodeType, by *int64, exec ...core.DBExecutor) (CodeType, error)
		GetTypeByCode(ctx context.Context, code string) (CodeType, error)
		QueryTypes(ctx context.Context) ([]CodeType, error)
		DeleteTypes(ctx context.Context, ids ...int64) (int, error)

		CreateCode(ctx context.Context, nc NewCode, by *int64, exec ...core.DBExecutor) (Code, error)
		GetCode(ctx context.Context, id int64) (Code, error)
		// CheckCodeType returns a validation error on field when code id is not of the given type.
		CheckCodeType(ctx context.Context, id int64, typeCode, field string, exec ...core.DBExecutor) error
		QueryCodes(ctx context.Context, filter *QueryFilter) ([]Code, error)
		DeleteCodes(ctx context.Context, ids ...int64) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateType(ctx context.Context, nct NewCodeType, by *int64, exec ...core.DBExecutor) (CodeType, error) {
	ct, err := svc.repo.CreateType(ctx, CodeType{
		Code:        nct.Code,
		Description: nct.Description,
		Tracking:    core.NewTracking(by),
	}, exec...)
	if errors.Cause(err) == ErrTypeExists {
		return CodeType{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
	}
	return ct, err
}

func (svc *service) GetTypeByCode(ctx context.Context, code string) (CodeType, error) {
	return svc.repo.GetTypeByCode(ctx, code)
}

func (svc *service) QueryTypes(ctx context.Context) ([]CodeType, error) {
	return svc.repo.QueryTypes(ctx)
}

func (svc *service) DeleteTypes(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteTypesByID(ctx, ids)
}

func (svc *service) CreateCode(ctx context.Context, nc NewCode, by *int64, exec ...core.DBExecutor) (Code, error) {
	c, err := svc.repo.CreateCode(ctx, Code{
		TypeID:      nc.TypeID,
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		Tracking:    core.NewTracking(by),
	}, exec...)
	switch errors.Cause(err) {
	case ErrCodeExists:
		return Code{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
	case ErrTypeNotFound:
		return Code{}, core.NewValidationError(err, core.FieldError{Field: "type_id", Error: err.Error()})
	}
	return c, err
}

func (svc *service) GetCode(ctx context.Context, id int64) (Code, error) {
	return svc.repo.GetCode(ctx, id)
}

func (svc *service) CheckCodeType(ctx context.Context, id int64, typeCode, field string, exec ...core.DBExecutor) error {
	c, err := svc.repo.GetCode(ctx, id, exec...)
	if err != nil {
		if errors.Cause(err) == ErrCodeNotFound {
			return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
		}
		return err
	}
	if c.TypeCode != typeCode {
		err := errors.Errorf("lookup code %q is not of type %s", c.Code, typeCode)
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) QueryCodes(ctx context.Context, filter *QueryFilter) ([]Code, error) {
	return svc.repo.QueryCodes(ctx, filter)
}

func (svc *service) DeleteCodes(ctx context.Context, ids ...int64) (int, error) {
	return svc.repo.DeleteCodesByID(ctx, ids)
}
