package lookup

import (
	"github.com/go-playground/validator/v10"

	"github.com/simplesis/simplesis/core"
)

// Well-known code types.
const (
	TypeActivityCategory = "ACTIVITY_CATEGORY"
	TypeAttendeeType     = "ATTENDEE_TYPE"
)

// CodeType groups lookup codes, e.g. ACTIVITY_CATEGORY.
type CodeType struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	core.Tracking
}

func (ct CodeType) String() string { return ct.Code }

type Code struct {
	ID          int64  `json:"id"`
	TypeID      int64  `json:"type_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TypeCode    string `json:"type_code"` // read-only, joined from CodeType
	core.Tracking
}

func (c Code) String() string { return c.Name }

type NewCodeType struct {
	Code        string `json:"code" form:"code" validate:"required,notblank,max=25"`
	Description string `json:"description" form:"description" validate:"max=250"`
}

func (nct *NewCodeType) Validate(validate *validator.Validate) error {
	nct.Code = core.CleanString(nct.Code)
	nct.Description = core.CleanString(nct.Description)
	return validate.Struct(nct)
}

type NewCode struct {
	TypeID      int64  `json:"type_id" form:"type_id" validate:"required"`
	Code        string `json:"code" form:"code" validate:"required,notblank,max=25"`
	Name        string `json:"name" form:"name" validate:"required,notblank,max=150"`
	Description string `json:"description" form:"description" validate:"max=250"`
}

func (nc *NewCode) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type QueryFilter struct {
	TypeCode string `query:"type"`
}
