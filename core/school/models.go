package school

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simplesis/simplesis/core"
)

// State is an australian state or territory.
type State string

const (
	StateNSW State = "NSW"
	StateQLD State = "QLD"
	StateSA  State = "SA"
	StateTAS State = "TAS"
	StateVIC State = "VIC"
	StateWA  State = "WA"
	StateACT State = "ACT"
	StateNT  State = "NT"
)

var States = []State{StateNSW, StateQLD, StateSA, StateTAS, StateVIC, StateWA, StateACT, StateNT}

func (s State) IsValid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

type Location struct {
	ID       int64  `json:"id"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    State  `json:"state"`
	Postcode string `json:"postcode"`
	core.Tracking
}

func (l Location) String() string {
	addr := l.Address1
	if l.Address2 != "" {
		addr += ", " + l.Address2
	}
	return fmt.Sprintf("%s, %s %s %s", addr, l.City, l.State, l.Postcode)
}

type School struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	LocationID int64  `json:"location_id"`
	core.Tracking
}

func (s School) String() string { return s.Name }

type Venue struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LocationID  int64  `json:"location_id"`
	core.Tracking
}

func (v Venue) String() string { return v.Name }

// NewLocation contains the information needed to create or rewrite a Location.
type NewLocation struct {
	Address1 string `json:"address1" form:"address1" validate:"required,notblank,max=150"`
	Address2 string `json:"address2" form:"address2" validate:"max=150"`
	City     string `json:"city" form:"city" validate:"required,notblank,max=150"`
	State    string `json:"state" form:"state" validate:"required,auState"`
	Postcode string `json:"postcode" form:"postcode" validate:"required,max=4,postcode"`
}

func (nl *NewLocation) Validate(validate *validator.Validate) error {
	nl.Address1 = core.CleanString(nl.Address1)
	nl.Address2 = core.CleanString(nl.Address2)
	nl.City = core.CleanString(nl.City)
	nl.State = strings.ToUpper(core.CleanString(nl.State))
	nl.Postcode = core.CleanString(nl.Postcode)
	return validate.Struct(nl)
}

type NewSchool struct {
	Name       string `json:"name" form:"name" validate:"required,notblank,max=150"`
	LocationID int64  `json:"location_id" form:"location_id" validate:"required"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type NewVenue struct {
	Name        string `json:"name" form:"name" validate:"required,notblank,max=150"`
	Description string `json:"description" form:"description"`
	LocationID  int64  `json:"location_id" form:"location_id" validate:"required"`
}

func (nv *NewVenue) Validate(validate *validator.Validate) error {
	nv.Name = core.CleanString(nv.Name)
	nv.Description = core.CleanString(nv.Description)
	return validate.Struct(nv)
}
