package activity

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/simplesis/simplesis/core"
)

type Activity struct {
	ID                 int64     `json:"id"`
	SchoolID           int64     `json:"school_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CategoryID         int64     `json:"category_id"`
	StartAt            time.Time `json:"start_at"` // UTC
	VenueID            int64     `json:"venue_id"`
	DistanceFromSchool int       `json:"distance_from_school"` // metres

	// read-only, joined
	CategoryName string `json:"category_name"`
	VenueName    string `json:"venue_name"`

	core.Tracking
}

func (a Activity) String() string { return a.Name }

// Attendee is a user's participation in an activity, as organiser or attendee.
type Attendee struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	IsOrganiser    bool       `json:"is_organiser"`
	AttendeeTypeID int64      `json:"attendee_type_id"`
	ActivityID     int64      `json:"activity_id"`
	ApprovedAt     *time.Time `json:"approved_at"` // UTC
	ApprovedByID   *int64     `json:"approved_by_id"`
	AttendedAt     *time.Time `json:"attended_at"` // UTC

	// read-only, joined
	UserName     string `json:"user_name"`
	AttendeeType string `json:"attendee_type"`

	core.Tracking
}

func (a Attendee) IsApproved() bool  { return a.ApprovedAt != nil }
func (a Attendee) HasAttended() bool { return a.AttendedAt != nil }

// Detail is an activity with its attendee rows split by role.
type Detail struct {
	Activity   Activity
	Organisers []Attendee
	Attendees  []Attendee
}

// Partition splits rows on IsOrganiser, keeping their order.
func Partition(rows []Attendee) (organisers, attendees []Attendee) {
	organisers = make([]Attendee, 0, len(rows))
	attendees = make([]Attendee, 0, len(rows))
	for _, row := range rows {
		if row.IsOrganiser {
			organisers = append(organisers, row)
		} else {
			attendees = append(attendees, row)
		}
	}
	return organisers, attendees
}

type NewActivity struct {
	SchoolID           int64     `json:"school_id" form:"school_id" validate:"required"`
	Name               string    `json:"name" form:"name" validate:"required,notblank,max=150"`
	Description        string    `json:"description" form:"description" validate:"required,notblank"`
	CategoryID         int64     `json:"category_id" form:"category_id" validate:"required"`
	StartAt            time.Time `json:"start_at" form:"start_at" validate:"required"`
	VenueID            int64     `json:"venue_id" form:"venue_id" validate:"required"`
	DistanceFromSchool int       `json:"distance_from_school" form:"distance_from_school" validate:"min=0"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type NewAttendee struct {
	UserID         int64      `json:"user_id" form:"user_id" validate:"required"`
	IsOrganiser    bool       `json:"is_organiser" form:"is_organiser"`
	AttendeeTypeID int64      `json:"attendee_type_id" form:"attendee_type_id" validate:"required"`
	ActivityID     int64      `json:"activity_id" form:"activity_id" validate:"required"`
	ApprovedAt     *time.Time `json:"approved_at" form:"approved_at"`
	ApprovedByID   *int64     `json:"approved_by_id" form:"approved_by_id"`
	AttendedAt     *time.Time `json:"attended_at" form:"attended_at"`
}

func (na *NewAttendee) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type QueryFilter struct {
	SchoolID *int64 `query:"school_id"`
	Search   string `query:"search"`
}

// GetFilter selects one activity; a non-nil SchoolID restricts the match to that school.
type GetFilter struct {
	ID       int64
	SchoolID *int64
}

type AttendeeFilter struct {
	ActivityID *int64 `query:"activity_id"`
	UserID     *int64 `query:"user_id"`
}
