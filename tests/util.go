package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/services/email"
	"github.com/simplesis/simplesis/services/logger"
	"github.com/simplesis/simplesis/storage/database/inmem"
)

// Env bundles the services wired on a fresh in-memory store.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	DB         *inmemdb.DB
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc     user.Service
	SchoolSvc   school.Service
	LookupSvc   lookup.Service
	ActivitySvc activity.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	lgr := logsvc.NewRollbarLogger(zap.NewNop(), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, lgr)

	db := inmemdb.Open()
	lookupSvc := lookup.NewService(inmemdb.NewLookupRepository(db))

	return &Env{
		Conf:        conf,
		Logger:      lgr,
		DB:          db,
		Validate:    validate,
		Translator:  translator,
		UserSvc:     user.NewService(conf, inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock(conf, lgr)),
		SchoolSvc:   school.NewService(inmemdb.NewSchoolRepository(db)),
		LookupSvc:   lookupSvc,
		ActivitySvc: activity.NewService(inmemdb.NewActivityRepository(db), lookupSvc),
	}
}

func CreateUser(t *testing.T, env *Env, email, pwd string, schoolID *int64, isStaff bool) user.User {
	t.Helper()
	usr, err := env.UserSvc.Create(context.Background(), user.NewUser{
		Email:    email,
		Password: pwd,
		IsStaff:  isStaff,
		SchoolID: schoolID,
	}, nil)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func DeactivateUser(t *testing.T, env *Env, usr user.User) user.User {
	t.Helper()
	inactive := false
	usr, err := env.UserSvc.Update(context.Background(), usr, user.UpdateUser{
		Email:     usr.Email,
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
		IsActive:  &inactive,
	}, nil)
	if err != nil {
		t.Fatalf("DeactivateUser() failed: %v", err)
	}
	return usr
}

func CreateLocation(t *testing.T, env *Env, city string) school.Location {
	t.Helper()
	loc, err := env.SchoolSvc.CreateLocation(context.Background(), school.NewLocation{
		Address1: "1 Main St",
		City:     city,
		State:    string(school.StateNSW),
		Postcode: "2000",
	}, nil)
	if err != nil {
		t.Fatalf("CreateLocation() failed: %v", err)
	}
	return loc
}

func CreateSchool(t *testing.T, env *Env, name string) school.School {
	t.Helper()
	loc := CreateLocation(t, env, name+" City")
	sch, err := env.SchoolSvc.CreateSchool(context.Background(), school.NewSchool{Name: name, LocationID: loc.ID}, nil)
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateVenue(t *testing.T, env *Env, name string) school.Venue {
	t.Helper()
	loc := CreateLocation(t, env, name+" City")
	v, err := env.SchoolSvc.CreateVenue(context.Background(), school.NewVenue{Name: name, LocationID: loc.ID}, nil)
	if err != nil {
		t.Fatalf("CreateVenue() failed: %v", err)
	}
	return v
}

// Lookups holds the codes created by SeedLookups.
type Lookups struct {
	Sport     lookup.Code // ACTIVITY_CATEGORY
	Excursion lookup.Code // ACTIVITY_CATEGORY
	Student   lookup.Code // ATTENDEE_TYPE
	Teacher   lookup.Code // ATTENDEE_TYPE
}

func SeedLookups(t *testing.T, env *Env) Lookups {
	t.Helper()
	ctx := context.Background()

	newType := func(code string) lookup.CodeType {
		ct, err := env.LookupSvc.CreateType(ctx, lookup.NewCodeType{Code: code}, nil)
		if err != nil {
			t.Fatalf("SeedLookups() failed: %v", err)
		}
		return ct
	}
	newCode := func(ct lookup.CodeType, code, name string) lookup.Code {
		c, err := env.LookupSvc.CreateCode(ctx, lookup.NewCode{TypeID: ct.ID, Code: code, Name: name}, nil)
		if err != nil {
			t.Fatalf("SeedLookups() failed: %v", err)
		}
		return c
	}

	category := newType(lookup.TypeActivityCategory)
	attendeeType := newType(lookup.TypeAttendeeType)
	return Lookups{
		Sport:     newCode(category, "SPORT", "Sport"),
		Excursion: newCode(category, "EXCURSION", "Excursion"),
		Student:   newCode(attendeeType, "STUDENT", "Student"),
		Teacher:   newCode(attendeeType, "TEACHER", "Teacher"),
	}
}

func CreateActivity(
	t *testing.T,
	env *Env,
	name string,
	schoolID, categoryID, venueID int64,
	startAt time.Time,
) activity.Activity {
	t.Helper()
	a, err := env.ActivitySvc.Create(context.Background(), activity.NewActivity{
		SchoolID:    schoolID,
		Name:        name,
		Description: name + " description",
		CategoryID:  categoryID,
		StartAt:     startAt,
		VenueID:     venueID,
	}, nil)
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return a
}

func AddAttendee(t *testing.T, env *Env, activityID, userID, typeID int64, isOrganiser bool) activity.Attendee {
	t.Helper()
	at, err := env.ActivitySvc.AddAttendee(context.Background(), activity.NewAttendee{
		UserID:         userID,
		IsOrganiser:    isOrganiser,
		AttendeeTypeID: typeID,
		ActivityID:     activityID,
	}, nil)
	if err != nil {
		t.Fatalf("AddAttendee() failed: %v", err)
	}
	return at
}
