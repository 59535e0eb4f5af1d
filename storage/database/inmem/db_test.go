package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/tests"
)

type fixture struct {
	env     *testutil.Env
	lookups testutil.Lookups
	school  school.School
	venue   school.Venue
	staff   user.User
	student user.User
	act     activity.Activity
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	lookups := testutil.SeedLookups(t, env)
	sch := testutil.CreateSchool(t, env, "Hillview High")
	venue := testutil.CreateVenue(t, env, "Town Oval")
	staff := testutil.CreateUser(t, env, "staff@test.au", "pwd", &sch.ID, true)
	student := testutil.CreateUser(t, env, "student@test.au", "pwd", &sch.ID, false)
	act := testutil.CreateActivity(t, env, "Athletics Day", sch.ID, lookups.Sport.ID, venue.ID, time.Now().Add(24*time.Hour))
	return fixture{env, lookups, sch, venue, staff, student, act}
}

func TestDeleteUserCascadesAttendees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.AddAttendee(t, f.env, f.act.ID, f.student.ID, f.lookups.Student.ID, false)
	organiser := testutil.AddAttendee(t, f.env, f.act.ID, f.staff.ID, f.lookups.Teacher.ID, true)

	n, err := f.env.UserSvc.Delete(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := f.env.ActivitySvc.QueryAttendees(ctx, &activity.AttendeeFilter{ActivityID: &f.act.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, organiser.ID, rows[0].ID)
}

func TestDeleteUserNullsTracking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	venue, err := f.env.SchoolSvc.CreateVenue(ctx, school.NewVenue{Name: "Pool", LocationID: f.venue.LocationID}, &f.staff.ID)
	require.NoError(t, err)
	require.NotNil(t, venue.CreatedByID)

	_, err = f.env.UserSvc.Delete(ctx, f.staff.ID)
	require.NoError(t, err)

	venue, err = f.env.SchoolSvc.GetVenue(ctx, venue.ID)
	require.NoError(t, err)
	assert.Nil(t, venue.CreatedByID)
	assert.Nil(t, venue.UpdatedByID)
}

func TestDeleteUserProtectedByApproval(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	at := testutil.AddAttendee(t, f.env, f.act.ID, f.student.ID, f.lookups.Student.ID, false)
	_, err := f.env.ActivitySvc.Approve(ctx, at.ID, f.staff)
	require.NoError(t, err)

	_, err = f.env.UserSvc.Delete(ctx, f.staff.ID)
	assert.Equal(t, core.ErrProtected, errors.Cause(err))

	_, err = f.env.UserSvc.GetByID(ctx, f.staff.ID)
	assert.NoError(t, err)

	// deleting both the approver and the approved attendee removes the row with them
	n, err := f.env.UserSvc.Delete(ctx, f.staff.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteProtected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sch := f.school

	tests := []struct {
		name string
		del  func() (int, error)
	}{
		{"school with users and activities", func() (int, error) { return f.env.SchoolSvc.DeleteSchools(ctx, sch.ID) }},
		{"venue with activities", func() (int, error) { return f.env.SchoolSvc.DeleteVenues(ctx, f.venue.ID) }},
		{"location with a school", func() (int, error) { return f.env.SchoolSvc.DeleteLocations(ctx, sch.LocationID) }},
		{"category used by an activity", func() (int, error) { return f.env.LookupSvc.DeleteCodes(ctx, f.lookups.Sport.ID) }},
		{"code type with codes", func() (int, error) { return f.env.LookupSvc.DeleteTypes(ctx, f.lookups.Sport.TypeID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.del()
			assert.Equal(t, core.ErrProtected, errors.Cause(err))
			assert.Zero(t, n)
		})
	}

	_, err := f.env.SchoolSvc.GetSchool(ctx, sch.ID)
	assert.NoError(t, err)
	_, err = f.env.SchoolSvc.GetVenue(ctx, f.venue.ID)
	assert.NoError(t, err)
}

func TestDeleteActivityCascadesAttendees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.AddAttendee(t, f.env, f.act.ID, f.student.ID, f.lookups.Student.ID, false)

	n, err := f.env.ActivitySvc.Delete(ctx, f.act.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := f.env.ActivitySvc.QueryAttendees(ctx, &activity.AttendeeFilter{UserID: &f.student.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	// nothing references the venue any more
	n, err = f.env.SchoolSvc.DeleteVenues(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInvalidReference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.env.ActivitySvc.Create(ctx, activity.NewActivity{
		SchoolID:    f.school.ID,
		Name:        "Ghost trip",
		Description: "nowhere",
		CategoryID:  f.lookups.Excursion.ID,
		StartAt:     time.Now(),
		VenueID:     9999,
	}, nil)
	require.Error(t, err)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T", errors.Cause(err))
	assert.Equal(t, core.ErrInvalidReference, vErr.Err)

	missing := int64(9999)
	_, err = f.env.UserSvc.Create(ctx, user.NewUser{Email: "x@test.au", Password: "pwd", SchoolID: &missing}, nil)
	_, ok = errors.Cause(err).(*core.ValidationError)
	assert.True(t, ok)
}

func TestEmailUniqueCaseInsensitive(t *testing.T) {
	f := setup(t)
	_, err := f.env.UserSvc.Create(context.Background(), user.NewUser{Email: "STUDENT@test.au", Password: "pwd"}, nil)
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))
}
