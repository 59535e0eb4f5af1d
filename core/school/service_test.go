package school_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/tests"
)

func TestService_CreateLocation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		data      school.NewLocation
		wantField string
	}{
		{name: "postcode not numeric", data: school.NewLocation{Address1: "1 St", City: "X", State: "NSW", Postcode: "20a0"}, wantField: "postcode"},
		{name: "postcode out of range", data: school.NewLocation{Address1: "1 St", City: "X", State: "NSW", Postcode: "5900"}, wantField: "postcode"},
		{name: "postcode too long", data: school.NewLocation{Address1: "1 St", City: "X", State: "NT", Postcode: "00800"}, wantField: "postcode"},
		{name: "postcode with sign", data: school.NewLocation{Address1: "1 St", City: "X", State: "NSW", Postcode: "+2000"}, wantField: "postcode"},
		{name: "unknown state", data: school.NewLocation{Address1: "1 St", City: "X", State: "XYZ", Postcode: "2000"}, wantField: "state"},
		{name: "ok", data: school.NewLocation{Address1: "1 St", City: "Darwin", State: "NT", Postcode: "0820"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := env.SchoolSvc.QueryLocations(ctx)
			require.NoError(t, err)

			loc, err := env.SchoolSvc.CreateLocation(ctx, tt.data, nil)

			after, qErr := env.SchoolSvc.QueryLocations(ctx)
			require.NoError(t, qErr)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Len(t, after, len(before)+1)
				assert.Equal(t, school.StateNT, loc.State)
				return
			}
			vErr, ok := errors.Cause(err).(*core.ValidationError)
			require.True(t, ok, "want *core.ValidationError, got %v", err)
			assert.Contains(t, vErr.FieldErrors(), tt.wantField)
			assert.Len(t, after, len(before), "nothing persisted")
		})
	}
}

func TestNewLocation_Validate(t *testing.T) {
	env := testutil.NewEnv(t)

	nl := school.NewLocation{Address1: " 1 St ", City: "Hobart", State: " tas ", Postcode: " 7000 "}
	require.NoError(t, nl.Validate(env.Validate))
	assert.Equal(t, "TAS", nl.State)
	assert.Equal(t, "7000", nl.Postcode)
	assert.Equal(t, "1 St", nl.Address1)

	nl = school.NewLocation{Address1: "1 St", City: "Perth", State: "WA", Postcode: "6798"}
	err := nl.Validate(env.Validate)
	fldErrs, ok := core.FieldErrors(err, env.Translator)
	require.True(t, ok)
	assert.Equal(t, "enter a valid australian postcode", fldErrs["postcode"])
}

func TestService_UpdateLocation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	loc := testutil.CreateLocation(t, env, "Sydney")

	_, err := env.SchoolSvc.UpdateLocation(ctx, loc.ID, school.NewLocation{
		Address1: "2 St", City: "Sydney", State: "NSW", Postcode: "9999",
	}, nil)
	_, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)

	got, err := env.SchoolSvc.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.Postcode, got.Postcode)

	updated, err := env.SchoolSvc.UpdateLocation(ctx, loc.ID, school.NewLocation{
		Address1: "2 St", City: "Canberra", State: "ACT", Postcode: "2600",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Canberra", updated.City)
	assert.False(t, updated.UpdatedAt.Before(loc.UpdatedAt))
}

func TestService_CreateSchoolMissingLocation(t *testing.T) {
	env := testutil.NewEnv(t)

	_, err := env.SchoolSvc.CreateSchool(context.Background(), school.NewSchool{Name: "Nowhere High", LocationID: 12345}, nil)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %v", err)
	assert.Contains(t, vErr.FieldErrors(), "location_id")
}

func TestService_DeleteLocationInUse(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	sch := testutil.CreateSchool(t, env, "Hillview")

	_, err := env.SchoolSvc.DeleteLocations(ctx, sch.LocationID)
	assert.True(t, core.IsProtected(err))

	n, err := env.SchoolSvc.DeleteSchools(ctx, sch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.SchoolSvc.DeleteLocations(ctx, sch.LocationID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
