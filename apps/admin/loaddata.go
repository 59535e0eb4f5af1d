package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
)

// Fixture rows refer to each other by key.
type (
	accountTypeFixture struct {
		Key  string `yaml:"key"`
		Name string `yaml:"name"`
	}

	codeTypeFixture struct {
		Key         string `yaml:"key"`
		Code        string `yaml:"code"`
		Description string `yaml:"description"`
	}

	codeFixture struct {
		Key         string `yaml:"key"`
		Type        string `yaml:"type"`
		Code        string `yaml:"code"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}

	locationFixture struct {
		Key      string `yaml:"key"`
		Address1 string `yaml:"address1"`
		Address2 string `yaml:"address2"`
		City     string `yaml:"city"`
		State    string `yaml:"state"`
		Postcode string `yaml:"postcode"`
	}

	schoolFixture struct {
		Key      string `yaml:"key"`
		Name     string `yaml:"name"`
		Location string `yaml:"location"`
	}

	venueFixture struct {
		Key         string `yaml:"key"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Location    string `yaml:"location"`
	}

	userFixture struct {
		Key         string `yaml:"key"`
		Email       string `yaml:"email"`
		FirstName   string `yaml:"first_name"`
		LastName    string `yaml:"last_name"`
		Password    string `yaml:"password"`
		IsStaff     bool   `yaml:"is_staff"`
		School      string `yaml:"school"`
		AccountType string `yaml:"account_type"`
	}

	activityFixture struct {
		Key                string    `yaml:"key"`
		School             string    `yaml:"school"`
		Name               string    `yaml:"name"`
		Description        string    `yaml:"description"`
		Category           string    `yaml:"category"`
		StartAt            time.Time `yaml:"start_at"`
		Venue              string    `yaml:"venue"`
		DistanceFromSchool int       `yaml:"distance_from_school"`
	}

	attendeeFixture struct {
		Activity    string     `yaml:"activity"`
		User        string     `yaml:"user"`
		Type        string     `yaml:"type"`
		IsOrganiser bool       `yaml:"is_organiser"`
		ApprovedBy  string     `yaml:"approved_by"`
		ApprovedAt  *time.Time `yaml:"approved_at"`
		AttendedAt  *time.Time `yaml:"attended_at"`
	}

	fixtures struct {
		AccountTypes []accountTypeFixture `yaml:"account_types"`
		CodeTypes    []codeTypeFixture    `yaml:"lookup_types"`
		Codes        []codeFixture        `yaml:"lookup_codes"`
		Locations    []locationFixture    `yaml:"locations"`
		Schools      []schoolFixture      `yaml:"schools"`
		Venues       []venueFixture       `yaml:"venues"`
		Users        []userFixture        `yaml:"users"`
		Activities   []activityFixture    `yaml:"activities"`
		Attendees    []attendeeFixture    `yaml:"attendees"`
	}
)

type loadCounts struct {
	accountTypes, codeTypes, codes, locations, schools, venues, users, activities, attendees int
}

func (c loadCounts) String() string {
	return fmt.Sprintf(
		"loaded %d account types, %d lookup types, %d lookup codes, %d locations, %d schools, %d venues, %d users, %d activities, %d attendees",
		c.accountTypes, c.codeTypes, c.codes, c.locations, c.schools, c.venues, c.users, c.activities, c.attendees,
	)
}

// refs maps fixture keys to database IDs, per kind.
type refs map[string]map[string]int64

func (r refs) set(kind, key string, id int64) {
	if key == "" {
		return
	}
	if r[kind] == nil {
		r[kind] = make(map[string]int64)
	}
	r[kind][key] = id
}

func (r refs) get(kind, key string) (int64, error) {
	id, ok := r[kind][key]
	if !ok {
		return 0, errors.Errorf("unknown %s %q", kind, key)
	}
	return id, nil
}

func (r refs) getOptional(kind, key string) (*int64, error) {
	if key == "" {
		return nil, nil
	}
	id, err := r.get(kind, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (cli *commandLine) loadDataFile(path string) (loadCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return loadCounts{}, errors.Wrap(err, "opening fixtures")
	}
	defer func() { _ = f.Close() }()

	var fx fixtures
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&fx); err != nil {
		return loadCounts{}, errors.Wrapf(err, "decoding %s", path)
	}
	return cli.loadData(context.Background(), fx)
}

// loadData inserts every fixture inside one transaction: nothing is kept if any row fails.
func (cli *commandLine) loadData(ctx context.Context, fx fixtures) (loadCounts, error) {
	var counts loadCounts
	err := core.WithTx(ctx, cli.db, func(exec core.DBExecutor) error {
		counts = loadCounts{}
		r := make(refs)
		steps := []func(context.Context, core.DBExecutor, fixtures, refs, *loadCounts) error{
			cli.loadAccountTypes,
			cli.loadLookups,
			cli.loadPlaces,
			cli.loadUsers,
			cli.loadActivities,
		}
		for _, step := range steps {
			if err := step(ctx, exec, fx, r, &counts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return loadCounts{}, err
	}
	cli.logger.Info("fixtures loaded", map[string]interface{}{"counts": counts.String()})
	return counts, nil
}

func (cli *commandLine) loadAccountTypes(ctx context.Context, exec core.DBExecutor, fx fixtures, r refs, counts *loadCounts) error {
	for _, row := range fx.AccountTypes {
		nat := user.NewAccountType{Name: row.Name}
		if err := nat.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "account type %q", row.Key)
		}
		at, err := cli.usrSvc.CreateAccountType(ctx, nat, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "account type %q", row.Key)
		}
		r.set("account type", row.Key, at.ID)
		counts.accountTypes++
	}
	return nil
}

func (cli *commandLine) loadLookups(ctx context.Context, exec core.DBExecutor, fx fixtures, r refs, counts *loadCounts) error {
	for _, row := range fx.CodeTypes {
		nct := lookup.NewCodeType{Code: row.Code, Description: row.Description}
		if err := nct.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "lookup type %q", row.Key)
		}
		// the migrations seed the built-in types
		ct, err := cli.lookupSvc.GetTypeByCode(ctx, nct.Code)
		if errors.Cause(err) == lookup.ErrTypeNotFound {
			ct, err = cli.lookupSvc.CreateType(ctx, nct, nil, exec)
			if err == nil {
				counts.codeTypes++
			}
		}
		if err != nil {
			return errors.Wrapf(err, "lookup type %q", row.Key)
		}
		r.set("lookup type", row.Key, ct.ID)
	}

	for _, row := range fx.Codes {
		typeID, err := r.get("lookup type", row.Type)
		if err != nil {
			return errors.Wrapf(err, "lookup code %q", row.Key)
		}
		nc := lookup.NewCode{TypeID: typeID, Code: row.Code, Name: row.Name, Description: row.Description}
		if err = nc.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "lookup code %q", row.Key)
		}
		c, err := cli.lookupSvc.CreateCode(ctx, nc, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "lookup code %q", row.Key)
		}
		r.set("lookup code", row.Key, c.ID)
		counts.codes++
	}
	return nil
}

func (cli *commandLine) loadPlaces(ctx context.Context, exec core.DBExecutor, fx fixtures, r refs, counts *loadCounts) error {
	for _, row := range fx.Locations {
		nl := school.NewLocation{
			Address1: row.Address1,
			Address2: row.Address2,
			City:     row.City,
			State:    row.State,
			Postcode: row.Postcode,
		}
		if err := nl.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "location %q", row.Key)
		}
		loc, err := cli.schoolSvc.CreateLocation(ctx, nl, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "location %q", row.Key)
		}
		r.set("location", row.Key, loc.ID)
		counts.locations++
	}

	for _, row := range fx.Schools {
		locID, err := r.get("location", row.Location)
		if err != nil {
			return errors.Wrapf(err, "school %q", row.Key)
		}
		ns := school.NewSchool{Name: row.Name, LocationID: locID}
		if err = ns.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "school %q", row.Key)
		}
		sch, err := cli.schoolSvc.CreateSchool(ctx, ns, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "school %q", row.Key)
		}
		r.set("school", row.Key, sch.ID)
		counts.schools++
	}

	for _, row := range fx.Venues {
		locID, err := r.get("location", row.Location)
		if err != nil {
			return errors.Wrapf(err, "venue %q", row.Key)
		}
		nv := school.NewVenue{Name: row.Name, Description: row.Description, LocationID: locID}
		if err = nv.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "venue %q", row.Key)
		}
		v, err := cli.schoolSvc.CreateVenue(ctx, nv, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "venue %q", row.Key)
		}
		r.set("venue", row.Key, v.ID)
		counts.venues++
	}
	return nil
}

func (cli *commandLine) loadUsers(ctx context.Context, exec core.DBExecutor, fx fixtures, r refs, counts *loadCounts) error {
	for _, row := range fx.Users {
		schoolID, err := r.getOptional("school", row.School)
		if err != nil {
			return errors.Wrapf(err, "user %q", row.Key)
		}
		accountTypeID, err := r.getOptional("account type", row.AccountType)
		if err != nil {
			return errors.Wrapf(err, "user %q", row.Key)
		}
		nu := user.NewUser{
			Email:           row.Email,
			FirstName:       row.FirstName,
			LastName:        row.LastName,
			Password:        row.Password,
			PasswordConfirm: row.Password,
			IsStaff:         row.IsStaff,
			SchoolID:        schoolID,
			AccountTypeID:   accountTypeID,
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return errors.Wrapf(err, "user %q", row.Key)
		}
		usr, err := cli.usrSvc.Create(ctx, nu, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "user %q", row.Key)
		}
		r.set("user", row.Key, usr.ID)
		counts.users++
	}
	return nil
}

func (cli *commandLine) loadActivities(ctx context.Context, exec core.DBExecutor, fx fixtures, r refs, counts *loadCounts) error {
	for _, row := range fx.Activities {
		na := activity.NewActivity{
			Name:               row.Name,
			Description:        row.Description,
			StartAt:            row.StartAt,
			DistanceFromSchool: row.DistanceFromSchool,
		}
		var err error
		if na.SchoolID, err = r.get("school", row.School); err != nil {
			return errors.Wrapf(err, "activity %q", row.Key)
		}
		if na.CategoryID, err = r.get("lookup code", row.Category); err != nil {
			return errors.Wrapf(err, "activity %q", row.Key)
		}
		if na.VenueID, err = r.get("venue", row.Venue); err != nil {
			return errors.Wrapf(err, "activity %q", row.Key)
		}
		if err = na.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "activity %q", row.Key)
		}
		a, err := cli.activitySvc.Create(ctx, na, nil, exec)
		if err != nil {
			return errors.Wrapf(err, "activity %q", row.Key)
		}
		r.set("activity", row.Key, a.ID)
		counts.activities++
	}

	for i, row := range fx.Attendees {
		na := activity.NewAttendee{
			IsOrganiser: row.IsOrganiser,
			ApprovedAt:  row.ApprovedAt,
			AttendedAt:  row.AttendedAt,
		}
		var err error
		if na.ActivityID, err = r.get("activity", row.Activity); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		if na.UserID, err = r.get("user", row.User); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		if na.AttendeeTypeID, err = r.get("lookup code", row.Type); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		if na.ApprovedByID, err = r.getOptional("user", row.ApprovedBy); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		if err = na.Validate(cli.validate); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		if _, err = cli.activitySvc.AddAttendee(ctx, na, nil, exec); err != nil {
			return errors.Wrapf(err, "attendee #%d", i+1)
		}
		counts.attendees++
	}
	return nil
}
