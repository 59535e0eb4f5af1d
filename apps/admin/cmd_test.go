package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env, sqlmock.Sqlmock) {
	env := testutil.NewEnv(t)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	// start CLI
	cli := &commandLine{
		db:          sqlx.NewDb(mockDB, "sqlmock"),
		logger:      env.Logger,
		validate:    env.Validate,
		translator:  env.Translator,
		usrSvc:      env.UserSvc,
		schoolSvc:   env.SchoolSvc,
		lookupSvc:   env.LookupSvc,
		activitySvc: env.ActivitySvc,
	}
	return cli, env, mock
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if pwd == "" {
			return nil, nil
		}
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	origRun := gooseRunFunc
	defer func() { gooseRunFunc = origRun }()
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "excursion_notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env, _ := setup(t)

	usr := testutil.CreateUser(t, env, "awe@test.au", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.au"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.au"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lol"}},
		{name: "reset with email in capitals", args: []string{"resetpassword", "-email", "AWE@test.au"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		pwd := ""
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)

			refreshedUsr, err := env.UserSvc.GetByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			usr = refreshedUsr
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env, _ := setup(t)
	ctx := context.Background()
	sch := testutil.CreateSchool(t, env, "Hillview")

	t.Run("missing email", func(t *testing.T) {
		mockPassword("pwd")
		assert.Equal(t, errHelp, cli.run([]string{"admin", "adduser"}))
	})

	t.Run("missing password", func(t *testing.T) {
		mockPassword("")
		assert.Equal(t, errHelp, cli.run([]string{"admin", "adduser", "-email", "new@test.au"}))
	})

	t.Run("invalid email", func(t *testing.T) {
		mockPassword("pwd")
		err := cli.run([]string{"admin", "adduser", "-email", "not-an-email"})
		fldErrs, ok := core.FieldErrors(err, env.Translator)
		require.True(t, ok, "want field errors, got %v", err)
		assert.Contains(t, fldErrs, "email")
	})

	t.Run("create", func(t *testing.T) {
		mockPassword("Sup3r-S3cret!")
		err := cli.run([]string{
			"admin", "adduser", "-email", " Admin@Test.au", "-first", "Ada", "-last", "Lovelace",
			"-staff", "-school", strconv.FormatInt(sch.ID, 10),
		})
		require.NoError(t, err)

		usr, err := env.UserSvc.Authenticate(ctx, "admin@test.au", "Sup3r-S3cret!")
		require.NoError(t, err)
		assert.True(t, usr.IsStaff)
		assert.Equal(t, "Ada", usr.FirstName)
		require.NotNil(t, usr.SchoolID)
		assert.Equal(t, sch.ID, *usr.SchoolID)
	})

	t.Run("update reactivates", func(t *testing.T) {
		usr, err := env.UserSvc.GetByEmail(ctx, "admin@test.au")
		require.NoError(t, err)
		testutil.DeactivateUser(t, env, usr)

		mockPassword("N3w-Passw0rd!")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "admin@test.au"}))

		usr, err = env.UserSvc.Authenticate(ctx, "admin@test.au", "N3w-Passw0rd!")
		require.NoError(t, err)
		assert.False(t, usr.IsStaff)
		assert.Equal(t, "Ada", usr.FirstName, "names kept when not given")
		require.NotNil(t, usr.SchoolID, "school kept when not given")
	})
}

func Test_commandLine_loadData(t *testing.T) {
	t.Run("usage", func(t *testing.T) {
		cli, _, _ := setup(t)
		assert.Equal(t, errHelp, cli.run([]string{"admin", "loaddata"}))
	})

	t.Run("missing file", func(t *testing.T) {
		cli, _, _ := setup(t)
		err := cli.run([]string{"admin", "loaddata", filepath.Join(t.TempDir(), "nope.yaml")})
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		cli, env, mock := setup(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		counts, err := cli.loadDataFile("testdata/fixtures.yaml")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, loadCounts{
			accountTypes: 2, codeTypes: 2, codes: 4, locations: 2, schools: 1, venues: 1, users: 2, activities: 1, attendees: 2,
		}, counts)

		ctx := context.Background()
		student, err := env.UserSvc.Authenticate(ctx, "t.nguyen@hillview.example.edu.au", "Sup3r-S3cret!")
		require.NoError(t, err)

		acts, err := env.ActivitySvc.ListForUser(ctx, student)
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, "Museum trip", acts[0].Name)
		assert.Equal(t, "Excursion", acts[0].CategoryName)
		assert.Equal(t, "Australian Museum", acts[0].VenueName)

		detail, err := env.ActivitySvc.GetDetail(ctx, student, acts[0].ID)
		require.NoError(t, err)
		require.Len(t, detail.Organisers, 1)
		assert.Equal(t, "Supervisor", detail.Organisers[0].AttendeeType)
		require.Len(t, detail.Attendees, 1)
		assert.True(t, detail.Attendees[0].IsApproved())

		locs, err := env.SchoolSvc.QueryLocations(ctx)
		require.NoError(t, err)
		for _, loc := range locs {
			assert.Equal(t, "NSW", string(loc.State))
		}
	})

	writeFixtures := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "fixtures.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("invalid postcode rolls back", func(t *testing.T) {
		cli, env, mock := setup(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		path := writeFixtures(t, `
locations:
  - key: darwin
    address1: 1 Mitchell St
    city: Darwin
    state: NT
    postcode: "0900"
  - key: nowhere
    address1: 1 Main St
    city: Nowhere
    state: NSW
    postcode: "12"
`)
		_, err := cli.loadDataFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `location "nowhere"`)
		fldErrs, ok := core.FieldErrors(err, env.Translator)
		require.True(t, ok)
		assert.Equal(t, "enter a valid australian postcode", fldErrs["postcode"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown reference", func(t *testing.T) {
		cli, _, mock := setup(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		path := writeFixtures(t, `
schools:
  - key: ghost
    name: Ghost School
    location: missing
`)
		_, err := cli.loadDataFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown location "missing"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown field", func(t *testing.T) {
		cli, _, mock := setup(t)
		path := writeFixtures(t, "classrooms:\n  - key: a\n")
		_, err := cli.loadDataFile(path)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "no transaction opened")
	})
}
