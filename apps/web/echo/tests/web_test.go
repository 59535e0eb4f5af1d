package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/apps/web/echo"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/services/email"
	"github.com/simplesis/simplesis/tests"
)

type world struct {
	app      *echoweb.Server
	env      *testutil.Env
	hillUsr  user.User
	bayUsr   user.User
	staff    user.User
	super    user.User
	hillAct  activity.Activity
	bayAct   activity.Activity
	attendee activity.Attendee
}

func newWorld(t *testing.T) world {
	app, env := setup(t)
	lookups := testutil.SeedLookups(t, env)
	venue := testutil.CreateVenue(t, env, "Town Oval")
	hill := testutil.CreateSchool(t, env, "Hillview")
	bay := testutil.CreateSchool(t, env, "Bayside")

	w := world{app: app, env: env}
	w.hillUsr = testutil.CreateUser(t, env, "hill@test.au", "Sup3r-S3cret!", &hill.ID, false)
	w.bayUsr = testutil.CreateUser(t, env, "bay@test.au", "Sup3r-S3cret!", &bay.ID, false)
	w.staff = testutil.CreateUser(t, env, "staff@test.au", "Sup3r-S3cret!", &hill.ID, true)
	w.super = testutil.CreateUser(t, env, "root@test.au", "Sup3r-S3cret!", nil, true)

	start := time.Now().Add(24 * time.Hour)
	hillAct, err := env.ActivitySvc.Create(context.Background(), activity.NewActivity{
		SchoolID:           hill.ID,
		Name:               "Hillview Athletics",
		Description:        "track and field",
		CategoryID:         lookups.Sport.ID,
		StartAt:            start,
		VenueID:            venue.ID,
		DistanceFromSchool: 500,
	}, nil)
	require.NoError(t, err)
	w.hillAct = hillAct
	w.bayAct = testutil.CreateActivity(t, env, "Bayside Regatta", bay.ID, lookups.Sport.ID, venue.ID, start)
	testutil.AddAttendee(t, env, w.hillAct.ID, w.staff.ID, lookups.Teacher.ID, true)
	w.attendee = testutil.AddAttendee(t, env, w.hillAct.ID, w.hillUsr.ID, lookups.Student.ID, false)
	return w
}

func activityPath(a activity.Activity) string {
	return "/activities/" + strconv.FormatInt(a.ID, 10)
}

func TestLoginRequired(t *testing.T) {
	app, _ := setup(t)

	runHTTPTests(t, app, []httpTest{
		{name: "detail", path: "/activities/3", wantCode: http.StatusFound, wantLocation: "/login?next=%2Factivities%2F3"},
		{name: "home", path: "/", wantCode: http.StatusFound, wantLocation: "/login?next=%2F"},
		{name: "admin", path: "/admin", wantCode: http.StatusFound, wantLocation: "/login?next=%2Fadmin"},
		{name: "logout", path: "/logout", wantCode: http.StatusFound, wantLocation: "/login?next=%2Flogout"},
		{name: "login page", path: "/login?next=%2Factivities%2F3", wantBody: []string{`name="next" value="/activities/3"`}},
		{name: "health", path: "/health", wantBody: []string{`"status":"ok"`}},
	})
}

func TestHealthCheckFailing(t *testing.T) {
	env := testutil.NewEnv(t)
	app, err := echoweb.NewServer(echoweb.ServerDeps{
		Conf:        env.Conf,
		Logger:      env.Logger,
		Validate:    env.Validate,
		Translator:  env.Translator,
		UserSvc:     env.UserSvc,
		SchoolSvc:   env.SchoolSvc,
		LookupSvc:   env.LookupSvc,
		ActivitySvc: env.ActivitySvc,
		HealthCheck: func(context.Context) error { return errors.New("connection refused") },
	})
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "health", path: "/health", wantCode: http.StatusServiceUnavailable, wantBody: []string{`"status":"db not ready"`}},
	})
}

func TestHome(t *testing.T) {
	w := newWorld(t)

	runHTTPTests(t, w.app, []httpTest{
		{
			name: "own school only", path: "/", usr: &w.hillUsr,
			wantBody:     []string{"Hillview Athletics", activityPath(w.hillAct), "Town Oval", "Sport", "Distance (m)", "<td>500</td>"},
			dontWantBody: []string{"Bayside Regatta"},
		},
		{
			name: "other school", path: "/", usr: &w.bayUsr,
			wantBody:     []string{"Bayside Regatta"},
			dontWantBody: []string{"Hillview Athletics"},
		},
		{
			name: "no school", path: "/", usr: &w.super, wantCode: http.StatusForbidden,
			wantBody: []string{"not attached to a school"},
		},
	})
}

func TestActivityDetail(t *testing.T) {
	w := newWorld(t)

	runHTTPTests(t, w.app, []httpTest{
		{
			name: "own school", path: activityPath(w.hillAct), usr: &w.hillUsr,
			wantBody:     []string{"Hillview Athletics", "Organisers (1)", "Attendees (1)", "staff@test.au", "hill@test.au", "pending approval", "<dd>500 m</dd>"},
			dontWantBody: []string{" km"},
		},
		{name: "other school", path: activityPath(w.bayAct), usr: &w.hillUsr, wantCode: http.StatusNotFound},
		{name: "unknown id", path: "/activities/999999", usr: &w.hillUsr, wantCode: http.StatusNotFound},
		{name: "bad id", path: "/activities/abc", usr: &w.hillUsr, wantCode: http.StatusNotFound},
		{name: "no school", path: activityPath(w.hillAct), usr: &w.super, wantCode: http.StatusForbidden},
	})
}

func TestLogin(t *testing.T) {
	w := newWorld(t)
	inactive := testutil.DeactivateUser(t, w.env, testutil.CreateUser(t, w.env, "gone@test.au", "Sup3r-S3cret!", nil, false))

	form := func(email, pwd, next string) url.Values {
		return url.Values{"email": {email}, "password": {pwd}, "next": {next}}
	}

	runHTTPTests(t, w.app, []httpTest{
		{
			name: "redirects to next", method: http.MethodPost, path: "/login",
			form: form("HILL@test.au", "Sup3r-S3cret!", "/activities/3"), wantCode: http.StatusFound, wantLocation: "/activities/3",
		},
		{
			name: "redirects home by default", method: http.MethodPost, path: "/login",
			form: form("hill@test.au", "Sup3r-S3cret!", ""), wantCode: http.StatusFound, wantLocation: "/",
		},
		{
			name: "external next ignored", method: http.MethodPost, path: "/login",
			form: form("hill@test.au", "Sup3r-S3cret!", "//evil.example.com/"), wantCode: http.StatusFound, wantLocation: "/",
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/login",
			form: form("hill@test.au", "nope", "/"), wantBody: []string{"Please enter a correct email and password."},
		},
		{
			name: "inactive user", method: http.MethodPost, path: "/login",
			form: form(inactive.Email, "Sup3r-S3cret!", "/"), wantBody: []string{"Please enter a correct email and password."},
		},
		{
			name: "invalid email", method: http.MethodPost, path: "/login",
			form: form("not-an-email", "x", "/"), wantBody: []string{`value="not-an-email"`},
		},
		{
			name: "missing csrf", method: http.MethodPost, path: "/login", noCSRF: true,
			form: form("hill@test.au", "Sup3r-S3cret!", "/"), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("session cookie opens the home page", func(t *testing.T) {
		req, rec := newRequest(t, w.app, httpTest{method: http.MethodPost, path: "/login", form: form("hill@test.au", "Sup3r-S3cret!", "/")})
		w.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)
		session := findCookie(rec, echoweb.SessionCookieName)
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(session)
		rec = httptest.NewRecorder()
		w.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Hillview Athletics")

		usr, err := w.env.UserSvc.GetByID(req.Context(), w.hillUsr.ID)
		require.NoError(t, err)
		assert.NotNil(t, usr.LastLogin)
	})

	t.Run("tampered session is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: echoweb.SessionCookieName, Value: "not.a.token"})
		rec := httptest.NewRecorder()
		w.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("deactivated user loses session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(sessionCookie(t, w.app, inactive))
		rec := httptest.NewRecorder()
		w.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	w := newWorld(t)

	req, rec := newRequest(t, w.app, httpTest{path: "/logout", usr: &w.hillUsr})
	w.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	session := findCookie(rec, echoweb.SessionCookieName)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
}

func TestPasswordReset(t *testing.T) {
	w := newWorld(t)
	emailsvc.PopSentMessages()

	runHTTPTests(t, w.app, []httpTest{
		{name: "form", path: "/password-reset", wantBody: []string{`name="email"`}},
		{
			name: "unknown email looks the same", method: http.MethodPost, path: "/password-reset",
			form: url.Values{"email": {"ghost@test.au"}}, wantBody: []string{"an email will arrive in your inbox"},
		},
		{
			name: "known email", method: http.MethodPost, path: "/password-reset",
			form: url.Values{"email": {"hill@test.au"}}, wantBody: []string{"an email will arrive in your inbox"},
		},
	})

	sent := emailsvc.PopSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hill@test.au", sent[0].To[0].Address)

	uid := user.EncodeUID(w.hillUsr)
	token, err := user.MakeToken(w.hillUsr, w.env.Conf.SecretKey)
	require.NoError(t, err)

	confirm := func(pwd string) url.Values {
		return url.Values{"uid": {uid}, "token": {token}, "password": {pwd}, "password_confirm": {pwd}}
	}
	runHTTPTests(t, w.app, []httpTest{
		{
			name: "confirm form", path: "/password-reset/confirm?" + url.Values{"uid": {uid}, "token": {token}}.Encode(),
			wantBody: []string{`name="token" value="` + token + `"`},
		},
		{
			name: "weak password", method: http.MethodPost, path: "/password-reset/confirm",
			form: confirm("12345678"), dontWantBody: []string{"Your password has been set"},
		},
		{
			name: "ok", method: http.MethodPost, path: "/password-reset/confirm",
			form: confirm("N3w-Passw0rd!"), wantBody: []string{"Your password has been set"},
		},
		{
			name: "token used", method: http.MethodPost, path: "/password-reset/confirm",
			form: confirm("An0ther-Passw0rd!"), dontWantBody: []string{"Your password has been set"},
		},
	})
}

func TestAdmin(t *testing.T) {
	w := newWorld(t)
	schools, err := w.env.SchoolSvc.QuerySchools(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, schools)
	hill := schools[0]

	bayActPath := "/admin/activities/" + strconv.FormatInt(w.bayAct.ID, 10) + "/delete"

	runHTTPTests(t, w.app, []httpTest{
		{name: "staff only", path: "/admin", usr: &w.hillUsr, wantCode: http.StatusForbidden},
		{name: "school staff index", path: "/admin", usr: &w.staff, wantCode: http.StatusForbidden},
		{
			name: "school staff list", path: "/admin/activities", usr: &w.staff, wantCode: http.StatusForbidden,
			dontWantBody: []string{"Bayside Regatta"},
		},
		{
			name: "school staff users", path: "/admin/users", usr: &w.staff, wantCode: http.StatusForbidden,
			dontWantBody: []string{"bay@test.au"},
		},
		{name: "school staff delete", method: http.MethodPost, path: bayActPath, usr: &w.staff, wantCode: http.StatusForbidden},
		{name: "no admin link for school staff", path: "/", usr: &w.staff, dontWantBody: []string{`href="/admin"`}},
		{name: "index", path: "/admin", usr: &w.super, wantBody: []string{`href="/admin/schools"`, `href="/admin/attendees"`, `href="/admin"`}},
		{name: "list", path: "/admin/schools", usr: &w.super, wantBody: []string{"Hillview", "Bayside"}},
		{
			name: "user search", path: "/admin/users?search=BAY", usr: &w.super,
			wantBody: []string{"bay@test.au"}, dontWantBody: []string{"hill@test.au"},
		},
		{name: "user ordering", path: "/admin/users?ordering=-email", usr: &w.super, wantBody: []string{"staff@test.au"}},
		{name: "unknown model", path: "/admin/nope", usr: &w.super, wantCode: http.StatusNotFound},
		{
			name: "protected delete", method: http.MethodPost, usr: &w.super,
			path:     "/admin/schools/" + strconv.FormatInt(hill.ID, 10) + "/delete",
			wantCode: http.StatusConflict, wantBody: []string{"cannot be deleted"},
		},
		{
			name: "delete", method: http.MethodPost, usr: &w.super,
			path:     "/admin/attendees/" + strconv.FormatInt(w.attendee.ID, 10) + "/delete",
			wantCode: http.StatusSeeOther, wantLocation: "/admin/attendees",
		},
		{
			name: "delete missing", method: http.MethodPost, usr: &w.super,
			path:     "/admin/attendees/999999/delete",
			wantCode: http.StatusNotFound,
		},
	})

	_, err = w.env.ActivitySvc.Get(context.Background(), w.bayAct.ID)
	assert.NoError(t, err, "school staff must not delete other schools' activities")
}
