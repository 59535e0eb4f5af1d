package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesis/simplesis/apps/web/echo"
	"github.com/simplesis/simplesis/core/user"
	"github.com/simplesis/simplesis/tests"
)

func setup(t *testing.T) (*echoweb.Server, *testutil.Env) {
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
	})
	require.NoError(t, err)
	return app, env
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	usr          *user.User
	noCSRF       bool
	wantCode     int
	wantLocation string
	wantBody     []string
	dontWantBody []string
}

// csrfToken fetches a fresh CSRF cookie, as a browser would when loading a form.
func csrfToken(t *testing.T, app http.Handler) string {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == echoweb.CSRFCookieName {
			return c.Value
		}
	}
	t.Fatalf("csrfToken(): no %s cookie set", echoweb.CSRFCookieName)
	return ""
}

func sessionCookie(t *testing.T, app *echoweb.Server, usr user.User) *http.Cookie {
	token, err := app.GenerateSessionToken(usr)
	if err != nil {
		t.Fatalf("sessionCookie(): %v", err)
	}
	return &http.Cookie{Name: echoweb.SessionCookieName, Value: token}
}

func newRequest(t *testing.T, app *echoweb.Server, tt httpTest) (*http.Request, *httptest.ResponseRecorder) {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}

	form := url.Values{}
	for k, v := range tt.form {
		form[k] = v
	}
	var csrf string
	if method == http.MethodPost && !tt.noCSRF {
		csrf = csrfToken(t, app)
		form.Set(echoweb.CSRFFormField, csrf)
	}

	req := httptest.NewRequest(method, tt.path, strings.NewReader(form.Encode()))
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if csrf != "" {
		req.AddCookie(&http.Cookie{Name: echoweb.CSRFCookieName, Value: csrf})
	}
	if tt.usr != nil {
		req.AddCookie(sessionCookie(t, app, *tt.usr))
	}
	return req, httptest.NewRecorder()
}

func runHTTPTests(t *testing.T, app *echoweb.Server, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(t, app, tt)
			app.ServeHTTP(rec, req)
			checkResponse(t, tt, rec)
		})
	}
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
	}
	body := rec.Body.String()
	for _, s := range tt.wantBody {
		assert.Contains(t, body, s)
	}
	for _, s := range tt.dontWantBody {
		assert.NotContains(t, body, s)
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
