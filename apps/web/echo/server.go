package echoweb

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFFormField  = "csrf_token"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		UserSvc     user.Service
		SchoolSvc   school.Service
		LookupSvc   lookup.Service
		ActivitySvc activity.Service

		// HealthCheck reports whether the backing store is reachable; optional.
		HealthCheck func(ctx context.Context) error
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		sessions *sessions
		errors   chan error
		shutdown chan os.Signal
	}

	renderFunc func(ctx echo.Context, code int, name string, data interface{}) error
)

func NewServer(deps ServerDeps) (*Server, error) {
	rdr, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		sessions: &sessions{conf: deps.Conf, userSvc: deps.UserSvc},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.app.Renderer = rdr
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.deps.Logger, s.render, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				s.deps.Logger.Info(fmt.Sprintf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency),
					map[string]interface{}{"request_id": v.RequestID})
				return nil
			},
		}))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + CSRFFormField,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	s.app.Use(s.sessions.middleware)

	s.app.GET("/health", s.health)

	registerAuthRoutes(s.app, s)
	registerActivityRoutes(s.app, s)
	registerAdminRoutes(s.app, s)
}

// render executes the page template named name, wrapping data with the request's session info.
func (s *Server) render(ctx echo.Context, code int, name string, data interface{}) error {
	page := pageData{AppName: s.deps.Conf.AppName, Data: data}
	if usr, ok := getContextUser(ctx); ok {
		page.User = &usr
	}
	if token, ok := ctx.Get(middleware.DefaultCSRFConfig.ContextKey).(string); ok {
		page.CSRF = token
	}
	return ctx.Render(code, name, page)
}

func (s *Server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check failed", err)
			status["status"] = "db not ready"
			return ctx.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return ctx.JSON(http.StatusOK, status)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Start listens on the configured host; failures are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// GenerateSessionToken returns the session cookie value that logs usr in.
func (s *Server) GenerateSessionToken(usr user.User) (string, error) {
	return s.sessions.GenerateToken(usr)
}
