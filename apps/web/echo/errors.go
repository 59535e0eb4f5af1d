package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/activity"
	"github.com/simplesis/simplesis/core/lookup"
	"github.com/simplesis/simplesis/core/school"
	"github.com/simplesis/simplesis/core/user"
)

var (
	errHTTPForbidden = echo.NewHTTPError(http.StatusForbidden, "You do not have permission to access this page.")
	errHTTPNotFound  = echo.NewHTTPError(http.StatusNotFound, "The requested page could not be found.")
	errHTTPNoSchool  = echo.NewHTTPError(http.StatusForbidden, "Your account is not attached to a school.")
	errHTTPProtected = echo.NewHTTPError(http.StatusConflict, "This record is still referenced by other records and cannot be deleted.")
)

type errorPage struct {
	Code    int
	Status  string
	Message interface{}
}

// toHTTPError maps domain errors to their HTTP counterpart; ok is false for unexpected errors.
func toHTTPError(err error) (herr *echo.HTTPError, ok bool) {
	switch origErr := errors.Cause(err); origErr {
	case activity.ErrNotFound, activity.ErrAttendeeNotFound,
		user.ErrNotFound, user.ErrAccountTypeNotFound,
		school.ErrLocationNotFound, school.ErrSchoolNotFound, school.ErrVenueNotFound,
		lookup.ErrTypeNotFound, lookup.ErrCodeNotFound:
		return errHTTPNotFound, true
	case activity.ErrNoSchool:
		return errHTTPNoSchool, true
	case core.ErrProtected:
		return errHTTPProtected, true
	default:
		switch e := origErr.(type) {
		case *echo.HTTPError:
			if e.Internal != nil {
				if inner, ok := e.Internal.(*echo.HTTPError); ok {
					return inner, true
				}
			}
			return e, true
		case *core.ValidationError:
			return echo.NewHTTPError(http.StatusBadRequest, e.Error()), true
		}
	}
	return nil, false
}

// newHTTPErrorHandler returns an echo.HTTPErrorHandler rendering error pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newHTTPErrorHandler(logger core.Logger, render renderFunc, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		herr, ok := toHTTPError(err)
		if !ok {
			msg := http.StatusText(http.StatusInternalServerError)
			herr = echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong on our side.")

			args := []interface{}{errors.Wrap(err, msg)}
			if usr, ok := getContextUser(ctx); ok {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		page := errorPage{Code: herr.Code, Status: http.StatusText(herr.Code), Message: herr.Message}
		if ctx.Echo().Debug {
			page.Message = err.Error()
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(herr.Code)
		} else {
			err = render(ctx, herr.Code, "error", page)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
