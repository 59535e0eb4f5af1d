package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core/activity"
)

type homePage struct {
	Activities []activity.Activity
}

func registerActivityRoutes(e *echo.Echo, s *Server) {
	h := activityHandlers{s}

	e.GET("/", h.home, loginRequired)
	e.GET("/activities/:id", h.detail, loginRequired)
}

type activityHandlers struct {
	*Server
}

func (h activityHandlers) home(ctx echo.Context) error {
	usr, _ := getContextUser(ctx)
	acts, err := h.deps.ActivitySvc.ListForUser(ctx.Request().Context(), usr)
	if err != nil {
		if errors.Cause(err) == activity.ErrNoSchool {
			return errHTTPNoSchool
		}
		return errors.Wrap(err, "listing activities")
	}
	return h.render(ctx, http.StatusOK, "home", homePage{Activities: acts})
}

func (h activityHandlers) detail(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return errHTTPNotFound
	}
	usr, _ := getContextUser(ctx)
	detail, err := h.deps.ActivitySvc.GetDetail(ctx.Request().Context(), usr, id)
	if err != nil {
		switch errors.Cause(err) {
		case activity.ErrNotFound:
			return errHTTPNotFound
		case activity.ErrNoSchool:
			return errHTTPNoSchool
		}
		return errors.Wrap(err, "getting activity detail")
	}
	return h.render(ctx, http.StatusOK, "activity_detail", detail)
}
