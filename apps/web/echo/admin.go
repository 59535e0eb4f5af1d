package echoweb

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type (
	adminRow struct {
		ID    int64
		Cells []interface{}
	}

	// adminModel declares the list view and delete action of one entity.
	adminModel struct {
		Name       string
		Title      string
		Columns    []string
		Searchable bool
		rows       func(ctx context.Context, s *Server, q adminQuery) ([]adminRow, error)
		delete     func(ctx context.Context, s *Server, id int64) (int, error)
	}

	adminIndexPage struct {
		Models []adminModel
	}

	adminListPage struct {
		Name       string
		Title      string
		Columns    []string
		Searchable bool
		Search     string
		Rows       []adminRow
	}
)

func optID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func registerAdminRoutes(e *echo.Echo, s *Server) {
	h := adminHandlers{Server: s, models: adminRegistry()}

	g := e.Group("/admin", loginRequired, superUserRequired)
	g.GET("", h.index)
	g.GET("/:model", h.list)
	g.POST("/:model/:id/delete", h.delete)
}

type adminHandlers struct {
	*Server
	models []adminModel
}

func (h adminHandlers) model(name string) (adminModel, bool) {
	for _, m := range h.models {
		if m.Name == name {
			return m, true
		}
	}
	return adminModel{}, false
}

func (h adminHandlers) index(ctx echo.Context) error {
	return h.render(ctx, http.StatusOK, "admin_index", adminIndexPage{Models: h.models})
}

func (h adminHandlers) list(ctx echo.Context) error {
	m, ok := h.model(ctx.Param("model"))
	if !ok {
		return errHTTPNotFound
	}
	var q adminQuery
	q.bind(ctx)
	rows, err := m.rows(ctx.Request().Context(), h.Server, q)
	if err != nil {
		return errors.Wrapf(err, "listing %s", m.Name)
	}
	return h.render(ctx, http.StatusOK, "admin_list", adminListPage{
		Name:       m.Name,
		Title:      m.Title,
		Columns:    m.Columns,
		Searchable: m.Searchable,
		Search:     q.Search,
		Rows:       rows,
	})
}

func (h adminHandlers) delete(ctx echo.Context) error {
	m, ok := h.model(ctx.Param("model"))
	if !ok {
		return errHTTPNotFound
	}
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return errHTTPNotFound
	}
	n, err := m.delete(ctx.Request().Context(), h.Server, id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s %d", m.Name, id)
	}
	if n == 0 {
		return errHTTPNotFound
	}
	return ctx.Redirect(http.StatusSeeOther, "/admin/"+m.Name)
}
