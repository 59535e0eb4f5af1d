package echoweb

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/simplesis/simplesis/core"
)

const (
	searchParam   = "search"
	orderingParam = "ordering"
)

// adminQuery holds the list options of an admin page.
type adminQuery struct {
	Search    string
	Orderings []core.DBOrdering
}

// bind reads `?search=` and `?ordering=email,-created_at`; a leading "-" sorts descending.
func (q *adminQuery) bind(ctx echo.Context) {
	q.Search = strings.TrimSpace(ctx.QueryParam(searchParam))

	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		q.Orderings = append(q.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
