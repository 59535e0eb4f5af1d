package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/simplesis/simplesis/core"
)

// postgres error codes
const (
	fkViolation     = "23503"
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func pqCode(err error) pq.ErrorCode {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code
	}
	return ""
}

func pqConstraint(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Constraint
	}
	return ""
}

// trapDeleteErr maps a foreign key violation raised by a delete to core.ErrProtected.
func trapDeleteErr(err error, msg string) error {
	switch {
	case pqCode(err) == fkViolation:
		return core.ErrProtected
	case errors.Is(err, sql.ErrConnDone):
		return errors.Wrap(core.NewShutdownError("database connection closed"), msg)
	}
	return errors.Wrap(err, msg)
}

// trapWriteErr maps a foreign key violation raised by an insert or update to core.ErrInvalidReference.
func trapWriteErr(err error, msg string) error {
	switch {
	case pqCode(err) == fkViolation:
		return core.ErrInvalidReference
	case errors.Is(err, sql.ErrConnDone):
		return errors.Wrap(core.NewShutdownError("database connection closed"), msg)
	}
	return errors.Wrap(err, msg)
}

type TrackingRow struct {
	CreatedByID null.Int64 `db:"created_by_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedByID null.Int64 `db:"updated_by_id"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const trackingColumns = "created_by_id, created_at, updated_by_id, updated_at"

func boilTracking(tr core.Tracking) TrackingRow {
	return TrackingRow{
		CreatedByID: null.Int64FromPtr(tr.CreatedByID),
		CreatedAt:   tr.CreatedAt.UTC(),
		UpdatedByID: null.Int64FromPtr(tr.UpdatedByID),
		UpdatedAt:   tr.UpdatedAt.UTC(),
	}
}

func (row TrackingRow) unboil() core.Tracking {
	return core.Tracking{
		CreatedByID: row.CreatedByID.Ptr(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedByID: row.UpdatedByID.Ptr(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

// where accumulates AND-ed clauses with positional arguments.
// Each clause refers to its argument with a %[1]d verb.
type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, arg interface{}) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// orderBy renders orderings restricted to the allowed columns, falling back to dflt.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			parts = append(parts, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(parts) == 0 {
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
