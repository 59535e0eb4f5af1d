package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/core/lookup"
)

const (
	codeTypeColumns = `id, code, description, ` + trackingColumns
	codeSelect      = `SELECT c.id, c.type_id, c.code, c.name, c.description, t.code AS type_code,
		c.created_by_id, c.created_at, c.updated_by_id, c.updated_at
		FROM lookup_code c JOIN lookup_code_type t ON t.id = c.type_id`
)

type (
	codeTypeRow struct {
		ID          int64       `db:"id"`
		Code        string      `db:"code"`
		Description null.String `db:"description"`
		TrackingRow
	}

	codeRow struct {
		ID          int64       `db:"id"`
		TypeID      int64       `db:"type_id"`
		Code        string      `db:"code"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		TypeCode    string      `db:"type_code"`
		TrackingRow
	}
)

type lookupRepository struct {
	repository
}

var _ lookup.Repository = (*lookupRepository)(nil) // interface compliance check

func NewLookupRepository(exec core.DBExecutor) lookup.Repository {
	return &lookupRepository{repository{exec: exec}}
}

func (repo lookupRepository) unboilType(row codeTypeRow) lookup.CodeType {
	return lookup.CodeType{
		ID:          row.ID,
		Code:        row.Code,
		Description: row.Description.String,
		Tracking:    row.TrackingRow.unboil(),
	}
}

func (repo lookupRepository) unboilCode(row codeRow) lookup.Code {
	return lookup.Code{
		ID:          row.ID,
		TypeID:      row.TypeID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description.String,
		TypeCode:    row.TypeCode,
		Tracking:    row.TrackingRow.unboil(),
	}
}

func (repo lookupRepository) CreateType(ctx context.Context, ct lookup.CodeType, exec ...core.DBExecutor) (lookup.CodeType, error) {
	row := codeTypeRow{
		Code:        ct.Code,
		Description: null.NewString(ct.Description, ct.Description != ""),
		TrackingRow: boilTracking(ct.Tracking),
	}
	q := `INSERT INTO lookup_code_type (code, description, ` + trackingColumns + `) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.getExec(exec).GetContext(ctx, &row.ID, q,
		row.Code, row.Description, row.CreatedByID, row.CreatedAt, row.UpdatedByID, row.UpdatedAt)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return lookup.CodeType{}, lookup.ErrTypeExists
		}
		return lookup.CodeType{}, trapWriteErr(err, "inserting lookup code type")
	}
	return repo.unboilType(row), nil
}

func (repo lookupRepository) GetTypeByCode(ctx context.Context, code string, exec ...core.DBExecutor) (lookup.CodeType, error) {
	var row codeTypeRow
	q := `SELECT ` + codeTypeColumns + ` FROM lookup_code_type WHERE code = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, code); err != nil {
		if err == sql.ErrNoRows {
			return lookup.CodeType{}, lookup.ErrTypeNotFound
		}
		return lookup.CodeType{}, errors.Wrap(err, "finding lookup code type")
	}
	return repo.unboilType(row), nil
}

func (repo lookupRepository) QueryTypes(ctx context.Context, exec ...core.DBExecutor) ([]lookup.CodeType, error) {
	var rows []codeTypeRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+codeTypeColumns+` FROM lookup_code_type ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying lookup code types")
	}
	types := make([]lookup.CodeType, 0, len(rows))
	for _, row := range rows {
		types = append(types, repo.unboilType(row))
	}
	return types, nil
}

func (repo lookupRepository) DeleteTypesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "lookup_code_type", ids)
}

func (repo lookupRepository) CreateCode(ctx context.Context, c lookup.Code, exec ...core.DBExecutor) (lookup.Code, error) {
	exe := repo.getExec(exec)
	tr := boilTracking(c.Tracking)

	var id int64
	q := `INSERT INTO lookup_code (type_id, code, name, description, ` + trackingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := exe.GetContext(ctx, &id, q,
		c.TypeID, c.Code, c.Name, null.NewString(c.Description, c.Description != ""),
		tr.CreatedByID, tr.CreatedAt, tr.UpdatedByID, tr.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return lookup.Code{}, lookup.ErrCodeExists
		case fkViolation:
			return lookup.Code{}, lookup.ErrTypeNotFound
		}
		return lookup.Code{}, errors.Wrap(err, "inserting lookup code")
	}
	return repo.GetCode(ctx, id, exe)
}

func (repo lookupRepository) GetCode(ctx context.Context, id int64, exec ...core.DBExecutor) (lookup.Code, error) {
	var row codeRow
	if err := repo.getExec(exec).GetContext(ctx, &row, codeSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return lookup.Code{}, lookup.ErrCodeNotFound
		}
		return lookup.Code{}, errors.Wrap(err, "finding lookup code")
	}
	return repo.unboilCode(row), nil
}

func (repo lookupRepository) QueryCodes(ctx context.Context, filter *lookup.QueryFilter, exec ...core.DBExecutor) ([]lookup.Code, error) {
	var w where
	if filter != nil && filter.TypeCode != "" {
		w.add("t.code = $%d", filter.TypeCode)
	}

	var rows []codeRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, codeSelect+w.String()+` ORDER BY c.id`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying lookup codes")
	}
	codes := make([]lookup.Code, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, repo.unboilCode(row))
	}
	return codes, nil
}

func (repo lookupRepository) DeleteCodesByID(ctx context.Context, ids []int64, exec ...core.DBExecutor) (int, error) {
	return deleteByID(ctx, repo.getExec(exec), "lookup_code", ids)
}
