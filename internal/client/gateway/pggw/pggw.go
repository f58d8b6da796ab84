// Package pggw serves the collection gateway straight from PostgreSQL
// tables. Collection and column names are checked against a fixed schema
// before they reach SQL; values are always bound as parameters.
package pggw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/bulletin/internal/client/gateway"
	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/logging"
)

// Schema describes one collection table.
type Schema struct {
	Table    string
	Columns  []string // returned by reads, in order
	Writable []string // accepted by Insert/Update
}

var DefaultSchemas = map[string]Schema{
	"announcements": {
		Table:    "announcements",
		Columns:  []string{"id", "created_at", "user_id", "title", "image_url", "description"},
		Writable: []string{"user_id", "title", "image_url", "description"},
	},
	"logs": {
		Table:    "logs",
		Columns:  []string{"id", "created_at", "title", "version", "description", "type"},
		Writable: []string{"title", "version", "description", "type"},
	},
}

var sqlOps = map[gateway.Op]string{
	gateway.OpEq:  "=",
	gateway.OpGte: ">=",
	gateway.OpLte: "<=",
}

type Collections struct {
	db      dbx.DBTX
	schemas map[string]Schema
	log     logging.Logger
}

// Open opens a pgx-backed *sql.DB for dsn.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

func New(db dbx.DBTX, log logging.Logger) *Collections {
	if log == nil {
		log = logging.Nop()
	}
	return &Collections{db: db, schemas: DefaultSchemas, log: log.With("module", "pggw")}
}

func invalid(op, format string, args ...any) error {
	return &gateway.Error{Op: op, Code: gateway.CodeInvalid, Message: fmt.Sprintf(format, args...)}
}

func (c *Collections) schema(op, collection string) (Schema, error) {
	s, ok := c.schemas[collection]
	if !ok {
		return Schema{}, invalid(op, "unknown collection %q", collection)
	}
	return s, nil
}

// dbError classifies driver errors. Constraint violations are the caller's
// fault; everything else is reported as internal.
func dbError(op string, err error) error {
	ge := &gateway.Error{Op: op, Code: gateway.CodeInternal, Message: err.Error(), Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ge.Message = pgErr.Message
		switch {
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			ge.Code = gateway.CodeInvalid
		case pgErr.Code == "42501":
			ge.Code = gateway.CodeUnauthorized
		}
	}
	return ge
}

func (c *Collections) Select(ctx context.Context, collection string, q gateway.Query) ([]gateway.Row, error) {
	s, err := c.schema("Select", collection)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for _, f := range q.Filters {
		op, ok := sqlOps[f.Op]
		if !ok {
			return nil, invalid("Select", "unsupported operator %q", f.Op)
		}
		if !slices.Contains(s.Columns, f.Column) {
			return nil, invalid("Select", "unknown column %q", f.Column)
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s %s $%d", f.Column, op, len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(s.Columns, ", "), s.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.OrderBy != "" {
		if !slices.Contains(s.Columns, q.OrderBy) {
			return nil, invalid("Select", "unknown column %q", q.OrderBy)
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s, id %s", q.OrderBy, dir, dir)
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	c.log.Debug(ctx, "select", "collection", collection, "sql", b.String())

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, dbError("Select", err)
	}
	defer rows.Close()

	out, err := dbx.ScanMaps(rows)
	if err != nil {
		return nil, dbError("Select", err)
	}
	return out, nil
}

// assignments returns the writable columns of row in stable order.
func assignments(op string, s Schema, row gateway.Row) ([]string, []any, error) {
	cols := make([]string, 0, len(row))
	for k := range row {
		if !slices.Contains(s.Writable, k) {
			return nil, nil, invalid(op, "column %q is not writable", k)
		}
		cols = append(cols, k)
	}
	if len(cols) == 0 {
		return nil, nil, invalid(op, "no columns to write")
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, k := range cols {
		args[i] = row[k]
	}
	return cols, args, nil
}

func (c *Collections) returning(ctx context.Context, op, query string, args []any) (gateway.Row, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	out, err := dbx.ScanMaps(rows)
	if err != nil {
		return nil, dbError(op, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (c *Collections) Insert(ctx context.Context, collection string, row gateway.Row) (gateway.Row, error) {
	s, err := c.schema("Insert", collection)
	if err != nil {
		return nil, err
	}
	cols, args, err := assignments("Insert", s, row)
	if err != nil {
		return nil, err
	}

	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.Table, strings.Join(cols, ", "), strings.Join(ph, ", "), strings.Join(s.Columns, ", "))

	out, err := c.returning(ctx, "Insert", query, args)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, gateway.ErrEmptyResult
	}
	return out, nil
}

func (c *Collections) Update(ctx context.Context, collection string, id int64, patch gateway.Row) (gateway.Row, error) {
	s, err := c.schema("Update", collection)
	if err != nil {
		return nil, err
	}
	cols, args, err := assignments("Update", s, patch)
	if err != nil {
		return nil, err
	}

	set := make([]string, len(cols))
	for i, col := range cols {
		set[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		s.Table, strings.Join(set, ", "), len(args), strings.Join(s.Columns, ", "))

	out, err := c.returning(ctx, "Update", query, args)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &gateway.Error{Op: "Update", Code: gateway.CodeNotFound, Message: fmt.Sprintf("%s %d not found", collection, id)}
	}
	return out, nil
}

// Delete succeeds whether or not a row matched.
func (c *Collections) Delete(ctx context.Context, collection string, id int64) error {
	s, err := c.schema("Delete", collection)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.Table), id); err != nil {
		return dbError("Delete", err)
	}
	return nil
}

var _ gateway.Collections = (*Collections)(nil)
