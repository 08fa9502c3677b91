package result

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/schema"
)

// ColumnIndex resolves a column reached through joins to its position in the select list.
type ColumnIndex func(col *schema.Column, joins join.Joins) (int, bool)

// RowsResult reads a live *sql.Rows. It owns the rows and, when given, the statement and
// connection that produced them.
type RowsResult struct {
	Base

	rows      *sql.Rows
	stmt      *sql.Stmt
	conn      *sql.Conn
	closeConn bool
	dict      *dialects.Dictionary
	colIndex  ColumnIndex
	cancel    context.CancelFunc
	log       logger.Logger

	labels  map[string]int
	ncols   int
	current []any
	closed  bool
}

// Option configures a RowsResult.
type Option func(*RowsResult)

// WithStatement makes the result close stmt with the rows.
func WithStatement(stmt *sql.Stmt) Option {
	return func(r *RowsResult) { r.stmt = stmt }
}

// WithConn makes the result close conn with the rows.
func WithConn(conn *sql.Conn) Option {
	return func(r *RowsResult) { r.conn = conn }
}

// WithCloseConnection controls whether Close releases the connection. Pass false when the
// connection must outlive the result.
func WithCloseConnection(closeConn bool) Option {
	return func(r *RowsResult) { r.closeConn = closeConn }
}

// WithColumnIndex resolves *schema.Column keys by select-list position instead of label.
func WithColumnIndex(index ColumnIndex) Option {
	return func(r *RowsResult) { r.colIndex = index }
}

// WithCancel makes Close cancel the context the rows were queried under.
func WithCancel(cancel context.CancelFunc) Option {
	return func(r *RowsResult) { r.cancel = cancel }
}

// WithLogger sets the logger for close failures.
func WithLogger(l logger.Logger) Option {
	return func(r *RowsResult) { r.log = l }
}

// NewRowsResult wraps rows. Values are converted through dict.
func NewRowsResult(rows *sql.Rows, dict *dialects.Dictionary, opts ...Option) (*RowsResult, error) {
	r := &RowsResult{rows: rows, dict: dict, closeConn: true}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrNoop(r.log)
	r.bind(r, r, r.log)

	cols, err := rows.Columns()
	if err != nil {
		_ = r.Close()
		return nil, errs.WrapError(err, "failed to read result columns")
	}
	r.ncols = len(cols)
	r.labels = make(map[string]int, len(cols))
	for i, c := range cols {
		label := strings.ToUpper(c)
		if _, dup := r.labels[label]; !dup {
			r.labels[label] = i
		}
	}
	return r, nil
}

// NextRow scans the next row into memory.
func (r *RowsResult) NextRow() (bool, error) {
	if r.closed {
		return false, errs.ErrClosed
	}
	if !r.rows.Next() {
		r.current = nil
		return false, r.rows.Err()
	}
	vals := make([]any, r.ncols)
	ptrs := make([]any, r.ncols)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return false, errs.WrapError(err, "failed to scan row")
	}
	r.current = vals
	return true, nil
}

// Value returns the converted value of key in the current row.
func (r *RowsResult) Value(key any, typ schema.MetaType, arg any, joins join.Joins) (any, error) {
	if r.current == nil {
		return nil, errs.WrapError(errs.ErrInvalidUsage, "no current row")
	}
	i, ok := r.position(key, joins)
	if !ok {
		return nil, errs.WrapError(errs.ErrInvalidUsage, fmt.Sprintf("column %v not in result", key))
	}
	v, err := r.dict.ConvertResult(r.current[i], typ)
	if err != nil {
		return nil, err
	}
	if t, ok := v.(time.Time); ok {
		if loc, ok := arg.(*time.Location); ok && loc != nil {
			v = t.In(loc)
		}
	}
	return v, nil
}

// Has reports whether key maps to a result column.
func (r *RowsResult) Has(key any, joins join.Joins) (bool, error) {
	_, ok := r.position(key, joins)
	return ok, nil
}

func (r *RowsResult) position(key any, joins join.Joins) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, k >= 0 && k < r.ncols
	case string:
		i, ok := r.labels[strings.ToUpper(k)]
		return i, ok
	case *schema.Column:
		if r.colIndex != nil {
			if i, ok := r.colIndex(k, joins); ok {
				return i, i >= 0 && i < r.ncols
			}
		}
		i, ok := r.labels[strings.ToUpper(k.Name)]
		return i, ok
	}
	return 0, false
}

// Close releases the eager results, the rows, the statement and, unless disabled, the
// connection. Each release is attempted independently; failures are logged at trace
// level and never returned. Close is idempotent.
func (r *RowsResult) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.current = nil
	r.closeEager()

	if r.rows != nil {
		if err := r.rows.Close(); err != nil {
			r.log.Trace("close rows failed", "error", err)
		}
	}
	if r.stmt != nil {
		if err := r.stmt.Close(); err != nil {
			r.log.Trace("close statement failed", "error", err)
		}
	}
	if r.conn != nil && r.closeConn {
		if err := r.conn.Close(); err != nil {
			r.log.Trace("close connection failed", "error", err)
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (r *RowsResult) IsClosed() bool { return r.closed }
