package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
	"github.com/coregx/ormsql/internal/tracer"
)

// statement is one rendered, bound statement ready to run.
type statement struct {
	sql  string
	args []any
	// cols names the column of each argument, empty where unknown.
	cols   []string
	table  string
	action string
}

// QueryOption adjusts one Query or Exec call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	forUpdate bool
	fetch     *fetch.Config
	colIndex  result.ColumnIndex
}

// ForUpdate marks the statement as locking. Locking statements use the larger of the
// query and lock timeouts and yield results that report IsLocking.
func ForUpdate() QueryOption {
	return func(o *queryOptions) { o.forUpdate = true }
}

// UsingFetch overrides the store's fetch configuration for one call.
func UsingFetch(f *fetch.Config) QueryOption {
	return func(o *queryOptions) { o.fetch = f }
}

// UsingColumnIndex resolves *schema.Column keys of the result by select-list position.
func UsingColumnIndex(ix result.ColumnIndex) QueryOption {
	return func(o *queryOptions) { o.colIndex = ix }
}

func (s *Store) options(opts []QueryOption) queryOptions {
	o := queryOptions{fetch: s.fetch}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetch == nil {
		o.fetch = s.fetch
	}
	return o
}

// bind renders buf and converts its parameters for the driver.
func (s *Store) bind(buf *sqlbuf.Buffer) (*statement, error) {
	params := buf.Params()
	cols := buf.Columns()
	st := &statement{
		sql:  s.dict.Rebind(buf.SQL()),
		args: make([]any, len(params)),
		cols: make([]string, len(params)),
	}
	for i, p := range params {
		v, err := s.dict.BindValue(p, cols[i])
		if err != nil {
			return nil, errs.WrapError(err, fmt.Sprintf("failed to bind parameter %d", i+1))
		}
		st.args[i] = v
		if cols[i] != nil {
			st.cols[i] = cols[i].Name
		}
	}
	return st, nil
}

// withTimeout bounds ctx by the dictionary's statement timeout. The returned cancel must
// always be called.
func (s *Store) withTimeout(ctx context.Context, forUpdate bool, f *fetch.Config) (context.Context, context.CancelFunc) {
	if d := s.dict.Timeout(forUpdate, f); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// Query runs the select in buf and returns a result over its rows. Closing the result
// releases the statement timeout.
func (s *Store) Query(ctx context.Context, buf *sqlbuf.Buffer, opts ...QueryOption) (*result.RowsResult, error) {
	o := s.options(opts)
	ctx, span := s.tracer.StartSpan(ctx, tracer.SpanQuery)
	defer span.End()

	st, err := s.bind(buf)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx, o.forUpdate, o.fetch)
	start := time.Now()
	rows, err := s.query(ctx, st)
	elapsed := time.Since(start)
	s.logStatement("query", span, st, elapsed, 0, err)
	if err != nil {
		cancel()
		return nil, s.storeError("query failed", err, nil)
	}

	res, err := result.NewRowsResult(rows, s.dict,
		result.WithColumnIndex(o.colIndex),
		result.WithCancel(cancel),
		result.WithLogger(s.log),
	)
	if err != nil {
		return nil, err
	}
	res.SetLocking(o.forUpdate)
	return res, nil
}

func (s *Store) query(ctx context.Context, st *statement) (*sql.Rows, error) {
	stmt, err := s.stmts.Prepare(ctx, s.db, st.sql)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, st.args...)
}

// Exec runs the statement in buf and returns the number of rows affected.
func (s *Store) Exec(ctx context.Context, buf *sqlbuf.Buffer, opts ...QueryOption) (int64, error) {
	o := s.options(opts)
	ctx, span := s.tracer.StartSpan(ctx, tracer.SpanExec)
	defer span.End()

	st, err := s.bind(buf)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx, o.forUpdate, o.fetch)
	defer cancel()

	start := time.Now()
	var affected int64
	stmt, err := s.stmts.Prepare(ctx, s.db, st.sql)
	if err == nil {
		var res sql.Result
		if res, err = stmt.ExecContext(ctx, st.args...); err == nil {
			affected, _ = res.RowsAffected()
		}
	}
	s.logStatement("exec", span, st, time.Since(start), affected, err)
	if err != nil {
		return 0, s.storeError("statement failed", err, nil)
	}
	return affected, nil
}

// NextSequence draws the next value of seq.
func (s *Store) NextSequence(ctx context.Context, seq *schema.Sequence) (int64, error) {
	ctx, span := s.tracer.StartSpan(ctx, tracer.SpanSequence)
	defer span.End()

	text, err := s.dict.NextSequenceSQL(seq)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	st := &statement{sql: text, table: seq.FullName()}

	ctx, cancel := s.withTimeout(ctx, false, s.fetch)
	defer cancel()

	start := time.Now()
	var next int64
	err = s.db.QueryRowContext(ctx, st.sql).Scan(&next)
	s.logStatement("sequence", span, st, time.Since(start), 0, err)
	if err != nil {
		return 0, s.storeError("failed to read sequence "+seq.FullName(), err, nil)
	}
	return next, nil
}

// logStatement logs st with masked parameters and records it on span.
func (s *Store) logStatement(kind string, span tracer.Span, st *statement, elapsed time.Duration, affected int64, err error) {
	masked := s.sanitizer.MaskParams(st.sql, st.args, st.cols)
	tracer.Record(span, &tracer.Statement{
		SQL:          st.sql,
		Params:       masked,
		Duration:     elapsed,
		RowsAffected: affected,
		Err:          err,
		System:       s.dict.Name(),
		Table:        st.table,
		RowAction:    st.action,
	})

	attrs := []any{
		"kind", kind,
		"sql", st.sql,
		"params", s.sanitizer.FormatParams(masked),
		"duration_ms", elapsed.Milliseconds(),
		"database", s.dict.Name(),
	}
	if err != nil {
		s.log.Error("statement failed", append(attrs, "error", err)...)
		return
	}
	s.log.Info("statement executed", append(attrs, "rows_affected", affected)...)
}
