package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/row"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/tracer"
)

// Flush writes every valid row of m on one connection, in the manager's order: primary
// rows in creation order, then secondary rows, then all-rows statements. After an insert
// into a table with generated columns the generated values are written back to the
// owning instance, so deferred foreign keys of later rows resolve to them. The first
// failure stops the flush and is returned as a *errs.StoreError.
func (s *Store) Flush(ctx context.Context, m *row.Manager) error {
	ctx, span := s.tracer.StartSpan(ctx, tracer.SpanFlush)
	defer span.End()

	rows := m.Flushables()
	span.SetAttributes(attribute.Int("db.rows_staged", len(rows)))
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		se := s.storeError("failed to acquire connection", err, nil)
		span.RecordError(se)
		span.SetStatus(codes.Error, se.Error())
		return se
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.log.Trace("close flush connection failed", "error", err)
		}
	}()

	for _, r := range rows {
		if err := s.flushRow(ctx, conn, r); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Store) flushRow(ctx context.Context, conn *sql.Conn, r row.Flushable) error {
	if err := r.Finalize(); err != nil {
		return s.storeError("failed to resolve deferred keys", err, r.Failed())
	}
	if !r.IsValid() {
		return nil
	}
	args, err := r.Args(s.dict)
	if err != nil {
		return errs.New(errs.General, "failed to bind row", err).WithFailed(r.Failed())
	}
	st := &statement{
		sql:    s.dict.Rebind(r.SQL(s.dict)),
		args:   args,
		table:  r.Table().FullName(),
		action: r.Action().String(),
	}

	var owner meta.StateManager
	var generated []*schema.Column
	if p, ok := r.(*row.Primary); ok && r.Action() == row.Insert && p.Owner() != nil {
		owner = p.Owner()
		generated = r.Table().AutoAssignedColumns()
	}

	ctx, span := s.tracer.StartSpan(ctx, tracer.SpanExec)
	defer span.End()
	ctx, cancel := s.withTimeout(ctx, false, s.fetch)
	defer cancel()

	start := time.Now()
	affected, keys, err := s.execRow(ctx, conn, st, generated)
	s.logStatement("flush", span, st, time.Since(start), affected, err)
	if err != nil {
		se := s.storeError(fmt.Sprintf("failed to %s %s", st.action, st.table), err, r.Failed())
		if r.Action() == row.Update && se.Unique {
			se.Kind = errs.Optimistic
		}
		return se
	}

	if affected == 0 && r.Failed() != nil && r.HasWhere() &&
		(r.Action() == row.Update || r.Action() == row.Delete) {
		return errs.New(errs.Optimistic,
			fmt.Sprintf("%s of %s affected no rows", st.action, st.table), nil).WithFailed(r.Failed())
	}
	for i, col := range generated {
		if i < len(keys) {
			owner.SetValue(col, keys[i])
		}
	}
	r.SetFlushed(true)
	return nil
}

// unknownAffected marks a statement whose driver did not report its row count.
const unknownAffected int64 = -1

// execRow runs st and, when generated is non-empty, reads back the generated values in
// the dictionary's style.
func (s *Store) execRow(ctx context.Context, conn *sql.Conn, st *statement, generated []*schema.Column) (int64, []any, error) {
	if len(generated) > 0 && s.dict.GeneratedKeys() == dialects.KeysReturning {
		names := make([]string, len(generated))
		keys := make([]any, len(generated))
		ptrs := make([]any, len(generated))
		for i, c := range generated {
			names[i] = s.dict.ColumnName(c)
			ptrs[i] = &keys[i]
		}
		st.sql += " RETURNING " + strings.Join(names, ", ")
		if err := conn.QueryRowContext(ctx, st.sql, st.args...).Scan(ptrs...); err != nil {
			return 0, nil, err
		}
		return 1, keys, nil
	}

	res, err := conn.ExecContext(ctx, st.sql, st.args...)
	if err != nil {
		return 0, nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.log.Debug("rows affected unavailable, skipping zero-row check", "table", st.table, "error", err)
		affected = unknownAffected
	}
	if len(generated) == 0 {
		return affected, nil, nil
	}

	switch s.dict.GeneratedKeys() {
	case dialects.KeysLastInsertID:
		id, err := res.LastInsertId()
		if err != nil {
			return affected, nil, err
		}
		return affected, []any{id}, nil
	case dialects.KeysQuery:
		var key any
		if err := conn.QueryRowContext(ctx, s.dict.LastGeneratedKeyQuery()).Scan(&key); err != nil {
			return affected, nil, err
		}
		return affected, []any{key}, nil
	}
	return affected, nil, nil
}
