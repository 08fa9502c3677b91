package row

import (
	"fmt"

	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// SetPrimaryKey stages the primary key values of sm for this row's table.
func (r *Impl) SetPrimaryKey(sm meta.StateManager) error {
	return r.flushPrimaryKey(sm, nil, true)
}

// SetPrimaryKeyIO stages the primary key values of sm, honoring io.
func (r *Impl) SetPrimaryKeyIO(io *schema.ColumnIO, sm meta.StateManager) error {
	return r.flushPrimaryKey(sm, io, true)
}

// WherePrimaryKey restricts the row to sm's primary key.
func (r *Impl) WherePrimaryKey(sm meta.StateManager) error {
	return r.flushPrimaryKey(sm, nil, false)
}

func (r *Impl) flushPrimaryKey(sm meta.StateManager, io *schema.ColumnIO, set bool) error {
	m := meta.MappingForTable(sm.Mapping(), r.table)
	if m == nil {
		return fmt.Errorf("row: mapping %s does not cover table %s", sm.Mapping().Name(), r.table)
	}
	cols := m.PrimaryKeyColumns()
	for i, col := range cols {
		j, err := meta.AssertJoinable(m, col)
		if err != nil {
			return err
		}
		val, err := j.JoinValue(sm, col)
		if err != nil {
			return err
		}
		r.flushJoinValue(col, col, val, io, i, set)
	}
	return nil
}

// SetForeignKey stages the key values of target in fk's local columns, honoring io.
// A nil target nulls the settable columns.
func (r *Impl) SetForeignKey(fk *schema.ForeignKey, io *schema.ColumnIO, target meta.StateManager) error {
	return r.flushForeignKey(fk, io, target, true)
}

// WhereForeignKey restricts the row to rows referencing target through fk.
func (r *Impl) WhereForeignKey(fk *schema.ForeignKey, target meta.StateManager) error {
	return r.flushForeignKey(fk, nil, target, false)
}

// ClearForeignKey returns fk's local columns to untouched, so the row no longer writes them.
// Validity is unchanged.
func (r *Impl) ClearForeignKey(fk *schema.ForeignKey) {
	for _, col := range fk.Columns() {
		r.set[col.Index] = Slot{}
	}
	r.sql = ""
}

func (r *Impl) flushForeignKey(fk *schema.ForeignKey, io *schema.ColumnIO, target meta.StateManager, set bool) error {
	if err := r.flushJoinValues(target, fk.PrimaryKeyColumns(), fk.Columns(), fk.PrimaryKeyTable(), io, set); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	n := len(fk.Columns())
	for i, col := range fk.ConstantColumns() {
		val := fk.Constant(col)
		switch {
		case set && r.canSet(io, i+n, val == nil):
			r.SetObject(col, val, col.Type, false)
		case !set:
			r.WhereObject(col, val, col.Type)
		}
	}
	return nil
}

func (r *Impl) flushJoinValues(target meta.StateManager, toCols, fromCols []*schema.Column,
	toTable *schema.Table, io *schema.ColumnIO, set bool) error {
	if target == nil {
		for i, col := range fromCols {
			switch {
			case set && r.canSet(io, i, true):
				r.SetNull(col, false)
			case !set:
				r.WhereNull(col)
			}
		}
		return nil
	}
	if set && !r.canSetAny(io, len(fromCols), false) {
		return nil
	}

	m := meta.MappingForTable(target.Mapping(), toTable)
	if m == nil {
		m = target.Mapping()
	}
	for i, to := range toCols {
		from := fromCols[i]
		if set {
			if r.action == Insert && from.AutoAssigned {
				continue
			}
			if !r.canSet(io, i, false) {
				continue
			}
		}
		j, err := meta.AssertJoinable(m, to)
		if err != nil {
			return err
		}
		val, err := j.JoinValue(target, to)
		if err != nil {
			return err
		}
		r.flushJoinValue(from, to, val, io, i, set)
	}
	return nil
}

// flushJoinValue stages val for from, typed after the column it was joined from.
func (r *Impl) flushJoinValue(from, to *schema.Column, val any, io *schema.ColumnIO, i int, set bool) {
	raw, isRaw := val.(sqlbuf.Raw)
	switch {
	case set && val == nil:
		if r.canSet(io, i, true) {
			r.SetNull(from, false)
		}
	case set && isRaw:
		r.SetRaw(from, string(raw))
	case set:
		if r.canSet(io, i, false) {
			r.SetObject(from, val, to.Type, false)
		}
	case val == nil:
		r.WhereNull(from)
	case isRaw:
		r.WhereRaw(from, string(raw))
	default:
		r.WhereObject(from, val, to.Type)
	}
}

// SetRelationID stages the relation-id value rel computes for target in col.
func (r *Impl) SetRelationID(col *schema.Column, io *schema.ColumnIO, target meta.StateManager, rel meta.RelationID) error {
	if target == nil {
		r.ClearRelationID(col, io)
		return nil
	}
	if !r.canSet(io, 0, false) {
		return nil
	}
	val, err := rel.RelationValue(target, col)
	if err != nil {
		return err
	}
	r.flushJoinValue(col, col, val, io, 0, true)
	return nil
}

// ClearRelationID nulls col when io allows it.
func (r *Impl) ClearRelationID(col *schema.Column, io *schema.ColumnIO) {
	if r.canSet(io, 0, true) {
		r.SetNull(col, false)
	}
}

func (r *Impl) canSet(io *schema.ColumnIO, i int, null bool) bool {
	switch r.action {
	case Insert:
		return io.IsInsertable(i, null)
	case Update:
		return io.IsUpdatable(i, null)
	}
	return true
}

func (r *Impl) canSetAny(io *schema.ColumnIO, n int, null bool) bool {
	switch r.action {
	case Insert:
		return io.IsAnyInsertable(n, null)
	case Update:
		return io.IsAnyUpdatable(n, null)
	}
	return true
}
