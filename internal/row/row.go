package row

import (
	"fmt"
	"strings"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// Flushable is a staged statement the store can execute.
type Flushable interface {
	Table() *schema.Table
	Action() Action
	IsValid() bool
	// Finalize resolves values deferred until SQL generation.
	Finalize() error
	SQL(d *dialects.Dictionary) string
	Args(d *dialects.Dictionary) ([]any, error)
	HasWhere() bool
	SetFlushed(flushed bool)
	// Failed is the object reported when the statement fails.
	Failed() any
}

// Impl stages one statement against one table. Set values and where-predicates live in
// two slot arrays indexed by column; INSERT rows have no where array.
type Impl struct {
	table   *schema.Table
	action  Action
	set     []Slot
	where   []Slot
	valid   bool
	flushed bool

	sql     string
	sqlDict *dialects.Dictionary
}

// New returns an empty row. An unrecognized action is an internal error and panics.
func New(table *schema.Table, action Action) *Impl {
	if !action.valid() {
		panic(fmt.Sprintf("row: unrecognized action %d", int(action)))
	}
	n := len(table.Columns())
	r := &Impl{table: table, action: action, set: make([]Slot, n)}
	if action != Insert {
		r.where = make([]Slot, n)
	}
	return r
}

// Table returns the row's table.
func (r *Impl) Table() *schema.Table { return r.table }

// Action returns the statement kind.
func (r *Impl) Action() Action { return r.action }

// IsValid reports whether the row takes part in the flush.
func (r *Impl) IsValid() bool { return r.valid }

// SetValid marks whether the row takes part in the flush.
func (r *Impl) SetValid(valid bool) { r.valid = valid }

// IsFlushed reports whether the row's statement has been executed.
func (r *Impl) IsFlushed() bool { return r.flushed }

// SetFlushed records that the row's statement has been executed.
func (r *Impl) SetFlushed(flushed bool) { r.flushed = flushed }

// Failed returns nil; rows not owned by an instance report no failed object.
func (r *Impl) Failed() any { return nil }

// Finalize does nothing for plain rows.
func (r *Impl) Finalize() error { return nil }

// SetSlot returns the staged set value of col.
func (r *Impl) SetSlot(col *schema.Column) Slot { return r.set[col.Index] }

// WhereSlot returns the staged predicate on col. INSERT rows have none.
func (r *Impl) WhereSlot(col *schema.Column) Slot {
	if r.where == nil {
		return Slot{}
	}
	return r.where[col.Index]
}

// HasWhere reports whether any predicate is staged.
func (r *Impl) HasWhere() bool {
	for _, s := range r.where {
		if s.IsSet() {
			return true
		}
	}
	return false
}

// SetObject stages v for col. On INSERT, auto-assigned columns are never written and leave
// the row's validity alone, and a nil value leaves a database default in place unless
// overrideDefault is set.
func (r *Impl) SetObject(col *schema.Column, v any, typ schema.MetaType, overrideDefault bool) {
	if r.action == Insert {
		if col.AutoAssigned {
			return
		}
		if !overrideDefault && v == nil && col.HasDefault() {
			return
		}
	}
	r.stage(r.set, col, v, typ)
	r.valid = true
}

// WhereObject stages the predicate col = v, or col IS NULL when v is nil. INSERT rows take
// no predicates.
func (r *Impl) WhereObject(col *schema.Column, v any, typ schema.MetaType) {
	if r.where == nil {
		return
	}
	r.stage(r.where, col, v, typ)
	if r.action == Delete {
		r.valid = true
	}
}

func (r *Impl) stage(slots []Slot, col *schema.Column, v any, typ schema.MetaType) {
	if v == nil {
		slots[col.Index] = NullSlot
	} else {
		slots[col.Index] = ValueSlot(v, typ)
	}
	r.sql = ""
}

// SQL renders the row's statement. Columns are visited in index order and untouched
// columns are skipped. The text is cached until the row changes.
func (r *Impl) SQL(d *dialects.Dictionary) string {
	if r.sql != "" && r.sqlDict == d {
		return r.sql
	}
	var sb strings.Builder
	switch r.action {
	case Update:
		r.updateSQL(&sb, d)
	case Insert:
		r.insertSQL(&sb, d)
	case Delete:
		sb.WriteString("DELETE FROM ")
		sb.WriteString(d.TableName(r.table))
		r.whereSQL(&sb, d)
	}
	r.sql, r.sqlDict = sb.String(), d
	return r.sql
}

func (r *Impl) updateSQL(sb *strings.Builder, d *dialects.Dictionary) {
	sb.WriteString("UPDATE ")
	sb.WriteString(d.TableName(r.table))
	sb.WriteString(" SET ")
	first := true
	for i, col := range r.table.Columns() {
		s := r.set[i]
		if !s.IsSet() {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(d.ColumnName(col))
		sb.WriteString(" = ")
		if s.IsRaw() {
			sb.WriteString(rawText(s))
		} else {
			sb.WriteString(d.MarkerForInsertUpdate(col))
		}
	}
	r.whereSQL(sb, d)
}

func (r *Impl) insertSQL(sb *strings.Builder, d *dialects.Dictionary) {
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.TableName(r.table))
	sb.WriteString(" (")
	var values strings.Builder
	first := true
	for i, col := range r.table.Columns() {
		s := r.set[i]
		if !s.IsSet() {
			continue
		}
		if !first {
			sb.WriteString(", ")
			values.WriteString(", ")
		}
		first = false
		sb.WriteString(d.ColumnName(col))
		if s.IsRaw() {
			values.WriteString(rawText(s))
		} else {
			values.WriteString(d.MarkerForInsertUpdate(col))
		}
	}
	sb.WriteString(") VALUES (")
	sb.WriteString(values.String())
	sb.WriteString(")")
}

func (r *Impl) whereSQL(sb *strings.Builder, d *dialects.Dictionary) {
	first := true
	for i, col := range r.table.Columns() {
		s := r.where[i]
		if !s.IsSet() {
			continue
		}
		if first {
			sb.WriteString(" WHERE ")
			first = false
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(d.ColumnName(col))
		switch {
		case s.IsNull():
			sb.WriteString(" IS NULL")
		case s.IsRaw():
			sb.WriteString(" = ")
			sb.WriteString(rawText(s))
		default:
			sb.WriteString(" = ?")
		}
	}
}

func rawText(s Slot) string {
	if raw, ok := s.Value.(sqlbuf.Raw); ok {
		return string(raw)
	}
	return fmt.Sprint(s.Value)
}

// Args returns the statement arguments in the order SQL renders their markers. DELETE
// binds only predicates, raw values are never bound, and NULL predicates are rendered as
// IS NULL instead of being bound.
func (r *Impl) Args(d *dialects.Dictionary) ([]any, error) {
	var args []any
	cols := r.table.Columns()
	if r.action != Delete {
		for i, s := range r.set {
			if !s.IsSet() || s.IsRaw() {
				continue
			}
			v, err := d.BindValue(s.Value, cols[i])
			if err != nil {
				return nil, fmt.Errorf("row: bind %s: %w", cols[i], err)
			}
			args = append(args, v)
		}
	}
	for i, s := range r.where {
		if !s.IsSet() || s.IsNull() || s.IsRaw() {
			continue
		}
		v, err := d.BindValue(s.Value, cols[i])
		if err != nil {
			return nil, fmt.Errorf("row: bind %s: %w", cols[i], err)
		}
		args = append(args, v)
	}
	return args, nil
}

// CopyInto copies the staged values of r into dst, which must be a row of the same table.
// With whereOnly only predicates are copied, and nothing is copied when either row is an
// INSERT. Otherwise an INSERT target receives only set values. Validity carries over.
func (r *Impl) CopyInto(dst *Impl, whereOnly bool) {
	if dst.table != r.table {
		panic(fmt.Sprintf("row: copy from %s into %s", r.table, dst.table))
	}
	switch {
	case whereOnly:
		if r.where == nil || dst.where == nil {
			return
		}
		copy(dst.where, r.where)
	default:
		copy(dst.set, r.set)
		if r.where != nil && dst.where != nil {
			copy(dst.where, r.where)
		}
	}
	dst.sql = ""
	if r.valid {
		dst.valid = true
	}
}

// Clone returns an independent copy of r.
func (r *Impl) Clone() *Impl {
	c := &Impl{
		table:   r.table,
		action:  r.action,
		set:     append([]Slot(nil), r.set...),
		valid:   r.valid,
		flushed: r.flushed,
	}
	if r.where != nil {
		c.where = append([]Slot(nil), r.where...)
	}
	return c
}

func (r *Impl) String() string {
	return r.action.String() + " " + r.table.FullName()
}
