package meta

import (
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// ClassMapping is a Mapping built from a table and its primary key.
type ClassMapping struct {
	name      string
	table     *schema.Table
	super     *ClassMapping
	joinables map[*schema.Column]Joinable
}

// MappingOption configures a ClassMapping.
type MappingOption func(*ClassMapping)

// WithSuperclass sets the persistent superclass mapping.
func WithSuperclass(super *ClassMapping) MappingOption {
	return func(m *ClassMapping) {
		m.super = super
	}
}

// WithJoinable overrides the joinable of one column.
func WithJoinable(col *schema.Column, j Joinable) MappingOption {
	return func(m *ClassMapping) {
		m.joinables[col] = j
	}
}

// NewClassMapping maps name onto table. Primary key columns join by their own value
// unless overridden.
func NewClassMapping(name string, table *schema.Table, opts ...MappingOption) *ClassMapping {
	m := &ClassMapping{
		name:      name,
		table:     table,
		joinables: make(map[*schema.Column]Joinable),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the mapped class name.
func (m *ClassMapping) Name() string { return m.name }

// Table returns the primary table.
func (m *ClassMapping) Table() *schema.Table { return m.table }

// PrimaryKeyColumns returns the primary key of the mapped table.
func (m *ClassMapping) PrimaryKeyColumns() []*schema.Column { return m.table.PrimaryKey() }

// Superclass returns the superclass mapping or nil.
func (m *ClassMapping) Superclass() Mapping {
	if m.super == nil {
		return nil
	}
	return m.super
}

// Joinable returns the configured joinable, or a ColumnJoinable for primary key columns.
func (m *ClassMapping) Joinable(col *schema.Column) Joinable {
	if j, ok := m.joinables[col]; ok {
		return j
	}
	for i, pk := range m.PrimaryKeyColumns() {
		if pk == col {
			return ColumnJoinable{Pos: i}
		}
	}
	if m.super != nil {
		return m.super.Joinable(col)
	}
	return nil
}

// ColumnJoinable joins by the column's own value. Pos is the column's position in a
// composite object id.
type ColumnJoinable struct {
	Pos int
}

// JoinValue returns the instance's value for col, nil when unknown.
func (j ColumnJoinable) JoinValue(sm StateManager, col *schema.Column) (any, error) {
	if v, ok := sm.Value(col); ok {
		return v, nil
	}
	return j.JoinValueFromID(sm.ObjectID(), col)
}

// JoinValueFromID extracts the value from an object id; composite ids are []any.
func (j ColumnJoinable) JoinValueFromID(oid any, _ *schema.Column) (any, error) {
	if parts, ok := oid.([]any); ok {
		if j.Pos < len(parts) {
			return parts[j.Pos], nil
		}
		return nil, nil
	}
	return oid, nil
}

// ConstantJoinable always yields Value.
type ConstantJoinable struct {
	Value any
}

func (j ConstantJoinable) JoinValue(StateManager, *schema.Column) (any, error) {
	return j.Value, nil
}

func (j ConstantJoinable) JoinValueFromID(any, *schema.Column) (any, error) {
	return j.Value, nil
}

// RawJoinable yields SQL spliced into the statement, such as a sequence call.
type RawJoinable struct {
	SQL string
}

func (j RawJoinable) JoinValue(StateManager, *schema.Column) (any, error) {
	return sqlbuf.Raw(j.SQL), nil
}

func (j RawJoinable) JoinValueFromID(any, *schema.Column) (any, error) {
	return sqlbuf.Raw(j.SQL), nil
}

// RelationIDFunc adapts a function to RelationID.
type RelationIDFunc func(sm StateManager, col *schema.Column) (any, error)

// RelationValue calls f.
func (f RelationIDFunc) RelationValue(sm StateManager, col *schema.Column) (any, error) {
	return f(sm, col)
}
