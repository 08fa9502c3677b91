// Package meta is the boundary between row staging and the mapping layer. Rows and results
// see managed instances only through the StateManager and Mapping interfaces declared here;
// the simple implementations in this package back tests and small applications.
package meta

import (
	"fmt"

	"github.com/coregx/ormsql/internal/schema"
)

// Mapping describes how one class of instances maps onto a table.
type Mapping interface {
	Name() string
	Table() *schema.Table
	PrimaryKeyColumns() []*schema.Column
	// Superclass returns the mapping of the persistent superclass, nil at the root.
	Superclass() Mapping
	// Joinable returns the strategy that yields values for col, nil when col is not joinable.
	Joinable(col *schema.Column) Joinable
}

// StateManager exposes one managed instance.
type StateManager interface {
	Mapping() Mapping
	ObjectID() any
	Instance() any
	// Value returns the in-flight value of col, reporting whether one is known.
	Value(col *schema.Column) (any, bool)
	// SetValue stores a value produced by the database, such as a generated key.
	SetValue(col *schema.Column, v any)
}

// Joinable computes the value a key column takes for an instance.
type Joinable interface {
	JoinValue(sm StateManager, col *schema.Column) (any, error)
	JoinValueFromID(oid any, col *schema.Column) (any, error)
}

// RelationID computes the value stored in a relation-id column.
type RelationID interface {
	RelationValue(sm StateManager, col *schema.Column) (any, error)
}

// AssertJoinable returns the joinable for col or an error naming the mapping.
func AssertJoinable(m Mapping, col *schema.Column) (Joinable, error) {
	j := m.Joinable(col)
	if j == nil {
		return nil, fmt.Errorf("column %s is not joinable in mapping %s", col, m.Name())
	}
	return j, nil
}

// MappingForTable walks from m up the superclass chain to the mapping that owns table.
func MappingForTable(m Mapping, table *schema.Table) Mapping {
	for cur := m; cur != nil; cur = cur.Superclass() {
		if cur.Table() == table {
			return cur
		}
	}
	return nil
}

// HasAutoAssignedKey reports whether any primary key column of m is generated by the
// database.
func HasAutoAssignedKey(m Mapping) bool {
	if m == nil {
		return false
	}
	for _, c := range m.PrimaryKeyColumns() {
		if c.AutoAssigned {
			return true
		}
	}
	return false
}
