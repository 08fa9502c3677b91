// Package join models SQL join edges between aliased tables and orders a graph of them
// into a sequence that can be rendered left to right.
package join

import (
	"fmt"

	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

// Type is the kind of SQL join.
type Type int

// Join types.
const (
	Inner Type = iota
	Outer
	Cross
)

func (t Type) String() string {
	switch t {
	case Inner:
		return "inner"
	case Outer:
		return "outer"
	case Cross:
		return "cross"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Subclass policies for joins that traverse a relation.
const (
	SubsNone = iota
	SubsJoinable
	SubsAnyJoinable
	SubsExact
)

// Join is one edge between two aliased table instances.
type Join struct {
	Index1 int
	Index2 int
	Table1 *schema.Table
	Table2 *schema.Table
	Type   Type
	// FK is the foreign key traversed; nil for cross joins.
	FK *schema.ForeignKey
	// Inverse is true when the join runs from the primary key table to the foreign key table.
	Inverse bool

	// Target is set for joins that traverse a relation.
	Target     meta.Mapping
	Subclasses int
	ToMany     bool
	Correlated bool
}

// New creates a join from alias index1 to alias index2 along fk. Without inverse the join
// runs from the foreign key's table to the referenced table.
func New(index1, index2 int, typ Type, fk *schema.ForeignKey, inverse bool) *Join {
	j := &Join{Index1: index1, Index2: index2, Type: typ, FK: fk, Inverse: inverse}
	if fk != nil {
		if inverse {
			j.Table1, j.Table2 = fk.PrimaryKeyTable(), fk.Table
		} else {
			j.Table1, j.Table2 = fk.Table, fk.PrimaryKeyTable()
		}
	}
	return j
}

// NewCross creates a cross join between two aliased tables.
func NewCross(index1, index2 int, t1, t2 *schema.Table) *Join {
	return &Join{Index1: index1, Index2: index2, Table1: t1, Table2: t2, Type: Cross}
}

// Alias renders the alias of a table index.
func Alias(index int) string {
	return fmt.Sprintf("t%d", index)
}

// Alias1 is the alias of the left table.
func (j *Join) Alias1() string { return Alias(j.Index1) }

// Alias2 is the alias of the right table.
func (j *Join) Alias2() string { return Alias(j.Index2) }

// SetRelation records the relation traversed by the join.
func (j *Join) SetRelation(target meta.Mapping, subs int, toMany bool) {
	j.Target = target
	j.Subclasses = subs
	j.ToMany = toMany
}

// Reverse returns a copy of j with its ends swapped.
func (j *Join) Reverse() *Join {
	r := *j
	r.Index1, r.Index2 = j.Index2, j.Index1
	r.Table1, r.Table2 = j.Table2, j.Table1
	r.Inverse = !j.Inverse
	return &r
}

// Equal reports whether both joins connect the same pair of aliases, in either direction.
func (j *Join) Equal(o *Join) bool {
	if j == nil || o == nil {
		return j == o
	}
	return (j.Index1 == o.Index1 && j.Index2 == o.Index2) ||
		(j.Index1 == o.Index2 && j.Index2 == o.Index1)
}

// Columns returns the joined column pairs oriented from Table1 to Table2.
func (j *Join) Columns() (from, to []*schema.Column) {
	if j.FK == nil {
		return nil, nil
	}
	if j.Inverse {
		return j.FK.PrimaryKeyColumns(), j.FK.Columns()
	}
	return j.FK.Columns(), j.FK.PrimaryKeyColumns()
}

func (j *Join) String() string {
	op := "="
	switch j.Type {
	case Outer:
		op = "*="
	case Cross:
		op = "x"
	}
	return j.Alias1() + " " + op + " " + j.Alias2()
}
