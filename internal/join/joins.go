package join

import (
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

// Joins is the path of joins a select accumulates while traversing relations. Each
// traversal returns the Joins to continue from; implementations may return a new value or
// mutate and return the receiver.
type Joins interface {
	IsEmpty() bool
	// IsOuter reports whether the last traversal was an outer join.
	IsOuter() bool
	// Set returns the joins so far, nil when there are none.
	Set() *Set
	// Path identifies the traversed relations; equal paths reach the same aliases.
	Path() string

	Join(fk *schema.ForeignKey, inverse, toMany bool) Joins
	OuterJoin(fk *schema.ForeignKey, inverse, toMany bool) Joins
	JoinRelation(name string, fk *schema.ForeignKey, target meta.Mapping, subs int, inverse, toMany bool) Joins
	OuterJoinRelation(name string, fk *schema.ForeignKey, target meta.Mapping, subs int, inverse, toMany bool) Joins
	CrossJoin(t1, t2 *schema.Table) Joins
}

type noOpJoins struct{}

// NoOpJoins is the immutable empty path. Every traversal returns it unchanged.
var NoOpJoins Joins = noOpJoins{}

func (noOpJoins) IsEmpty() bool { return true }
func (noOpJoins) IsOuter() bool { return false }
func (noOpJoins) Set() *Set     { return nil }
func (noOpJoins) Path() string  { return "" }

func (n noOpJoins) Join(*schema.ForeignKey, bool, bool) Joins      { return n }
func (n noOpJoins) OuterJoin(*schema.ForeignKey, bool, bool) Joins { return n }
func (n noOpJoins) CrossJoin(*schema.Table, *schema.Table) Joins   { return n }

func (n noOpJoins) JoinRelation(string, *schema.ForeignKey, meta.Mapping, int, bool, bool) Joins {
	return n
}

func (n noOpJoins) OuterJoinRelation(string, *schema.ForeignKey, meta.Mapping, int, bool, bool) Joins {
	return n
}

// IsEmptyJoins reports whether j is nil or has no joins.
func IsEmptyJoins(j Joins) bool {
	return j == nil || j.IsEmpty()
}
