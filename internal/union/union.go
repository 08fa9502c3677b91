// Package union executes several selects as one logical result. A union runs either as
// a single SQL UNION statement or as separate statements whose results are merged in
// memory, collated by their selected ORDER BY columns.
package union

import (
	"context"
	"fmt"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
	"github.com/coregx/ormsql/internal/store"
)

// Select is one member of a union. *query.Select implements it.
type Select interface {
	sqlbuf.Subselect

	Dictionary() *dialects.Dictionary
	// ToUnionMember renders the select without ORDER BY for use inside a UNION.
	ToUnionMember(f *fetch.Config) *sqlbuf.Buffer
	Execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error)
	Count(ctx context.Context, st *store.Store) (int64, error)
	OrderBy(col *schema.Column, asc bool, joins join.Joins, sel bool) bool
	SelectedOrderIndexes() []int
	ColumnIndex(col *schema.Column, joins join.Joins) (int, bool)
	ExpectedResultCount() int
	IsRanged() bool
}

// Union runs its member selects as one result.
type Union interface {
	// Selects returns the members in union order.
	Selects() []*UnionSelect
	// Each calls fn with every member and its position, stopping at the first error.
	Each(fn func(sel *UnionSelect, i int) error) error
	SetDistinct(distinct bool)
	IsDistinct() bool
	// IsUnion reports whether the members render as one SQL UNION.
	IsUnion() bool
	Execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error)
	Count(ctx context.Context, st *store.Store) (int64, error)
}

// Option configures a union.
type Option func(*LogicalUnion)

// WithLogger sets the logger used by merged results.
func WithLogger(l logger.Logger) Option {
	return func(u *LogicalUnion) { u.log = l }
}

// New returns a union of seeds. A single SQL UNION is used when the dictionary supports
// it and no member is ranged; otherwise the members run separately.
func New(seeds []Select, opts ...Option) (Union, error) {
	lu, err := NewLogical(seeds, opts...)
	if err != nil {
		return nil, err
	}
	if len(seeds) < 2 || !lu.dict.SupportsUnion() {
		return lu, nil
	}
	for _, s := range seeds {
		if s.IsRanged() {
			return lu, nil
		}
	}
	return &SQLUnion{LogicalUnion: lu}, nil
}

// orderDir is the direction recorded for one ORDER BY position across members.
type orderDir uint8

const (
	orderUnset orderDir = iota
	orderAsc
	orderDesc
)

// UnionSelect wraps one member and records its ordering so the members can be collated.
type UnionSelect struct {
	sel     Select
	pos     int
	union   *LogicalUnion
	orders  int
	mapping meta.Mapping
}

// Delegate returns the wrapped select.
func (s *UnionSelect) Delegate() Select { return s.sel }

// Position returns the member's index in the union.
func (s *UnionSelect) Position() int { return s.pos }

// Mapping returns the base mapping results of this member are tagged with.
func (s *UnionSelect) Mapping() meta.Mapping { return s.mapping }

// SetMapping sets the base mapping results of this member are tagged with.
func (s *UnionSelect) SetMapping(m meta.Mapping) { s.mapping = m }

// recordOrder notes the direction of the next ORDER BY position. Members must agree on
// the direction of each position.
func (s *UnionSelect) recordOrder(asc bool) error {
	idx := s.orders
	s.orders++
	dir := orderDesc
	if asc {
		dir = orderAsc
	}
	u := s.union
	for len(u.dirs) <= idx {
		u.dirs = append(u.dirs, orderUnset)
	}
	if u.dirs[idx] != orderUnset && u.dirs[idx] != dir {
		return fmt.Errorf("%w: members of the union order position %d in different directions",
			errs.ErrInvalidUsage, idx+1)
	}
	u.dirs[idx] = dir
	return nil
}

// OrderBy orders the member by col, recording the direction for collation.
func (s *UnionSelect) OrderBy(col *schema.Column, asc bool, joins join.Joins, sel bool) (bool, error) {
	if err := s.recordOrder(asc); err != nil {
		return false, err
	}
	return s.sel.OrderBy(col, asc, joins, sel), nil
}

// OrderByColumns orders the member by each of cols in turn.
func (s *UnionSelect) OrderByColumns(cols []*schema.Column, asc bool, joins join.Joins, sel bool) (int, error) {
	n := 0
	for _, c := range cols {
		ok, err := s.OrderBy(c, asc, joins, sel)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// OrderByPrimaryKey orders the member by the primary key columns of m.
func (s *UnionSelect) OrderByPrimaryKey(m meta.Mapping, asc bool, joins join.Joins, sel bool) (int, error) {
	return s.OrderByColumns(m.PrimaryKeyColumns(), asc, joins, sel)
}

func (s *UnionSelect) execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error) {
	res, err := s.sel.Execute(ctx, st, f)
	if err != nil {
		return nil, err
	}
	res.SetBaseMapping(s.mapping)
	res.SetIndexOf(s.pos)
	return res, nil
}
