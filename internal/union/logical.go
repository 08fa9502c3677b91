package union

import (
	"context"
	"errors"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/store"
)

// LogicalUnion runs each member as its own statement and merges the results.
type LogicalUnion struct {
	dict     *dialects.Dictionary
	sels     []*UnionSelect
	dirs     []orderDir
	distinct bool
	log      logger.Logger
}

var _ Union = (*LogicalUnion)(nil)

// NewLogical returns a union that always runs its members separately.
func NewLogical(seeds []Select, opts ...Option) (*LogicalUnion, error) {
	if len(seeds) == 0 {
		return nil, errs.WrapError(errs.ErrInvalidUsage, "union of no selects")
	}
	u := &LogicalUnion{
		dict:     seeds[0].Dictionary(),
		sels:     make([]*UnionSelect, len(seeds)),
		distinct: true,
	}
	for i, s := range seeds {
		u.sels[i] = &UnionSelect{sel: s, pos: i, union: u}
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log = logger.OrNoop(u.log)
	return u, nil
}

func (u *LogicalUnion) Selects() []*UnionSelect { return u.sels }

func (u *LogicalUnion) Each(fn func(sel *UnionSelect, i int) error) error {
	for i, s := range u.sels {
		if err := fn(s, i); err != nil {
			return err
		}
	}
	return nil
}

func (u *LogicalUnion) SetDistinct(distinct bool) { u.distinct = distinct }
func (u *LogicalUnion) IsDistinct() bool          { return u.distinct }
func (u *LogicalUnion) IsUnion() bool             { return false }

// Execute runs the members. A single member runs directly. When exactly one row is
// expected the members run in turn and the first result holding a row is returned;
// empty results are closed. Otherwise every member runs and the results are merged,
// collated by the selected ORDER BY columns when any member has them.
func (u *LogicalUnion) Execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error) {
	if f == nil {
		f = st.Fetch()
	}
	if len(u.sels) == 1 {
		return u.sels[0].execute(ctx, st, f)
	}
	if u.sels[0].sel.ExpectedResultCount() == 1 {
		return u.executeFirst(ctx, st, f)
	}

	results := make([]result.Result, 0, len(u.sels))
	orders := make([][]int, len(u.sels))
	ordered := false
	for i, s := range u.sels {
		res, err := s.execute(ctx, st, f)
		if err != nil {
			closeAll(results)
			return nil, err
		}
		results = append(results, res)
		if idx := s.sel.SelectedOrderIndexes(); idx != nil {
			orders[i] = idx
			ordered = true
		}
	}

	var comp result.Comparator
	if ordered {
		comp = &comparator{orders: orders, dirs: u.dirs}
	}
	return result.NewMerged(results, comp, u.log), nil
}

func (u *LogicalUnion) executeFirst(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error) {
	last := len(u.sels) - 1
	for i, s := range u.sels {
		res, err := s.execute(ctx, st, f)
		if err != nil {
			return nil, err
		}
		if i == last {
			return res, nil
		}
		ok, err := res.Next()
		if err != nil {
			return nil, errors.Join(err, res.Close())
		}
		if ok {
			res.PushBack()
			return res, nil
		}
		if err := res.Close(); err != nil {
			u.log.Trace("close empty union member failed", "index", i, "error", err)
		}
	}
	return nil, nil
}

// Count sums the row counts of the members.
func (u *LogicalUnion) Count(ctx context.Context, st *store.Store) (int64, error) {
	var total int64
	for _, s := range u.sels {
		n, err := s.sel.Count(ctx, st)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func closeAll(results []result.Result) {
	for _, r := range results {
		_ = r.Close()
	}
}
