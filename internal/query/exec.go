package query

import (
	"context"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/store"
)

// Execute runs the select through st. The select locks when f's read lock level asks
// for it; a nil f uses the store's fetch configuration. Range bounds the dictionary
// cannot render are applied while reading.
func (s *Select) Execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error) {
	if f == nil {
		f = st.Fetch()
	}
	forUpdate := f.ForUpdate()
	parts := s.Parts()
	if err := s.dict.CheckSelect(parts, forUpdate); err != nil {
		return nil, err
	}

	opts := []store.QueryOption{store.UsingFetch(f), store.UsingColumnIndex(s.ColumnIndex)}
	if forUpdate {
		opts = append(opts, store.ForUpdate())
	}
	res, err := st.Query(ctx, s.dict.ToSelect(parts, forUpdate, f), opts...)
	if err != nil {
		return nil, err
	}

	start, end := s.dict.EffectiveRange(s.start, s.end)
	skip := s.start - start
	for i := int64(0); i < skip; i++ {
		ok, err := res.Next()
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		if !ok {
			break
		}
	}
	if end == dialects.NoEnd && s.end != dialects.NoEnd {
		return &rangedResult{RowsResult: res, remaining: s.end - s.start}, nil
	}
	return res, nil
}

// Count returns the number of rows the select would return.
func (s *Select) Count(ctx context.Context, st *store.Store) (int64, error) {
	res, err := st.Query(ctx, s.ToSelectCount())
	if err != nil {
		return 0, err
	}
	defer res.Close()

	ok, err := res.Next()
	if err != nil || !ok {
		return 0, err
	}
	return res.Int64(0)
}

// rangedResult stops after a fixed number of rows.
type rangedResult struct {
	*result.RowsResult
	remaining int64
	last      bool
}

func (r *rangedResult) Next() (bool, error) {
	if r.remaining <= 0 {
		r.last = false
		return false, nil
	}
	ok, err := r.RowsResult.Next()
	if ok {
		r.remaining--
	}
	r.last = ok
	return ok, err
}

func (r *rangedResult) PushBack() {
	if r.last {
		r.remaining++
		r.last = false
	}
	r.RowsResult.PushBack()
}
