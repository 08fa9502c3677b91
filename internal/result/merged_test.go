package result

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type byFirstColumn struct{}

func (byFirstColumn) OrderingValue(r Result, _ int) (any, error) { return r.Int64(0) }

func (byFirstColumn) Compare(a, b any) int { return cmp.Compare(a.(int64), b.(int64)) }

func ints(vals ...int64) *ListResult {
	rows := make([][]any, len(vals))
	for i, v := range vals {
		rows[i] = []any{v, i}
	}
	return NewListResult([]string{"N", "POS"}, rows)
}

func drain(t *testing.T, r Result) []int64 {
	t.Helper()
	var out []int64
	for {
		ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		n, err := r.Int64("N")
		require.NoError(t, err)
		out = append(out, n)
	}
}

func TestMergedOrdersAcrossChildren(t *testing.T) {
	a, b, c := ints(1, 4, 7), ints(2, 3), ints(5, 6)
	m := NewMerged([]Result{a, b, c}, byFirstColumn{}, nil)

	got := drain(t, m)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, got)
	assert.Len(t, got, 7)

	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.True(t, c.IsClosed())
	require.NoError(t, m.Close())
}

func TestMergedTiesFavorLowerIndex(t *testing.T) {
	a, b := ints(1, 2), ints(1, 2)
	a.SetIndexOf(0)
	b.SetIndexOf(1)
	m := NewMerged([]Result{a, b}, byFirstColumn{}, nil)

	var from []int
	for {
		ok, err := m.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		from = append(from, m.IndexOf())
	}
	assert.Equal(t, []int{0, 1, 0, 1}, from)
}

func TestMergedConcatenates(t *testing.T) {
	a, empty, c := ints(3, 1), ints(), ints(2)
	m := NewMerged([]Result{a, empty, c}, nil, nil)

	assert.Equal(t, []int64{3, 1, 2}, drain(t, m))
	assert.True(t, a.IsClosed())
	assert.True(t, empty.IsClosed())
	assert.True(t, c.IsClosed())

	ok, err := m.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergedPushBackAndDelegation(t *testing.T) {
	a, b := ints(1), ints(2)
	a.SetLocking(true)
	m := NewMerged([]Result{a, b}, byFirstColumn{}, nil)

	ok, err := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, a, m.Current())

	m.PushBack()
	ok, err = m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	n, err := m.Int64("N")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	m.PutEager("k", "v")
	assert.Equal(t, "v", a.Eager("k"))
	assert.Equal(t, "v", m.Eager("k"))
	assert.True(t, m.IsLocking())

	has, err := m.Contains("POS")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, m.Close())
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Len(t, m.Children(), 2)
}
