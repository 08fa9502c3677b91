package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func prepare(t *testing.T, db *sql.DB, n int) *sql.Stmt {
	t.Helper()
	stmt, err := db.Prepare(fmt.Sprintf("SELECT %d", n))
	require.NoError(t, err)
	return stmt
}

func isClosed(stmt *sql.Stmt) bool {
	var n int
	return stmt.QueryRow().Scan(&n) != nil
}

func TestNewCapacity(t *testing.T) {
	assert.Equal(t, DefaultStmtCacheCapacity, New(0).Stats().Capacity)
	assert.Equal(t, DefaultStmtCacheCapacity, New(-3).Stats().Capacity)
	assert.Equal(t, 5, New(5).Stats().Capacity)
}

func TestGetSet(t *testing.T) {
	db := openDB(t)
	c := New(4)

	_, ok := c.Get("SELECT 1")
	assert.False(t, ok)

	stmt := prepare(t, db, 1)
	c.Set("SELECT 1", stmt)
	got, ok := c.Get("SELECT 1")
	require.True(t, ok)
	assert.Same(t, stmt, got)

	s := c.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}

func TestReplaceClosesOld(t *testing.T) {
	db := openDB(t)
	c := New(4)
	old, fresh := prepare(t, db, 1), prepare(t, db, 2)

	c.Set("q", old)
	c.Set("q", fresh)

	assert.True(t, isClosed(old))
	assert.False(t, isClosed(fresh))
	assert.Equal(t, 1, c.Stats().Size)
}

func TestLRUEviction(t *testing.T) {
	db := openDB(t)
	c := New(2)
	s1, s2, s3 := prepare(t, db, 1), prepare(t, db, 2), prepare(t, db, 3)

	c.Set("1", s1)
	c.Set("2", s2)
	_, _ = c.Get("1")
	c.Set("3", s3)

	_, ok := c.Get("2")
	assert.False(t, ok, "least recently used is evicted")
	assert.True(t, isClosed(s2))
	_, ok = c.Get("1")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestPinnedNotEvicted(t *testing.T) {
	db := openDB(t)
	c := New(2)
	s1, s2, s3 := prepare(t, db, 1), prepare(t, db, 2), prepare(t, db, 3)

	c.Set("1", s1)
	assert.True(t, c.Pin("1"))
	assert.False(t, c.Pin("missing"))
	assert.True(t, c.IsPinned("1"))

	c.Set("2", s2)
	c.Set("3", s3)

	_, ok := c.Get("1")
	assert.True(t, ok)
	_, ok = c.Get("2")
	assert.False(t, ok)

	assert.True(t, c.Unpin("1"))
	assert.False(t, c.IsPinned("1"))
	assert.False(t, c.Unpin("missing"))
}

func TestPrepare(t *testing.T) {
	db := openDB(t)
	c := New(4)
	ctx := context.Background()

	first, err := c.Prepare(ctx, db, "SELECT 42")
	require.NoError(t, err)
	second, err := c.Prepare(ctx, db, "SELECT 42")
	require.NoError(t, err)
	assert.Same(t, first, second)

	prepErr := errors.New("syntax error")
	_, err = c.Prepare(ctx, failingPreparer{err: prepErr}, "SELEKT")
	assert.ErrorIs(t, err, prepErr)
	assert.Equal(t, 1, c.Stats().Size)
	_, ok := c.Get("SELEKT")
	assert.False(t, ok)
}

// failingPreparer rejects every statement.
type failingPreparer struct{ err error }

func (p failingPreparer) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, p.err
}

func TestClear(t *testing.T) {
	db := openDB(t)
	c := New(4)
	s1 := prepare(t, db, 1)
	c.Set("1", s1)
	c.Pin("1")

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	assert.True(t, isClosed(s1))
}

func TestConcurrentPrepare(t *testing.T) {
	db := openDB(t)
	c := New(8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Prepare(ctx, db, fmt.Sprintf("SELECT %d", i%4))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Stats().Size, 4)
}
