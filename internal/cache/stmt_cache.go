// Package cache keeps prepared statements keyed by their rebound SQL text.
package cache

import (
	"container/list"
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

// DefaultStmtCacheCapacity is the default maximum number of cached prepared statements.
const DefaultStmtCacheCapacity = 256

// Preparer prepares statements. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StmtCache stores prepared statements with LRU eviction. Pinned statements are never
// evicted.
type StmtCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lru      *list.List

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	key    string
	stmt   *sql.Stmt
	pinned bool
}

// New creates a cache holding at most capacity statements. A non-positive capacity uses
// DefaultStmtCacheCapacity.
func New(capacity int) *StmtCache {
	if capacity <= 0 {
		capacity = DefaultStmtCacheCapacity
	}
	return &StmtCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

// Get returns the statement cached for query and marks it most recently used.
func (sc *StmtCache) Get(query string) (*sql.Stmt, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	elem, ok := sc.items[query]
	if !ok {
		sc.misses.Add(1)
		return nil, false
	}
	sc.lru.MoveToFront(elem)
	sc.hits.Add(1)
	return elem.Value.(*entry).stmt, true
}

// Set caches stmt for query. A statement already cached under query is closed and
// replaced. When full, the least recently used unpinned statement is evicted and closed.
func (sc *StmtCache) Set(query string, stmt *sql.Stmt) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if elem, ok := sc.items[query]; ok {
		sc.lru.MoveToFront(elem)
		e := elem.Value.(*entry)
		if e.stmt != stmt {
			_ = e.stmt.Close()
			e.stmt = stmt
		}
		return
	}
	if sc.lru.Len() >= sc.capacity {
		sc.evictOldest()
	}
	sc.items[query] = sc.lru.PushFront(&entry{key: query, stmt: stmt})
}

// Prepare returns the cached statement for query, preparing and caching it on a miss.
func (sc *StmtCache) Prepare(ctx context.Context, p Preparer, query string) (*sql.Stmt, error) {
	if stmt, ok := sc.Get(query); ok {
		return stmt, nil
	}
	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	sc.Set(query, stmt)
	return stmt, nil
}

// must hold mu
func (sc *StmtCache) evictOldest() {
	for elem := sc.lru.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*entry)
		if e.pinned {
			continue
		}
		sc.lru.Remove(elem)
		delete(sc.items, e.key)
		_ = e.stmt.Close()
		sc.evictions.Add(1)
		return
	}
}

// Pin protects the statement cached for query from eviction.
func (sc *StmtCache) Pin(query string) bool {
	return sc.setPinned(query, true)
}

// Unpin makes the statement cached for query evictable again.
func (sc *StmtCache) Unpin(query string) bool {
	return sc.setPinned(query, false)
}

func (sc *StmtCache) setPinned(query string, pinned bool) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	elem, ok := sc.items[query]
	if !ok {
		return false
	}
	elem.Value.(*entry).pinned = pinned
	return true
}

// IsPinned reports whether the statement cached for query is pinned.
func (sc *StmtCache) IsPinned(query string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	elem, ok := sc.items[query]
	return ok && elem.Value.(*entry).pinned
}

// Clear closes and removes every cached statement, pinned ones included.
func (sc *StmtCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for elem := sc.lru.Front(); elem != nil; elem = elem.Next() {
		_ = elem.Value.(*entry).stmt.Close()
	}
	sc.items = make(map[string]*list.Element, sc.capacity)
	sc.lru.Init()
}

// Stats holds cache performance metrics.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns cache statistics.
func (sc *StmtCache) Stats() Stats {
	sc.mu.Lock()
	size := sc.lru.Len()
	sc.mu.Unlock()

	hits := sc.hits.Load()
	misses := sc.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Size:      size,
		Capacity:  sc.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: sc.evictions.Load(),
		HitRate:   hitRate,
	}
}
