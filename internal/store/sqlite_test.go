package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/ormsql/internal/config"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/row"
)

const sqliteSchema = `
CREATE TABLE PERSON (ID INTEGER PRIMARY KEY, NAME TEXT, VERSION INTEGER);
CREATE TABLE ADDRESS (
	ID INTEGER PRIMARY KEY,
	OWNER_ID INTEGER REFERENCES PERSON(ID),
	KIND TEXT,
	CITY TEXT
);`

func openSQLite(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s, err := Open(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Dictionary().Name())

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return s
}

func TestSQLiteFlushAndQuery(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	f := newFixture()

	alice := meta.NewInstance(f.mapping, "alice")
	bob := meta.NewInstance(f.mapping, "bob")
	m := row.NewManager()
	f.stage(t, m, alice, "Alice", 1)
	f.stage(t, m, bob, "Bob", 2)
	require.NoError(t, s.Flush(ctx, m))

	aliceID, ok := alice.Value(f.col("ID"))
	require.True(t, ok)
	bobID, ok := bob.Value(f.col("ID"))
	require.True(t, ok)
	assert.NotEqual(t, aliceID, bobID)

	buf := s.Dictionary().NewBuffer().
		Append("SELECT t0.ID, t0.NAME, t1.KIND FROM PERSON t0 INNER JOIN ADDRESS t1 ON t1.OWNER_ID = t0.ID ORDER BY t0.NAME")
	res, err := s.Query(ctx, buf)
	require.NoError(t, err)
	defer res.Close()

	var names []string
	for {
		ok, err := res.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		name, err := res.String("NAME")
		require.NoError(t, err)
		kind, err := res.String("KIND")
		require.NoError(t, err)
		id, err := res.Int64("ID")
		require.NoError(t, err)
		assert.Equal(t, "home", kind)
		if name == "Alice" {
			assert.Equal(t, aliceID, id)
		}
		names = append(names, name)
	}
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestSQLiteConstraintViolations(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	f := newFixture()

	m := row.NewManager()
	f.stage(t, m, meta.NewInstance(f.mapping, "alice"), "Alice", 1)
	require.NoError(t, s.Flush(ctx, m))

	t.Run("foreign key", func(t *testing.T) {
		m := row.NewManager()
		addr := m.SecondaryRow(f.address, row.Insert)
		addr.SetInt64(f.acol("ID"), 10)
		addr.SetInt64(f.acol("OWNER_ID"), 999)
		m.FlushSecondaryRow(addr)

		err := s.Flush(ctx, m)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrReferentialIntegrity)
		assert.NotErrorIs(t, err, errs.ErrUnique)
	})

	t.Run("duplicate key", func(t *testing.T) {
		m := row.NewManager()
		f.stage(t, m, meta.NewInstance(f.mapping, "carol"), "Carol", 1)

		err := s.Flush(ctx, m)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrUnique)
	})
}

func TestOpenConfigOwnsDatabase(t *testing.T) {
	cfg := &config.Config{Driver: "sqlite", DSN: ":memory:", StmtCacheCapacity: 4}
	s, err := OpenConfig(context.Background(), cfg)
	require.NoError(t, err)

	n, err := s.Exec(context.Background(), s.Dictionary().NewBuffer().Append("CREATE TABLE T (A INTEGER)"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 4, s.CacheStats().Capacity)

	require.NoError(t, s.Close())
	assert.Error(t, s.DB().Ping())

	_, err = OpenConfig(context.Background(), &config.Config{Driver: "sqlite"})
	assert.ErrorContains(t, err, "dsn is required")
}
