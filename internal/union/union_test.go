package union

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/query"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/store"
)

func TestCompareScalars(t *testing.T) {
	asc := &comparator{dirs: []orderDir{orderAsc}}
	desc := &comparator{dirs: []orderDir{orderDesc}}

	tests := []struct {
		name string
		c    *comparator
		a, b any
		want int
	}{
		{"equal", asc, "a", "a", 0},
		{"strings", asc, "a", "b", -1},
		{"descending", desc, "a", "b", 1},
		{"mixed numerics", asc, int32(2), 1.5, 1},
		{"exact numerics", asc, int64(1) << 60, float64(1 << 60), 0},
		{"null first ascending", asc, nil, "a", -1},
		{"null last descending", desc, nil, "a", 1},
		{"both null", asc, nil, nil, 0},
		{"bools", asc, false, true, -1},
		{"unrelated types by text", asc, "10", int64(9), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Compare(tt.a, tt.b))
		})
	}
}

func TestCompareTuples(t *testing.T) {
	c := &comparator{dirs: []orderDir{orderAsc, orderDesc}}

	assert.Equal(t, -1, c.Compare([]any{"a", 1}, []any{"b", 0}))
	assert.Equal(t, 1, c.Compare([]any{"a", 1}, []any{"a", 2}), "second position descends")
	assert.Equal(t, -1, c.Compare([]any{"a"}, []any{"a", 1}), "shorter tuple first")
	assert.Equal(t, -1, c.Compare("a", []any{"a", 1}), "scalar before equal tuple")
	assert.Equal(t, 1, c.Compare([]any{"a", 1}, "a"))
	assert.Equal(t, 1, c.Compare("b", []any{"a", 1}))
}

type fixture struct {
	person, address *schema.Table
}

func newFixture() *fixture {
	id := schema.NewColumn("ID", schema.TypeLong)
	person := schema.NewTable("PERSON", id, schema.NewColumn("NAME", schema.TypeString))
	person.SetPrimaryKey(id)

	aid := schema.NewColumn("ID", schema.TypeLong)
	address := schema.NewTable("ADDRESS", aid, schema.NewColumn("CITY", schema.TypeString))
	address.SetPrimaryKey(aid)
	return &fixture{person: person, address: address}
}

// selects returns a PERSON and an ADDRESS member selecting ID plus one text column.
func (f *fixture) selects(d *dialects.Dictionary) (*query.Select, *query.Select) {
	p := query.New(d, f.person)
	p.Select(f.person.Column("ID"), nil)
	a := query.New(d, f.address)
	a.Select(f.address.Column("ID"), nil)
	return p, a
}

func mockStore(t *testing.T, dict string, opts ...store.Option) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]store.Option{store.WithDictionary(dialects.MustGet(dict))}, opts...)
	st, err := store.Open(context.Background(), db, opts...)
	require.NoError(t, err)
	return st, mock
}

func noUnion() store.Option {
	return store.WithDictionaryProperties(map[string]any{"supportsUnion": false})
}

func collect(t *testing.T, res result.Result, key any) ([]string, []int) {
	t.Helper()
	var vals []string
	var idx []int
	for {
		ok, err := res.Next()
		require.NoError(t, err)
		if !ok {
			return vals, idx
		}
		s, err := res.String(key)
		require.NoError(t, err)
		vals = append(vals, s)
		idx = append(idx, res.IndexOf())
	}
}

func TestNewPicksStrategy(t *testing.T) {
	f := newFixture()
	st, _ := mockStore(t, "postgres")
	plain, _ := mockStore(t, "postgres", noUnion())

	p, a := f.selects(st.Dictionary())
	u, err := New([]Select{p, a})
	require.NoError(t, err)
	assert.True(t, u.IsUnion())

	p, _ = f.selects(st.Dictionary())
	u, err = New([]Select{p})
	require.NoError(t, err)
	assert.False(t, u.IsUnion(), "single member")

	p, a = f.selects(st.Dictionary())
	a.SetRange(0, 5)
	u, err = New([]Select{p, a})
	require.NoError(t, err)
	assert.False(t, u.IsUnion(), "ranged member")

	p, a = f.selects(plain.Dictionary())
	u, err = New([]Select{p, a})
	require.NoError(t, err)
	assert.False(t, u.IsUnion(), "dictionary without UNION")

	_, err = New(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidUsage)
}

func TestOrderDirectionsMustAgree(t *testing.T) {
	f := newFixture()
	p, a := f.selects(dialects.MustGet("postgres"))
	u, err := NewLogical([]Select{p, a})
	require.NoError(t, err)
	sels := u.Selects()

	ok, err := sels[0].OrderBy(f.person.Column("NAME"), true, nil, true)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = sels[1].OrderBy(f.address.Column("CITY"), true, nil, true)
	require.NoError(t, err)

	_, err = sels[0].OrderBy(f.person.Column("ID"), false, nil, true)
	require.NoError(t, err)
	_, err = sels[1].OrderBy(f.address.Column("ID"), true, nil, true)
	assert.ErrorIs(t, err, errs.ErrInvalidUsage)
}

func TestLogicalUnionMergesOrderedMembers(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres", noUnion())
	p, a := f.selects(st.Dictionary())
	u, err := New([]Select{p, a})
	require.NoError(t, err)
	require.False(t, u.IsUnion())

	require.NoError(t, u.Each(func(s *UnionSelect, i int) error {
		col := f.person.Column("NAME")
		if i == 1 {
			col = f.address.Column("CITY")
		}
		_, err := s.OrderBy(col, true, nil, true)
		return err
	}))

	mock.ExpectPrepare("SELECT t0.ID, t0.NAME FROM PERSON t0 ORDER BY t0.NAME ASC").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(1), "alice").AddRow(int64(3), "carol"))
	mock.ExpectPrepare("SELECT t0.ID, t0.CITY FROM ADDRESS t0 ORDER BY t0.CITY ASC").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "CITY"}).AddRow(int64(2), "bob").AddRow(int64(4), "dave"))

	res, err := u.Execute(context.Background(), st, nil)
	require.NoError(t, err)
	defer res.Close()

	vals, idx := collect(t, res, 1)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, vals)
	assert.Equal(t, []int{0, 1, 0, 1}, idx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogicalUnionConcatenatesUnorderedMembers(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres", noUnion())
	p, a := f.selects(st.Dictionary())
	p.Select(f.person.Column("NAME"), nil)
	a.Select(f.address.Column("CITY"), nil)
	u, err := New([]Select{p, a})
	require.NoError(t, err)

	mock.ExpectPrepare("SELECT t0.ID, t0.NAME FROM PERSON t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(1), "zed"))
	mock.ExpectPrepare("SELECT t0.ID, t0.CITY FROM ADDRESS t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "CITY"}).AddRow(int64(2), "amy"))

	res, err := u.Execute(context.Background(), st, nil)
	require.NoError(t, err)
	defer res.Close()

	vals, _ := collect(t, res, 1)
	assert.Equal(t, []string{"zed", "amy"}, vals)
}

func TestLogicalUnionExpectingOneRow(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres", noUnion())
	p, a := f.selects(st.Dictionary())
	p.SetExpectedResultCount(1)
	a.SetExpectedResultCount(1)
	u, err := New([]Select{p, a})
	require.NoError(t, err)

	mock.ExpectPrepare("SELECT t0.ID FROM PERSON t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID"})).RowsWillBeClosed()
	mock.ExpectPrepare("SELECT t0.ID FROM ADDRESS t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(int64(9)))

	res, err := u.Execute(context.Background(), st, nil)
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, 1, res.IndexOf())

	ok, err := res.Next()
	require.NoError(t, err)
	require.True(t, ok)
	id, err := res.Int64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogicalUnionCountSumsMembers(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres", noUnion())
	p, a := f.selects(st.Dictionary())
	u, err := New([]Select{p, a})
	require.NoError(t, err)

	mock.ExpectPrepare("SELECT COUNT(*) FROM PERSON t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectPrepare("SELECT COUNT(*) FROM ADDRESS t0").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

	n, err := u.Count(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func orderedSQLUnion(t *testing.T, f *fixture, d *dialects.Dictionary) Union {
	t.Helper()
	p, a := f.selects(d)
	u, err := New([]Select{p, a})
	require.NoError(t, err)
	require.True(t, u.IsUnion())
	require.NoError(t, u.Each(func(s *UnionSelect, i int) error {
		col := f.person.Column("NAME")
		if i == 1 {
			col = f.address.Column("CITY")
		}
		_, err := s.OrderBy(col, false, nil, true)
		return err
	}))
	return u
}

func TestSQLUnionRendersOneStatement(t *testing.T) {
	f := newFixture()
	d := dialects.MustGet("postgres")
	u := orderedSQLUnion(t, f, d).(*SQLUnion)

	buf, err := u.ToSelect(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT t0.ID, t0.NAME FROM PERSON t0 UNION SELECT t0.ID, t0.CITY FROM ADDRESS t0 "+
		"ORDER BY 2 DESC", buf.SQL())

	u.SetDistinct(false)
	buf, err = u.ToSelect(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT t0.ID, t0.NAME FROM PERSON t0 UNION ALL SELECT t0.ID, t0.CITY FROM ADDRESS t0 "+
		"ORDER BY 2 DESC", buf.SQL())
}

func TestSQLUnionExecuteAndCount(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres")
	u := orderedSQLUnion(t, f, st.Dictionary())
	union := "SELECT t0.ID, t0.NAME FROM PERSON t0 UNION SELECT t0.ID, t0.CITY FROM ADDRESS t0 ORDER BY 2 DESC"

	mock.ExpectPrepare(union).ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(2), "bob").AddRow(int64(1), "alice"))
	mock.ExpectPrepare("SELECT COUNT(*) FROM (" + union + ") s").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	res, err := u.Execute(context.Background(), st, nil)
	require.NoError(t, err)
	vals, _ := collect(t, res, f.person.Column("NAME"))
	require.NoError(t, res.Close())
	assert.Equal(t, []string{"bob", "alice"}, vals)

	n, err := u.Count(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUnionLockingRunsMembersSeparately(t *testing.T) {
	f := newFixture()
	st, mock := mockStore(t, "postgres")
	u := orderedSQLUnion(t, f, st.Dictionary())

	mock.ExpectPrepare("SELECT t0.ID, t0.NAME FROM PERSON t0 ORDER BY t0.NAME DESC FOR UPDATE").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(int64(1), "alice"))
	mock.ExpectPrepare("SELECT t0.ID, t0.CITY FROM ADDRESS t0 ORDER BY t0.CITY DESC FOR UPDATE").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"ID", "CITY"}).AddRow(int64(2), "bob"))

	res, err := u.Execute(context.Background(), st, &fetch.Config{ReadLockLevel: fetch.LockWrite})
	require.NoError(t, err)
	defer res.Close()
	assert.True(t, res.IsLocking())

	vals, _ := collect(t, res, 1)
	assert.Equal(t, []string{"bob", "alice"}, vals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
