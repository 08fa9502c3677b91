package result

import (
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/schema"
)

func sample() *ListResult {
	return NewListResult(
		[]string{"ID", "NAME", "PRICE", "ACTIVE", "CREATED", "LANG", "NOTE"},
		[][]any{
			{int64(1), "Alice", "12.50", int64(1), "2024-03-01 10:15:00", "en_US", nil},
			{int64(2), []byte("Bob"), 3.25, "false", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "en", "x"},
		},
	)
}

func TestTypedGetters(t *testing.T) {
	r := sample()
	ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)

	id, err := r.Int64("ID")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	small, err := r.Int16(0)
	require.NoError(t, err)
	assert.Equal(t, int16(1), small)

	name, err := r.String("name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	price, err := r.BigDecimal("PRICE")
	require.NoError(t, err)
	assert.Zero(t, price.Cmp(big.NewRat(25, 2)))

	f, err := r.Float64("PRICE")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, f, 1e-9)

	active, err := r.Bool("ACTIVE")
	require.NoError(t, err)
	assert.True(t, active)

	created, err := r.Timestamp("CREATED", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), created)

	lang, err := r.Locale("LANG")
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("en-US"), lang)

	ch, err := r.Char("NAME")
	require.NoError(t, err)
	assert.Equal(t, 'A', ch)
}

func TestNullAndWasNull(t *testing.T) {
	r := sample()
	_, err := r.Next()
	require.NoError(t, err)

	s, err := r.String("NOTE")
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.True(t, r.WasNull())

	_, err = r.String("NAME")
	require.NoError(t, err)
	assert.False(t, r.WasNull())

	n, err := r.Int("NOTE")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, r.WasNull())
}

func TestSecondRowCoercion(t *testing.T) {
	r := sample()
	for i := 0; i < 2; i++ {
		ok, err := r.Next()
		require.NoError(t, err)
		require.True(t, ok)
	}

	name, err := r.String("NAME")
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	price, err := r.BigDecimal("PRICE")
	require.NoError(t, err)
	assert.Zero(t, price.Cmp(big.NewRat(13, 4)))

	active, err := r.Bool("ACTIVE")
	require.NoError(t, err)
	assert.False(t, active)

	loc := time.FixedZone("X", 3600)
	created, err := r.Date("CREATED")
	require.NoError(t, err)
	assert.Equal(t, 2, created.Day())
	zoned, err := r.SQLDate("CREATED", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, zoned.Location())

	_, err = r.Locale("LANG")
	assert.Error(t, err, "a locale needs language and region")

	rd, err := r.CharStream("NOTE")
	require.NoError(t, err)
	b, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))

	ok, err := r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConversionError(t *testing.T) {
	r := NewListResult([]string{"V"}, [][]any{{"abc"}})
	_, err := r.Next()
	require.NoError(t, err)

	_, err = r.Int("V")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConversion))

	_, err = r.Timestamp("V", nil)
	assert.True(t, errors.Is(err, errs.ErrConversion))
}

func TestPushBack(t *testing.T) {
	r := NewListResult([]string{"N"}, [][]any{{int64(1)}, {int64(2)}})

	ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)

	r.PushBack()
	r.PushBack()
	ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	n, err := r.Int("N")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "push back does not advance")

	ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	n, err = r.Int("N")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "repeated push back counts once")

	ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	r.PushBack()
	ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	r := sample()
	col := schema.NewColumn("NAME", schema.TypeString)

	ok, err := r.Contains(col)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Contains(At(col, nil))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ContainsAll("ID", "PRICE", 6)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ContainsAll("ID", "MISSING")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObjectUsesColumnType(t *testing.T) {
	r := NewListResult([]string{"FLAG"}, [][]any{{int64(1)}})
	_, err := r.Next()
	require.NoError(t, err)

	col := schema.NewColumn("FLAG", schema.TypeBoolean)
	v, err := r.Object(col, schema.TypeObject, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "in-memory values are returned as stored")
}

type closer struct{ closed int }

func (c *closer) Close() error {
	c.closed++
	return errors.New("boom")
}

func TestCloseClosesEagerResults(t *testing.T) {
	r := sample()
	other := sample()
	c := &closer{}

	r.PutEager("self", r)
	r.PutEager("other", other)
	r.PutEager("closer", c)
	assert.Same(t, other, r.Eager("other"))
	assert.Nil(t, r.Eager("missing"))

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.True(t, r.IsClosed())
	assert.True(t, other.IsClosed())
	assert.Equal(t, 1, c.closed, "close failures are swallowed and not retried")

	_, err := r.Next()
	assert.ErrorIs(t, err, errs.ErrClosed)
}

func TestBookkeeping(t *testing.T) {
	r := sample()
	assert.False(t, r.IsLocking())
	r.SetLocking(true)
	assert.True(t, r.IsLocking())

	r.SetIndexOf(3)
	assert.Equal(t, 3, r.IndexOf())
	assert.Nil(t, r.BaseMapping())
	assert.True(t, r.NewJoins().IsEmpty())
}
