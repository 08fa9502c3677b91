package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeErr struct{ code int }

func (e codeErr) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e codeErr) Code() int     { return e.code }

type stringCodeErr struct{ code string }

func (e stringCodeErr) Error() string { return "driver error " + e.code }
func (e stringCodeErr) Code() string  { return e.code }

func TestStoreErrorIs(t *testing.T) {
	cause := errors.New("boom")
	err := error(New(Lock, "flush failed", cause))

	assert.True(t, errors.Is(err, ErrLock))
	assert.False(t, errors.Is(err, ErrQuery))
	assert.False(t, errors.Is(err, ErrUnique))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "flush failed: boom", err.Error())
	assert.Equal(t, Lock, KindOf(fmt.Errorf("outer: %w", err)))
	assert.True(t, IsFatal(err))

	unique := &StoreError{Kind: ObjectExists, Unique: true}
	assert.True(t, errors.Is(unique, ErrUnique))
	assert.True(t, errors.Is(unique, ErrObjectExists))
	assert.Equal(t, "object exists", unique.Error())
	assert.False(t, IsFatal(unique))
}

func TestWithFailed(t *testing.T) {
	err := New(Optimistic, "stale", nil).WithFailed("obj")
	assert.Equal(t, "obj", err.Failed)
	assert.Nil(t, err.Causes())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "referential-integrity", ReferentialIntegrity.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x"))
	err := WrapError(ErrInvalidUsage, "bad order")
	assert.Equal(t, "bad order: invalid usage", err.Error())
	assert.ErrorIs(t, err, ErrInvalidUsage)
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state string
		code  int
	}{
		{"pq", &pq.Error{Code: "23505", Message: "dup"}, "23505", 0},
		{"pgconn", &pgconn.PgError{Code: "55P03"}, "55P03", 0},
		{"mysql", &mysql.MySQLError{Number: 1062, SQLState: [5]byte{'2', '3', '0', '0', '0'}}, "23000", 1062},
		{"sql error", &SQLError{State: "61000", Code: 54}, "61000", 54},
		{"int code", codeErr{code: 2067}, "", 2067},
		{"numeric string code", stringCodeErr{code: "1205"}, "", 1205},
		{"state string code", stringCodeErr{code: "40001"}, "", 40001},
		{"alpha string code", stringCodeErr{code: "HY000"}, "HY000", 0},
		{"wrapped", fmt.Errorf("exec: %w", &pq.Error{Code: "57014"}), "57014", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Inspect(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.state, d.SQLState)
			assert.Equal(t, tt.code, d.VendorCode)
			assert.NotNil(t, d.Source)
		})
	}

	_, ok := Inspect(errors.New("plain"))
	assert.False(t, ok)
}

func TestChainDepthBounded(t *testing.T) {
	var err error = &SQLError{State: "40001"}
	for i := 0; i < MaxChainDepth+5; i++ {
		err = fmt.Errorf("level %d: %w", i, err)
	}

	assert.Len(t, Chain(err), MaxChainDepth)
	_, ok := Inspect(err)
	assert.False(t, ok)
}

func TestChainJoined(t *testing.T) {
	inner := &SQLError{State: "23503"}
	err := errors.Join(errors.New("first"), fmt.Errorf("second: %w", inner))

	chain := Chain(err)
	assert.Len(t, chain, 4)
	d, ok := Inspect(err)
	require.True(t, ok)
	assert.Equal(t, "23503", d.SQLState)

	got, ok := As[*SQLError](err)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, MessageContains(err, "first"))
	assert.False(t, MessageContains(err, "absent"))
}
