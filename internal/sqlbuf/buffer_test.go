package sqlbuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/schema"
)

// stubSelect renders a fixed buffer, recording how often it was asked.
type stubSelect struct {
	sql    string
	params []any
	calls  int
}

func (s *stubSelect) ToSelect(_ bool, _ *fetch.Config) *Buffer {
	s.calls++
	b := New(nil).Append(s.sql)
	for _, p := range s.params {
		b.Append(" AND X = ").AppendValue(p)
	}
	return b
}

func (s *stubSelect) ToSelectCount() *Buffer {
	return New(nil).Append("SELECT COUNT(*) FROM (").Append(s.sql).Append(")")
}

type upperNamer struct{}

func (upperNamer) TableName(t *schema.Table) string       { return strings.ToUpper(t.FullName()) }
func (upperNamer) ColumnName(c *schema.Column) string     { return `"` + c.Name + `"` }
func (upperNamer) SequenceName(s *schema.Sequence) string { return s.FullName() + "_SEQ" }
func (upperNamer) QuoteIdentifier(name string) string     { return `"` + name + `"` }

func TestAppendValue(t *testing.T) {
	b := New(nil).Append("SELECT * FROM T WHERE A = ").AppendValue(1).
		Append(" AND B = ").AppendValue("x").
		Append(" AND C IS ").AppendValue(nil).
		Append(" AND D = ").AppendValue(Raw("CURRENT_TIMESTAMP"))

	assert.Equal(t, "SELECT * FROM T WHERE A = ? AND B = ? AND C IS NULL AND D = CURRENT_TIMESTAMP", b.SQL())
	assert.Equal(t, []any{1, "x"}, b.Params())
}

func TestAppendValueUserParamKeepsNil(t *testing.T) {
	b := New(nil).Append("A = ").AppendValue(nil, UserParam("name"))

	assert.Equal(t, "A = ?", b.SQL())
	assert.Equal(t, []any{nil}, b.Params())
	assert.Equal(t, map[int]any{0: "name"}, b.UserParams())
}

func TestAppendValueLiteral(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"string", "O'Brien", "'O''Brien'"},
		{"char", Char('x'), "'x'"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int8", int8(-3), "-3"},
		{"int64", int64(1 << 40), "1099511627776"},
		{"float stays bound", 1.5, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(nil).AppendValue(tt.val, Literal())
			assert.Equal(t, tt.want, b.SQL())
		})
	}
}

func TestAppendBufferTwice(t *testing.T) {
	a := New(nil)
	b := New(nil).Append("X = ").AppendValue(7)

	a.AppendBuffer(b).Append(" AND ").AppendBuffer(b)

	assert.Equal(t, "X = ? AND X = ?", a.SQL())
	assert.Equal(t, []any{7, 7}, a.Params())
}

func TestAppendBufferSelf(t *testing.T) {
	b := New(nil).Append("A = ").AppendValue(1)
	b.AppendBuffer(b)

	assert.Equal(t, "A = ?A = ?", b.SQL())
	assert.Equal(t, []any{1, 1}, b.Params())
}

func TestColumnsParallelToParams(t *testing.T) {
	col := schema.NewColumn("NAME", schema.TypeString)
	b := New(nil).AppendValue("a", ForColumn(col)).Append(", ").AppendValue(2)

	assert.Equal(t, []*schema.Column{col, nil}, b.Columns())
}

func TestSubselectRenderedLazily(t *testing.T) {
	sub := &stubSelect{sql: "SELECT ID FROM B"}
	b := New(nil).Append("SELECT * FROM A WHERE ID IN ").AppendSelect(sub, nil)

	assert.Equal(t, 0, sub.calls)
	sub.params = []any{"late"}

	assert.Equal(t, "SELECT * FROM A WHERE ID IN (SELECT ID FROM B AND X = ?)", b.SQL())
	assert.Equal(t, []any{"late"}, b.Params())
	assert.Equal(t, 1, sub.calls)

	// finalized once
	_ = b.SQL()
	assert.Equal(t, 1, sub.calls)
}

func TestSubselectPlaceholderCountMatchesParams(t *testing.T) {
	inner := &stubSelect{sql: "SELECT 1", params: []any{1, 2}}
	b := New(nil).AppendValue("a").Append(" ").AppendSelect(inner, nil).Append(" ").AppendValue("z")

	sql := b.SQL()
	assert.Equal(t, strings.Count(sql, "?"), len(b.Params()))
	assert.Equal(t, []any{"a", 1, 2, "z"}, b.Params())
}

func TestAppendCount(t *testing.T) {
	b := New(nil).Append("SELECT ").AppendCount(&stubSelect{sql: "SELECT 1"}, nil)
	assert.Equal(t, "SELECT (SELECT COUNT(*) FROM (SELECT 1))", b.SQL())
}

func TestReplaceSelect(t *testing.T) {
	first := &stubSelect{sql: "SELECT 1"}
	second := &stubSelect{sql: "SELECT 2"}
	b := New(nil).Append("X IN ").AppendSelect(first, nil)

	require.True(t, b.ReplaceSelect(first, second))
	assert.False(t, b.ReplaceSelect(first, second))
	assert.Equal(t, "X IN (SELECT 2)", b.SQL())
	assert.Equal(t, 0, first.calls)
}

func TestInsertAt(t *testing.T) {
	b := New(nil).Append("SELECT A FROM T WHERE B = ").AppendValue(2)
	hint := New(nil).Append("/*+ ").AppendValue(1).Append(" */ ")

	b.InsertAt(hint, len("SELECT "))

	assert.Equal(t, "SELECT /*+ ? */ A FROM T WHERE B = ?", b.SQL())
	assert.Equal(t, []any{1, 2}, b.Params())
}

func TestInsertAtEndAllowsPending(t *testing.T) {
	b := New(nil).Append("A ")
	o := New(nil).AppendSelect(&stubSelect{sql: "SELECT 1"}, nil)

	assert.NotPanics(t, func() { b.InsertAt(o, b.Len()) })
	assert.Equal(t, "A (SELECT 1)", b.SQL())
}

func TestInsertAtPanicsWithPendingSubselects(t *testing.T) {
	t.Run("inserted buffer", func(t *testing.T) {
		b := New(nil).Append("SELECT A FROM T")
		o := New(nil).AppendSelect(&stubSelect{sql: "SELECT 1"}, nil)
		assert.Panics(t, func() { b.InsertAt(o, 3) })
	})

	t.Run("receiving buffer", func(t *testing.T) {
		b := New(nil).Append("X IN ").AppendSelect(&stubSelect{sql: "SELECT 1"}, nil)
		assert.Panics(t, func() { b.InsertAt(New(nil).Append("Y"), 0) })
	})
}

func TestAppendParamsOnly(t *testing.T) {
	src := New(nil).Append("X = ").AppendValue(5)
	b := New(nil).Append("Y = ?").AppendParamsOnly(src)

	assert.Equal(t, "Y = ?", b.SQL())
	assert.Equal(t, []any{5}, b.Params())
}

func TestNamer(t *testing.T) {
	tbl := schema.NewTable("person", schema.NewColumn("name", schema.TypeString))
	b := New(upperNamer{}).Append("SELECT ").AppendAliasedColumn("t0", tbl.Column("name")).
		Append(" FROM ").AppendTable(tbl).Append(" t0, ").AppendName("order").
		Append(" ").AppendSequence(&schema.Sequence{Name: "s"})

	assert.Equal(t, `SELECT t0."name" FROM PERSON t0, "order" s_SEQ`, b.SQL())
}

func TestSQLWithParams(t *testing.T) {
	b := New(nil).Append("A = ").AppendValue("it's").Append(" AND B = ").AppendValue(3).
		Append(" AND C = ").AppendValue(nil, UserParam(1)).
		Append(" AND D = ").AppendValue([]byte{1})

	assert.Equal(t, "A = 'it''s' AND B = 3 AND C = NULL AND D = ?", b.SQLWithParams())
}

func TestCloneIsIndependent(t *testing.T) {
	b := New(nil).Append("A = ").AppendValue(1)
	c := b.Clone()
	c.Append(" AND B = ").AppendValue(2)

	assert.Equal(t, "A = ?", b.SQL())
	assert.Equal(t, []any{1}, b.Params())
	assert.True(t, b.Equal(New(nil).Append("A = ").AppendValue(1)))
	assert.False(t, b.Equal(c))
}

func TestSetParam(t *testing.T) {
	b := New(nil).AppendValue(1).Append(",").AppendValue(2)
	require.True(t, b.SetParam(1, 9))
	assert.False(t, b.SetParam(2, 0))
	assert.Equal(t, []any{1, 9}, b.Params())
}

func TestIsEmpty(t *testing.T) {
	var nilBuf *Buffer
	assert.True(t, nilBuf.IsEmpty())
	assert.True(t, New(nil).IsEmpty())
	assert.False(t, New(nil).AppendSelect(&stubSelect{}, nil).IsEmpty())
}
