// Package query builds SELECT statements over aliased tables. A Select tracks which
// tables its join paths reach, which columns it selects and at what positions, and
// renders itself through a dictionary.
package query

import (
	"strconv"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// Select accumulates the clauses of one select. Subselects share the alias numbering of
// the select they were created from. A Select is not safe for concurrent use.
type Select struct {
	dict    *dialects.Dictionary
	parent  *Select
	next    *int
	primary int

	// aliases maps a table reached through a join path to its alias index.
	aliases map[string]int
	tables  []dialects.TableRef
	used    map[int]bool
	joins   *join.Set

	selects     *sqlbuf.Buffer
	positions   map[string]int
	nselected   int
	identifiers []string

	where  *sqlbuf.Buffer
	group  *sqlbuf.Buffer
	having *sqlbuf.Buffer
	order  *sqlbuf.Buffer
	// orderIdx holds the select-list positions of selected ORDER BY columns.
	orderIdx []int

	distinct  bool
	aggregate bool
	start     int64
	end       int64
	expected  int
	syntax    dialects.JoinSyntax
}

var _ sqlbuf.Subselect = (*Select)(nil)

// New creates a select whose primary table is table, aliased t0.
func New(d *dialects.Dictionary, table *schema.Table) *Select {
	next := 0
	return newSelect(d, &next, nil, table)
}

func newSelect(d *dialects.Dictionary, next *int, parent *Select, table *schema.Table) *Select {
	s := &Select{
		dict:      d,
		parent:    parent,
		next:      next,
		aliases:   make(map[string]int),
		used:      make(map[int]bool),
		joins:     join.NewSet(),
		selects:   d.NewBuffer(),
		positions: make(map[string]int),
		where:     d.NewBuffer(),
		group:     d.NewBuffer(),
		having:    d.NewBuffer(),
		order:     d.NewBuffer(),
		end:       dialects.NoEnd,
	}
	s.primary = s.tableIndex(table, "")
	s.markUsed(s.primary, table)
	return s
}

// Subselect creates a select over table to be embedded in s, for example through
// sqlbuf.Buffer.AppendSelect.
func (s *Select) Subselect(table *schema.Table) *Select {
	return newSelect(s.dict, s.next, s, table)
}

// Dictionary returns the dictionary s renders with.
func (s *Select) Dictionary() *dialects.Dictionary { return s.dict }

// Parent returns the enclosing select of a subselect.
func (s *Select) Parent() *Select { return s.parent }

// NewJoins starts a join path at the primary table.
func (s *Select) NewJoins() join.Joins {
	return &pathJoins{sel: s, idx: s.primary}
}

func aliasKey(t *schema.Table, path string) string {
	return path + "|" + t.FullName()
}

// tableIndex returns the alias of t reached through path, allocating one on first use.
func (s *Select) tableIndex(t *schema.Table, path string) int {
	key := aliasKey(t, path)
	if idx, ok := s.aliases[key]; ok {
		return idx
	}
	idx := *s.next
	*s.next++
	s.aliases[key] = idx
	return idx
}

func (s *Select) markUsed(idx int, t *schema.Table) {
	if s.used[idx] {
		return
	}
	s.used[idx] = true
	s.tables = append(s.tables, dialects.TableRef{Table: t, Index: idx})
}

// use adds the joins of a path to the select and brings their tables into FROM.
func (s *Select) use(joins join.Joins) {
	pj, ok := joins.(*pathJoins)
	if !ok || pj.sel != s || pj.IsEmpty() {
		return
	}
	for _, j := range pj.set.Joins() {
		s.joins.Add(j)
		s.markUsed(j.Index1, j.Table1)
		s.markUsed(j.Index2, j.Table2)
	}
}

// owner returns the select that owns the aliases of joins.
func (s *Select) owner(joins join.Joins) (*Select, string) {
	if pj, ok := joins.(*pathJoins); ok {
		return pj.sel, pj.path
	}
	return s, ""
}

// columnIndex resolves the alias col is read from, registering the joins that reach it.
func (s *Select) columnIndex(col *schema.Column, joins join.Joins) int {
	sel, path := s.owner(joins)
	idx := sel.tableIndex(col.Table, path)
	if sel == s {
		s.use(joins)
		s.markUsed(idx, col.Table)
	}
	return idx
}

func positionKey(idx int, col *schema.Column) string {
	return strconv.Itoa(idx) + "." + col.Name
}

// ColumnAlias renders col as read through joins, e.g. t1.NAME.
func (s *Select) ColumnAlias(col *schema.Column, joins join.Joins) string {
	idx := s.columnIndex(col, joins)
	return s.dict.NewBuffer().AppendAliasedColumn(join.Alias(idx), col).SQL()
}

func (s *Select) addSelect(key string, render func(*sqlbuf.Buffer)) bool {
	if _, ok := s.positions[key]; ok {
		return false
	}
	if !s.selects.IsEmpty() {
		s.selects.Append(", ")
	}
	render(s.selects)
	s.positions[key] = s.nselected
	s.nselected++
	return true
}

// Select adds col to the select list. It reports false when col was already selected
// through the same alias.
func (s *Select) Select(col *schema.Column, joins join.Joins) bool {
	idx := s.columnIndex(col, joins)
	return s.addSelect(positionKey(idx, col), func(b *sqlbuf.Buffer) {
		b.AppendAliasedColumn(join.Alias(idx), col)
	})
}

// SelectColumns selects each of cols and returns how many were newly added.
func (s *Select) SelectColumns(cols []*schema.Column, joins join.Joins) int {
	n := 0
	for _, c := range cols {
		if s.Select(c, joins) {
			n++
		}
	}
	return n
}

// SelectIdentifier selects col as part of the row identity, which counts of distinct
// selects are taken over.
func (s *Select) SelectIdentifier(col *schema.Column, joins join.Joins) bool {
	added := s.Select(col, joins)
	if added {
		s.identifiers = append(s.identifiers, s.ColumnAlias(col, joins))
	}
	return added
}

// SelectPrimaryKey selects the primary key columns of m as identifiers.
func (s *Select) SelectPrimaryKey(m meta.Mapping, joins join.Joins) int {
	n := 0
	for _, c := range m.PrimaryKeyColumns() {
		if s.SelectIdentifier(c, joins) {
			n++
		}
	}
	return n
}

// SelectExpr adds an expression to the select list under id.
func (s *Select) SelectExpr(expr *sqlbuf.Buffer, id string) bool {
	return s.addSelect("expr:"+id, func(b *sqlbuf.Buffer) { b.AppendBuffer(expr) })
}

// Position returns the select-list position of an expression added with SelectExpr.
func (s *Select) Position(id string) (int, bool) {
	pos, ok := s.positions["expr:"+id]
	return pos, ok
}

// SelectCount returns the number of selected expressions.
func (s *Select) SelectCount() int { return s.nselected }

// ColumnIndex returns the select-list position of col as read through joins. It never
// allocates aliases and is safe to pass to result.WithColumnIndex.
func (s *Select) ColumnIndex(col *schema.Column, joins join.Joins) (int, bool) {
	sel, path := s.owner(joins)
	idx, ok := sel.aliases[aliasKey(col.Table, path)]
	if !ok {
		return 0, false
	}
	pos, ok := s.positions[positionKey(idx, col)]
	return pos, ok
}

// Where ANDs cond into the WHERE clause. The joins the condition reads through are
// added to the select.
func (s *Select) Where(cond *sqlbuf.Buffer, joins join.Joins) *Select {
	if cond.IsEmpty() {
		return s
	}
	s.use(joins)
	if !s.where.IsEmpty() {
		s.where.Append(" AND ")
	}
	s.where.AppendBuffer(cond)
	return s
}

// WhereEquals ANDs col = v, or col IS NULL for a nil v.
func (s *Select) WhereEquals(col *schema.Column, v any, joins join.Joins) *Select {
	idx := s.columnIndex(col, joins)
	cond := s.dict.NewBuffer().AppendAliasedColumn(join.Alias(idx), col)
	if v == nil {
		cond.Append(" IS NULL")
	} else {
		cond.Append(" = ").AppendValue(v, sqlbuf.ForColumn(col))
	}
	return s.Where(cond, joins)
}

// WherePrimaryKey restricts the select to the instance managed by sm.
func (s *Select) WherePrimaryKey(m meta.Mapping, sm meta.StateManager, joins join.Joins) error {
	for _, c := range m.PrimaryKeyColumns() {
		j, err := meta.AssertJoinable(m, c)
		if err != nil {
			return err
		}
		v, err := j.JoinValue(sm, c)
		if err != nil {
			return err
		}
		s.WhereEquals(c, v, joins)
	}
	return nil
}

// Correlate joins the primary table of a subselect to the table of the enclosing select
// reached through parentJoins. The condition renders in the subselect's WHERE clause.
func (s *Select) Correlate(fk *schema.ForeignKey, inverse bool, parentJoins join.Joins) *Select {
	if s.parent == nil {
		return s
	}
	to := fk.PrimaryKeyTable()
	if inverse {
		to = fk.Table
	}
	sel, path := s.parent.owner(parentJoins)
	j := join.New(s.primary, sel.tableIndex(to, path), join.Inner, fk, inverse)
	j.Correlated = true
	s.joins.Add(j)
	return s
}

// OrderBy appends col to ORDER BY. With sel, col is also selected and its position is
// recorded for merging ordered results. It reports whether col is in the select list.
func (s *Select) OrderBy(col *schema.Column, asc bool, joins join.Joins, sel bool) bool {
	idx := s.columnIndex(col, joins)
	key := positionKey(idx, col)
	if sel {
		s.Select(col, joins)
		s.orderIdx = append(s.orderIdx, s.positions[key])
	}
	if !s.order.IsEmpty() {
		s.order.Append(", ")
	}
	s.order.AppendAliasedColumn(join.Alias(idx), col)
	if asc {
		s.order.Append(" ASC")
	} else {
		s.order.Append(" DESC")
	}
	_, selected := s.positions[key]
	return selected
}

// OrderByPrimaryKey orders by the primary key columns of m.
func (s *Select) OrderByPrimaryKey(m meta.Mapping, asc bool, joins join.Joins, sel bool) int {
	cols := m.PrimaryKeyColumns()
	for _, c := range cols {
		s.OrderBy(c, asc, joins, sel)
	}
	return len(cols)
}

// SelectedOrderIndexes returns the select-list positions of the selected ORDER BY
// columns in order, nil when none were selected.
func (s *Select) SelectedOrderIndexes() []int {
	if len(s.orderIdx) == 0 {
		return nil
	}
	return append([]int(nil), s.orderIdx...)
}

// GroupBy appends col to GROUP BY.
func (s *Select) GroupBy(col *schema.Column, joins join.Joins) *Select {
	idx := s.columnIndex(col, joins)
	if !s.group.IsEmpty() {
		s.group.Append(", ")
	}
	s.group.AppendAliasedColumn(join.Alias(idx), col)
	return s
}

// Having ANDs cond into the HAVING clause.
func (s *Select) Having(cond *sqlbuf.Buffer) *Select {
	if !s.having.IsEmpty() {
		s.having.Append(" AND ")
	}
	s.having.AppendBuffer(cond)
	return s
}

// SetDistinct marks the select DISTINCT.
func (s *Select) SetDistinct(distinct bool) *Select {
	s.distinct = distinct
	return s
}

// IsDistinct reports whether the select is DISTINCT.
func (s *Select) IsDistinct() bool { return s.distinct }

// SetAggregate marks the select list as aggregate. Ungrouped aggregates drop ORDER BY.
func (s *Select) SetAggregate(aggregate bool) *Select {
	s.aggregate = aggregate
	return s
}

// SetRange limits the rows to [start, end). An end of 0 or dialects.NoEnd is unbounded.
func (s *Select) SetRange(start, end int64) *Select {
	if end <= 0 {
		end = dialects.NoEnd
	}
	s.start, s.end = start, end
	return s
}

// Range returns the requested row range.
func (s *Select) Range() (start, end int64) { return s.start, s.end }

// IsRanged reports whether a row range was requested.
func (s *Select) IsRanged() bool { return s.start != 0 || s.end != dialects.NoEnd }

// SetExpectedResultCount records how many rows the caller expects, 0 when unknown.
func (s *Select) SetExpectedResultCount(n int) *Select {
	s.expected = n
	return s
}

// ExpectedResultCount returns the expected number of rows, 0 when unknown.
func (s *Select) ExpectedResultCount() int { return s.expected }

// SetJoinSyntax overrides the dictionary's join syntax.
func (s *Select) SetJoinSyntax(syntax dialects.JoinSyntax) *Select {
	s.syntax = syntax
	return s
}

// Joins returns the joins used by the select.
func (s *Select) Joins() *join.Set { return s.joins }

// Tables returns the aliased tables in FROM, in the order they were first used.
func (s *Select) Tables() []dialects.TableRef {
	return append([]dialects.TableRef(nil), s.tables...)
}

// Parts returns the clauses of s for rendering.
func (s *Select) Parts() *dialects.SelectParts {
	return &dialects.SelectParts{
		Selects:     s.selects,
		Identifiers: s.identifiers,
		Tables:      s.tables,
		Joins:       s.joins,
		JoinSyntax:  s.syntax,
		Where:       s.where,
		Group:       s.group,
		Having:      s.having,
		Order:       s.order,
		Distinct:    s.distinct,
		Aggregate:   s.aggregate,
		Start:       s.start,
		End:         s.end,
		Subselect:   s.parent != nil,
	}
}

// ToSelect renders the complete select.
func (s *Select) ToSelect(forUpdate bool, f *fetch.Config) *sqlbuf.Buffer {
	return s.dict.ToSelect(s.Parts(), forUpdate, f)
}

// ToUnionMember renders the select without ORDER BY for use inside a UNION.
func (s *Select) ToUnionMember(f *fetch.Config) *sqlbuf.Buffer {
	p := s.Parts()
	p.Order = nil
	return s.dict.ToSelect(p, false, f)
}

// ToSelectCount renders a select counting the rows s would return.
func (s *Select) ToSelectCount() *sqlbuf.Buffer {
	return s.dict.ToSelectCount(s.Parts())
}

func (s *Select) String() string {
	return s.ToSelect(false, nil).SQL()
}
