package dialects

import (
	"fmt"
	"math"
	"strconv"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// NoEnd is the end index of an unbounded range.
const NoEnd int64 = math.MaxInt64

// FromSelectAlias aliases a subselect in a FROM clause.
const FromSelectAlias = "s"

// TableRef is one aliased table of a select.
type TableRef struct {
	Table *schema.Table
	Index int
}

// Alias returns the table alias.
func (t TableRef) Alias() string { return join.Alias(t.Index) }

// SelectParts are the clauses of a select before rendering.
type SelectParts struct {
	Selects *sqlbuf.Buffer
	// Identifiers are the aliased identity columns, used to count distinct rows.
	Identifiers []string
	Tables      []TableRef
	Joins       *join.Set
	// JoinSyntax overrides the dictionary's join syntax when set.
	JoinSyntax JoinSyntax

	Where  *sqlbuf.Buffer
	Group  *sqlbuf.Buffer
	Having *sqlbuf.Buffer
	Order  *sqlbuf.Buffer

	Distinct  bool
	Aggregate bool
	Start     int64
	End       int64
	Subselect bool
}

// Operation is a select-like statement assembled from rendered clauses.
type Operation struct {
	Op        string
	Selects   *sqlbuf.Buffer
	From      *sqlbuf.Buffer
	Where     *sqlbuf.Buffer
	Group     *sqlbuf.Buffer
	Having    *sqlbuf.Buffer
	Order     *sqlbuf.Buffer
	Distinct  bool
	Start     int64
	End       int64
	ForUpdate string
	Subselect bool
}

func (p *SelectParts) syntax(d *Dictionary) JoinSyntax {
	if p.JoinSyntax != "" {
		return p.JoinSyntax
	}
	return d.cfg.JoinSyntax
}

func (p *SelectParts) joins() []*join.Join {
	if p.Joins == nil {
		return nil
	}
	return p.Joins.Joins()
}

// EffectiveRange drops the bounds the product cannot render. A dropped start must be
// skipped by the caller while reading results.
func (d *Dictionary) EffectiveRange(start, end int64) (int64, int64) {
	if end <= 0 {
		end = NoEnd
	}
	if !d.cfg.SupportsSelectStartIndex {
		start = 0
	}
	if !d.cfg.SupportsSelectEndIndex {
		end = NoEnd
	}
	return start, end
}

// CheckSelect reports clauses of p the product cannot render.
func (d *Dictionary) CheckSelect(p *SelectParts, forUpdate bool) error {
	if !isEmpty(p.Having) && !d.cfg.SupportsHaving {
		return errs.WrapError(errs.ErrInvalidUsage, d.cfg.Name+" does not support HAVING")
	}
	if forUpdate && !d.cfg.SimulateLocking && !d.cfg.SupportsSelectForUpdate {
		return errs.WrapError(errs.ErrInvalidUsage, d.cfg.Name+" does not support SELECT FOR UPDATE")
	}
	if p.Subselect && !d.cfg.SupportsSubselect {
		return errs.WrapError(errs.ErrInvalidUsage, d.cfg.Name+" does not support subselects")
	}
	return nil
}

// ToSelect renders a complete select.
func (d *Dictionary) ToSelect(p *SelectParts, forUpdate bool, f *fetch.Config) *sqlbuf.Buffer {
	if d.hooks.ToSelect != nil {
		return d.hooks.ToSelect(d, p, forUpdate, f)
	}
	return d.DefaultToSelect(p, forUpdate, f)
}

// DefaultToSelect renders p without the product's select override.
func (d *Dictionary) DefaultToSelect(p *SelectParts, forUpdate bool, f *fetch.Config) *sqlbuf.Buffer {
	return d.ToOperation(d.Operation(p, forUpdate, f))
}

// Operation assembles the clauses of p.
func (d *Dictionary) Operation(p *SelectParts, forUpdate bool, f *fetch.Config) Operation {
	order := p.Order
	if p.Aggregate && isEmpty(p.Group) {
		order = nil
	}
	start, end := d.EffectiveRange(p.Start, p.End)
	return Operation{
		Op:        d.SelectOperation(f),
		Selects:   p.Selects,
		From:      d.From(p, forUpdate),
		Where:     d.Where(p),
		Group:     p.Group,
		Having:    p.Having,
		Order:     order,
		Distinct:  p.Distinct,
		Start:     start,
		End:       end,
		ForUpdate: d.ForUpdateClause(forUpdate),
		Subselect: p.Subselect,
	}
}

// SelectOperation returns the SELECT keyword with any optimizer hint.
func (d *Dictionary) SelectOperation(f *fetch.Config) string {
	if d.cfg.SupportsHints && f != nil && f.Hint != "" {
		return "SELECT /*+ " + f.Hint + " */"
	}
	return "SELECT"
}

// ForUpdateClause returns the locking clause, empty when locking is simulated or off.
func (d *Dictionary) ForUpdateClause(forUpdate bool) string {
	if !forUpdate || d.cfg.SimulateLocking || !d.cfg.SupportsSelectForUpdate {
		return ""
	}
	return d.cfg.ForUpdateClause
}

// ToOperation renders o in the order SELECT, range, DISTINCT, range, columns, FROM,
// WHERE, GROUP BY, HAVING, ORDER BY, range, lock, range. The range is placed at the
// product's range position.
func (d *Dictionary) ToOperation(o Operation) *sqlbuf.Buffer {
	buf := d.NewBuffer().Append(o.Op)
	end := o.End
	if end <= 0 {
		end = NoEnd
	}
	ranged := o.Start != 0 || end != NoEnd
	pos := d.cfg.RangePosition

	if ranged && pos == RangePreDistinct {
		d.appendSelectRange(buf, o.Start, end, o.Subselect)
	}
	if o.Distinct {
		buf.Append(" DISTINCT")
	}
	if ranged && pos == RangePostDistinct {
		d.appendSelectRange(buf, o.Start, end, o.Subselect)
	}
	buf.Append(" ").AppendBuffer(o.Selects).Append(" FROM ").AppendBuffer(o.From)

	if !isEmpty(o.Where) {
		buf.Append(" WHERE ").AppendBuffer(o.Where)
	}
	if !isEmpty(o.Group) {
		buf.Append(" GROUP BY ").AppendBuffer(o.Group)
	}
	if !isEmpty(o.Having) {
		buf.Append(" HAVING ").AppendBuffer(o.Having)
	}
	if !isEmpty(o.Order) {
		buf.Append(" ORDER BY ").AppendBuffer(o.Order)
	}
	if ranged && pos == RangePostSelect {
		d.appendSelectRange(buf, o.Start, end, o.Subselect)
	}
	if o.ForUpdate != "" {
		buf.Append(" ").Append(o.ForUpdate)
	}
	if ranged && pos == RangePostLock {
		d.appendSelectRange(buf, o.Start, end, o.Subselect)
	}
	return buf
}

func (d *Dictionary) appendSelectRange(buf *sqlbuf.Buffer, start, end int64, subselect bool) {
	if d.hooks.AppendSelectRange != nil {
		d.hooks.AppendSelectRange(d, buf, start, end, subselect)
		return
	}
	switch d.cfg.Pagination {
	case PaginationLimitOffset:
		if end != NoEnd {
			buf.Append(" LIMIT ").AppendValue(end - start)
		}
		if start != 0 {
			buf.Append(" OFFSET ").AppendValue(start)
		}
	case PaginationMySQL:
		if start == 0 {
			buf.Append(" LIMIT ").AppendValue(end)
			return
		}
		count := NoEnd
		if end != NoEnd {
			count = end - start
		}
		buf.Append(" LIMIT ").AppendValue(start).Append(", ").AppendValue(count)
	case PaginationSQLite:
		count := int64(-1)
		if end != NoEnd {
			count = end - start
		}
		buf.Append(" LIMIT ").AppendValue(count)
		if start != 0 {
			buf.Append(" OFFSET ").AppendValue(start)
		}
	case PaginationOffsetFetch:
		buf.Append(" OFFSET ").AppendValue(start).Append(" ROWS")
		if end != NoEnd {
			buf.Append(" FETCH NEXT ").AppendValue(end - start).Append(" ROWS ONLY")
		}
	case PaginationFetchFirst:
		// the row count must be a literal and is not allowed in subselects
		if !subselect && end != NoEnd {
			buf.Append(" FETCH FIRST ").Append(strconv.FormatInt(end, 10)).Append(" ROWS ONLY")
		}
	case PaginationTop:
		if end != NoEnd {
			buf.Append(" TOP ").Append(strconv.FormatInt(end, 10))
		}
	}
}

// From renders the FROM clause. With SQL92 syntax joins render inline; disconnected
// groups of joins and unjoined tables are separated by commas.
func (d *Dictionary) From(p *SelectParts, forUpdate bool) *sqlbuf.Buffer {
	buf := d.NewBuffer()
	joins := p.joins()
	if len(p.Tables) < 2 || p.syntax(d) != SyntaxSQL92 || len(joins) == 0 {
		for i, t := range p.Tables {
			if i > 0 {
				buf.Append(", ")
			}
			d.appendTableAlias(buf, t.Table, t.Index, forUpdate)
		}
		return buf
	}

	introduced := make(map[int]bool)
	for _, j := range joins {
		if j.Correlated {
			continue
		}
		first := !introduced[j.Index1]
		if first && buf.Len() > 0 {
			buf.Append(", ")
		}
		buf.AppendBuffer(d.SQL92Join(j, forUpdate, first))
		introduced[j.Index1] = true
		introduced[j.Index2] = true
	}
	for _, t := range p.Tables {
		if introduced[t.Index] {
			continue
		}
		if buf.Len() > 0 {
			buf.Append(", ")
		}
		d.appendTableAlias(buf, t.Table, t.Index, forUpdate)
		introduced[t.Index] = true
	}
	return buf
}

func (d *Dictionary) appendTableAlias(buf *sqlbuf.Buffer, t *schema.Table, index int, forUpdate bool) {
	buf.AppendTable(t).Append(" ").Append(join.Alias(index))
	if forUpdate && d.cfg.TableForUpdateClause != "" {
		buf.Append(" ").Append(d.cfg.TableForUpdateClause)
	}
}

// Where renders the WHERE clause, adding join conditions that are not rendered in the
// FROM clause.
func (d *Dictionary) Where(p *SelectParts) *sqlbuf.Buffer {
	syntax := p.syntax(d)
	var conds []*sqlbuf.Buffer
	for _, j := range p.joins() {
		if j.FK == nil {
			continue
		}
		switch {
		case j.Correlated, syntax == SyntaxTraditional:
			conds = append(conds, d.TraditionalJoin(j))
		case syntax == SyntaxDatabase:
			conds = append(conds, d.NativeJoin(j))
		}
	}
	if len(conds) == 0 {
		return p.Where
	}

	buf := d.NewBuffer()
	if !isEmpty(p.Where) {
		buf.Append("(").AppendBuffer(p.Where).Append(")")
	}
	for _, c := range conds {
		if buf.Len() > 0 {
			buf.Append(" AND ")
		}
		buf.AppendBuffer(c)
	}
	return buf
}

// SQL92Join renders one join in ANSI syntax. The first join of a group also renders its
// left table.
func (d *Dictionary) SQL92Join(j *join.Join, forUpdate, first bool) *sqlbuf.Buffer {
	buf := d.NewBuffer()
	if first {
		d.appendTableAlias(buf, j.Table1, j.Index1, forUpdate)
	}
	buf.Append(" ")
	switch j.Type {
	case join.Outer:
		buf.Append(d.cfg.OuterJoinClause)
	case join.Inner:
		buf.Append(d.cfg.InnerJoinClause)
	default:
		buf.Append(d.cfg.CrossJoinClause)
	}
	buf.Append(" ")
	d.appendTableAlias(buf, j.Table2, j.Index2, forUpdate)

	if j.FK != nil {
		buf.Append(" ON ").AppendBuffer(d.TraditionalJoin(j))
	} else if d.cfg.RequiresConditionForCrossJoin && j.Type == join.Cross {
		buf.Append(" ON (1 = 1)")
	}
	return buf
}

// TraditionalJoin renders the join condition of j as an equality conjunction.
func (d *Dictionary) TraditionalJoin(j *join.Join) *sqlbuf.Buffer {
	return d.joinCondition(j, "")
}

// NativeJoin renders j in the product's own syntax, falling back to the traditional form.
func (d *Dictionary) NativeJoin(j *join.Join) *sqlbuf.Buffer {
	if d.hooks.NativeJoin != nil {
		return d.hooks.NativeJoin(d, j)
	}
	return d.TraditionalJoin(j)
}

// joinCondition renders the column and constant equalities of j, appending outerMark to
// each column on the optional side.
func (d *Dictionary) joinCondition(j *join.Join, outerMark string) *sqlbuf.Buffer {
	buf := d.NewBuffer()
	if j.FK == nil {
		return buf
	}
	from, to := j.Columns()
	count := 0
	for i := range from {
		if count > 0 {
			buf.Append(" AND ")
		}
		buf.AppendAliasedColumn(j.Alias1(), from[i]).Append(" = ").
			AppendAliasedColumn(j.Alias2(), to[i]).Append(outerMark)
		count++
	}
	for _, c := range j.FK.ConstantColumns() {
		if count > 0 {
			buf.Append(" AND ")
		}
		val := j.FK.Constant(c)
		if j.Inverse {
			buf.AppendValue(val, sqlbuf.ForColumn(c)).Append(" = ").AppendAliasedColumn(j.Alias2(), c).Append(outerMark)
		} else {
			buf.AppendAliasedColumn(j.Alias1(), c).Append(" = ").AppendValue(val, sqlbuf.ForColumn(c))
		}
		count++
	}
	return buf
}

// ToSelectCount renders a select counting the rows p would return. Grouped, ranged and
// multi-column distinct selects are counted through a subselect.
func (d *Dictionary) ToSelectCount(p *SelectParts) *sqlbuf.Buffer {
	start, end := d.EffectiveRange(p.Start, p.End)
	ranged := start != 0 || end != NoEnd
	if isEmpty(p.Group) && !ranged {
		var selects *sqlbuf.Buffer
		switch {
		case !p.Distinct || len(p.Identifiers) == 0:
			selects = d.NewBuffer().Append("COUNT(*)")
		case len(p.Identifiers) == 1:
			selects = d.NewBuffer().Append("COUNT(DISTINCT ").Append(p.Identifiers[0]).Append(")")
		}
		if selects != nil {
			return d.ToOperation(Operation{
				Op:      "SELECT",
				Selects: selects,
				From:    d.From(p, false),
				Where:   d.Where(p),
				End:     NoEnd,
			})
		}
	}

	inner := *p
	inner.Order = nil
	inner.Subselect = true
	if p.Distinct && len(p.Identifiers) > 0 {
		inner.Selects = d.NewBuffer()
		for i, id := range p.Identifiers {
			if i > 0 {
				inner.Selects.Append(", ")
			}
			inner.Selects.Append(id)
		}
	}
	from := d.NewBuffer().Append("(").AppendBuffer(d.ToSelect(&inner, false, nil)).Append(")")
	if d.cfg.RequiresAliasForSubselect {
		from.Append(" ").Append(FromSelectAlias)
	}
	return d.ToOperation(Operation{
		Op:      "SELECT",
		Selects: d.NewBuffer().Append("COUNT(*)"),
		From:    from,
		End:     NoEnd,
	})
}

// ToUnion combines rendered selects into one UNION statement.
func (d *Dictionary) ToUnion(members []*sqlbuf.Buffer, all bool, order *sqlbuf.Buffer) (*sqlbuf.Buffer, error) {
	if !d.cfg.SupportsUnion {
		return nil, errs.WrapError(errs.ErrInvalidUsage, d.cfg.Name+" does not support UNION")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: union of no selects", errs.ErrInvalidUsage)
	}
	op := " UNION "
	if all {
		op = " UNION ALL "
	}
	buf := d.NewBuffer()
	for i, m := range members {
		if i > 0 {
			buf.Append(op)
		}
		buf.AppendBuffer(m)
	}
	if !isEmpty(order) {
		buf.Append(" ORDER BY ").AppendBuffer(order)
	}
	return buf, nil
}

func isEmpty(b *sqlbuf.Buffer) bool {
	return b == nil || b.IsEmpty()
}
