package union

import (
	"context"
	"strconv"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/result"
	"github.com/coregx/ormsql/internal/sqlbuf"
	"github.com/coregx/ormsql/internal/store"
)

// SQLUnion renders its members as one UNION statement. Locking executions fall back to
// running the members separately, since a UNION cannot be locked.
type SQLUnion struct {
	*LogicalUnion
}

var _ Union = (*SQLUnion)(nil)

func (u *SQLUnion) IsUnion() bool { return true }

// ToSelect renders the UNION. Members render without their ORDER BY; the order of the
// first member is applied to the whole union by select-list position.
func (u *SQLUnion) ToSelect(f *fetch.Config) (*sqlbuf.Buffer, error) {
	members := make([]*sqlbuf.Buffer, len(u.sels))
	for i, s := range u.sels {
		members[i] = s.sel.ToUnionMember(f)
	}
	return u.dict.ToUnion(members, !u.distinct, u.order())
}

func (u *SQLUnion) order() *sqlbuf.Buffer {
	buf := u.dict.NewBuffer()
	for i, pos := range u.sels[0].sel.SelectedOrderIndexes() {
		if i > 0 {
			buf.Append(", ")
		}
		buf.Append(strconv.Itoa(pos + 1))
		if i < len(u.dirs) && u.dirs[i] == orderDesc {
			buf.Append(" DESC")
		} else {
			buf.Append(" ASC")
		}
	}
	return buf
}

// Execute runs the UNION as one statement. Columns are resolved through the first
// member's select list.
func (u *SQLUnion) Execute(ctx context.Context, st *store.Store, f *fetch.Config) (result.Result, error) {
	if f == nil {
		f = st.Fetch()
	}
	if f.ForUpdate() {
		u.log.Debug("union members run separately for a locking read", "members", len(u.sels))
		return u.LogicalUnion.Execute(ctx, st, f)
	}

	buf, err := u.ToSelect(f)
	if err != nil {
		return nil, err
	}
	first := u.sels[0]
	res, err := st.Query(ctx, buf, store.UsingFetch(f), store.UsingColumnIndex(first.sel.ColumnIndex))
	if err != nil {
		return nil, err
	}
	res.SetBaseMapping(first.mapping)
	return res, nil
}

// Count counts the rows of the UNION with one statement.
func (u *SQLUnion) Count(ctx context.Context, st *store.Store) (int64, error) {
	inner, err := u.ToSelect(nil)
	if err != nil {
		return 0, err
	}
	buf := u.dict.NewBuffer().Append("SELECT COUNT(*) FROM (").AppendBuffer(inner).
		Append(") ").Append(dialects.FromSelectAlias)
	res, err := st.Query(ctx, buf)
	if err != nil {
		return 0, err
	}
	defer res.Close()

	ok, err := res.Next()
	if err != nil || !ok {
		return 0, err
	}
	return res.Int64(0)
}
