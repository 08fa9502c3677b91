package query

import (
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

// pathJoins is the join path of one traversal from a select's primary table. Every
// traversal returns a new value; the receiver is never changed.
type pathJoins struct {
	sel   *Select
	path  string
	idx   int
	set   *join.Set
	outer bool
}

var _ join.Joins = (*pathJoins)(nil)

func (p *pathJoins) IsEmpty() bool { return p.set == nil || p.set.IsEmpty() }
func (p *pathJoins) IsOuter() bool { return p.outer }
func (p *pathJoins) Path() string  { return p.path }

func (p *pathJoins) Set() *join.Set {
	if p.IsEmpty() {
		return nil
	}
	return p.set
}

func (p *pathJoins) Join(fk *schema.ForeignKey, inverse, toMany bool) join.Joins {
	return p.traverse("", fk, nil, 0, inverse, toMany, join.Inner)
}

func (p *pathJoins) OuterJoin(fk *schema.ForeignKey, inverse, toMany bool) join.Joins {
	return p.traverse("", fk, nil, 0, inverse, toMany, join.Outer)
}

func (p *pathJoins) JoinRelation(name string, fk *schema.ForeignKey, target meta.Mapping, subs int, inverse, toMany bool) join.Joins {
	return p.traverse(name, fk, target, subs, inverse, toMany, join.Inner)
}

func (p *pathJoins) OuterJoinRelation(name string, fk *schema.ForeignKey, target meta.Mapping, subs int, inverse, toMany bool) join.Joins {
	return p.traverse(name, fk, target, subs, inverse, toMany, join.Outer)
}

func (p *pathJoins) CrossJoin(t1, t2 *schema.Table) join.Joins {
	path := p.path + "/x:" + t2.FullName()
	i1 := p.sel.tableIndex(t1, p.path)
	i2 := p.sel.tableIndex(t2, path)
	return p.extend(path, i2, join.NewCross(i1, i2, t1, t2), false)
}

func (p *pathJoins) traverse(name string, fk *schema.ForeignKey, target meta.Mapping, subs int, inverse, toMany bool, typ join.Type) join.Joins {
	step := fk.Name
	if name != "" {
		step = name
	}
	if inverse {
		step += "~"
	}
	path := p.path + "/" + step

	to := fk.PrimaryKeyTable()
	if inverse {
		to = fk.Table
	}
	next := p.sel.tableIndex(to, path)
	j := join.New(p.idx, next, typ, fk, inverse)
	if target != nil {
		j.SetRelation(target, subs, toMany)
	}
	return p.extend(path, next, j, typ == join.Outer)
}

func (p *pathJoins) extend(path string, idx int, j *join.Join, outer bool) *pathJoins {
	set := join.NewSet()
	if p.set != nil {
		set = p.set.Clone()
	}
	set.Add(j)
	return &pathJoins{sel: p.sel, path: path, idx: idx, set: set, outer: outer}
}
