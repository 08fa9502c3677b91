package row

import (
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

type deferredKey struct {
	fk     *schema.ForeignKey
	col    *schema.Column
	io     *schema.ColumnIO
	target meta.StateManager
	rel    meta.RelationID
}

// Secondary is a row for a join or collection table. Foreign keys and relation ids that
// point at instances with database-generated keys are recorded and resolved by Finalize,
// after the referenced rows have been inserted.
type Secondary struct {
	*Impl
	deferred []deferredKey
}

// NewSecondary returns an empty secondary row.
func NewSecondary(table *schema.Table, action Action) *Secondary {
	return &Secondary{Impl: New(table, action)}
}

func (r *Secondary) defers(target meta.StateManager) bool {
	return target != nil && r.action != Delete && meta.HasAutoAssignedKey(target.Mapping())
}

// SetForeignKey stages fk's values for target, deferring them when target's key is
// generated by the database.
func (r *Secondary) SetForeignKey(fk *schema.ForeignKey, io *schema.ColumnIO, target meta.StateManager) error {
	if !r.defers(target) {
		return r.Impl.SetForeignKey(fk, io, target)
	}
	r.deferred = append(r.deferred, deferredKey{fk: fk, io: io, target: target})
	r.valid = true
	r.sql = ""
	return nil
}

// SetRelationID stages rel's value for target, deferring it when target's key is
// generated by the database.
func (r *Secondary) SetRelationID(col *schema.Column, io *schema.ColumnIO, target meta.StateManager, rel meta.RelationID) error {
	if !r.defers(target) {
		return r.Impl.SetRelationID(col, io, target, rel)
	}
	r.deferred = append(r.deferred, deferredKey{col: col, io: io, target: target, rel: rel})
	r.valid = true
	r.sql = ""
	return nil
}

// Deferred reports how many values await Finalize.
func (r *Secondary) Deferred() int { return len(r.deferred) }

// Finalize stages every deferred value from the targets' current keys.
func (r *Secondary) Finalize() error {
	pending := r.deferred
	r.deferred = nil
	for _, d := range pending {
		var err error
		if d.fk != nil {
			err = r.Impl.SetForeignKey(d.fk, d.io, d.target)
		} else {
			err = r.Impl.SetRelationID(d.col, d.io, d.target, d.rel)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy of r, deferred values included.
func (r *Secondary) Clone() *Secondary {
	return &Secondary{Impl: r.Impl.Clone(), deferred: append([]deferredKey(nil), r.deferred...)}
}

// Primary is the row for an instance's own table. It remembers the owning instance so
// failures and generated keys can be attributed to it.
type Primary struct {
	*Secondary
	owner     meta.StateManager
	failed    any
	dependent bool
}

// NewPrimary returns an empty row owned by sm.
func NewPrimary(table *schema.Table, action Action, sm meta.StateManager) *Primary {
	return &Primary{Secondary: NewSecondary(table, action), owner: sm}
}

// Owner returns the instance the row was created for.
func (r *Primary) Owner() meta.StateManager { return r.owner }

// Failed returns the object reported on failure: the explicit one if set, else the
// owner's managed object.
func (r *Primary) Failed() any {
	if r.failed != nil {
		return r.failed
	}
	if r.owner != nil {
		return r.owner.Instance()
	}
	return nil
}

// SetFailed overrides the object reported on failure.
func (r *Primary) SetFailed(obj any) { r.failed = obj }

// IsDependent reports whether the row is for a dependent instance.
func (r *Primary) IsDependent() bool { return r.dependent }

// SetDependent marks the row as belonging to a dependent instance.
func (r *Primary) SetDependent(dependent bool) { r.dependent = dependent }
