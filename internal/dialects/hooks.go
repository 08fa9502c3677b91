package dialects

import (
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// Hooks override the rendering and classification steps a Config cannot describe. Nil
// hooks use the default behavior.
type Hooks struct {
	// ToSelect replaces select rendering. DefaultToSelect remains available to it.
	ToSelect func(d *Dictionary, p *SelectParts, forUpdate bool, f *fetch.Config) *sqlbuf.Buffer
	// AppendSelectRange replaces the pagination clause.
	AppendSelectRange func(d *Dictionary, buf *sqlbuf.Buffer, start, end int64, subselect bool)
	// NativeJoin renders a join condition for the database join syntax.
	NativeJoin func(d *Dictionary, j *join.Join) *sqlbuf.Buffer
	// IsFatal decides whether a classified error must abort the operation.
	IsFatal func(kind errs.Kind, det errs.Details) bool
	// BindValue converts a value before the default conversion; ok reports whether it did.
	BindValue func(d *Dictionary, v any, col *schema.Column) (out any, ok bool)
}
