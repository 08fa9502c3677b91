package row

import (
	"fmt"

	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

type rowKey struct {
	table *schema.Table
	sm    meta.StateManager
}

// Manager collects the rows of one flush. Primary rows are unique per table, instance and
// action; secondary and all-rows statements are appended in the order they are flushed.
// State managers are used as map keys and must be comparable.
type Manager struct {
	inserts map[rowKey]*Primary
	updates map[rowKey]*Primary
	deletes map[rowKey]*Primary
	ordered []*Primary

	secondary []*Secondary
	allRows   []*Impl

	autoAssign bool

	last struct {
		key    rowKey
		action Action
		row    *Primary
	}
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{
		inserts: make(map[rowKey]*Primary),
		updates: make(map[rowKey]*Primary),
		deletes: make(map[rowKey]*Primary),
	}
}

func (m *Manager) bucket(action Action) map[rowKey]*Primary {
	switch action {
	case Insert:
		return m.inserts
	case Update:
		return m.updates
	case Delete:
		return m.deletes
	}
	panic(fmt.Sprintf("row: unrecognized action %d", int(action)))
}

// Row returns the primary row for sm in table, creating it when create is set. It returns
// nil when the row does not exist and create is false.
func (m *Manager) Row(table *schema.Table, action Action, sm meta.StateManager, create bool) *Primary {
	k := rowKey{table: table, sm: sm}
	if m.last.row != nil && m.last.key == k && m.last.action == action {
		return m.last.row
	}
	b := m.bucket(action)
	r := b[k]
	if r == nil {
		if !create {
			return nil
		}
		r = NewPrimary(table, action, sm)
		b[k] = r
		m.ordered = append(m.ordered, r)
		if action == Insert && !m.autoAssign && len(table.AutoAssignedColumns()) > 0 {
			m.autoAssign = true
		}
	}
	m.last.key, m.last.action, m.last.row = k, action, r
	return r
}

// SecondaryRow returns a new secondary row. It takes part in the flush only after
// FlushSecondaryRow.
func (m *Manager) SecondaryRow(table *schema.Table, action Action) *Secondary {
	return NewSecondary(table, action)
}

// FlushSecondaryRow records r for execution if it is valid.
func (m *Manager) FlushSecondaryRow(r *Secondary) {
	if r.IsValid() {
		m.secondary = append(m.secondary, r)
	}
}

// AllRows returns a new row that acts on every row of table matching its predicates.
func (m *Manager) AllRows(table *schema.Table, action Action) *Impl {
	return New(table, action)
}

// FlushAllRows records r for execution if it is valid.
func (m *Manager) FlushAllRows(r *Impl) {
	if r.IsValid() {
		m.allRows = append(m.allRows, r)
	}
}

// Inserts returns the primary INSERT rows in creation order.
func (m *Manager) Inserts() []*Primary { return m.filter(Insert) }

// Updates returns the primary UPDATE rows in creation order.
func (m *Manager) Updates() []*Primary { return m.filter(Update) }

// Deletes returns the primary DELETE rows in creation order.
func (m *Manager) Deletes() []*Primary { return m.filter(Delete) }

func (m *Manager) filter(action Action) []*Primary {
	var out []*Primary
	for _, r := range m.ordered {
		if r.action == action {
			out = append(out, r)
		}
	}
	return out
}

// Ordered returns every primary row in creation order.
func (m *Manager) Ordered() []*Primary { return m.ordered }

// Secondary returns the flushed secondary rows.
func (m *Manager) Secondary() []*Secondary { return m.secondary }

// AllRowsStatements returns the flushed all-rows statements.
func (m *Manager) AllRowsStatements() []*Impl { return m.allRows }

// HasAutoAssignConstraints reports whether any INSERT row targets a table with
// database-generated columns, which forces inserts to run one at a time in order.
func (m *Manager) HasAutoAssignConstraints() bool { return m.autoAssign }

// Flushables returns what the store executes, in order: primary rows, then secondary
// rows, then all-rows statements. Invalid primary rows are skipped.
func (m *Manager) Flushables() []Flushable {
	out := make([]Flushable, 0, len(m.ordered)+len(m.secondary)+len(m.allRows))
	for _, r := range m.ordered {
		if r.IsValid() {
			out = append(out, r)
		}
	}
	for _, r := range m.secondary {
		out = append(out, r)
	}
	for _, r := range m.allRows {
		out = append(out, r)
	}
	return out
}
