// Package row stages INSERT, UPDATE and DELETE statements. A row collects per-column set
// values and where-predicates, resolves key values through the mapping layer, and renders
// one statement with its arguments when the store flushes it.
//
// Rows and managers are not safe for concurrent use.
package row

import (
	"fmt"

	"github.com/coregx/ormsql/internal/schema"
)

// Action is the statement a row renders.
type Action int

// Row actions.
const (
	Update Action = iota
	Insert
	Delete
)

func (a Action) String() string {
	switch a {
	case Update:
		return "update"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) valid() bool {
	return a == Update || a == Insert || a == Delete
}

type slotKind uint8

const (
	slotUnset slotKind = iota
	slotNull
	slotValue
)

// Slot is one staged column value: unset, SQL NULL, or a value with its type.
type Slot struct {
	kind  slotKind
	Value any
	Type  schema.MetaType
}

// NullSlot is an explicit SQL NULL.
var NullSlot = Slot{kind: slotNull}

// ValueSlot holds v of type typ.
func ValueSlot(v any, typ schema.MetaType) Slot {
	return Slot{kind: slotValue, Value: v, Type: typ}
}

// IsSet reports whether the slot was touched.
func (s Slot) IsSet() bool { return s.kind != slotUnset }

// IsNull reports whether the slot is an explicit NULL.
func (s Slot) IsNull() bool { return s.kind == slotNull }

// IsRaw reports whether the slot holds SQL spliced verbatim.
func (s Slot) IsRaw() bool { return s.kind == slotValue && s.Type == schema.TypeRaw }

func (s Slot) String() string {
	switch s.kind {
	case slotUnset:
		return "<unset>"
	case slotNull:
		return "NULL"
	}
	return fmt.Sprintf("%v", s.Value)
}
