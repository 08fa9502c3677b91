package meta

import "github.com/coregx/ormsql/internal/schema"

// Instance is a map-backed StateManager.
type Instance struct {
	mapping Mapping
	obj     any
	oid     any
	values  map[*schema.Column]any
}

// NewInstance creates a state manager for obj under mapping m.
func NewInstance(m Mapping, obj any) *Instance {
	return &Instance{mapping: m, obj: obj, values: make(map[*schema.Column]any)}
}

// Mapping returns the instance's mapping.
func (i *Instance) Mapping() Mapping { return i.mapping }

// Instance returns the managed object.
func (i *Instance) Instance() any { return i.obj }

// SetObjectID fixes the object id instead of deriving it from primary key values.
func (i *Instance) SetObjectID(oid any) { i.oid = oid }

// ObjectID returns the fixed id, or the primary key value ([]any for composite keys).
// It is nil while any key value is unknown.
func (i *Instance) ObjectID() any {
	if i.oid != nil {
		return i.oid
	}
	pk := i.mapping.PrimaryKeyColumns()
	if len(pk) == 0 {
		return nil
	}
	parts := make([]any, len(pk))
	for n, c := range pk {
		v, ok := i.values[c]
		if !ok {
			return nil
		}
		parts[n] = v
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts
}

// Value returns the value held for col.
func (i *Instance) Value(col *schema.Column) (any, bool) {
	v, ok := i.values[col]
	return v, ok
}

// SetValue records v for col.
func (i *Instance) SetValue(col *schema.Column, v any) {
	i.values[col] = v
}
