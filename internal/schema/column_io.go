package schema

// ColumnIO records which positions of a column list may be written on insert and update.
// Positions are indexes into the list the IO describes (a key's columns), not table indexes.
// A nil *ColumnIO permits everything.
type ColumnIO struct {
	unInsertable     bitset
	unUpdatable      bitset
	unNullInsertable bitset
	unNullUpdatable  bitset
}

// SetInsertable controls whether position i may be inserted.
func (io *ColumnIO) SetInsertable(i int, ok bool) {
	io.unInsertable.set(i, !ok)
}

// SetUpdatable controls whether position i may be updated.
func (io *ColumnIO) SetUpdatable(i int, ok bool) {
	io.unUpdatable.set(i, !ok)
}

// SetNullInsertable controls whether position i may be inserted as NULL.
func (io *ColumnIO) SetNullInsertable(i int, ok bool) {
	io.unNullInsertable.set(i, !ok)
}

// SetNullUpdatable controls whether position i may be updated to NULL.
func (io *ColumnIO) SetNullUpdatable(i int, ok bool) {
	io.unNullUpdatable.set(i, !ok)
}

// IsInsertable reports whether position i may be inserted with a null or non-null value.
func (io *ColumnIO) IsInsertable(i int, null bool) bool {
	if io == nil {
		return true
	}
	return allowed(i, io.unInsertable, io.unNullInsertable, null)
}

// IsUpdatable reports whether position i may be updated with a null or non-null value.
func (io *ColumnIO) IsUpdatable(i int, null bool) bool {
	if io == nil {
		return true
	}
	return allowed(i, io.unUpdatable, io.unNullUpdatable, null)
}

// IsAnyInsertable reports whether any of the first n positions may be inserted.
func (io *ColumnIO) IsAnyInsertable(n int, null bool) bool {
	for i := 0; i < n; i++ {
		if io.IsInsertable(i, null) {
			return true
		}
	}
	return false
}

// IsAnyUpdatable reports whether any of the first n positions may be updated.
func (io *ColumnIO) IsAnyUpdatable(n int, null bool) bool {
	for i := 0; i < n; i++ {
		if io.IsUpdatable(i, null) {
			return true
		}
	}
	return false
}

func allowed(i int, denied, deniedNull bitset, null bool) bool {
	if i < 0 {
		return true
	}
	if denied.get(i) {
		return false
	}
	return !null || !deniedNull.get(i)
}

type bitset []uint64

func (b *bitset) set(i int, v bool) {
	w := i / 64
	for len(*b) <= w {
		*b = append(*b, 0)
	}
	if v {
		(*b)[w] |= 1 << uint(i%64)
	} else {
		(*b)[w] &^= 1 << uint(i%64)
	}
}

func (b bitset) get(i int) bool {
	w := i / 64
	return w < len(b) && b[w]&(1<<uint(i%64)) != 0
}
