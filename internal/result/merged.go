package result

import (
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

// Comparator orders the rows of merged results.
type Comparator interface {
	// OrderingValue extracts the ordering key of the current row of the result at idx.
	OrderingValue(r Result, idx int) (any, error)
	// Compare orders two keys, negative when a sorts first.
	Compare(a, b any) int
}

type childStatus uint8

const (
	statusNext childStatus = iota
	statusCurrent
	statusDone
)

// MergedResult presents several results as one cursor. Without a comparator the results
// are concatenated in order. With one, each child is assumed sorted and the least current
// row across children is returned next; ties go to the lower index.
type MergedResult struct {
	Base

	children []Result
	status   []childStatus
	values   []any
	comp     Comparator
	idx      int
	closed   bool
}

// NewMerged merges children. A nil comparator concatenates.
func NewMerged(children []Result, comp Comparator, log logger.Logger) *MergedResult {
	m := &MergedResult{
		children: children,
		status:   make([]childStatus, len(children)),
		values:   make([]any, len(children)),
		comp:     comp,
	}
	m.bind(m, m, log)
	return m
}

// Children returns the merged results.
func (m *MergedResult) Children() []Result { return m.children }

// Current returns the child holding the current row.
func (m *MergedResult) Current() Result {
	if m.idx < len(m.children) {
		return m.children[m.idx]
	}
	return nil
}

// NextRow advances to the next row across children, closing exhausted ones.
func (m *MergedResult) NextRow() (bool, error) {
	if m.closed {
		return false, errs.ErrClosed
	}
	if m.comp == nil {
		return m.nextConcat()
	}
	return m.nextMerge()
}

func (m *MergedResult) nextConcat() (bool, error) {
	for m.idx < len(m.children) {
		if m.status[m.idx] != statusDone {
			ok, err := m.children[m.idx].Next()
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
			m.finish(m.idx)
		}
		if m.idx == len(m.children)-1 {
			return false, nil
		}
		m.idx++
	}
	return false, nil
}

func (m *MergedResult) nextMerge() (bool, error) {
	for i, child := range m.children {
		if m.status[i] != statusNext {
			continue
		}
		ok, err := child.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			m.finish(i)
			continue
		}
		v, err := m.comp.OrderingValue(child, i)
		if err != nil {
			return false, err
		}
		m.status[i] = statusCurrent
		m.values[i] = v
	}

	least := -1
	var value any
	for i := range m.children {
		if m.status[i] != statusCurrent {
			continue
		}
		if least == -1 || m.comp.Compare(m.values[i], value) < 0 {
			least = i
			value = m.values[i]
		}
	}
	if least == -1 {
		return false, nil
	}
	m.status[least] = statusNext
	m.values[least] = nil
	m.idx = least
	return true, nil
}

func (m *MergedResult) finish(i int) {
	m.status[i] = statusDone
	m.values[i] = nil
	if err := m.children[i].Close(); err != nil {
		m.log.Trace("close merged child failed", "index", i, "error", err)
	}
}

// Value reads from the current child.
func (m *MergedResult) Value(key any, typ schema.MetaType, arg any, joins join.Joins) (any, error) {
	cur := m.Current()
	if cur == nil {
		return nil, errs.WrapError(errs.ErrInvalidUsage, "no current row")
	}
	if joins != nil {
		if col, ok := key.(*schema.Column); ok {
			key = At(col, joins)
		}
	}
	return cur.Object(key, typ, arg)
}

// Has asks the current child.
func (m *MergedResult) Has(key any, joins join.Joins) (bool, error) {
	cur := m.Current()
	if cur == nil {
		return false, nil
	}
	if joins != nil {
		if col, ok := key.(*schema.Column); ok {
			key = At(col, joins)
		}
	}
	return cur.Contains(key)
}

// Eager reads the eager value of the current child.
func (m *MergedResult) Eager(key any) any {
	if cur := m.Current(); cur != nil {
		return cur.Eager(key)
	}
	return nil
}

// PutEager stores an eager value on the current child.
func (m *MergedResult) PutEager(key, value any) {
	if cur := m.Current(); cur != nil {
		cur.PutEager(key, value)
	}
}

// BaseMapping returns the mapping of the current child.
func (m *MergedResult) BaseMapping() meta.Mapping {
	if cur := m.Current(); cur != nil {
		return cur.BaseMapping()
	}
	return m.Base.BaseMapping()
}

// IsLocking reports whether any child locks.
func (m *MergedResult) IsLocking() bool {
	for _, c := range m.children {
		if c.IsLocking() {
			return true
		}
	}
	return false
}

// IndexOf returns the index of the current child's select.
func (m *MergedResult) IndexOf() int {
	if cur := m.Current(); cur != nil {
		return cur.IndexOf()
	}
	return 0
}

// Close closes every child. Failures are logged and swallowed.
func (m *MergedResult) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.closeEager()
	for i, c := range m.children {
		if err := c.Close(); err != nil {
			m.log.Trace("close merged child failed", "index", i, "error", err)
		}
	}
	return nil
}
