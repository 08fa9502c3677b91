package result

import (
	"fmt"
	"strings"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/schema"
)

// ListResult is a Result over rows held in memory, such as eagerly fetched data.
type ListResult struct {
	Base

	labels map[string]int
	rows   [][]any
	pos    int
	closed bool
}

// NewListResult returns a result over rows whose values are laid out as columns.
func NewListResult(columns []string, rows [][]any) *ListResult {
	l := &ListResult{labels: make(map[string]int, len(columns)), rows: rows, pos: -1}
	for i, c := range columns {
		l.labels[strings.ToUpper(c)] = i
	}
	l.bind(l, l, nil)
	return l
}

// NextRow moves to the next row.
func (l *ListResult) NextRow() (bool, error) {
	if l.closed {
		return false, errs.ErrClosed
	}
	if l.pos < len(l.rows) {
		l.pos++
	}
	return l.pos < len(l.rows), nil
}

// Value returns the value of key in the current row.
func (l *ListResult) Value(key any, _ schema.MetaType, _ any, joins join.Joins) (any, error) {
	if l.pos < 0 || l.pos >= len(l.rows) {
		return nil, errs.WrapError(errs.ErrInvalidUsage, "no current row")
	}
	i, ok := l.position(key)
	if !ok {
		return nil, errs.WrapError(errs.ErrInvalidUsage, fmt.Sprintf("column %v not in result", key))
	}
	row := l.rows[l.pos]
	if i >= len(row) {
		return nil, nil
	}
	return row[i], nil
}

// Has reports whether key names a column.
func (l *ListResult) Has(key any, _ join.Joins) (bool, error) {
	_, ok := l.position(key)
	return ok, nil
}

func (l *ListResult) position(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, k >= 0 && k < len(l.labels)
	case string:
		i, ok := l.labels[strings.ToUpper(k)]
		return i, ok
	case *schema.Column:
		i, ok := l.labels[strings.ToUpper(k.Name)]
		return i, ok
	}
	return 0, false
}

// Close releases eager results. It is idempotent.
func (l *ListResult) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.closeEager()
	return nil
}

// IsClosed reports whether Close has been called.
func (l *ListResult) IsClosed() bool { return l.closed }
