// Package sqlbuf accumulates SQL text together with the parameters bound inside it.
//
// A Buffer is an ordered list of fragments. A text fragment carries the parameters whose
// placeholders it contains; a pending fragment refers to a subselect whose SQL is not
// rendered until the buffer is finalized. Finalization happens the first time SQL or
// parameters are requested, so a subselect may keep changing (joins, ranges) until then.
//
// Buffers are not safe for concurrent use.
package sqlbuf

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/schema"
)

// Namer renders schema names for one database product.
type Namer interface {
	TableName(t *schema.Table) string
	ColumnName(c *schema.Column) string
	SequenceName(s *schema.Sequence) string
	QuoteIdentifier(name string) string
}

// Subselect is a select that can be rendered lazily into an enclosing buffer.
type Subselect interface {
	ToSelect(forUpdate bool, f *fetch.Config) *Buffer
	ToSelectCount() *Buffer
}

type param struct {
	offset int
	value  any
	col    *schema.Column
	user   any
}

type fragment struct {
	text   []byte
	params []param
	sub    *pending
}

type pending struct {
	sel   Subselect
	fetch *fetch.Config
	count bool
}

// Buffer is SQL text plus the parameters bound in it.
type Buffer struct {
	namer Namer
	frags []*fragment
}

// New creates an empty buffer that renders names through namer. A nil namer renders
// names unquoted.
func New(namer Namer) *Buffer {
	return &Buffer{namer: namer}
}

// Namer returns the namer the buffer renders with.
func (b *Buffer) Namer() Namer {
	return b.namer
}

func (b *Buffer) tail() *fragment {
	if n := len(b.frags); n > 0 && b.frags[n-1].sub == nil {
		return b.frags[n-1]
	}
	f := &fragment{}
	b.frags = append(b.frags, f)
	return f
}

func (b *Buffer) hasPending() bool {
	for _, f := range b.frags {
		if f.sub != nil {
			return true
		}
	}
	return false
}

// Append appends literal SQL text.
func (b *Buffer) Append(s string) *Buffer {
	if s == "" {
		return b
	}
	f := b.tail()
	f.text = append(f.text, s...)
	return b
}

// AppendBuffer appends the text, parameters and pending subselects of o.
func (b *Buffer) AppendBuffer(o *Buffer) *Buffer {
	if o == nil {
		return b
	}
	if o == b {
		o = o.Clone()
	}
	for _, f := range o.frags {
		if f.sub != nil {
			b.frags = append(b.frags, &fragment{sub: f.sub})
			continue
		}
		t := b.tail()
		base := len(t.text)
		t.text = append(t.text, f.text...)
		for _, p := range f.params {
			p.offset += base
			t.params = append(t.params, p)
		}
	}
	return b
}

// AppendParamsOnly appends the parameters of o without its text. The caller is
// responsible for having written matching placeholders.
func (b *Buffer) AppendParamsOnly(o *Buffer) *Buffer {
	if o == nil {
		return b
	}
	o.resolve()
	t := b.tail()
	for _, f := range o.frags {
		for _, p := range f.params {
			p.offset = len(t.text)
			t.params = append(t.params, p)
		}
	}
	return b
}

// InsertAt splices o into b at text offset at. Inserting anywhere but the end is only
// valid when neither buffer holds pending subselects.
func (b *Buffer) InsertAt(o *Buffer, at int) *Buffer {
	if o == nil {
		return b
	}
	if at >= b.Len() {
		return b.AppendBuffer(o)
	}
	if b.hasPending() || o.hasPending() {
		panic("sqlbuf: insertion before the end of a buffer with pending subselects")
	}
	if at < 0 {
		at = 0
	}

	pos := 0
	for i, f := range b.frags {
		if at > pos+len(f.text) {
			pos += len(f.text)
			continue
		}
		local := at - pos
		left := &fragment{text: append([]byte(nil), f.text[:local]...)}
		right := &fragment{text: append([]byte(nil), f.text[local:]...)}
		for _, p := range f.params {
			if p.offset < local {
				left.params = append(left.params, p)
			} else {
				p.offset -= local
				right.params = append(right.params, p)
			}
		}
		mid := o.Clone()
		frags := make([]*fragment, 0, len(b.frags)+len(mid.frags)+1)
		frags = append(frags, b.frags[:i]...)
		frags = append(frags, left)
		frags = append(frags, mid.frags...)
		frags = append(frags, right)
		frags = append(frags, b.frags[i+1:]...)
		b.frags = frags
		b.compact()
		return b
	}
	return b.AppendBuffer(o)
}

// AppendTable appends the rendered name of t.
func (b *Buffer) AppendTable(t *schema.Table) *Buffer {
	if b.namer == nil {
		return b.Append(t.FullName())
	}
	return b.Append(b.namer.TableName(t))
}

// AppendColumn appends the rendered name of c.
func (b *Buffer) AppendColumn(c *schema.Column) *Buffer {
	if b.namer == nil {
		return b.Append(c.Name)
	}
	return b.Append(b.namer.ColumnName(c))
}

// AppendAliasedColumn appends alias.column.
func (b *Buffer) AppendAliasedColumn(alias string, c *schema.Column) *Buffer {
	return b.Append(alias).Append(".").AppendColumn(c)
}

// AppendSequence appends the rendered name of s.
func (b *Buffer) AppendSequence(s *schema.Sequence) *Buffer {
	if b.namer == nil {
		return b.Append(s.FullName())
	}
	return b.Append(b.namer.SequenceName(s))
}

// AppendName appends an identifier, delimited when the dialect requires it.
func (b *Buffer) AppendName(name string) *Buffer {
	if b.namer == nil {
		return b.Append(name)
	}
	return b.Append(b.namer.QuoteIdentifier(name))
}

// AppendSelect appends sel as a parenthesized subselect rendered at finalization.
func (b *Buffer) AppendSelect(sel Subselect, f *fetch.Config) *Buffer {
	return b.appendPending(sel, f, false)
}

// AppendCount appends the COUNT form of sel as a parenthesized subselect.
func (b *Buffer) AppendCount(sel Subselect, f *fetch.Config) *Buffer {
	return b.appendPending(sel, f, true)
}

func (b *Buffer) appendPending(sel Subselect, f *fetch.Config, count bool) *Buffer {
	b.Append("(")
	b.frags = append(b.frags, &fragment{sub: &pending{sel: sel, fetch: f, count: count}})
	return b.Append(")")
}

// ReplaceSelect swaps a pending subselect for another, keeping its position.
func (b *Buffer) ReplaceSelect(old, sel Subselect) bool {
	for _, f := range b.frags {
		if f.sub != nil && f.sub.sel == old {
			f.sub = &pending{sel: sel, fetch: f.sub.fetch, count: f.sub.count}
			return true
		}
	}
	return false
}

type valueOptions struct {
	col     *schema.Column
	user    any
	literal bool
}

// ValueOption configures AppendValue.
type ValueOption func(*valueOptions)

// ForColumn records the column a parameter is bound against.
func ForColumn(col *schema.Column) ValueOption {
	return func(o *valueOptions) {
		o.col = col
	}
}

// UserParam marks the parameter as supplied by the caller under key.
func UserParam(key any) ValueOption {
	return func(o *valueOptions) {
		o.user = key
	}
}

// Literal inlines the value as a SQL literal when its type allows it.
func Literal() ValueOption {
	return func(o *valueOptions) {
		o.literal = true
	}
}

// AppendValue appends v as a placeholder and parameter. Nil renders NULL and Raw renders
// its text. With Literal, strings, characters, booleans and integers are inlined.
func (b *Buffer) AppendValue(v any, opts ...ValueOption) *Buffer {
	var o valueOptions
	for _, opt := range opts {
		opt(&o)
	}
	if v == nil && o.user == nil {
		return b.Append("NULL")
	}
	if raw, ok := v.(Raw); ok {
		return b.Append(string(raw))
	}
	if o.literal {
		if lit, ok := literal(v); ok {
			return b.Append(lit)
		}
	}
	f := b.tail()
	f.params = append(f.params, param{offset: len(f.text), value: v, col: o.col, user: o.user})
	f.text = append(f.text, '?')
	return b
}

func literal(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return quote(val), true
	case Char:
		return quote(string(rune(val))), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	}
	return "", false
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// resolve renders pending subselects into text, last first.
func (b *Buffer) resolve() {
	if !b.hasPending() {
		return
	}
	for i := len(b.frags) - 1; i >= 0; i-- {
		p := b.frags[i].sub
		if p == nil {
			continue
		}
		var sub *Buffer
		if p.count {
			sub = p.sel.ToSelectCount()
		} else {
			sub = p.sel.ToSelect(false, p.fetch)
		}
		sub.resolve()
		flat := &fragment{}
		for _, f := range sub.frags {
			base := len(flat.text)
			flat.text = append(flat.text, f.text...)
			for _, prm := range f.params {
				prm.offset += base
				flat.params = append(flat.params, prm)
			}
		}
		b.frags[i] = flat
	}
	b.compact()
}

// compact merges adjacent text fragments.
func (b *Buffer) compact() {
	out := b.frags[:0]
	for _, f := range b.frags {
		if n := len(out); n > 0 && f.sub == nil && out[n-1].sub == nil {
			prev := out[n-1]
			base := len(prev.text)
			prev.text = append(prev.text, f.text...)
			for _, p := range f.params {
				p.offset += base
				prev.params = append(prev.params, p)
			}
			continue
		}
		out = append(out, f)
	}
	b.frags = out
}

// Len returns the length of the text written so far, excluding pending subselects.
func (b *Buffer) Len() int {
	n := 0
	for _, f := range b.frags {
		n += len(f.text)
	}
	return n
}

// IsEmpty reports whether nothing has been written.
func (b *Buffer) IsEmpty() bool {
	return b == nil || (b.Len() == 0 && !b.hasPending())
}

// SQL finalizes the buffer and returns its text.
func (b *Buffer) SQL() string {
	b.resolve()
	var sb strings.Builder
	for _, f := range b.frags {
		sb.Write(f.text)
	}
	return sb.String()
}

// SQLWithParams returns the text with parameters inlined, for logging.
func (b *Buffer) SQLWithParams() string {
	b.resolve()
	var sb strings.Builder
	for _, f := range b.frags {
		last := 0
		for _, p := range f.params {
			if p.offset >= len(f.text) || f.text[p.offset] != '?' || p.offset < last {
				continue
			}
			sb.Write(f.text[last:p.offset])
			sb.WriteString(formatParam(p.value))
			last = p.offset + 1
		}
		sb.Write(f.text[last:])
	}
	return sb.String()
}

func formatParam(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(val)
	case Char:
		return quote(string(rune(val)))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	}
	return "?"
}

func (b *Buffer) params() []param {
	b.resolve()
	var out []param
	for _, f := range b.frags {
		out = append(out, f.params...)
	}
	return out
}

// Params finalizes the buffer and returns its parameters in placeholder order.
func (b *Buffer) Params() []any {
	ps := b.params()
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = p.value
	}
	return out
}

// Columns returns the column each parameter was bound against, nil where unknown.
func (b *Buffer) Columns() []*schema.Column {
	ps := b.params()
	out := make([]*schema.Column, len(ps))
	for i, p := range ps {
		out[i] = p.col
	}
	return out
}

// UserParams returns the positions and keys of caller-supplied parameters.
func (b *Buffer) UserParams() map[int]any {
	out := make(map[int]any)
	for i, p := range b.params() {
		if p.user != nil {
			out[i] = p.user
		}
	}
	return out
}

// SetParam replaces the value of the parameter at position i.
func (b *Buffer) SetParam(i int, v any) bool {
	b.resolve()
	for _, f := range b.frags {
		if i < len(f.params) {
			f.params[i].value = v
			return true
		}
		i -= len(f.params)
	}
	return false
}

// Clone returns a copy of b. Pending subselects are shared, text and parameters are not.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{namer: b.namer, frags: make([]*fragment, len(b.frags))}
	for i, f := range b.frags {
		c.frags[i] = &fragment{
			text:   append([]byte(nil), f.text...),
			params: append([]param(nil), f.params...),
			sub:    f.sub,
		}
	}
	return c
}

// Equal reports whether both buffers render the same SQL with the same parameters.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == o {
		return true
	}
	if b == nil || o == nil {
		return false
	}
	return b.SQL() == o.SQL() && reflect.DeepEqual(b.Params(), o.Params())
}

func (b *Buffer) String() string {
	return b.SQL()
}
