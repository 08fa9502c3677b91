package result

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/dialects"
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/logger"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// Base implements Result on top of a Source. Concrete results embed it and call bind.
type Base struct {
	src  Source
	self Result
	log  logger.Logger

	eager    map[any]any
	gotEager bool

	wasNull    bool
	ignoreNext bool
	last       bool

	locking bool
	mapping meta.Mapping
	index   int
}

func (b *Base) bind(src Source, self Result, log logger.Logger) {
	b.src = src
	b.self = self
	b.log = logger.OrNoop(log)
}

// Next advances to the next row. After PushBack it returns the previous outcome once
// without advancing.
func (b *Base) Next() (bool, error) {
	b.gotEager = false
	if b.ignoreNext {
		b.ignoreNext = false
		return b.last, nil
	}
	ok, err := b.src.NextRow()
	if err != nil {
		b.last = false
		return false, err
	}
	b.last = ok
	return ok, nil
}

// PushBack makes the next Next a no-op. Repeated calls have no additional effect.
func (b *Base) PushBack() { b.ignoreNext = true }

// WasNull reports whether the last value read was SQL NULL.
func (b *Base) WasNull() bool { return b.wasNull }

// Contains reports whether key is available in the result.
func (b *Base) Contains(key any) (bool, error) {
	k, joins := splitKey(key)
	return b.src.Has(k, joins)
}

// ContainsAll reports whether every key is available.
func (b *Base) ContainsAll(keys ...any) (bool, error) {
	for _, key := range keys {
		ok, err := b.Contains(key)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Object returns the value of key for typ and records whether it was NULL.
func (b *Base) Object(key any, typ schema.MetaType, arg any) (any, error) {
	k, joins := splitKey(key)
	if col, ok := k.(*schema.Column); ok && typ == schema.TypeObject {
		typ = col.Type
	}
	v, err := b.src.Value(k, typ, arg, joins)
	if err != nil {
		return nil, err
	}
	b.wasNull = v == nil
	return v, nil
}

// Eager returns the pre-fetched value stored under key.
func (b *Base) Eager(key any) any {
	b.gotEager = true
	if b.eager == nil {
		return nil
	}
	return b.eager[key]
}

// PutEager stores a pre-fetched value. Values implementing io.Closer are closed with the
// result.
func (b *Base) PutEager(key, value any) {
	if b.eager == nil {
		b.eager = make(map[any]any)
	}
	b.eager[key] = value
}

// closeEager closes every eager value except the result itself. Failures are logged and
// swallowed.
func (b *Base) closeEager() {
	for key, v := range b.eager {
		if r, ok := v.(Result); ok && r == b.self {
			continue
		}
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				b.log.Trace("close eager result failed", "key", fmt.Sprint(key), "error", err)
			}
		}
	}
	b.eager = nil
}

// Close closes the eager results.
func (b *Base) Close() error {
	b.closeEager()
	return nil
}

func (b *Base) BaseMapping() meta.Mapping     { return b.mapping }
func (b *Base) SetBaseMapping(m meta.Mapping) { b.mapping = m }
func (b *Base) IndexOf() int                  { return b.index }
func (b *Base) SetIndexOf(idx int)            { b.index = idx }
func (b *Base) IsLocking() bool               { return b.locking }
func (b *Base) SetLocking(locking bool)       { b.locking = locking }

// NewJoins returns the empty join path.
func (b *Base) NewJoins() join.Joins { return join.NoOpJoins }

func (b *Base) Array(key any) (any, error) {
	return b.Object(key, schema.TypeArray, nil)
}

// BigDecimal reads an exact decimal. Any numeric or numeric text is accepted.
func (b *Base) BigDecimal(key any) (*big.Rat, error) {
	v, err := b.Object(key, schema.TypeBigDecimal, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toRat(v)
}

// BigInteger reads an arbitrary-precision integer.
func (b *Base) BigInteger(key any) (*big.Int, error) {
	v, err := b.Object(key, schema.TypeBigInteger, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toBigInt(v)
}

func (b *Base) BinaryStream(key any) (io.Reader, error) {
	v, err := b.Object(key, schema.TypeBinaryStream, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toReader(v)
}

func (b *Base) CharStream(key any) (io.Reader, error) {
	v, err := b.Object(key, schema.TypeCharStream, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toReader(v)
}

func (b *Base) Blob(key any) ([]byte, error) {
	v, err := b.Object(key, schema.TypeBlob, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toBytes(v)
}

func (b *Base) Bytes(key any) ([]byte, error) {
	v, err := b.Object(key, schema.TypeBytes, nil)
	if err != nil || v == nil {
		return nil, err
	}
	return toBytes(v)
}

// Bool reads a boolean. Numbers are true when non-zero and text is parsed.
func (b *Base) Bool(key any) (bool, error) {
	v, err := b.Object(key, schema.TypeBoolean, nil)
	if err != nil || v == nil {
		return false, err
	}
	return toBool(v), nil
}

func (b *Base) Byte(key any) (int8, error) {
	n, err := b.integer(key, schema.TypeByte)
	return int8(n), err
}

func (b *Base) Int16(key any) (int16, error) {
	n, err := b.integer(key, schema.TypeShort)
	return int16(n), err
}

func (b *Base) Int(key any) (int, error) {
	n, err := b.integer(key, schema.TypeInt)
	return int(n), err
}

func (b *Base) Int64(key any) (int64, error) {
	return b.integer(key, schema.TypeLong)
}

func (b *Base) integer(key any, typ schema.MetaType) (int64, error) {
	v, err := b.Object(key, typ, nil)
	if err != nil || v == nil {
		return 0, err
	}
	return toInt64(v)
}

func (b *Base) Float32(key any) (float32, error) {
	v, err := b.Object(key, schema.TypeFloat, nil)
	if err != nil || v == nil {
		return 0, err
	}
	f, err := toFloat64(v)
	return float32(f), err
}

func (b *Base) Float64(key any) (float64, error) {
	v, err := b.Object(key, schema.TypeDouble, nil)
	if err != nil || v == nil {
		return 0, err
	}
	return toFloat64(v)
}

// Number returns any numeric value as read; numeric text becomes a *big.Rat.
func (b *Base) Number(key any) (any, error) {
	v, err := b.Object(key, schema.TypeNumber, nil)
	if err != nil || v == nil {
		return nil, err
	}
	if isNumeric(v) {
		return v, nil
	}
	return toRat(v)
}

// Char reads one character; text yields its first rune and numbers their code point.
func (b *Base) Char(key any) (rune, error) {
	v, err := b.Object(key, schema.TypeChar, nil)
	if err != nil || v == nil {
		return 0, err
	}
	switch c := v.(type) {
	case sqlbuf.Char:
		return rune(c), nil
	case rune:
		return c, nil
	case string:
		for _, r := range c {
			return r, nil
		}
		return 0, nil
	}
	n, err := toInt64(v)
	return rune(n), err
}

// String renders any value as text. Booleans, times and locales are formatted.
func (b *Base) String(key any) (string, error) {
	v, err := b.Object(key, schema.TypeString, nil)
	if err != nil || v == nil {
		return "", err
	}
	return toString(v), nil
}

func (b *Base) Clob(key any) (string, error) {
	v, err := b.Object(key, schema.TypeClob, nil)
	if err != nil || v == nil {
		return "", err
	}
	return toString(v), nil
}

func (b *Base) Date(key any) (time.Time, error) {
	return b.temporal(key, schema.TypeDate, nil)
}

func (b *Base) SQLDate(key any, loc *time.Location) (time.Time, error) {
	return b.temporal(key, schema.TypeSQLDate, loc)
}

func (b *Base) Time(key any, loc *time.Location) (time.Time, error) {
	return b.temporal(key, schema.TypeSQLTime, loc)
}

func (b *Base) Timestamp(key any, loc *time.Location) (time.Time, error) {
	return b.temporal(key, schema.TypeTimestamp, loc)
}

func (b *Base) temporal(key any, typ schema.MetaType, loc *time.Location) (time.Time, error) {
	var arg any
	if loc != nil {
		arg = loc
	}
	v, err := b.Object(key, typ, arg)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	t, err := toTime(v)
	if err != nil {
		return time.Time{}, err
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t, nil
}

// Locale reads a language tag stored as lang_REGION[_variant].
func (b *Base) Locale(key any) (language.Tag, error) {
	v, err := b.Object(key, schema.TypeLocale, nil)
	if err != nil || v == nil {
		return language.Und, err
	}
	switch t := v.(type) {
	case language.Tag:
		return t, nil
	case string:
		return dialects.ParseLocale(t)
	case []byte:
		return dialects.ParseLocale(string(t))
	}
	return language.Und, conversionError(v, "locale")
}

func conversionError(v any, target string) error {
	return errs.WrapError(errs.ErrConversion, fmt.Sprintf("cannot read %T as %s", v, target))
}

func toReader(v any) (io.Reader, error) {
	switch s := v.(type) {
	case io.Reader:
		return s, nil
	case []byte:
		return bytes.NewReader(s), nil
	case string:
		return strings.NewReader(s), nil
	}
	return nil, conversionError(v, "stream")
}

func toBytes(v any) ([]byte, error) {
	switch s := v.(type) {
	case []byte:
		return s, nil
	case string:
		return []byte(s), nil
	case io.Reader:
		return io.ReadAll(s)
	}
	return nil, conversionError(v, "bytes")
}
