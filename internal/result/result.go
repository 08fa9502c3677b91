// Package result exposes query results through one typed-column cursor API. Base holds the
// cursor bookkeeping and lenient type coercion; RowsResult reads a live *sql.Rows, and
// MergedResult concatenates or merges several results behind one cursor.
//
// Results are not safe for concurrent use.
package result

import (
	"io"
	"math/big"
	"time"

	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/join"
	"github.com/coregx/ormsql/internal/meta"
	"github.com/coregx/ormsql/internal/schema"
)

// Result is a forward-only cursor with one-row push-back.
//
// Column keys are an int (0-based position), a string (column label), a *schema.Column,
// or a Key from At when the column was selected through joins. Getters return the type's
// zero value for SQL NULL and record it for WasNull.
type Result interface {
	Next() (bool, error)
	// PushBack makes the next call to Next repeat the last outcome without advancing.
	PushBack()
	Close() error
	WasNull() bool

	Contains(key any) (bool, error)
	ContainsAll(keys ...any) (bool, error)

	// Object returns the raw value of key converted for typ; arg is a *time.Location for
	// temporal types.
	Object(key any, typ schema.MetaType, arg any) (any, error)
	Array(key any) (any, error)
	BigDecimal(key any) (*big.Rat, error)
	BigInteger(key any) (*big.Int, error)
	BinaryStream(key any) (io.Reader, error)
	Blob(key any) ([]byte, error)
	Bool(key any) (bool, error)
	Byte(key any) (int8, error)
	Bytes(key any) ([]byte, error)
	Char(key any) (rune, error)
	CharStream(key any) (io.Reader, error)
	Clob(key any) (string, error)
	Date(key any) (time.Time, error)
	SQLDate(key any, loc *time.Location) (time.Time, error)
	Time(key any, loc *time.Location) (time.Time, error)
	Timestamp(key any, loc *time.Location) (time.Time, error)
	Float32(key any) (float32, error)
	Float64(key any) (float64, error)
	Int(key any) (int, error)
	Int16(key any) (int16, error)
	Int64(key any) (int64, error)
	Locale(key any) (language.Tag, error)
	Number(key any) (any, error)
	String(key any) (string, error)

	// Eager returns a pre-fetched value attached to the current row.
	Eager(key any) any
	PutEager(key, value any)

	BaseMapping() meta.Mapping
	SetBaseMapping(m meta.Mapping)
	// IndexOf is the position of the select that produced the result within a union.
	IndexOf() int
	SetIndexOf(idx int)
	IsLocking() bool
	SetLocking(locking bool)
	NewJoins() join.Joins
}

// Key addresses a column selected through a join path.
type Key struct {
	Column *schema.Column
	Joins  join.Joins
}

// At returns the key of col as reached through joins.
func At(col *schema.Column, joins join.Joins) Key {
	return Key{Column: col, Joins: joins}
}

func splitKey(key any) (any, join.Joins) {
	if k, ok := key.(Key); ok {
		return k.Column, k.Joins
	}
	return key, nil
}

// Source supplies the rows behind a Base.
type Source interface {
	// NextRow advances the underlying cursor.
	NextRow() (bool, error)
	// Value returns the value of key in the current row, nil for SQL NULL.
	Value(key any, typ schema.MetaType, arg any, joins join.Joins) (any, error)
	// Has reports whether key is available in the result.
	Has(key any, joins join.Joins) (bool, error)
}
