package row

import (
	"io"
	"math/big"
	"time"

	"golang.org/x/text/language"

	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// SetNull stages NULL for col. On INSERT a column with a database default keeps it unless
// overrideDefault is set.
func (r *Impl) SetNull(col *schema.Column, overrideDefault bool) {
	r.SetObject(col, nil, col.Type, overrideDefault)
}

// SetRaw splices sql verbatim as col's value.
func (r *Impl) SetRaw(col *schema.Column, sql string) {
	r.SetObject(col, sqlbuf.Raw(sql), schema.TypeRaw, false)
}

func (r *Impl) SetBool(col *schema.Column, v bool) { r.SetObject(col, v, schema.TypeBoolean, false) }
func (r *Impl) SetByte(col *schema.Column, v int8) { r.SetObject(col, v, schema.TypeByte, false) }
func (r *Impl) SetInt16(col *schema.Column, v int16) {
	r.SetObject(col, v, schema.TypeShort, false)
}
func (r *Impl) SetInt(col *schema.Column, v int) { r.SetObject(col, v, schema.TypeInt, false) }
func (r *Impl) SetInt64(col *schema.Column, v int64) {
	r.SetObject(col, v, schema.TypeLong, false)
}
func (r *Impl) SetFloat32(col *schema.Column, v float32) {
	r.SetObject(col, v, schema.TypeFloat, false)
}
func (r *Impl) SetFloat64(col *schema.Column, v float64) {
	r.SetObject(col, v, schema.TypeDouble, false)
}
func (r *Impl) SetString(col *schema.Column, v string) {
	r.SetObject(col, v, schema.TypeString, false)
}
func (r *Impl) SetChar(col *schema.Column, v rune) {
	r.SetObject(col, sqlbuf.Char(v), schema.TypeChar, false)
}

// SetBytes stages a byte slice; nil stages NULL.
func (r *Impl) SetBytes(col *schema.Column, v []byte) {
	if v == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, v, schema.TypeBytes, false)
}

// SetBigDecimal stages an exact decimal; nil stages NULL.
func (r *Impl) SetBigDecimal(col *schema.Column, v *big.Rat) {
	if v == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, v, schema.TypeBigDecimal, false)
}

// SetBigInteger stages an arbitrary-precision integer; nil stages NULL.
func (r *Impl) SetBigInteger(col *schema.Column, v *big.Int) {
	if v == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, v, schema.TypeBigInteger, false)
}

// SetNumber stages any numeric value.
func (r *Impl) SetNumber(col *schema.Column, v any) { r.SetObject(col, v, schema.TypeNumber, false) }

// SetDate stages a point in time.
func (r *Impl) SetDate(col *schema.Column, v time.Time) {
	r.SetObject(col, v, schema.TypeDate, false)
}

// SetTimestamp stages a timestamp.
func (r *Impl) SetTimestamp(col *schema.Column, v time.Time) {
	r.SetObject(col, v, schema.TypeTimestamp, false)
}

// SetSQLDate stages a calendar date, converted to loc at bind time when loc is set.
func (r *Impl) SetSQLDate(col *schema.Column, v time.Time, loc *time.Location) {
	r.SetObject(col, zoned(v, loc), schema.TypeSQLDate, false)
}

// SetSQLTime stages a time of day, converted to loc at bind time when loc is set.
func (r *Impl) SetSQLTime(col *schema.Column, v time.Time, loc *time.Location) {
	r.SetObject(col, zoned(v, loc), schema.TypeSQLTime, false)
}

func zoned(v time.Time, loc *time.Location) any {
	if loc == nil {
		return v
	}
	return sqlbuf.Zoned{Time: v, Loc: loc}
}

// SetLocale stages a language tag, stored as lang_REGION_variant.
func (r *Impl) SetLocale(col *schema.Column, v language.Tag) {
	r.SetObject(col, v, schema.TypeLocale, false)
}

// SetBinaryStream stages a byte stream read at bind time. A positive length caps the read.
func (r *Impl) SetBinaryStream(col *schema.Column, rd io.Reader, length int) {
	if rd == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, sqlbuf.Stream{R: rd, Length: length}, schema.TypeBinaryStream, false)
}

// SetCharStream stages a character stream read at bind time. A positive length caps the read.
func (r *Impl) SetCharStream(col *schema.Column, rd io.Reader, length int) {
	if rd == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, sqlbuf.Stream{R: rd, Length: length, Chars: true}, schema.TypeCharStream, false)
}

// SetBlob stages binary large object content; nil stages NULL.
func (r *Impl) SetBlob(col *schema.Column, v []byte) {
	if v == nil {
		r.SetNull(col, false)
		return
	}
	r.SetObject(col, v, schema.TypeBlob, false)
}

func (r *Impl) SetClob(col *schema.Column, v string) { r.SetObject(col, v, schema.TypeClob, false) }

// SetArray stages a driver-supported array value.
func (r *Impl) SetArray(col *schema.Column, v any) { r.SetObject(col, v, schema.TypeArray, false) }

// WhereNull stages col IS NULL.
func (r *Impl) WhereNull(col *schema.Column) { r.WhereObject(col, nil, col.Type) }

// WhereRaw stages col = sql with sql spliced verbatim.
func (r *Impl) WhereRaw(col *schema.Column, sql string) {
	r.WhereObject(col, sqlbuf.Raw(sql), schema.TypeRaw)
}

func (r *Impl) WhereBool(col *schema.Column, v bool) { r.WhereObject(col, v, schema.TypeBoolean) }
func (r *Impl) WhereInt(col *schema.Column, v int)   { r.WhereObject(col, v, schema.TypeInt) }
func (r *Impl) WhereInt64(col *schema.Column, v int64) {
	r.WhereObject(col, v, schema.TypeLong)
}
func (r *Impl) WhereFloat64(col *schema.Column, v float64) {
	r.WhereObject(col, v, schema.TypeDouble)
}
func (r *Impl) WhereString(col *schema.Column, v string) {
	r.WhereObject(col, v, schema.TypeString)
}
func (r *Impl) WhereChar(col *schema.Column, v rune) {
	r.WhereObject(col, sqlbuf.Char(v), schema.TypeChar)
}
func (r *Impl) WhereBytes(col *schema.Column, v []byte) {
	if v == nil {
		r.WhereNull(col)
		return
	}
	r.WhereObject(col, v, schema.TypeBytes)
}
func (r *Impl) WhereBigDecimal(col *schema.Column, v *big.Rat) {
	if v == nil {
		r.WhereNull(col)
		return
	}
	r.WhereObject(col, v, schema.TypeBigDecimal)
}
func (r *Impl) WhereTimestamp(col *schema.Column, v time.Time) {
	r.WhereObject(col, v, schema.TypeTimestamp)
}
func (r *Impl) WhereLocale(col *schema.Column, v language.Tag) {
	r.WhereObject(col, v, schema.TypeLocale)
}
