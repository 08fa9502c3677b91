package dialects

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

var defaultTypeNames = map[schema.SQLType]string{
	schema.SQLOther:       "OTHER",
	schema.SQLBit:         "BIT",
	schema.SQLBoolean:     "BOOLEAN",
	schema.SQLTinyInt:     "TINYINT",
	schema.SQLSmallInt:    "SMALLINT",
	schema.SQLInteger:     "INTEGER",
	schema.SQLBigInt:      "BIGINT",
	schema.SQLReal:        "REAL",
	schema.SQLFloat:       "FLOAT",
	schema.SQLDouble:      "DOUBLE",
	schema.SQLNumeric:     "NUMERIC{0}",
	schema.SQLDecimal:     "DECIMAL{0}",
	schema.SQLChar:        "CHAR{0}",
	schema.SQLVarchar:     "VARCHAR{0}",
	schema.SQLLongVarchar: "LONGVARCHAR",
	schema.SQLClob:        "CLOB",
	schema.SQLBinary:      "BINARY{0}",
	schema.SQLVarbinary:   "VARBINARY{0}",
	schema.SQLBlob:        "BLOB",
	schema.SQLDate:        "DATE",
	schema.SQLTime:        "TIME",
	schema.SQLTimestamp:   "TIMESTAMP",
	schema.SQLArray:       "ARRAY",
	schema.SQLXML:         "XML",
}

// TypeName returns the product's type name for col. A "{0}" in the name receives the
// parenthesized size of sized types and is dropped otherwise.
func (d *Dictionary) TypeName(col *schema.Column) string {
	name, ok := d.cfg.TypeNames[col.SQLType]
	if !ok {
		name = defaultTypeNames[col.SQLType]
	}
	size := ""
	if col.SQLType.IsSized() && col.Size > 0 {
		size = "(" + strconv.Itoa(col.Size) + ")"
	}
	return strings.ReplaceAll(name, "{0}", size)
}

// Cast renders val converted to the type of col.
func (d *Dictionary) Cast(val *sqlbuf.Buffer, col *schema.Column) *sqlbuf.Buffer {
	if d.cfg.CastFunction == "" {
		return d.NewBuffer().AppendBuffer(val)
	}
	return d.applyPattern(d.cfg.CastFunction, val, d.NewBuffer().Append(d.TypeName(col)))
}

// Concat renders the concatenation of two string expressions.
func (d *Dictionary) Concat(a, b *sqlbuf.Buffer) *sqlbuf.Buffer {
	return d.applyPattern(d.cfg.ConcatenateFunction, a, b)
}

// Substring renders the substring of str from the 0-based start, limited to length when
// length is not nil.
func (d *Dictionary) Substring(str, start, length *sqlbuf.Buffer) *sqlbuf.Buffer {
	buf := d.NewBuffer().Append(d.cfg.SubstringFunctionName).Append("(").AppendBuffer(str).
		Append(", (").AppendBuffer(start).Append(" + 1)")
	if length != nil {
		buf.Append(", ").AppendBuffer(length)
	}
	return buf.Append(")")
}

// IndexOf renders the 0-based position of find in str, -1 when absent. A non-nil start
// begins the search at that 0-based position.
func (d *Dictionary) IndexOf(str, find, start *sqlbuf.Buffer) *sqlbuf.Buffer {
	if start == nil {
		return d.applyPattern(d.cfg.IndexOfFunction, str, find)
	}
	inner := d.applyPattern(d.cfg.IndexOfFunction, d.Substring(str, start, nil), find)
	// keep -1 for a miss instead of shifting it by start
	return d.NewBuffer().Append("(CASE WHEN ").AppendBuffer(inner).Append(" < 0 THEN -1 ELSE ").
		AppendBuffer(inner).Append(" + ").AppendBuffer(start).Append(" END)")
}

// Lower renders str in lower case.
func (d *Dictionary) Lower(str *sqlbuf.Buffer) *sqlbuf.Buffer {
	return d.applyPattern(d.cfg.ToLowerCaseFunction, str)
}

// Upper renders str in upper case.
func (d *Dictionary) Upper(str *sqlbuf.Buffer) *sqlbuf.Buffer {
	return d.applyPattern(d.cfg.ToUpperCaseFunction, str)
}

// Trim renders str without leading and trailing blanks.
func (d *Dictionary) Trim(str *sqlbuf.Buffer) *sqlbuf.Buffer {
	return d.applyPattern(d.cfg.TrimBothFunction, str)
}

// Length renders the character length of str.
func (d *Dictionary) Length(str *sqlbuf.Buffer) *sqlbuf.Buffer {
	return d.applyPattern(d.cfg.StringLengthFunction, str)
}

// NextSequenceSQL returns the statement selecting the next value of seq.
func (d *Dictionary) NextSequenceSQL(seq *schema.Sequence) (string, error) {
	if d.cfg.NextSequenceQuery == "" {
		return "", errs.WrapError(errs.ErrInvalidUsage, d.cfg.Name+" does not support sequences")
	}
	return strings.ReplaceAll(d.cfg.NextSequenceQuery, "{0}", d.SequenceName(seq)), nil
}

// MarkerForInsertUpdate returns the parameter marker used for col in INSERT and UPDATE.
func (d *Dictionary) MarkerForInsertUpdate(col *schema.Column) string {
	if col != nil && col.SQLType == schema.SQLXML && d.cfg.XMLMarker != "" {
		return d.cfg.XMLMarker
	}
	return "?"
}

// applyPattern renders a pattern whose {0}, {1}, ... tokens receive the arguments.
func (d *Dictionary) applyPattern(pattern string, args ...*sqlbuf.Buffer) *sqlbuf.Buffer {
	buf := d.NewBuffer()
	for pattern != "" {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			buf.Append(pattern)
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			buf.Append(pattern)
			break
		}
		end += open
		n, err := strconv.Atoi(pattern[open+1 : end])
		if err != nil || n < 0 || n >= len(args) {
			panic(fmt.Sprintf("dialects: bad function pattern %q", pattern))
		}
		buf.Append(pattern[:open]).AppendBuffer(args[n])
		pattern = pattern[end+1:]
	}
	return buf
}
