// Package schema describes the tables, columns, keys and sequences that rows and selects
// are rendered against. Schema objects are plain metadata; they are built once by the
// mapping layer and shared read-only afterwards.
package schema

// MetaType identifies the host-side type a column value is staged or read as.
type MetaType int

// Host-side value types.
const (
	TypeObject MetaType = iota
	TypeBoolean
	TypeByte
	TypeChar
	TypeDouble
	TypeFloat
	TypeInt
	TypeLong
	TypeShort
	TypeString
	TypeNumber
	TypeBigDecimal
	TypeBigInteger
	TypeDate
	TypeLocale
	TypeBytes
	TypeBinaryStream
	TypeCharStream
	TypeBlob
	TypeClob
	TypeSQLDate
	TypeSQLTime
	TypeTimestamp
	TypeArray
	TypeRaw
)

var metaTypeNames = [...]string{
	TypeObject:       "object",
	TypeBoolean:      "boolean",
	TypeByte:         "byte",
	TypeChar:         "char",
	TypeDouble:       "double",
	TypeFloat:        "float",
	TypeInt:          "int",
	TypeLong:         "long",
	TypeShort:        "short",
	TypeString:       "string",
	TypeNumber:       "number",
	TypeBigDecimal:   "bigdecimal",
	TypeBigInteger:   "biginteger",
	TypeDate:         "date",
	TypeLocale:       "locale",
	TypeBytes:        "bytes",
	TypeBinaryStream: "binary-stream",
	TypeCharStream:   "char-stream",
	TypeBlob:         "blob",
	TypeClob:         "clob",
	TypeSQLDate:      "sql-date",
	TypeSQLTime:      "sql-time",
	TypeTimestamp:    "timestamp",
	TypeArray:        "array",
	TypeRaw:          "raw",
}

func (t MetaType) String() string {
	if t >= 0 && int(t) < len(metaTypeNames) {
		return metaTypeNames[t]
	}
	return "unknown"
}

// IsNumeric reports whether t is one of the numeric host types.
func (t MetaType) IsNumeric() bool {
	switch t {
	case TypeByte, TypeDouble, TypeFloat, TypeInt, TypeLong, TypeShort,
		TypeNumber, TypeBigDecimal, TypeBigInteger:
		return true
	}
	return false
}

// SQLType is the database-side type of a column, used to look up type names.
type SQLType int

// Database-side column types.
const (
	SQLOther SQLType = iota
	SQLBit
	SQLBoolean
	SQLTinyInt
	SQLSmallInt
	SQLInteger
	SQLBigInt
	SQLReal
	SQLFloat
	SQLDouble
	SQLNumeric
	SQLDecimal
	SQLChar
	SQLVarchar
	SQLLongVarchar
	SQLClob
	SQLBinary
	SQLVarbinary
	SQLBlob
	SQLDate
	SQLTime
	SQLTimestamp
	SQLArray
	SQLXML
)

// IsSized reports whether the type takes a length or precision argument.
func (t SQLType) IsSized() bool {
	switch t {
	case SQLChar, SQLVarchar, SQLBinary, SQLVarbinary, SQLNumeric, SQLDecimal:
		return true
	}
	return false
}
