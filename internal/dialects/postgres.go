package dialects

import (
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/schema"
)

func postgresConfig() Config {
	c := sql92Config()
	c.Name = "postgres"
	c.Products = []string{"postgres", "postgresql"}
	c.Protocols = []string{"jdbc:postgresql:", "postgres://", "postgresql://"}
	c.ReservedWords = reservedWords("ANALYSE", "ANALYZE", "ARRAY", "LIMIT", "OFFSET", "RETURNING", "SYMMETRIC")
	c.Placeholder = PlaceholderDollar
	c.Pagination = PaginationLimitOffset
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.SubstringFunctionName = "SUBSTR"
	c.XMLMarker = "XMLPARSE(DOCUMENT ?)"
	c.NextSequenceQuery = "SELECT NEXTVAL('{0}')"
	c.GeneratedKeys = KeysReturning
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "BOOL",
		schema.SQLTinyInt:     "SMALLINT",
		schema.SQLDouble:      "DOUBLE PRECISION",
		schema.SQLFloat:       "DOUBLE PRECISION",
		schema.SQLLongVarchar: "TEXT",
		schema.SQLClob:        "TEXT",
		schema.SQLBinary:      "BYTEA",
		schema.SQLVarbinary:   "BYTEA",
		schema.SQLBlob:        "BYTEA",
	}
	return c
}

// postgresIsFatal treats lock-not-available and statement-timeout as recoverable.
func postgresIsFatal(kind errs.Kind, det errs.Details) bool {
	switch {
	case kind == errs.Lock && det.SQLState == "55P03":
		return false
	case kind == errs.Query && det.SQLState == "57014":
		return false
	}
	return true
}

func init() {
	Register(New(postgresConfig(), Hooks{IsFatal: postgresIsFatal}), "postgresql", "pgx", "pq")
}
