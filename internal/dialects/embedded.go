package dialects

import (
	"math"

	"github.com/coregx/ormsql/internal/schema"
)

func derbyConfig() Config {
	c := sql92Config()
	c.Name = "derby"
	c.Products = []string{"apache derby"}
	c.Protocols = []string{"jdbc:derby:"}
	c.Pagination = PaginationOffsetFetch
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.ForUpdateClause = "FOR UPDATE WITH RR"
	c.CrossJoinClause = "JOIN"
	c.RequiresConditionForCrossJoin = true
	c.SubstringFunctionName = "SUBSTR"
	c.IndexOfFunction = "(LOCATE({1}, {0}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.NextSequenceQuery = "VALUES (NEXT VALUE FOR {0})"
	c.GeneratedKeys = KeysQuery
	c.LastGeneratedKeyQuery = "VALUES IDENTITY_VAL_LOCAL()"
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "SMALLINT",
		schema.SQLTinyInt:     "SMALLINT",
		schema.SQLLongVarchar: "LONG VARCHAR",
		schema.SQLBinary:      "CHAR{0} FOR BIT DATA",
		schema.SQLVarbinary:   "VARCHAR{0} FOR BIT DATA",
	}
	return c
}

func h2Config() Config {
	c := sql92Config()
	c.Name = "h2"
	c.Products = []string{"h2 database"}
	c.Protocols = []string{"jdbc:h2:"}
	c.Pagination = PaginationLimitOffset
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.IndexOfFunction = "(LOCATE({1}, {0}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.NextSequenceQuery = "SELECT NEXT VALUE FOR {0}"
	c.GeneratedKeys = KeysQuery
	c.LastGeneratedKeyQuery = "CALL IDENTITY()"
	return c
}

func hsqlConfig() Config {
	c := sql92Config()
	c.Name = "hsql"
	c.Products = []string{"hsql database engine"}
	c.Protocols = []string{"jdbc:hsqldb:"}
	c.Pagination = PaginationLimitOffset
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.SupportsSelectForUpdate = false
	c.SimulateLocking = true
	c.IndexOfFunction = "(LOCATE({1}, {0}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.NextSequenceQuery = "CALL NEXT VALUE FOR {0}"
	c.GeneratedKeys = KeysQuery
	c.LastGeneratedKeyQuery = "CALL IDENTITY()"
	return c
}

// hsqlBindValue works around HSQL rejecting doubles at the int64 limits in BIGINT
// columns: such values are bound as the limit itself.
func hsqlBindValue(_ *Dictionary, v any, _ *schema.Column) (any, bool) {
	f, ok := v.(float64)
	if !ok {
		return nil, false
	}
	switch {
	case f == float64(math.MaxInt64):
		return int64(math.MaxInt64), true
	case f == float64(math.MinInt64):
		return int64(math.MinInt64), true
	}
	return nil, false
}

func empressConfig() Config {
	c := sql92Config()
	c.Name = "empress"
	c.Products = []string{"empress"}
	c.Protocols = []string{"jdbc:empress:"}
	c.SupportsSelectForUpdate = false
	c.SimulateLocking = true
	c.SupportsSubselect = false
	c.SupportsBooleanType = false
	c.RequiresAliasForSubselect = false
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "SMALLINT",
		schema.SQLBoolean:     "SMALLINT",
		schema.SQLBigInt:      "DECIMAL(19)",
		schema.SQLLongVarchar: "TEXT",
		schema.SQLClob:        "TEXT",
		schema.SQLBlob:        "BULK",
		schema.SQLVarbinary:   "BULK",
	}
	return c
}

// empressBindValue clamps infinite floats, which Empress cannot store, to the largest
// finite values.
func empressBindValue(_ *Dictionary, v any, _ *schema.Column) (any, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	default:
		return nil, false
	}
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64, true
	case math.IsInf(f, -1):
		return -math.MaxFloat64, true
	}
	return nil, false
}

func init() {
	Register(New(derbyConfig(), Hooks{}))
	Register(New(h2Config(), Hooks{}))
	Register(New(hsqlConfig(), Hooks{BindValue: hsqlBindValue}), "hsqldb")
	Register(New(empressConfig(), Hooks{BindValue: empressBindValue}))
}
