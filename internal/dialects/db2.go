package dialects

import (
	"strings"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/schema"
)

func db2Config() Config {
	c := sql92Config()
	c.Name = "db2"
	c.Products = []string{"db2", "as/400"}
	c.Protocols = []string{"jdbc:db2:", "jdbc:as400:", "db2://"}
	c.ReservedWords = reservedWords("AFTER", "ALIAS", "ALLOW", "FENCED", "LOCKSIZE", "NODENAME", "OPTIMIZE", "PACKAGE")
	c.Pagination = PaginationFetchFirst
	c.SupportsSelectEndIndex = true
	c.ForUpdateClause = "FOR UPDATE WITH RR"
	c.CrossJoinClause = "JOIN"
	c.RequiresConditionForCrossJoin = true
	c.SupportsBooleanType = false
	c.SubstringFunctionName = "SUBSTR"
	c.IndexOfFunction = "(LOCATE({1}, {0}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.NextSequenceQuery = "VALUES NEXTVAL FOR {0}"
	c.GeneratedKeys = KeysQuery
	c.LastGeneratedKeyQuery = "VALUES IDENTITY_VAL_LOCAL()"
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "SMALLINT",
		schema.SQLBoolean:     "SMALLINT",
		schema.SQLTinyInt:     "SMALLINT",
		schema.SQLLongVarchar: "LONG VARCHAR",
		schema.SQLBinary:      "CHAR{0} FOR BIT DATA",
		schema.SQLVarbinary:   "VARCHAR{0} FOR BIT DATA",
	}
	return c
}

// db2IsFatal treats interrupted statements, lock timeouts with reason code 80 or resource
// 00C9008E, and cancelled or timed out queries as recoverable.
func db2IsFatal(kind errs.Kind, det errs.Details) bool {
	if det.VendorCode == -952 && det.SQLState == "57014" {
		return false
	}
	switch kind {
	case errs.Lock:
		if det.SQLState == "57033" &&
			(strings.Contains(det.Message, "80") ||
				(det.VendorCode == -913 && strings.Contains(det.Message, "00C9008E"))) {
			return false
		}
	case errs.Query:
		if det.SQLState == "57014" && (det.VendorCode == -952 || det.VendorCode == -905) {
			return false
		}
	}
	return true
}

func init() {
	Register(New(db2Config(), Hooks{IsFatal: db2IsFatal}), "as400")
}
