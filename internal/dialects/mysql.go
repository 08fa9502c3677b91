package dialects

import (
	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/schema"
)

func mysqlConfig() Config {
	c := sql92Config()
	c.Name = "mysql"
	c.Products = []string{"mysql"}
	c.Protocols = []string{"jdbc:mysql:", "mysql://"}
	c.LeadingDelimiter = "`"
	c.TrailingDelimiter = "`"
	c.ReservedWords = reservedWords("ACCESSIBLE", "DATABASE", "DIV", "INDEX", "KEYS", "LIMIT", "LOCK", "RANGE", "READ", "REGEXP", "RLIKE", "SHOW")
	c.Pagination = PaginationMySQL
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.SupportsHints = true
	c.SupportsBooleanType = false
	c.ConcatenateFunction = "CONCAT({0},{1})"
	c.IndexOfFunction = "(LOCATE({1}, {0}) - 1)"
	c.GeneratedKeys = KeysLastInsertID
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBoolean:     "BIT",
		schema.SQLDouble:      "DOUBLE",
		schema.SQLLongVarchar: "TEXT",
		schema.SQLClob:        "LONGTEXT",
		schema.SQLBlob:        "LONGBLOB",
		schema.SQLTimestamp:   "DATETIME(6)",
	}
	return c
}

func mariadbConfig() Config {
	c := mysqlConfig()
	c.Name = "mariadb"
	c.Products = []string{"mariadb"}
	c.Protocols = []string{"jdbc:mariadb:", "mariadb://"}
	c.ErrorCodeSet = "mysql"
	return c
}

// mysqlIsFatal treats lock wait timeouts and statement timeouts as recoverable.
func mysqlIsFatal(kind errs.Kind, det errs.Details) bool {
	switch {
	case kind == errs.Lock && det.VendorCode == 1205:
		return false
	case kind == errs.Query && det.VendorCode == 3024:
		return false
	}
	return true
}

func init() {
	Register(New(mysqlConfig(), Hooks{IsFatal: mysqlIsFatal}))
	Register(New(mariadbConfig(), Hooks{IsFatal: mysqlIsFatal}))
}
