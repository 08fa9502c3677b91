package dialects

import "github.com/coregx/ormsql/internal/schema"

// sqliteConfig locks by simulation; SQLite has no row locks and serializes writers.
func sqliteConfig() Config {
	c := sql92Config()
	c.Name = "sqlite"
	c.Products = []string{"sqlite"}
	c.Protocols = []string{"jdbc:sqlite:", "sqlite://", "sqlite3://", "file:"}
	c.ReservedWords = reservedWords("ABORT", "AUTOINCREMENT", "GLOB", "LIMIT", "OFFSET", "PRAGMA", "REPLACE")
	c.Pagination = PaginationSQLite
	c.SupportsSelectStartIndex = true
	c.SupportsSelectEndIndex = true
	c.SupportsSelectForUpdate = false
	c.SimulateLocking = true
	c.SupportsBooleanType = false
	c.SubstringFunctionName = "SUBSTR"
	c.IndexOfFunction = "(INSTR({0}, {1}) - 1)"
	c.StringLengthFunction = "LENGTH({0})"
	c.GeneratedKeys = KeysLastInsertID
	c.InitializationSQL = "PRAGMA foreign_keys = ON"
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBit:         "INTEGER",
		schema.SQLBoolean:     "INTEGER",
		schema.SQLTinyInt:     "INTEGER",
		schema.SQLSmallInt:    "INTEGER",
		schema.SQLBigInt:      "INTEGER",
		schema.SQLLongVarchar: "TEXT",
		schema.SQLClob:        "TEXT",
		schema.SQLVarchar:     "TEXT",
		schema.SQLBinary:      "BLOB",
		schema.SQLVarbinary:   "BLOB",
	}
	return c
}

func init() {
	Register(New(sqliteConfig(), Hooks{}), "sqlite3")
}
