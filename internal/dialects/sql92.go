package dialects

import "github.com/coregx/ormsql/internal/schema"

// sql92ReservedWords are delimited by every product.
var sql92ReservedWords = []string{
	"ABSOLUTE", "ACTION", "ADD", "ALL", "ALLOCATE", "ALTER", "AND", "ANY", "ARE", "AS", "ASC",
	"ASSERTION", "AT", "AUTHORIZATION", "AVG", "BEGIN", "BETWEEN", "BIT", "BOTH", "BY", "CASCADE",
	"CASE", "CAST", "CHAR", "CHARACTER", "CHECK", "CLOSE", "COLUMN", "COMMIT", "CONNECT",
	"CONSTRAINT", "CONTINUE", "CONVERT", "COUNT", "CREATE", "CROSS", "CURRENT", "CURSOR", "DATE",
	"DAY", "DEALLOCATE", "DECIMAL", "DECLARE", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DOUBLE",
	"DROP", "ELSE", "END", "ESCAPE", "EXCEPT", "EXEC", "EXISTS", "FALSE", "FETCH", "FIRST",
	"FLOAT", "FOR", "FOREIGN", "FROM", "FULL", "GRANT", "GROUP", "HAVING", "HOUR", "IN", "INNER",
	"INSERT", "INTEGER", "INTERSECT", "INTERVAL", "INTO", "IS", "JOIN", "KEY", "LEFT", "LIKE",
	"MAX", "MIN", "MINUTE", "MONTH", "NATURAL", "NOT", "NULL", "NUMERIC", "OF", "ON", "OR",
	"ORDER", "OUTER", "POSITION", "PRIMARY", "REFERENCES", "RIGHT", "ROWS", "SECOND", "SELECT",
	"SET", "SIZE", "SOME", "SUM", "TABLE", "THEN", "TIME", "TIMESTAMP", "TO", "TRUE", "UNION",
	"UNIQUE", "UPDATE", "USER", "VALUE", "VALUES", "VARCHAR", "VIEW", "WHEN", "WHERE", "WITH",
	"YEAR",
}

func reservedWords(extra ...string) []string {
	words := make([]string, 0, len(sql92ReservedWords)+len(extra))
	words = append(words, sql92ReservedWords...)
	return append(words, extra...)
}

// sql92Config describes a database that supports standard SQL and nothing more. Ranges are
// applied while reading results.
func sql92Config() Config {
	return Config{
		Name:              "sql92",
		LeadingDelimiter:  `"`,
		TrailingDelimiter: `"`,
		ReservedWords:     reservedWords(),
		Pagination:        PaginationNone,

		SupportsSelectForUpdate:   true,
		SupportsUnion:             true,
		SupportsSubselect:         true,
		SupportsHaving:            true,
		SupportsQueryTimeout:      true,
		SupportsBooleanType:       true,
		RequiresAliasForSubselect: true,

		TypeNames: map[schema.SQLType]string{},
	}
}

func init() {
	Register(New(sql92Config(), Hooks{}), "generic", "ansi")
}
