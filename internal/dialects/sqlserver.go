package dialects

import "github.com/coregx/ormsql/internal/schema"

// sqlserverConfig locks with a table hint and pages with TOP, which cannot skip rows.
func sqlserverConfig() Config {
	c := sql92Config()
	c.Name = "sqlserver"
	c.Products = []string{"microsoft sql server", "sql server"}
	c.Protocols = []string{"jdbc:sqlserver:", "jdbc:jsqlconnect:", "sqlserver://", "mssql://"}
	c.LeadingDelimiter = "["
	c.TrailingDelimiter = "]"
	c.ReservedWords = reservedWords("BACKUP", "BROWSE", "CLUSTERED", "DATABASE", "IDENTITY", "NOCHECK", "PERCENT", "TOP", "TRAN")
	c.Placeholder = PlaceholderAt
	c.Pagination = PaginationTop
	c.RangePosition = RangePostDistinct
	c.SupportsSelectEndIndex = true
	c.ForUpdateClause = ""
	c.TableForUpdateClause = "WITH (UPDLOCK)"
	c.SupportsBooleanType = false
	c.ConcatenateFunction = "({0}+{1})"
	c.IndexOfFunction = "(CHARINDEX({1}, {0}) - 1)"
	c.StringLengthFunction = "LEN({0})"
	c.TrimBothFunction = "LTRIM(RTRIM({0}))"
	c.NextSequenceQuery = "SELECT NEXT VALUE FOR {0}"
	c.GeneratedKeys = KeysQuery
	c.LastGeneratedKeyQuery = "SELECT SCOPE_IDENTITY()"
	c.TypeNames = map[schema.SQLType]string{
		schema.SQLBoolean:     "BIT",
		schema.SQLDouble:      "FLOAT",
		schema.SQLLongVarchar: "VARCHAR(MAX)",
		schema.SQLClob:        "VARCHAR(MAX)",
		schema.SQLBlob:        "VARBINARY(MAX)",
		schema.SQLTimestamp:   "DATETIME2",
	}
	return c
}

func init() {
	Register(New(sqlserverConfig(), Hooks{}), "mssql", "jsqlconnect")
}
