package dialects

import (
	"database/sql/driver"
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"modernc.org/sqlite"

	"github.com/coregx/ormsql/internal/errs"
	"github.com/coregx/ormsql/internal/fetch"
	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dict, name, want string
	}{
		{"postgres", "NAME", "NAME"},
		{"postgres", "order", `"order"`},
		{"postgres", "my col", `"my col"`},
		{"postgres", `a"b`, `"a""b"`},
		{"postgres", `"Quoted"`, `"Quoted"`},
		{"postgres", "1abc", `"1abc"`},
		{"mysql", "order", "`order`"},
		{"mysql", "limit", "`limit`"},
		{"sqlserver", "select", "[select]"},
		{"sqlserver", "a]b", "[a]]b]"},
		{"sqlserver", "TOP", "[TOP]"},
		{"postgres", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dict+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustGet(tt.dict).QuoteIdentifier(tt.name))
		})
	}
}

func TestDelimitAll(t *testing.T) {
	d, err := MustGet("postgres").WithOverrides(map[string]any{"delimitIdentifiers": true})
	require.NoError(t, err)

	assert.Equal(t, `"NAME"`, d.QuoteIdentifier("NAME"))
	assert.Equal(t, "NAME", MustGet("postgres").QuoteIdentifier("NAME"), "override must not leak")
}

func TestNames(t *testing.T) {
	d := MustGet("postgres")
	tbl := schema.NewTable("user", schema.NewColumn("group", schema.TypeString))
	tbl.Schema = "app"

	assert.Equal(t, `app."user"`, d.TableName(tbl))
	assert.Equal(t, `"group"`, d.ColumnName(tbl.Column("group")))
	assert.Equal(t, "app.SEQ_A", d.SequenceName(&schema.Sequence{Name: "SEQ_A", Schema: "app"}))
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE a = ? AND b = '?' AND "c?" = ? AND d = ?`

	assert.Equal(t, `SELECT a FROM t WHERE a = $1 AND b = '?' AND "c?" = $2 AND d = $3`, MustGet("postgres").Rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE a = @p1 AND b = '?' AND "c?" = @p2 AND d = @p3`, MustGet("sqlserver").Rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE a = :1 AND b = '?' AND "c?" = :2 AND d = :3`, MustGet("oracle").Rebind(q))
	assert.Equal(t, q, MustGet("mysql").Rebind(q))
}

func TestTypeName(t *testing.T) {
	varchar := schema.NewColumn("NAME", schema.TypeString, schema.WithSQLType(schema.SQLVarchar, 40))
	blob := schema.NewColumn("DATA", schema.TypeBytes, schema.WithSQLType(schema.SQLBlob, 0))
	numeric := schema.NewColumn("AMOUNT", schema.TypeBigDecimal, schema.WithSQLType(schema.SQLNumeric, 0))
	bin := schema.NewColumn("HASH", schema.TypeBytes, schema.WithSQLType(schema.SQLVarbinary, 16))

	assert.Equal(t, "VARCHAR(40)", MustGet("postgres").TypeName(varchar))
	assert.Equal(t, "VARCHAR2(40)", MustGet("oracle").TypeName(varchar))
	assert.Equal(t, "BYTEA", MustGet("postgres").TypeName(blob))
	assert.Equal(t, "NUMERIC", MustGet("postgres").TypeName(numeric))
	assert.Equal(t, "VARCHAR(16) FOR BIT DATA", MustGet("db2").TypeName(bin))
}

func TestFunctions(t *testing.T) {
	col := func(d *Dictionary) *sqlbuf.Buffer { return d.NewBuffer().Append("t0.NAME") }

	pg := MustGet("postgres")
	intCol := schema.NewColumn("N", schema.TypeInt, schema.WithSQLType(schema.SQLInteger, 0))
	cast := pg.Cast(pg.NewBuffer().AppendValue("7"), intCol)
	assert.Equal(t, "CAST(? AS INTEGER)", cast.SQL())
	assert.Equal(t, []any{"7"}, cast.Params())

	assert.Equal(t, "(POSITION(? IN t0.NAME) - 1)", pg.IndexOf(col(pg), pg.NewBuffer().AppendValue("x"), nil).SQL())
	assert.Equal(t, "SUBSTR(t0.NAME, (2 + 1), 3)",
		pg.Substring(col(pg), pg.NewBuffer().Append("2"), pg.NewBuffer().Append("3")).SQL())
	assert.Equal(t, "(t0.NAME||t0.NAME)", pg.Concat(col(pg), col(pg)).SQL())
	assert.Equal(t, "LOWER(t0.NAME)", pg.Lower(col(pg)).SQL())
	assert.Equal(t, "UPPER(t0.NAME)", pg.Upper(col(pg)).SQL())

	my := MustGet("mysql")
	assert.Equal(t, "CONCAT(t0.NAME,t0.NAME)", my.Concat(col(my), col(my)).SQL())
	assert.Equal(t, "(LOCATE(?, t0.NAME) - 1)", my.IndexOf(col(my), my.NewBuffer().AppendValue("x"), nil).SQL())

	ms := MustGet("sqlserver")
	assert.Equal(t, "LTRIM(RTRIM(t0.NAME))", ms.Trim(col(ms)).SQL())
	assert.Equal(t, "LEN(t0.NAME)", ms.Length(col(ms)).SQL())

	lite := MustGet("sqlite")
	assert.Equal(t, "LENGTH(t0.NAME)", lite.Length(col(lite)).SQL())
}

func TestIndexOfWithStart(t *testing.T) {
	d := MustGet("postgres")
	buf := d.IndexOf(d.NewBuffer().Append("t0.NAME"), d.NewBuffer().AppendValue("x"), d.NewBuffer().AppendValue(2))

	assert.Equal(t, strings.Count(buf.SQL(), "?"), len(buf.Params()))
	assert.Contains(t, buf.SQL(), "SUBSTR(t0.NAME, (? + 1))")
	assert.True(t, strings.HasSuffix(buf.SQL(), " + ? END)"))
}

func TestNextSequenceSQL(t *testing.T) {
	seq := &schema.Sequence{Name: "SEQ_A"}

	got, err := MustGet("postgres").NextSequenceSQL(seq)
	require.NoError(t, err)
	assert.Equal(t, "SELECT NEXTVAL('SEQ_A')", got)

	got, err = MustGet("oracle").NextSequenceSQL(seq)
	require.NoError(t, err)
	assert.Equal(t, "SELECT SEQ_A.NEXTVAL FROM DUAL", got)

	_, err = MustGet("mysql").NextSequenceSQL(seq)
	assert.ErrorIs(t, err, errs.ErrInvalidUsage)
}

func TestMarkerForInsertUpdate(t *testing.T) {
	xml := schema.NewColumn("DOC", schema.TypeString, schema.WithSQLType(schema.SQLXML, 0))
	plain := schema.NewColumn("NAME", schema.TypeString)

	assert.Equal(t, "XMLPARSE(DOCUMENT ?)", MustGet("postgres").MarkerForInsertUpdate(xml))
	assert.Equal(t, "?", MustGet("postgres").MarkerForInsertUpdate(plain))
	assert.Equal(t, "?", MustGet("mysql").MarkerForInsertUpdate(xml))
}

func TestBindValue(t *testing.T) {
	pg := MustGet("postgres")
	my := MustGet("mysql")
	chars, err := pg.WithOverrides(map[string]any{"storeCharsAsNumbers": true})
	require.NoError(t, err)

	tests := []struct {
		name string
		d    *Dictionary
		in   any
		want any
	}{
		{"nil", pg, nil, nil},
		{"bool native", pg, true, true},
		{"bool as number", my, true, int64(1)},
		{"false as number", my, false, int64(0)},
		{"char", pg, sqlbuf.Char('A'), "A"},
		{"char as number", chars, sqlbuf.Char('A'), int64(65)},
		{"rat exact", pg, big.NewRat(3, 2), "1.5"},
		{"rat integer", pg, big.NewRat(10, 1), "10"},
		{"rat eighths", pg, big.NewRat(1, 8), "0.125"},
		{"big int", pg, big.NewInt(12345678901234), "12345678901234"},
		{"locale", pg, language.MustParse("en-US"), "en_US_"},
		{"int widened", pg, int16(3), int64(3)},
		{"float32 widened", pg, float32(0.5), float64(0.5)},
		{"char stream", pg, sqlbuf.Stream{R: strings.NewReader("hello world"), Length: 5, Chars: true}, "hello"},
		{"binary stream", pg, sqlbuf.Stream{R: strings.NewReader("abc")}, []byte("abc")},
		{"hsql max", MustGet("hsql"), float64(math.MaxInt64), int64(math.MaxInt64)},
		{"hsql min", MustGet("hsql"), float64(math.MinInt64), int64(math.MinInt64)},
		{"hsql plain", MustGet("hsql"), 1.5, 1.5},
		{"empress +inf", MustGet("empress"), math.Inf(1), math.MaxFloat64},
		{"empress -inf", MustGet("empress"), math.Inf(-1), -math.MaxFloat64},
		{"empress finite", MustGet("empress"), 2.5, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.BindValue(tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("zoned", func(t *testing.T) {
		loc := time.FixedZone("X", 3600)
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		got, err := pg.BindValue(sqlbuf.Zoned{Time: ts, Loc: loc}, nil)
		require.NoError(t, err)
		assert.Equal(t, loc, got.(time.Time).Location())
	})

	t.Run("raw rejected", func(t *testing.T) {
		_, err := pg.BindValue(sqlbuf.Raw("NOW()"), nil)
		assert.Error(t, err)
	})

	t.Run("repeating rat", func(t *testing.T) {
		got, err := pg.BindValue(big.NewRat(1, 3), nil)
		require.NoError(t, err)
		assert.Equal(t, "0."+strings.Repeat("3", 30), got)
	})
}

func TestConvertResult(t *testing.T) {
	pg := MustGet("postgres")
	chars, err := pg.WithOverrides(map[string]any{"storeCharsAsNumbers": true})
	require.NoError(t, err)

	tests := []struct {
		name string
		d    *Dictionary
		in   any
		typ  schema.MetaType
		want any
	}{
		{"bytes as string", pg, []byte("abc"), schema.TypeString, "abc"},
		{"bytes kept", pg, []byte("abc"), schema.TypeBytes, []byte("abc")},
		{"int as bool", pg, int64(1), schema.TypeBoolean, true},
		{"int as char", pg, int64(66), schema.TypeChar, sqlbuf.Char('B')},
		{"string as char", pg, "Zed", schema.TypeChar, sqlbuf.Char('Z')},
		{"numeric string as char", chars, "65", schema.TypeChar, sqlbuf.Char('A')},
		{"date string", pg, "2024-01-02", schema.TypeDate, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"locale", pg, "en_US_", schema.TypeLocale, language.MustParse("en-US")},
		{"passthrough", pg, int64(5), schema.TypeLong, int64(5)},
		{"nil", pg, nil, schema.TypeString, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.ConvertResult(tt.in, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = pg.ConvertResult("not a date", schema.TypeTimestamp)
	assert.Error(t, err)
}

func TestParseLocale(t *testing.T) {
	tag, err := ParseLocale("fr_CA")
	require.NoError(t, err)
	assert.Equal(t, language.MustParse("fr-CA"), tag)

	_, err = ParseLocale("fr")
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	d := MustGet("postgres")
	off, err := d.WithOverrides(map[string]any{"supportsQueryTimeout": false})
	require.NoError(t, err)

	cfg := func(query, lock time.Duration) *fetch.Config {
		c := fetch.Default()
		c.QueryTimeout, c.LockTimeout = query, lock
		return c
	}

	tests := []struct {
		name      string
		d         *Dictionary
		cfg       *fetch.Config
		forUpdate bool
		want      time.Duration
	}{
		{"none", d, cfg(fetch.NoTimeout, fetch.NoTimeout), false, 0},
		{"nil config", d, nil, false, 0},
		{"sub-second rounds up", d, cfg(500*time.Millisecond, fetch.NoTimeout), false, time.Second},
		{"truncated", d, cfg(2700*time.Millisecond, fetch.NoTimeout), false, 2 * time.Second},
		{"lock ignored for reads", d, cfg(2*time.Second, 5*time.Second), false, 2 * time.Second},
		{"lock wins for update", d, cfg(2*time.Second, 5*time.Second), true, 5 * time.Second},
		{"lock without query", d, cfg(fetch.NoTimeout, 3*time.Second), true, 3 * time.Second},
		{"negative ignored", d, cfg(-5*time.Second, fetch.NoTimeout), false, 0},
		{"unsupported", off, cfg(time.Minute, fetch.NoTimeout), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Timeout(tt.forUpdate, tt.cfg))
		})
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{
		"sql92", "postgres", "postgresql", "mysql", "mariadb", "sqlite", "sqlite3", "oracle",
		"db2", "sqlserver", "mssql", "derby", "h2", "hsql", "empress",
	} {
		d, err := Get(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, d.Name())
	}

	_, err := Get("nosuchdb")
	assert.ErrorIs(t, err, errs.ErrUnsupportedDialect)
	assert.Panics(t, func() { MustGet("nosuchdb") })
	assert.Equal(t, "mysql", MustGet("mariadb").Config().ErrorCodeSet)
}

func TestForProduct(t *testing.T) {
	tests := map[string]string{
		"PostgreSQL 16.1":              "postgres",
		"MySQL":                        "mysql",
		"MariaDB 10.11":                "mariadb",
		"Microsoft SQL Server":         "sqlserver",
		"Oracle Database 19c":          "oracle",
		"DB2/LINUXX8664":               "db2",
		"Apache Derby":                 "derby",
		"H2 Database Engine":           "h2",
		"HSQL Database Engine":         "hsql",
		"Empress RDBMS":                "empress",
		"SQLite 3.45":                  "sqlite",
		"Frobnicator Enterprise 1.0":   "sql92",
		"jdbc:jsqlconnect://localhost": "sqlserver",
	}
	for product, want := range tests {
		t.Run(product, func(t *testing.T) {
			assert.Equal(t, want, ForProduct(product).Name())
		})
	}
}

func TestForURL(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"jdbc:oracle:thin:@localhost:1521:xe", "oracle"},
		{"jdbc:h2:mem:test", "h2"},
		{"jdbc:sqlserver://localhost;databaseName=x", "sqlserver"},
		{"jdbc:derby:memory:db;create=true", "derby"},
		{"jdbc:db2://host:50000/db", "db2"},
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://localhost/db", "postgres"},
		{"mysql://root@localhost/db", "mysql"},
		{"file:test.db?cache=shared", "sqlite"},
		{"app.db", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, err := ForURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	for _, bad := range []string{"jdbc:frob:x", "frob://host", "host=localhost"} {
		_, err := ForURL(bad)
		assert.ErrorIs(t, err, errs.ErrUnsupportedDialect, bad)
	}
}

func TestProtocol(t *testing.T) {
	assert.Equal(t, "jdbc:oracle:thin:", protocol("jdbc:oracle:thin:@host"))
	assert.Equal(t, "jdbc:db2:", protocol("jdbc:db2://host"))
	assert.Equal(t, "jdbc:h2:mem:", protocol("jdbc:h2:mem:test"))
	assert.Equal(t, "", protocol("postgres://host"))
}

type unknownDriver struct{}

func (unknownDriver) Open(string) (driver.Conn, error) { return nil, errors.New("no") }

func TestForDriver(t *testing.T) {
	tests := []struct {
		drv  driver.Driver
		want string
	}{
		{&pq.Driver{}, "postgres"},
		{&stdlib.Driver{}, "postgres"},
		{&mysql.MySQLDriver{}, "mysql"},
		{&sqlite.Driver{}, "sqlite"},
		{&sqlite3.SQLiteDriver{}, "sqlite"},
	}
	for _, tt := range tests {
		d, err := ForDriver(tt.drv)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Name())
	}

	_, err := ForDriver(unknownDriver{})
	assert.ErrorIs(t, err, errs.ErrUnsupportedDialect)
}

func TestConfigOverride(t *testing.T) {
	base := MustGet("postgres").Config()
	cfg, err := base.Override(map[string]any{"pagination": "none", "reservedWords": []string{"FOO"}})
	require.NoError(t, err)

	assert.Equal(t, PaginationNone, cfg.Pagination)
	assert.Equal(t, []string{"FOO"}, cfg.ReservedWords)
	assert.Equal(t, PaginationLimitOffset, base.Pagination)
	assert.Equal(t, "postgres", cfg.Name)

	_, err = base.Override(map[string]any{"supportsUnion": "definitely"})
	assert.Error(t, err)

	lower, err := base.Override(map[string]any{"delimitidentifiers": true})
	require.NoError(t, err)
	assert.True(t, lower.DelimitIdentifiers, "names match case-insensitively")

	_, err = base.Override(map[string]any{"noSuchProperty": 1})
	assert.ErrorContains(t, err, "noSuchProperty")
}
