// Package dialects renders SQL for one database product at a time. A Dictionary is built
// from a data-driven Config plus a small set of Hooks for behavior that cannot be
// expressed as data. Products register their dictionary in init and are looked up by
// name, product string, connection URL or driver.
package dialects

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/coregx/ormsql/internal/schema"
	"github.com/coregx/ormsql/internal/sqlbuf"
)

// Placeholder styles.
const (
	PlaceholderQuestion = "question"
	PlaceholderDollar   = "dollar"
	PlaceholderColon    = "colon"
	PlaceholderAt       = "at"
)

// Pagination styles.
const (
	PaginationNone        = "none"
	PaginationLimitOffset = "limit-offset"
	PaginationMySQL       = "mysql"
	PaginationSQLite      = "sqlite"
	PaginationOffsetFetch = "offset-fetch"
	PaginationFetchFirst  = "fetch-first"
	PaginationTop         = "top"
)

// Range positions within a select.
const (
	RangePreDistinct  = "pre-distinct"
	RangePostDistinct = "post-distinct"
	RangePostSelect   = "post-select"
	RangePostLock     = "post-lock"
)

// JoinSyntax selects how joins are rendered.
type JoinSyntax string

// Join syntaxes.
const (
	SyntaxSQL92       JoinSyntax = "sql92"
	SyntaxTraditional JoinSyntax = "traditional"
	SyntaxDatabase    JoinSyntax = "database"
)

// Generated key retrieval styles.
const (
	KeysNone         = "none"
	KeysLastInsertID = "last-insert-id"
	KeysReturning    = "returning"
	KeysQuery        = "query"
)

// Config is the data describing one product's SQL.
type Config struct {
	Name      string   `yaml:"name"`
	Products  []string `yaml:"products"`
	Protocols []string `yaml:"protocols"`
	// ErrorCodeSet names the entry of the error code table used for classification.
	ErrorCodeSet string `yaml:"errorCodeSet"`

	LeadingDelimiter   string   `yaml:"leadingDelimiter"`
	TrailingDelimiter  string   `yaml:"trailingDelimiter"`
	DelimitIdentifiers bool     `yaml:"delimitIdentifiers"`
	ReservedWords      []string `yaml:"reservedWords"`
	Placeholder        string   `yaml:"placeholder"`

	Pagination               string     `yaml:"pagination"`
	RangePosition            string     `yaml:"rangePosition"`
	SupportsSelectStartIndex bool       `yaml:"supportsSelectStartIndex"`
	SupportsSelectEndIndex   bool       `yaml:"supportsSelectEndIndex"`
	JoinSyntax               JoinSyntax `yaml:"joinSyntax"`
	InnerJoinClause          string     `yaml:"innerJoinClause"`
	OuterJoinClause          string     `yaml:"outerJoinClause"`
	CrossJoinClause          string     `yaml:"crossJoinClause"`

	RequiresConditionForCrossJoin bool `yaml:"requiresConditionForCrossJoin"`
	RequiresAliasForSubselect     bool `yaml:"requiresAliasForSubselect"`
	SupportsHints                 bool `yaml:"supportsHints"`

	SupportsSelectForUpdate bool   `yaml:"supportsSelectForUpdate"`
	SimulateLocking         bool   `yaml:"simulateLocking"`
	ForUpdateClause         string `yaml:"forUpdateClause"`
	TableForUpdateClause    string `yaml:"tableForUpdateClause"`
	SupportsUnion           bool   `yaml:"supportsUnion"`
	SupportsSubselect       bool   `yaml:"supportsSubselect"`
	SupportsHaving          bool   `yaml:"supportsHaving"`
	SupportsQueryTimeout    bool   `yaml:"supportsQueryTimeout"`
	SupportsBooleanType     bool   `yaml:"supportsBooleanType"`
	StoreCharsAsNumbers     bool   `yaml:"storeCharsAsNumbers"`

	CastFunction          string `yaml:"castFunction"`
	ConcatenateFunction   string `yaml:"concatenateFunction"`
	SubstringFunctionName string `yaml:"substringFunctionName"`
	IndexOfFunction       string `yaml:"indexOfFunction"`
	ToLowerCaseFunction   string `yaml:"toLowerCaseFunction"`
	ToUpperCaseFunction   string `yaml:"toUpperCaseFunction"`
	StringLengthFunction  string `yaml:"stringLengthFunction"`
	TrimBothFunction      string `yaml:"trimBothFunction"`
	XMLMarker             string `yaml:"xmlMarker"`

	NextSequenceQuery     string `yaml:"nextSequenceQuery"`
	GeneratedKeys         string `yaml:"generatedKeys"`
	LastGeneratedKeyQuery string `yaml:"lastGeneratedKeyQuery"`
	InitializationSQL     string `yaml:"initializationSQL"`

	// TypeNames maps database types to names; "{0}" receives the parenthesized size.
	TypeNames map[schema.SQLType]string `yaml:"-"`
}

var propertyNames = func() map[string]string {
	names := make(map[string]string)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if tag != "" && tag != "-" {
			names[strings.ToLower(tag)] = tag
		}
	}
	return names
}()

// Override returns a copy of c with the given properties applied by YAML field name.
// Names match case-insensitively.
func (c Config) Override(props map[string]any) (Config, error) {
	cp := c
	cp.Products = append([]string(nil), c.Products...)
	cp.Protocols = append([]string(nil), c.Protocols...)
	cp.ReservedWords = append([]string(nil), c.ReservedWords...)
	if len(props) == 0 {
		return cp, nil
	}
	canon := make(map[string]any, len(props))
	for k, v := range props {
		name, ok := propertyNames[strings.ToLower(k)]
		if !ok {
			return c, fmt.Errorf("dialects: unknown dictionary property %q", k)
		}
		canon[name] = v
	}
	raw, err := yaml.Marshal(canon)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &cp); err != nil {
		return c, err
	}
	return cp, nil
}

// Dictionary renders SQL for one database product.
type Dictionary struct {
	cfg      Config
	hooks    Hooks
	reserved map[string]struct{}
	codes    *errorCodes
}

// New builds a dictionary from cfg and hooks.
func New(cfg Config, hooks Hooks) *Dictionary {
	if cfg.Placeholder == "" {
		cfg.Placeholder = PlaceholderQuestion
	}
	if cfg.JoinSyntax == "" {
		cfg.JoinSyntax = SyntaxSQL92
	}
	if cfg.InnerJoinClause == "" {
		cfg.InnerJoinClause = "INNER JOIN"
	}
	if cfg.OuterJoinClause == "" {
		cfg.OuterJoinClause = "LEFT OUTER JOIN"
	}
	if cfg.CrossJoinClause == "" {
		cfg.CrossJoinClause = "CROSS JOIN"
	}
	if cfg.RangePosition == "" {
		cfg.RangePosition = RangePostSelect
	}
	if cfg.Pagination == "" {
		cfg.Pagination = PaginationNone
	}
	if cfg.ForUpdateClause == "" && cfg.TableForUpdateClause == "" {
		cfg.ForUpdateClause = "FOR UPDATE"
	}
	defaultString(&cfg.CastFunction, "CAST({0} AS {1})")
	defaultString(&cfg.ConcatenateFunction, "({0}||{1})")
	defaultString(&cfg.SubstringFunctionName, "SUBSTRING")
	defaultString(&cfg.IndexOfFunction, "(POSITION({1} IN {0}) - 1)")
	defaultString(&cfg.ToLowerCaseFunction, "LOWER({0})")
	defaultString(&cfg.ToUpperCaseFunction, "UPPER({0})")
	defaultString(&cfg.StringLengthFunction, "CHAR_LENGTH({0})")
	defaultString(&cfg.TrimBothFunction, "TRIM({0})")
	d := &Dictionary{cfg: cfg, hooks: hooks, reserved: make(map[string]struct{})}
	for _, w := range cfg.ReservedWords {
		d.reserved[strings.ToUpper(w)] = struct{}{}
	}
	setName := cfg.ErrorCodeSet
	if setName == "" {
		setName = cfg.Name
	}
	d.codes = errorCodesFor(setName)
	return d
}

func defaultString(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

// WithOverrides returns a dictionary of the same product with properties overridden.
func (d *Dictionary) WithOverrides(props map[string]any) (*Dictionary, error) {
	cfg, err := d.cfg.Override(props)
	if err != nil {
		return nil, err
	}
	return New(cfg, d.hooks), nil
}

// Name returns the product name.
func (d *Dictionary) Name() string { return d.cfg.Name }

// Config returns a copy of the configuration.
func (d *Dictionary) Config() Config { return d.cfg }

// SupportsUnion reports whether a real UNION can be rendered.
func (d *Dictionary) SupportsUnion() bool { return d.cfg.SupportsUnion }

// SupportsSubselect reports whether subselects are allowed.
func (d *Dictionary) SupportsSubselect() bool { return d.cfg.SupportsSubselect }

// SupportsSelectForUpdate reports whether selects can lock rows.
func (d *Dictionary) SupportsSelectForUpdate() bool { return d.cfg.SupportsSelectForUpdate }

// SimulateLocking reports whether locking selects run without a lock clause.
func (d *Dictionary) SimulateLocking() bool { return d.cfg.SimulateLocking }

// StoreCharsAsNumbers implements the character storage policy of the product.
func (d *Dictionary) StoreCharsAsNumbers() bool { return d.cfg.StoreCharsAsNumbers }

// GeneratedKeys returns the generated key retrieval style.
func (d *Dictionary) GeneratedKeys() string {
	if d.cfg.GeneratedKeys == "" {
		return KeysNone
	}
	return d.cfg.GeneratedKeys
}

// LastGeneratedKeyQuery returns the query that reads the last generated key.
func (d *Dictionary) LastGeneratedKeyQuery() string { return d.cfg.LastGeneratedKeyQuery }

// InitializationSQL returns the statement run when a store opens.
func (d *Dictionary) InitializationSQL() string { return d.cfg.InitializationSQL }

// QuoteIdentifier delimits name when the product delimits everything, when name is a
// reserved word, or when it contains characters outside letters, digits and underscore.
func (d *Dictionary) QuoteIdentifier(name string) string {
	lead, trail := d.cfg.LeadingDelimiter, d.cfg.TrailingDelimiter
	if name == "" || lead == "" {
		return name
	}
	if strings.HasPrefix(name, lead) && strings.HasSuffix(name, trail) && len(name) >= len(lead)+len(trail) {
		return name
	}
	if !d.cfg.DelimitIdentifiers && !d.needsDelimiters(name) {
		return name
	}
	return lead + strings.ReplaceAll(name, trail, trail+trail) + trail
}

func (d *Dictionary) needsDelimiters(name string) bool {
	if _, ok := d.reserved[strings.ToUpper(name)]; ok {
		return true
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return true
	}
	return false
}

// TableName renders the schema-qualified table name.
func (d *Dictionary) TableName(t *schema.Table) string {
	if t.Schema == "" {
		return d.QuoteIdentifier(t.Name)
	}
	return d.QuoteIdentifier(t.Schema) + "." + d.QuoteIdentifier(t.Name)
}

// ColumnName renders the column name.
func (d *Dictionary) ColumnName(c *schema.Column) string {
	return d.QuoteIdentifier(c.Name)
}

// SequenceName renders the schema-qualified sequence name.
func (d *Dictionary) SequenceName(s *schema.Sequence) string {
	if s.Schema == "" {
		return d.QuoteIdentifier(s.Name)
	}
	return d.QuoteIdentifier(s.Schema) + "." + d.QuoteIdentifier(s.Name)
}

// NewBuffer returns an empty buffer rendering names through d.
func (d *Dictionary) NewBuffer() *sqlbuf.Buffer {
	return sqlbuf.New(d)
}

// Placeholder returns the marker for the n-th parameter, counting from 1.
func (d *Dictionary) Placeholder(n int) string {
	switch d.cfg.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderColon:
		return ":" + strconv.Itoa(n)
	case PlaceholderAt:
		return "@p" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites ? markers outside quoted text and identifiers into the product's
// placeholder style.
func (d *Dictionary) Rebind(query string) string {
	if d.cfg.Placeholder == PlaceholderQuestion || !strings.Contains(query, "?") {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '?':
			n++
			sb.WriteString(d.Placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
