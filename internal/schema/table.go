package schema

import "strings"

// Table is a database table with an ordered column list.
type Table struct {
	Name   string
	Schema string

	columns []*Column
	pk      []*Column
}

// NewTable creates a table and adopts the given columns in order.
func NewTable(name string, cols ...*Column) *Table {
	t := &Table{Name: name}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// AddColumn appends c to the table and assigns its index.
func (t *Table) AddColumn(c *Column) *Column {
	c.Table = t
	c.Index = len(t.columns)
	t.columns = append(t.columns, c)
	return c
}

// Columns returns the columns in index order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column looks up a column by name, ignoring case.
func (t *Table) Column(name string) *Column {
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// SetPrimaryKey declares the primary key columns.
func (t *Table) SetPrimaryKey(cols ...*Column) {
	t.pk = cols
}

// PrimaryKey returns the primary key columns.
func (t *Table) PrimaryKey() []*Column {
	return t.pk
}

// AutoAssignedColumns returns the columns whose values the database generates.
func (t *Table) AutoAssignedColumns() []*Column {
	var out []*Column
	for _, c := range t.columns {
		if c.AutoAssigned {
			out = append(out, c)
		}
	}
	return out
}

// FullName returns the schema-qualified table name.
func (t *Table) FullName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t *Table) String() string {
	return t.FullName()
}

// Column is one column of a table.
type Column struct {
	Name         string
	Table        *Table
	Index        int
	Type         MetaType
	SQLType      SQLType
	Size         int
	AutoAssigned bool
	Version      bool
	NotNull      bool

	// Default is the database-side default, nil when the column has none.
	Default *string
}

// ColumnOption configures a column built by NewColumn.
type ColumnOption func(*Column)

// NewColumn creates a detached column; adding it to a table assigns its index.
func NewColumn(name string, typ MetaType, opts ...ColumnOption) *Column {
	c := &Column{Name: name, Type: typ}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSQLType sets the database type and size.
func WithSQLType(t SQLType, size int) ColumnOption {
	return func(c *Column) {
		c.SQLType = t
		c.Size = size
	}
}

// WithDefault sets the database-side default.
func WithDefault(def string) ColumnOption {
	return func(c *Column) {
		c.Default = &def
	}
}

// AutoAssign marks the column as generated by the database.
func AutoAssign() ColumnOption {
	return func(c *Column) {
		c.AutoAssigned = true
	}
}

// AsVersion marks the column as an optimistic-lock version column.
func AsVersion() ColumnOption {
	return func(c *Column) {
		c.Version = true
	}
}

// NotNull marks the column as non-nullable.
func NotNull() ColumnOption {
	return func(c *Column) {
		c.NotNull = true
	}
}

// HasDefault reports whether the column has a database-side default.
func (c *Column) HasDefault() bool {
	return c.Default != nil
}

func (c *Column) String() string {
	if c.Table == nil {
		return c.Name
	}
	return c.Table.FullName() + "." + c.Name
}

// Sequence is a database sequence.
type Sequence struct {
	Name   string
	Schema string
}

// FullName returns the schema-qualified sequence name.
func (s *Sequence) FullName() string {
	if s.Schema == "" {
		return s.Name
	}
	return s.Schema + "." + s.Name
}
