package schema

// ForeignKey joins local columns of one table to the primary key columns of another.
// Local columns may also be joined to constant values.
type ForeignKey struct {
	Name  string
	Table *Table

	columns   []*Column
	pkColumns []*Column
	constCols []*Column
	constVals []any
}

// NewForeignKey creates an empty foreign key owned by table.
func NewForeignKey(name string, table *Table) *ForeignKey {
	return &ForeignKey{Name: name, Table: table}
}

// Join adds a local column referencing a target primary key column.
func (fk *ForeignKey) Join(local, target *Column) *ForeignKey {
	fk.columns = append(fk.columns, local)
	fk.pkColumns = append(fk.pkColumns, target)
	return fk
}

// JoinConstant joins a local column to a constant value.
func (fk *ForeignKey) JoinConstant(local *Column, val any) *ForeignKey {
	fk.constCols = append(fk.constCols, local)
	fk.constVals = append(fk.constVals, val)
	return fk
}

// Columns returns the local columns joined to primary key columns.
func (fk *ForeignKey) Columns() []*Column {
	return fk.columns
}

// PrimaryKeyColumns returns the referenced columns, parallel to Columns.
func (fk *ForeignKey) PrimaryKeyColumns() []*Column {
	return fk.pkColumns
}

// ConstantColumns returns the local columns joined to constants.
func (fk *ForeignKey) ConstantColumns() []*Column {
	return fk.constCols
}

// Constant returns the constant joined to col.
func (fk *ForeignKey) Constant(col *Column) any {
	for i, c := range fk.constCols {
		if c == col {
			return fk.constVals[i]
		}
	}
	return nil
}

// PrimaryKeyTable returns the referenced table.
func (fk *ForeignKey) PrimaryKeyTable() *Table {
	if len(fk.pkColumns) == 0 {
		return nil
	}
	return fk.pkColumns[0].Table
}

// ColumnFor returns the local column joined to the given target column.
func (fk *ForeignKey) ColumnFor(target *Column) *Column {
	for i, c := range fk.pkColumns {
		if c == target {
			return fk.columns[i]
		}
	}
	return nil
}

// HasAutoAssignedTarget reports whether any referenced column is generated by the database.
func (fk *ForeignKey) HasAutoAssignedTarget() bool {
	for _, c := range fk.pkColumns {
		if c.AutoAssigned {
			return true
		}
	}
	return false
}
