package schema

import (
	"strconv"
	"strings"

	"github.com/syssam/norm/schema/field"
)

// Column describes one column of a table.
type Column struct {
	Name string
	// Definition is the column definition following the name, e.g.
	// `INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT`.
	Definition  string
	Primary     bool
	Nullable    bool
	Unique      bool
	Indexed     bool
	IndexLength int
	// Ref is the table referenced by the column, if any.
	Ref string
}

// ColumnOf builds the column of a field descriptor. refTable maps the
// referenced type name to its table name; it may be nil.
func ColumnOf(d *field.Descriptor, refTable func(string) string) *Column {
	c := &Column{
		Name:        d.Name,
		Definition:  d.Column(),
		Primary:     d.Primary,
		Nullable:    d.Nullable,
		Unique:      d.Unique,
		Indexed:     d.Indexed,
		IndexLength: d.IndexLength,
	}
	if d.IsReference() {
		c.Ref = d.Ref
		if refTable != nil {
			c.Ref = refTable(d.Ref)
		}
	}
	return c
}

func (c *Column) indexPart() string {
	if c.IndexLength > 0 {
		return c.Name + "(" + strconv.Itoa(c.IndexLength) + ")"
	}
	return c.Name
}

// Table describes a table and renders its DDL.
type Table struct {
	Name    string
	Columns []*Column
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column.
func (t *Table) AddColumn(c *Column) *Table {
	t.Columns = append(t.Columns, c)
	return t
}

// PrimaryKey returns the primary key columns.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.Primary {
			pk = append(pk, c)
		}
	}
	return pk
}

// Indexes returns the plain and unique index parts in column order.
// Unique columns without an index are declared inline and are not listed.
func (t *Table) Indexes() (index, unique []string) {
	for _, c := range t.Columns {
		switch {
		case c.Indexed && c.Unique:
			unique = append(unique, c.indexPart())
		case c.Indexed:
			index = append(index, c.indexPart())
		}
	}
	return index, unique
}

// CreateSQL renders the CREATE TABLE statement:
//
//	CREATE TABLE IF NOT EXISTS Person (
//		id INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT,
//		name TEXT,
//		INDEX(name(5))
//	);
func (t *Table) CreateSQL() string {
	rows := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		rows = append(rows, "\t"+c.Name+" "+c.Definition)
	}
	index, unique := t.Indexes()
	if len(index) > 0 {
		rows = append(rows, "\tINDEX("+strings.Join(index, ", ")+")")
	}
	if len(unique) > 0 {
		rows = append(rows, "\tUNIQUE KEY("+strings.Join(unique, ", ")+")")
	}
	return "CREATE TABLE IF NOT EXISTS " + t.Name + " (\n" + strings.Join(rows, ",\n") + "\n);"
}

// DropSQL renders the DROP TABLE statement.
func (t *Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + t.Name + ";"
}
