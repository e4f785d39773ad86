package sql

import (
	"strconv"
	"strings"
)

// Order directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// Predicate is a boolean SQL expression with its positional arguments.
type Predicate struct {
	expr string
	args []any
}

// EQ returns the predicate `column = ?`.
func EQ(column string, v any) *Predicate {
	return &Predicate{expr: column + " = ?", args: []any{v}}
}

// ColumnsEQ returns the predicate `left = right`, used to link two tables
// listed in the same FROM clause.
func ColumnsEQ(left, right string) *Predicate {
	return &Predicate{expr: left + " = " + right}
}

// Expr returns the SQL text of the predicate.
func (p *Predicate) Expr() string { return p.expr }

// Args returns the arguments bound by the predicate.
func (p *Predicate) Args() []any { return p.args }

// Querier is implemented by the statement builders.
type Querier interface {
	Query() (string, []any)
}

type conditions struct {
	preds []*Predicate
}

func (c *conditions) add(ps ...*Predicate) {
	c.preds = append(c.preds, ps...)
}

func (c *conditions) write(b *strings.Builder, args []any) []any {
	if len(c.preds) == 0 {
		return args
	}
	b.WriteString(" WHERE ")
	for i, p := range c.preds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(p.expr)
		args = append(args, p.args...)
	}
	return args
}

func writeLimit(b *strings.Builder, n int) {
	if n > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(n))
	}
}

// Selector builds SELECT statements:
//
//	SELECT t.a, t.b FROM t[, u] [WHERE ...] [ORDER BY ...] [LIMIT n];
type Selector struct {
	conditions
	columns  []string
	tables   []string
	order    []string
	orderSep string
	limit    int
}

// Select returns a builder selecting the given columns.
func Select(columns ...string) *Selector {
	return &Selector{columns: columns, orderSep: ", "}
}

// From sets the table list.
func (s *Selector) From(tables ...string) *Selector {
	s.tables = append(s.tables, tables...)
	return s
}

// Where appends predicates joined with AND.
func (s *Selector) Where(ps ...*Predicate) *Selector {
	s.add(ps...)
	return s
}

// OrderBy appends `column direction` terms.
func (s *Selector) OrderBy(terms ...string) *Selector {
	s.order = append(s.order, terms...)
	return s
}

// OrderSeparator sets the text joining ORDER BY terms. It defaults to ", ".
func (s *Selector) OrderSeparator(sep string) *Selector {
	s.orderSep = sep
	return s
}

// Limit sets the LIMIT clause; n <= 0 omits it.
func (s *Selector) Limit(n int) *Selector {
	s.limit = n
	return s
}

// Query returns the statement and its arguments.
func (s *Selector) Query() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(s.tables, ", "))
	args := s.write(&b, nil)
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.order, s.orderSep))
	}
	writeLimit(&b, s.limit)
	b.WriteByte(';')
	return b.String(), args
}

// Inserter builds INSERT statements:
//
//	INSERT INTO t (a, b) VALUES (?, ?);
type Inserter struct {
	table   string
	columns []string
	values  []any
}

// Insert returns a builder inserting one row into table.
func Insert(table string) *Inserter {
	return &Inserter{table: table}
}

// Set appends a column and its value.
func (i *Inserter) Set(column string, v any) *Inserter {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Query returns the statement and its arguments.
func (i *Inserter) Query() (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(i.table)
	b.WriteString(" (")
	b.WriteString(strings.Join(i.columns, ", "))
	b.WriteString(") VALUES (")
	for j := range i.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteString(");")
	return b.String(), append([]any(nil), i.values...)
}

// Updater builds UPDATE statements:
//
//	UPDATE t SET a = ?, b = ? [WHERE ...] [LIMIT n];
type Updater struct {
	conditions
	table   string
	columns []string
	values  []any
	limit   int
}

// Update returns a builder updating rows of table.
func Update(table string) *Updater {
	return &Updater{table: table}
}

// Set appends an assignment. Its value is bound before the WHERE arguments.
func (u *Updater) Set(column string, v any) *Updater {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Empty reports whether the statement assigns nothing.
func (u *Updater) Empty() bool { return len(u.columns) == 0 }

// Where appends predicates joined with AND.
func (u *Updater) Where(ps ...*Predicate) *Updater {
	u.add(ps...)
	return u
}

// Limit sets the LIMIT clause; n <= 0 omits it.
func (u *Updater) Limit(n int) *Updater {
	u.limit = n
	return u
}

// Query returns the statement and its arguments.
func (u *Updater) Query() (string, []any) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.table)
	b.WriteString(" SET ")
	for i, c := range u.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = ?")
	}
	args := u.write(&b, append([]any(nil), u.values...))
	writeLimit(&b, u.limit)
	b.WriteByte(';')
	return b.String(), args
}

// Deleter builds DELETE statements:
//
//	DELETE FROM t [WHERE ...] [LIMIT n];
type Deleter struct {
	conditions
	table string
	limit int
}

// Delete returns a builder deleting rows of table.
func Delete(table string) *Deleter {
	return &Deleter{table: table}
}

// Where appends predicates joined with AND.
func (d *Deleter) Where(ps ...*Predicate) *Deleter {
	d.add(ps...)
	return d
}

// Limit sets the LIMIT clause; n <= 0 omits it.
func (d *Deleter) Limit(n int) *Deleter {
	d.limit = n
	return d
}

// Query returns the statement and its arguments.
func (d *Deleter) Query() (string, []any) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(d.table)
	args := d.write(&b, nil)
	writeLimit(&b, d.limit)
	b.WriteByte(';')
	return b.String(), args
}

var (
	_ Querier = (*Selector)(nil)
	_ Querier = (*Inserter)(nil)
	_ Querier = (*Updater)(nil)
	_ Querier = (*Deleter)(nil)
)
