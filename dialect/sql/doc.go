// Package sql implements the database collaborator on top of database/sql.
//
// # Driver
//
// Driver adapts a *sql.DB to the dialect.Driver interface. Statements take
// their arguments as []any and write results into a *Rows or *sql.Result:
//
//	drv, err := sql.Open(dialect.MySQL, sql.ParseURI(uri).DSN())
//	rows := &sql.Rows{}
//	err = drv.Query(ctx, "SELECT Person.id FROM Person;", []any{}, rows)
//
// StatsDriver and DebugDriver wrap a driver to count statements and to
// echo every statement through log/slog.
//
// # Cursor
//
// Cursor streams rows until the row count or an absolute position is
// requested, then buffers the remainder so the server-side result can be
// released while the rows stay readable.
//
// # Builders
//
// Selector, Inserter, Updater and Deleter render the four statement shapes
// with `?` placeholders and a trailing semicolon:
//
//	q, args := sql.Select("Person.id", "Person.name").
//	    From("Person").
//	    Where(sql.EQ("Person.name", "Ann")).
//	    OrderBy("Person.id DESC").
//	    Limit(10).
//	    Query()
//	// SELECT Person.id, Person.name FROM Person WHERE Person.name = ? ORDER BY Person.id DESC LIMIT 10;
package sql
