package dialect

import "context"

// MySQL is the only dialect the generated SQL targets.
const MySQL = "mysql"

// ExecQuerier wraps the two statement methods of a driver.
type ExecQuerier interface {
	// Exec executes a statement that returns no rows. v is either nil or a
	// pointer the driver fills with the statement result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface a database connection handle implements.
type Driver interface {
	ExecQuerier
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}
