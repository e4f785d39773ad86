// Package dialect defines the database collaborator norm talks to.
//
// norm renders a single SQL dialect (MySQL). The Driver interface is the
// whole surface the ORM needs from a connection:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Close() error
//	    Dialect() string
//	}
//
// The dialect/sql package implements it on top of database/sql:
//
//	drv, err := sql.Open(dialect.MySQL, "root:pass@tcp(localhost:3306)/test?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := norm.NewClient(registry, norm.Driver(drv))
//
// Sub-packages:
//
//   - dialect/sql: driver, count-capable cursor, statement builders, URI parsing
//   - dialect/sql/schema: CREATE/DROP TABLE rendering
//   - dialect/sql/sqlgraph: constraint error classification
package dialect
