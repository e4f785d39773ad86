package norm

import (
	"context"
	"strings"

	"github.com/syssam/norm/schema/edge"
	"github.com/syssam/norm/schema/field"
)

type (
	// Interface is implemented by every schema registered with a Registry.
	// Embed Schema to get the default implementation of all methods.
	Interface interface {
		// Fields returns the fields of the type, in declaration order.
		Fields() []Field
		// Edges returns the collection edges of the type.
		Edges() []Edge
		// Mixin returns reusable schema parts whose fields come first.
		Mixin() []Mixin
		// Hooks returns mutation hooks applied to records of the type.
		Hooks() []Hook
		// Config returns the table configuration of the type.
		Config() Config
	}

	// Field is implemented by the field builders.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// Edge is implemented by the edge builders.
	Edge interface {
		Descriptor() *edge.Descriptor
	}

	// Mixin is a reusable set of fields, edges and hooks.
	Mixin interface {
		Fields() []Field
		Edges() []Edge
		Hooks() []Hook
	}

	// Config configures the table of a type.
	Config struct {
		// Table overrides the table name.
		Table string
	}

	// Schema is the default implementation of Interface.
	//
	//	type Person struct {
	//	    norm.Schema
	//	}
	//
	//	func (Person) Fields() []norm.Field {
	//	    return []norm.Field{
	//	        field.Primary("id"),
	//	        field.String("name").NotNull(),
	//	        field.Reference("city", "City"),
	//	    }
	//	}
	Schema struct{}
)

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// Edges of the schema.
func (Schema) Edges() []Edge { return nil }

// Mixin of the schema.
func (Schema) Mixin() []Mixin { return nil }

// Hooks of the schema.
func (Schema) Hooks() []Hook { return nil }

// Config of the schema.
func (Schema) Config() Config { return Config{} }

var _ Interface = (*Schema)(nil)

// Values maps field names to values. Keys of the form `ref.field` address a
// field of the type referenced by the reference field `ref`.
type Values map[string]any

// Value is the result of a mutation.
type Value = any

// Op represents the operation of a mutation.
type Op uint

// Mutation operations.
const (
	OpCreate    Op = 1 << iota // single record insert
	OpUpdate                   // bulk update of the rows matched by a query
	OpUpdateOne                // update of one record by primary key
	OpDelete                   // bulk delete of the rows matched by a query
	OpDeleteOne                // delete of one record by primary key
)

// Is reports whether o matches the given operation.
func (i Op) Is(o Op) bool { return i&o != 0 }

var opNames = map[Op]string{
	OpCreate:    "OpCreate",
	OpUpdate:    "OpUpdate",
	OpUpdateOne: "OpUpdateOne",
	OpDelete:    "OpDelete",
	OpDeleteOne: "OpDeleteOne",
}

// String returns the operation names joined by "|".
func (i Op) String() string {
	var names []string
	for _, op := range []Op{OpCreate, OpUpdate, OpUpdateOne, OpDelete, OpDeleteOne} {
		if i.Is(op) {
			names = append(names, opNames[op])
		}
	}
	if len(names) == 0 {
		return "Op(0)"
	}
	return strings.Join(names, "|")
}

type (
	// Mutation describes one INSERT, UPDATE or DELETE about to run.
	Mutation interface {
		// Op returns the operation.
		Op() Op
		// Type returns the model name.
		Type() string
		// SQL returns the statement and its arguments.
		SQL() (string, []any)
		// Record returns the record being written, or nil for bulk
		// statements.
		Record() *Record
	}

	// Mutator executes a mutation.
	Mutator interface {
		Mutate(context.Context, Mutation) (Value, error)
	}

	// MutateFunc adapts a function to the Mutator interface.
	MutateFunc func(context.Context, Mutation) (Value, error)

	// Hook wraps a Mutator. Hooks run in the order they were added, the
	// client hooks before the schema hooks.
	//
	//	func Logger(l *slog.Logger) norm.Hook {
	//	    return func(next norm.Mutator) norm.Mutator {
	//	        return norm.MutateFunc(func(ctx context.Context, m norm.Mutation) (norm.Value, error) {
	//	            v, err := next.Mutate(ctx, m)
	//	            l.InfoContext(ctx, "mutation", "op", m.Op(), "type", m.Type(), "err", err)
	//	            return v, err
	//	        })
	//	    }
	//	}
	Hook func(Mutator) Mutator
)

// Mutate calls f(ctx, m).
func (f MutateFunc) Mutate(ctx context.Context, m Mutation) (Value, error) {
	return f(ctx, m)
}

type mutation struct {
	op     Op
	typ    string
	query  string
	args   []any
	record *Record
}

func (m *mutation) Op() Op               { return m.op }
func (m *mutation) Type() string         { return m.typ }
func (m *mutation) SQL() (string, []any) { return m.query, m.args }
func (m *mutation) Record() *Record      { return m.record }

func chain(exec Mutator, hooks ...[]Hook) Mutator {
	var all []Hook
	for _, hs := range hooks {
		all = append(all, hs...)
	}
	for i := len(all) - 1; i >= 0; i-- {
		exec = all[i](exec)
	}
	return exec
}
