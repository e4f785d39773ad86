package norm

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/norm/dialect/sql"
	"github.com/syssam/norm/dialect/sql/sqlgraph"
	"github.com/syssam/norm/schema/field"
)

type fieldValue = field.Value

// Record is one row of a model. Each record owns its field values; two
// records never share state.
type Record struct {
	model       *Model
	client      *Client
	values      []*fieldValue
	persisted   bool
	collections map[string][]*Record
}

func newRecord(c *Client, m *Model) (*Record, error) {
	r := &Record{model: m, client: c, values: make([]*fieldValue, len(m.fields))}
	for i, f := range m.fields {
		v, err := f.NewValue()
		if err != nil {
			return nil, err
		}
		r.values[i] = v
	}
	return r, nil
}

// Model returns the model of the record.
func (r *Record) Model() *Model { return r.model }

// TypeName returns the model name.
func (r *Record) TypeName() string { return r.model.name }

// KeyValue returns the primary key and whether the record is persisted
// with a key. Reference fields accept records through this method.
func (r *Record) KeyValue() (any, bool) {
	key := r.Key()
	return key, r.persisted && key != nil
}

// Key returns the raw primary key, or nil when none is set.
func (r *Record) Key() any {
	return r.values[r.model.index[r.model.pk.Name]].Raw()
}

// Persisted reports whether the record was inserted or read from the
// database.
func (r *Record) Persisted() bool { return r.persisted }

func (r *Record) value(name string) (*fieldValue, error) {
	i, ok := r.model.index[name]
	if !ok {
		if _, ok := r.model.edgeIx[name]; ok {
			return nil, fmt.Errorf("%w: %s.%s is an edge, read it with Collection", ErrUnknownField, r.model.name, name)
		}
		return nil, unknownField(r.model.name, name)
	}
	return r.values[i], nil
}

// Get returns the value of the named field. Reference fields return the
// raw key; use Ref to load the referenced record.
func (r *Record) Get(name string) (any, error) {
	v, err := r.value(name)
	if err != nil {
		return nil, err
	}
	return v.Get()
}

// Set validates and assigns the value of the named field. A reference field
// accepts a persisted record of the target type or a raw key.
func (r *Record) Set(name string, x any) error {
	v, err := r.value(name)
	if err != nil {
		return err
	}
	return v.Set(x)
}

// SetValues assigns several fields, in declaration order.
func (r *Record) SetValues(vals Values) error {
	for _, f := range r.model.fields {
		if x, ok := vals[f.Name]; ok {
			if err := r.Set(f.Name, x); err != nil {
				return err
			}
		}
	}
	for name := range vals {
		if _, ok := r.model.index[name]; !ok {
			return unknownField(r.model.name, name)
		}
	}
	return nil
}

// Dirty reports whether the named field changed since the record was last
// written or read.
func (r *Record) Dirty(name string) bool {
	v, err := r.value(name)
	return err == nil && v.Dirty()
}

// ValueOf returns the value of the named field as a T.
//
//	name, err := norm.ValueOf[string](person, "name")
func ValueOf[T any](r *Record, name string) (T, error) {
	var zero T
	v, err := r.value(name)
	if err != nil {
		return zero, err
	}
	x, err := v.Get()
	if err != nil || x == nil {
		return zero, err
	}
	t, ok := x.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Field:  name,
			Want:   v.Descriptor().Type,
			Value:  x,
			Reason: fmt.Sprintf("requested %T", zero),
		}
	}
	return t, nil
}

// Insert writes the record as a new row. Every field not generated by the
// database is written; the generated key is read back into the primary key.
// A hook failing after the statement ran still leaves the record persisted.
func (r *Record) Insert(ctx context.Context) error {
	ins := sql.Insert(r.model.table)
	for i, f := range r.model.fields {
		if f.Auto {
			continue
		}
		ins.Set(f.Name, r.values[i].Bind())
	}
	query, args := ins.Query()
	m := &mutation{op: OpCreate, typ: r.model.name, query: query, args: args, record: r}
	pk := r.model.pk
	_, err := r.client.mutate(ctx, r.model, m, func(ctx context.Context, m Mutation) (Value, error) {
		query, args := m.SQL()
		res, err := r.client.exec(ctx, query, args)
		if err != nil {
			return nil, err
		}
		r.persisted = true
		r.markClean()
		if !pk.Auto {
			return r.Key(), nil
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		if err := r.values[r.model.index[pk.Name]].Scan(id); err != nil {
			return nil, err
		}
		return id, nil
	})
	if err != nil {
		return mutationError(r.model, "insert", err)
	}
	return nil
}

// Update writes the fields changed since the record was last written and
// returns the number of affected rows. Nothing is sent when no field
// changed.
func (r *Record) Update(ctx context.Context) (int64, error) {
	if !r.persisted {
		return 0, mutationError(r.model, "update", ErrNotPersisted)
	}
	upd := sql.Update(r.model.table)
	for i, f := range r.model.fields {
		if !f.Auto && r.values[i].Dirty() {
			upd.Set(f.Name, r.values[i].Bind())
		}
	}
	if upd.Empty() {
		return 0, nil
	}
	upd.Where(r.keyPredicate())
	query, args := upd.Query()
	m := &mutation{op: OpUpdateOne, typ: r.model.name, query: query, args: args, record: r}
	v, err := r.client.mutate(ctx, r.model, m, func(ctx context.Context, m Mutation) (Value, error) {
		v, err := r.client.execAffected(ctx, m)
		if err != nil {
			return nil, err
		}
		r.markClean()
		r.client.cacheDelete(ctx, r.model, r.Key())
		return v, nil
	})
	if err != nil {
		return 0, mutationError(r.model, "update", err)
	}
	n, _ := v.(int64)
	return n, nil
}

// Delete removes the row of the record. Deleting a record that was never
// persisted fails with ErrNotPersisted. The record keeps its values and may
// be inserted again.
func (r *Record) Delete(ctx context.Context) error {
	if !r.persisted {
		return mutationError(r.model, "delete", ErrNotPersisted)
	}
	query, args := sql.Delete(r.model.table).Where(r.keyPredicate()).Limit(1).Query()
	m := &mutation{op: OpDeleteOne, typ: r.model.name, query: query, args: args, record: r}
	_, err := r.client.mutate(ctx, r.model, m, func(ctx context.Context, m Mutation) (Value, error) {
		v, err := r.client.execAffected(ctx, m)
		if err != nil {
			return nil, err
		}
		r.client.cacheDelete(ctx, r.model, r.Key())
		r.persisted = false
		r.collections = nil
		return v, nil
	})
	if err != nil {
		return mutationError(r.model, "delete", err)
	}
	return nil
}

// Save inserts the record if it is not persisted, and updates it otherwise.
func (r *Record) Save(ctx context.Context) error {
	if !r.persisted {
		return r.Insert(ctx)
	}
	_, err := r.Update(ctx)
	return err
}

// Equal reports whether r and other are the same row: same model and equal
// primary keys. A record that is not persisted only equals itself.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil || r.model != other.model {
		return false
	}
	if !r.persisted || !other.persisted {
		return false
	}
	key := r.Key()
	return key != nil && key == other.Key()
}

// String returns the model name and field values.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.model.name)
	b.WriteByte('(')
	for i, f := range r.model.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Name, r.values[i].Raw())
	}
	b.WriteByte(')')
	return b.String()
}

func (r *Record) keyPredicate() *sql.Predicate {
	return sql.EQ(r.model.column(r.model.pk), r.Key())
}

func (r *Record) markClean() {
	for _, v := range r.values {
		v.MarkClean()
	}
}

// execAffected executes a mutation and returns the affected row count.
func (c *Client) execAffected(ctx context.Context, m Mutation) (Value, error) {
	query, args := m.SQL()
	res, err := c.exec(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return res.RowsAffected()
}

func mutationError(m *Model, op string, err error) error {
	if sqlgraph.IsConstraintError(err) {
		err = NewConstraintError(err.Error(), err)
	}
	return NewMutationError(m.name, op, err)
}
