package norm

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-openapi/inflect"

	"github.com/syssam/norm/dialect/sql/schema"
	"github.com/syssam/norm/schema/edge"
	"github.com/syssam/norm/schema/field"
)

// Registry holds the models of an application. Each schema is inspected
// once, when it is registered.
type Registry struct {
	models map[string]*Model
	order  []*Model
	namer  func(string) string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// TableNamer sets the function deriving table names from model names.
// Model names are used as-is by default.
func TableNamer(fn func(model string) string) RegistryOption {
	return func(r *Registry) {
		r.namer = fn
	}
}

// SnakePlural names tables by the pluralized snake case of the model
// name: Person becomes people, PostTag becomes post_tags.
func SnakePlural(model string) string {
	return inflect.Pluralize(inflect.Underscore(model))
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{models: make(map[string]*Model)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds schemas to the registry. The model name is the name of the
// schema's Go type.
func (r *Registry) Register(schemas ...Interface) error {
	for _, s := range schemas {
		t := reflect.TypeOf(s)
		if t == nil {
			return errors.New("norm: register nil schema")
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if err := r.RegisterAs(t.Name(), s); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...Interface) *Registry {
	if err := r.Register(schemas...); err != nil {
		panic(err)
	}
	return r
}

// RegisterAs adds a schema under an explicit model name.
func (r *Registry) RegisterAs(name string, s Interface) error {
	if name == "" {
		return errors.New("norm: register schema without a name")
	}
	if _, ok := r.models[name]; ok {
		return fmt.Errorf("norm: model %s registered twice", name)
	}
	m, err := r.build(name, s)
	if err != nil {
		return err
	}
	r.models[name] = m
	r.order = append(r.order, m)
	return nil
}

// Model returns the model registered under name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns the models in registration order.
func (r *Registry) Models() []*Model {
	return append([]*Model(nil), r.order...)
}

// Tables returns the DDL model of every registered type.
func (r *Registry) Tables() []*schema.Table {
	tables := make([]*schema.Table, len(r.order))
	for i, m := range r.order {
		tables[i] = m.Schema()
	}
	return tables
}

// Validate checks references between models: every reference field and
// edge must target a registered type.
func (r *Registry) Validate() error {
	var errs []error
	for _, m := range r.order {
		for _, f := range m.fields {
			if f.IsReference() {
				if _, ok := r.models[f.Ref]; !ok {
					errs = append(errs, fmt.Errorf("%w: %s.%s references %s", ErrUnknownModel, m.name, f.Name, f.Ref))
				}
			}
		}
		for _, e := range m.edges {
			target, ok := r.models[e.Target]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s.%s targets %s", ErrUnknownModel, m.name, e.Name, e.Target))
				continue
			}
			if e.Field != "" {
				f, ok := target.Field(e.Field)
				if !ok || f.Ref != m.name {
					errs = append(errs, fmt.Errorf("norm: %s.%s: %s.%s is not a reference to %s", m.name, e.Name, e.Target, e.Field, m.name))
				}
			}
			if e.Through != "" {
				if _, ok := r.models[e.Through]; !ok {
					errs = append(errs, fmt.Errorf("%w: %s.%s joins through %s", ErrUnknownModel, m.name, e.Name, e.Through))
				}
			}
		}
	}
	if err := schema.ValidateSchema(r.Tables()).Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Registry) tableOf(model string) string {
	if r.namer != nil {
		return r.namer(model)
	}
	return model
}

// refTable returns the table of a registered model, falling back to the
// namer for unknown names.
func (r *Registry) refTable(model string) string {
	if m, ok := r.models[model]; ok {
		return m.table
	}
	return r.tableOf(model)
}

func (r *Registry) build(name string, s Interface) (*Model, error) {
	m := &Model{
		name:   name,
		table:  r.tableOf(name),
		index:  make(map[string]int),
		edgeIx: make(map[string]*edge.Descriptor),
		reg:    r,
	}
	if t := s.Config().Table; t != "" {
		m.table = t
	}
	var (
		fields []Field
		edges  []Edge
	)
	for _, mx := range s.Mixin() {
		fields = append(fields, mx.Fields()...)
		edges = append(edges, mx.Edges()...)
		m.hooks = append(m.hooks, mx.Hooks()...)
	}
	fields = append(fields, s.Fields()...)
	edges = append(edges, s.Edges()...)
	m.hooks = append(m.hooks, s.Hooks()...)

	var errs []error
	for _, f := range fields {
		d := *f.Descriptor()
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("norm: %s: %w", name, err))
			continue
		}
		if _, ok := m.index[d.Name]; ok {
			errs = append(errs, fmt.Errorf("norm: %s: duplicate field %q", name, d.Name))
			continue
		}
		if d.Primary {
			if m.pk != nil {
				errs = append(errs, fmt.Errorf("norm: %s: multiple primary keys %q and %q", name, m.pk.Name, d.Name))
				continue
			}
			m.pk = &d
		}
		m.index[d.Name] = len(m.fields)
		m.fields = append(m.fields, &d)
	}
	for _, e := range edges {
		d := *e.Descriptor()
		switch _, clash := m.index[d.Name]; {
		case d.Err != nil:
			errs = append(errs, fmt.Errorf("norm: %s: %w", name, d.Err))
		case clash:
			errs = append(errs, fmt.Errorf("norm: %s: edge %q shadows a field", name, d.Name))
		case m.edgeIx[d.Name] != nil:
			errs = append(errs, fmt.Errorf("norm: %s: duplicate edge %q", name, d.Name))
		default:
			m.edgeIx[d.Name] = &d
			m.edges = append(m.edges, &d)
		}
	}
	if m.pk == nil && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("norm: %s: no primary key field", name))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Model is the registered form of a schema: its fields in declaration
// order, its primary key and its edges.
type Model struct {
	name   string
	table  string
	fields []*field.Descriptor
	index  map[string]int
	pk     *field.Descriptor
	edges  []*edge.Descriptor
	edgeIx map[string]*edge.Descriptor
	hooks  []Hook
	reg    *Registry
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Table returns the table name.
func (m *Model) Table() string { return m.table }

// Fields returns the field descriptors in declaration order. The
// descriptors are shared templates and must not be modified.
func (m *Model) Fields() []*field.Descriptor { return m.fields }

// Field returns the descriptor of the named field.
func (m *Model) Field(name string) (*field.Descriptor, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.fields[i], true
}

// PrimaryKey returns the primary key descriptor.
func (m *Model) PrimaryKey() *field.Descriptor { return m.pk }

// Edges returns the collection edges.
func (m *Model) Edges() []*edge.Descriptor { return m.edges }

// Edge returns the named edge.
func (m *Model) Edge(name string) (*edge.Descriptor, bool) {
	e, ok := m.edgeIx[name]
	return e, ok
}

// Schema returns the DDL model of the table.
func (m *Model) Schema() *schema.Table {
	t := schema.NewTable(m.table)
	for _, f := range m.fields {
		t.AddColumn(schema.ColumnOf(f, m.reg.refTable))
	}
	return t
}

// CreateTableSQL returns the CREATE TABLE statement of the model.
func (m *Model) CreateTableSQL() string { return m.Schema().CreateSQL() }

// DropTableSQL returns the DROP TABLE statement of the model.
func (m *Model) DropTableSQL() string { return m.Schema().DropSQL() }

func (m *Model) column(f *field.Descriptor) string {
	return m.table + "." + f.Name
}

func (m *Model) columns() []string {
	cols := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = m.column(f)
	}
	return cols
}

func (m *Model) target(f *field.Descriptor) (*Model, error) {
	t, ok := m.reg.models[f.Ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s references %s", ErrUnknownModel, m.name, f.Name, f.Ref)
	}
	return t, nil
}
