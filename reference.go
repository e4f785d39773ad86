package norm

import (
	"context"
	"fmt"

	"github.com/syssam/norm/schema/edge"
	"github.com/syssam/norm/schema/field"
)

// Ref loads the record referenced by the named reference field. A NULL
// reference and a key with no matching row both return a nil record and a
// nil error.
func (r *Record) Ref(ctx context.Context, name string) (*Record, error) {
	v, err := r.value(name)
	if err != nil {
		return nil, err
	}
	f := v.Descriptor()
	if !f.IsReference() {
		return nil, fmt.Errorf("%w: %s.%s is not a reference field", ErrUnknownField, r.model.name, name)
	}
	key := v.Raw()
	if key == nil {
		return nil, nil
	}
	target, err := r.model.target(f)
	if err != nil {
		return nil, err
	}
	mc := &ModelClient{client: r.client, model: target}
	rec, err := mc.Get(ctx, key)
	if IsNotFound(err) {
		return nil, nil
	}
	return rec, err
}

// Collection returns the records of the named edge. The result is loaded
// on first access and kept by the record; use Related for a fresh query.
// A record that is not persisted has no related records.
func (r *Record) Collection(ctx context.Context, name string) ([]*Record, error) {
	if recs, ok := r.collections[name]; ok {
		return recs, nil
	}
	q, err := r.Related(name)
	if err != nil {
		return nil, err
	}
	if _, ok := r.KeyValue(); !ok {
		return []*Record{}, nil
	}
	recs, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*Record{}
	}
	if r.collections == nil {
		r.collections = make(map[string][]*Record)
	}
	r.collections[name] = recs
	return recs, nil
}

// Related returns a query over the records of the named edge.
//
//	q, err := state.Related("cities")
//	cities, err := q.Order("name", norm.Asc).All(ctx)
func (r *Record) Related(name string) (*Query, error) {
	e, ok := r.model.Edge(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no edge %q", ErrUnknownField, r.model.name, name)
	}
	target, ok := r.model.reg.Model(e.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s targets %s", ErrUnknownModel, r.model.name, e.Name, e.Target)
	}
	q := newQuery(r.client, target)
	switch e.Kind {
	case edge.HasManyKind:
		f, err := r.model.backReference(e, target)
		if err != nil {
			return nil, err
		}
		q.filters[f.Name] = r.Key()
	case edge.ManyToManyKind:
		j, err := r.model.joinOf(e, target, r.client.strictJoins)
		if err != nil {
			return nil, err
		}
		q.link = &link{
			table:  j.model.table,
			owner:  j.model.column(j.owner),
			target: j.model.column(j.target),
			key:    r.Key(),
		}
	default:
		return nil, fmt.Errorf("norm: %s.%s: unsupported edge kind %s", r.model.name, e.Name, e.Kind)
	}
	return q, nil
}

// backReference finds the field of target referencing m for a has-many
// edge.
func (m *Model) backReference(e *edge.Descriptor, target *Model) (*field.Descriptor, error) {
	if e.Field != "" {
		f, ok := target.Field(e.Field)
		if !ok || f.Ref != m.name {
			return nil, &NoJoinFoundError{Model: m.name, Edge: e.Name, Target: target.name}
		}
		return f, nil
	}
	refs := target.refsTo(m.name)
	switch len(refs) {
	case 0:
		return nil, &NoJoinFoundError{Model: m.name, Edge: e.Name, Target: target.name}
	case 1:
		return refs[0], nil
	default:
		names := make([]string, len(refs))
		for i, f := range refs {
			names[i] = target.name + "." + f.Name
		}
		return nil, &AmbiguousJoinError{Model: m.name, Edge: e.Name, Candidates: names}
	}
}

// join is the join type of a many-to-many edge with its two references.
type join struct {
	model  *Model
	owner  *field.Descriptor
	target *field.Descriptor
}

// joinOf resolves the join type of a many-to-many edge: the declared one,
// or the only registered type holding exactly one reference to each end.
func (m *Model) joinOf(e *edge.Descriptor, target *Model, strict bool) (*join, error) {
	if e.Through != "" {
		jm, ok := m.reg.Model(e.Through)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s joins through %s", ErrUnknownModel, m.name, e.Name, e.Through)
		}
		j, ok := jm.links(m, target)
		if !ok {
			return nil, &NoJoinFoundError{Model: m.name, Edge: e.Name, Target: target.name}
		}
		return j, nil
	}
	if strict {
		return nil, &AmbiguousJoinError{Model: m.name, Edge: e.Name}
	}
	var found []*join
	for _, jm := range m.reg.order {
		if jm == m || jm == target {
			continue
		}
		if j, ok := jm.links(m, target); ok {
			found = append(found, j)
		}
	}
	switch len(found) {
	case 0:
		return nil, &NoJoinFoundError{Model: m.name, Edge: e.Name, Target: target.name}
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, j := range found {
			names[i] = j.model.name
		}
		return nil, &AmbiguousJoinError{Model: m.name, Edge: e.Name, Candidates: names}
	}
}

// links reports whether m holds exactly one reference to owner and one to
// target. A self-referencing join holds exactly two references to the
// type; the first declared is the owner side.
func (m *Model) links(owner, target *Model) (*join, bool) {
	o, t := m.refsTo(owner.name), m.refsTo(target.name)
	if owner == target {
		if len(o) != 2 {
			return nil, false
		}
		return &join{model: m, owner: o[0], target: o[1]}, true
	}
	if len(o) != 1 || len(t) != 1 {
		return nil, false
	}
	return &join{model: m, owner: o[0], target: t[0]}, true
}

// refsTo returns the reference fields of m pointing at model, in
// declaration order.
func (m *Model) refsTo(model string) []*field.Descriptor {
	var refs []*field.Descriptor
	for _, f := range m.fields {
		if f.IsReference() && f.Ref == model {
			refs = append(refs, f)
		}
	}
	return refs
}
