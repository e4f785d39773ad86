package edge

import "fmt"

// Kind is the cardinality of a collection edge.
type Kind uint8

// Edge kinds.
const (
	// HasManyKind collects the records of the target type whose reference
	// field points back at the owner.
	HasManyKind Kind = iota + 1
	// ManyToManyKind collects target records linked through a join type
	// that references both ends.
	ManyToManyKind
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case HasManyKind:
		return "has-many"
	case ManyToManyKind:
		return "many-to-many"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Descriptor describes a collection edge. Edges are not stored; they are
// resolved against the registered types the first time a record reads them.
type Descriptor struct {
	Name    string
	Kind    Kind
	Target  string
	Field   string // back-reference field on the target (has-many)
	Through string // join type (many-to-many)
	Comment string
	Err     error
}

// Builder configures an edge Descriptor.
type Builder struct {
	desc *Descriptor
}

// HasMany returns a builder for the records of target that reference the
// owner type.
//
//	edge.HasMany("cities", "City")
func HasMany(name, target string) *Builder {
	return newBuilder(name, target, HasManyKind)
}

// ManyToMany returns a builder for the target records linked to the owner
// through a join type. The join type is inferred unless Through is called.
//
//	edge.ManyToMany("tags", "Tag").Through("PostTag")
func ManyToMany(name, target string) *Builder {
	return newBuilder(name, target, ManyToManyKind)
}

func newBuilder(name, target string, k Kind) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Target: target, Kind: k}}
	if target == "" {
		b.desc.Err = fmt.Errorf("edge %q: missing target type", name)
	}
	return b
}

// Field names the reference field on the target that points back at the
// owner. Required when the target references the owner more than once.
func (b *Builder) Field(name string) *Builder {
	if b.desc.Kind != HasManyKind {
		b.desc.Err = fmt.Errorf("edge %q: Field is only valid for has-many edges", b.desc.Name)
		return b
	}
	b.desc.Field = name
	return b
}

// Through declares the join type of a many-to-many edge.
func (b *Builder) Through(join string) *Builder {
	if b.desc.Kind != ManyToManyKind {
		b.desc.Err = fmt.Errorf("edge %q: Through is only valid for many-to-many edges", b.desc.Name)
		return b
	}
	b.desc.Through = join
	return b
}

// Comment attaches a description to the edge.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor returns the built descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
