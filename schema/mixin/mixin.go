package mixin

import (
	"github.com/syssam/norm"
	"github.com/syssam/norm/schema/field"
)

// Schema is the default implementation for the norm.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []norm.Field { return nil }

// Edges returns the edges of the mixin.
func (Schema) Edges() []norm.Edge { return nil }

// Hooks returns the hooks of the mixin.
func (Schema) Hooks() []norm.Hook { return nil }

// schema mixin must implement `Mixin` interface.
var _ norm.Mixin = (*Schema)(nil)

// Time adds created_at and updated_at timestamps maintained by the
// database. Both are skipped by INSERT and UPDATE.
//
//	func (Person) Mixin() []norm.Mixin {
//	    return []norm.Mixin{
//	        mixin.Time{},
//	    }
//	}
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []norm.Field {
	return append(CreateTime{}.Fields(), UpdateTime{}.Fields()...)
}

// CreateTime adds only the created_at timestamp.
type CreateTime struct {
	Schema
}

// Fields returns the created_at field.
func (CreateTime) Fields() []norm.Field {
	return []norm.Field{
		field.Created("created_at").
			Comment("Timestamp when the row was inserted"),
	}
}

// UpdateTime adds only the updated_at timestamp.
type UpdateTime struct {
	Schema
}

// Fields returns the updated_at field.
func (UpdateTime) Fields() []norm.Field {
	return []norm.Field{
		field.Updated("updated_at").
			Comment("Timestamp when the row was last written"),
	}
}

// IndexFields wraps a mixin and indexes all its fields.
func IndexFields(m norm.Mixin) norm.Mixin {
	return fieldWrapper{Mixin: m, apply: func(d *field.Descriptor) {
		d.Indexed = true
	}}
}

// CommentFields wraps a mixin and sets the comment of every field that has
// none.
func CommentFields(m norm.Mixin, comment string) norm.Mixin {
	return fieldWrapper{Mixin: m, apply: func(d *field.Descriptor) {
		if d.Comment == "" {
			d.Comment = comment
		}
	}}
}

type fieldWrapper struct {
	norm.Mixin
	apply func(*field.Descriptor)
}

func (w fieldWrapper) Fields() []norm.Field {
	fields := w.Mixin.Fields()
	for i := range fields {
		w.apply(fields[i].Descriptor())
	}
	return fields
}
