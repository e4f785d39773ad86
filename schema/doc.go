// Package schema groups the building blocks used to declare norm models.
//
// Subpackages:
//
//   - [field]: column builders and the value conversions behind them
//   - [edge]: has-many and many-to-many collections
//   - [mixin]: base mixins and mixin wrappers
//
// A model embeds norm.Schema and overrides the parts it needs:
//
//	type Post struct{ norm.Schema }
//
//	func (Post) Mixin() []norm.Mixin {
//	    return []norm.Mixin{mixin.Time{}}
//	}
//
//	func (Post) Fields() []norm.Field {
//	    return []norm.Field{
//	        field.Primary("id"),
//	        field.String("title").NotNull(),
//	        field.Reference("author", "Person").Index(),
//	    }
//	}
//
//	func (Post) Edges() []norm.Edge {
//	    return []norm.Edge{
//	        edge.ManyToMany("tags", "Tag").Through("PostTag"),
//	    }
//	}
//
// Mixin fields come before the model's own fields, and the column order of
// the table is the resulting field order.
//
// Reusable mixins that need third-party packages live in contrib/mixin.
package schema
