// Package edge provides builders for the collection edges of a norm schema.
//
// Single-valued references are plain fields (field.Reference). Edges are
// the computed side: they are never stored and are resolved lazily, per
// record, by scanning the target type for the reference fields that point
// back at the owner.
//
//	// City has field.Reference("state", "State").
//	func (State) Edges() []norm.Edge {
//	    return []norm.Edge{
//	        edge.HasMany("cities", "City"),
//	    }
//	}
//
// When the target references the owner more than once, name the field:
//
//	edge.HasMany("born_here", "Person").Field("birth_city")
//
// Many-to-many edges go through a join type holding one reference to each
// end. The join type is inferred when exactly one registered type
// qualifies, or declared explicitly:
//
//	edge.ManyToMany("tags", "Tag").Through("PostTag")
package edge
