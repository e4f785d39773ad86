// Package mixin provides the base mixin implementation for norm schemas.
//
// A mixin is a reusable set of fields, edges and hooks shared by several
// schema types. Mixin fields come before the fields declared by the schema
// itself, and mixin hooks run before the schema hooks.
//
// # Creating Custom Mixins
//
// Embed Schema and override the methods you need:
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Fields() []norm.Field {
//	    return []norm.Field{
//	        field.String("created_by"),
//	        field.String("updated_by"),
//	    }
//	}
//
// # Using Mixins
//
//	func (Person) Mixin() []norm.Mixin {
//	    return []norm.Mixin{
//	        mixin.Time{},
//	        Audit{},
//	    }
//	}
//
// The resulting Person table starts with the created_at and updated_at
// columns, followed by created_by, updated_by and the fields of Person.
//
// # Wrapping Mixins
//
// IndexFields and CommentFields adjust every field of a mixin without
// redeclaring it:
//
//	mixin.IndexFields(Audit{})
//	mixin.CommentFields(Audit{}, "audit trail")
//
// Ready-to-use mixins for keys, tokens and tenancy live in contrib/mixin.
package mixin
