// Package mixin provides common mixin implementations for norm schemas.
//
// These mixins are OPTIONAL and provided as convenient starting points.
// The timestamp mixins live in schema/mixin.
//
// Available mixins:
//   - ID: Adds the auto-incremented primary key
//   - Token: Adds a random UUID token generated for every new record
//   - SoftDelete: Adds deleted_at field for soft deletion
//   - TenantID: Adds tenant_id field for multi-tenancy
//   - TimeSoftDelete: Combines Time and SoftDelete
//
// Usage:
//
//	import "github.com/syssam/norm/contrib/mixin"
//
//	func (Person) Mixin() []norm.Mixin {
//	    return []norm.Mixin{
//	        mixin.ID{},
//	        mixin.Token{},
//	    }
//	}
package mixin

import (
	"github.com/google/uuid"

	"github.com/syssam/norm"
	"github.com/syssam/norm/schema/field"
	"github.com/syssam/norm/schema/mixin"
)

// ID adds the id primary key.
//
// Generated field:
//
//	id INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT
type ID struct{ mixin.Schema }

// Fields of the ID mixin.
func (ID) Fields() []norm.Field {
	return []norm.Field{
		field.Primary("id"),
	}
}

// id mixin must implement `Mixin` interface.
var _ norm.Mixin = (*ID)(nil)

// Token adds a unique token field holding a random UUID. The token is
// generated when the record is created in memory, so it is known before
// insert.
//
// Generated field:
//
//	token CHAR(36) UNIQUE NOT NULL
type Token struct{ mixin.Schema }

// Fields of the Token mixin.
func (Token) Fields() []norm.Field {
	return []norm.Field{
		field.UUID("token").
			NotNull().
			Unique().
			DefaultFunc(func() any { return uuid.New() }),
	}
}

// token mixin must implement `Mixin` interface.
var _ norm.Mixin = (*Token)(nil)

// SoftDelete adds a deleted_at field for soft deletion.
// Rows are not physically deleted but marked with a deletion timestamp;
// filter them with Where(norm.Values{"deleted_at": nil}).
//
// Generated field:
//
//	deleted_at TIMESTAMP
type SoftDelete struct{ mixin.Schema }

// Fields of the SoftDelete mixin.
func (SoftDelete) Fields() []norm.Field {
	return []norm.Field{
		field.Time("deleted_at").
			Index(),
	}
}

// soft delete mixin must implement `Mixin` interface.
var _ norm.Mixin = (*SoftDelete)(nil)

// TenantID adds an indexed tenant_id field for multi-tenancy support.
//
// For different naming conventions, create your own mixin:
//
//	type WorkspaceID struct{ mixin.Schema }
//
//	func (WorkspaceID) Fields() []norm.Field {
//	    return []norm.Field{
//	        field.String("workspace_id").NotNull().Length(64).Index(),
//	    }
//	}
type TenantID struct{ mixin.Schema }

// Fields of the TenantID mixin.
func (TenantID) Fields() []norm.Field {
	return []norm.Field{
		field.String("tenant_id").
			NotNull().
			Length(64).
			Index(16),
	}
}

// tenant id mixin must implement `Mixin` interface.
var _ norm.Mixin = (*TenantID)(nil)

// TimeSoftDelete composes Time and SoftDelete mixins.
// Provides created_at, updated_at, and deleted_at fields.
type TimeSoftDelete struct{ mixin.Schema }

// Fields of the TimeSoftDelete mixin.
func (TimeSoftDelete) Fields() []norm.Field {
	return append(
		mixin.Time{}.Fields(),
		SoftDelete{}.Fields()...,
	)
}

// time soft delete mixin must implement `Mixin` interface.
var _ norm.Mixin = (*TimeSoftDelete)(nil)
