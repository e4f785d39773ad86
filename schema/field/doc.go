// Package field provides fluent builders for the columns of a norm schema.
//
// A builder produces a Descriptor, the schema-level template of a column.
// Records never share descriptor state: each record holds a Value created
// from the descriptor, which owns coercion, the null policy and the dirty
// flag.
//
// # Field Types
//
//	field.Primary("id")                // INT UNSIGNED NOT NULL PRIMARY KEY AUTO_INCREMENT
//	field.Int("age").Default(40)       // INT
//	field.Uint("visits")               // INT UNSIGNED
//	field.Float("wage")                // DOUBLE
//	field.Bool("landlocked")           // BOOL
//	field.String("name").Length(200)   // TINYTEXT, TEXT above 255
//	field.Time("born")                 // TIMESTAMP set by the application
//	field.Created("created")           // TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	field.Updated("updated")           // ... ON UPDATE CURRENT_TIMESTAMP
//	field.Dict("address")              // JSON object stored as TEXT
//	field.List("tags")                 // JSON array stored as TEXT
//	field.UUID("token")                // CHAR(36)
//	field.Reference("city", "City")    // INT UNSIGNED holding City's key
//
// # Options
//
//	field.String("email").
//	    Length(100).
//	    Unique().      // inline UNIQUE, or UNIQUE KEY(...) when indexed
//	    Index(10).     // INDEX(email(10))
//	    NotNull()
//
// # Coercion
//
// Every Go integer kind widens to int64, float32 widens to float64, and
// []byte or named string kinds are accepted by string fields. Anything else
// fails with a *TypeMismatchError; nil on a NotNull field fails with a
// *NullNotAllowedError.
package field
