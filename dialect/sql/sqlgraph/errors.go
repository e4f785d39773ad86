// Package sqlgraph classifies driver errors raised by the database.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048 // Column cannot be null
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if hasNumber(err, mysqlDuplicateEntry) {
		return true
	}
	// Fallback to string matching for drivers that don't expose a code.
	return containsAny(err.Error(),
		"Error 1062",               // MySQL (string fallback)
		"UNIQUE constraint failed", // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if hasNumber(err, mysqlForeignKeyParent, mysqlForeignKeyChild) {
		return true
	}
	return containsAny(err.Error(),
		"Error 1451",                    // MySQL (Cannot delete or update a parent row)
		"Error 1452",                    // MySQL (Cannot add or update a child row)
		"FOREIGN KEY constraint failed", // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if hasNumber(err, mysqlCheckConstraintViolate) {
		return true
	}
	return containsAny(err.Error(),
		"Error 3819",              // MySQL
		"CHECK constraint failed", // SQLite
	)
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if hasNumber(err, mysqlBadNull) {
		return true
	}
	return containsAny(err.Error(),
		"Error 1048",                 // MySQL
		"NOT NULL constraint failed", // SQLite
	)
}

// hasNumber reports whether err carries one of the given MySQL error numbers.
func hasNumber(err error, numbers ...uint16) bool {
	var num uint16
	if me, ok := asError[*mysql.MySQLError](err); ok {
		num = me.Number
	} else if e, ok := asError[errorNumberer](err); ok {
		num = e.Number()
	} else {
		return false
	}
	for _, n := range numbers {
		if n == num {
			return true
		}
	}
	return false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
