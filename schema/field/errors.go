package field

import (
	"errors"
	"fmt"
)

// Validation sentinels. The typed errors below match them with errors.Is.
var (
	ErrTypeMismatch    = errors.New("field: type mismatch")
	ErrNullNotAllowed  = errors.New("field: null not allowed")
	ErrCorruptEncoding = errors.New("field: corrupt encoding")
)

// TypeMismatchError is returned when a value does not have the semantic
// type the field declares.
type TypeMismatchError struct {
	Field  string
	Want   Type
	Value  any
	Reason string
}

// Error returns the error string.
func (e *TypeMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("field %q: cannot assign %T to %s field: %s", e.Field, e.Value, e.Want, e.Reason)
	}
	return fmt.Sprintf("field %q: cannot assign %T to %s field", e.Field, e.Value, e.Want)
}

// Is reports whether the target error matches TypeMismatchError.
func (e *TypeMismatchError) Is(err error) bool {
	return err == ErrTypeMismatch
}

// NullNotAllowedError is returned when nil is assigned to a non-nullable field.
type NullNotAllowedError struct {
	Field string
}

// Error returns the error string.
func (e *NullNotAllowedError) Error() string {
	return fmt.Sprintf("field %q: column does not allow null values", e.Field)
}

// Is reports whether the target error matches NullNotAllowedError.
func (e *NullNotAllowedError) Is(err error) bool {
	return err == ErrNullNotAllowed
}

// CorruptEncodingError is returned when a stored JSON value cannot be
// decoded into the field's structural type within the decode bound.
type CorruptEncodingError struct {
	Field  string
	Rounds int
	Err    error
}

// Error returns the error string.
func (e *CorruptEncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: corrupt encoding after %d decode rounds: %v", e.Field, e.Rounds, e.Err)
	}
	return fmt.Sprintf("field %q: corrupt encoding after %d decode rounds", e.Field, e.Rounds)
}

// Unwrap returns the underlying decode error.
func (e *CorruptEncodingError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches CorruptEncodingError.
func (e *CorruptEncodingError) Is(err error) bool {
	return err == ErrCorruptEncoding
}
