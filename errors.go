package norm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/norm/schema/field"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotConnected is returned by every operation that needs the database
	// before Connect succeeded or after Close.
	ErrNotConnected = errors.New("norm: not connected to the database")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("norm: record not found")

	// ErrAmbiguousJoin is returned when a collection edge matches several
	// reference fields or join types.
	ErrAmbiguousJoin = errors.New("norm: ambiguous join")

	// ErrNoJoinFound is returned when a collection edge matches no
	// reference field or join type.
	ErrNoJoinFound = errors.New("norm: no join found")

	// ErrOutOfRange is returned when a window starts at or past the last row.
	ErrOutOfRange = errors.New("norm: window start out of range")

	// ErrNotPersisted is returned when updating or deleting a record that
	// was never inserted.
	ErrNotPersisted = errors.New("norm: record is not persisted")

	// ErrQueryCompiled is returned when a query is modified after it
	// produced its SQL.
	ErrQueryCompiled = errors.New("norm: query modified after compilation")

	// ErrQueryClosed is returned when reading the row count of a query
	// closed before the count was known.
	ErrQueryClosed = errors.New("norm: query closed")

	// ErrUnknownField is returned for names that are not fields of a type.
	ErrUnknownField = errors.New("norm: unknown field")

	// ErrUnknownModel is returned for type names missing from the registry.
	ErrUnknownModel = errors.New("norm: unknown model")

	// ErrMultiHopJoin is returned for filter keys crossing more than one
	// reference.
	ErrMultiHopJoin = errors.New("norm: multi-hop joins are not supported")

	// ErrJoinedMutation is returned when an UPDATE or DELETE filters on a
	// referenced type.
	ErrJoinedMutation = errors.New("norm: update and delete cannot join other tables")
)

// Field validation errors, shared with the field package.
var (
	ErrTypeMismatch    = field.ErrTypeMismatch
	ErrNullNotAllowed  = field.ErrNullNotAllowed
	ErrCorruptEncoding = field.ErrCorruptEncoding
)

type (
	// TypeMismatchError is returned when a value has the wrong semantic type.
	TypeMismatchError = field.TypeMismatchError
	// NullNotAllowedError is returned when nil is assigned to a NOT NULL field.
	NullNotAllowedError = field.NullNotAllowedError
	// CorruptEncodingError is returned when a JSON field cannot be decoded.
	CorruptEncodingError = field.CorruptEncodingError
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("norm: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("norm: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the model name.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given model and key.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// AmbiguousJoinError reports a collection edge that resolved to several
// candidates, or a many-to-many edge without a declared join type under
// strict joins.
type AmbiguousJoinError struct {
	Model      string
	Edge       string
	Candidates []string
}

// Error returns the error string.
func (e *AmbiguousJoinError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("norm: %s.%s: join type must be declared with Through", e.Model, e.Edge)
	}
	return fmt.Sprintf("norm: %s.%s: ambiguous join between %s", e.Model, e.Edge, strings.Join(e.Candidates, ", "))
}

// Is reports whether the target error matches AmbiguousJoinError.
func (e *AmbiguousJoinError) Is(err error) bool {
	return err == ErrAmbiguousJoin
}

// NoJoinFoundError reports a collection edge with no matching reference.
type NoJoinFoundError struct {
	Model  string
	Edge   string
	Target string
}

// Error returns the error string.
func (e *NoJoinFoundError) Error() string {
	return fmt.Sprintf("norm: %s.%s: no reference links %s to %s", e.Model, e.Edge, e.Target, e.Model)
}

// Is reports whether the target error matches NoJoinFoundError.
func (e *NoJoinFoundError) Is(err error) bool {
	return err == ErrNoJoinFound
}

// OutOfRangeError reports a window start that is not below the row count.
type OutOfRangeError struct {
	Start int
	Count int
}

// Error returns the error string.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("norm: window start %d out of range for %d rows", e.Start, e.Count)
}

// Is reports whether the target error matches OutOfRangeError.
func (e *OutOfRangeError) Is(err error) bool {
	return err == ErrOutOfRange
}

// IsOutOfRange returns true if the error is an OutOfRangeError.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("norm: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "norm: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("norm: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Model being queried
	Op     string // Operation (e.g., "select", "count", "get")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("norm: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("norm: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Model being mutated
	Op     string // Operation (e.g., "insert", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("norm: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

func unknownField(model, name string) error {
	return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, model, name)
}
