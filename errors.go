package spiderly

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for generated handlers and predicate builders.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("spiderly: entity not found")

	// ErrUnsupportedMatchMode is returned by generated predicate builders
	// when a filter rule uses a match mode its field kind does not support.
	ErrUnsupportedMatchMode = errors.New("spiderly: unsupported match mode")

	// ErrInvalidFilterValue is returned when a filter rule value cannot be
	// decoded into the field type.
	ErrInvalidFilterValue = errors.New("spiderly: invalid filter value")

	errMissingValue = errors.New("missing value")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("spiderly: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("spiderly: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
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

// MatchModeError reports a match mode that is not supported by the kind
// of the filtered field, e.g. greater-than on a text field.
type MatchModeError struct {
	Entity string
	Field  string
	Kind   string
	Mode   MatchMode
}

// Error returns the error string.
func (e *MatchModeError) Error() string {
	return fmt.Sprintf("spiderly: invalid match mode %s for %s field %s.%s", e.Mode, e.Kind, e.Entity, e.Field)
}

// Is reports whether the target error matches ErrUnsupportedMatchMode.
func (e *MatchModeError) Is(err error) bool {
	return err == ErrUnsupportedMatchMode
}

// NewMatchModeError returns a new MatchModeError.
func NewMatchModeError(entity, field, kind string, mode MatchMode) *MatchModeError {
	return &MatchModeError{Entity: entity, Field: field, Kind: kind, Mode: mode}
}

// IsMatchModeError returns true if the error is a MatchModeError.
func IsMatchModeError(err error) bool {
	if err == nil {
		return false
	}
	var e *MatchModeError
	return errors.As(err, &e)
}

// FilterValueError reports a filter rule value that cannot be decoded.
type FilterValueError struct {
	Mode  MatchMode
	Value string
	Cause error
}

// Error returns the error string.
func (e *FilterValueError) Error() string {
	return fmt.Sprintf("spiderly: invalid %s filter value %s: %v", e.Mode, e.Value, e.Cause)
}

// Unwrap returns the underlying error.
func (e *FilterValueError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches ErrInvalidFilterValue.
func (e *FilterValueError) Is(err error) bool {
	return err == ErrInvalidFilterValue
}

// BusinessError is an expected failure whose message is shown to the user.
type BusinessError struct {
	Message string
}

// Error returns the error string.
func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError returns a new BusinessError.
func NewBusinessError(format string, args ...any) *BusinessError {
	return &BusinessError{Message: fmt.Sprintf(format, args...)}
}

// IsBusinessError returns true if the error is a BusinessError.
func IsBusinessError(err error) bool {
	if err == nil {
		return false
	}
	var e *BusinessError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "spiderly: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("spiderly: multiple errors:")
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
