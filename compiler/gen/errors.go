package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Sentinel errors for common failure cases.
var (
	// ErrAmbiguous indicates two declarations of the same role and name.
	ErrAmbiguous = errors.New("spiderly: ambiguous declaration")
	// ErrInvalidSchema indicates a structural model error.
	ErrInvalidSchema = errors.New("spiderly: invalid model")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("spiderly: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("spiderly: code generation failed")
	// ErrValidationFailed indicates a validation failure.
	ErrValidationFailed = errors.New("spiderly: validation failed")
)

// AmbiguityError reports a declaration found twice where only one may exist.
type AmbiguityError struct {
	Role  load.Role
	Name  string
	Units []string // units declaring it
}

// Error implements the error interface.
func (e *AmbiguityError) Error() string {
	var b strings.Builder
	b.WriteString("spiderly: ambiguous ")
	b.WriteString(e.Role.String())
	b.WriteString(" ")
	b.WriteString(e.Name)
	if len(e.Units) > 0 {
		b.WriteString(" declared in ")
		b.WriteString(strings.Join(e.Units, " and "))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for AmbiguityError.
func (e *AmbiguityError) Is(target error) bool {
	return target == ErrAmbiguous
}

// NewAmbiguityError creates a new AmbiguityError.
func NewAmbiguityError(role load.Role, name string, units ...string) *AmbiguityError {
	return &AmbiguityError{Role: role, Name: name, Units: units}
}

// StructuralError represents a model that cannot be classified or emitted,
// e.g. an entity whose identifier type cannot be resolved.
type StructuralError struct {
	Type    string // declaration name
	Field   string // property name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString("spiderly: structural error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for StructuralError.
func (e *StructuralError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewStructuralError creates a new StructuralError.
func NewStructuralError(typeName, fieldName, message string, cause error) *StructuralError {
	return &StructuralError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("spiderly: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("spiderly: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a failure to produce one artifact.
type GenerationError struct {
	Artifact string // artifact name, e.g. "apiclient"
	File     string // output file (if known)
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("spiderly: generation failed")
	if e.Artifact != "" {
		b.WriteString(" for ")
		b.WriteString(e.Artifact)
	}
	if e.File != "" {
		b.WriteString(" (")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(artifact, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Artifact: artifact,
		File:     file,
		Message:  message,
		Cause:    cause,
	}
}

// ValidationError represents a model that classifies but fails a check
// requested by configuration.
type ValidationError struct {
	Type    string
	Field   string
	Value   any
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("spiderly: validation failed")
	if e.Type != "" {
		b.WriteString(" for ")
		b.WriteString(e.Type)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (value: %v)", e.Value)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(typeName, field string, value any, message string, cause error) *ValidationError {
	return &ValidationError{
		Type:    typeName,
		Field:   field,
		Value:   value,
		Message: message,
		Cause:   cause,
	}
}

// IsAmbiguityError reports whether err is or wraps an AmbiguityError.
func IsAmbiguityError(err error) bool {
	var e *AmbiguityError
	return errors.As(err, &e)
}

// IsStructuralError reports whether err is or wraps a StructuralError.
func IsStructuralError(err error) bool {
	var e *StructuralError
	return errors.As(err, &e)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsGenerationError reports whether err is or wraps a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
