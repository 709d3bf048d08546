package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Task record errors
	ErrUnknownField    = fmt.Errorf("unknown field")
	ErrUnsupportedType = fmt.Errorf("unsupported custom field type")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("remote entity not found")
	ErrInvalidSignature   = fmt.Errorf("invalid webhook signature")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// FieldError reports access to a field identifier outside the fixed task schema.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownField, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrUnknownField }

// UnsupportedTypeError reports a value that has no custom field encoding, or a custom field variant that has no value mapping.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%v: %T", ErrUnsupportedType, e.Value)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// NotFoundError reports that a remote entity no longer exists.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
