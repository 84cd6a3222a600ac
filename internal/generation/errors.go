package generation

import "fmt"

// ValidationError reports blank or malformed caller input. The caller can fix
// the request and resubmit; nothing was charged or generated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q is required", e.Field)
}

// TemplateError wraps a template build failure. This is a configuration
// problem, not a user-input problem.
type TemplateError struct {
	Err error
}

func (e *TemplateError) Error() string { return fmt.Sprintf("template build failed: %v", e.Err) }
func (e *TemplateError) Unwrap() error { return e.Err }

// ResponseFormatError reports model output that could not be coerced into
// structured data after every recovery step.
type ResponseFormatError struct {
	Operation string
	Err       error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("%s: response is not valid structured data: %v", e.Operation, e.Err)
}
func (e *ResponseFormatError) Unwrap() error { return e.Err }

// ShapeError reports output that parsed as JSON but is missing the keys or
// structure the operation requires. Same severity class as a format error.
type ShapeError struct {
	Operation string
	Reason    string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: response has wrong shape: %s", e.Operation, e.Reason)
}
