package domain

import "fmt"

// ValidationKind names why local input was rejected.
type ValidationKind string

const (
	ValidationBothProvided    ValidationKind = "both_provided"
	ValidationNoneProvided    ValidationKind = "none_provided"
	ValidationEmptyAfterParse ValidationKind = "empty_after_parse"
	ValidationInvalidDate     ValidationKind = "invalid_date"
)

// ValidationError is raised before any request is built. It never reaches the network.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
}

// Error formats the validation failure for logs and UI.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("validation %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("validation %s (%s): %s", e.Kind, e.Field, e.Message)
}
