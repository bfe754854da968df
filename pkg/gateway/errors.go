package gateway

import "fmt"

// ValidationError is resolved locally; a request failing validation never
// reaches the transport layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %s: %s", e.Field, e.Message)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "required field is missing"}
}
