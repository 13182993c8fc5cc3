// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Reasons lists every violated rule of a multi-reason validation failure.
type APIError struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

func WithReasons(msg string, reasons []string) *APIError {
	return &APIError{Message: msg, Reasons: reasons}
}

// Validation wraps request field errors reported by struct tags.
type ValidationError struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}
