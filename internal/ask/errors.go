package ask

import "net/http"

// Kind classifies a pipeline failure for the HTTP layer.
type Kind int

const (
	// KindRejected means a safety rule refused the request before or after
	// generation.
	KindRejected Kind = iota
	// KindExecution means the database rejected or failed the generated
	// query.
	KindExecution
	// KindSchema means catalog introspection failed.
	KindSchema
	// KindBackend means the completion backend failed or returned nothing.
	KindBackend
)

// Error carries the failure kind alongside the underlying cause. Rule is set
// for KindRejected and names the safety rule that fired.
type Error struct {
	Kind Kind
	Rule string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindRejected, KindExecution:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) Code() string {
	switch e.Kind {
	case KindRejected:
		return "QUERY_REJECTED"
	case KindExecution:
		return "EXECUTION_FAILED"
	case KindSchema:
		return "SCHEMA_UNAVAILABLE"
	default:
		return "GENERATION_FAILED"
	}
}

// Retryable reports whether the caller may usefully resend the same request.
func (e *Error) Retryable() bool {
	return e.Kind == KindSchema || e.Kind == KindBackend
}
