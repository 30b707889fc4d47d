package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeEmptyGraph        = "EMPTY_GRAPH"
	ErrCodeNoEntryPoint      = "NO_ENTRY_POINT"
	ErrCodeNoExitPoint       = "NO_EXIT_POINT"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeMultipleEntries   = "MULTIPLE_ENTRY_POINTS"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodePersistence       = "PERSISTENCE_ERROR"
	ErrCodeInterpolation     = "INTERPOLATION_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeNotFound          = "NOT_FOUND"
)

// WorkflowError is the structured error type for all graph engine operations.
type WorkflowError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *WorkflowError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// NewError creates a new WorkflowError.
func NewError(code, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message}
}

// NewErrorf creates a new WorkflowError with a formatted message.
func NewErrorf(code, format string, args ...any) *WorkflowError {
	return &WorkflowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *WorkflowError) WithNode(nodeID string) *WorkflowError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *WorkflowError) WithCause(err error) *WorkflowError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *WorkflowError) WithDetails(details map[string]any) *WorkflowError {
	e.Details = details
	return e
}

// ErrorCode extracts the code from a WorkflowError, or "" for other errors.
func ErrorCode(err error) string {
	if werr, ok := err.(*WorkflowError); ok {
		return werr.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND WorkflowError.
func IsNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeNotFound
}
