package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Structural error codes reported by the integrity checker.
const (
	ErrMissingKind       ErrorCode = "MISSING_KIND"
	ErrEmptySelection    ErrorCode = "EMPTY_SELECTION"
	ErrEmptyInput        ErrorCode = "EMPTY_INPUT"
	ErrUnknownKind       ErrorCode = "UNKNOWN_KIND"
	ErrUnknownNode       ErrorCode = "UNKNOWN_NODE"
	ErrUnknownPort       ErrorCode = "UNKNOWN_PORT"
	ErrPortDirection     ErrorCode = "PORT_DIRECTION"
	ErrCycleDetected     ErrorCode = "CYCLE_DETECTED"
	ErrDuplicateNode     ErrorCode = "DUPLICATE_NODE"
	ErrDuplicateEdge     ErrorCode = "DUPLICATE_EDGE"
	ErrIllegalTransition ErrorCode = "ILLEGAL_TRANSITION"
)

// Execution error codes reported during a run.
const (
	ErrInvokeFailed   ErrorCode = "INVOKE_FAILED"
	ErrInvokeRejected ErrorCode = "INVOKE_REJECTED"
	ErrTimeout        ErrorCode = "TIMEOUT"
	ErrCanceled       ErrorCode = "CANCELED"
	ErrInternal       ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.NodeID != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] node %s: %s: %v", e.Code, e.NodeID, e.Message, e.Cause)
	case e.NodeID != "":
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode attaches the offending node id.
func (e *Error) WithNode(nodeID string) *Error {
	e.NodeID = nodeID
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
