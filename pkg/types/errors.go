package types

import "fmt"

// ErrorCode classifies a user-facing failure.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNetwork    ErrorCode = "NETWORK_ERROR"
	ErrTimeout    ErrorCode = "TIMEOUT_ERROR"
	ErrRPC        ErrorCode = "RPC_ERROR"
)

// ToolError is the structured error envelope returned to callers. Every
// terminal failure carries a Recovery hint describing the corrective action.
type ToolError struct {
	Code     ErrorCode `json:"error"`
	Message  string    `json:"message"`
	Recovery string    `json:"recovery"`
	Details  any       `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s (recovery: %s)", e.Code, e.Message, e.Recovery)
}

// NewToolError builds a ToolError with the given code, message, and recovery hint.
func NewToolError(code ErrorCode, message, recovery string) *ToolError {
	return &ToolError{Code: code, Message: message, Recovery: recovery}
}
