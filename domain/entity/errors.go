package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies recovery errors for callers and the HTTP layer
type ErrorCode string

const (
	// Registry errors
	ErrCodeUnknownScenario   ErrorCode = "UNKNOWN_SCENARIO"
	ErrCodeUnknownExecution  ErrorCode = "UNKNOWN_EXECUTION"
	ErrCodeInvalidScenario   ErrorCode = "INVALID_SCENARIO"
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"

	// Scheduling errors
	ErrCodeDependencyCycle   ErrorCode = "DEPENDENCY_CYCLE"
	ErrCodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"

	// Execution errors
	ErrCodeStepExecutionFailed ErrorCode = "STEP_EXECUTION_FAILED"
	ErrCodeRollbackFailed      ErrorCode = "ROLLBACK_FAILED"
	ErrCodeRecoveryInProgress  ErrorCode = "RECOVERY_IN_PROGRESS"
)

// RecoveryError is a coded error carrying optional detail and cause
type RecoveryError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *RecoveryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *RecoveryError) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying cause
func (e *RecoveryError) WithCause(cause error) *RecoveryError {
	e.Cause = cause
	return e
}

// WithContext attaches a key/value pair to the error
func (e *RecoveryError) WithContext(key string, value interface{}) *RecoveryError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error code to an HTTP status code
func (e *RecoveryError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnknownScenario, ErrCodeUnknownExecution:
		return http.StatusNotFound
	case ErrCodeAlreadyRegistered, ErrCodeRecoveryInProgress:
		return http.StatusConflict
	case ErrCodeInvalidScenario, ErrCodeDependencyCycle, ErrCodeUnknownDependency:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewRecoveryError creates a coded error
func NewRecoveryError(code ErrorCode, message string) *RecoveryError {
	return &RecoveryError{Code: code, Message: message}
}

// NewRecoveryErrorWithDetails creates a coded error with a detail string
func NewRecoveryErrorWithDetails(code ErrorCode, message, details string) *RecoveryError {
	return &RecoveryError{Code: code, Message: message, Details: details}
}

// AsRecoveryError extracts a RecoveryError from the error chain
func AsRecoveryError(err error) *RecoveryError {
	var recErr *RecoveryError
	if errors.As(err, &recErr) {
		return recErr
	}
	return nil
}

// HasErrorCode checks whether the error chain carries the given code
func HasErrorCode(err error, code ErrorCode) bool {
	if recErr := AsRecoveryError(err); recErr != nil {
		return recErr.Code == code
	}
	return false
}

// IsUnresolvableDependencies reports whether the error is either of the two
// scheduling failures. Cycles and dangling references are distinct codes but
// both abort a trigger before any step runs.
func IsUnresolvableDependencies(err error) bool {
	return HasErrorCode(err, ErrCodeDependencyCycle) || HasErrorCode(err, ErrCodeUnknownDependency)
}

// Common constructors

// ErrUnknownScenario creates the lookup-miss error
func ErrUnknownScenario(id string) *RecoveryError {
	return NewRecoveryError(ErrCodeUnknownScenario, fmt.Sprintf("scenario %s is not registered", id))
}

// ErrAlreadyRegistered creates the duplicate-registration error
func ErrAlreadyRegistered(id string) *RecoveryError {
	return NewRecoveryError(ErrCodeAlreadyRegistered, fmt.Sprintf("scenario %s is already registered", id))
}

// ErrInvalidScenario wraps a structural validation failure
func ErrInvalidScenario(cause error) *RecoveryError {
	return NewRecoveryError(ErrCodeInvalidScenario, "scenario definition is invalid").WithCause(cause)
}

// ErrRecoveryInProgress creates the admission-control rejection
func ErrRecoveryInProgress(scenarioID, executionID string) *RecoveryError {
	return NewRecoveryErrorWithDetails(ErrCodeRecoveryInProgress,
		fmt.Sprintf("a recovery for scenario %s is already in progress", scenarioID),
		fmt.Sprintf("execution %s", executionID))
}

// ErrStepExecutionFailed creates the aggregated per-level failure
func ErrStepExecutionFailed(failed, total int, cause error) *RecoveryError {
	return NewRecoveryError(ErrCodeStepExecutionFailed,
		fmt.Sprintf("%d/%d steps failed", failed, total)).WithCause(cause)
}

// ErrRollbackFailed wraps a rollback step failure
func ErrRollbackFailed(stepName string, cause error) *RecoveryError {
	return NewRecoveryError(ErrCodeRollbackFailed,
		fmt.Sprintf("rollback step %s failed", stepName)).WithCause(cause)
}
