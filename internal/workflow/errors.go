package workflow

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes workflow errors.
type ErrorCode string

const (
	// ErrCodeUncommittedSubscribe indicates Subscribe was called before
	// any step chain was committed.
	ErrCodeUncommittedSubscribe ErrorCode = "SUBSCRIBED_BEFORE_COMMIT"

	// ErrCodeStepFailed indicates a step function returned an error.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"
)

// Error is a structured workflow error with fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Workflow identifies the affected workflow.
	Workflow string

	// Step names the failing step (for step errors).
	Step string

	// Cause is the underlying step function error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: %s (workflow=%s, step=%s)", e.Code, e.Message, e.Workflow, e.Step)
	}
	return fmt.Sprintf("%s: %s (workflow=%s)", e.Code, e.Message, e.Workflow)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewUncommittedSubscribeError reports Subscribe-before-Commit misuse.
func NewUncommittedSubscribeError(token string) *Error {
	return &Error{
		Code:     ErrCodeUncommittedSubscribe,
		Message:  "workflow subscribed before any step chain was committed",
		Workflow: token,
	}
}

// NewStepError wraps a step function failure.
func NewStepError(token, step string, cause error) *Error {
	return &Error{
		Code:     ErrCodeStepFailed,
		Message:  "step function failed",
		Workflow: token,
		Step:     step,
		Cause:    cause,
	}
}

// IsUncommittedSubscribeError reports whether err is a
// subscribe-before-commit misuse error. Handles wrapped errors.
func IsUncommittedSubscribeError(err error) bool {
	var we *Error
	if errors.As(err, &we) {
		return we.Code == ErrCodeUncommittedSubscribe
	}
	return false
}

// IsStepError reports whether err is a step function failure.
// Handles wrapped errors.
func IsStepError(err error) bool {
	var we *Error
	if errors.As(err, &we) {
		return we.Code == ErrCodeStepFailed
	}
	return false
}
