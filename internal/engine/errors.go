package engine

import (
	"errors"
	"fmt"
)

// Error is returned by engine entry points.
//
// Error carries structured fields for callers that branch on the failure
// kind; use the Is* helpers rather than comparing codes directly.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// UserID identifies the affected user, if any.
	UserID string

	// Plugin identifies the affected plugin, if any.
	Plugin string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUserNotFound indicates an operation on an unknown user.
	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"

	// ErrCodeDuplicateUser indicates CreateUser with an id already in use.
	ErrCodeDuplicateUser ErrorCode = "DUPLICATE_USER"

	// ErrCodeDuplicatePlugin indicates installing a plugin twice.
	ErrCodeDuplicatePlugin ErrorCode = "DUPLICATE_PLUGIN"

	// ErrCodePluginNotFound indicates uninstalling an unknown plugin.
	ErrCodePluginNotFound ErrorCode = "PLUGIN_NOT_FOUND"

	// ErrCodeInvalidInput indicates a malformed argument (empty id or
	// event type, unknown streak kind).
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodePlugin indicates a plugin's own install or uninstall failed.
	ErrCodePlugin ErrorCode = "PLUGIN_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.UserID != "":
		return fmt.Sprintf("%s: %s (user=%s)", e.Code, e.Message, e.UserID)
	case e.Plugin != "":
		return fmt.Sprintf("%s: %s (plugin=%s)", e.Code, e.Message, e.Plugin)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err reports an unknown user or plugin.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUserNotFound || ee.Code == ErrCodePluginNotFound
	}
	return false
}

// IsDuplicate returns true if err reports a duplicate user or plugin.
func IsDuplicate(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeDuplicateUser || ee.Code == ErrCodeDuplicatePlugin
	}
	return false
}

// IsInvalidInput returns true if err reports a malformed argument.
func IsInvalidInput(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeInvalidInput
	}
	return false
}

func userNotFound(userID string, cause error) *Error {
	return &Error{
		Code:    ErrCodeUserNotFound,
		Message: "user not found",
		UserID:  userID,
		Err:     cause,
	}
}

func invalidInput(userID, msg string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: msg,
		UserID:  userID,
		Err:     cause,
	}
}
