package update

import (
	"errors"
	"fmt"
)

// ErrorCode classifies modifier failures for the driver.
type ErrorCode int

const (
	// ErrUnknown is the code of errors that did not originate here.
	ErrUnknown ErrorCode = iota

	// ErrInvalidPath means the operator's target field name cannot be used
	// as an update path. Aborts the operator for the whole request.
	ErrInvalidPath

	// ErrInvalidArgument means the operator expression or its use against
	// the current document is malformed.
	ErrInvalidArgument

	// ErrInternal means a log-entry construction step that should always
	// succeed was refused. A defect signal, not a validation failure.
	ErrInternal
)

// Error is a modifier failure carrying its taxonomy code.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCodeOf extracts the taxonomy code from err, or ErrUnknown.
func ErrorCodeOf(err error) ErrorCode {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr.Code
	}
	return ErrUnknown
}
