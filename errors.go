package reactor

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// ErrorCode represents high-level reactor error categories
type ErrorCode string

const (
	ErrCodeCapacityExceeded   ErrorCode = "source capacity exceeded"
	ErrCodeRegistrationFailed ErrorCode = "selector registration failed"
	ErrCodeFallbackAlreadySet ErrorCode = "fallback reactor already set"
	ErrCodeDefunctHandle      ErrorCode = "reactor handle is defunct"
	ErrCodeRegistrationClosed ErrorCode = "registration closed"
	ErrCodeSelector           ErrorCode = "selector error"
)

// Error is a structured reactor error with operation context and errno
// mapping.
type Error struct {
	Op    string        // operation that failed (e.g. "register", "turn")
	Token int           // selector token (-1 if not applicable)
	Code  ErrorCode     // high-level category
	Errno syscall.Errno // kernel errno (0 if not applicable)
	Msg   string        // human-readable message
	Inner error         // wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}
	if e.Token >= 0 {
		parts = append(parts, fmt.Sprintf("token=%d", e.Token))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", int(e.Errno)))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("reactor: %s (%s)", msg, strings.Join(parts, " "))
	}
	return "reactor: " + msg
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error { return e.Inner }

// Is matches errors by code so callers can compare against sentinel
// *Error values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Token: -1, Code: code, Msg: msg}
}

// NewTokenError creates a structured error tied to a selector token
func NewTokenError(op string, token int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Token: token, Code: code, Msg: msg}
}

// WrapError wraps an existing error with reactor context
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if re, ok := inner.(*Error); ok {
		wrapped := *re
		wrapped.Op = op
		wrapped.Inner = re.Inner
		return &wrapped
	}

	code := ErrCodeSelector
	var errno syscall.Errno
	if errors.As(inner, &errno) {
		code = mapErrnoToCode(errno)
		return &Error{Op: op, Token: -1, Code: code, Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, Token: -1, Code: code, Msg: inner.Error(), Inner: inner}
}

// mapErrnoToCode maps syscall errno to reactor error codes
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOSPC, syscall.ENOMEM:
		return ErrCodeCapacityExceeded
	case syscall.EEXIST, syscall.ENOENT, syscall.EPERM, syscall.EINVAL, syscall.EBADF:
		return ErrCodeRegistrationFailed
	default:
		return ErrCodeSelector
	}
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno
func IsErrno(err error, errno syscall.Errno) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Errno == errno
	}
	return false
}
