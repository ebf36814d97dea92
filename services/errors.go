package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindForbidden          ErrorKind = "forbidden"
	KindNotFound           ErrorKind = "not_found"
	KindBadRequest         ErrorKind = "bad_request"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindInvalidState       ErrorKind = "invalid_state"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindInternal           ErrorKind = "internal"
)

// OrderError is the error every service operation fails with.
type OrderError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...interface{}) *OrderError {
	return &OrderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internalError(message string, err error) *OrderError {
	return &OrderError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err; anything that is not an OrderError is internal.
func KindOf(err error) ErrorKind {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInternal
}
