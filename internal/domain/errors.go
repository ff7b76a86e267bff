package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Services wrap them in *Error so callers can match with errors.Is
// and still show a readable message.
var (
	ErrResourceNotFound  = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrDuplicateItem     = errors.New("duplicate item")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAccessDenied      = errors.New("access denied")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newError(ErrResourceNotFound, format, args...)
}

func BadRequest(format string, args ...interface{}) error {
	return newError(ErrBadRequest, format, args...)
}

func DuplicateItem(format string, args ...interface{}) error {
	return newError(ErrDuplicateItem, format, args...)
}

func InvalidTransition(format string, args ...interface{}) error {
	return newError(ErrInvalidTransition, format, args...)
}

func EmptyCart(format string, args ...interface{}) error {
	return newError(ErrEmptyCart, format, args...)
}

func AccessDenied(format string, args ...interface{}) error {
	return newError(ErrAccessDenied, format, args...)
}
