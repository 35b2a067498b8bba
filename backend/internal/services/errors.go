package services

import (
	"errors"
)

var (
	// ErrNotFound covers both "does not exist" and "not yours"; callers
	// cannot tell the two apart.
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// NotFoundError carries the message shown to the client. It matches
// ErrNotFound under errors.Is.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(message string) error {
	return &NotFoundError{Message: message}
}

// ValidationError is a client input problem; Message is safe to return.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

const (
	msgTodoNotFound = "Todo not found or you don't have permission"
	msgItemNotFound = "Item not found or you don't have permission"
)
