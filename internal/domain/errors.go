package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument indicates malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates a business rule forbids the operation in the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientStock indicates a product cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnavailable indicates an optional collaborator is not configured or reachable.
	ErrUnavailable = errors.New("unavailable")
)

// Error carries a client-facing message while unwrapping to one of the sentinel kinds above.
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

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound gives a bare ErrNotFound a client-facing message naming the entity. Other errors pass through.
func NotFound(err error, entity string) error {
	var de *Error
	if errors.Is(err, ErrNotFound) && !errors.As(err, &de) {
		return &Error{Kind: ErrNotFound, Message: entity + " not found"}
	}
	return err
}
