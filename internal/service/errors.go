package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Compare with errors.Is(err, service.ErrNotFound).
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a typed failure carrying a user-visible message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflict(msg string, err error) error { return &Error{Kind: ErrConflict, Message: msg, Err: err} }

func upstream(msg string, err error) error { return &Error{Kind: ErrUpstream, Message: msg, Err: err} }

func unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }
