package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every boundary operation. Transport maps each one
// to a stable status code and message.
var (
	ErrMissingArguments   = errors.New("missing arguments")
	ErrPartialArguments   = errors.New("partial arguments")
	ErrTooManyArguments   = errors.New("too many arguments")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrTitleAlreadyExists = errors.New("title already exists")
	ErrInsufficientRights = errors.New("insufficient rights")
	ErrUserDeactivated    = errors.New("user deactivated")
	ErrWrongPassword      = errors.New("wrong password")
	ErrConflict           = errors.New("concurrent modification")
)

// FieldError is an ErrInvalidArgument scoped to a single input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidArgument }

// InvalidArgument builds a FieldError for field.
func InvalidArgument(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
