package config

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidValue = errors.New("invalid value")
	ErrFileNotFound = errors.New("file not found")
)

// Error reports which setting failed validation and why.
type Error struct {
	Field  string
	Kind   error
	Detail string
}

func newError(field string, kind error, detail string) *Error {
	return &Error{Field: field, Kind: kind, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Kind)
	}
	return fmt.Sprintf("config %s: %v: %s", e.Field, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}
