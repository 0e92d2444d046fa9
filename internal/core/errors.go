package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCategory   = errors.New("empty category name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrExpenseNotFound = errors.New("expense not found")
)

// ValidationError reports a malformed expense field together with the value
// that was rejected. It is always recoverable.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// StorageError wraps a failure reading or writing the expenses file.
type StorageError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
