package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrInvalidDateFilter = errors.New("invalid date filter")
	ErrNoValidRows       = errors.New("no valid rows in file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnknownMethod     = errors.New("unknown allocation method")
)

// ValidationError reports a source cell that violates the row contract.
type ValidationError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}
