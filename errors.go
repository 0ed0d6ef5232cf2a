package rabbits

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrInvalidLabel indicates a label column holds a value other than 0 or 1.
	ErrInvalidLabel = errors.New("rabbits: label column contains values outside {0,1}")

	// ErrLengthMismatch indicates a column length differs from the dataset row count.
	ErrLengthMismatch = errors.New("rabbits: column length does not match row count")

	// ErrInvalidBeta indicates an F-beta weight that is not a positive finite number.
	ErrInvalidBeta = errors.New("rabbits: beta must be positive and finite")
)

// InvalidInputError reports the first value found outside {0,1} in a label column.
type InvalidInputError struct {
	Column string
	Row    int
	Value  string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("rabbits: column %q must be coded as 0 and 1 only (row %d has %s)", e.Column, e.Row, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidLabel.
func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidLabel
}
