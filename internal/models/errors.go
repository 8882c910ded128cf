// Package models defines the data structures for the loan comparison engine.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoProducts     = errors.New("no loan products available")
	ErrEmptyBank      = errors.New("bank cannot be empty")
	ErrInvalidRate    = errors.New("interest rate must be greater than zero")
	ErrInvalidFeeRate = errors.New("processing fee percent cannot be negative")
)

// InvalidInputError reports which precondition of a computation failed.
// It matches ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInvalidInput creates an InvalidInputError for the given field.
func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// IsInvalidInput reports whether err is, or wraps, an invalid input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// NormalizeEmploymentType converts common spellings of the supported
// employment types to their canonical values.
func NormalizeEmploymentType(value string) EmploymentType {
	normalized := strings.ToLower(strings.TrimSpace(value))

	switch normalized {
	case "salaried":
		return EmploymentTypeSalaried
	case "self-employed", "self_employed", "self employed", "selfemployed":
		return EmploymentTypeSelfEmployed
	}

	// Returned as-is; the employment rule rejects it.
	return EmploymentType(normalized)
}
