package locator

import (
	"errors"
	"fmt"
)

// Sentinel errors for locator error classification.
var (
	// ErrSyntax indicates a malformed locator. Syntax errors fail before
	// the document is touched.
	ErrSyntax = errors.New("locator syntax error")

	// ErrValidation indicates a well-formed locator with an invalid
	// filter, value, or type combination.
	ErrValidation = errors.New("locator validation error")
)

// SyntaxError reports a malformed locator query.
type SyntaxError struct {
	// Message describes the violation.
	Message string

	// Input is the offending locator text, when parsing a string form.
	Input string
}

// Error returns the message, including the input when available.
func (e *SyntaxError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s (in %q)", e.Message, e.Input)
	}
	return e.Message
}

// Is reports whether this error matches the target.
// SyntaxError matches ErrSyntax to allow sentinel-style error checking.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// ValidationError reports an invalid filter/value/type combination in a
// well-formed locator.
type ValidationError struct {
	// Message describes the violation.
	Message string

	// Field names the offending part ("value", or a filter name).
	Field string

	// Value is the offending value.
	Value any
}

// Error returns the message, including the field when set.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is reports whether this error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
