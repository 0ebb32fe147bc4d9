package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for adapter failure classification.
var (
	// ErrAdapter indicates the host engine rejected or failed a primitive.
	ErrAdapter = errors.New("adapter error")

	// ErrStaleRef indicates a ref that no longer resolves to a live
	// element, typically after a deletion.
	ErrStaleRef = errors.New("stale element ref")
)

// AdapterError wraps a host engine failure with a description of the
// attempted operation so callers can report what was being done when the
// engine failed.
type AdapterError struct {
	// Op describes the attempted operation (e.g. "enumerate paragraph",
	// "apply replace_text").
	Op string

	// Ref is the element involved, if any.
	Ref string

	// Err is the underlying engine error.
	Err error
}

// Error returns the operation description and underlying cause.
func (e *AdapterError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("adapter: %s (%s): %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("adapter: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
// AdapterError matches ErrAdapter to allow sentinel-style checking.
func (e *AdapterError) Is(target error) bool {
	return target == ErrAdapter
}

// WrapOp wraps err in an *AdapterError describing op, unless err already
// is one.
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Err: err}
}
