package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session-state failures.
var (
	// ErrContext indicates invalid or stale session state.
	ErrContext = errors.New("context error")

	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)

// ContextError reports a session-state problem: no active object where one
// is required, an active object that no longer exists, or a context
// specifier that matches nothing.
type ContextError struct {
	// Message describes the problem.
	Message string

	// Context optionally names the context node involved.
	Context string
}

// Error returns the message with the context name when present.
func (e *ContextError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (context %q)", e.Message, e.Context)
	}
	return e.Message
}

// Is reports whether this error matches the target.
func (e *ContextError) Is(target error) bool {
	return target == ErrContext
}
