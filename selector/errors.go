package selector

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution outcome classification.
var (
	// ErrNotFound indicates a well-formed locator that matched nothing.
	ErrNotFound = errors.New("object not found")

	// ErrAmbiguous indicates a well-formed locator that matched several
	// elements where exactly one was required.
	ErrAmbiguous = errors.New("ambiguous locator")
)

// NotFoundError reports a locator that resolved to zero elements.
type NotFoundError struct {
	// Locator is the compact form of the failed query.
	Locator string

	// Detail optionally narrows down which part failed (e.g. "anchor").
	Detail string
}

// Error returns the failed query and detail.
func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("no elements match %s (%s)", e.Locator, e.Detail)
	}
	return fmt.Sprintf("no elements match %s", e.Locator)
}

// Is reports whether this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AmbiguousError reports a locator that matched more than one element
// under a single-match expectation. Previews carry short text excerpts of
// the first matches so the caller can refine the query.
type AmbiguousError struct {
	// Locator is the compact form of the ambiguous query.
	Locator string

	// Count is the total number of matches.
	Count int

	// Previews holds short text excerpts of the first matches.
	Previews []string
}

// Error returns the match count and previews.
func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("expected one element but %d match %s", e.Count, e.Locator)
	if len(e.Previews) > 0 {
		msg += ": " + strings.Join(e.Previews, " | ")
	}
	return msg
}

// Is reports whether this error matches the target.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}
