// Package locator defines the declarative query model for selecting
// document elements and the parsers that normalize it.
//
// A locator names a target — an element kind, an optional value, and an
// AND-chain of typed filters — and optionally an anchor locator plus a
// positional relation to it. Two input forms produce the same normalized
// [Locator]:
//
//   - the compact string grammar, via [Parse]:
//     `type[:value][name=val]...[@anchor_locator[relation=name]]`
//   - the structured wire form, via [Spec.Compile]
//
// Locators are immutable once parsed. Parsing performs syntax-level
// checks only (known kind, known filter names, anchor and relation both
// present or both absent) and fails with [ErrSyntax]; semantic checks
// against the document happen in the selector package and fail with
// [ErrValidation].
package locator
