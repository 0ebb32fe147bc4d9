// Package selector resolves locators into selections of document elements.
//
// A [Resolver] binds a parsed [locator.Locator] to a single document engine
// and runs resolution in stages:
//
//   - semantic validation: rules a syntactically valid locator must still
//     satisfy, such as positional kinds taking no value or filters, and
//     bare paragraph/table queries requiring a qualifier
//   - enumeration: the engine lists candidates of the target kind, in
//     document order, within the whole document or an anchor-derived scope
//   - indexing: an integer value picks one candidate by position in the
//     enumerated list, before any filter runs
//   - filtering: each filter narrows the surviving candidates in order
//   - relation: an anchored locator restricts the result relative to the
//     anchor element, which is itself resolved as an independent
//     single-match locator
//
// # Outcomes
//
// Resolution never yields an empty [Selection]. Zero matches surface as a
// [NotFoundError]; more matches than a single-match expectation allows
// surface as an [AmbiguousError] carrying excerpt previews of the first
// matches. Both are distinct from [locator.ErrSyntax] and
// [locator.ErrValidation], which reject the query before any candidate is
// consulted.
//
// Deterministic locators, meaning positional kinds, the document kind, and
// targets with an explicit index, always carry a single-match expectation
// regardless of what the caller asked for.
package selector
