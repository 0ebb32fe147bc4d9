// Package engine defines the capability contract between the resolution
// core and the host document engine.
//
// The core never touches concrete host types. Everything it needs —
// enumeration in document order, text and span reads, attribute reads,
// structural navigation, and mutation primitives — flows through the
// [Engine] interface. An implementation backed by a real editor lives
// outside this module; [github.com/jonwraymond/docselect/engine/memdoc]
// provides an in-memory reference implementation.
//
// # Identity and spans
//
// Element refs carry stable identity; character spans do not. Callers
// cache refs and re-derive spans via [Engine.Span] after any mutation.
// Every mutation reports its affected span in [MutationResult] so
// overlapping caches can be invalidated synchronously.
//
// # Errors
//
// Engine failures are wrapped in [AdapterError] carrying the attempted
// operation's description; callers classify with errors.Is against
// [ErrAdapter] and [ErrStaleRef].
package engine
