// Package session tracks per-document navigation state between calls.
//
// A [Session] couples one open document with three pieces of state:
//
//   - a context tree of [ContextNode] values, built lazily from the
//     document's heading structure, with on-demand nodes for tables,
//     bookmarks, and the engine's current selection
//   - an active context node, which bounds what unanchored locators can
//     see during resolution
//   - an optional active object, a single resolved element that
//     locator-less calls operate on
//
// # Invalidation
//
// Mutations routed through [Session.Apply], or reported through
// [Session.ReportMutation], mark the context tree dirty when the affected
// span overlaps any node. The tree is rebuilt on next use and the active
// context is rebound by its original specifier; a specifier that no longer
// resolves falls back to the document root. Active objects are identity
// based and survive rebuilds, but accessing one whose element has been
// removed yields a [ContextError].
//
// A [Manager] owns the live sessions of a process and creates them by
// opening documents through an [engine.Registry].
package session
