// Package doctool serves document selection and editing as MCP tools.
//
// The server speaks the Model Context Protocol over stdio and exposes one
// tool per operation: opening documents, resolving locators, navigating
// contexts, reading text, and applying edits. Tool handlers are thin: they
// validate arguments, delegate to a [session.Manager], and map the
// resolution error taxonomy onto stable message prefixes
// (locator_syntax, locator_validation, object_not_found, ambiguous_locator,
// context_error, adapter_error) that clients can key on.
//
// Configuration is a small YAML file; see [Config] and [Load].
package doctool
