// Package types defines the core data model shared by the build pipeline:
// the build mode, modules of the build graph, emitted artifacts and the
// filesystem interface the resolver and emitter work against.
package types
