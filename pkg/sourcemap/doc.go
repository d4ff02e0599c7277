// Package sourcemap reads, writes and concatenates Source Map v3 documents.
//
// The linker places every compiled module at a known line offset inside the
// bundle; Concat merges the per-module maps into one flat map (no index
// "sections", which the minifier does not accept as input). DataURL turns a
// map into the inline form the minifier picks up from a trailing
// sourceMappingURL comment.
package sourcemap
