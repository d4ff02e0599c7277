// Package registry provides a generic, type-safe registry keyed by name.
//
// Registries are filled once while the build is configured and then sealed:
// after Seal, Register fails and lookups need no further coordination with
// writers. The stage registry in pkg/stages is the main user.
package registry
