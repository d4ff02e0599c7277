// Package stages defines the Transform Stage contract and the static registry
// that maps stage identifiers to implementations.
//
// A stage turns one module's source into code (plus an optional source map
// and a list of dependency specifiers). Stages never touch the build graph
// and never mutate their options; the build mode is passed explicitly on
// every call.
//
// Implementations live in the subpackages:
//
//   - script: script-transpiler (esbuild)
//   - dialect: dialect-compiler (project files and an opaque compiler backend)
//   - stylesheet: stylesheet-preprocessor, stylesheet-resolver, stylesheet-injector
//
// The registry is filled and sealed while the build is configured, so an
// unknown stage identifier in the rule table fails before any module is read.
package stages
