// Package config loads the bundl configuration.
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. the project file: bundl.toml, .bundl.toml, bundl.yaml or bundl.yml
//  3. environment variables prefixed with BUNDL_ ("__" separates levels,
//     e.g. BUNDL_OUTPUT__PATH=dist)
//  4. explicit overrides, usually from command-line flags
//
// Relative paths are resolved against the project directory. The rule table
// is only checked for shape here; stage identifiers are validated against
// the stage registry when the rules are compiled, before any build work.
package config
