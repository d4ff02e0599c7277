// Package testutil provides utilities for testing bundl components.
//
// Key components:
//   - TestEnvironment: a project tree (sources, search roots, output dir) on
//     an in-memory or temporary filesystem
//   - FileTree: declarative file setup
//   - FakeBackend: a dialect compiler backend that never starts a process
//   - FailingFS: a filesystem wrapper that injects write failures
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly for speed and isolation
//   - All test data should be defined inline, not in external files
package testutil
