// Package builtin assembles the static registry of the stages shipped with
// bundl.
package builtin

import (
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/stages/dialect"
	"github.com/arthur-debert/bundl/pkg/stages/script"
	"github.com/arthur-debert/bundl/pkg/stages/stylesheet"
)

type settings struct {
	backend    dialect.Backend
	backendDir string
}

// Option configures the built-in stages
type Option func(*settings)

// WithDialectBackend replaces the process backend of the dialect compiler
func WithDialectBackend(b dialect.Backend) Option {
	return func(s *settings) { s.backend = b }
}

// WithWorkDir runs the dialect compiler process in dir
func WithWorkDir(dir string) Option {
	return func(s *settings) { s.backendDir = dir }
}

// New returns a sealed registry holding every built-in stage
func New(opts ...Option) (*stages.Registry, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = &dialect.ProcessBackend{Dir: s.backendDir}
	}

	return stages.NewRegistry(
		dialect.New(s.backend),
		script.New(),
		stylesheet.NewPreprocessor(),
		stylesheet.NewResolver(),
		stylesheet.NewInjector(),
	)
}
