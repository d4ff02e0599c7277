// Package dialect implements the dialect-compiler stage. Project files are
// expanded into their ordered compile items; source files are compiled by a
// Backend and the result is lowered by the script transpiler so the stage
// emits the same CommonJS shape as plain scripts.
package dialect

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/stages/script"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultPolyfill is required by project modules when polyfill injection is on
const DefaultPolyfill = "core-js/stable"

// Options are the recognised options of the stage
type Options struct {
	// Command starts the compiler used by the process backend
	Command []string `option:"command"`

	// Defines are the conditional compilation symbols active for the mode
	Defines []string `option:"defines"`

	HelperInjection   bool   `option:"helperInjection"`
	PolyfillInjection bool   `option:"polyfillInjection"`
	Polyfill          string `option:"polyfill"`
}

// Compiler is the dialect-compiler stage
type Compiler struct {
	backend Backend
	logger  zerolog.Logger
}

// New returns the stage using backend for source files
func New(backend Backend) *Compiler {
	if backend == nil {
		backend = &ProcessBackend{}
	}
	return &Compiler{
		backend: backend,
		logger:  logging.GetLogger("stages.dialect"),
	}
}

func (c *Compiler) ID() string { return stages.DialectCompiler }

func (c *Compiler) Kind() stages.Kind { return stages.KindDialect }

// ValidateOptions implements stages.OptionsValidator
func (c *Compiler) ValidateOptions(opts stages.Options) error {
	_, err := decode(opts)
	return err
}

func decode(opts stages.Options) (Options, error) {
	var o Options
	if err := opts.Decode(&o); err != nil {
		return o, err
	}
	for _, d := range o.Defines {
		if d == "" || strings.ContainsAny(d, " \t\n") {
			return o, fmt.Errorf("invalid define %q", d)
		}
	}
	if o.PolyfillInjection && o.Polyfill == "" {
		o.Polyfill = DefaultPolyfill
	}
	return o, nil
}

// Apply implements stages.Stage
func (c *Compiler) Apply(ctx context.Context, in stages.Input, opts stages.Options, mode types.BuildMode) (stages.Output, error) {
	o, err := decode(opts)
	if err != nil {
		return stages.Output{}, err
	}

	if strings.EqualFold(filepath.Ext(in.Path), ".fsproj") {
		return c.applyProject(in, o)
	}
	return c.applySource(ctx, in, o, mode)
}

func (c *Compiler) applyProject(in stages.Input, o Options) (stages.Output, error) {
	items, err := ProjectItems(in.Source)
	if err != nil {
		return stages.Output{}, err
	}

	polyfill := ""
	if o.PolyfillInjection {
		polyfill = o.Polyfill
	}
	deps := make([]string, 0, len(items)+1)
	if polyfill != "" {
		deps = append(deps, polyfill)
	}
	deps = append(deps, items...)

	c.logger.Debug().
		Str("project", in.Path).
		Int("items", len(items)).
		Msg("Expanded project file")

	return stages.Output{Code: projectModule(polyfill, items), Dependencies: deps}, nil
}

func (c *Compiler) applySource(ctx context.Context, in stages.Input, o Options, mode types.BuildMode) (stages.Output, error) {
	resp, err := c.backend.Compile(ctx, Request{
		Path:              in.Path,
		Source:            string(in.Source),
		Defines:           o.Defines,
		HelperInjection:   o.HelperInjection,
		PolyfillInjection: o.PolyfillInjection,
		Command:           o.Command,
	})
	if err != nil {
		return stages.Output{}, err
	}
	if resp.Error != "" {
		return stages.Output{}, fmt.Errorf("compile error: %s", resp.Error)
	}

	code, encodedMap, err := script.Transform(in.Path,
		sourcemap.Inline([]byte(resp.Code), resp.SourceMap()),
		script.Config{Defines: script.Defines(mode, nil)})
	if err != nil {
		return stages.Output{}, err
	}

	c.logger.Trace().
		Str("path", in.Path).
		Strs("defines", o.Defines).
		Int("dependencies", len(resp.Dependencies)).
		Msg("Compiled dialect source")

	return stages.Output{Code: code, Map: encodedMap, Dependencies: resp.Dependencies}, nil
}
