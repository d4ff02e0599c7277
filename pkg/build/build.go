// Package build runs one complete build: compile the rule table, assemble the
// graph, link it, run the optimization passes and emit the artifacts.
// Nothing is shared between two calls to Run.
package build

import (
	"context"
	"time"

	"github.com/arthur-debert/bundl/pkg/bundle"
	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/emit"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
	"github.com/arthur-debert/bundl/pkg/graph"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/optimize"
	"github.com/arthur-debert/bundl/pkg/resolver"
	"github.com/arthur-debert/bundl/pkg/rules"
	"github.com/arthur-debert/bundl/pkg/stages/builtin"
	"github.com/arthur-debert/bundl/pkg/stages/dialect"
	"github.com/arthur-debert/bundl/pkg/types"
)

// Options configures a build
type Options struct {
	Config *config.Config

	// FS defaults to the real filesystem
	FS types.FS

	// Backend replaces the dialect compiler process
	Backend dialect.Backend

	// DryRun stops before anything is written
	DryRun bool
}

// Result describes a finished build
type Result struct {
	Mode      types.BuildMode
	Graph     *graph.Graph
	Artifacts *types.Artifacts

	// Written lists the absolute paths of the emitted files
	Written  []string
	Duration time.Duration
}

// Run performs a build. Any failure aborts it and nothing is written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("build")
	start := time.Now()

	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New(errors.ErrInvalidInput, "no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	mode := cfg.Mode

	logger.Info().
		Str("mode", mode.String()).
		Str("entry", cfg.Entry).
		Msg("Bundling")

	reg, err := builtin.New(builtin.WithDialectBackend(opts.Backend), builtin.WithWorkDir(cfg.Context))
	if err != nil {
		return nil, err
	}
	matcher, err := rules.Compile(cfg.Rules, reg, mode)
	if err != nil {
		return nil, err
	}

	done := logging.LogOperationStart(logger, "graph")
	g, err := graph.New(graph.Options{
		FS: fsys,
		Resolver: resolver.New(fsys, resolver.Options{
			Context:    cfg.Context,
			Roots:      cfg.SearchRoots(),
			Extensions: cfg.Resolve.Extensions,
			MainFields: cfg.Resolve.MainFields,
		}),
		Matcher:     matcher,
		Mode:        mode,
		Concurrency: cfg.Concurrency,
	}).Assemble(ctx, cfg.Entry)
	done()
	if err != nil {
		return nil, err
	}

	b, err := bundle.Link(g, bundle.Options{
		Mode:     mode,
		Filename: cfg.Output.Filename,
		Context:  cfg.Context,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "link failed")
	}

	done = logging.LogOperationStart(logger, "optimize")
	arts, err := optimize.New(optimize.Config{
		MinifyDevelopment: cfg.Optimization.Minify.Development,
		MinifyProduction:  cfg.Optimization.Minify.Production,
		DropWarnings:      cfg.Optimization.DropWarnings,
	}).Run(ctx, b, mode)
	done()
	if err != nil {
		return nil, err
	}

	if cfg.Output.Manifest {
		data, err := b.Manifest.Encode(arts, b.Entry, b.Contributions)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
		}
		arts.Manifest = types.Artifact{Name: bundle.ManifestName, Content: data}
	}

	result := &Result{Mode: mode, Graph: g, Artifacts: arts}

	if !opts.DryRun {
		done = logging.LogOperationStart(logger, "emit")
		result.Written, err = emit.New(fsys).Emit(arts.All(), cfg.OutputDir())
		done()
		if err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("modules", len(g.Modules)).
		Int("files", len(result.Written)).
		Dur("duration", result.Duration).
		Msg("Build finished")

	return result, nil
}
