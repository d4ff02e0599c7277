// Package graph assembles the build graph: the set of modules reachable from
// the entry, each compiled by the stage chain its path selects.
//
// Modules are processed in waves. Every module of a wave is compiled on a
// bounded worker pool; the dependencies of the wave are then resolved one
// module at a time, in queue order, so the discovery order is the same as a
// sequential traversal regardless of scheduling.
package graph

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/internal/hashutil"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/resolver"
	"github.com/arthur-debert/bundl/pkg/rules"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Resolver maps a specifier imported from a module to an absolute path
type Resolver interface {
	Resolve(spec, from string) (string, error)
}

// Matcher selects the stage chain of a module path
type Matcher interface {
	Match(path string) []rules.Step
}

// Graph is the completed set of modules in first-discovery order. The entry
// is Modules[0].
type Graph struct {
	Modules []*types.Module
	byPath  map[string]*types.Module
}

// FromModules builds a graph from already compiled modules; the first one is
// the entry. Indices are reassigned in slice order.
func FromModules(modules ...*types.Module) *Graph {
	g := &Graph{byPath: map[string]*types.Module{}}
	for i, m := range modules {
		m.Index = i
		if m.Resolved == nil {
			m.Resolved = map[string]string{}
		}
		g.Modules = append(g.Modules, m)
		g.byPath[m.Path] = m
	}
	return g
}

// Entry returns the entry module
func (g *Graph) Entry() *types.Module {
	return g.Modules[0]
}

// Module returns the module with the given absolute path
func (g *Graph) Module(path string) (*types.Module, bool) {
	m, ok := g.byPath[path]
	return m, ok
}

// Paths returns the module paths in discovery order
func (g *Graph) Paths() []string {
	out := make([]string, len(g.Modules))
	for i, m := range g.Modules {
		out[i] = m.Path
	}
	return out
}

// Assets returns the pass-through modules copied next to the bundle
func (g *Graph) Assets() []*types.Module {
	var out []*types.Module
	for _, m := range g.Modules {
		if m.Asset {
			out = append(out, m)
		}
	}
	return out
}

func (g *Graph) add(path string) *types.Module {
	m := &types.Module{
		Path:     path,
		Index:    len(g.Modules),
		Ext:      strings.ToLower(filepath.Ext(path)),
		Resolved: map[string]string{},
	}
	g.Modules = append(g.Modules, m)
	g.byPath[path] = m
	return m
}

// Options configures a Builder
type Options struct {
	FS       types.FS
	Resolver Resolver
	Matcher  Matcher
	Mode     types.BuildMode

	// Concurrency bounds the number of modules compiled at once; 0 uses one
	// worker per CPU
	Concurrency int
}

// Builder assembles one graph. It holds no state between calls.
type Builder struct {
	opts   Options
	logger zerolog.Logger
}

// New returns a Builder
func New(opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Builder{opts: opts, logger: logging.GetLogger("graph")}
}

// Assemble resolves entry, then compiles every reachable module. The first
// failure aborts the build; when several modules of one wave fail, the error
// of the earliest in queue order is returned.
func (b *Builder) Assemble(ctx context.Context, entry string) (*Graph, error) {
	entryPath, err := b.resolveEntry(entry)
	if err != nil {
		return nil, err
	}

	g := &Graph{byPath: map[string]*types.Module{}}
	queue := []*types.Module{g.add(entryPath)}

	for wave := 0; len(queue) > 0; wave++ {
		b.logger.Debug().
			Int("wave", wave).
			Int("modules", len(queue)).
			Msg("Compiling wave")

		if err := b.compileWave(ctx, queue); err != nil {
			return nil, err
		}

		var next []*types.Module
		for _, m := range queue {
			for _, spec := range m.Dependencies {
				path, err := b.opts.Resolver.Resolve(spec, m.Path)
				if err != nil {
					return nil, err
				}
				m.Resolved[spec] = path
				if _, seen := g.byPath[path]; !seen {
					next = append(next, g.add(path))
				}
			}
		}
		queue = next
	}

	b.logger.Info().
		Int("modules", len(g.Modules)).
		Str("entry", entryPath).
		Msg("Build graph assembled")

	return g, nil
}

// resolveEntry treats a plain entry name as relative to the context first
func (b *Builder) resolveEntry(entry string) (string, error) {
	if resolver.IsRelative(entry) {
		return b.opts.Resolver.Resolve(entry, "")
	}
	if p, err := b.opts.Resolver.Resolve("./"+entry, ""); err == nil {
		return p, nil
	}
	return b.opts.Resolver.Resolve(entry, "")
}

// compileWave compiles every module of a wave. Each module runs under its own
// context; a failure cancels only the modules after it in queue order, so an
// earlier module always runs to completion and its error, if any, wins. Errors
// from cancelled modules are discarded whatever their type.
func (b *Builder) compileWave(ctx context.Context, wave []*types.Module) error {
	errs := make([]error, len(wave))
	ctxs := make([]context.Context, len(wave))
	cancels := make([]context.CancelFunc, len(wave))
	for i := range wave {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var mu sync.Mutex
	failed := len(wave)

	var eg errgroup.Group
	eg.SetLimit(b.opts.Concurrency)
	for i, m := range wave {
		eg.Go(func() error {
			err := b.compile(ctxs[i], m)
			if err == nil || ctxs[i].Err() != nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			errs[i] = err
			if i < failed {
				for j := i + 1; j < failed; j++ {
					cancels[j]()
				}
				failed = i
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, err := range errs {
		if err != nil {
			b.logger.Debug().
				Str("module", wave[i].Path).
				Err(err).
				Msg("Wave failed")
			return err
		}
	}
	return nil
}

func (b *Builder) compile(ctx context.Context, m *types.Module) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := b.opts.FS.ReadFile(m.Path)
	if err != nil {
		return errors.IO(err, "read", m.Path)
	}
	m.Source = source

	steps := b.opts.Matcher.Match(m.Path)
	if len(steps) == 0 {
		return b.passThrough(m)
	}

	seen := map[string]bool{}
	in := stages.Input{Path: m.Path, Source: source}
	for _, step := range steps {
		out, err := step.Stage.Apply(ctx, in, step.Options, b.opts.Mode)
		if err != nil {
			if stderrors.Is(err, context.Canceled) {
				return err
			}
			return errors.Stage(err, step.StageID, m.Path)
		}
		m.Stages = append(m.Stages, step.StageID)
		m.Dependencies = appendUnique(m.Dependencies, seen, out.Dependencies...)
		in = stages.Input{Path: m.Path, Source: out.Code, Map: out.Map}
	}

	m.Code = sourcemap.StripComment(in.Source)
	m.Map = in.Map
	m.Dependencies = appendUnique(m.Dependencies, seen, Requires(m.Code)...)

	b.logger.Trace().
		Str("module", m.Path).
		Strs("stages", m.Stages).
		Strs("dependencies", m.Dependencies).
		Msg("Compiled module")
	return nil
}

// passThrough includes a module no rule matched. Scripts are included as-is
// with an identity map, JSON documents become their value and any other file
// is an asset exporting its emitted name.
func (b *Builder) passThrough(m *types.Module) error {
	switch m.Ext {
	case ".js", ".mjs", ".cjs":
		m.Code = sourcemap.StripComment(m.Source)
		encoded, err := sourcemap.Identity(m.Path, m.Code).Bytes()
		if err != nil {
			return err
		}
		m.Map = encoded
		deps, parsed := ScriptRequires(m.Code)
		if !parsed {
			b.logger.Debug().
				Str("module", m.Path).
				Msg("Scanning unparsed script as written")
		}
		m.Dependencies = appendUnique(nil, map[string]bool{}, deps...)
	case ".json":
		if !json.Valid(m.Source) {
			return errors.Newf(errors.ErrInvalidInput, "invalid JSON module %s", m.Path).
				WithDetail(errors.DetailModule, m.Path)
		}
		m.Code = []byte("module.exports = " + strings.TrimSpace(string(m.Source)) + ";\n")
	default:
		m.Asset = true
		m.AssetName = AssetName(m.Path, m.Source)
		name, _ := json.Marshal(m.AssetName)
		m.Code = []byte(fmt.Sprintf("module.exports = %s;\n", name))
	}

	b.logger.Trace().
		Str("module", m.Path).
		Bool("asset", m.Asset).
		Msg("Pass-through module")
	return nil
}

// AssetName is the content-addressed file name of an asset
func AssetName(path string, content []byte) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return fmt.Sprintf("%s.%s%s", stem, hashutil.Short(content), ext)
}
