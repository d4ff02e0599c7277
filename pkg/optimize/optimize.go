// Package optimize runs the whole-bundle passes over a linked bundle and
// produces the artifacts of a build.
package optimize

import (
	"context"

	"github.com/arthur-debert/bundl/pkg/bundle"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/rs/zerolog"
)

// State is what the passes read and update. Code and Map are the current
// primary text and its encoded map.
type State struct {
	Bundle    *bundle.Bundle
	Code      []byte
	Map       []byte
	Artifacts *types.Artifacts
}

// Pass is one whole-bundle transformation
type Pass interface {
	Name() string
	Apply(ctx context.Context, s *State, mode types.BuildMode) error
}

// Config selects the passes of a pipeline
type Config struct {
	// MinifyDevelopment and MinifyProduction enable the minify pass per mode
	MinifyDevelopment bool
	MinifyProduction  bool

	// DropWarnings silences minifier warnings
	DropWarnings bool
}

// Pipeline runs the twin pass, then the passes enabled for the build mode
type Pipeline struct {
	cfg    Config
	logger zerolog.Logger
}

// New returns a pipeline for cfg
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logging.GetLogger("optimize")}
}

// Passes returns the passes that run for mode, in order
func (p *Pipeline) Passes(mode types.BuildMode) []Pass {
	passes := []Pass{Twin{}}
	minify := p.cfg.MinifyDevelopment
	if mode.IsProduction() {
		minify = p.cfg.MinifyProduction
	}
	if minify {
		passes = append(passes, &Minify{DropWarnings: p.cfg.DropWarnings})
	}
	return passes
}

// Run applies the passes to b. The twin artifact always holds b.Code; the
// primary ends with a reference to its source map.
func (p *Pipeline) Run(ctx context.Context, b *bundle.Bundle, mode types.BuildMode) (*types.Artifacts, error) {
	encoded, err := b.Map.Bytes()
	if err != nil {
		return nil, errors.Optimization(err, "link")
	}

	s := &State{
		Bundle:    b,
		Code:      b.Code,
		Map:       encoded,
		Artifacts: &types.Artifacts{Assets: b.Assets},
	}

	for _, pass := range p.Passes(mode) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		done := logging.LogOperationStart(p.logger, "pass "+pass.Name())
		err := pass.Apply(ctx, s, mode)
		done()
		if err != nil {
			return nil, errors.Optimization(err, pass.Name())
		}
	}

	mapName := bundle.MapName(b.Filename)
	m, err := sourcemap.Parse(s.Map)
	if err != nil {
		return nil, errors.Optimization(err, "finalize")
	}
	m.File = b.Filename
	finalMap, err := m.Bytes()
	if err != nil {
		return nil, errors.Optimization(err, "finalize")
	}

	primary := append([]byte{}, sourcemap.StripComment(s.Code)...)
	if len(primary) > 0 && primary[len(primary)-1] != '\n' {
		primary = append(primary, '\n')
	}
	primary = append(primary, sourcemap.CommentPrefix+mapName+"\n"...)

	s.Artifacts.Primary = types.Artifact{Name: b.Filename, Content: primary}
	s.Artifacts.SourceMap = types.Artifact{Name: mapName, Content: finalMap}

	p.logger.Debug().
		Str("mode", mode.String()).
		Int("primaryBytes", len(primary)).
		Int("twinBytes", len(s.Artifacts.Twin.Content)).
		Msg("Optimization finished")

	return s.Artifacts, nil
}

// Twin keeps an unminified copy of the linked bundle
type Twin struct{}

func (Twin) Name() string { return "twin" }

// Apply records the pre-minification text. It must run before any pass that
// changes the code.
func (Twin) Apply(_ context.Context, s *State, _ types.BuildMode) error {
	s.Artifacts.Twin = types.Artifact{
		Name:    bundle.TwinName(s.Bundle.Filename),
		Content: append([]byte{}, s.Bundle.Code...),
	}
	return nil
}
