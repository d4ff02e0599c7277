// Package script implements the script-transpiler stage: plain scripts are
// lowered to ES2015 CommonJS with esbuild so the linker can wrap them.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/evanw/esbuild/pkg/api"
)

// Options are the recognised options of the stage
type Options struct {
	// Target is the language level of the output (es2015 unless set)
	Target string `option:"target"`

	// Defines replace global identifiers with the given expressions
	Defines map[string]string `option:"defines"`
}

var targets = map[string]api.Target{
	"":       api.ES2015,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"esnext": api.ESNext,
}

// Transpiler is the script-transpiler stage
type Transpiler struct{}

// New returns the script-transpiler stage
func New() *Transpiler {
	return &Transpiler{}
}

func (t *Transpiler) ID() string { return stages.ScriptTranspiler }

func (t *Transpiler) Kind() stages.Kind { return stages.KindScript }

// ValidateOptions implements stages.OptionsValidator
func (t *Transpiler) ValidateOptions(opts stages.Options) error {
	_, err := decode(opts)
	return err
}

func decode(opts stages.Options) (Options, error) {
	var o Options
	if err := opts.Decode(&o); err != nil {
		return o, err
	}
	if _, ok := targets[strings.ToLower(o.Target)]; !ok {
		return o, fmt.Errorf("unknown target %q", o.Target)
	}
	return o, nil
}

// Apply implements stages.Stage
func (t *Transpiler) Apply(ctx context.Context, in stages.Input, opts stages.Options, mode types.BuildMode) (stages.Output, error) {
	if err := ctx.Err(); err != nil {
		return stages.Output{}, err
	}
	o, err := decode(opts)
	if err != nil {
		return stages.Output{}, err
	}

	code, encodedMap, err := Transform(in.Path, sourcemap.Inline(in.Source, in.Map), Config{
		Target:  targets[strings.ToLower(o.Target)],
		Defines: Defines(mode, o.Defines),
	})
	if err != nil {
		return stages.Output{}, err
	}

	logger := logging.GetLogger("stages.script")
	logger.Trace().
		Str("path", in.Path).
		Int("bytes", len(code)).
		Msg("Transpiled script")

	return stages.Output{Code: code, Map: encodedMap}, nil
}

// Config parameterises a single esbuild transform
type Config struct {
	Target  api.Target
	Defines map[string]string
}

// Transform lowers source to CommonJS and returns the code and its external
// source map. A data: URL map comment in source is used as the input map, so
// the result maps back to whatever produced source.
func Transform(path string, source []byte, cfg Config) ([]byte, []byte, error) {
	target := cfg.Target
	if target == api.DefaultTarget {
		target = api.ES2015
	}

	result := api.Transform(string(source), api.TransformOptions{
		Loader:         api.LoaderJS,
		Format:         api.FormatCommonJS,
		Target:         target,
		Platform:       api.PlatformBrowser,
		Sourcemap:      api.SourceMapExternal,
		SourcesContent: api.SourcesContentInclude,
		Sourcefile:     path,
		Define:         cfg.Defines,
		LogLevel:       api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return nil, nil, MessagesError(path, result.Errors)
	}
	return result.Code, result.Map, nil
}

// Defines returns the defines of a build: process.env.NODE_ENV follows the
// mode, extra entries are added as given
func Defines(mode types.BuildMode, extra map[string]string) map[string]string {
	env, _ := json.Marshal(mode.String())
	defines := map[string]string{"process.env.NODE_ENV": string(env)}
	for k, v := range extra {
		defines[k] = v
	}
	return defines
}

// MessagesError turns esbuild diagnostics into an error carrying the first
// location
func MessagesError(path string, msgs []api.Message) error {
	first := msgs[0]
	if first.Location != nil {
		return fmt.Errorf("%s:%d:%d: %s (%d errors)",
			path, first.Location.Line, first.Location.Column, first.Text, len(msgs))
	}
	return fmt.Errorf("%s: %s (%d errors)", path, first.Text, len(msgs))
}
