package optimize

import (
	"context"

	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/stages/script"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/evanw/esbuild/pkg/api"
)

// Minify compresses the bundle with esbuild. The current map is passed in
// inline so the resulting map still points at the module sources.
type Minify struct {
	DropWarnings bool
}

func (m *Minify) Name() string { return "minify" }

func (m *Minify) Apply(_ context.Context, s *State, _ types.BuildMode) error {
	result := api.Transform(string(sourcemap.Inline(s.Code, s.Map)), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		Sourcemap:         api.SourceMapExternal,
		SourcesContent:    api.SourcesContentInclude,
		Sourcefile:        s.Bundle.Filename,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return script.MessagesError(s.Bundle.Filename, result.Errors)
	}

	if !m.DropWarnings {
		logger := logging.GetLogger("optimize.minify")
		for _, w := range result.Warnings {
			ev := logger.Warn().Str("file", s.Bundle.Filename)
			if w.Location != nil {
				ev = ev.Int("line", w.Location.Line).Int("column", w.Location.Column)
			}
			ev.Msg(w.Text)
		}
	}

	s.Code = result.Code
	s.Map = result.Map
	return nil
}
