// Package bundle links a completed build graph into a single script.
//
// The linked text is a small runtime followed by one wrapper per module in
// discovery order. Every wrapper carries the table mapping the specifiers the
// module requires to module indices, so the runtime never resolves paths.
// The per-module source maps are concatenated with line offsets into one map
// for the whole text.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bundl/pkg/graph"
	"github.com/arthur-debert/bundl/pkg/internal/hashutil"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/types"
)

// Options configures Link
type Options struct {
	Mode types.BuildMode

	// Filename is the primary artifact name template
	Filename string

	// Context is the directory source and manifest paths are relative to
	Context string
}

// Bundle is the linked, not yet optimized, output of a build
type Bundle struct {
	// Filename is the expanded primary file name
	Filename string

	// Code is the pre-minification text without a source map comment
	Code []byte

	// Map maps Code back to the module sources
	Map *sourcemap.Map

	// Assets are the pass-through files to copy next to the bundle
	Assets []types.Artifact

	Manifest *Manifest

	// Contributions records the bytes each input adds to Code
	Contributions map[string]InputContrib

	// Entry is the entry module relative to the context
	Entry string
}

// Link concatenates the modules of g
func Link(g *graph.Graph, opts Options) (*Bundle, error) {
	logger := logging.GetLogger("bundle")
	if len(g.Modules) == 0 {
		return nil, fmt.Errorf("cannot link an empty graph")
	}

	w := &writer{}
	w.prelude(opts.Mode)

	sections := make([]sourcemap.Section, 0, len(g.Modules))
	manifest := &Manifest{Inputs: map[string]ManifestInput{}}
	contrib := map[string]InputContrib{}
	var assets []types.Artifact

	for _, m := range g.Modules {
		deps, err := dependencyTable(g, m)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(w, "%d: [function (module, exports, require, process) {\n", m.Index)
		start := w.line
		before := w.buf.Len()
		w.writeCode(m.Code)
		contrib[relPath(opts.Context, m.Path)] = InputContrib{BytesInOutput: w.buf.Len() - before}
		fmt.Fprintf(w, "}, %s],\n", deps)

		sec := sourcemap.Section{Line: start}
		if len(m.Map) > 0 {
			parsed, err := sourcemap.Parse(m.Map)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", m.Path, err)
			}
			sec.Map = parsed
		}
		sections = append(sections, sec)

		manifest.Inputs[relPath(opts.Context, m.Path)] = manifestInput(g, m, opts.Context)
		if m.Asset {
			assets = append(assets, types.Artifact{Name: m.AssetName, Content: m.Source})
		}
	}
	w.epilogue(g.Entry().Index)

	code := w.buf.Bytes()
	entryName := strings.TrimSuffix(filepath.Base(g.Entry().Path), filepath.Ext(g.Entry().Path))
	filename := ExpandFilename(opts.Filename, entryName, hashutil.Short(code))

	combined, err := sourcemap.Concat(filename, sections)
	if err != nil {
		return nil, err
	}
	for i, src := range combined.Sources {
		if filepath.IsAbs(src) {
			combined.Sources[i] = relPath(opts.Context, src)
		}
	}

	logger.Debug().
		Str("file", filename).
		Int("modules", len(g.Modules)).
		Int("bytes", len(code)).
		Int("lines", w.line).
		Msg("Linked bundle")

	return &Bundle{
		Filename:      filename,
		Code:          code,
		Map:           combined,
		Assets:        assets,
		Manifest:      manifest,
		Contributions: contrib,
		Entry:         relPath(opts.Context, g.Entry().Path),
	}, nil
}

func dependencyTable(g *graph.Graph, m *types.Module) ([]byte, error) {
	table := make(map[string]int, len(m.Resolved))
	for spec, path := range m.Resolved {
		dep, ok := g.Module(path)
		if !ok {
			return nil, fmt.Errorf("module %s requires %s which is not in the graph", m.Path, path)
		}
		table[spec] = dep.Index
	}
	return json.Marshal(table)
}

func manifestInput(g *graph.Graph, m *types.Module, context string) ManifestInput {
	in := ManifestInput{Bytes: len(m.Source), Imports: []ManifestImport{}, Stages: m.Stages}
	for _, spec := range m.Dependencies {
		path, ok := m.Resolved[spec]
		if !ok {
			continue
		}
		kind := "require-call"
		if dep, ok := g.Module(path); ok && dep.Asset {
			kind = "file-loader"
		}
		in.Imports = append(in.Imports, ManifestImport{Path: relPath(context, path), Kind: kind, Original: spec})
	}
	return in
}

func relPath(context, p string) string {
	if context == "" {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(context, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// writer tracks the generated line while the bundle is written
type writer struct {
	buf  bytes.Buffer
	line int
}

func (w *writer) Write(p []byte) (int, error) {
	w.line += bytes.Count(p, []byte("\n"))
	return w.buf.Write(p)
}

func (w *writer) writeCode(code []byte) {
	_, _ = w.Write(code)
	if len(code) > 0 && code[len(code)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
}

func (w *writer) prelude(mode types.BuildMode) {
	env, _ := json.Marshal(mode.String())
	fmt.Fprintf(w, "(function (modules) {\n")
	fmt.Fprintf(w, "  var process = { env: { NODE_ENV: %s } };\n", env)
	fmt.Fprintf(w, "  var cache = {};\n")
	fmt.Fprintf(w, "  function load(id) {\n")
	fmt.Fprintf(w, "    if (cache[id]) return cache[id].exports;\n")
	fmt.Fprintf(w, "    var module = cache[id] = { exports: {} };\n")
	fmt.Fprintf(w, "    var def = modules[id];\n")
	fmt.Fprintf(w, "    def[0].call(module.exports, module, module.exports, function (spec) {\n")
	fmt.Fprintf(w, "      var target = def[1][spec];\n")
	fmt.Fprintf(w, "      if (target === undefined) throw new Error(\"Cannot find module '\" + spec + \"'\");\n")
	fmt.Fprintf(w, "      return load(target);\n")
	fmt.Fprintf(w, "    }, process);\n")
	fmt.Fprintf(w, "    return module.exports;\n")
	fmt.Fprintf(w, "  }\n")
	fmt.Fprintf(w, "  return load;\n")
	fmt.Fprintf(w, "})({\n")
}

func (w *writer) epilogue(entry int) {
	fmt.Fprintf(w, "})(%d);\n", entry)
}
