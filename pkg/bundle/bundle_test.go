// Test Type: Unit Test
// Description: Tests for linking a build graph into one script and map

package bundle_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/bundl/pkg/bundle"
	"github.com/arthur-debert/bundl/pkg/graph"
	"github.com/arthur-debert/bundl/pkg/sourcemap"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(t *testing.T, path, code string) []byte {
	t.Helper()
	b, err := sourcemap.Identity(path, []byte(code)).Bytes()
	require.NoError(t, err)
	return b
}

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	entryCode := "var a = require(\"./a\");\nconsole.log(a, require(\"./logo.png\"));\n"
	aCode := "exports.value = 1;\n"
	return graph.FromModules(
		&types.Module{
			Path:         "/p/src/index.js",
			Source:       []byte(entryCode),
			Code:         []byte(entryCode),
			Map:          identity(t, "/p/src/index.js", entryCode),
			Stages:       []string{"script-transpiler"},
			Dependencies: []string{"./a", "./logo.png"},
			Resolved:     map[string]string{"./a": "/p/src/a.js", "./logo.png": "/p/src/logo.png"},
		},
		&types.Module{
			Path:   "/p/src/a.js",
			Source: []byte(aCode),
			Code:   []byte(aCode),
			Map:    identity(t, "/p/src/a.js", aCode),
		},
		&types.Module{
			Path:      "/p/src/logo.png",
			Source:    []byte("PNG"),
			Code:      []byte("module.exports = \"logo.12345678.png\";"),
			Asset:     true,
			AssetName: "logo.12345678.png",
		},
	)
}

func TestLink(t *testing.T) {
	b, err := bundle.Link(sampleGraph(t), bundle.Options{
		Mode:     types.Production,
		Filename: "bundle.min.js",
		Context:  "/p",
	})
	require.NoError(t, err)

	code := string(b.Code)
	assert.Equal(t, "bundle.min.js", b.Filename)
	assert.Contains(t, code, `NODE_ENV: "production"`)
	assert.Contains(t, code, "0: [function (module, exports, require, process) {\nvar a = require(\"./a\");")
	assert.Contains(t, code, `}, {"./a":1,"./logo.png":2}],`)
	assert.Contains(t, code, "module.exports = \"logo.12345678.png\";\n}, {}],")
	assert.True(t, strings.HasSuffix(code, "})(0);\n"))
	assert.NotContains(t, code, sourcemap.CommentPrefix)

	require.Len(t, b.Assets, 1)
	assert.Equal(t, types.Artifact{Name: "logo.12345678.png", Content: []byte("PNG")}, b.Assets[0])
	assert.Equal(t, "src/index.js", b.Entry)
}

func TestLinkSourceMapOffsets(t *testing.T) {
	b, err := bundle.Link(sampleGraph(t), bundle.Options{Filename: "bundle.min.js", Context: "/p"})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/index.js", "src/a.js"}, b.Map.Sources)
	assert.Equal(t, "bundle.min.js", b.Map.File)

	lines, err := sourcemap.DecodeMappings(b.Map.Mappings)
	require.NoError(t, err)

	generated := strings.Split(string(b.Code), "\n")
	for i, text := range generated {
		if i >= len(lines) || len(lines[i]) == 0 {
			continue
		}
		seg := lines[i][0]
		switch seg.Source {
		case 0:
			assert.Equal(t, strings.Split("var a = require(\"./a\");\nconsole.log(a, require(\"./logo.png\"));", "\n")[seg.OriginalLine], text)
		case 1:
			assert.Equal(t, "exports.value = 1;", text)
		}
	}

	mapped := 0
	for _, l := range lines {
		if len(l) > 0 {
			mapped++
		}
	}
	assert.Equal(t, 3, mapped)
}

func TestLinkFilenameTokens(t *testing.T) {
	b, err := bundle.Link(sampleGraph(t), bundle.Options{Filename: "[name].[hash].min.js"})
	require.NoError(t, err)
	assert.Regexp(t, `^index\.[0-9a-f]{8}\.min\.js$`, b.Filename)

	again, err := bundle.Link(sampleGraph(t), bundle.Options{Filename: "[name].[hash].min.js"})
	require.NoError(t, err)
	assert.Equal(t, b.Filename, again.Filename)
	assert.Equal(t, b.Code, again.Code)
}

func TestLinkRejectsDanglingDependency(t *testing.T) {
	g := graph.FromModules(&types.Module{
		Path:     "/p/index.js",
		Code:     []byte("require(\"./gone\");\n"),
		Resolved: map[string]string{"./gone": "/p/gone.js"},
	})
	_, err := bundle.Link(g, bundle.Options{Filename: "b.js"})
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	b, err := bundle.Link(sampleGraph(t), bundle.Options{Filename: "bundle.min.js", Context: "/p"})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.js", "src/index.js", "src/logo.png"}, b.Manifest.InputNames())
	entry := b.Manifest.Inputs["src/index.js"]
	assert.Equal(t, []bundle.ManifestImport{
		{Path: "src/a.js", Kind: "require-call", Original: "./a"},
		{Path: "src/logo.png", Kind: "file-loader", Original: "./logo.png"},
	}, entry.Imports)

	arts := &types.Artifacts{
		Primary:   types.Artifact{Name: "bundle.min.js", Content: []byte("x")},
		Twin:      types.Artifact{Name: "bundle.js", Content: b.Code},
		SourceMap: types.Artifact{Name: "bundle.min.js.map", Content: []byte("{}")},
		Assets:    b.Assets,
	}
	data, err := b.Manifest.Encode(arts, b.Entry, b.Contributions)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bundle.min.js.map"`)
	assert.Contains(t, string(data), `"entryPoint": "src/index.js"`)
	assert.Equal(t, 1, b.Manifest.Outputs["bundle.min.js"].Bytes)
	assert.Equal(t, len(b.Code), b.Manifest.Outputs["bundle.js"].Bytes)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "bundle.js", bundle.TwinName("bundle.min.js"))
	assert.Equal(t, "app.abc.js", bundle.TwinName("app.min.abc.js"))
	assert.Equal(t, "app.nomin.js", bundle.TwinName("app.js"))
	assert.Equal(t, "min.nomin.js", bundle.TwinName("min.js"))
	assert.Equal(t, "bundle.min.js.map", bundle.MapName("bundle.min.js"))
	assert.Equal(t, "client.0123abcd.js", bundle.ExpandFilename("[name].[hash].js", "client", "0123abcdef"))
}
