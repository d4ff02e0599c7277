// Test Type: Unit Test
// Description: Tests for build report rendering

package ui_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/arthur-debert/bundl/pkg/build"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/graph"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/arthur-debert/bundl/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *build.Result {
	return &build.Result{
		Mode: types.Production,
		Graph: graph.FromModules(
			&types.Module{Path: "/p/src/index.js"},
			&types.Module{Path: "/p/src/logo.png", Asset: true, AssetName: "logo.0123abcd.png"},
		),
		Artifacts: &types.Artifacts{
			Primary:   types.Artifact{Name: "app.min.js", Content: []byte("var a=1;")},
			Twin:      types.Artifact{Name: "app.js", Content: []byte("var a = 1;\n")},
			SourceMap: types.Artifact{Name: "app.min.js.map", Content: []byte("{}")},
			Assets:    []types.Artifact{{Name: "logo.0123abcd.png", Content: []byte{1, 2, 3}}},
		},
		Duration: 42 * time.Millisecond,
	}
}

func TestNewReport(t *testing.T) {
	r := ui.NewReport(sampleResult(), "./src/index.js", "public", false)

	assert.Equal(t, "production", r.Mode)
	assert.Equal(t, 2, r.Modules)
	assert.Equal(t, 1, r.Assets)
	assert.Equal(t, int64(42), r.Duration)
	require.Len(t, r.Files, 4)
	assert.Equal(t, ui.ReportFile{Name: "app.min.js", Bytes: 8, Primary: true}, r.Files[0])
	assert.Equal(t, "app.js", r.Files[1].Name)
	assert.False(t, r.Files[1].Primary)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatText, &buf)
	require.NoError(t, err)

	require.NoError(t, r.RenderReport(ui.NewReport(sampleResult(), "./src/index.js", "public", true)))

	out := buf.String()
	assert.Contains(t, out, "production build of ./src/index.js (2 modules, 1 assets, 42ms)")
	assert.Contains(t, out, "public/app.min.js")
	assert.Contains(t, out, "public/logo.0123abcd.png")
	assert.Contains(t, out, "8 B")
	assert.Contains(t, out, "dry run: nothing was written")
	assert.NotContains(t, out, "\x1b[", "plain text must not carry escape sequences")
}

func TestAutoFormatOnBufferIsText(t *testing.T) {
	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatAuto, &buf)
	require.NoError(t, err)

	require.NoError(t, r.RenderError(errors.New(errors.ErrIO, "disk full")))
	assert.Equal(t, "Error: [IO] disk full\n", buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatJSON, &buf)
	require.NoError(t, err)

	require.NoError(t, r.RenderReport(ui.NewReport(sampleResult(), "./src/index.js", "public", false)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "production", decoded["mode"])
	assert.Equal(t, float64(42), decoded["durationMs"])
	files := decoded["files"].([]interface{})
	assert.Len(t, files, 4)
	assert.Equal(t, true, files[0].(map[string]interface{})["primary"])
}

func TestJSONRenderError(t *testing.T) {
	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatJSON, &buf)
	require.NoError(t, err)

	cause := errors.Resolution("./missing", "/p/src/index.js", []string{"/p/src"})
	require.NoError(t, r.RenderError(cause))

	var decoded struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "RESOLUTION", decoded.Error.Code)
	assert.Equal(t, "./missing", decoded.Error.Details["specifier"])
}

func TestStyles(t *testing.T) {
	styles := ui.DefaultStyles()
	for _, name := range []string{"Header", "Error", "Primary", "FilePath", "Muted", "DryRunBanner"} {
		_, ok := styles[name]
		assert.True(t, ok, "style %s", name)
	}

	_, err := ui.ParseStyles([]byte("styles: ["))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))

	custom, err := ui.ParseStyles([]byte("colors:\n  red: {light: '#f00', dark: '#f00'}\nstyles:\n  Alert: {bold: true, foreground: red}\n"))
	require.NoError(t, err)
	assert.True(t, custom.Get("Alert").GetBold())
	assert.False(t, custom.Get("Missing").GetBold())
}
