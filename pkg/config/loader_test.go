// Test Type: Unit Test
// Description: Tests for layered configuration loading

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, types.Development, cfg.Mode)
	assert.Equal(t, filepath.Join(dir, "src", "client.fsproj"), cfg.EntryPath())
	assert.Equal(t, filepath.Join(dir, "public"), cfg.OutputDir())
	assert.Equal(t, "bundle.min.js", cfg.Output.Filename)
	assert.Equal(t, []string{
		filepath.Join(dir, "web_modules"),
		filepath.Join(dir, "node_modules"),
	}, cfg.SearchRoots())
	assert.True(t, cfg.Optimization.Minify.For(types.Development))
	assert.True(t, cfg.Optimization.Minify.For(types.Production))

	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, []string{"dialect-compiler"}, cfg.Rules[0].Use)
	assert.Equal(t, "/node_modules/", cfg.Rules[1].Exclude)
	assert.Equal(t, []string{"stylesheet-injector", "stylesheet-resolver", "stylesheet-preprocessor"}, cfg.Rules[2].Use)
}

func TestLoad_ModeSpecificDefines(t *testing.T) {
	cfg, err := config.Load(config.LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	dialect := cfg.Rules[0]
	dev := dialect.StageOptions("dialect-compiler", types.Development)
	prod := dialect.StageOptions("dialect-compiler", types.Production)

	assert.Equal(t, []interface{}{"DEBUG"}, dev["defines"])
	assert.Empty(t, prod["defines"])
	assert.Equal(t, true, dev["helperInjection"])
	assert.Equal(t, false, prod["polyfillInjection"])
}

func TestLoad_ProjectFileOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bundl.toml", `
entry = "./app/main.js"
mode = "production"

[output]
path = "dist"

[[rules]]
test = '/\.js$/'
use = ["script-transpiler"]
`)

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, types.Production, cfg.Mode)
	assert.Equal(t, filepath.Join(dir, "app", "main.js"), cfg.EntryPath())
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.OutputDir())
	assert.Equal(t, "bundle.min.js", cfg.Output.Filename, "untouched keys keep their default")
	require.Len(t, cfg.Rules, 1, "project rules replace the default table")
}

func TestLoad_YAMLProjectFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bundl.yaml", "entry: ./index.js\nconcurrency: 2\n")

	cfg, err := config.Load(config.LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, filepath.Join(dir, "index.js"), cfg.EntryPath())
}

func TestLoad_EnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BUNDL_MODE", "production")
	t.Setenv("BUNDL_OUTPUT__PATH", "from-env")

	cfg, err := config.Load(config.LoadOptions{
		Dir:       dir,
		Overrides: map[string]interface{}{"output.path": "from-flag"},
	})
	require.NoError(t, err)

	assert.Equal(t, types.Production, cfg.Mode)
	assert.Equal(t, filepath.Join(dir, "from-flag"), cfg.OutputDir())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown mode", `mode = "staging"`},
		{"negative concurrency", `concurrency = -1`},
		{"rule without stages", "[[rules]]\ntest = '/x/'\nuse = []\n"},
		{"filename with separator", "[output]\nfilename = \"js/bundle.js\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "bundl.toml", tt.content)

			_, err := config.Load(config.LoadOptions{Dir: dir})
			require.Error(t, err)
			code := errors.GetErrorCode(err)
			assert.Contains(t, []errors.ErrorCode{errors.ErrConfigValid, errors.ErrConfigParse}, code)
		})
	}
}

func TestRender(t *testing.T) {
	cfg, err := config.Load(config.LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	out, err := config.Render(cfg)
	require.NoError(t, err)
	assert.Regexp(t, `mode = ["']development["']`, string(out))
	assert.Contains(t, string(out), "bundle.min.js")
	assert.Contains(t, string(out), "dialect-compiler")
}
