// Test Type: Unit Test
// Description: Tests for the test environment helpers

package testutil_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/bundl/pkg/stages/dialect"
	"github.com/arthur-debert/bundl/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentFileTree(t *testing.T) {
	for _, envType := range []testutil.EnvType{testutil.EnvMemoryOnly, testutil.EnvIsolated} {
		env := testutil.NewTestEnvironment(t, envType).WithFileTree(testutil.FileTree{
			"src/app.js":              "module.exports = 1;\n",
			"node_modules/x/index.js": "",
		})

		assert.True(t, env.Exists("src/app.js"))
		assert.Equal(t, "module.exports = 1;\n", env.ReadFile("src/app.js"))
		assert.False(t, env.Exists("src/other.js"))
		assert.Empty(t, env.OutputFiles())
	}
}

func TestEnvironmentConfig(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	cfg := env.Config(map[string]interface{}{"entry": "./src/app.js"})

	assert.Equal(t, env.Path("src/app.js"), cfg.EntryPath())
	assert.Equal(t, env.OutputDir, cfg.OutputDir())
}

func TestFakeBackend(t *testing.T) {
	b := &testutil.FakeBackend{}

	resp, err := b.Compile(context.Background(), dialect.Request{
		Path:    "/p/App.fs",
		Source:  "module App\nopen Shared\n",
		Defines: []string{"DEBUG"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"./Shared.fs"}, resp.Dependencies)
	assert.Contains(t, resp.Code, `export const DEBUG = true;`)

	resp, err = b.Compile(context.Background(), dialect.Request{Path: "/p/Bad.fs", Source: "SYNTAX ERROR"})
	require.NoError(t, err)
	assert.Contains(t, resp.Error, "Bad.fs")
	assert.Equal(t, []string{"/p/App.fs", "/p/Bad.fs"}, b.Paths())
}

func TestFailingFS(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	fsys := &testutil.FailingFS{FS: env.FS, Fail: "bundle.js.map"}

	assert.NoError(t, fsys.WriteFile(env.Path("bundle.js"), nil, 0644))
	assert.Error(t, fsys.WriteFile(env.Path("bundle.js.map"), nil, 0644))
	assert.Error(t, fsys.Rename(env.Path("bundle.js"), env.Path("bundle.js.map")))
}
