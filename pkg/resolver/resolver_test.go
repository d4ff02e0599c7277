// Test Type: Unit Test
// Description: Tests for specifier resolution against an in-memory project

package resolver_test

import (
	"testing"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/resolver"
	"github.com/arthur-debert/bundl/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testutil.TestEnvironment, *resolver.Resolver) {
	t.Helper()
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly).WithFileTree(testutil.FileTree{
		"src/client.fsproj":                    "<Project/>",
		"src/App.fs":                           "module App",
		"src/lib/util.js":                      "",
		"src/lib/index.js":                     "",
		"src/styles/main.sass":                 "",
		"web_modules/shared/index.js":          "",
		"node_modules/shared/index.js":         "",
		"node_modules/pkg/package.json":        `{"name": "pkg", "browser": "dist/browser.js", "main": "dist/node.js"}`,
		"node_modules/pkg/dist/browser.js":     "",
		"node_modules/pkg/dist/node.js":        "",
		"node_modules/plain/package.json":      `{"main": "lib/entry"}`,
		"node_modules/plain/lib/entry.js":      "",
		"node_modules/objbrowser/package.json": `{"browser": {"./a.js": false}, "main": "main.js"}`,
		"node_modules/objbrowser/main.js":      "",
		"node_modules/broken/package.json":     `{not json`,
		"node_modules/broken/index.mjs":        "",
	})

	r := resolver.New(env.FS, resolver.Options{
		Context:    env.ProjectRoot,
		Roots:      []string{env.Path("web_modules"), env.Path("node_modules")},
		Extensions: []string{".js", ".mjs", ".fs", ".fsx", ".fsproj", ".sass", ".css", ".json"},
		MainFields: []string{"browser", "main"},
	})
	return env, r
}

func TestResolve(t *testing.T) {
	env, r := setup(t)
	from := env.Path("src/App.fs")

	tests := []struct {
		name string
		spec string
		from string
		want string
	}{
		{"entry from context", "./src/client.fsproj", "", "src/client.fsproj"},
		{"exact relative", "./lib/util.js", from, "src/lib/util.js"},
		{"extension probing", "./lib/util", from, "src/lib/util.js"},
		{"directory index", "./lib", from, "src/lib/index.js"},
		{"parent directory", "../App", env.Path("src/lib/util.js"), "src/App.fs"},
		{"stylesheet", "./styles/main", from, "src/styles/main.sass"},
		{"local override root wins", "shared", from, "web_modules/shared/index.js"},
		{"browser field first", "pkg", from, "node_modules/pkg/dist/browser.js"},
		{"main without extension", "plain", from, "node_modules/plain/lib/entry.js"},
		{"non-string browser field", "objbrowser", from, "node_modules/objbrowser/main.js"},
		{"invalid package.json falls back to index", "broken", from, "node_modules/broken/index.mjs"},
		{"bare file path", "pkg/dist/node", from, "node_modules/pkg/dist/node.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.spec, tt.from)
			require.NoError(t, err)
			assert.Equal(t, env.Path(tt.want), got)
		})
	}
}

func TestResolveAbsolute(t *testing.T) {
	env, r := setup(t)

	got, err := r.Resolve(env.Path("src/lib/util"), env.Path("src/App.fs"))
	require.NoError(t, err)
	assert.Equal(t, env.Path("src/lib/util.js"), got)
}

func TestResolutionError(t *testing.T) {
	env, r := setup(t)

	_, err := r.Resolve("left-pad", env.Path("src/App.fs"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrResolution))

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "left-pad", details[errors.DetailSpecifier])
	assert.Equal(t, env.Path("src/App.fs"), details[errors.DetailModule])
	assert.Equal(t, []string{env.Path("web_modules"), env.Path("node_modules")}, details[errors.DetailRoots])
	assert.Contains(t, err.Error(), env.Path("web_modules"))

	_, err = r.Resolve("./missing", env.Path("src/App.fs"))
	require.Error(t, err)
	assert.Equal(t, []string{env.Path("src")}, errors.GetErrorDetails(err)[errors.DetailRoots])
}

func TestResolveCache(t *testing.T) {
	env, r := setup(t)
	from := env.Path("src/App.fs")

	first, err := r.Resolve("pkg", from)
	require.NoError(t, err)

	// The cache answers even after the file disappears
	require.NoError(t, env.FS.Remove(first))
	second, err := r.Resolve("pkg", from)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, hits := r.CacheStats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, hits)

	// A fresh resolver does not share the cache
	fresh := resolver.New(env.FS, resolver.Options{
		Roots:      []string{env.Path("node_modules")},
		Extensions: []string{".js"},
		MainFields: []string{"browser", "main"},
	})
	got, err := fresh.Resolve("pkg", from)
	require.NoError(t, err)
	assert.Equal(t, env.Path("node_modules/pkg/dist/node.js"), got)
}

func TestIsRelative(t *testing.T) {
	assert.True(t, resolver.IsRelative("./a"))
	assert.True(t, resolver.IsRelative("../a"))
	assert.True(t, resolver.IsRelative("/abs/a"))
	assert.False(t, resolver.IsRelative("pkg"))
	assert.False(t, resolver.IsRelative("@scope/pkg"))
}
