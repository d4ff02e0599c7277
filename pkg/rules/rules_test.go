// Test Type: Unit Test
// Description: Tests for rule compilation and stage chain selection

package rules_test

import (
	"context"
	"testing"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/rules"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	id      string
	kind    stages.Kind
	checkFn func(stages.Options) error
}

func (s fakeStage) ID() string        { return s.id }
func (s fakeStage) Kind() stages.Kind { return s.kind }
func (s fakeStage) Apply(_ context.Context, in stages.Input, _ stages.Options, _ types.BuildMode) (stages.Output, error) {
	return stages.Output{Code: in.Source}, nil
}

type validatingStage struct {
	fakeStage
}

func (s validatingStage) ValidateOptions(opts stages.Options) error {
	return s.checkFn(opts)
}

func newRegistry(t *testing.T) *stages.Registry {
	t.Helper()
	reg, err := stages.NewRegistry(
		fakeStage{id: stages.DialectCompiler, kind: stages.KindDialect},
		fakeStage{id: stages.ScriptTranspiler, kind: stages.KindScript},
		fakeStage{id: stages.StylesheetPreprocessor, kind: stages.KindStylesheet},
		fakeStage{id: stages.StylesheetResolver, kind: stages.KindStylesheet},
		fakeStage{id: stages.StylesheetInjector, kind: stages.KindStylesheet},
	)
	require.NoError(t, err)
	return reg
}

func defaultRules(t *testing.T) []config.Rule {
	t.Helper()
	cfg, err := config.Load(config.LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	return cfg.Rules
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{`/\.fs(x|proj)?$/`, "/src/App.fs", true},
		{`/\.fs(x|proj)?$/`, "/src/client.fsproj", true},
		{`/\.fs(x|proj)?$/`, "/src/app.fsi", false},
		{`/\.JS$/i`, "/lib/a.js", true},
		{`/node_modules/`, "/p/node_modules/x/index.js", true},
		{"*.sass", "/p/styles/main.sass", true},
		{"*.sass", "/p/styles/main.css", false},
		{"**/node_modules/**", "/p/node_modules/x/index.js", true},
		{"**/node_modules/**", "/p/web_modules/x/index.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			p, err := rules.ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.path))
			assert.Equal(t, tt.pattern, p.String())
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	_, err := rules.ParsePattern(`/([a-z/`)
	assert.Error(t, err)

	_, err = rules.ParsePattern("")
	assert.Error(t, err)
}

func TestMatchDefaultTable(t *testing.T) {
	m, err := rules.Compile(defaultRules(t), newRegistry(t), types.Development)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"project file", "/p/src/client.fsproj", []string{stages.DialectCompiler}},
		{"dialect source", "/p/src/App.fs", []string{stages.DialectCompiler}},
		{"dialect script", "/p/src/build.fsx", []string{stages.DialectCompiler}},
		{"plain script", "/p/src/interop.js", []string{stages.ScriptTranspiler}},
		{"module script", "/p/src/interop.mjs", []string{stages.ScriptTranspiler}},
		{"vendored script", "/p/node_modules/lib/index.js", nil},
		{"sass runs right to left", "/p/styles/main.sass", []string{
			stages.StylesheetPreprocessor, stages.StylesheetResolver, stages.StylesheetInjector,
		}},
		{"image passes through", "/p/img/logo.png", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := m.Match(tt.path)
			if tt.want == nil {
				assert.Empty(t, steps)
				return
			}
			assert.Equal(t, tt.want, rules.StageIDs(steps))
		})
	}
}

func TestDialectAndScriptChainsAreExclusive(t *testing.T) {
	m, err := rules.Compile(defaultRules(t), newRegistry(t), types.Production)
	require.NoError(t, err)

	for _, path := range []string{"/a.fs", "/a.fsx", "/a.fsproj", "/a.js", "/a.mjs"} {
		ids := rules.StageIDs(m.Match(path))
		hasDialect := contains(ids, stages.DialectCompiler)
		hasScript := contains(ids, stages.ScriptTranspiler)
		assert.False(t, hasDialect && hasScript, path)
		assert.True(t, hasDialect || hasScript, path)
	}
}

func TestExclusionWinsOverLaterRules(t *testing.T) {
	cfgRules := []config.Rule{
		{Test: `/\.js$/`, Exclude: `/node_modules/`, Use: []string{stages.ScriptTranspiler}},
		{Test: `/vendor\.js$/`, Use: []string{stages.DialectCompiler}},
	}
	m, err := rules.Compile(cfgRules, newRegistry(t), types.Development)
	require.NoError(t, err)

	assert.Equal(t, []string{stages.ScriptTranspiler}, rules.StageIDs(m.Match("/p/src/vendor.js")),
		"first matching rule wins, no merging")
	assert.Equal(t, []string{stages.DialectCompiler}, rules.StageIDs(m.Match("/p/node_modules/vendor.js")),
		"an excluded rule is skipped")
	assert.Empty(t, m.Match("/p/node_modules/other.js"))
}

func TestModeResolvedOptions(t *testing.T) {
	reg := newRegistry(t)

	dev, err := rules.Compile(defaultRules(t), reg, types.Development)
	require.NoError(t, err)
	prod, err := rules.Compile(defaultRules(t), reg, types.Production)
	require.NoError(t, err)

	devOpts := dev.Match("/App.fs")[0].Options
	prodOpts := prod.Match("/App.fs")[0].Options

	assert.Equal(t, []interface{}{"DEBUG"}, devOpts["defines"])
	assert.Empty(t, prodOpts["defines"])
	assert.Equal(t, true, devOpts["helperInjection"])
	assert.Equal(t, false, prodOpts["polyfillInjection"])
	assert.Equal(t, types.Production, prod.Mode())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules []config.Rule
	}{
		{"unknown stage", []config.Rule{{Test: "*.fs", Use: []string{"fable-loader"}}}},
		{"empty chain", []config.Rule{{Test: "*.fs"}}},
		{"bad pattern", []config.Rule{{Test: `/(/`, Use: []string{stages.ScriptTranspiler}}}},
		{"bad exclude", []config.Rule{{Test: "*.js", Exclude: `/(/`, Use: []string{stages.ScriptTranspiler}}}},
		{"mixed kinds", []config.Rule{{Test: "*.css", Use: []string{stages.StylesheetInjector, stages.ScriptTranspiler}}}},
		{"options for unused stage", []config.Rule{{
			Test:    "*.js",
			Use:     []string{stages.ScriptTranspiler},
			Options: map[string]map[string]interface{}{stages.DialectCompiler: {"defines": []string{}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Compile(tt.rules, newRegistry(t), types.Development)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
		})
	}
}

func TestCompileRejectsOptionsForUnknownStage(t *testing.T) {
	cfgRules := []config.Rule{{
		Test:    "*.js",
		Use:     []string{stages.ScriptTranspiler},
		Options: map[string]map[string]interface{}{"babel-loader": {"presets": []string{}}},
	}}

	_, err := rules.Compile(cfgRules, newRegistry(t), types.Development)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	assert.Equal(t, "babel-loader", errors.GetErrorDetails(err)[errors.DetailStage])
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestCompileValidatesOptions(t *testing.T) {
	rejecting := validatingStage{fakeStage{
		id:   stages.ScriptTranspiler,
		kind: stages.KindScript,
		checkFn: func(opts stages.Options) error {
			if _, ok := opts["target"]; ok {
				return errors.New(errors.ErrInvalidInput, "bad target")
			}
			return nil
		},
	}}
	reg, err := stages.NewRegistry(rejecting)
	require.NoError(t, err)

	ok := []config.Rule{{Test: "*.js", Use: []string{stages.ScriptTranspiler}}}
	_, err = rules.Compile(ok, reg, types.Development)
	require.NoError(t, err)

	bad := []config.Rule{{
		Test:       "*.js",
		Use:        []string{stages.ScriptTranspiler},
		Production: map[string]map[string]interface{}{stages.ScriptTranspiler: {"target": "es3"}},
	}}
	_, err = rules.Compile(bad, reg, types.Development)
	require.NoError(t, err, "production options do not apply in development")

	_, err = rules.Compile(bad, reg, types.Production)
	require.Error(t, err)
	assert.Equal(t, stages.ScriptTranspiler, errors.GetErrorDetails(err)[errors.DetailStage])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
