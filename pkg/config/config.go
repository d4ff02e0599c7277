package config

import (
	"path/filepath"

	"github.com/arthur-debert/bundl/pkg/types"
)

// Config is the complete build configuration
type Config struct {
	// Entry is the path of the entry module
	Entry string `koanf:"entry" toml:"entry"`

	// Context is the project directory relative paths are resolved against
	Context string `koanf:"context" toml:"context,omitempty"`

	Mode types.BuildMode `koanf:"mode" toml:"mode"`

	// Concurrency bounds the stage worker pool; 0 means one worker per CPU
	Concurrency int `koanf:"concurrency" toml:"concurrency"`

	Output       Output       `koanf:"output" toml:"output"`
	Resolve      Resolve      `koanf:"resolve" toml:"resolve"`
	Optimization Optimization `koanf:"optimization" toml:"optimization"`
	Rules        []Rule       `koanf:"rules" toml:"rules"`
}

// Output configures where artifacts are written
type Output struct {
	Path string `koanf:"path" toml:"path"`

	// Filename is the primary artifact name; [name] and [hash] are replaced
	Filename string `koanf:"filename" toml:"filename"`

	// Manifest writes manifest.json next to the bundle
	Manifest bool `koanf:"manifest" toml:"manifest"`
}

// Resolve configures the module resolver
type Resolve struct {
	// Roots are searched in order for bare specifiers
	Roots []string `koanf:"roots" toml:"roots"`

	// Extensions are probed in order when a specifier has no exact match
	Extensions []string `koanf:"extensions" toml:"extensions"`

	// MainFields are read from package.json in order
	MainFields []string `koanf:"main_fields" toml:"main_fields"`
}

// Optimization configures the whole-bundle passes
type Optimization struct {
	Minify       ModeSwitch `koanf:"minify" toml:"minify"`
	DropWarnings bool       `koanf:"drop_warnings" toml:"drop_warnings"`
}

// ModeSwitch holds one flag per build mode
type ModeSwitch struct {
	Development bool `koanf:"development" toml:"development"`
	Production  bool `koanf:"production" toml:"production"`
}

// For returns the flag for mode
func (s ModeSwitch) For(mode types.BuildMode) bool {
	if mode.IsProduction() {
		return s.Production
	}
	return s.Development
}

// Rule binds a path pattern to a stage chain. Options are keyed by stage
// identifier; Development and Production options are overlaid on Options for
// the matching build mode.
type Rule struct {
	Test        string                            `koanf:"test" toml:"test"`
	Exclude     string                            `koanf:"exclude" toml:"exclude,omitempty"`
	Use         []string                          `koanf:"use" toml:"use"`
	Options     map[string]map[string]interface{} `koanf:"options" toml:"options,omitempty"`
	Development map[string]map[string]interface{} `koanf:"development" toml:"development,omitempty"`
	Production  map[string]map[string]interface{} `koanf:"production" toml:"production,omitempty"`
}

// StageOptions returns the options of stage for mode. The result is a fresh
// map; callers may keep it.
func (r Rule) StageOptions(stage string, mode types.BuildMode) map[string]interface{} {
	merged := make(map[string]interface{})
	for k, v := range r.Options[stage] {
		merged[k] = v
	}
	overlay := r.Development
	if mode.IsProduction() {
		overlay = r.Production
	}
	for k, v := range overlay[stage] {
		merged[k] = v
	}
	return merged
}

// OutputDir returns the absolute output directory
func (c *Config) OutputDir() string {
	return c.abs(c.Output.Path)
}

// EntryPath returns the absolute entry path
func (c *Config) EntryPath() string {
	return c.abs(c.Entry)
}

// SearchRoots returns the absolute search roots in priority order
func (c *Config) SearchRoots() []string {
	roots := make([]string, len(c.Resolve.Roots))
	for i, r := range c.Resolve.Roots {
		roots[i] = c.abs(r)
	}
	return roots
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Context, p)
}
