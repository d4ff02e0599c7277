package testutil

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/filesystem"
	"github.com/arthur-debert/bundl/pkg/types"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// FileTree maps paths relative to the project root to file contents
type FileTree map[string]string

// TestEnvironment is a project laid out the way the default configuration
// expects it: sources under src/, vendored code under node_modules/ and
// web_modules/, artifacts in public/
type TestEnvironment struct {
	ProjectRoot string
	OutputDir   string

	FS   types.FS
	Type EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}

	switch envType {
	case EnvMemoryOnly:
		env.ProjectRoot = "/virtual/project"
		env.FS = filesystem.NewMemory()
	case EnvIsolated:
		env.ProjectRoot = filepath.Join(t.TempDir(), "project")
		env.FS = filesystem.NewOS()
	}
	env.OutputDir = filepath.Join(env.ProjectRoot, "public")

	if err := env.FS.MkdirAll(env.ProjectRoot, 0755); err != nil {
		t.Fatalf("Failed to create project root: %v", err)
	}
	return env
}

// Path returns the absolute path of a project-relative path
func (env *TestEnvironment) Path(rel string) string {
	return filepath.Join(env.ProjectRoot, filepath.FromSlash(rel))
}

// WithFileTree writes every file of tree under the project root
func (env *TestEnvironment) WithFileTree(tree FileTree) *TestEnvironment {
	env.t.Helper()

	// Sorted for deterministic directory creation
	names := make([]string, 0, len(tree))
	for name := range tree {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		env.WriteFile(name, tree[name])
	}
	return env
}

// WriteFile writes a single project file, creating parent directories
func (env *TestEnvironment) WriteFile(rel, content string) {
	env.t.Helper()

	full := env.Path(rel)
	if err := env.FS.MkdirAll(filepath.Dir(full), 0755); err != nil {
		env.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := env.FS.WriteFile(full, []byte(content), 0644); err != nil {
		env.t.Fatalf("Failed to write file %s: %v", rel, err)
	}
}

// ReadFile returns the content of a project file
func (env *TestEnvironment) ReadFile(rel string) string {
	env.t.Helper()

	data, err := env.FS.ReadFile(env.Path(rel))
	if err != nil {
		env.t.Fatalf("Failed to read file %s: %v", rel, err)
	}
	return string(data)
}

// Exists reports whether a project file exists
func (env *TestEnvironment) Exists(rel string) bool {
	_, err := env.FS.Stat(env.Path(rel))
	return err == nil
}

// OutputFiles lists the names in the output directory, sorted
func (env *TestEnvironment) OutputFiles() []string {
	env.t.Helper()

	entries, err := env.FS.ReadDir(env.OutputDir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Config loads the default configuration for the project with the given
// dotted-key overrides applied
func (env *TestEnvironment) Config(overrides map[string]interface{}) *config.Config {
	env.t.Helper()

	merged := map[string]interface{}{}
	for k, v := range overrides {
		merged[k] = v
	}

	cfg, err := config.Load(config.LoadOptions{Dir: env.configDir(), Overrides: merged})
	if err != nil {
		env.t.Fatalf("Failed to load config: %v", err)
	}
	cfg.Context = env.ProjectRoot
	return cfg
}

// configDir is a real directory without a project config file, so only the
// defaults and overrides apply
func (env *TestEnvironment) configDir() string {
	if env.Type == EnvIsolated {
		return env.ProjectRoot
	}
	return env.t.TempDir()
}

// Lines splits s into lines without the trailing empty element
func Lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
