// Package resolver maps import specifiers to absolute module paths.
//
// Relative (./, ../) and absolute specifiers resolve against the directory of
// the importing module. Bare specifiers are looked up in the configured search
// roots, in order. For each candidate the resolver probes the exact path, the
// path with each configured extension, the main fields of a package.json and
// finally index files.
package resolver

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/rs/zerolog"
)

// Options configures a Resolver
type Options struct {
	// Context is used as the base directory when there is no importing module
	Context string

	// Roots are searched in priority order for bare specifiers
	Roots []string

	// Extensions are appended in order when the exact path does not exist
	Extensions []string

	// MainFields are read from package.json in order
	MainFields []string
}

type cacheKey struct {
	spec string
	from string
}

// Resolver resolves specifiers for one build. Results are cached and the
// cache is never shared between builds.
type Resolver struct {
	fs     types.FS
	opts   Options
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[cacheKey]string
	hits  int
}

// New returns a resolver reading from fsys
func New(fsys types.FS, opts Options) *Resolver {
	if len(opts.MainFields) == 0 {
		opts.MainFields = []string{"main"}
	}
	return &Resolver{
		fs:     fsys,
		opts:   opts,
		logger: logging.GetLogger("resolver"),
		cache:  make(map[cacheKey]string),
	}
}

// IsRelative reports whether spec is resolved against the importing module
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".." || filepath.IsAbs(spec)
}

// Resolve returns the absolute path of spec imported from the module at from.
// An empty from resolves against the context directory.
func (r *Resolver) Resolve(spec, from string) (string, error) {
	key := cacheKey{spec: spec, from: from}

	r.mu.Lock()
	if p, ok := r.cache[key]; ok {
		r.hits++
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p, err := r.resolve(spec, from)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[key] = p
	r.mu.Unlock()
	return p, nil
}

// CacheStats returns the number of cached entries and cache hits
func (r *Resolver) CacheStats() (entries, hits int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache), r.hits
}

func (r *Resolver) resolve(spec, from string) (string, error) {
	if spec == "" {
		return "", errors.Resolution(spec, from, nil)
	}

	base := r.opts.Context
	if from != "" {
		base = filepath.Dir(from)
	}

	var candidates []string
	if IsRelative(spec) {
		if filepath.IsAbs(spec) {
			candidates = []string{filepath.Clean(spec)}
		} else {
			candidates = []string{filepath.Join(base, filepath.FromSlash(spec))}
		}
	} else {
		for _, root := range r.opts.Roots {
			candidates = append(candidates, filepath.Join(root, filepath.FromSlash(spec)))
		}
	}

	for _, c := range candidates {
		if p, ok := r.probe(c); ok {
			r.logger.Trace().
				Str("specifier", spec).
				Str("from", from).
				Str("path", p).
				Msg("Resolved")
			return p, nil
		}
	}

	tried := r.opts.Roots
	if IsRelative(spec) {
		tried = []string{base}
	}
	return "", errors.Resolution(spec, from, tried)
}

func (r *Resolver) probe(p string) (string, bool) {
	if f, ok := r.probeFile(p); ok {
		return f, true
	}
	if !r.isDir(p) {
		return "", false
	}
	if f, ok := r.probeManifest(p); ok {
		return f, true
	}
	return r.probeIndex(p)
}

func (r *Resolver) probeFile(p string) (string, bool) {
	if r.isFile(p) {
		return p, true
	}
	for _, ext := range r.opts.Extensions {
		if r.isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *Resolver) probeIndex(dir string) (string, bool) {
	for _, ext := range r.opts.Extensions {
		p := filepath.Join(dir, "index"+ext)
		if r.isFile(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) probeManifest(dir string) (string, bool) {
	data, err := r.fs.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", false
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("Ignoring invalid package.json")
		return "", false
	}

	for _, name := range r.opts.MainFields {
		main, ok := fields[name].(string)
		if !ok || main == "" {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(main))
		if f, ok := r.probeFile(target); ok {
			return f, true
		}
		if r.isDir(target) {
			if f, ok := r.probeIndex(target); ok {
				return f, true
			}
		}
	}
	return "", false
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}

func (r *Resolver) isDir(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && info.IsDir()
}
