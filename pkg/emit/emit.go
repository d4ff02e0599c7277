// Package emit writes build artifacts to the output directory.
//
// Every artifact is first written to a temporary file next to its target.
// Only when all of them are written are they renamed into place, so a failed
// build leaves the previous artifacts untouched.
package emit

import (
	"path/filepath"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/types"
)

const (
	tempSuffix   = ".bundl-tmp"
	backupSuffix = ".bundl-old"
)

// backup records where the previous version of a target was moved; an
// empty path means there was none
type backup struct {
	target string
	path   string
}

// Emitter writes artifacts through a filesystem
type Emitter struct {
	fs types.FS
}

// New returns an emitter writing to fsys
func New(fsys types.FS) *Emitter {
	return &Emitter{fs: fsys}
}

// TempName is the temporary file an artifact is staged in
func TempName(name string) string {
	return "." + filepath.Base(name) + tempSuffix
}

// Emit writes artifacts into dir and returns the written paths in artifact
// order. Existing files are overwritten.
func (e *Emitter) Emit(artifacts []types.Artifact, dir string) ([]string, error) {
	logger := logging.GetLogger("emit")

	if err := e.fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.IO(err, "create", dir)
	}

	seen := map[string]bool{}
	for _, a := range artifacts {
		if a.Name == "" || filepath.Base(a.Name) != a.Name {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid artifact name %q", a.Name)
		}
		if seen[a.Name] {
			return nil, errors.Newf(errors.ErrAlreadyExists, "duplicate artifact %s", a.Name).
				WithDetail(errors.DetailPath, a.Name)
		}
		seen[a.Name] = true
	}

	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			if err := e.fs.Remove(tmp); err != nil {
				logger.Warn().Err(err).Str("path", tmp).Msg("Failed to remove temporary file")
			}
		}
	}

	for _, a := range artifacts {
		tmp := filepath.Join(dir, TempName(a.Name))
		if err := e.fs.WriteFile(tmp, a.Content, 0644); err != nil {
			// a partial write may have left the file behind
			staged = append(staged, tmp)
			cleanup()
			return nil, errors.IO(err, "write", tmp)
		}
		staged = append(staged, tmp)
	}

	written := make([]string, 0, len(artifacts))
	var backups []backup
	for i, a := range artifacts {
		target := filepath.Join(dir, a.Name)
		b, err := e.place(staged[i], target)
		if err != nil {
			staged = staged[i:]
			cleanup()
			e.rollback(written, backups)
			return nil, errors.IO(err, "rename", target)
		}
		backups = append(backups, b)
		written = append(written, target)
		logger.Debug().
			Str("path", target).
			Int("bytes", len(a.Content)).
			Msg("Wrote artifact")
	}

	for _, b := range backups {
		if b.path != "" {
			_ = e.fs.Remove(b.path)
		}
	}

	logger.Info().
		Str("dir", dir).
		Int("files", len(written)).
		Msg("Artifacts written")
	return written, nil
}

// place moves tmp to target, keeping the file it replaces aside
func (e *Emitter) place(tmp, target string) (backup, error) {
	b := backup{target: target}
	if _, err := e.fs.Stat(target); err == nil {
		b.path = filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+backupSuffix)
		if err := e.fs.Rename(target, b.path); err != nil {
			return backup{}, err
		}
	}
	if err := e.fs.Rename(tmp, target); err != nil {
		if b.path != "" {
			_ = e.fs.Rename(b.path, target)
		}
		return backup{}, err
	}
	return b, nil
}

// rollback undoes the placed artifacts, restoring what they replaced
func (e *Emitter) rollback(placed []string, backups []backup) {
	logger := logging.GetLogger("emit")
	for i := len(placed) - 1; i >= 0; i-- {
		_ = e.fs.Remove(placed[i])
		if backups[i].path == "" {
			continue
		}
		if err := e.fs.Rename(backups[i].path, backups[i].target); err != nil {
			logger.Error().Err(err).Str("path", backups[i].target).Msg("Failed to restore previous artifact")
		}
	}
}
