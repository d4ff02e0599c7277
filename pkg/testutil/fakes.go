package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/bundl/pkg/stages/dialect"
	"github.com/arthur-debert/bundl/pkg/types"
)

// SlowDelay is how long FakeBackend holds a "SLOW" source
const SlowDelay = 100 * time.Millisecond

var openDirective = regexp.MustCompile(`(?m)^open\s+(\S+)\s*$`)

// FakeBackend compiles dialect sources without an external compiler. Every
// "open Name" line becomes an import of "./Name.fs" and the module exports its
// file name. A source containing "SYNTAX ERROR" fails to compile.
//
// Two markers control timing. "SLOW" delays the response by SlowDelay unless
// the context ends first. "BLOCK" waits for the context and then fails the
// way a killed compiler process does, with an error that is not
// context.Canceled.
type FakeBackend struct {
	mu       sync.Mutex
	Requests []dialect.Request
}

// Compile implements dialect.Backend
func (f *FakeBackend) Compile(ctx context.Context, req dialect.Request) (*dialect.Response, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()

	if strings.Contains(req.Source, "BLOCK") {
		<-ctx.Done()
		return nil, fmt.Errorf("dialect compiler %s failed: signal: killed", filepath.Base(req.Path))
	}
	if strings.Contains(req.Source, "SLOW") {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(SlowDelay):
		}
	}

	if strings.Contains(req.Source, "SYNTAX ERROR") {
		return &dialect.Response{Error: filepath.Base(req.Path) + "(1,1): error FS0010: Unexpected symbol"}, nil
	}

	var sb strings.Builder
	var deps []string
	for _, m := range openDirective.FindAllStringSubmatch(req.Source, -1) {
		dep := "./" + m[1] + ".fs"
		deps = append(deps, dep)
		sb.WriteString("import \"" + dep + "\";\n")
	}
	for _, d := range req.Defines {
		sb.WriteString("export const " + d + " = true;\n")
	}
	sb.WriteString("export const name = \"" + filepath.Base(req.Path) + "\";\n")

	return &dialect.Response{Code: sb.String(), Dependencies: deps}, nil
}

// Paths returns the paths compiled so far, in request order
func (f *FakeBackend) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Requests))
	for i, r := range f.Requests {
		out[i] = r.Path
	}
	return out
}

// FailingFS wraps a filesystem and fails writes or renames whose target
// base name contains Fail. Op restricts the failure to "write" or "rename".
type FailingFS struct {
	types.FS
	Fail string
	Op   string
}

func (f *FailingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if f.matches("write", name) {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrPermission}
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FailingFS) Rename(oldname, newname string) error {
	if f.matches("rename", newname) {
		return &fs.PathError{Op: "rename", Path: newname, Err: fs.ErrPermission}
	}
	return f.FS.Rename(oldname, newname)
}

func (f *FailingFS) matches(op, name string) bool {
	if f.Op != "" && f.Op != op {
		return false
	}
	return f.Fail != "" && strings.Contains(filepath.Base(name), f.Fail)
}
