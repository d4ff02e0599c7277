package dialect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/arthur-debert/bundl/pkg/logging"
)

// Request is sent to a Backend for every dialect source file
type Request struct {
	Path              string   `json:"path"`
	Source            string   `json:"source"`
	Defines           []string `json:"defines"`
	HelperInjection   bool     `json:"helperInjection"`
	PolyfillInjection bool     `json:"polyfillInjection"`

	// Command is the process a ProcessBackend starts; it is not sent
	Command []string `json:"-"`
}

// Response is what a Backend answers. A non-empty Error is a compile error in
// the source, reported as a stage failure.
type Response struct {
	Code         string          `json:"code"`
	Map          json.RawMessage `json:"map,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// SourceMap returns the encoded map, or nil when the backend sent none
func (r *Response) SourceMap() []byte {
	m := bytes.TrimSpace(r.Map)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return nil
	}
	// Some compilers send the map as a JSON string rather than an object
	if m[0] == '"' {
		var s string
		if err := json.Unmarshal(m, &s); err == nil {
			return []byte(s)
		}
	}
	return m
}

// Backend compiles one dialect source file to JavaScript
type Backend interface {
	Compile(ctx context.Context, req Request) (*Response, error)
}

// ProcessBackend runs the configured compiler command once per file and
// exchanges a JSON Request and Response over stdin and stdout
type ProcessBackend struct {
	// Dir is the working directory of the compiler; empty uses the current one
	Dir string
}

// killWaitDelay bounds how long a cancelled compiler may hold its pipes open
const killWaitDelay = 500 * time.Millisecond

// Compile implements Backend
func (b *ProcessBackend) Compile(ctx context.Context, req Request) (*Response, error) {
	if len(req.Command) == 0 {
		return nil, fmt.Errorf("no dialect compiler command configured")
	}
	logger := logging.GetLogger("stages.dialect.process")

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode compile request: %w", err)
	}

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...)
	cmd.Dir = b.Dir
	cmd.WaitDelay = killWaitDelay
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().
		Str("path", req.Path).
		Strs("command", req.Command).
		Msg("Running dialect compiler")

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("dialect compiler %s failed: %w: %s",
			req.Command[0], err, strings.TrimSpace(stderr.String()))
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("dialect compiler %s sent an invalid response: %w", req.Command[0], err)
	}
	return &resp, nil
}
