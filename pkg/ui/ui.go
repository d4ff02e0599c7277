// Package ui prints build reports in terminal (styled), text (plain) and
// JSON formats.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Renderer prints reports and errors
type Renderer interface {
	RenderReport(r Report) error
	RenderError(err error) error
}

// NewRenderer returns the renderer for format. FormatAuto inspects w when it
// is a file and falls back to plain text otherwise.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if f, ok := w.(*os.File); ok {
			return NewRenderer(DetectFormat(f), w)
		}
		return NewRenderer(FormatText, w)
	case FormatTerminal:
		return &textRenderer{w: w, styles: DefaultStyles()}, nil
	case FormatText:
		return &textRenderer{w: w}, nil
	case FormatJSON:
		return &jsonRenderer{w: w}, nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}

// textRenderer prints one line per artifact. A nil style set prints without
// escape sequences.
type textRenderer struct {
	w      io.Writer
	styles Styles
}

func (t *textRenderer) style(name string) lipgloss.Style {
	if t.styles == nil {
		return lipgloss.NewStyle()
	}
	return t.styles.Get(name)
}

func (t *textRenderer) render(name, s string) string {
	if t.styles == nil {
		return s
	}
	return t.style(name).Render(s)
}

func (t *textRenderer) RenderReport(r Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s build of %s (%d modules",
		t.render("Header", "bundl:"), r.Mode, r.Entry, r.Modules)
	if r.Assets > 0 {
		fmt.Fprintf(&b, ", %d assets", r.Assets)
	}
	fmt.Fprintf(&b, ", %dms)\n", r.Duration)

	width := 0
	for _, f := range r.Files {
		if n := len(f.Name); n > width {
			width = n
		}
	}
	for _, f := range r.Files {
		name := filepath.ToSlash(filepath.Join(r.OutputDir, f.Name))
		pad := strings.Repeat(" ", width-len(f.Name))
		label := "FilePath"
		if f.Primary {
			label = "Primary"
		}
		fmt.Fprintf(&b, "  %s%s  %s\n",
			t.render(label, name), pad, t.render("Muted", humanize.Bytes(uint64(f.Bytes))))
	}

	if r.DryRun {
		fmt.Fprintln(&b, t.render("DryRunBanner", "dry run: nothing was written"))
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *textRenderer) RenderError(err error) error {
	_, werr := fmt.Fprintln(t.w, t.render("Error", "Error: "+err.Error()))
	return werr
}

type jsonRenderer struct {
	w io.Writer
}

func (j *jsonRenderer) RenderReport(r Report) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

type errorReport struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (j *jsonRenderer) RenderError(err error) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Error errorReport `json:"error"`
	}{errorReport{
		Code:    string(errors.GetErrorCode(err)),
		Message: err.Error(),
		Details: errors.GetErrorDetails(err),
	}})
}
