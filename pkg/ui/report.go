package ui

import (
	"path/filepath"

	"github.com/arthur-debert/bundl/pkg/build"
)

// Report is what the CLI prints after a build
type Report struct {
	Mode      string       `json:"mode"`
	Entry     string       `json:"entry"`
	Modules   int          `json:"modules"`
	Assets    int          `json:"assets"`
	OutputDir string       `json:"outputDir"`
	Files     []ReportFile `json:"files"`
	DryRun    bool         `json:"dryRun"`
	Duration  int64        `json:"durationMs"`
}

// ReportFile is one artifact of the build
type ReportFile struct {
	Name    string `json:"name"`
	Bytes   int    `json:"bytes"`
	Primary bool   `json:"primary,omitempty"`
}

// NewReport summarizes res. Files are listed in emit order, primary first.
func NewReport(res *build.Result, entry, outputDir string, dryRun bool) Report {
	r := Report{
		Mode:      res.Mode.String(),
		Entry:     entry,
		OutputDir: outputDir,
		DryRun:    dryRun,
		Duration:  res.Duration.Milliseconds(),
	}
	if res.Graph != nil {
		r.Modules = len(res.Graph.Modules)
		r.Assets = len(res.Graph.Assets())
	}
	if res.Artifacts != nil {
		for i, a := range res.Artifacts.All() {
			r.Files = append(r.Files, ReportFile{
				Name:    filepath.ToSlash(a.Name),
				Bytes:   len(a.Content),
				Primary: i == 0,
			})
		}
	}
	return r
}
