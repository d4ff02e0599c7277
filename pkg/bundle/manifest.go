package bundle

import (
	"encoding/json"
	"sort"

	"github.com/arthur-debert/bundl/pkg/types"
)

// Manifest describes a build in the shape of an esbuild metafile: what went
// in, what came out, and how the two relate
type Manifest struct {
	Inputs  map[string]ManifestInput  `json:"inputs"`
	Outputs map[string]ManifestOutput `json:"outputs"`
}

// ManifestInput is one module of the build graph
type ManifestInput struct {
	Bytes   int              `json:"bytes"`
	Imports []ManifestImport `json:"imports"`
	Stages  []string         `json:"stages,omitempty"`
}

// ManifestImport is one resolved dependency of an input
type ManifestImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Original string `json:"original,omitempty"`
}

// ManifestOutput is one written artifact
type ManifestOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs,omitempty"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is the share of an input in an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// ManifestName is the file the manifest is written to
const ManifestName = "manifest.json"

// Encode completes the outputs with the final artifacts and renders the
// manifest. The contributions recorded at link time are attached to the
// primary and twin outputs.
func (m *Manifest) Encode(a *types.Artifacts, entry string, contrib map[string]InputContrib) ([]byte, error) {
	outputs := map[string]ManifestOutput{}
	for _, art := range []types.Artifact{a.Primary, a.Twin} {
		outputs[art.Name] = ManifestOutput{Bytes: len(art.Content), Inputs: contrib, EntryPoint: entry}
	}
	if a.SourceMap.Name != "" {
		outputs[a.SourceMap.Name] = ManifestOutput{Bytes: len(a.SourceMap.Content)}
	}
	for _, asset := range a.Assets {
		outputs[asset.Name] = ManifestOutput{Bytes: len(asset.Content)}
	}
	m.Outputs = outputs
	return json.MarshalIndent(m, "", "  ")
}

// InputNames returns the manifest input keys in sorted order
func (m *Manifest) InputNames() []string {
	names := make([]string, 0, len(m.Inputs))
	for n := range m.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
