package sourcemap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Map is a Source Map v3 document
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// Parse decodes a JSON source map
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid source map: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// Bytes encodes the map as JSON
func (m *Map) Bytes() ([]byte, error) {
	if m.Sources == nil {
		m.Sources = []string{}
	}
	if m.Names == nil {
		m.Names = []string{}
	}
	return json.Marshal(m)
}

// Identity maps every line of content onto the same line of source.
func Identity(source string, content []byte) *Map {
	n := bytes.Count(content, []byte("\n"))
	if len(content) > 0 && content[len(content)-1] != '\n' {
		n++
	}
	lines := make([][]Segment, n)
	for i := range lines {
		lines[i] = []Segment{{Source: 0, OriginalLine: i, Name: -1}}
	}
	text := string(content)
	return &Map{
		Version:        3,
		Sources:        []string{source},
		SourcesContent: []*string{&text},
		Names:          []string{},
		Mappings:       EncodeMappings(lines),
	}
}

// Section places a map at a generated line offset. A nil Map leaves the
// lines unmapped.
type Section struct {
	Line int
	Map  *Map
}

// Concat merges sections into a single map for file. Sections must be
// ordered by Line and must not overlap. Sources with the same name are
// merged, keeping the first content seen.
func Concat(file string, sections []Section) (*Map, error) {
	out := &Map{Version: 3, File: file, Sources: []string{}, Names: []string{}}
	sourceIndex := make(map[string]int)
	nameIndex := make(map[string]int)
	var lines [][]Segment
	hasContent := false

	for _, sec := range sections {
		if sec.Map == nil {
			continue
		}
		if sec.Line < lastMapped(lines) {
			return nil, fmt.Errorf("section at line %d overlaps previous section", sec.Line)
		}

		decoded, err := DecodeMappings(sec.Map.Mappings)
		if err != nil {
			return nil, fmt.Errorf("section at line %d: %w", sec.Line, err)
		}

		srcRemap := make([]int, len(sec.Map.Sources))
		for i, src := range sec.Map.Sources {
			if sec.Map.SourceRoot != "" {
				src = strings.TrimSuffix(sec.Map.SourceRoot, "/") + "/" + src
			}
			idx, ok := sourceIndex[src]
			if !ok {
				idx = len(out.Sources)
				sourceIndex[src] = idx
				out.Sources = append(out.Sources, src)
				var content *string
				if i < len(sec.Map.SourcesContent) {
					content = sec.Map.SourcesContent[i]
					hasContent = hasContent || content != nil
				}
				out.SourcesContent = append(out.SourcesContent, content)
			}
			srcRemap[i] = idx
		}

		nameRemap := make([]int, len(sec.Map.Names))
		for i, name := range sec.Map.Names {
			idx, ok := nameIndex[name]
			if !ok {
				idx = len(out.Names)
				nameIndex[name] = idx
				out.Names = append(out.Names, name)
			}
			nameRemap[i] = idx
		}

		for l, line := range decoded {
			if len(line) == 0 {
				continue
			}
			target := sec.Line + l
			for len(lines) <= target {
				lines = append(lines, nil)
			}
			for _, seg := range line {
				if seg.Source >= 0 {
					if seg.Source >= len(srcRemap) {
						return nil, fmt.Errorf("section at line %d references unknown source %d", sec.Line, seg.Source)
					}
					seg.Source = srcRemap[seg.Source]
				}
				if seg.Name >= 0 {
					if seg.Name >= len(nameRemap) {
						return nil, fmt.Errorf("section at line %d references unknown name %d", sec.Line, seg.Name)
					}
					seg.Name = nameRemap[seg.Name]
				}
				lines[target] = append(lines[target], seg)
			}
		}
	}

	if !hasContent {
		out.SourcesContent = nil
	}
	out.Mappings = EncodeMappings(lines)
	return out, nil
}

func lastMapped(lines [][]Segment) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			return i + 1
		}
	}
	return 0
}

// DataURL returns the inline data: URL form of an encoded map
func DataURL(encoded []byte) string {
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(encoded)
}

// CommentPrefix starts the trailing map reference of a script
const CommentPrefix = "//# sourceMappingURL="

// StripComment removes a trailing sourceMappingURL comment line, if any.
func StripComment(code []byte) []byte {
	trimmed := bytes.TrimRight(code, "\n")
	idx := bytes.LastIndexByte(trimmed, '\n')
	last := trimmed[idx+1:]
	if bytes.HasPrefix(bytes.TrimSpace(last), []byte(CommentPrefix)) {
		return code[:idx+1]
	}
	return code
}

// Inline returns code with encoded attached as a trailing data: URL comment,
// replacing any comment already present. A nil map returns code unchanged.
func Inline(code, encoded []byte) []byte {
	if len(encoded) == 0 {
		return code
	}
	out := append([]byte{}, StripComment(code)...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, CommentPrefix...)
	out = append(out, DataURL(encoded)...)
	return append(out, '\n')
}
