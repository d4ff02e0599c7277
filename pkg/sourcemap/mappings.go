package sourcemap

import (
	"fmt"
	"strings"
)

// Segment is one decoded mapping with absolute (not delta) values.
// Source and Name are -1 when the segment does not carry them.
type Segment struct {
	GeneratedColumn int
	Source          int
	OriginalLine    int
	OriginalColumn  int
	Name            int
}

// DecodeMappings expands a mappings string into one slice of segments per
// generated line.
func DecodeMappings(mappings string) ([][]Segment, error) {
	lines := [][]Segment{nil}
	var source, origLine, origCol, name int
	genCol := 0

	i := 0
	for i < len(mappings) {
		switch mappings[i] {
		case ';':
			lines = append(lines, nil)
			genCol = 0
			i++
			continue
		case ',':
			i++
			continue
		}

		var fields [5]int
		n := 0
		for i < len(mappings) && mappings[i] != ',' && mappings[i] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("segment with more than 5 fields at offset %d", i)
			}
			v, next, err := decodeVLQ(mappings, i)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			i = next
		}

		genCol += fields[0]
		seg := Segment{GeneratedColumn: genCol, Source: -1, Name: -1}
		switch n {
		case 1:
		case 4, 5:
			source += fields[1]
			origLine += fields[2]
			origCol += fields[3]
			seg.Source, seg.OriginalLine, seg.OriginalColumn = source, origLine, origCol
			if n == 5 {
				name += fields[4]
				seg.Name = name
			}
		default:
			return nil, fmt.Errorf("segment with %d fields", n)
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], seg)
	}
	return lines, nil
}

// EncodeMappings is the inverse of DecodeMappings.
func EncodeMappings(lines [][]Segment) string {
	var sb strings.Builder
	var source, origLine, origCol, name int

	for l, line := range lines {
		if l > 0 {
			sb.WriteByte(';')
		}
		genCol := 0
		for s, seg := range line {
			if s > 0 {
				sb.WriteByte(',')
			}
			encodeVLQ(&sb, seg.GeneratedColumn-genCol)
			genCol = seg.GeneratedColumn
			if seg.Source < 0 {
				continue
			}
			encodeVLQ(&sb, seg.Source-source)
			encodeVLQ(&sb, seg.OriginalLine-origLine)
			encodeVLQ(&sb, seg.OriginalColumn-origCol)
			source, origLine, origCol = seg.Source, seg.OriginalLine, seg.OriginalColumn
			if seg.Name >= 0 {
				encodeVLQ(&sb, seg.Name-name)
				name = seg.Name
			}
		}
	}
	return sb.String()
}
