package sourcemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQ(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{123, "2H"},
		{-2048, "hgE"},
	}

	for _, tt := range tests {
		var sb strings.Builder
		encodeVLQ(&sb, tt.value)
		assert.Equal(t, tt.want, sb.String(), "encode %d", tt.value)

		got, next, err := decodeVLQ(tt.want, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
		assert.Equal(t, len(tt.want), next)
	}
}

func TestDecodeVLQErrors(t *testing.T) {
	_, _, err := decodeVLQ("g", 0)
	assert.Error(t, err, "continuation bit without following digit")

	_, _, err = decodeVLQ("!", 0)
	assert.Error(t, err)
}

func TestMappingsRoundTrip(t *testing.T) {
	// Produced by a real compiler for a three line module.
	mappings := "AAAA,IAAI,CAAC;AACA;;AAEA,MAAMA"

	lines, err := DecodeMappings(mappings)
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Len(t, lines[0], 3)
	assert.Empty(t, lines[2])
	assert.Equal(t, Segment{GeneratedColumn: 6, Source: 0, OriginalLine: 3, OriginalColumn: 11, Name: 0}, lines[3][1])

	assert.Equal(t, mappings, EncodeMappings(lines))
}

func TestConcat(t *testing.T) {
	a := &Map{Version: 3, Sources: []string{"a.js"}, Names: []string{"foo"}, Mappings: "AAAAA;AACA"}
	b := &Map{Version: 3, Sources: []string{"b.js"}, Names: []string{"bar"}, Mappings: "AAAA,EAAEA"}

	merged, err := Concat("bundle.js", []Section{
		{Line: 1, Map: a},
		{Line: 3, Map: nil},
		{Line: 5, Map: b},
	})
	require.NoError(t, err)

	assert.Equal(t, "bundle.js", merged.File)
	assert.Equal(t, []string{"a.js", "b.js"}, merged.Sources)
	assert.Equal(t, []string{"foo", "bar"}, merged.Names)

	lines, err := DecodeMappings(merged.Mappings)
	require.NoError(t, err)
	require.Len(t, lines, 6)
	assert.Empty(t, lines[0])
	assert.Equal(t, Segment{GeneratedColumn: 0, Source: 0, OriginalLine: 0, OriginalColumn: 0, Name: 0}, lines[1][0])
	assert.Equal(t, Segment{GeneratedColumn: 0, Source: 0, OriginalLine: 1, OriginalColumn: 0, Name: -1}, lines[2][0])
	assert.Equal(t, Segment{GeneratedColumn: 0, Source: 1, OriginalLine: 0, OriginalColumn: 0, Name: -1}, lines[5][0])
	assert.Equal(t, Segment{GeneratedColumn: 2, Source: 1, OriginalLine: 0, OriginalColumn: 2, Name: 1}, lines[5][1])
}

func TestConcatRejectsOverlap(t *testing.T) {
	a := &Map{Version: 3, Sources: []string{"a.js"}, Mappings: "AAAA;AAAA;AAAA"}
	_, err := Concat("x.js", []Section{{Line: 0, Map: a}, {Line: 1, Map: a}})
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	m := Identity("/vendor/lib.js", []byte("var a = 1;\nvar b = 2;"))
	lines, err := DecodeMappings(m.Mappings)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[1][0].OriginalLine)
	require.Len(t, m.SourcesContent, 1)
	assert.Equal(t, "var a = 1;\nvar b = 2;", *m.SourcesContent[0])
}

func TestParseAndBytes(t *testing.T) {
	m, err := Parse([]byte(`{"version":3,"sources":["x.js"],"names":[],"mappings":"AAAA"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x.js"}, m.Sources)

	_, err = Parse([]byte(`{"version":2}`))
	assert.Error(t, err)

	out, err := (&Map{Version: 3}).Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":3,"sources":[],"names":[],"mappings":""}`, string(out))
}

func TestStripComment(t *testing.T) {
	code := []byte("var a;\n//# sourceMappingURL=a.js.map\n")
	assert.Equal(t, "var a;\n", string(StripComment(code)))

	plain := []byte("var a;\n")
	assert.Equal(t, "var a;\n", string(StripComment(plain)))
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(DataURL([]byte("{}")), "data:application/json;charset=utf-8;base64,"))
}
