package types

import "path/filepath"

// Module is one node of the build graph. Its identity is the absolute
// resolved path. A module is created when first referenced and is not
// modified after it has been compiled.
type Module struct {
	// Path is the absolute resolved path
	Path string

	// Index is the position in first-discovery order (the entry is 0)
	Index int

	// Source holds the raw bytes read from disk
	Source []byte

	// Ext is the lower-cased extension including the dot
	Ext string

	// Stages lists the stage identifiers applied, in execution order
	Stages []string

	// Code and Map are the compiled output; Map may be nil
	Code []byte
	Map  []byte

	// Dependencies lists the import specifiers discovered while compiling,
	// in discovery order and without duplicates
	Dependencies []string

	// Resolved maps each dependency specifier to its absolute path
	Resolved map[string]string

	// Asset is set for pass-through modules that are not scripts; they are
	// copied next to the bundle and export their public file name
	Asset bool

	// AssetName is the file name the asset is emitted under
	AssetName string
}

// Name returns the base name of the module path
func (m *Module) Name() string {
	return filepath.Base(m.Path)
}

// Compiled reports whether the module carries compiled output
func (m *Module) Compiled() bool {
	return m.Code != nil
}
