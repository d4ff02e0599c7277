package types

// Artifact is a single output file
type Artifact struct {
	// Name is the file name relative to the output directory
	Name    string
	Content []byte
}

// Artifacts is the set of files produced by one build. Twin always holds the
// pre-minification concatenation, whatever happened to Primary.
type Artifacts struct {
	Primary   Artifact
	Twin      Artifact
	SourceMap Artifact

	// Assets are pass-through files copied verbatim
	Assets []Artifact

	// Manifest is optional; an empty Name means it is not written
	Manifest Artifact
}

// All returns every artifact that should be written, primary first
func (a *Artifacts) All() []Artifact {
	all := []Artifact{a.Primary, a.Twin}
	if a.SourceMap.Name != "" {
		all = append(all, a.SourceMap)
	}
	all = append(all, a.Assets...)
	if a.Manifest.Name != "" {
		all = append(all, a.Manifest)
	}
	return all
}
