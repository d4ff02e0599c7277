package stages

import (
	"context"

	"github.com/arthur-debert/bundl/pkg/types"
)

// Stage identifiers of the built-in stages
const (
	DialectCompiler        = "dialect-compiler"
	ScriptTranspiler       = "script-transpiler"
	StylesheetPreprocessor = "stylesheet-preprocessor"
	StylesheetResolver     = "stylesheet-resolver"
	StylesheetInjector     = "stylesheet-injector"
)

// Kind groups stages by the toolchain they belong to. The kind decides the
// order in which a rule's stage chain executes.
type Kind int

const (
	KindScript Kind = iota
	KindDialect
	KindStylesheet
)

func (k Kind) String() string {
	switch k {
	case KindDialect:
		return "dialect"
	case KindStylesheet:
		return "stylesheet"
	default:
		return "script"
	}
}

// RightToLeft reports whether a chain of this kind runs in reverse
// declaration order. Stylesheet toolchains run the stage closest to the
// source (the last one declared) first.
func (k Kind) RightToLeft() bool {
	return k == KindStylesheet
}

// Input is what a stage receives: the module path, the text produced by the
// previous stage (or the raw source) and that text's source map, if any.
type Input struct {
	Path   string
	Source []byte
	Map    []byte
}

// Output is what a stage produces. Dependencies are import specifiers,
// relative to the module, that the build graph must add to the reachable set.
type Output struct {
	Code         []byte
	Map          []byte
	Dependencies []string
}

// Stage is a single transform applied to one module's text
type Stage interface {
	// ID returns the identifier rules refer to
	ID() string

	// Kind returns the toolchain the stage belongs to
	Kind() Kind

	// Apply transforms the input. Errors are reported as-is; the caller
	// attaches the stage and module context.
	Apply(ctx context.Context, in Input, opts Options, mode types.BuildMode) (Output, error)
}

// OptionsValidator is implemented by stages that check their options while
// the rule table is compiled
type OptionsValidator interface {
	ValidateOptions(opts Options) error
}
