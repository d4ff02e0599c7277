// Package stylesheet implements the stylesheet toolchain. A stylesheet rule
// declares [injector, resolver, preprocessor] and runs them right to left:
// the preprocessor turns the indented syntax into CSS, the resolver turns
// @import rules into module dependencies and exports the CSS text, and the
// injector makes loading the module add a <style> element to the page.
package stylesheet

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/stages"
	"github.com/arthur-debert/bundl/pkg/types"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// DefaultDebugAttribute marks injected elements with their module in
// development builds
const DefaultDebugAttribute = "data-bundl-module"

// Preprocessor is the stylesheet-preprocessor stage
type Preprocessor struct{}

type preprocessorOptions struct {
	IndentWidth int `option:"indentWidth"`
}

func NewPreprocessor() *Preprocessor { return &Preprocessor{} }

func (p *Preprocessor) ID() string { return stages.StylesheetPreprocessor }

func (p *Preprocessor) Kind() stages.Kind { return stages.KindStylesheet }

// ValidateOptions implements stages.OptionsValidator
func (p *Preprocessor) ValidateOptions(opts stages.Options) error {
	var o preprocessorOptions
	if err := opts.Decode(&o); err != nil {
		return err
	}
	if o.IndentWidth < 0 {
		return fmt.Errorf("indentWidth must not be negative")
	}
	return nil
}

// Apply compiles .sass sources; any other stylesheet passes through
func (p *Preprocessor) Apply(_ context.Context, in stages.Input, opts stages.Options, _ types.BuildMode) (stages.Output, error) {
	if !strings.EqualFold(filepath.Ext(in.Path), ".sass") {
		return stages.Output{Code: in.Source, Map: in.Map}, nil
	}
	var o preprocessorOptions
	if err := opts.Decode(&o); err != nil {
		return stages.Output{}, err
	}
	out, err := Compile(string(in.Source), o.IndentWidth)
	if err != nil {
		return stages.Output{}, err
	}
	return stages.Output{Code: []byte(out)}, nil
}

// Resolver is the stylesheet-resolver stage
type Resolver struct{}

func NewResolver() *Resolver { return &Resolver{} }

func (r *Resolver) ID() string { return stages.StylesheetResolver }

func (r *Resolver) Kind() stages.Kind { return stages.KindStylesheet }

// Apply parses the CSS, moves local @import rules into require calls and
// exports the remaining text
func (r *Resolver) Apply(_ context.Context, in stages.Input, _ stages.Options, _ types.BuildMode) (stages.Output, error) {
	sheet, err := parser.Parse(string(in.Source))
	if err != nil {
		return stages.Output{}, fmt.Errorf("invalid stylesheet: %w", err)
	}

	var deps []string
	var kept []string
	for _, rule := range sheet.Rules {
		if spec, ok := importSpecifier(rule); ok {
			deps = append(deps, spec)
			continue
		}
		kept = append(kept, rule.String())
	}

	text, err := json.Marshal(strings.Join(kept, "\n"))
	if err != nil {
		return stages.Output{}, err
	}

	var sb strings.Builder
	for _, d := range deps {
		fmt.Fprintf(&sb, "require(%s);\n", strconv.Quote(d))
	}
	fmt.Fprintf(&sb, "module.exports = %s;\n", text)

	logger := logging.GetLogger("stages.stylesheet")
	logger.Trace().
		Str("path", in.Path).
		Strs("imports", deps).
		Int("rules", len(kept)).
		Msg("Resolved stylesheet")

	return stages.Output{Code: []byte(sb.String()), Dependencies: deps}, nil
}

// importSpecifier returns the module specifier of a local @import rule.
// Remote imports stay in the stylesheet. "~pkg" names a package in a search
// root; any other relative name is relative to the stylesheet.
func importSpecifier(rule *css.Rule) (string, bool) {
	if rule.Kind != css.AtRule || !strings.EqualFold(rule.Name, "@import") {
		return "", false
	}
	target := strings.TrimSpace(rule.Prelude)
	if len(strings.Fields(target)) > 1 {
		// imports with media queries are left to the browser
		return "", false
	}
	if strings.HasPrefix(target, "url(") && strings.HasSuffix(target, ")") {
		target = strings.TrimSpace(target[4 : len(target)-1])
	}
	target = strings.Trim(target, `"'`)

	switch {
	case target == "":
		return "", false
	case strings.Contains(target, "://") || strings.HasPrefix(target, "//"):
		return "", false
	case strings.HasPrefix(target, "~"):
		return target[1:], true
	case strings.HasPrefix(target, "./"), strings.HasPrefix(target, "../"), strings.HasPrefix(target, "/"):
		return target, true
	default:
		return "./" + target, true
	}
}

// Injector is the stylesheet-injector stage
type Injector struct{}

type injectorOptions struct {
	DebugAttribute string `option:"debugAttribute"`
}

func NewInjector() *Injector { return &Injector{} }

func (i *Injector) ID() string { return stages.StylesheetInjector }

func (i *Injector) Kind() stages.Kind { return stages.KindStylesheet }

// ValidateOptions implements stages.OptionsValidator
func (i *Injector) ValidateOptions(opts stages.Options) error {
	var o injectorOptions
	return opts.Decode(&o)
}

// Apply appends the code that adds the exported CSS to the document
func (i *Injector) Apply(_ context.Context, in stages.Input, opts stages.Options, mode types.BuildMode) (stages.Output, error) {
	var o injectorOptions
	if err := opts.Decode(&o); err != nil {
		return stages.Output{}, err
	}
	if o.DebugAttribute == "" {
		o.DebugAttribute = DefaultDebugAttribute
	}

	var sb strings.Builder
	sb.Write(in.Source)
	if len(in.Source) > 0 && in.Source[len(in.Source)-1] != '\n' {
		sb.WriteByte('\n')
	}
	sb.WriteString("(function (css) {\n")
	sb.WriteString("  if (typeof document === \"undefined\") return;\n")
	sb.WriteString("  var style = document.createElement(\"style\");\n")
	if !mode.IsProduction() {
		fmt.Fprintf(&sb, "  style.setAttribute(%s, %s);\n", strconv.Quote(o.DebugAttribute), strconv.Quote(filepath.ToSlash(in.Path)))
	}
	sb.WriteString("  style.appendChild(document.createTextNode(css));\n")
	sb.WriteString("  document.head.appendChild(style);\n")
	sb.WriteString("})(module.exports);\n")

	return stages.Output{Code: []byte(sb.String()), Map: in.Map}, nil
}
