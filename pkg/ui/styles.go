package ui

import (
	_ "embed"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ColorDef is an adaptive colour in styles.yaml
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a named style in styles.yaml. Foreground refers to a colour
// name, not a literal.
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Width      int    `yaml:"width,omitempty"`
	Align      string `yaml:"align,omitempty"`
	MarginTop  int    `yaml:"marginTop,omitempty"`
}

// StyleConfig is the parsed styles.yaml
type StyleConfig struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

// Styles maps semantic names to lipgloss styles
type Styles map[string]lipgloss.Style

//go:embed styles.yaml
var embeddedStyles []byte

// DefaultStyles returns the embedded style set
func DefaultStyles() Styles {
	s, err := ParseStyles(embeddedStyles)
	if err != nil {
		return Styles{}
	}
	return s
}

// ParseStyles builds a style set from YAML
func ParseStyles(data []byte) (Styles, error) {
	var cfg StyleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse styles")
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	styles := make(Styles, len(cfg.Styles))
	for name, def := range cfg.Styles {
		style := lipgloss.NewStyle().Bold(def.Bold).Italic(def.Italic)
		if c, ok := colors[def.Foreground]; ok {
			style = style.Foreground(c)
		}
		if def.Width > 0 {
			style = style.Width(def.Width)
		}
		switch def.Align {
		case "center":
			style = style.Align(lipgloss.Center)
		case "right":
			style = style.Align(lipgloss.Right)
		}
		if def.MarginTop > 0 {
			style = style.MarginTop(def.MarginTop)
		}
		styles[name] = style
	}
	return styles, nil
}

// Get returns the named style, or a plain one
func (s Styles) Get(name string) lipgloss.Style {
	if style, ok := s[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
