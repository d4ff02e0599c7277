package types

import (
	"fmt"
	"strings"
)

// BuildMode selects which defines are active and which optimization passes
// run. It is resolved once at build start and passed explicitly.
type BuildMode int

const (
	Development BuildMode = iota
	Production
)

// String returns the configuration spelling of the mode
func (m BuildMode) String() string {
	switch m {
	case Production:
		return "production"
	default:
		return "development"
	}
}

// IsProduction reports whether m is Production
func (m BuildMode) IsProduction() bool {
	return m == Production
}

// ParseBuildMode parses "development"/"dev" or "production"/"prod"
func ParseBuildMode(s string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	}
	return Development, fmt.Errorf("unknown build mode %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m BuildMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *BuildMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBuildMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
