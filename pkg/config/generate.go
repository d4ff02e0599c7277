package config

import (
	"bytes"

	toml "github.com/pelletier/go-toml/v2"
)

// Render encodes the effective configuration as TOML
func Render(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
