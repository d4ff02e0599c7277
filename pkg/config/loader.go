package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames are searched in the project directory, in order
var ConfigFileNames = []string{"bundl.toml", ".bundl.toml", "bundl.yaml", "bundl.yml"}

// EnvPrefix prefixes environment overrides
const EnvPrefix = "BUNDL_"

// LoadOptions controls Load
type LoadOptions struct {
	// Dir is the project directory; defaults to the working directory
	Dir string

	// File is an explicit configuration file; when empty Dir is searched
	File string

	// Overrides are applied last, keyed by dotted path (e.g. "output.path")
	Overrides map[string]interface{}
}

// Load builds the configuration from defaults, the project file, the
// environment and overrides, then normalizes and validates it.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot determine working directory")
		}
		dir = wd
	}

	// 2. Project file
	path := opts.File
	if path == "" {
		path = findConfigFile(dir)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail(errors.DetailPath, path)
		}
		if opts.File != "" {
			dir = filepath.Dir(path)
		}
		logger.Debug().Str("path", path).Msg("Loaded project config")
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if cfg.Context == "" {
		cfg.Context = dir
	} else if !filepath.IsAbs(cfg.Context) {
		cfg.Context = filepath.Join(dir, cfg.Context)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("mode", cfg.Mode.String()).
		Str("entry", cfg.EntryPath()).
		Int("rules", len(cfg.Rules)).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks the shape of the configuration. Stage identifiers are
// checked later against the stage registry.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Entry) == "" {
		return errors.New(errors.ErrConfigValid, "entry is required")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New(errors.ErrConfigValid, "output.path is required")
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		return errors.New(errors.ErrConfigValid, "output.filename is required")
	}
	if strings.ContainsRune(c.Output.Filename, filepath.Separator) {
		return errors.Newf(errors.ErrConfigValid, "output.filename %q must not contain a path separator", c.Output.Filename)
	}
	if c.Concurrency < 0 {
		return errors.Newf(errors.ErrConfigValid, "concurrency must be >= 0, got %d", c.Concurrency)
	}
	for i, rule := range c.Rules {
		if rule.Test == "" {
			return errors.Newf(errors.ErrConfigValid, "rule %d has empty test pattern", i)
		}
		if len(rule.Use) == 0 {
			return errors.Newf(errors.ErrConfigValid, "rule %d (%s) has no stages", i, rule.Test)
		}
	}
	return nil
}

func findConfigFile(dir string) string {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}
