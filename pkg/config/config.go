// Package config loads engine configuration by layering, in override
// order: embedded defaults, the user config file (automat/automat.toml
// under the XDG config directory), AUTOMAT_-prefixed environment
// variables, and finally programmatic overrides.
package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/automat/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix is the prefix for environment variable overrides, e.g.
// AUTOMAT_STORAGE_BACKEND=sqlite
const EnvPrefix = "AUTOMAT_"

// Config is the engine's runtime configuration
type Config struct {
	// Namespace is the default namespace for records and triggers
	Namespace string `koanf:"namespace" toml:"namespace"`

	Sequence SequenceConfig `koanf:"sequence" toml:"sequence"`
	Storage  StorageConfig  `koanf:"storage" toml:"storage"`
	Mail     MailConfig     `koanf:"mail" toml:"mail"`
	Frontend FrontendConfig `koanf:"frontend" toml:"frontend"`
	Triggers TriggersConfig `koanf:"triggers" toml:"triggers"`
}

// SequenceConfig controls sequence number allocation
type SequenceConfig struct {
	// Mode is "mutex" or "conditional"
	Mode string `koanf:"mode" toml:"mode"`
}

// StorageConfig selects the record store
type StorageConfig struct {
	// Backend is "memory" or "sqlite"
	Backend string `koanf:"backend" toml:"backend"`
	// Path is the sqlite database file, required for the sqlite backend
	Path string `koanf:"path" toml:"path"`
}

// MailConfig controls outbound notifications
type MailConfig struct {
	// Transport is "log" for now; real transports sit behind mail.Sender
	Transport string `koanf:"transport" toml:"transport"`
	From      string `koanf:"from" toml:"from"`
}

// FrontendConfig locates the UI that record links point at
type FrontendConfig struct {
	URL string `koanf:"url" toml:"url"`
}

// TriggersConfig locates extra trigger declarations
type TriggersConfig struct {
	// File is an optional YAML trigger file loaded at startup
	File string `koanf:"file" toml:"file"`
}

// rawBytesProvider implements the koanf provider for embedded bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "raw bytes provider does not support Read")
}

// DefaultTOML returns the embedded defaults file, for seeding a user
// config
func DefaultTOML() string {
	return string(defaultConfig)
}

// TOML renders the configuration as a TOML document, with every layered
// override already applied
func (c *Config) TOML() (string, error) {
	out, err := gotoml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal config")
	}
	return string(out), nil
}

// UserConfigPath returns where the user config file is looked up
func UserConfigPath() string {
	path, err := xdg.SearchConfigFile("automat/automat.toml")
	if err != nil {
		return ""
	}
	return path
}

// Load builds the configuration from defaults, the user config file,
// and the environment
func Load() (*Config, error) {
	return load(UserConfigPath(), nil)
}

// LoadFile builds the configuration with an explicit config file
// instead of the XDG one
func LoadFile(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWith builds the configuration with programmatic overrides layered
// on top of everything else. Override keys use dotted paths, e.g.
// "storage.backend".
func LoadWith(overrides map[string]interface{}) (*Config, error) {
	return load(UserConfigPath(), overrides)
}

func load(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load default config")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config from %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Sequence.Mode {
	case "mutex", "conditional":
	default:
		return errors.Newf(errors.ErrConfigParse, "unknown sequence mode %q", c.Sequence.Mode)
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return errors.New(errors.ErrConfigParse, "sqlite backend requires storage.path")
		}
	default:
		return errors.Newf(errors.ErrConfigParse, "unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Mail.Transport {
	case "log":
	default:
		return errors.Newf(errors.ErrConfigParse, "unknown mail transport %q", c.Mail.Transport)
	}

	return nil
}
