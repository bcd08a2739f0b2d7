// Package config loads the layered pkg-testing-tool configuration.
// Precedence, lowest to highest: embedded defaults, the system config
// under /etc/pkg-testing-tool, the user config under XDG_CONFIG_HOME,
// PKG_TESTING_TOOL_* environment variables, then explicitly set
// command line flags passed in by the caller.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

// SystemConfigPath is the system-wide configuration file location.
const SystemConfigPath = "/etc/pkg-testing-tool/config.toml"

// EnvPrefix is the prefix for environment variable overrides,
// e.g. PKG_TESTING_TOOL_MAX_USE_COMBINATIONS=32.
const EnvPrefix = "PKG_TESTING_TOOL_"

// EmergeConfig holds settings for the emerge invocation itself.
type EmergeConfig struct {
	Binary    string `koanf:"binary" toml:"binary"`
	Backtrack int    `koanf:"backtrack" toml:"backtrack"`
}

// Config is the resolved tool configuration.
type Config struct {
	MaxUseCombinations int           `koanf:"max-use-combinations" toml:"max-use-combinations"`
	UseFlagsScope      string        `koanf:"use-flags-scope" toml:"use-flags-scope"`
	TestFeatureScope   string        `koanf:"test-feature-scope" toml:"test-feature-scope"`
	PortageConfigRoot  string        `koanf:"portage-config-root" toml:"portage-config-root"`
	Features           string        `koanf:"features" toml:"features"`
	JobTimeout         time.Duration `koanf:"job-timeout" toml:"job-timeout"`
	Emerge             EmergeConfig  `koanf:"emerge" toml:"emerge"`
}

// Load resolves the configuration from all layers. The overrides map
// holds explicitly set command line flags, keyed like the TOML file
// ("max-use-combinations", "emerge.binary"); it wins over every other
// layer and may be nil.
func Load(overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load embedded defaults")
	}

	// 2. System and user config files, if present
	userConfigPath := filepath.Join(xdg.ConfigHome, "pkg-testing-tool", "config.toml")
	for _, path := range []string{SystemConfigPath, userConfigPath} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
		}
	}

	// 3. Environment overrides: PKG_TESTING_TOOL_EMERGE_BACKTRACK maps
	// to emerge.backtrack, single underscores map to dashes.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ReplaceAll(s, "_", "-")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	// 4. Command line flags
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply flag overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the embedded default configuration without touching
// the filesystem or environment. Used by genconfig and tests.
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load embedded defaults")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal embedded defaults")
	}
	return &cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.UseFlagsScope {
	case "local", "global":
	default:
		return errors.Newf(errors.ErrConfigValid, "use-flags-scope must be 'local' or 'global', got %q", c.UseFlagsScope)
	}

	switch c.TestFeatureScope {
	case "once", "always", "never":
	default:
		return errors.Newf(errors.ErrConfigValid, "test-feature-scope must be 'once', 'always' or 'never', got %q", c.TestFeatureScope)
	}

	if c.MaxUseCombinations < 0 {
		return errors.Newf(errors.ErrConfigValid, "max-use-combinations must be >= 0, got %d", c.MaxUseCombinations)
	}

	if c.JobTimeout < 0 {
		return errors.Newf(errors.ErrConfigValid, "job-timeout must not be negative, got %s", c.JobTimeout)
	}

	if c.Emerge.Binary == "" {
		return errors.New(errors.ErrConfigValid, "emerge.binary must not be empty")
	}

	if c.Emerge.Backtrack < 0 {
		return errors.Newf(errors.ErrConfigValid, "emerge.backtrack must be >= 0, got %d", c.Emerge.Backtrack)
	}

	return nil
}
