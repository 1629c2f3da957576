package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/binstall/pkg/types"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// EnvPrefix is the prefix for environment variable overrides, e.g.
// BINSTALL_USER_ROOT=/opt/bin.
const EnvPrefix = "BINSTALL_"

// ScopeConfig holds the per-scope destination root and history log
// location. Empty values select the scope's standard location.
type ScopeConfig struct {
	Root    string `koanf:"root" toml:"root"`
	History string `koanf:"history" toml:"history"`
}

// InstallConfig holds install behavior settings.
type InstallConfig struct {
	// Mode is the permission bits for installed files, as an octal
	// string ("0755"). setuid/setgid bits are stripped on use.
	Mode string `koanf:"mode" toml:"mode"`

	// KeepExtension keeps recognized script extensions on the
	// installed name instead of stripping them.
	KeepExtension bool `koanf:"keep_extension" toml:"keep_extension"`

	// CreateRoot creates the destination root if missing.
	CreateRoot bool `koanf:"create_root" toml:"create_root"`
}

// HistoryConfig holds history store settings.
type HistoryConfig struct {
	// LockTimeout bounds the wait for the cross-process history lock.
	LockTimeout time.Duration `koanf:"lock_timeout" toml:"lock_timeout"`
}

// Config is the resolved binstall configuration: built-in defaults,
// overridden by the user config file, overridden by BINSTALL_* env vars.
type Config struct {
	System  ScopeConfig   `koanf:"system" toml:"system"`
	User    ScopeConfig   `koanf:"user" toml:"user"`
	Install InstallConfig `koanf:"install" toml:"install"`
	History HistoryConfig `koanf:"history" toml:"history"`
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load builds the effective configuration. configFile overrides the
// default lookup location ($XDG_CONFIG_HOME/binstall/config.toml); an
// explicitly given file must exist, the default one may be absent.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load built-in defaults: %w", err)
	}

	// 2. User config file
	explicit := configFile != ""
	if configFile == "" {
		configFile = DefaultConfigPath()
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	// 3. Env overrides. BINSTALL_SECTION_KEY maps to section.key; only
	// the first underscore separates section from key, so keys like
	// keep_extension survive.
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env overrides: %w", err)
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.FileMode(); err != nil {
		return err
	}
	if c.History.LockTimeout <= 0 {
		return fmt.Errorf("history.lock_timeout must be positive, got %s", c.History.LockTimeout)
	}
	return nil
}

// Scope returns the ScopeConfig for the given scope.
func (c *Config) Scope(scope types.Scope) ScopeConfig {
	if scope == types.ScopeSystem {
		return c.System
	}
	return c.User
}

// FileMode parses install.mode into permission bits, with the
// setuid/setgid/sticky bits always cleared.
func (c *Config) FileMode() (fs.FileMode, error) {
	mode, err := strconv.ParseUint(strings.TrimPrefix(c.Install.Mode, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("install.mode %q is not valid octal: %w", c.Install.Mode, err)
	}
	return fs.FileMode(mode) & 0777, nil
}

// DefaultConfigPath returns the standard user config file location.
// XDG_CONFIG_HOME is read directly so that changes after process start
// (tests, sudo environments) are honored.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = xdg.ConfigHome
	}
	return filepath.Join(configHome, "binstall", "config.toml")
}

// DefaultsContent returns the annotated built-in defaults, suitable as
// a starter config file.
func DefaultsContent() string {
	return string(defaultConfig)
}
