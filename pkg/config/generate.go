package config

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// Dump renders the effective configuration as TOML, the same shape the
// config file uses. Durations are rendered in their string form so the
// output round-trips through Load.
func (c *Config) Dump() (string, error) {
	type historySection struct {
		LockTimeout string `toml:"lock_timeout"`
	}
	type document struct {
		System  ScopeConfig    `toml:"system"`
		User    ScopeConfig    `toml:"user"`
		Install InstallConfig  `toml:"install"`
		History historySection `toml:"history"`
	}

	doc := document{
		System:  c.System,
		User:    c.User,
		Install: c.Install,
		History: historySection{LockTimeout: c.History.LockTimeout.String()},
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return string(out), nil
}
