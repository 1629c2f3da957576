// Package config loads binstall's configuration.
//
// Precedence, lowest to highest: built-in defaults (embedded TOML), the
// user config file ($XDG_CONFIG_HOME/binstall/config.toml or an
// explicitly supplied path), and BINSTALL_* environment variables.
package config
