// Package config loads renvim's optional configuration file.
//
// The file lives at ~/.config/renvim/config.toml unless RENVIM_CONFIG points
// elsewhere. Every setting has a default, so the file may be absent.
package config
