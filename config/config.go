package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Editor describes the editor renvim talks to or starts.
type Editor struct {
	Binary  string `toml:"binary" yaml:"binary"`
	Address string `toml:"address" yaml:"address"` // Used when the environment names no editor
}

// Client contains settings for the RPC rounds.
type Client struct {
	// Strict also checks the message type and request id of every reply.
	Strict bool `toml:"strict" yaml:"strict"`
	// ResolvePaths sends absolute paths. The editor's working directory
	// usually differs from the caller's.
	ResolvePaths    bool    `toml:"resolve_paths" yaml:"resolve_paths"`
	DialTimeoutMS   int     `toml:"dial_timeout_ms" yaml:"dial_timeout_ms"`
	RoundTimeoutMS  int     `toml:"round_timeout_ms" yaml:"round_timeout_ms"` // 0 disables
	RoundsPerSecond float64 `toml:"rounds_per_second" yaml:"rounds_per_second"` // 0 disables pacing
	Burst           int     `toml:"burst" yaml:"burst"`
}

// Registry contains the optional etcd lookup.
type Registry struct {
	EtcdEndpoints []string `toml:"etcd_endpoints" yaml:"etcd_endpoints"`
	EtcdName      string   `toml:"etcd_name" yaml:"etcd_name"`
	EtcdTimeoutMS int      `toml:"etcd_timeout_ms" yaml:"etcd_timeout_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Config encapsulates all configuration values for renvim.
type Config struct {
	Editor   Editor   `toml:"editor" yaml:"editor"`
	Client   Client   `toml:"client" yaml:"client"`
	Registry Registry `toml:"registry" yaml:"registry"`
	Logging  Logging  `toml:"logging" yaml:"logging"`
}

// DialTimeout returns the dial timeout as a duration.
func (c Client) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// RoundTimeout returns the per-round timeout; zero means none.
func (c Client) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutMS) * time.Millisecond
}

// EtcdTimeout returns the etcd call timeout as a duration.
func (r Registry) EtcdTimeout() time.Duration {
	return time.Duration(r.EtcdTimeoutMS) * time.Millisecond
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/renvim/config.toml, falling back
// to ~/.config/renvim/config.toml.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "renvim", "config.toml"), nil
	}
	return expandPath("~/.config/renvim/config.toml")
}

// Load reads and validates the configuration file at path, or at the default
// location when path is empty. A missing file yields the defaults. Files
// ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	file, err := os.Open(resolvedPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("open config: %w", err)
	}
	exists := err == nil
	if exists {
		defer file.Close()
		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return expandPath(path)
	}
	return DefaultConfigPath()
}

func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
