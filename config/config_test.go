package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expect exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expect resolved path %s, got %s", path, resolved)
	}
	if cfg.Editor.Binary != "nvim" || cfg.Client.DialTimeout() != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Client.Strict || cfg.Client.ResolvePaths {
		t.Fatal("strict and resolve_paths must default to off")
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[editor]
binary = "nvim-nightly"

[client]
strict = true
resolve_paths = true
round_timeout_ms = 250
rounds_per_second = 10
burst = 4

[logging]
level = "debug"
format = "json"
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expect exists=true")
	}
	if cfg.Editor.Binary != "nvim-nightly" || !cfg.Client.Strict || !cfg.Client.ResolvePaths {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Client.RoundTimeout() != 250*time.Millisecond || cfg.Client.RoundsPerSecond != 10 || cfg.Client.Burst != 4 {
		t.Fatalf("unexpected client config %+v", cfg.Client)
	}
	if cfg.Client.DialTimeoutMS != 5000 {
		t.Fatalf("expect untouched default dial timeout, got %d", cfg.Client.DialTimeoutMS)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
editor:
  address: 127.0.0.1:6666
registry:
  etcd_endpoints: ["10.0.0.1:2379"]
  etcd_name: laptop
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Editor.Address != "127.0.0.1:6666" {
		t.Fatalf("unexpected editor config %+v", cfg.Editor)
	}
	if len(cfg.Registry.EtcdEndpoints) != 1 || cfg.Registry.EtcdName != "laptop" {
		t.Fatalf("unexpected registry config %+v", cfg.Registry)
	}
	if cfg.Registry.EtcdTimeout() != 2*time.Second {
		t.Fatalf("expect default etcd timeout, got %s", cfg.Registry.EtcdTimeout())
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, _, _, err := Load(writeFile(t, "config.yml", ""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Editor.Binary != "nvim" {
		t.Fatal("expect defaults for empty file")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, _, _, err := Load(writeFile(t, "config.toml", "[client]\nstrikt = true\n")); err == nil {
		t.Fatal("expect error for unknown TOML field")
	}
	if _, _, _, err := Load(writeFile(t, "config.yaml", "client:\n  strikt: true\n")); err == nil {
		t.Fatal("expect error for unknown YAML field")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty binary", func(c *Config) { c.Editor.Binary = " " }, "editor.binary"},
		{"negative dial", func(c *Config) { c.Client.DialTimeoutMS = -1 }, "dial_timeout_ms"},
		{"negative round", func(c *Config) { c.Client.RoundTimeoutMS = -1 }, "round_timeout_ms"},
		{"negative rate", func(c *Config) { c.Client.RoundsPerSecond = -2 }, "rounds_per_second"},
		{"zero burst", func(c *Config) { c.Client.RoundsPerSecond = 5; c.Client.Burst = 0 }, "burst"},
		{"etcd without name", func(c *Config) { c.Registry.EtcdEndpoints = []string{"x"}; c.Registry.EtcdName = "" }, "etcd_name"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expect error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/xdg/renvim/config.toml" {
		t.Fatalf("unexpected path %s", path)
	}
}
