package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Editor.Binary) == "" {
		return errors.New("editor.binary must not be empty")
	}
	if c.Client.DialTimeoutMS < 0 {
		return fmt.Errorf("client.dial_timeout_ms must be >= 0, got %d", c.Client.DialTimeoutMS)
	}
	if c.Client.RoundTimeoutMS < 0 {
		return fmt.Errorf("client.round_timeout_ms must be >= 0, got %d", c.Client.RoundTimeoutMS)
	}
	if c.Client.RoundsPerSecond < 0 {
		return fmt.Errorf("client.rounds_per_second must be >= 0, got %g", c.Client.RoundsPerSecond)
	}
	if c.Client.RoundsPerSecond > 0 && c.Client.Burst < 1 {
		return fmt.Errorf("client.burst must be >= 1 when pacing is on, got %d", c.Client.Burst)
	}
	if len(c.Registry.EtcdEndpoints) > 0 && c.Registry.EtcdName == "" {
		return errors.New("registry.etcd_name must not be empty when etcd_endpoints is set")
	}
	if c.Registry.EtcdTimeoutMS < 0 {
		return fmt.Errorf("registry.etcd_timeout_ms must be >= 0, got %d", c.Registry.EtcdTimeoutMS)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
