// Package config handles configuration management for vpnctl: storage
// locations, external client executable paths, and connection defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// Config represents the vpnctl configuration.
type Config struct {
	// StorePath is the sealed profile database file.
	StorePath string `yaml:"store_path"`
	// KeyPath is the master key file. Losing it makes the store
	// unrecoverable.
	KeyPath string `yaml:"key_path"`
	// Clients maps a provider kind to its external client executable.
	Clients map[string]string `yaml:"clients"`
	Probe   ProbeConfig       `yaml:"probe"`
	Connect ConnectConfig     `yaml:"connect"`
}

// ProbeConfig tunes the network readiness probe.
type ProbeConfig struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

// ConnectConfig carries the connection retry defaults and the external
// command timeout.
type ConnectConfig struct {
	Retries        int           `yaml:"retries"`
	Delay          time.Duration `yaml:"delay"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "vpnctl")
	return &Config{
		StorePath: filepath.Join(dataDir, "profiles.db"),
		KeyPath:   filepath.Join(dataDir, "secret.key"),
		Clients:   map[string]string{},
		Probe: ProbeConfig{
			Address: "8.8.8.8:53",
			Timeout: 3 * time.Second,
		},
		Connect: ConnectConfig{
			Retries:        3,
			Delay:          5 * time.Second,
			CommandTimeout: 30 * time.Second,
		},
	}
}

// DefaultConfigPath returns the config file location under the user's
// config directory.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vpnctl", "config.yaml"), nil
}

// LoadConfig loads configuration from file. A missing file yields the
// defaults, persisted so the operator has something to edit.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(configPath)
	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		if err := SaveConfig(cfg, cleanPath); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills zero values so a sparse config file still works.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.StorePath == "" {
		c.StorePath = defaults.StorePath
	}
	if c.KeyPath == "" {
		c.KeyPath = defaults.KeyPath
	}
	if c.Clients == nil {
		c.Clients = map[string]string{}
	}
	if c.Probe.Address == "" {
		c.Probe.Address = defaults.Probe.Address
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = defaults.Probe.Timeout
	}
	if c.Connect.Retries <= 0 {
		c.Connect.Retries = defaults.Connect.Retries
	}
	if c.Connect.Delay < 0 {
		c.Connect.Delay = defaults.Connect.Delay
	}
	if c.Connect.CommandTimeout <= 0 {
		c.Connect.CommandTimeout = defaults.Connect.CommandTimeout
	}
}

// SaveConfig saves configuration to file.
func SaveConfig(cfg *Config, configPath string) error {
	cleanPath := filepath.Clean(configPath)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClientPath returns the configured executable path for a provider.
func (c *Config) ClientPath(kind domain.ProviderKind) (string, error) {
	path, ok := c.Clients[string(kind)]
	if !ok || path == "" {
		return "", fmt.Errorf("no client path configured for provider %q (use: vpnctl set-path %s <path>)", kind, kind)
	}
	return path, nil
}

// SetClientPath records the executable path for a provider.
func (c *Config) SetClientPath(kind domain.ProviderKind, path string) {
	if c.Clients == nil {
		c.Clients = map[string]string{}
	}
	c.Clients[string(kind)] = path
}
