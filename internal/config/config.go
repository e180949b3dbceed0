// Package config loads and validates the daemon's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aerolab/winddaq/internal/store"
)

// DaemonConfig is the root configuration for a winddaq instance.
type DaemonConfig struct {
	Serial  SerialConfig  `yaml:"serial"`
	Acquire AcquireConfig `yaml:"acquire"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	NATS    NATSConfig    `yaml:"nats"`
}

// SerialConfig holds sensor link settings.
type SerialConfig struct {
	Device        string   `yaml:"device"`
	BaudRate      int      `yaml:"baud_rate"`
	ReadTimeout   Duration `yaml:"read_timeout"`
	SettleDelay   Duration `yaml:"settle_delay"`
	RetryInterval Duration `yaml:"retry_interval"`
}

// AcquireConfig holds read-loop timing.
type AcquireConfig struct {
	ReadingInterval Duration `yaml:"reading_interval"`
}

// StoreConfig selects and configures the reading store backend.
type StoreConfig struct {
	Backend       string               `yaml:"backend"` // "sqlite" or "postgres"
	BatchSize     int                  `yaml:"batch_size"`
	FlushInterval Duration             `yaml:"flush_interval"`
	SQLitePath    string               `yaml:"sqlite_path"`
	Postgres      store.PostgresConfig `yaml:"postgres"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsPath string `yaml:"metrics_path"`
}

// NATSConfig holds the optional NATS reading publisher settings.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg DaemonConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*DaemonConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*DaemonConfig, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
