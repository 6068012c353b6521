// Package config loads server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Oper is one server operator credential. Password is a bcrypt hash.
type Oper struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Config holds server-level configuration parameters.
type Config struct {
	// --- Identity ---
	ServerName string `yaml:"server_name"`
	Network    string `yaml:"network"`

	// --- Listeners ---
	Listen    string `yaml:"listen"`     // plaintext TCP listen address
	TLSListen string `yaml:"tls_listen"` // TLS listen address ("" = disabled)
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`
	WSListen  string `yaml:"ws_listen"` // WebSocket listen address ("" = disabled)

	// --- Observability ---
	MetricsListen string `yaml:"metrics_listen"` // Prometheus endpoint ("" = disabled)

	// --- Files ---
	MOTDPath  string `yaml:"motd"`
	StorePath string `yaml:"store"` // bbolt list-mode store ("" = in-memory only)

	// --- Limits ---
	MaxModesPerCommand int `yaml:"max_modes_per_command"`
	MaxListEntries     int `yaml:"max_list_entries"`
	MaxChannels        int `yaml:"max_channels_per_client"`

	// --- Timeouts ---
	PingInterval time.Duration `yaml:"ping_interval"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// --- Operators ---
	Opers []Oper `yaml:"opers"`
}

// Default returns sensible defaults.
func Default() *Config {
	return &Config{
		ServerName:         "irc.crystal-irc.net",
		Network:            "CrystalIRC",
		Listen:             ":6667",
		MaxModesPerCommand: 12,
		MaxListEntries:     100,
		MaxChannels:        64,
		PingInterval:       90 * time.Second,
		IdleTimeout:        240 * time.Second,
	}
}

// Load reads a YAML config file, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.ServerName == "" {
		return nil, fmt.Errorf("config: server_name must not be empty")
	}
	return cfg, nil
}
