package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full client configuration. Every console variant (unit,
// dispatcher, team lead) reads the same file; role-specific knobs live on
// the command line.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Unit       UnitConfig       `json:"unit"`
	Connection ConnectionConfig `json:"connection"`
	Metrics    MetricsConfig    `json:"metrics"`
	State      StateConfig      `json:"state"`
}

// ServerConfig names the session to join.
type ServerConfig struct {
	// Endpoint is the base URL of the coordination server, e.g.
	// "https://funk.example.org".
	Endpoint string `json:"endpoint"`
	// SessionCode selects the exercise session on that server.
	SessionCode string `json:"session_code"`
}

// UnitConfig carries the vehicle identity for the unit console, so a fixed
// terminal does not need the flag on every start.
type UnitConfig struct {
	// Name is the unit call sign, e.g. "Florian 1".
	Name string `json:"name"`
}

// ConnectionConfig tunes the socket supervision loop.
type ConnectionConfig struct {
	HeartbeatSeconds        int `json:"heartbeat_seconds"`
	HandshakeTimeoutSeconds int `json:"handshake_timeout_seconds"`
	BackoffBaseMillis       int `json:"backoff_base_ms"`
	BackoffCapSeconds       int `json:"backoff_cap_seconds"`
}

// MetricsConfig controls the local Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// StateConfig locates the local sqlite state database.
type StateConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *ConnectionConfig) SetDefaults() {
	if c.HeartbeatSeconds == 0 {
		c.HeartbeatSeconds = 20
	}
	if c.HandshakeTimeoutSeconds == 0 {
		c.HandshakeTimeoutSeconds = 5
	}
	if c.BackoffBaseMillis == 0 {
		c.BackoffBaseMillis = 500
	}
	if c.BackoffCapSeconds == 0 {
		c.BackoffCapSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c ConnectionConfig) Validate() error {
	if c.HeartbeatSeconds < 1 {
		return fmt.Errorf("heartbeat_seconds must be positive")
	}
	if c.BackoffBaseMillis < 1 || c.BackoffCapSeconds < 1 {
		return fmt.Errorf("backoff intervals must be positive")
	}
	return nil
}

func (c *MetricsConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":9181"
	}
}

func (c *StateConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "leitstand.db"
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("server endpoint is required")
	}
	if c.SessionCode == "" {
		return fmt.Errorf("session_code is required")
	}
	return nil
}

// Heartbeat returns the heartbeat interval as a duration.
func (c ConnectionConfig) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// HandshakeTimeout returns the connect deadline as a duration.
func (c ConnectionConfig) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutSeconds) * time.Second
}

// BackoffBase returns the first reconnect delay.
func (c ConnectionConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMillis) * time.Millisecond
}

// BackoffCap returns the maximum reconnect delay.
func (c ConnectionConfig) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapSeconds) * time.Second
}

// Load reads a yaml or json config file with LEITSTAND_* environment
// overrides, e.g. LEITSTAND_SERVER__ENDPOINT=https://funk.example.org.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

// LoadDefaults builds a config from defaults and environment only, for
// invocations that pass everything on the command line.
func LoadDefaults() (*Config, error) {
	k := koanf.New(".")
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	return unmarshal(k)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider("LEITSTAND_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "leitstand_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Connection.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.State.SetDefaults()
	if err := cfg.Connection.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
