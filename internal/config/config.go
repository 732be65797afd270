// Package config loads server.yaml and applies environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const defaultRateBurst = 10

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// ServerConfig is server.yaml. Server.RateLimit is game requests per second
// per client; 0 disables limiting.
type ServerConfig struct {
	Version int `yaml:"version"`
	Server  struct {
		Name           string   `yaml:"name"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		TLSCert        string   `yaml:"tls_cert"`
		TLSKey         string   `yaml:"tls_key"`
		RateLimit      float64  `yaml:"rate_limit"`
		RateBurst      int      `yaml:"rate_burst"`
	} `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Story   struct {
		Path string `yaml:"path"`
	} `yaml:"story"`
	MQTT MQTTConfig `yaml:"mqtt"`
	Log  LogConfig  `yaml:"log"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// URL is the Postgres DSN or Redis URL. Empty falls back to PG*/REDIS_URL env.
	URL string `yaml:"url"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// overrides are the environment variables that win over server.yaml.
type overrides struct {
	Port          int      `env:"TREASURE_PORT"`
	StorageDriver string   `env:"TREASURE_STORAGE_DRIVER"`
	StoragePath   string   `env:"TREASURE_STORAGE_PATH"`
	StorageURL    string   `env:"TREASURE_STORAGE_URL"`
	StoryPath     string   `env:"TREASURE_STORY_PATH"`
	MQTTEnabled   *bool    `env:"TREASURE_MQTT_ENABLED"`
	MQTTURL       string   `env:"TREASURE_MQTT_URL"`
	LogLevel      string   `env:"TREASURE_LOG_LEVEL"`
	LogFormat     string   `env:"TREASURE_LOG_FORMAT"`
	RateLimit     *float64 `env:"TREASURE_RATE_LIMIT"`
}

// Default returns the configuration used when no server.yaml exists.
func Default() *ServerConfig {
	cfg := &ServerConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values left by server.yaml.
func (c *ServerConfig) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "Treasure Land"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "treasure_game.db"
	}
	if c.MQTT.URL == "" {
		c.MQTT.URL = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "treasureland"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "treasureland"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// LoadServerConfig reads path, applies defaults and environment overrides,
// and validates the result. A missing file is not an error when
// allowMissing is set; defaults and overrides still apply.
func LoadServerConfig(path string, allowMissing bool) (*ServerConfig, error) {
	var cfg ServerConfig

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
		if cfg.Version != 1 {
			return nil, fmt.Errorf("unsupported server.yaml version: %d", cfg.Version)
		}
	case os.IsNotExist(err) && allowMissing:
		cfg.Version = 1
	default:
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ServerConfig) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.StorageDriver != "" {
		c.Storage.Driver = o.StorageDriver
	}
	if o.StoragePath != "" {
		c.Storage.Path = o.StoragePath
	}
	if o.StorageURL != "" {
		c.Storage.URL = o.StorageURL
	}
	if o.StoryPath != "" {
		c.Story.Path = o.StoryPath
	}
	if o.MQTTEnabled != nil {
		c.MQTT.Enabled = *o.MQTTEnabled
	}
	if o.MQTTURL != "" {
		c.MQTT.URL = o.MQTTURL
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Log.Format = o.LogFormat
	}
	if o.RateLimit != nil {
		c.Server.RateLimit = *o.RateLimit
	}
	return nil
}

// Validate checks the combined configuration.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = defaultRateBurst
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	return nil
}
