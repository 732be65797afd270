package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearTreasureEnv(t *testing.T) {
	for _, k := range []string{
		"TREASURE_PORT", "TREASURE_STORAGE_DRIVER", "TREASURE_STORAGE_PATH", "TREASURE_STORAGE_URL",
		"TREASURE_STORY_PATH", "TREASURE_MQTT_ENABLED", "TREASURE_MQTT_URL", "TREASURE_LOG_LEVEL", "TREASURE_LOG_FORMAT",
		"TREASURE_RATE_LIMIT",
	} {
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadServerConfig(t *testing.T) {
	clearTreasureEnv(t)
	path := writeConfig(t, `version: 1
server:
  name: Test Land
  port: 9000
  allowed_origins: ["http://localhost:5173"]
storage:
  driver: Postgres
  url: postgres://u@h/db
mqtt:
  enabled: true
`)

	cfg, err := LoadServerConfig(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Name != "Test Land" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server section %+v", cfg.Server)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("expected normalized driver postgres, got %q", cfg.Storage.Driver)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.TopicPrefix != "treasureland" {
		t.Errorf("unexpected mqtt section %+v", cfg.MQTT)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	clearTreasureEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadServerConfig(missing, false); err == nil {
		t.Error("expected error for missing file")
	}

	cfg, err := LoadServerConfig(missing, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8000 || cfg.Storage.Driver != DriverSQLite || cfg.Storage.Path != "treasure_game.db" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadServerConfigEnvOverrides(t *testing.T) {
	clearTreasureEnv(t)
	path := writeConfig(t, "version: 1\nmqtt:\n  enabled: true\n")

	t.Setenv("TREASURE_PORT", "8123")
	t.Setenv("TREASURE_STORAGE_DRIVER", "memory")
	t.Setenv("TREASURE_MQTT_ENABLED", "false")
	t.Setenv("TREASURE_LOG_LEVEL", "debug")

	cfg, err := LoadServerConfig(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("expected port 8123, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.MQTT.Enabled {
		t.Error("expected env to disable mqtt")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.Log.Level)
	}
}

func TestLoadServerConfigRejects(t *testing.T) {
	clearTreasureEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad version", "version: 2\n"},
		{"bad driver", "version: 1\nstorage:\n  driver: mongo\n"},
		{"bad port", "version: 1\nserver:\n  port: 70000\n"},
		{"half tls", "version: 1\nserver:\n  tls_cert: cert.pem\n"},
		{"bad yaml", "version: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadServerConfig(writeConfig(t, tt.body), false); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestRateLimitConfig(t *testing.T) {
	clearTreasureEnv(t)
	path := writeConfig(t, "version: 1\nserver:\n  rate_limit: 2.5\n")

	cfg, err := LoadServerConfig(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.RateLimit != 2.5 || cfg.Server.RateBurst != defaultRateBurst {
		t.Errorf("unexpected rate settings %v/%d", cfg.Server.RateLimit, cfg.Server.RateBurst)
	}

	t.Setenv("TREASURE_RATE_LIMIT", "-1")
	if _, err := LoadServerConfig(path, false); err == nil {
		t.Error("expected error for negative rate limit")
	}
}
