package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AaronLay10/TreasureLand/internal/config"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory}, "test")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if mem.Sink() != nil {
		t.Error("memory backend should not expose an event sink")
	}
	if err := mem.Close(); err != nil {
		t.Errorf("close memory: %v", err)
	}

	lite, err := Open(ctx, config.StorageConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "t.db"),
	}, "test")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := lite.Close(); err != nil {
		t.Errorf("close sqlite: %v", err)
	}

	if _, err := Open(ctx, config.StorageConfig{Driver: "mongo"}, "test"); err == nil {
		t.Error("expected error for unknown driver")
	}
}
