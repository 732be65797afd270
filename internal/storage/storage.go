// Package storage opens the session repository selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/AaronLay10/TreasureLand/internal/config"
	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage/memory"
	"github.com/AaronLay10/TreasureLand/internal/storage/postgres"
	"github.com/AaronLay10/TreasureLand/internal/storage/redis"
	"github.com/AaronLay10/TreasureLand/internal/storage/sqlite"
)

// Backend is an opened repository plus anything else the driver offers.
type Backend struct {
	Repo session.Repository

	// EventLog is non-nil when the driver can persist events (Postgres).
	EventLog *postgres.Client

	close func() error
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Sink returns the event sink for the backend, or nil.
func (b *Backend) Sink() events.Sink {
	if b.EventLog == nil {
		return nil
	}
	return b.EventLog
}

// Open connects the configured driver. source tags persisted events.
func Open(ctx context.Context, cfg config.StorageConfig, source string) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{Repo: s, close: s.Close}, nil

	case config.DriverPostgres:
		c, err := postgres.New(ctx, cfg.URL, source)
		if err != nil {
			return nil, err
		}
		return &Backend{Repo: c, EventLog: c, close: c.Close}, nil

	case config.DriverRedis:
		s, err := redis.New(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return &Backend{Repo: s, close: s.Close}, nil

	case config.DriverMemory:
		return &Backend{Repo: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
