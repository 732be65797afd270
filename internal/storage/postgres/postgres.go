// Package postgres persists sessions and the game event log in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/AaronLay10/TreasureLand/internal/config"
)

// Client manages the Postgres connection for sessions and events.
type Client struct {
	db     *sql.DB
	source string
}

// ConnString builds a lib/pq connection string from PG* environment
// variables. PGPASSWORD may be supplied through PGPASSWORD_FILE.
func ConnString() (string, error) {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "treasure")
	dbname := getEnv("PGDATABASE", "treasure")
	sslmode := getEnv("PGSSLMODE", "disable")
	password, err := config.ResolveSecret("PGPASSWORD")
	if err != nil {
		return "", err
	}

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode), nil
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		host, port, user, dbname, sslmode), nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// New connects to Postgres and creates the tables if needed. An empty dsn
// falls back to ConnString. source tags every event row this client writes.
func New(ctx context.Context, dsn, source string) (*Client, error) {
	if dsn == "" {
		var err error
		if dsn, err = ConnString(); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:     db,
		source: source,
	}

	if err := client.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func (c *Client) createTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS game_sessions (
			session_id   TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			current_step TEXT NOT NULL,
			choices_made JSONB NOT NULL DEFAULT '[]'::jsonb,
			won          BOOLEAN NOT NULL DEFAULT FALSE,
			game_over    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_game_sessions_won_user ON game_sessions(user_id) WHERE won;

		CREATE TABLE IF NOT EXISTS game_events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			source     TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_game_events_ts ON game_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_game_events_session_id ON game_events(session_id);
	`
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
