package postgres

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage/storagetest"
)

func clearPGEnv(t *testing.T) {
	for _, k := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "PGSSLMODE", "PGPASSWORD", "PGPASSWORD_FILE"} {
		t.Setenv(k, "")
	}
}

func TestConnStringDefaults(t *testing.T) {
	clearPGEnv(t)

	got, err := ConnString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "host=127.0.0.1 port=5432 user=treasure dbname=treasure sslmode=disable"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConnStringPasswordFromFile(t *testing.T) {
	clearPGEnv(t)

	secretFile := filepath.Join(t.TempDir(), "pgpass")
	if err := os.WriteFile(secretFile, []byte("s3cret\n"), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	t.Setenv("PGPASSWORD_FILE", secretFile)
	t.Setenv("PGHOST", "db.internal")

	got, err := ConnString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "password=s3cret ") {
		t.Errorf("expected password from file in %q", got)
	}
	if !strings.Contains(got, "host=db.internal ") {
		t.Errorf("expected host override in %q", got)
	}
}

// openTestClient connects to the database named by TREASURE_TEST_POSTGRES_DSN
// and empties both tables.
func openTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv("TREASURE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TREASURE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	c, err := New(ctx, dsn, "test")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := c.db.ExecContext(ctx, "TRUNCATE game_sessions, game_events"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientContract(t *testing.T) {
	if os.Getenv("TREASURE_TEST_POSTGRES_DSN") == "" {
		t.Skip("TREASURE_TEST_POSTGRES_DSN not set")
	}
	storagetest.Run(t, func(t *testing.T) session.Repository {
		return openTestClient(t)
	})
}

func TestEventLogRoundTrip(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()

	err := c.Write(events.Event{
		Timestamp: "2025-03-01T12:00:00Z",
		Level:     "info",
		Name:      "game.won",
		Fields:    map[string]interface{}{"session_id": "s-1", "user_id": "alice"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := c.Query(ctx, 10, "s-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Event != "game.won" || rows[0].Source != "test" {
		t.Errorf("unexpected row %+v", rows[0])
	}
	if rows[0].SessionID == nil || *rows[0].SessionID != "s-1" {
		t.Errorf("expected session id s-1, got %v", rows[0].SessionID)
	}

	other, err := c.Query(ctx, 10, "s-2")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no rows for s-2, got %d", len(other))
	}
}

func TestEventLogEmptyQuery(t *testing.T) {
	c := openTestClient(t)
	rows, err := c.Query(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}
