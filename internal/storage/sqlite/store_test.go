package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "treasure.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) session.Repository {
		return openTestStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestReopenKeepsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treasure.db")
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sess := &session.Session{ID: "persist", UserID: "alice", CurrentNode: "welcome", CreatedAt: now, UpdatedAt: now}
	if err := first.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "persist")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("expected nanosecond timestamp %v, got %v", now, got.CreatedAt)
	}
	if got.Choices == nil {
		t.Error("expected empty, non-nil choice log")
	}
}
