// Package storagetest holds the behaviour every session repository must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AaronLay10/TreasureLand/internal/session"
)

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) session.Repository

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises repo against the session.Repository contract.
func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, newRepo(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("SaveMissing", func(t *testing.T) { testSaveMissing(t, newRepo(t)) })
	t.Run("SaveRoundTrip", func(t *testing.T) { testSaveRoundTrip(t, newRepo(t)) })
	t.Run("SaveWinnerListed", func(t *testing.T) { testSaveWinnerListed(t, newRepo(t)) })
	t.Run("SaveFinished", func(t *testing.T) { testSaveFinished(t, newRepo(t)) })
	t.Run("Leaderboard", func(t *testing.T) { testLeaderboard(t, newRepo(t)) })
}

func newSession(id, user string, at time.Time) *session.Session {
	return &session.Session{
		ID:          id,
		UserID:      user,
		CurrentNode: "welcome",
		Choices:     []session.ChoiceRecord{},
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func testCreateGet(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	want := newSession("s-1", "alice", base)
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != want.ID || got.UserID != want.UserID || got.CurrentNode != want.CurrentNode {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Won || got.GameOver {
		t.Error("expected fresh session flags to be false")
	}
	if len(got.Choices) != 0 {
		t.Errorf("expected empty choice log, got %v", got.Choices)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("expected created_at %v, got %v", base, got.CreatedAt)
	}
}

func testCreateDuplicate(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	if err := repo.Create(ctx, newSession("dup", "alice", base)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := repo.Create(ctx, newSession("dup", "bob", base))
	if !errors.Is(err, session.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.UserID != "alice" {
		t.Errorf("duplicate create overwrote record: user %s", got.UserID)
	}
}

func testGetMissing(t *testing.T, repo session.Repository) {
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testSaveMissing(t *testing.T, repo session.Repository) {
	err := repo.Save(context.Background(), newSession("missing", "alice", base))
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testSaveRoundTrip(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	sess := newSession("s-2", "bob", base)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	later := base.Add(time.Minute)
	sess.Choices = append(sess.Choices,
		session.ChoiceRecord{Step: "welcome", Choice: "l", Timestamp: base.Add(10 * time.Second)},
		session.ChoiceRecord{Step: "riverside", Choice: "W", Timestamp: later},
	)
	sess.CurrentNode = "doors"
	sess.UpdatedAt = later
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.Get(ctx, "s-2")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CurrentNode != "doors" {
		t.Errorf("expected current node doors, got %s", got.CurrentNode)
	}
	if len(got.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(got.Choices))
	}
	if got.Choices[1].Step != "riverside" || got.Choices[1].Choice != "W" {
		t.Errorf("unexpected choice entry %+v", got.Choices[1])
	}
	if !got.Choices[1].Timestamp.Equal(later) {
		t.Errorf("expected choice timestamp %v, got %v", later, got.Choices[1].Timestamp)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("expected updated_at %v, got %v", later, got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("created_at changed: %v", got.CreatedAt)
	}
}

func testSaveWinnerListed(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	sess := newSession("win-1", "carol", base)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	won := base.Add(2 * time.Minute)
	sess.Choices = append(sess.Choices, session.ChoiceRecord{Step: "doors", Choice: "y", Timestamp: won})
	sess.Won = true
	sess.GameOver = true
	sess.UpdatedAt = won
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "carol" || got[0].Wins != 1 || !got[0].LastWin.Equal(won) {
		t.Errorf("expected carol with one win at %v, got %+v", won, got)
	}
}

func testSaveFinished(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	sess := newSession("over-1", "dave", base)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	sess.GameOver = true
	sess.UpdatedAt = base.Add(time.Minute)
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	late := sess.Clone()
	late.Won = true
	late.CurrentNode = "doors"
	late.UpdatedAt = base.Add(time.Hour)
	if err := repo.Save(ctx, late); !errors.Is(err, session.ErrAlreadyOver) {
		t.Fatalf("expected ErrAlreadyOver, got %v", err)
	}

	got, err := repo.Get(ctx, "over-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Won || got.CurrentNode != "welcome" || !got.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("finished session was overwritten: %+v", got)
	}

	board, err := repo.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board) != 0 {
		t.Errorf("expected empty leaderboard, got %+v", board)
	}
}

// testLeaderboard seeds A (3 wins, latest t3), B (3 wins, latest t5) and
// C (1 win, latest t9) plus losing sessions that must not count.
func testLeaderboard(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	at := func(n int) time.Time { return base.Add(time.Duration(n) * time.Minute) }

	seed := []struct {
		user string
		won  bool
		t    int
	}{
		{"A", true, 1}, {"A", true, 2}, {"A", true, 3},
		{"B", true, 0}, {"B", true, 4}, {"B", true, 5},
		{"C", true, 9},
		{"C", false, 10}, {"D", false, 11},
	}
	for i, sd := range seed {
		s := newSession(fmt.Sprintf("lb-%d", i), sd.user, base)
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		s.GameOver = true
		s.Won = sd.won
		s.UpdatedAt = at(sd.t)
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	got, err := repo.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	want := []session.LeaderboardEntry{
		{UserID: "B", Wins: 3, LastWin: at(5)},
		{UserID: "A", Wins: 3, LastWin: at(3)},
		{UserID: "C", Wins: 1, LastWin: at(9)},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].UserID != want[i].UserID || got[i].Wins != want[i].Wins || !got[i].LastWin.Equal(want[i].LastWin) {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	top, err := repo.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(top) != 1 || top[0].UserID != "B" {
		t.Errorf("expected [B], got %+v", top)
	}
}
