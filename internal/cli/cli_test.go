package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/storage/memory"
	"github.com/AaronLay10/TreasureLand/internal/story"
	"github.com/AaronLay10/TreasureLand/internal/version"
)

func newGame(t *testing.T) (*session.Service, *memory.Store) {
	t.Helper()
	engine, err := story.Default()
	if err != nil {
		t.Fatalf("failed to compile story: %v", err)
	}
	repo := memory.New()
	return session.NewService(repo, engine), repo
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func memoryConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, "server.yaml", "version: 1\nstorage:\n  driver: memory\nlog:\n  level: error\n")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlayWinning(t *testing.T) {
	game, repo := newGame(t)
	var out bytes.Buffer

	err := Play(context.Background(), game, strings.NewReader("l\nW\ny\n"), &out, "dana")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"WELCOME TO THE TREASURE LAND", "[l] left", "YOU WON!", "Thank you for playing"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	board, err := game.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board) != 1 || board[0].UserID != "dana" || board[0].Wins != 1 {
		t.Errorf("unexpected leaderboard %+v", board)
	}
	if repo.Len() != 1 {
		t.Errorf("expected one session, got %d", repo.Len())
	}
}

func TestPlayLosing(t *testing.T) {
	game, _ := newGame(t)
	var out bytes.Buffer

	if err := Play(context.Background(), game, strings.NewReader("x\n"), &out, ""); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out.String(), "Invalid choice. Game Over!") {
		t.Errorf("expected invalid choice message, got:\n%s", out.String())
	}
}

func TestPlayEndOfInputLeavesSessionOpen(t *testing.T) {
	game, _ := newGame(t)
	var out bytes.Buffer

	if err := Play(context.Background(), game, strings.NewReader("l\n"), &out, ""); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out.String(), "Game saved as") {
		t.Errorf("expected saved message, got:\n%s", out.String())
	}
}

func TestPrintLeaderboard(t *testing.T) {
	var out bytes.Buffer
	if err := printLeaderboard(&out, nil); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if !strings.Contains(out.String(), "No winners yet.") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	entries := []session.LeaderboardEntry{{UserID: "alice", Wins: 3}}
	if err := printLeaderboard(&out, entries); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if !strings.Contains(out.String(), "alice") || !strings.Contains(out.String(), "RANK") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, version.Version) {
		t.Errorf("expected version in output, got %q", out)
	}
}

func TestStoryValidateCommand(t *testing.T) {
	good := writeFile(t, "story.yaml", `version: 1
start: a
nodes:
  - id: a
    message: A
    choices:
      - key: w
        label: win
        end: win
        message: Won.
`)
	out, err := run(t, "", "story", "validate", good)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "ok (1 nodes, start a)") {
		t.Errorf("unexpected output %q", out)
	}

	bad := writeFile(t, "bad.yaml", "version: 1\nstart: missing\nnodes: []\n")
	if _, err := run(t, "", "story", "validate", bad); err == nil {
		t.Error("expected validation error")
	}

	out, err = run(t, "", "--config", memoryConfig(t), "story", "validate")
	if err != nil {
		t.Fatalf("validate built-in failed: %v", err)
	}
	if !strings.Contains(out, "built-in story: ok") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLeaderboardCommand(t *testing.T) {
	out, err := run(t, "", "--config", memoryConfig(t), "leaderboard", "--limit", "5")
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if !strings.Contains(out, "No winners yet.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPlayCommand(t *testing.T) {
	out, err := run(t, "r\n", "--config", memoryConfig(t), "play", "--user", "eve")
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if !strings.Contains(out, "You fall into the hole") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	if _, err := run(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "leaderboard"); err == nil {
		t.Error("expected error for missing explicit config")
	}
}
