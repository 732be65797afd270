package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/story"
)

func TestChoiceResponseContinue(t *testing.T) {
	sess := &session.Session{ID: "s-1"}
	resp := NewChoiceResponse(sess, story.Continue{
		NextNode: "riverside",
		Message:  "At the river.",
		Prompt:   "Wait or swim?",
		Choices:  map[string]string{"w": "wait", "s": "swim"},
	})

	if !resp.Success || resp.GameOver || resp.Won {
		t.Errorf("unexpected flags %+v", resp)
	}
	if resp.NextStep == nil || *resp.NextStep != "riverside" {
		t.Errorf("expected next step riverside, got %v", resp.NextStep)
	}
	if resp.Prompt == nil || *resp.Prompt != "Wait or swim?" {
		t.Errorf("unexpected prompt %v", resp.Prompt)
	}
}

func TestChoiceResponseTerminalOmitsNavigation(t *testing.T) {
	sess := &session.Session{ID: "s-1"}
	resp := NewChoiceResponse(sess, story.Terminal{Message: "Game Over"})

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(b)
	for _, want := range []string{`"success":false`, `"game_over":true`, `"won":false`, `"prompt":null`, `"next_step":null`, `"choices":null`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in %s", want, body)
		}
	}
}

func TestChoiceResponseWin(t *testing.T) {
	resp := NewChoiceResponse(&session.Session{ID: "s"}, story.Terminal{Message: "YOU WON!", Won: true})
	if !resp.Success || !resp.GameOver || !resp.Won {
		t.Errorf("unexpected flags %+v", resp)
	}
}

func TestStatusResponse(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 500, time.FixedZone("x", 3600))
	resp := NewStatusResponse(&session.Session{ID: "s", UserID: "u", CreatedAt: ts, UpdatedAt: ts})
	if resp.ChoicesMade == nil {
		t.Error("expected non-nil choices")
	}
	if resp.CreatedAt != "2025-03-01T11:00:00.0000005Z" {
		t.Errorf("unexpected created_at %q", resp.CreatedAt)
	}
}

func TestLeaderboardResponseEmpty(t *testing.T) {
	b, _ := json.Marshal(NewLeaderboardResponse(nil))
	if string(b) != `{"leaderboard":[]}` {
		t.Errorf("unexpected body %s", b)
	}
}
