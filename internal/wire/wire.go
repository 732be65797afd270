// Package wire defines the JSON shapes the game exposes to clients over
// HTTP and MQTT.
package wire

import (
	"time"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/story"
)

type StartResponse struct {
	SessionID   string            `json:"session_id"`
	Message     string            `json:"message"`
	AsciiArt    string            `json:"ascii_art"`
	Prompt      string            `json:"prompt"`
	Choices     map[string]string `json:"choices"`
	CurrentStep string            `json:"current_step"`
}

type ChoiceRequest struct {
	Choice *string `json:"choice"`
}

type ChoiceResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Prompt    *string           `json:"prompt"`
	Choices   map[string]string `json:"choices"`
	NextStep  *string           `json:"next_step"`
	GameOver  bool              `json:"game_over"`
	Won       bool              `json:"won"`
	SessionID string            `json:"session_id"`
}

type StatusResponse struct {
	SessionID   string                 `json:"session_id"`
	UserID      string                 `json:"user_id"`
	CurrentStep string                 `json:"current_step"`
	ChoicesMade []session.ChoiceRecord `json:"choices_made"`
	Won         bool                   `json:"won"`
	GameOver    bool                   `json:"game_over"`
	CreatedAt   string                 `json:"created_at"`
	UpdatedAt   string                 `json:"updated_at"`
}

type LeaderboardEntry struct {
	UserID  string `json:"user_id"`
	Wins    int    `json:"wins"`
	LastWin string `json:"last_win"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewStartResponse renders a freshly created session at the start node.
func NewStartResponse(sess *session.Session, start story.View) StartResponse {
	return StartResponse{
		SessionID:   sess.ID,
		Message:     start.Message,
		AsciiArt:    start.Art,
		Prompt:      start.Prompt,
		Choices:     start.Choices,
		CurrentStep: sess.CurrentNode,
	}
}

// NewChoiceResponse renders the outcome of one applied choice.
func NewChoiceResponse(sess *session.Session, outcome story.Outcome) ChoiceResponse {
	resp := ChoiceResponse{
		Success:   story.Success(outcome),
		GameOver:  story.GameOver(outcome),
		Won:       story.Won(outcome),
		SessionID: sess.ID,
	}

	switch o := outcome.(type) {
	case story.Continue:
		resp.Message = o.Message
		resp.Prompt = &o.Prompt
		resp.Choices = o.Choices
		resp.NextStep = &o.NextNode
	case story.Terminal:
		resp.Message = o.Message
	}
	return resp
}

// NewStatusResponse renders a full session snapshot.
func NewStatusResponse(sess *session.Session) StatusResponse {
	choices := sess.Choices
	if choices == nil {
		choices = []session.ChoiceRecord{}
	}
	return StatusResponse{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		CurrentStep: sess.CurrentNode,
		ChoicesMade: choices,
		Won:         sess.Won,
		GameOver:    sess.GameOver,
		CreatedAt:   FormatTime(sess.CreatedAt),
		UpdatedAt:   FormatTime(sess.UpdatedAt),
	}
}

// NewLeaderboardResponse renders ranked entries.
func NewLeaderboardResponse(entries []session.LeaderboardEntry) LeaderboardResponse {
	out := LeaderboardResponse{Leaderboard: make([]LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		out.Leaderboard = append(out.Leaderboard, LeaderboardEntry{
			UserID:  e.UserID,
			Wins:    e.Wins,
			LastWin: FormatTime(e.LastWin),
		})
	}
	return out
}

// FormatTime renders timestamps as RFC 3339 with nanoseconds in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
