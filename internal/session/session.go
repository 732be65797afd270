// Package session owns player playthrough records: creation, choice
// application through the story engine, and leaderboard aggregation.
package session

import (
	"errors"
	"time"
)

// AnonymousUser is recorded when a session is started without a user id.
const AnonymousUser = "anonymous"

var (
	// ErrNotFound is returned when no session has the requested id.
	ErrNotFound = errors.New("game session not found")

	// ErrAlreadyOver is returned when a choice is submitted to a finished session.
	ErrAlreadyOver = errors.New("game is already over")

	// ErrDuplicate is returned by a Repository when Create reuses an existing id.
	ErrDuplicate = errors.New("session id already exists")
)

// Session is one player's playthrough.
type Session struct {
	ID          string         `json:"session_id"`
	UserID      string         `json:"user_id"`
	CurrentNode string         `json:"current_step"`
	Choices     []ChoiceRecord `json:"choices_made"`
	Won         bool           `json:"won"`
	GameOver    bool           `json:"game_over"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ChoiceRecord is one entry of the append-only choice log.
type ChoiceRecord struct {
	Step      string    `json:"step"`
	Choice    string    `json:"choice"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.Choices = append([]ChoiceRecord(nil), s.Choices...)
	return &cpy
}

// LeaderboardEntry is the derived win count for one user.
type LeaderboardEntry struct {
	UserID  string    `json:"user_id"`
	Wins    int       `json:"wins"`
	LastWin time.Time `json:"last_win"`
}
