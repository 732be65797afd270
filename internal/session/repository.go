package session

import (
	"context"
	"sort"
)

// Repository is the durable store behind Service. Implementations must
// return ErrNotFound from Get and Save for unknown ids and ErrDuplicate
// from Create for an id that already exists. Save must refuse to overwrite
// a stored record that is already game over and return ErrAlreadyOver, so
// a finished session stays finished even with several writers.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error

	// Leaderboard aggregates won sessions per user, ordered by RankWinners
	// rules and truncated to limit. limit is always positive.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// Pinger is implemented by repositories that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RankWinners aggregates won sessions by user and orders the result by
// wins descending, then most recent win descending, then user id.
// Repositories without a query engine use it to implement Leaderboard.
func RankWinners(sessions []*Session, limit int) []LeaderboardEntry {
	if limit <= 0 {
		return []LeaderboardEntry{}
	}

	byUser := make(map[string]*LeaderboardEntry)
	for _, s := range sessions {
		if s == nil || !s.Won {
			continue
		}
		e, ok := byUser[s.UserID]
		if !ok {
			e = &LeaderboardEntry{UserID: s.UserID}
			byUser[s.UserID] = e
		}
		e.Wins++
		if s.UpdatedAt.After(e.LastWin) {
			e.LastWin = s.UpdatedAt
		}
	}

	out := make([]LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	SortLeaderboard(out)

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortLeaderboard orders entries in place.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if !a.LastWin.Equal(b.LastWin) {
			return a.LastWin.After(b.LastWin)
		}
		return a.UserID < b.UserID
	})
}
