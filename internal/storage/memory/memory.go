// Package memory is an in-process session repository for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/AaronLay10/TreasureLand/internal/session"
)

// Store keeps sessions in a map. Records are copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*session.Session)}
}

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return session.ErrDuplicate
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.ID]
	if !ok {
		return session.ErrNotFound
	}
	if cur.GameOver {
		return session.ErrAlreadyOver
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]session.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()
	return session.RankWinners(all, limit), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
