package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AaronLay10/TreasureLand/internal/events"
	"github.com/AaronLay10/TreasureLand/internal/story"
)

// MaxLeaderboardLimit caps how many entries a single leaderboard query returns.
const MaxLeaderboardLimit = 1000

const maxIDAttempts = 3

// Service applies story transitions to persisted sessions.
// Choices against the same session are serialized; different sessions
// proceed in parallel.
type Service struct {
	repo   Repository
	engine *story.Engine
	locks  *keyedMutex
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service over repo and engine.
func NewService(repo Repository, engine *story.Engine, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		engine: engine,
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the story engine the service plays.
func (s *Service) Engine() *story.Engine {
	return s.engine
}

// Repository returns the backing store.
func (s *Service) Repository() Repository {
	return s.repo
}

// Create starts a new session at the story's start node.
func (s *Service) Create(ctx context.Context, userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = AnonymousUser
	}

	now := s.now()
	sess := &Session{
		UserID:      userID,
		CurrentNode: s.engine.StartNode(),
		Choices:     []ChoiceRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		sess.ID = s.newID()
		err = s.repo.Create(ctx, sess)
		if !errors.Is(err, ErrDuplicate) {
			break
		}
		log.Warn().Str("session_id", sess.ID).Msg("session id collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	events.Emit("info", "session.started", "", map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
	})

	return sess.Clone(), nil
}

// Get returns the session with id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Status returns a full snapshot of the session with id.
func (s *Service) Status(ctx context.Context, id string) (*Session, error) {
	return s.Get(ctx, id)
}

// ApplyChoice runs choice through the story engine from the session's
// current node and persists the result. A finished session is left
// untouched and ErrAlreadyOver is returned. Events are emitted after the
// session lock is released.
func (s *Service) ApplyChoice(ctx context.Context, id, choice string) (*Session, story.Outcome, error) {
	sess, from, outcome, err := s.apply(ctx, id, choice)
	if err != nil {
		return nil, nil, err
	}
	s.emitChoice(sess, from, choice, outcome)
	return sess, outcome, nil
}

func (s *Service) apply(ctx context.Context, id, choice string) (*Session, string, story.Outcome, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", nil, err
	}
	if sess.GameOver {
		return nil, "", nil, ErrAlreadyOver
	}

	from := sess.CurrentNode
	outcome := s.engine.Transition(from, choice)
	now := s.now()

	sess.Choices = append(sess.Choices, ChoiceRecord{
		Step:      from,
		Choice:    choice,
		Timestamp: now,
	})

	switch o := outcome.(type) {
	case story.Continue:
		sess.CurrentNode = o.NextNode
	case story.Terminal:
		if o.Won {
			sess.Won = true
		}
		sess.GameOver = true
	}
	sess.UpdatedAt = now

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, "", nil, fmt.Errorf("save session: %w", err)
	}
	return sess.Clone(), from, outcome, nil
}

func (s *Service) emitChoice(sess *Session, from, choice string, outcome story.Outcome) {
	fields := map[string]interface{}{
		"session_id": sess.ID,
		"step":       from,
		"choice":     choice,
		"next_step":  sess.CurrentNode,
		"game_over":  sess.GameOver,
	}
	events.Emit("info", "choice.applied", "", fields)

	if !story.GameOver(outcome) {
		return
	}
	name := "game.lost"
	if story.Won(outcome) {
		name = "game.won"
	}
	events.Emit("info", name, "", map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
	})
}

// Leaderboard returns the top limit users by wins. A non-positive limit
// yields an empty result.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	entries, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries, nil
}

// Ping checks the repository if it supports health checks.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
