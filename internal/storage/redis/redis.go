// Package redis persists sessions as JSON documents in Redis.
//
// Keys:
//
//	<prefix>:session:<id>  session JSON, no TTL (sessions are never deleted)
//	<prefix>:winners       set of ids of won sessions, scanned for the leaderboard
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/AaronLay10/TreasureLand/internal/config"
	"github.com/AaronLay10/TreasureLand/internal/session"
)

const (
	defaultPrefix = "treasureland"

	maxWatchAttempts = 3
)

// Store implements session.Repository on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New parses redisURL (or REDIS_URL when empty), connects and pings.
// REDIS_PASSWORD / REDIS_PASSWORD_FILE override any password in the URL.
func New(ctx context.Context, redisURL string) (*Store, error) {
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is required (storage.url or REDIS_URL)")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	password, err := config.ResolveSecret("REDIS_PASSWORD")
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, defaultPrefix), nil
}

// NewWithClient wraps an existing client. Keys are namespaced under prefix.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *Store) winnersKey() string {
	return s.prefix + ":winners"
}

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.sessionKey(sess.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return session.ErrDuplicate
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decode(data)
}

func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	key := s.sessionKey(sess.ID)

	// The session document and the winners index change in one MULTI/EXEC,
	// guarded by WATCH so a record already game over is never overwritten.
	update := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return session.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		stored, err := decode(cur)
		if err != nil {
			return err
		}
		if stored.GameOver {
			return session.ErrAlreadyOver
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, 0)
			if sess.Won {
				p.SAdd(ctx, s.winnersKey(), sess.ID)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err = s.client.Watch(ctx, update, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrAlreadyOver):
		return err
	default:
		return fmt.Errorf("failed to save session: %w", err)
	}
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]session.LeaderboardEntry, error) {
	ids, err := s.client.SMembers(ctx, s.winnersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	if len(ids) == 0 {
		return []session.LeaderboardEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", err)
	}

	won := make([]*session.Session, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		sess, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		won = append(won, sess)
	}
	return session.RankWinners(won, limit), nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*session.Session, error) {
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Choices == nil {
		sess.Choices = []session.ChoiceRecord{}
	}
	return &sess, nil
}
