// Package sqlite persists sessions in an embedded SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AaronLay10/TreasureLand/internal/session"
)

// Store provides SQLite-backed session persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.createTable(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return store, nil
}

func (s *Store) createTable() error {
	_, err := s.sqlDB.Exec(`
CREATE TABLE IF NOT EXISTS game_sessions (
	session_id   TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	current_step TEXT NOT NULL,
	choices_made TEXT NOT NULL DEFAULT '[]',
	won          INTEGER NOT NULL DEFAULT 0,
	game_over    INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_sessions_won_user ON game_sessions(won, user_id);
`)
	return err
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	choices, err := encodeChoices(sess.Choices)
	if err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO game_sessions (
	session_id,
	user_id,
	current_step,
	choices_made,
	won,
	game_over,
	created_at,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO NOTHING
`,
		sess.ID,
		sess.UserID,
		sess.CurrentNode,
		choices,
		sess.Won,
		sess.GameOver,
		sess.CreatedAt.UTC().UnixNano(),
		sess.UpdatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if n == 0 {
		return session.ErrDuplicate
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT session_id, user_id, current_step, choices_made, won, game_over, created_at, updated_at
FROM game_sessions
WHERE session_id = ?
`, id)

	var (
		sess               session.Session
		choices            string
		createdAt, updated int64
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.CurrentNode, &choices, &sess.Won, &sess.GameOver, &createdAt, &updated)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Choices, err = decodeChoices([]byte(choices)); err != nil {
		return nil, err
	}
	sess.CreatedAt = time.Unix(0, createdAt).UTC()
	sess.UpdatedAt = time.Unix(0, updated).UTC()
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	choices, err := encodeChoices(sess.Choices)
	if err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE game_sessions
SET current_step = ?, choices_made = ?, won = ?, game_over = ?, updated_at = ?
WHERE session_id = ? AND game_over = 0
`,
		sess.CurrentNode,
		choices,
		sess.Won,
		sess.GameOver,
		sess.UpdatedAt.UTC().UnixNano(),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return s.missedUpdate(ctx, sess.ID)
	}
	return nil
}

// missedUpdate explains why a guarded UPDATE touched no row.
func (s *Store) missedUpdate(ctx context.Context, id string) error {
	var over bool
	err := s.sqlDB.QueryRowContext(ctx, `SELECT game_over FROM game_sessions WHERE session_id = ?`, id).Scan(&over)
	if err == sql.ErrNoRows {
		return session.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if over {
		return session.ErrAlreadyOver
	}
	return fmt.Errorf("update session %s: no row updated", id)
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]session.LeaderboardEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT user_id, COUNT(*) AS wins, MAX(updated_at) AS last_win
FROM game_sessions
WHERE won = 1
GROUP BY user_id
ORDER BY wins DESC, last_win DESC, user_id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []session.LeaderboardEntry{}
	for rows.Next() {
		var (
			e       session.LeaderboardEntry
			lastWin int64
		)
		if err := rows.Scan(&e.UserID, &e.Wins, &lastWin); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.LastWin = time.Unix(0, lastWin).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func encodeChoices(choices []session.ChoiceRecord) (string, error) {
	if choices == nil {
		choices = []session.ChoiceRecord{}
	}
	b, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("failed to marshal choices: %w", err)
	}
	return string(b), nil
}

func decodeChoices(data []byte) ([]session.ChoiceRecord, error) {
	choices := []session.ChoiceRecord{}
	if len(data) == 0 {
		return choices, nil
	}
	if err := json.Unmarshal(data, &choices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
	}
	return choices, nil
}
