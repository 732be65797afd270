package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/TreasureLand/internal/session"
)

func (c *Client) Create(ctx context.Context, sess *session.Session) error {
	choices, err := marshalChoices(sess.Choices)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO game_sessions (session_id, user_id, current_step, choices_made, won, game_over, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.CurrentNode, choices, sess.Won, sess.GameOver, sess.CreatedAt, sess.UpdatedAt)
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

func (c *Client) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT session_id, user_id, current_step, choices_made, won, game_over, created_at, updated_at
		FROM game_sessions
		WHERE session_id = $1
	`
	var (
		sess    session.Session
		choices []byte
	)
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.UserID, &sess.CurrentNode, &choices, &sess.Won, &sess.GameOver, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.Choices = []session.ChoiceRecord{}
	if len(choices) > 0 {
		if err := json.Unmarshal(choices, &sess.Choices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
		}
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.UpdatedAt = sess.UpdatedAt.UTC()
	return &sess, nil
}

func (c *Client) Save(ctx context.Context, sess *session.Session) error {
	choices, err := marshalChoices(sess.Choices)
	if err != nil {
		return err
	}

	query := `
		UPDATE game_sessions
		SET current_step = $2, choices_made = $3, won = $4, game_over = $5, updated_at = $6
		WHERE session_id = $1 AND NOT game_over
	`
	res, err := c.db.ExecContext(ctx, query,
		sess.ID, sess.CurrentNode, choices, sess.Won, sess.GameOver, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return c.missedUpdate(ctx, sess.ID)
	}
	return nil
}

// missedUpdate tells a missing session apart from a finished one after a
// guarded UPDATE affected no rows.
func (c *Client) missedUpdate(ctx context.Context, id string) error {
	var over bool
	err := c.db.QueryRowContext(ctx, `SELECT game_over FROM game_sessions WHERE session_id = $1`, id).Scan(&over)
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

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]session.LeaderboardEntry, error) {
	query := `
		SELECT user_id, COUNT(*) AS wins, MAX(updated_at) AS last_win
		FROM game_sessions
		WHERE won
		GROUP BY user_id
		ORDER BY wins DESC, last_win DESC, user_id ASC
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []session.LeaderboardEntry{}
	for rows.Next() {
		var e session.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Wins, &e.LastWin); err != nil {
			return nil, err
		}
		e.LastWin = e.LastWin.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalChoices(choices []session.ChoiceRecord) (string, error) {
	if choices == nil {
		choices = []session.ChoiceRecord{}
	}
	b, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("failed to marshal choices: %w", err)
	}
	return string(b), nil
}
