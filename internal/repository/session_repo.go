package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository stores portal session keys in PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM portal_sessions WHERE session_id = $1 AND key = $2`,
		sessionID, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session key: %w", err)
	}
	return value, true, nil
}

func (r *SessionRepository) Put(ctx context.Context, sessionID string, entries map[string]string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for key, value := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO portal_sessions (session_id, key, value, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			sessionID, key, value, now); err != nil {
			return fmt.Errorf("write session key %s: %w", key, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE portal_sessions SET updated_at = $2 WHERE session_id = $1`, sessionID, now); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit session write: %w", err)
	}
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM portal_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE portal_sessions SET updated_at = now() WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// PurgeIdle reports the number of sessions removed, not rows.
func (r *SessionRepository) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := r.pool.QueryRow(ctx, `
		WITH gone AS (
			DELETE FROM portal_sessions
			WHERE session_id IN (
				SELECT session_id FROM portal_sessions
				GROUP BY session_id
				HAVING max(updated_at) < $1
			)
			RETURNING session_id
		)
		SELECT count(DISTINCT session_id) FROM gone`, before.UTC()).Scan(&purged)
	if err != nil {
		return 0, fmt.Errorf("purge idle sessions: %w", err)
	}
	return purged, nil
}
