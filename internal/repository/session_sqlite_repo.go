package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSessionRepository stores portal session keys in an embedded SQLite
// database. Timestamps are unix nanoseconds.
type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db, now: time.Now}
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM portal_sessions WHERE session_id = ? AND key = ?`,
		sessionID, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session key: %w", err)
	}
	return value, true, nil
}

func (r *SQLiteSessionRepository) Put(ctx context.Context, sessionID string, entries map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now().UTC().UnixNano()
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portal_sessions (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			sessionID, key, value, now); err != nil {
			return fmt.Errorf("write session key %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE portal_sessions SET updated_at = ? WHERE session_id = ?`, now, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session write: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM portal_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Touch(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE portal_sessions SET updated_at = ? WHERE session_id = ?`,
		r.now().UTC().UnixNano(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// PurgeIdle reports the number of sessions removed, not rows.
func (r *SQLiteSessionRepository) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const idle = `SELECT session_id FROM portal_sessions GROUP BY session_id HAVING max(updated_at) < ?`
	cutoff := before.UTC().UnixNano()

	var purged int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM (`+idle+`)`, cutoff).Scan(&purged); err != nil {
		return 0, fmt.Errorf("count idle sessions: %w", err)
	}
	if purged == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM portal_sessions WHERE session_id IN (`+idle+`)`, cutoff); err != nil {
		return 0, fmt.Errorf("purge idle sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return purged, nil
}
