package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fpc-portal/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	var payloadJSON []byte
	if len(entry.Payload) > 0 {
		data, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		payloadJSON = data
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (event_id, action, occurred_at, actor_email, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.EventID, entry.Action, entry.OccurredAt, entry.ActorEmail, payloadJSON)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries matching query, newest first.
func (r *AuditRepository) Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error) {
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if action := strings.TrimSpace(query.Action); action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, action)
		argIdx++
	}
	if actor := strings.TrimSpace(query.ActorEmail); actor != "" {
		where = append(where, fmt.Sprintf("lower(actor_email) = lower($%d)", argIdx))
		args = append(args, actor)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	dataQuery := fmt.Sprintf(
		`SELECT event_id, action, occurred_at, actor_email, payload
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC
		 LIMIT $%d`, whereClause, argIdx)
	args = append(args, query.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		var occurredAt time.Time
		var payloadJSON []byte

		if err := rows.Scan(&e.EventID, &e.Action, &occurredAt, &e.ActorEmail, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = occurredAt.UTC()

		if len(payloadJSON) > 0 {
			var payload map[string]any
			if jsonErr := json.Unmarshal(payloadJSON, &payload); jsonErr == nil {
				e.Payload = payload
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
