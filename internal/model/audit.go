package model

import "time"

// AuditEntry is one recorded portal event.
type AuditEntry struct {
	EventID    string         `json:"event_id"`
	Action     string         `json:"action"`
	OccurredAt time.Time      `json:"occurred_at"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type AuditQuery struct {
	Action     string
	ActorEmail string
	Limit      int
}
