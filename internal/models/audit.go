package models

import "time"

// AuditEvent is one append-only record of an actor-initiated action.
type AuditEvent struct {
	ID         string         `json:"id"`
	TS         time.Time      `json:"ts"`
	ActorEmail string         `json:"actor_email"`
	ActorRole  string         `json:"actor_role"`
	Action     string         `json:"action"`
	TargetID   string         `json:"target_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
