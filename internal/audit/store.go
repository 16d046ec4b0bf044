package audit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// RoleAdmin sees every audit event; other roles only their own.
const RoleAdmin = "admin"

const (
	defaultMaxEvents = 2000
	maxListLimit     = 500
)

// Actor identifies who is reading the audit trail.
type Actor struct {
	Email string
	Role  string
}

// Store is the bounded append-only audit log. Oldest events are trimmed once
// the configured capacity is exceeded.
type Store struct {
	mu       sync.Mutex
	maxSize  int
	events   []models.AuditEvent
	sequence int
	now      utils.NowFunc
}

// NewStore constructs an audit store holding up to maxSize events.
func NewStore(maxSize int, now utils.NowFunc) *Store {
	if maxSize <= 0 {
		maxSize = defaultMaxEvents
	}
	if now == nil {
		now = utils.SystemClock
	}
	return &Store{maxSize: maxSize, now: now}
}

// Append records the event, assigning an id and timestamp when absent.
func (s *Store) Append(event models.AuditEvent) models.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		s.sequence++
		event.ID = fmt.Sprintf("audit-%08d", s.sequence)
	}
	if event.TS.IsZero() {
		event.TS = s.now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	s.events = append(s.events, event)
	if overflow := len(s.events) - s.maxSize; overflow > 0 {
		s.events = append(s.events[:0:0], s.events[overflow:]...)
	}
	return event
}

// List returns events visible to the actor, newest first. Non-admin actors
// only see their own events. The cursor is the id of the last event already
// seen; the returned cursor is empty once the listing is exhausted.
func (s *Store) List(actor Actor, limit int, cursor string) ([]models.AuditEvent, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := make([]models.AuditEvent, 0, len(s.events))
	for _, event := range s.events {
		if actor.Role != RoleAdmin && event.ActorEmail != actor.Email {
			continue
		}
		visible = append(visible, event)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].TS.After(visible[j].TS)
	})

	start := 0
	if cursor != "" {
		for idx, event := range visible {
			if event.ID == cursor {
				start = idx + 1
				break
			}
		}
	}

	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	end := start + limit
	if end > len(visible) {
		end = len(visible)
	}
	if start > len(visible) {
		start = len(visible)
	}
	page := append([]models.AuditEvent(nil), visible[start:end]...)

	next := ""
	if len(page) > 0 && end < len(visible) {
		next = page[len(page)-1].ID
	}
	return page, next
}

// Clear drops all events. Intended for tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
