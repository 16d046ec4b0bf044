package alerts

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// ErrNotFound signals an unknown alert id.
var ErrNotFound = errors.New("alert not found")

// Store is the in-memory alert lifecycle store. It owns every alert record
// and the fingerprint index; a single mutex serializes mutation and read
// sequences so sequential ids and the index stay consistent under concurrent
// upserts.
type Store struct {
	mu            sync.Mutex
	now           utils.NowFunc
	dedupeWindow  time.Duration
	alerts        map[string]*models.Alert
	byFingerprint map[string]string
	sequence      int
}

// NewStore constructs an empty store reading time from the supplied clock.
func NewStore(now utils.NowFunc, dedupeWindow time.Duration) *Store {
	if now == nil {
		now = utils.SystemClock
	}
	if dedupeWindow <= 0 {
		dedupeWindow = 10 * time.Minute
	}
	return &Store{
		now:           now,
		dedupeWindow:  dedupeWindow,
		alerts:        make(map[string]*models.Alert),
		byFingerprint: make(map[string]string),
	}
}

// Upsert stores the alert or folds it into the existing record sharing its
// fingerprint. A repeat fingerprint always merges, however long ago the
// record was last touched: the configured dedupe window does not currently
// gate the merge (lookup is purely fingerprint -> id). The merge increments
// the occurrence counter and refreshes message, meta, and updated_at; only
// the first upsert for a fingerprint allocates an id.
func (s *Store) Upsert(alert models.Alert) models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existingID, ok := s.byFingerprint[alert.Fingerprint]; ok {
		if existing, ok := s.alerts[existingID]; ok {
			meta := cloneMeta(existing.Meta)
			meta["occurrences"] = occurrences(meta) + 1
			meta["last_message"] = alert.Message
			existing.Message = alert.Message
			existing.UpdatedAt = now
			existing.Meta = meta
			return existing.Clone()
		}
	}

	record := alert.Clone()
	record.ID = s.nextID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}
	meta := cloneMeta(record.Meta)
	if _, ok := meta["occurrences"]; !ok {
		meta["occurrences"] = 1
	}
	record.Meta = meta

	s.alerts[record.ID] = &record
	s.byFingerprint[record.Fingerprint] = record.ID
	return record.Clone()
}

// List returns alerts sorted by updated_at descending, optionally filtered
// by status ("" returns all).
func (s *Store) List(status models.AlertStatus) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if status != "" && alert.Status != status {
			continue
		}
		out = append(out, alert.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Get returns the alert by id or ErrNotFound.
func (s *Store) Get(id string) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return alert.Clone(), nil
}

// Acknowledge transitions the alert to acknowledged and stamps the actor.
func (s *Store) Acknowledge(id, actor string) (models.Alert, error) {
	return s.transition(id, models.AlertAcknowledged, "ack_by", actor)
}

// Resolve transitions the alert to resolved and stamps the actor.
func (s *Store) Resolve(id, actor string) (models.Alert, error) {
	return s.transition(id, models.AlertResolved, "resolved_by", actor)
}

func (s *Store) transition(id string, status models.AlertStatus, metaKey, actor string) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	alert.Status = status
	alert.UpdatedAt = s.now()
	meta := cloneMeta(alert.Meta)
	meta[metaKey] = actor
	alert.Meta = meta
	return alert.Clone(), nil
}

// ClearAll empties the store and fingerprint index, returning the number of
// records removed. The id sequence keeps counting.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.alerts)
	s.alerts = make(map[string]*models.Alert)
	s.byFingerprint = make(map[string]string)
	return count
}

// Summary counts active alerts and how many of those are critical.
func (s *Store) Summary() (active, critical int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range s.alerts {
		if alert.Status != models.AlertActive {
			continue
		}
		active++
		if alert.Severity == models.AlertSeverityCritical {
			critical++
		}
	}
	return active, critical
}

// DedupeWindow reports the configured window. It is carried for
// observability even though Upsert merges unconditionally.
func (s *Store) DedupeWindow() time.Duration {
	return s.dedupeWindow
}

func (s *Store) nextID() string {
	s.sequence++
	return fmt.Sprintf("alert-%06d", s.sequence)
}

func cloneMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func occurrences(meta map[string]any) int {
	switch v := meta["occurrences"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 1
	}
}
