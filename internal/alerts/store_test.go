package alerts

import (
	"errors"
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

func newAlert(fingerprint, message string) models.Alert {
	return models.Alert{
		Type:        "cpu_spike",
		Severity:    models.AlertSeverityCritical,
		Status:      models.AlertActive,
		Title:       "Anomaly detected: cpu_spike",
		Message:     message,
		Source:      "ai",
		Fingerprint: fingerprint,
		Entity:      map[string]string{"cluster": "test"},
	}
}

func TestStoreUpsertAssignsSequentialIDs(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)

	first := store.Upsert(newAlert("fp-1", "one"))
	second := store.Upsert(newAlert("fp-2", "two"))

	if first.ID != "alert-000001" || second.ID != "alert-000002" {
		t.Fatalf("unexpected ids: %s, %s", first.ID, second.ID)
	}
	if got, ok := first.Meta["occurrences"].(int); !ok || got != 1 {
		t.Fatalf("expected occurrences 1, got %v", first.Meta["occurrences"])
	}
}

func TestStoreUpsertMergesByFingerprint(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewStore(func() time.Time { return current }, time.Minute)

	first := store.Upsert(newAlert("fp-1", "initial"))

	current = base.Add(30 * time.Second)
	merged := store.Upsert(newAlert("fp-1", "repeat"))

	if merged.ID != first.ID {
		t.Fatalf("merge should keep id %s, got %s", first.ID, merged.ID)
	}
	if got := merged.Meta["occurrences"].(int); got != 2 {
		t.Fatalf("expected occurrences 2, got %d", got)
	}
	if merged.Message != "repeat" {
		t.Fatalf("expected refreshed message, got %s", merged.Message)
	}
	if !merged.UpdatedAt.Equal(current) {
		t.Fatalf("expected refreshed updated_at, got %v", merged.UpdatedAt)
	}
	if !merged.CreatedAt.Equal(base) {
		t.Fatalf("created_at must not change on merge, got %v", merged.CreatedAt)
	}
	if got := store.List(""); len(got) != 1 {
		t.Fatalf("expected a single record, got %d", len(got))
	}
}

func TestStoreUpsertMergesBeyondDedupeWindow(t *testing.T) {
	// The window is carried as configuration but does not gate merging: a
	// repeat fingerprint folds into the existing record no matter how much
	// time has passed.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewStore(func() time.Time { return current }, time.Minute)

	first := store.Upsert(newAlert("fp-1", "initial"))

	current = base.Add(3 * time.Hour)
	merged := store.Upsert(newAlert("fp-1", "much later"))

	if merged.ID != first.ID {
		t.Fatalf("expected merge into %s even outside the window, got %s", first.ID, merged.ID)
	}
	if got := merged.Meta["occurrences"].(int); got != 2 {
		t.Fatalf("expected occurrences 2, got %d", got)
	}
	if store.DedupeWindow() != time.Minute {
		t.Fatalf("expected configured window to be reported, got %v", store.DedupeWindow())
	}
}

func TestStoreListSortsAndFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewStore(func() time.Time { return current }, time.Minute)

	store.Upsert(newAlert("fp-1", "one"))
	current = base.Add(time.Minute)
	second := store.Upsert(newAlert("fp-2", "two"))

	list := store.List("")
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %v", list)
	}

	if _, err := store.Acknowledge(second.ID, "ops@example.com"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	active := store.List(models.AlertActive)
	if len(active) != 1 || active[0].Fingerprint != "fp-1" {
		t.Fatalf("expected one active alert, got %v", active)
	}
	acked := store.List(models.AlertAcknowledged)
	if len(acked) != 1 || acked[0].ID != second.ID {
		t.Fatalf("expected one acknowledged alert, got %v", acked)
	}
}

func TestStoreTransitionsStampActor(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)
	created := store.Upsert(newAlert("fp-1", "one"))

	acked, err := store.Acknowledge(created.ID, "ops@example.com")
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if acked.Status != models.AlertAcknowledged || acked.Meta["ack_by"] != "ops@example.com" {
		t.Fatalf("unexpected ack result: %+v", acked)
	}

	resolved, err := store.Resolve(created.ID, "admin@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != models.AlertResolved || resolved.Meta["resolved_by"] != "admin@example.com" {
		t.Fatalf("unexpected resolve result: %+v", resolved)
	}
}

func TestStoreTransitionUnknownID(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)
	if _, err := store.Acknowledge("alert-999999", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Resolve("alert-999999", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get("alert-999999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreClearAllKeepsSequence(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)
	store.Upsert(newAlert("fp-1", "one"))
	store.Upsert(newAlert("fp-2", "two"))

	if removed := store.ClearAll(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if got := store.List(""); len(got) != 0 {
		t.Fatalf("expected empty store, got %v", got)
	}

	// Ids keep counting after a clear; a repeat fingerprint is a new record.
	next := store.Upsert(newAlert("fp-1", "again"))
	if next.ID != "alert-000003" {
		t.Fatalf("expected alert-000003 after clear, got %s", next.ID)
	}
}

func TestStoreSummary(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)
	store.Upsert(newAlert("fp-1", "one"))

	warning := newAlert("fp-2", "two")
	warning.Severity = models.AlertSeverityWarning
	store.Upsert(warning)

	resolved := store.List("")[0]
	if _, err := store.Resolve(resolved.ID, "x"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	active, critical := store.Summary()
	if active != 1 {
		t.Fatalf("expected 1 active, got %d", active)
	}
	if critical > active {
		t.Fatalf("critical cannot exceed active: %d > %d", critical, active)
	}
}

func TestStoreClonesDoNotAlias(t *testing.T) {
	store := NewStore(utils.FixedClock(time.Now()), time.Minute)
	created := store.Upsert(newAlert("fp-1", "one"))

	created.Meta["occurrences"] = 99
	created.Entity["cluster"] = "tampered"

	fresh, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.Meta["occurrences"].(int) != 1 {
		t.Fatalf("store state mutated through returned copy")
	}
	if fresh.Entity["cluster"] != "test" {
		t.Fatalf("entity mutated through returned copy")
	}
}
