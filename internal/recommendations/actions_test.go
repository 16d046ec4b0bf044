package recommendations

import (
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/utils"
)

func TestActionStoreSetAndGet(t *testing.T) {
	clock := utils.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewActionStore(clock)

	if _, ok := store.Get("rec-001"); ok {
		t.Fatalf("expected no state before first decision")
	}

	action, _, had := store.Set("rec-001", StatusApplied, "ops@example.com")
	if had {
		t.Fatalf("first decision should have no previous state")
	}
	if action.Status != StatusApplied || action.Actor != "ops@example.com" {
		t.Fatalf("unexpected action: %+v", action)
	}
	if !action.UpdatedAt.Equal(clock()) {
		t.Fatalf("expected clock timestamp, got %v", action.UpdatedAt)
	}

	got, ok := store.Get("rec-001")
	if !ok || got != action {
		t.Fatalf("get mismatch: %+v vs %+v", got, action)
	}
}

func TestActionStoreOverwritesPreviousDecision(t *testing.T) {
	store := NewActionStore(utils.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	store.Set("rec-001", StatusApplied, "ops@example.com")
	action, previous, had := store.Set("rec-001", StatusDismissed, "admin@example.com")
	if !had || previous.Status != StatusApplied {
		t.Fatalf("expected previous applied state, got %+v (had=%v)", previous, had)
	}
	if action.Status != StatusDismissed || action.Actor != "admin@example.com" {
		t.Fatalf("unexpected overwrite: %+v", action)
	}
}

func TestActionStoreAllSortsByID(t *testing.T) {
	store := NewActionStore(nil)

	store.Set("rec-003", StatusSnoozed, "ops@example.com")
	store.Set("rec-001", StatusApplied, "ops@example.com")
	store.Set("rec-002", StatusDismissed, "ops@example.com")

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(all))
	}
	for i, want := range []string{"rec-001", "rec-002", "rec-003"} {
		if all[i].RecommendationID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, all[i].RecommendationID)
		}
	}
}
