package patterns

import (
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

func TestMinerEmptyInput(t *testing.T) {
	miner := NewMiner(nil)
	if got := miner.Mine(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestMinerAggregatesByType(t *testing.T) {
	miner := NewMiner(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	alerts := []models.Alert{
		{Type: "cpu_spike", UpdatedAt: now, Entity: map[string]string{"cluster": "c1"}, Meta: map[string]any{"occurrences": 3}},
		{Type: "cpu_spike", UpdatedAt: now.Add(time.Hour), Entity: map[string]string{"cluster": "c2"}, Meta: map[string]any{"occurrences": 2}},
		{Type: "sla_risk", UpdatedAt: now, Entity: map[string]string{"cluster": "c1"}, Meta: map[string]any{"occurrences": 1}},
	}

	mined := miner.Mine(alerts)
	if len(mined) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(mined))
	}

	top := mined[0]
	if top.Type != "cpu_spike" {
		t.Fatalf("expected cpu_spike first by prevalence, got %s", top.Type)
	}
	if top.Records != 2 || top.Occurrences != 5 {
		t.Fatalf("unexpected aggregation: records=%d occurrences=%d", top.Records, top.Occurrences)
	}
	if top.Prevalence != 2.0/3.0 {
		t.Fatalf("unexpected prevalence: %v", top.Prevalence)
	}
	if !top.LastSeen.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected latest update carried, got %v", top.LastSeen)
	}
	if len(top.Entities) != 2 || top.Entities[0] != "cluster=c1" || top.Entities[1] != "cluster=c2" {
		t.Fatalf("expected sorted entities, got %v", top.Entities)
	}
	if top.ID != "pattern-cpu_spike" {
		t.Fatalf("unexpected id: %s", top.ID)
	}
}

func TestMinerMissingOccurrencesDefaultsToOne(t *testing.T) {
	miner := NewMiner(nil)
	mined := miner.Mine([]models.Alert{{Type: "forecast_risk"}})
	if len(mined) != 1 || mined[0].Occurrences != 1 {
		t.Fatalf("expected default occurrence count of 1, got %v", mined)
	}
}

func TestMinerTiesBreakByType(t *testing.T) {
	miner := NewMiner(nil)
	mined := miner.Mine([]models.Alert{
		{Type: "b_type"},
		{Type: "a_type"},
	})
	if len(mined) != 2 || mined[0].Type != "a_type" {
		t.Fatalf("equal prevalence should order by type, got %v", mined)
	}
}
