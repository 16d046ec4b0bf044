package demo

import (
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

func fixtureSource() *Source {
	source := NewSource()
	source.SetClock(utils.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	return source
}

func metricsOf(overview map[string]any) map[string]any {
	return overview["cluster_metrics"].(map[string]any)
}

func TestValidScenario(t *testing.T) {
	for _, name := range Scenarios {
		if !ValidScenario(name) {
			t.Fatalf("%s should be valid", name)
		}
	}
	if ValidScenario("none") || ValidScenario("bogus") {
		t.Fatalf("none and unknown names are not applicable scenarios")
	}
}

func TestOverviewBaseline(t *testing.T) {
	overview := fixtureSource().Overview(ScenarioNone)

	if overview["health_score"] != 92 {
		t.Fatalf("expected baseline health 92, got %v", overview["health_score"])
	}
	if metricsOf(overview)["cpu_usage"] != 58.0 {
		t.Fatalf("expected baseline cpu 58, got %v", metricsOf(overview)["cpu_usage"])
	}
	if len(overview["nodes"].([]map[string]any)) != 3 {
		t.Fatalf("expected 3 nodes")
	}
}

func TestOverviewScenarioOverlays(t *testing.T) {
	source := fixtureSource()

	spike := source.Overview(ScenarioCPUSpike)
	if metricsOf(spike)["cpu_usage"] != 95.0 || spike["health_score"] != 65 {
		t.Fatalf("unexpected cpu_spike overlay: %v", spike)
	}
	if len(spike["top_anomalies"].([]map[string]any)) != 1 {
		t.Fatalf("cpu_spike should surface a top anomaly")
	}

	leak := source.Overview(ScenarioMemoryLeak)
	if metricsOf(leak)["memory_usage"] != 88.0 || leak["health_score"] != 70 {
		t.Fatalf("unexpected memory_leak overlay: %v", leak)
	}

	surge := source.Overview(ScenarioLoadSurge)
	if surge["load_forecast_preview"] != 95 || metricsOf(surge)["memory_usage"] != 82.0 {
		t.Fatalf("unexpected load_surge overlay: %v", surge)
	}

	reco := source.Overview(ScenarioHighReco)
	if reco["recommendations"] != 12 || reco["health_score"] != 78 {
		t.Fatalf("unexpected high_reco overlay: %v", reco)
	}
}

func TestCriticalRecommendationsOnlyForHighReco(t *testing.T) {
	source := fixtureSource()

	seeds := source.CriticalRecommendations(ScenarioHighReco)
	if len(seeds) != 3 {
		t.Fatalf("expected 3 injected recommendations, got %d", len(seeds))
	}
	wantTypes := []string{"resource_optimization", "scaling_recommendation", "performance"}
	for i, seed := range seeds {
		if seed.Priority != models.PriorityCritical {
			t.Fatalf("seed %d should be critical, got %s", i, seed.Priority)
		}
		if seed.Type != wantTypes[i] {
			t.Fatalf("seed %d: expected type %s, got %s", i, wantTypes[i], seed.Type)
		}
		if seed.Confidence < 0.89 || seed.Confidence > 0.94 {
			t.Fatalf("seed %d: confidence out of range: %v", i, seed.Confidence)
		}
	}

	for _, scenario := range []string{ScenarioNone, ScenarioCPUSpike, ScenarioMemoryLeak, ScenarioLoadSurge} {
		if got := source.CriticalRecommendations(scenario); got != nil {
			t.Fatalf("%s should inject nothing, got %v", scenario, got)
		}
	}
}

func TestOverviewScenariosDoNotLeakAcrossCalls(t *testing.T) {
	source := fixtureSource()
	source.Overview(ScenarioCPUSpike)
	baseline := source.Overview(ScenarioNone)
	if metricsOf(baseline)["cpu_usage"] != 58.0 {
		t.Fatalf("scenario overlay leaked into baseline: %v", baseline)
	}
	nodes := baseline["nodes"].([]map[string]any)
	if nodes[0]["status"] != "Ready" {
		t.Fatalf("node mutation leaked across calls: %v", nodes[0])
	}
}

func TestHistoryPayloadSlope(t *testing.T) {
	source := fixtureSource()
	overview := source.Overview(ScenarioCPUSpike)

	history := source.HistoryPayload(overview, ScenarioCPUSpike, 6)
	if len(history) != 6 {
		t.Fatalf("expected 6 points, got %d", len(history))
	}

	// Rising scenarios slope by 3 per step toward the current value.
	first := history[0]["cpu_usage"].(float64)
	last := history[len(history)-1]["cpu_usage"].(float64)
	if first != 95.0-3.0*6 {
		t.Fatalf("expected first point %v, got %v", 95.0-3.0*6, first)
	}
	if last != 95.0-3.0 {
		t.Fatalf("expected last point %v, got %v", 95.0-3.0, last)
	}

	for i := 1; i < len(history); i++ {
		prev, _ := time.Parse(time.RFC3339, history[i-1]["timestamp"].(string))
		curr, _ := time.Parse(time.RFC3339, history[i]["timestamp"].(string))
		if curr.Sub(prev) != 5*time.Minute {
			t.Fatalf("expected 5 minute spacing, got %v", curr.Sub(prev))
		}
	}
}

func TestHistoryPayloadBaselineSlopesDown(t *testing.T) {
	source := fixtureSource()
	overview := source.Overview(ScenarioNone)

	history := source.HistoryPayload(overview, ScenarioNone, 6)
	first := history[0]["cpu_usage"].(float64)
	if first <= 58.0 {
		t.Fatalf("baseline slopes downward into now, so older points are higher; got first=%v", first)
	}
	if history[0]["anomaly_count"] != 2 {
		t.Fatalf("expected anomaly count from overview, got %v", history[0]["anomaly_count"])
	}
}

func TestHistoryPayloadClampsAtZero(t *testing.T) {
	source := fixtureSource()
	overview := map[string]any{
		"cluster_metrics":  map[string]any{"cpu_usage": 5.0},
		"active_anomalies": 0,
	}
	history := source.HistoryPayload(overview, ScenarioCPUSpike, 6)
	for _, point := range history {
		if point["cpu_usage"].(float64) < 0 {
			t.Fatalf("cpu must clamp at zero, got %v", point["cpu_usage"])
		}
	}
}
