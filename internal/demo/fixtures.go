// Package demo provides deterministic cluster fixtures used when the engine
// runs without a live Prometheus backend.
package demo

import (
	"fmt"
	"math"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// Scenario names the simulated cluster conditions supported by the demo source.
const (
	ScenarioNone       = "none"
	ScenarioCPUSpike   = "cpu_spike"
	ScenarioMemoryLeak = "memory_leak"
	ScenarioLoadSurge  = "load_surge"
	ScenarioHighReco   = "high_reco"
)

// Scenarios lists the scenarios that may be applied through the simulate API.
var Scenarios = []string{ScenarioCPUSpike, ScenarioMemoryLeak, ScenarioLoadSurge, ScenarioHighReco}

// ValidScenario reports whether name is an applicable scenario.
func ValidScenario(name string) bool {
	for _, s := range Scenarios {
		if s == name {
			return true
		}
	}
	return false
}

// Source produces fixture snapshots shaped like live cluster overviews, with
// the active scenario overlaid on a healthy baseline.
type Source struct {
	now utils.NowFunc
}

// NewSource builds a fixture source using the system clock.
func NewSource() *Source {
	return &Source{now: utils.SystemClock}
}

// SetClock overrides the time source, used by tests.
func (s *Source) SetClock(now utils.NowFunc) {
	if now != nil {
		s.now = now
	}
}

// Overview returns the demo cluster overview for the given scenario.
func (s *Source) Overview(scenario string) map[string]any {
	now := s.now()

	overview := map[string]any{
		"health_score":          92,
		"active_anomalies":      2,
		"recommendations":       5,
		"load_forecast_preview": 68,
		"cluster_metrics": map[string]any{
			"cpu_usage":     58.0,
			"memory_usage":  72.0,
			"storage_usage": 45.0,
			"network_io":    34.0,
		},
		"nodes": []map[string]any{
			{"name": "node-1", "status": "Ready", "cpu": "45%", "memory": "62%", "pods": 24},
			{"name": "node-2", "status": "Ready", "cpu": "52%", "memory": "68%", "pods": 28},
			{"name": "node-3", "status": "Ready", "cpu": "38%", "memory": "55%", "pods": 19},
		},
		"top_anomalies": []map[string]any{},
	}
	metrics := overview["cluster_metrics"].(map[string]any)
	nodes := overview["nodes"].([]map[string]any)

	switch scenario {
	case ScenarioCPUSpike:
		overview["health_score"] = 65
		overview["active_anomalies"] = 1
		metrics["cpu_usage"] = 95.0
		nodes[0]["cpu"] = "98%"
		nodes[0]["status"] = "Warning"
		overview["top_anomalies"] = []map[string]any{
			{
				"id":          "anom-cpu-001",
				"type":        "high_cpu",
				"namespace":   "production",
				"pod":         "web-server-abc123",
				"severity":    "critical",
				"detected_at": now.Add(-5 * time.Minute).Format(time.RFC3339),
				"status":      "active",
				"baseline":    45.0,
				"current":     98.0,
			},
		}
	case ScenarioMemoryLeak:
		overview["health_score"] = 70
		overview["active_anomalies"] = 1
		metrics["memory_usage"] = 88.0
		nodes[1]["memory"] = "92%"
		nodes[1]["status"] = "Warning"
		overview["top_anomalies"] = []map[string]any{
			{
				"id":          "anom-mem-001",
				"type":        "memory_leak",
				"namespace":   "production",
				"pod":         "api-backend-xyz789",
				"severity":    "critical",
				"detected_at": now.Add(-15 * time.Minute).Format(time.RFC3339),
				"status":      "active",
				"baseline":    65.0,
				"current":     92.0,
			},
		}
	case ScenarioLoadSurge:
		overview["load_forecast_preview"] = 95
		overview["recommendations"] = 8
		metrics["cpu_usage"] = 75.0
		metrics["memory_usage"] = 82.0
	case ScenarioHighReco:
		overview["recommendations"] = 12
		overview["health_score"] = 78
	}

	overview["timestamp"] = now.UTC().Format(time.RFC3339)
	return overview
}

// HistoryPayload builds a deterministic sloped history leading up to the
// overview's current metrics, spaced five minutes apart. Rising scenarios
// slope CPU upward so the forecaster sees the trend the fixture implies.
func (s *Source) HistoryPayload(overview map[string]any, scenario string, points int) []map[string]any {
	if points <= 0 {
		points = 6
	}

	metrics, _ := overview["cluster_metrics"].(map[string]any)
	cpuNow := floatField(metrics, "cpu_usage")
	memNow := floatField(metrics, "memory_usage")
	storageNow := floatField(metrics, "storage_usage")
	networkNow := floatField(metrics, "network_io")
	anomalies := intField(overview, "active_anomalies")

	var cpuStep float64
	switch scenario {
	case ScenarioCPUSpike, ScenarioLoadSurge:
		cpuStep = 3.0
	case ScenarioMemoryLeak:
		cpuStep = 1.0
	default:
		cpuStep = -0.8
	}

	now := s.now()
	history := make([]map[string]any, 0, points)
	for i := 0; i < points; i++ {
		offset := points - i
		cpuValue := math.Min(100, math.Max(0, cpuNow-cpuStep*float64(offset)))
		history = append(history, map[string]any{
			"timestamp":     now.Add(-time.Duration(5*offset) * time.Minute).Format(time.RFC3339),
			"cpu_usage":     round2(cpuValue),
			"memory_usage":  round2(memNow),
			"storage_usage": round2(storageNow),
			"network_io":    round2(networkNow),
			"anomaly_count": anomalies,
		})
	}
	return history
}

// CriticalRecommendations returns the capacity recommendations a scenario
// injects ahead of the rule-generated set. Only high_reco injects any; they
// carry critical priority so the risk scorer and alert engine see them.
func (s *Source) CriticalRecommendations(scenario string) []models.Recommendation {
	if scenario != ScenarioHighReco {
		return nil
	}
	return []models.Recommendation{
		{
			Type:       "resource_optimization",
			Priority:   models.PriorityCritical,
			Target:     "production/api-backend",
			Reason:     "Predicted load surge requires additional capacity",
			Confidence: 0.94,
			Impact:     "Increase replica count from 3 to 5",
		},
		{
			Type:       "scaling_recommendation",
			Priority:   models.PriorityCritical,
			Target:     "production/frontend-web",
			Reason:     "Current capacity insufficient for forecasted traffic",
			Confidence: 0.91,
			Impact:     "Enable autoscaling immediately (min=3, max=8)",
		},
		{
			Type:       "performance",
			Priority:   models.PriorityCritical,
			Target:     "production/database-primary",
			Reason:     "Database connection pool nearing capacity",
			Confidence: 0.89,
			Impact:     "Add read replicas to distribute query load",
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatField(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return 0
}

func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
