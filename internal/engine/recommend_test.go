package engine

import (
	"testing"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

func recTypes(recs []models.Recommendation) map[string]models.Recommendation {
	out := make(map[string]models.Recommendation, len(recs))
	for _, rec := range recs {
		out[rec.Type] = rec
	}
	return out
}

func TestRecommendationsNeverEmpty(t *testing.T) {
	recs := GenerateRecommendations(vec(40, 40, 20), nil, models.ForecastResult{RiskLevel: models.RiskLow})
	if len(recs) != 1 {
		t.Fatalf("expected fallback only, got %d", len(recs))
	}
	if recs[0].Type != "maintain_baseline" || recs[0].Priority != models.PriorityLow {
		t.Fatalf("unexpected fallback: %+v", recs[0])
	}
}

func TestRecommendationsCPUSpike(t *testing.T) {
	anomalies := []models.Anomaly{{Type: models.AnomalyCPUSpike, Severity: models.SeverityHigh}}
	recs := recTypes(GenerateRecommendations(vec(90, 50, 20), anomalies, models.ForecastResult{RiskLevel: models.RiskLow}))

	rec, ok := recs["scale_deployment"]
	if !ok {
		t.Fatalf("expected scale_deployment, got %v", recs)
	}
	if rec.Priority != models.PriorityHigh || rec.Confidence != 0.88 {
		t.Fatalf("unexpected scale_deployment: %+v", rec)
	}
	if _, ok := recs["maintain_baseline"]; ok {
		t.Fatalf("fallback should not appear alongside matches")
	}
}

func TestRecommendationsMemoryPressure(t *testing.T) {
	anomalies := []models.Anomaly{{Type: models.AnomalyMemoryPressure, Severity: models.SeverityHigh}}
	recs := recTypes(GenerateRecommendations(vec(50, 92, 20), anomalies, models.ForecastResult{}))
	if rec, ok := recs["tune_memory_limits"]; !ok || rec.Confidence != 0.9 {
		t.Fatalf("expected tune_memory_limits at 0.9, got %v", recs)
	}
}

func TestRecommendationsForecastAndStorage(t *testing.T) {
	forecast := models.ForecastResult{RiskLevel: models.RiskHigh, PredictedPeak: 93}
	features := models.FeatureVector{CPUUsage: 60, MemoryUsage: 60, StorageUsage: 88, NetworkIO: 20}
	recs := recTypes(GenerateRecommendations(features, nil, forecast))

	if _, ok := recs["proactive_scaling"]; !ok {
		t.Fatalf("expected proactive_scaling for high forecast risk, got %v", recs)
	}
	if rec, ok := recs["storage_optimization"]; !ok || rec.Priority != models.PriorityMedium {
		t.Fatalf("expected medium storage_optimization, got %v", recs)
	}
}
