package engine

import (
	"fmt"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

const storageThreshold = 85.0

// GenerateRecommendations maps anomalies, forecast, and raw features onto
// prioritized remediation actions. Rules run in a fixed order and are not
// mutually exclusive; when nothing matches a maintain_baseline fallback is
// emitted, so the result is never empty.
func GenerateRecommendations(features models.FeatureVector, anomalies []models.Anomaly, forecast models.ForecastResult) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 4)

	if hasAnomaly(anomalies, models.AnomalyCPUSpike) {
		recs = append(recs, models.Recommendation{
			Type:       "scale_deployment",
			Priority:   models.PriorityHigh,
			Target:     "deployment/api",
			Reason:     "CPU anomaly indicates sustained pressure",
			Confidence: 0.88,
			Impact:     "Reduces throttling and latency",
		})
	}

	if hasAnomaly(anomalies, models.AnomalyMemoryPressure) {
		recs = append(recs, models.Recommendation{
			Type:       "tune_memory_limits",
			Priority:   models.PriorityHigh,
			Target:     "deployment/api",
			Reason:     "Memory exceeded safe operating threshold",
			Confidence: 0.9,
			Impact:     "Prevents OOM kills",
		})
	}

	if forecast.RiskLevel == models.RiskHigh {
		recs = append(recs, models.Recommendation{
			Type:       "proactive_scaling",
			Priority:   models.PriorityHigh,
			Target:     "deployment/api",
			Reason:     fmt.Sprintf("Forecast peak at %v%%", forecast.PredictedPeak),
			Confidence: 0.87,
			Impact:     "Prevents SLA breach during predicted peak",
		})
	}

	if features.StorageUsage > storageThreshold {
		recs = append(recs, models.Recommendation{
			Type:       "storage_optimization",
			Priority:   models.PriorityMedium,
			Target:     "namespace/logging",
			Reason:     "Storage usage is above 85%",
			Confidence: 0.84,
			Impact:     "Avoids storage saturation",
		})
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Type:       "maintain_baseline",
			Priority:   models.PriorityLow,
			Target:     "cluster/all",
			Reason:     "No critical risk detected",
			Confidence: 0.8,
			Impact:     "Keeps cluster stable while monitoring",
		})
	}

	return recs
}

func hasAnomaly(anomalies []models.Anomaly, typ models.AnomalyType) bool {
	for _, anomaly := range anomalies {
		if anomaly.Type == typ {
			return true
		}
	}
	return false
}
