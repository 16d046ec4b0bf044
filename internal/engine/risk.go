package engine

import (
	"fmt"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

const (
	riskDefaultTTI = 60
	riskTTICap     = 120
)

// ComputeSLARisk combines features, anomalies, forecast, and recommendations
// into a weighted 0-100 SLA risk estimate with its driver list.
func ComputeSLARisk(features models.FeatureVector, anomalies []models.Anomaly, forecast models.ForecastResult, recommendations []models.Recommendation) models.SLARisk {
	drivers := make([]string, 0, 6)

	anomalySeverityScore := 0
	for _, anomaly := range anomalies {
		switch anomaly.Severity {
		case models.SeverityCritical:
			anomalySeverityScore += 25
			drivers = append(drivers, fmt.Sprintf("Critical anomaly active: %s", anomaly.Type))
		case models.SeverityHigh:
			anomalySeverityScore += 15
			drivers = append(drivers, fmt.Sprintf("High anomaly active: %s", anomaly.Type))
		case models.SeverityWarning:
			anomalySeverityScore += 8
		}
	}

	score := int(features.CPUUsage*0.20) + int(features.MemoryUsage*0.18) + int(features.StorageUsage*0.08)
	score += anomalySeverityScore

	switch forecast.RiskLevel {
	case models.RiskHigh:
		score += 20
		drivers = append(drivers, "CPU forecast peak high")
	case models.RiskModerate:
		score += 10
		drivers = append(drivers, "CPU forecast peak moderate")
	}

	if forecast.PredictedPeak >= 95 {
		score += 12
		drivers = append(drivers, "Forecast peak exceeds 95%")
	}

	criticalRecos := 0
	for _, rec := range recommendations {
		if rec.Priority == models.PriorityCritical {
			criticalRecos++
		}
	}
	if criticalRecos > 0 {
		bump := criticalRecos * 4
		if bump > 12 {
			bump = 12
		}
		score += bump
		drivers = append(drivers, "Critical recommendations generated")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := models.RiskLow
	switch {
	case score >= 85 || (forecast.RiskLevel == models.RiskHigh && anomalySeverityScore >= 25):
		level = models.RiskCritical
	case score >= 65:
		level = models.RiskHigh
	case score >= 40:
		level = models.RiskModerate
	}

	tti := riskDefaultTTI
	if !forecast.PeakTime.IsZero() && !features.Timestamp.IsZero() {
		tti = utils.MinutesBetween(features.Timestamp, forecast.PeakTime)
		if tti < 0 {
			tti = 0
		}
	}
	if (level == models.RiskHigh || level == models.RiskCritical) && tti > riskTTICap {
		tti = riskTTICap
	}

	confidence := 0.72
	if len(anomalies) > 0 {
		confidence += 0.10
	}
	if forecast.RiskLevel == models.RiskHigh || forecast.RiskLevel == models.RiskModerate {
		confidence += 0.08
	}
	if len(drivers) >= 3 {
		confidence += 0.05
	}
	confidence = round2(clamp(confidence, 0.5, 0.97))

	if len(drivers) == 0 {
		drivers = append(drivers, "No major saturation or anomaly drivers detected")
	}

	return models.SLARisk{
		RiskScore:           score,
		RiskLevel:           level,
		TimeToImpactMinutes: tti,
		Drivers:             drivers,
		Confidence:          confidence,
	}
}
