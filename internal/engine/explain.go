package engine

import (
	"fmt"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

// ExplainAnomaly attaches the fixed signal/threshold table and logic tags for
// the anomaly's rule, plus a bucketed confidence reason.
func ExplainAnomaly(anomaly models.Anomaly, features models.FeatureVector, history []models.FeatureVector) *models.Explanation {
	cpu := features.CPUUsage
	mem := features.MemoryUsage
	net := features.NetworkIO

	prevCPU := cpu
	baselineNet := net
	if len(history) > 0 {
		prevCPU = history[len(history)-1].CPUUsage
		sum := 0.0
		for _, point := range history {
			sum += point.NetworkIO
		}
		baselineNet = round2(sum / float64(len(history)))
	}
	cpuDelta := round2(cpu - prevCPU)

	var signals []models.Signal
	var logic []string
	switch anomaly.Type {
	case models.AnomalyCPUSpike:
		signals = []models.Signal{
			{Name: "cpu_usage", Value: cpu, Threshold: 85.0, Contribution: "high"},
			{Name: "cpu_delta", Value: cpuDelta, Threshold: 20.0, Contribution: "medium"},
		}
		logic = []string{"cpu_usage > 85%", "delta(cpu_usage) > 20%"}
	case models.AnomalyMemoryPressure:
		signals = []models.Signal{
			{Name: "memory_usage", Value: mem, Threshold: 90.0, Contribution: "high"},
		}
		logic = []string{"memory_usage > 90%"}
	case models.AnomalyNetworkSpike:
		signals = []models.Signal{
			{Name: "network_io", Value: net, Threshold: round2(baselineNet * 1.5), Contribution: "high"},
			{Name: "network_baseline", Value: baselineNet, Threshold: baselineNet, Contribution: "medium"},
		}
		logic = []string{"network_io > baseline * 1.5"}
	default:
		signals = []models.Signal{
			{Name: "unknown_signal", Value: 0, Threshold: 0, Contribution: "low"},
		}
		logic = []string{"rule_based_detection_triggered"}
	}

	summary := anomaly.Explanation
	if summary == "" {
		summary = "Anomaly detected by rule engine"
	}

	return &models.Explanation{
		Summary:          summary,
		Signals:          signals,
		Logic:            logic,
		ConfidenceReason: anomalyConfidenceReason(anomaly.Confidence),
	}
}

func anomalyConfidenceReason(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "Confidence boosted due to multiple signal agreement"
	case confidence >= 0.75:
		return "Confidence moderate due to threshold breach"
	default:
		return "Confidence conservative due to limited signal strength"
	}
}

// ExplainForecast frames the forecast rationale around history stability and
// the computed minutes until the predicted peak.
func ExplainForecast(forecast models.ForecastResult, features models.FeatureVector) *models.Explanation {
	peak := forecast.PredictedPeak

	peakContribution := "medium"
	if peak >= 85 {
		peakContribution = "high"
	}

	tti := 60
	if !forecast.PeakTime.IsZero() && !features.Timestamp.IsZero() {
		tti = int(forecast.PeakTime.Sub(features.Timestamp).Seconds()) / 60
	}
	if tti < 0 {
		tti = 0
	}

	return &models.Explanation{
		Summary: fmt.Sprintf("Forecast trend is %s with %s risk and peak at %v%%.", forecast.Trend, forecast.RiskLevel, peak),
		Signals: []models.Signal{
			{Name: "current_cpu", Value: features.CPUUsage, Threshold: 70.0, Contribution: "medium"},
			{Name: "predicted_peak", Value: peak, Threshold: 85.0, Contribution: peakContribution},
		},
		Logic:            []string{"linear_trend_forecast", "peak_based_risk_banding"},
		ConfidenceReason: fmt.Sprintf("Confidence reflects history stability and trend consistency (TTI=%dm).", tti),
	}
}

// ExplainRecommendation ties a recommendation back to the anomaly and
// forecast context that produced it.
func ExplainRecommendation(rec models.Recommendation, anomalies []models.Anomaly, forecast models.ForecastResult) *models.Explanation {
	highCount := 0
	for _, anomaly := range anomalies {
		if anomaly.Severity == models.SeverityHigh || anomaly.Severity == models.SeverityCritical {
			highCount++
		}
	}

	anomalyContribution := "low"
	if highCount > 0 {
		anomalyContribution = "high"
	}
	peakContribution := "medium"
	if forecast.PredictedPeak >= 85 {
		peakContribution = "high"
	}

	summary := rec.Reason
	if summary == "" {
		summary = "Recommendation generated from orchestration rules"
	}

	return &models.Explanation{
		Summary: summary,
		Signals: []models.Signal{
			{Name: "high_anomaly_count", Value: float64(highCount), Threshold: 1, Contribution: anomalyContribution},
			{Name: "forecast_peak", Value: forecast.PredictedPeak, Threshold: 85.0, Contribution: peakContribution},
		},
		Logic: []string{
			fmt.Sprintf("recommendation_type=%s", rec.Type),
			"derived_from_anomalies_and_forecast",
		},
		ConfidenceReason: recommendationConfidenceReason(rec.Confidence),
	}
}

func recommendationConfidenceReason(confidence float64) string {
	switch {
	case confidence >= 0.88:
		return "High confidence due to direct anomaly-to-action mapping"
	case confidence >= 0.75:
		return "Moderate confidence due to forecast corroboration"
	default:
		return "Conservative confidence due to low urgency context"
	}
}
