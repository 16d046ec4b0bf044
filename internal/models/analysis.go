package models

import "time"

// AnomalyType enumerates the rule-based detectors.
type AnomalyType string

const (
	AnomalyCPUSpike       AnomalyType = "cpu_spike"
	AnomalyMemoryPressure AnomalyType = "memory_pressure"
	AnomalyNetworkSpike   AnomalyType = "network_spike"
)

// AnomalySeverity captures detector impact levels.
type AnomalySeverity string

const (
	SeverityInfo     AnomalySeverity = "info"
	SeverityWarning  AnomalySeverity = "warning"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// Anomaly is one triggered detection rule with its confidence and rationale.
type Anomaly struct {
	Type        AnomalyType     `json:"type"`
	Severity    AnomalySeverity `json:"severity"`
	Confidence  float64         `json:"confidence"`
	Explanation string          `json:"explanation"`
	Detail      *Explanation    `json:"explanation_detail,omitempty"`
}

// Trend enumerates forecast slope directions.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// RiskLevel bands a risk estimate.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ForecastPoint is one extrapolated sample with its confidence band.
type ForecastPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
}

// ForecastResult summarises a bounded linear extrapolation of CPU load.
type ForecastResult struct {
	PredictedPeak float64         `json:"predicted_peak"`
	PeakTime      time.Time       `json:"peak_time"`
	Trend         Trend           `json:"trend"`
	RiskLevel     RiskLevel       `json:"risk_level"`
	Confidence    float64         `json:"confidence"`
	Series        []ForecastPoint `json:"forecast_series"`
	Detail        *Explanation    `json:"explanation_detail,omitempty"`
}

// Priority ranks recommendations.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Recommendation maps detected conditions onto a remediation action.
type Recommendation struct {
	Type       string       `json:"type"`
	Priority   Priority     `json:"priority"`
	Target     string       `json:"target"`
	Reason     string       `json:"reason"`
	Confidence float64      `json:"confidence"`
	Impact     string       `json:"impact"`
	Detail     *Explanation `json:"explanation_detail,omitempty"`
}

// SLARisk is the weighted composite risk estimate for the cluster.
type SLARisk struct {
	RiskScore           int       `json:"risk_score"`
	RiskLevel           RiskLevel `json:"risk_level"`
	TimeToImpactMinutes int       `json:"time_to_impact_minutes"`
	Drivers             []string  `json:"drivers"`
	Confidence          float64   `json:"confidence"`
}

// Signal is one named input that contributed to a decision.
type Signal struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Threshold    float64 `json:"threshold"`
	Contribution string  `json:"contribution"`
}

// Explanation is the structured rationale attached to pipeline outputs.
type Explanation struct {
	Summary          string   `json:"summary"`
	Signals          []Signal `json:"signals"`
	Logic            []string `json:"logic"`
	ConfidenceReason string   `json:"confidence_reason"`
}

// AlertsSummary condenses live alert-store state for the analysis payload.
type AlertsSummary struct {
	Active    int       `json:"active"`
	Critical  int       `json:"critical"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisMeta describes how an analysis run was produced.
type AnalysisMeta struct {
	Mode           string `json:"mode"`
	AnalysisTimeMS int64  `json:"analysis_time_ms"`
	AgentVersion   string `json:"agent_version"`
}

// AnalysisResult is the unified output of one orchestrated analysis run.
type AnalysisResult struct {
	HealthScore     int              `json:"health_score"`
	Anomalies       []Anomaly        `json:"anomalies"`
	Forecast        ForecastResult   `json:"forecast"`
	Recommendations []Recommendation `json:"recommendations"`
	SLARisk         SLARisk          `json:"sla_risk"`
	AlertsSummary   AlertsSummary    `json:"alerts_summary"`
	Meta            AnalysisMeta     `json:"ai_meta"`
}
