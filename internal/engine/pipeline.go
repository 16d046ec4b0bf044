package engine

import (
	"log/slog"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/alerts"
	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// AgentVersion tags analysis payloads with the pipeline revision.
const AgentVersion = "1.0"

// Pipeline sequences extraction, detection, forecasting, recommendation,
// explainability, risk scoring, and alert generation into one atomic
// analysis run. Given identical input and clock, two runs produce identical
// output apart from the measured elapsed time.
type Pipeline struct {
	logger      *slog.Logger
	extractor   *Extractor
	alertEngine *alerts.Engine
	now         utils.NowFunc
}

// NewPipeline constructs the analysis orchestrator.
func NewPipeline(logger *slog.Logger, alertEngine *alerts.Engine, now utils.NowFunc) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = utils.SystemClock
	}
	return &Pipeline{
		logger:      logger,
		extractor:   NewExtractor(now),
		alertEngine: alertEngine,
		now:         now,
	}
}

// RunOptions tunes a single analysis run. Zero values select the defaults.
type RunOptions struct {
	ForecastPoints   int
	ForecastInterval time.Duration
	// SeedRecommendations are prepended to the rule-generated set before
	// risk scoring and alert generation, so scenario-injected advice flows
	// through the same downstream paths.
	SeedRecommendations []models.Recommendation
}

// Run executes one full analysis over the snapshot and optional history
// payload. The mode tag is carried into alert fingerprints and the result
// meta; it does not change the computation.
func (p *Pipeline) Run(snapshot map[string]any, mode string, historyPayload []map[string]any) models.AnalysisResult {
	return p.RunWithOptions(snapshot, mode, historyPayload, RunOptions{})
}

// RunWithOptions runs the same analysis with a caller-chosen forecast horizon
// and optional seed recommendations.
func (p *Pipeline) RunWithOptions(snapshot map[string]any, mode string, historyPayload []map[string]any, opts RunOptions) models.AnalysisResult {
	started := time.Now()

	current := p.extractor.Extract(snapshot, ExtractOptions{})
	history := p.buildHistory(current, historyPayload)
	detectionWindow := history[:len(history)-1]

	anomalies := DetectAnomalies(current, detectionWindow)
	forecast := ForecastLoad(history, opts.ForecastPoints, opts.ForecastInterval, p.now)
	recommendations := GenerateRecommendations(current, anomalies, forecast)
	if len(opts.SeedRecommendations) > 0 {
		seeded := make([]models.Recommendation, 0, len(opts.SeedRecommendations)+len(recommendations))
		seeded = append(seeded, opts.SeedRecommendations...)
		recommendations = append(seeded, recommendations...)
	}

	for i := range anomalies {
		anomalies[i].Detail = ExplainAnomaly(anomalies[i], current, detectionWindow)
	}
	forecast.Detail = ExplainForecast(forecast, current)
	for i := range recommendations {
		recommendations[i].Detail = ExplainRecommendation(recommendations[i], anomalies, forecast)
	}

	slaRisk := ComputeSLARisk(current, anomalies, forecast, recommendations)
	health := healthScore(current, len(anomalies), slaRisk.RiskLevel)

	if p.alertEngine != nil {
		p.alertEngine.Generate(anomalies, forecast, recommendations, slaRisk, mode)
	}

	result := models.AnalysisResult{
		HealthScore:     health,
		Anomalies:       anomalies,
		Forecast:        forecast,
		Recommendations: recommendations,
		SLARisk:         slaRisk,
		AlertsSummary:   p.alertsSummary(),
		Meta: models.AnalysisMeta{
			Mode:           mode,
			AnalysisTimeMS: time.Since(started).Milliseconds(),
			AgentVersion:   AgentVersion,
		},
	}

	p.logger.Debug("analysis run complete",
		slog.Int("health_score", health),
		slog.Int("anomalies", len(anomalies)),
		slog.String("risk_level", string(slaRisk.RiskLevel)),
	)

	return result
}

// buildHistory normalizes the optional history payload into feature vectors,
// oldest first, with the current point appended last. Without a payload a
// deterministic synthetic short history is built around the current value so
// the forecaster always has a window.
func (p *Pipeline) buildHistory(current models.FeatureVector, payload []map[string]any) []models.FeatureVector {
	if len(payload) == 0 {
		synth := func(cpuDrop float64, offset time.Duration) models.FeatureVector {
			point := current
			point.CPUUsage = floorZero(current.CPUUsage - cpuDrop)
			point.Timestamp = current.Timestamp.Add(offset)
			return point
		}
		return []models.FeatureVector{
			synth(12, -10*time.Minute),
			synth(6, -5*time.Minute),
			current,
		}
	}

	history := make([]models.FeatureVector, 0, len(payload)+1)
	for index, point := range payload {
		ts := p.historyTimestamp(point, len(payload)-index)
		count := toInt(point["anomaly_count"], current.AnomalyCount)
		history = append(history, p.extractor.Extract(map[string]any{
			"cluster_metrics": map[string]any{
				"cpu_usage":     fieldOrDefault(point, "cpu_usage", fieldOrDefault(point, "value", current.CPUUsage)),
				"memory_usage":  fieldOrDefault(point, "memory_usage", current.MemoryUsage),
				"storage_usage": fieldOrDefault(point, "storage_usage", current.StorageUsage),
				"network_io":    fieldOrDefault(point, "network_io", current.NetworkIO),
			},
		}, ExtractOptions{Timestamp: &ts, AnomalyCount: &count}))
	}
	return append(history, current)
}

// historyTimestamp parses the point's timestamp, falling back to a
// deterministic 5-minute spacing behind now when absent or malformed.
func (p *Pipeline) historyTimestamp(point map[string]any, stepsBack int) time.Time {
	if raw, ok := point["timestamp"].(string); ok {
		if ts, err := utils.ParseTimestamp(raw); err == nil {
			return ts
		}
	}
	if ts, ok := point["timestamp"].(time.Time); ok {
		return ts
	}
	return p.now().Add(-time.Duration(stepsBack) * 5 * time.Minute)
}

func fieldOrDefault(point map[string]any, key string, fallback any) any {
	if v, ok := point[key]; ok && v != nil {
		return v
	}
	return fallback
}

// healthScore penalizes resource saturation, anomaly volume, and risk level
// into a 0-100 composite.
func healthScore(features models.FeatureVector, anomalyCount int, risk models.RiskLevel) int {
	score := 100
	score -= int(features.CPUUsage * 0.22)
	score -= int(features.MemoryUsage * 0.2)
	score -= int(features.StorageUsage * 0.1)

	anomalyPenalty := anomalyCount * 8
	if anomalyPenalty > 35 {
		anomalyPenalty = 35
	}
	score -= anomalyPenalty

	switch risk {
	case models.RiskHigh:
		score -= 10
	case models.RiskModerate:
		score -= 5
	case models.RiskCritical:
		score -= 15
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (p *Pipeline) alertsSummary() models.AlertsSummary {
	summary := models.AlertsSummary{UpdatedAt: p.now()}
	if p.alertEngine != nil {
		summary.Active, summary.Critical = p.alertEngine.Store().Summary()
	}
	return summary
}
