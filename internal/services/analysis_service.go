package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/demo"
	"github.com/clusterpulse/aiops-engine/internal/engine"
	"github.com/clusterpulse/aiops-engine/internal/metrics"
	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/repo"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// Data modes the service can operate in. Auto probes Prometheus on each
// request and falls back to demo fixtures when it is unreachable.
const (
	ModeDemo       = "demo"
	ModePrometheus = "prometheus"
	ModeAuto       = "auto"
)

// AnalysisService orchestrates snapshot acquisition and the analysis pipeline,
// and owns the mutable mode and demo-scenario state.
type AnalysisService struct {
	logger     *slog.Logger
	pipeline   *engine.Pipeline
	demoSource *demo.Source
	promSource *repo.PrometheusSource
	latencies  *utils.LatencyTracker

	mu       sync.RWMutex
	mode     string
	scenario string
}

// NewAnalysisService constructs the service facade; promSource may be nil when
// no Prometheus endpoint is configured.
func NewAnalysisService(logger *slog.Logger, pipeline *engine.Pipeline, demoSource *demo.Source, promSource *repo.PrometheusSource, mode string) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = ModeAuto
	}
	return &AnalysisService{
		logger:     logger,
		pipeline:   pipeline,
		demoSource: demoSource,
		promSource: promSource,
		latencies:  utils.NewLatencyTracker(1024),
		mode:       mode,
		scenario:   demo.ScenarioNone,
	}
}

// Mode returns the configured data mode.
func (s *AnalysisService) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the configured data mode.
func (s *AnalysisService) SetMode(mode string) error {
	switch mode {
	case ModeDemo, ModePrometheus, ModeAuto:
	default:
		return &utils.AppError{Op: "services.SetMode", Msg: fmt.Sprintf("invalid mode %q", mode)}
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.logger.Info("data mode changed", "mode", mode)
	return nil
}

// EffectiveMode resolves auto to a concrete source for this request.
func (s *AnalysisService) EffectiveMode(ctx context.Context) string {
	mode := s.Mode()
	if mode != ModeAuto {
		return mode
	}
	if s.promSource != nil && s.promSource.Available(ctx) {
		return ModePrometheus
	}
	return ModeDemo
}

// Scenario returns the active demo scenario.
func (s *AnalysisService) Scenario() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenario
}

// ApplyScenario activates a named demo scenario for subsequent analyses.
func (s *AnalysisService) ApplyScenario(name string) error {
	if !demo.ValidScenario(name) {
		return &utils.AppError{Op: "services.ApplyScenario", Msg: fmt.Sprintf("invalid scenario %q", name)}
	}
	s.mu.Lock()
	s.scenario = name
	s.mu.Unlock()
	s.logger.Info("demo scenario applied", "scenario", name)
	return nil
}

// ResetScenario restores the healthy baseline fixture.
func (s *AnalysisService) ResetScenario() {
	s.mu.Lock()
	s.scenario = demo.ScenarioNone
	s.mu.Unlock()
	s.logger.Info("demo scenario reset")
}

// Analyze acquires a snapshot from the effective source and runs the full
// pipeline over it. The returned overview is the raw snapshot payload the
// analysis was computed from.
func (s *AnalysisService) Analyze(ctx context.Context) (map[string]any, models.AnalysisResult, error) {
	return s.AnalyzeWithHorizon(ctx, engine.DefaultForecastPoints, engine.DefaultForecastInterval)
}

// AnalyzeWithHorizon runs an analysis whose forecast covers the requested
// number of points at the requested spacing.
func (s *AnalysisService) AnalyzeWithHorizon(ctx context.Context, points int, interval time.Duration) (map[string]any, models.AnalysisResult, error) {
	mode := s.EffectiveMode(ctx)

	var (
		snapshot map[string]any
		history  []map[string]any
		seeds    []models.Recommendation
		err      error
	)

	start := time.Now()
	switch mode {
	case ModePrometheus:
		snapshot, err = s.promSource.Snapshot(ctx)
		if err != nil {
			metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
			return nil, models.AnalysisResult{}, err
		}
		history = nil
	default:
		scenario := s.Scenario()
		snapshot = s.demoSource.Overview(scenario)
		history = s.demoSource.HistoryPayload(snapshot, scenario, 6)
		seeds = s.demoSource.CriticalRecommendations(scenario)
	}

	result := s.pipeline.RunWithOptions(snapshot, mode, history, engine.RunOptions{
		ForecastPoints:      points,
		ForecastInterval:    interval,
		SeedRecommendations: seeds,
	})
	duration := time.Since(start)

	s.latencies.Observe(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency",
			"count", count,
			"p50", s.latencies.Percentile(50),
			"p95", s.latencies.Percentile(95))
	}

	return snapshot, result, nil
}
