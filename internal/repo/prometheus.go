package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/cache"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// ErrUnavailable is returned when Prometheus cannot be reached or a query fails.
var ErrUnavailable = errors.New("prometheus unavailable")

const snapshotCacheKey = "aiops:prometheus:snapshot"

// Cluster-level instant queries. Each falls back to a neutral default when
// the series is absent so a partially scraped cluster still yields a snapshot.
const (
	queryCPU     = `100 * (1 - avg(rate(node_cpu_seconds_total{mode="idle"}[5m])))`
	queryMemory  = `100 * (1 - avg(node_memory_MemAvailable_bytes / node_memory_MemTotal_bytes))`
	queryStorage = `100 * (1 - avg(node_filesystem_avail_bytes{mountpoint="/"} / node_filesystem_size_bytes{mountpoint="/"}))`
	queryNetwork = `sum(rate(node_network_receive_bytes_total[5m]) + rate(node_network_transmit_bytes_total[5m])) / 1024 / 1024`
	queryFiring  = `count(ALERTS{alertstate="firing"})`
)

// PrometheusSource fetches cluster metrics from a Prometheus instance and
// shapes them into the snapshot payload the analysis pipeline consumes.
type PrometheusSource struct {
	baseURL     string
	httpClient  *http.Client
	cache       cache.Provider
	snapshotTTL time.Duration
	logger      *slog.Logger
	now         utils.NowFunc
}

// NewPrometheusSource constructs a source targeting the configured Prometheus instance.
func NewPrometheusSource(baseURL string, timeout, snapshotTTL time.Duration, provider cache.Provider, logger *slog.Logger) *PrometheusSource {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &PrometheusSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:       provider,
		snapshotTTL: snapshotTTL,
		logger:      logger,
		now:         utils.SystemClock,
	}
}

// SetClock overrides the time source, used by tests.
func (s *PrometheusSource) SetClock(now utils.NowFunc) {
	if now != nil {
		s.now = now
	}
}

// Available reports whether the Prometheus API answers its runtime-info probe.
func (s *PrometheusSource) Available(ctx context.Context) bool {
	if s == nil || s.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/status/runtimeinfo", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("prometheus availability probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Snapshot assembles the current cluster overview from instant queries.
// The shaped payload is cached for the configured TTL so repeated analyses
// within a scrape interval do not hammer the Prometheus API.
func (s *PrometheusSource) Snapshot(ctx context.Context) (map[string]any, error) {
	if s == nil || s.baseURL == "" {
		return nil, fmt.Errorf("prometheus source: %w", ErrUnavailable)
	}

	if cached, err := s.cache.Get(ctx, snapshotCacheKey); err == nil {
		var snapshot map[string]any
		if err := json.Unmarshal(cached, &snapshot); err == nil {
			return snapshot, nil
		}
	}

	if !s.Available(ctx) {
		return nil, &utils.AppError{Op: "prometheus.Snapshot", Msg: "availability probe failed", Err: ErrUnavailable}
	}

	cpu := s.queryWithDefault(ctx, queryCPU, 50.0)
	memory := s.queryWithDefault(ctx, queryMemory, 60.0)
	storage := s.queryWithDefault(ctx, queryStorage, 45.0)
	network := s.queryWithDefault(ctx, queryNetwork, 30.0)
	firing := int(s.queryWithDefault(ctx, queryFiring, 0))

	snapshot := map[string]any{
		"timestamp":        s.now().UTC().Format(time.RFC3339),
		"active_anomalies": firing,
		"cluster_metrics": map[string]any{
			"cpu_usage":     roundOne(cpu),
			"memory_usage":  roundOne(memory),
			"storage_usage": roundOne(storage),
			"network_io":    roundOne(network),
		},
	}

	if encoded, err := json.Marshal(snapshot); err == nil {
		if err := s.cache.Set(ctx, snapshotCacheKey, encoded, s.snapshotTTL); err != nil {
			s.logger.Debug("snapshot cache write failed", "error", err)
		}
	}

	return snapshot, nil
}

func (s *PrometheusSource) queryWithDefault(ctx context.Context, query string, fallback float64) float64 {
	value, err := s.instantQuery(ctx, query)
	if err != nil {
		s.logger.Warn("prometheus query failed, using fallback", "query", query, "error", err)
		return fallback
	}
	return value
}

// instantQuery executes a PromQL instant query and returns the first sample value.
func (s *PrometheusSource) instantQuery(ctx context.Context, query string) (float64, error) {
	endpoint := s.baseURL + "/api/v1/query?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build query request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: query returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		Data   struct {
			ResultType string `json:"resultType"`
			Result     []struct {
				Value []json.RawMessage `json:"value"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode query response: %w", err)
	}
	if payload.Status != "success" {
		return 0, fmt.Errorf("%w: query failed: %s", ErrUnavailable, payload.Error)
	}
	if len(payload.Data.Result) == 0 || len(payload.Data.Result[0].Value) < 2 {
		return 0, fmt.Errorf("no samples for query")
	}

	// Instant vector values arrive as [<unix ts>, "<string value>"].
	var raw string
	if err := json.Unmarshal(payload.Data.Result[0].Value[1], &raw); err != nil {
		return 0, fmt.Errorf("decode sample value: %w", err)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sample value %q: %w", raw, err)
	}
	return value, nil
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}
