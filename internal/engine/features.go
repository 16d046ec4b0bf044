package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// Extractor normalizes heterogeneous snapshot payloads into feature vectors.
// Extraction never fails: missing or malformed fields degrade to zero values.
type Extractor struct {
	now utils.NowFunc
}

// NewExtractor creates an extractor reading "now" from the supplied clock.
func NewExtractor(now utils.NowFunc) *Extractor {
	if now == nil {
		now = utils.SystemClock
	}
	return &Extractor{now: now}
}

// ExtractOptions carries optional per-point overrides.
type ExtractOptions struct {
	AnomalyCount *int
	Timestamp    *time.Time
}

// Extract pulls a normalized feature vector out of an overview-like payload.
// Values may live at the top level or nested under "cluster_metrics".
func (e *Extractor) Extract(source map[string]any, opts ExtractOptions) models.FeatureVector {
	metrics := nestedMap(source, "cluster_metrics")

	vec := models.FeatureVector{
		CPUUsage:     floorZero(metricValue(metrics, source, "cpu_usage")),
		MemoryUsage:  floorZero(metricValue(metrics, source, "memory_usage")),
		StorageUsage: floorZero(metricValue(metrics, source, "storage_usage")),
		NetworkIO:    floorZero(metricValue(metrics, source, "network_io")),
	}

	count := toInt(source["active_anomalies"], 0)
	if opts.AnomalyCount != nil {
		count = *opts.AnomalyCount
	}
	if count < 0 {
		count = 0
	}
	vec.AnomalyCount = count

	vec.Timestamp = e.resolveTimestamp(source, opts.Timestamp)
	return vec
}

func (e *Extractor) resolveTimestamp(source map[string]any, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	switch ts := source["timestamp"].(type) {
	case time.Time:
		return ts
	case string:
		if parsed, err := utils.ParseTimestamp(ts); err == nil {
			return parsed
		}
	}
	return e.now()
}

func nestedMap(source map[string]any, key string) map[string]any {
	if source == nil {
		return nil
	}
	if m, ok := source[key].(map[string]any); ok {
		return m
	}
	return nil
}

// metricValue prefers the nested cluster metric and falls back to the
// top-level field, both coerced through toFloat.
func metricValue(metrics, source map[string]any, key string) float64 {
	fallback := 0.0
	if source != nil {
		fallback = toFloat(source[key], 0)
	}
	if metrics == nil {
		return fallback
	}
	if _, ok := metrics[key]; !ok {
		return fallback
	}
	return toFloat(metrics[key], fallback)
}

// toFloat coerces numeric or unit-suffixed string values into a float64.
// Supported suffixes: "%", "mbps" (unit), "gbps" (x1000), "kbps" (x0.001).
func toFloat(value any, fallback float64) float64 {
	switch v := value.(type) {
	case nil:
		return fallback
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		cleaned := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), ",", "")
		multiplier := 1.0
		switch {
		case strings.HasSuffix(cleaned, "mbps"):
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "mbps"))
		case strings.HasSuffix(cleaned, "gbps"):
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "gbps"))
			multiplier = 1000.0
		case strings.HasSuffix(cleaned, "kbps"):
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "kbps"))
			multiplier = 0.001
		}
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "%"))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return fallback
		}
		return parsed * multiplier
	default:
		return fallback
	}
}

func toInt(value any, fallback int) int {
	switch v := value.(type) {
	case nil:
		return fallback
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback
		}
		return int(parsed)
	default:
		return fallback
	}
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
