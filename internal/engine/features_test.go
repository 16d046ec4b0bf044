package engine

import (
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/utils"
)

func TestExtractPrefersNestedClusterMetrics(t *testing.T) {
	extractor := NewExtractor(utils.FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	vec := extractor.Extract(map[string]any{
		"cpu_usage": 10.0,
		"cluster_metrics": map[string]any{
			"cpu_usage":     58.0,
			"memory_usage":  72,
			"storage_usage": "45%",
			"network_io":    "34 mbps",
		},
		"active_anomalies": 2,
	}, ExtractOptions{})

	if vec.CPUUsage != 58.0 {
		t.Fatalf("expected nested cpu 58, got %v", vec.CPUUsage)
	}
	if vec.MemoryUsage != 72.0 {
		t.Fatalf("expected memory 72, got %v", vec.MemoryUsage)
	}
	if vec.StorageUsage != 45.0 {
		t.Fatalf("expected storage 45, got %v", vec.StorageUsage)
	}
	if vec.NetworkIO != 34.0 {
		t.Fatalf("expected network 34, got %v", vec.NetworkIO)
	}
	if vec.AnomalyCount != 2 {
		t.Fatalf("expected anomaly count 2, got %d", vec.AnomalyCount)
	}
}

func TestExtractCoercesUnits(t *testing.T) {
	extractor := NewExtractor(nil)

	cases := []struct {
		raw  any
		want float64
	}{
		{"1.5 gbps", 1500.0},
		{"250 kbps", 0.25},
		{"1,250.5", 1250.5},
		{"87%", 87.0},
		{42, 42.0},
		{int64(7), 7.0},
		{"garbage", 0.0},
		{nil, 0.0},
	}
	for _, tc := range cases {
		vec := extractor.Extract(map[string]any{"network_io": tc.raw}, ExtractOptions{})
		if vec.NetworkIO != tc.want {
			t.Fatalf("coerce %v: expected %v, got %v", tc.raw, tc.want, vec.NetworkIO)
		}
	}
}

func TestExtractNeverNegative(t *testing.T) {
	extractor := NewExtractor(nil)
	vec := extractor.Extract(map[string]any{
		"cluster_metrics":  map[string]any{"cpu_usage": -12.0},
		"active_anomalies": -4,
	}, ExtractOptions{})
	if vec.CPUUsage != 0 {
		t.Fatalf("expected cpu floor at 0, got %v", vec.CPUUsage)
	}
	if vec.AnomalyCount != 0 {
		t.Fatalf("expected anomaly count floor at 0, got %d", vec.AnomalyCount)
	}
}

func TestExtractTimestampResolution(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	extractor := NewExtractor(utils.FixedClock(fixed))

	embedded := "2026-02-28T10:30:00Z"
	vec := extractor.Extract(map[string]any{"timestamp": embedded}, ExtractOptions{})
	if got := vec.Timestamp.Format(time.RFC3339); got != embedded {
		t.Fatalf("expected embedded timestamp, got %s", got)
	}

	override := fixed.Add(-time.Hour)
	vec = extractor.Extract(map[string]any{"timestamp": embedded}, ExtractOptions{Timestamp: &override})
	if !vec.Timestamp.Equal(override) {
		t.Fatalf("expected override timestamp, got %v", vec.Timestamp)
	}

	vec = extractor.Extract(map[string]any{"timestamp": "not-a-time"}, ExtractOptions{})
	if !vec.Timestamp.Equal(fixed) {
		t.Fatalf("expected clock fallback, got %v", vec.Timestamp)
	}
}
