package engine

import (
	"testing"

	"github.com/clusterpulse/aiops-engine/internal/models"
)

func vec(cpu, mem, net float64) models.FeatureVector {
	return models.FeatureVector{CPUUsage: cpu, MemoryUsage: mem, NetworkIO: net}
}

func historyOf(points ...models.FeatureVector) []models.FeatureVector {
	return points
}

func findAnomaly(anomalies []models.Anomaly, typ models.AnomalyType) *models.Anomaly {
	for i := range anomalies {
		if anomalies[i].Type == typ {
			return &anomalies[i]
		}
	}
	return nil
}

func TestDetectAnomaliesHealthyCluster(t *testing.T) {
	anomalies := DetectAnomalies(vec(58, 72, 34), historyOf(vec(57, 71, 33), vec(58, 72, 34)))
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", anomalies)
	}
}

func TestDetectAnomaliesCPUThreshold(t *testing.T) {
	anomalies := DetectAnomalies(vec(88, 50, 30), historyOf(vec(86, 50, 30)))
	spike := findAnomaly(anomalies, models.AnomalyCPUSpike)
	if spike == nil {
		t.Fatalf("expected cpu_spike, got %v", anomalies)
	}
	if spike.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %s", spike.Severity)
	}
	if spike.Explanation != "CPU exceeded 85% threshold" {
		t.Fatalf("unexpected explanation: %s", spike.Explanation)
	}
	if spike.Confidence < 0.5 || spike.Confidence > 0.99 {
		t.Fatalf("confidence out of bounds: %v", spike.Confidence)
	}
}

func TestDetectAnomaliesCPUDelta(t *testing.T) {
	// 60 -> 82 is below the absolute threshold but jumps more than 20 points.
	anomalies := DetectAnomalies(vec(82, 50, 30), historyOf(vec(60, 50, 30)))
	spike := findAnomaly(anomalies, models.AnomalyCPUSpike)
	if spike == nil {
		t.Fatalf("expected delta-triggered cpu_spike, got %v", anomalies)
	}
	if spike.Explanation != "CPU increased by more than 20% in last window" {
		t.Fatalf("unexpected explanation: %s", spike.Explanation)
	}
}

func TestDetectAnomaliesCPUCritical(t *testing.T) {
	anomalies := DetectAnomalies(vec(96, 50, 30), historyOf(vec(95, 50, 30)))
	spike := findAnomaly(anomalies, models.AnomalyCPUSpike)
	if spike == nil || spike.Severity != models.SeverityCritical {
		t.Fatalf("expected critical cpu_spike, got %v", anomalies)
	}
}

func TestDetectAnomaliesMemory(t *testing.T) {
	anomalies := DetectAnomalies(vec(50, 91, 30), historyOf(vec(50, 90, 30)))
	mem := findAnomaly(anomalies, models.AnomalyMemoryPressure)
	if mem == nil {
		t.Fatalf("expected memory_pressure, got %v", anomalies)
	}
	if mem.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity at 91%%, got %s", mem.Severity)
	}

	anomalies = DetectAnomalies(vec(50, 96, 30), nil)
	mem = findAnomaly(anomalies, models.AnomalyMemoryPressure)
	if mem == nil || mem.Severity != models.SeverityCritical {
		t.Fatalf("expected critical memory_pressure at 96%%, got %v", anomalies)
	}
}

func TestDetectAnomaliesNetworkBaseline(t *testing.T) {
	// Baseline mean is 55; 100 > 55*1.5 but below 55*2.
	history := historyOf(vec(50, 50, 50), vec(50, 50, 60))
	anomalies := DetectAnomalies(vec(50, 50, 100), history)
	net := findAnomaly(anomalies, models.AnomalyNetworkSpike)
	if net == nil {
		t.Fatalf("expected network_spike, got %v", anomalies)
	}
	if net.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %s", net.Severity)
	}

	anomalies = DetectAnomalies(vec(50, 50, 120), history)
	net = findAnomaly(anomalies, models.AnomalyNetworkSpike)
	if net == nil || net.Severity != models.SeverityCritical {
		t.Fatalf("expected critical network_spike at 2x baseline, got %v", anomalies)
	}
}

func TestDetectAnomaliesOrderIsStable(t *testing.T) {
	history := historyOf(vec(60, 80, 20))
	anomalies := DetectAnomalies(vec(90, 95, 60), history)
	if len(anomalies) != 3 {
		t.Fatalf("expected all three rules to fire, got %d", len(anomalies))
	}
	want := []models.AnomalyType{models.AnomalyCPUSpike, models.AnomalyMemoryPressure, models.AnomalyNetworkSpike}
	for i, typ := range want {
		if anomalies[i].Type != typ {
			t.Fatalf("position %d: expected %s, got %s", i, typ, anomalies[i].Type)
		}
	}
}

func TestDetectAnomaliesZeroBaselineSkipsNetworkRule(t *testing.T) {
	anomalies := DetectAnomalies(vec(50, 50, 40), historyOf(vec(50, 50, 0), vec(50, 50, 0)))
	if findAnomaly(anomalies, models.AnomalyNetworkSpike) != nil {
		t.Fatalf("expected no network anomaly with zero baseline, got %v", anomalies)
	}
}
