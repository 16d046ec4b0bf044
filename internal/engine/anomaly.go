package engine

import "github.com/clusterpulse/aiops-engine/internal/models"

// Detection thresholds. The delta rules compare against the most recent
// history point; the network rule against the mean of the history window.
const (
	cpuThreshold      = 85.0
	cpuDeltaThreshold = 20.0
	cpuCriticalLevel  = 95.0
	cpuCriticalDelta  = 30.0
	memThreshold      = 90.0
	memCriticalLevel  = 95.0
	netBaselineFactor = 1.5
	netCriticalFactor = 2.0
)

// DetectAnomalies applies the threshold and delta rules to the current vector
// against its chronological history. Rules are independent; output order is
// fixed (cpu_spike, memory_pressure, network_spike) and each type appears at
// most once per run.
func DetectAnomalies(current models.FeatureVector, history []models.FeatureVector) []models.Anomaly {
	anomalies := make([]models.Anomaly, 0, 3)

	cpu := current.CPUUsage
	mem := current.MemoryUsage
	net := current.NetworkIO

	cpuDelta := 0.0
	if len(history) > 0 {
		cpuDelta = cpu - history[len(history)-1].CPUUsage
	}

	baseline := net
	if len(history) > 0 {
		sum := 0.0
		for _, point := range history {
			sum += point.NetworkIO
		}
		baseline = sum / float64(len(history))
	}

	if cpu > cpuThreshold || cpuDelta > cpuDeltaThreshold {
		reason := "CPU exceeded 85% threshold"
		if cpu <= cpuThreshold {
			reason = "CPU increased by more than 20% in last window"
		}
		severity := models.SeverityHigh
		if cpu >= cpuCriticalLevel || cpuDelta >= cpuCriticalDelta {
			severity = models.SeverityCritical
		}
		overBy := max3(cpu-cpuThreshold, cpuDelta-cpuDeltaThreshold, 0)
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyCPUSpike,
			Severity:    severity,
			Confidence:  ruleConfidence(0.78, overBy, 30.0),
			Explanation: reason,
		})
	}

	if mem > memThreshold {
		severity := models.SeverityHigh
		if mem >= memCriticalLevel {
			severity = models.SeverityCritical
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyMemoryPressure,
			Severity:    severity,
			Confidence:  ruleConfidence(0.8, mem-memThreshold, 20.0),
			Explanation: "Memory exceeded 90% threshold",
		})
	}

	if baseline > 0 && net > baseline*netBaselineFactor {
		severity := models.SeverityHigh
		if net >= baseline*netCriticalFactor {
			severity = models.SeverityCritical
		}
		scale := baseline
		if scale < 1 {
			scale = 1
		}
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyNetworkSpike,
			Severity:    severity,
			Confidence:  ruleConfidence(0.74, net-baseline*netBaselineFactor, scale),
			Explanation: "Network I/O spiked above 1.5x baseline",
		})
	}

	return anomalies
}

func ruleConfidence(base, overBy, scale float64) float64 {
	return round2(clamp(base+overBy/scale, 0.5, 0.99))
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
