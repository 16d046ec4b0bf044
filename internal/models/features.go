package models

import "time"

// FeatureVector is the canonical normalized view of one cluster snapshot.
// Instances are value types; the pipeline never mutates one after extraction.
type FeatureVector struct {
	CPUUsage     float64   `json:"cpu_usage"`
	MemoryUsage  float64   `json:"memory_usage"`
	StorageUsage float64   `json:"storage_usage"`
	NetworkIO    float64   `json:"network_io"`
	AnomalyCount int       `json:"anomaly_count"`
	Timestamp    time.Time `json:"timestamp"`
}
