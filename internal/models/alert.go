package models

import "time"

// AlertSeverity is the externally visible severity of an alert record.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertStatus tracks lifecycle state.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is the persistent (process-lifetime) record produced from qualifying
// analysis outputs, deduplicated by fingerprint.
type Alert struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Severity    AlertSeverity     `json:"severity"`
	Status      AlertStatus       `json:"status"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Source      string            `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Fingerprint string            `json:"fingerprint"`
	Entity      map[string]string `json:"entity,omitempty"`
	Explanation *Explanation      `json:"explanation,omitempty"`
	Meta        map[string]any    `json:"meta,omitempty"`
}

// Clone returns a deep copy so store callers cannot alias internal state.
func (a Alert) Clone() Alert {
	out := a
	if a.Entity != nil {
		out.Entity = make(map[string]string, len(a.Entity))
		for k, v := range a.Entity {
			out.Entity[k] = v
		}
	}
	if a.Meta != nil {
		out.Meta = make(map[string]any, len(a.Meta))
		for k, v := range a.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// AlertPattern is a mined recurrence summary over stored alerts.
type AlertPattern struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Records     int       `json:"records"`
	Occurrences int       `json:"occurrences"`
	Prevalence  float64   `json:"prevalence"`
	Entities    []string  `json:"entities"`
	LastSeen    time.Time `json:"last_seen"`
}
