package alerts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clusterpulse/aiops-engine/internal/metrics"
	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// securityRecommendationTypes are the recommendation types that escalate a
// critical-priority recommendation into a security alert.
var securityRecommendationTypes = map[string]struct{}{
	"security_hardening": {},
	"security":           {},
	"security_policy":    {},
}

// Engine converts qualifying analysis outputs into deduplicated alert
// records in the store.
type Engine struct {
	store       *Store
	clusterName string
	now         utils.NowFunc
}

// NewEngine constructs an alert engine writing into the given store.
func NewEngine(store *Store, clusterName string, now utils.NowFunc) *Engine {
	if now == nil {
		now = utils.SystemClock
	}
	if clusterName == "" {
		clusterName = "cluster"
	}
	return &Engine{store: store, clusterName: clusterName, now: now}
}

// Store exposes the underlying alert store.
func (e *Engine) Store() *Store {
	return e.store
}

// Generate derives alerts from one analysis run and upserts each into the
// store. The mode tag only participates in fingerprinting.
func (e *Engine) Generate(
	anomalies []models.Anomaly,
	forecast models.ForecastResult,
	recommendations []models.Recommendation,
	slaRisk models.SLARisk,
	mode string,
) []models.Alert {
	generated := make([]models.Alert, 0, len(anomalies)+2)
	now := e.now()
	clusterEntity := map[string]string{"cluster": e.clusterName}

	for _, anomaly := range anomalies {
		if anomaly.Severity != models.SeverityCritical && anomaly.Severity != models.SeverityHigh {
			continue
		}
		alert := models.Alert{
			Type:        string(anomaly.Type),
			Severity:    severityForAnomaly(anomaly.Severity),
			Status:      models.AlertActive,
			Title:       fmt.Sprintf("Anomaly detected: %s", anomaly.Type),
			Message:     anomaly.Explanation,
			Source:      "ai",
			CreatedAt:   now,
			UpdatedAt:   now,
			Fingerprint: Fingerprint(string(anomaly.Type), clusterEntity, mode),
			Entity:      clusterEntity,
			Explanation: anomaly.Detail,
			Meta:        map[string]any{"confidence": anomaly.Confidence},
		}
		generated = append(generated, e.upsert(alert))
	}

	if slaRisk.RiskLevel == models.RiskHigh || slaRisk.RiskLevel == models.RiskCritical {
		severity := models.AlertSeverityWarning
		if slaRisk.RiskLevel == models.RiskCritical {
			severity = models.AlertSeverityCritical
		}
		alert := models.Alert{
			Type:        "sla_risk",
			Severity:    severity,
			Status:      models.AlertActive,
			Title:       fmt.Sprintf("SLA risk is %s", slaRisk.RiskLevel),
			Message:     fmt.Sprintf("SLA risk score %d with impact in %d minutes", slaRisk.RiskScore, slaRisk.TimeToImpactMinutes),
			Source:      "ai",
			CreatedAt:   now,
			UpdatedAt:   now,
			Fingerprint: Fingerprint("sla_risk", clusterEntity, mode),
			Entity:      clusterEntity,
			Explanation: &models.Explanation{
				Summary:          "SLA risk derived from saturation, anomalies, and forecast.",
				Signals:          []models.Signal{},
				Logic:            []string{"weighted_risk_scoring"},
				ConfidenceReason: "Multiple AI subsystems agree on elevated risk",
			},
			Meta: map[string]any{"drivers": slaRisk.Drivers, "confidence": slaRisk.Confidence},
		}
		generated = append(generated, e.upsert(alert))
	}

	if (forecast.RiskLevel == models.RiskHigh || forecast.RiskLevel == models.RiskCritical) && slaRisk.TimeToImpactMinutes <= 60 {
		severity := models.AlertSeverityWarning
		if forecast.RiskLevel == models.RiskCritical {
			severity = models.AlertSeverityCritical
		}
		alert := models.Alert{
			Type:        "forecast_risk",
			Severity:    severity,
			Status:      models.AlertActive,
			Title:       "Near-term load impact forecast",
			Message:     fmt.Sprintf("Forecast peak %v%% in <= %d minutes", forecast.PredictedPeak, slaRisk.TimeToImpactMinutes),
			Source:      "ai",
			CreatedAt:   now,
			UpdatedAt:   now,
			Fingerprint: Fingerprint("forecast_risk", clusterEntity, mode),
			Entity:      clusterEntity,
			Explanation: forecast.Detail,
			Meta:        map[string]any{"peak_time": forecast.PeakTime},
		}
		generated = append(generated, e.upsert(alert))
	}

	for _, rec := range recommendations {
		if rec.Priority != models.PriorityCritical {
			continue
		}
		if _, ok := securityRecommendationTypes[rec.Type]; !ok {
			continue
		}
		target := rec.Target
		if target == "" {
			target = "cluster/all"
		}
		entity := map[string]string{"target": target}
		alert := models.Alert{
			Type:        "critical_security_recommendation",
			Severity:    models.AlertSeverityCritical,
			Status:      models.AlertActive,
			Title:       "Critical security recommendation",
			Message:     rec.Reason,
			Source:      "ai",
			CreatedAt:   now,
			UpdatedAt:   now,
			Fingerprint: Fingerprint("critical_security_recommendation", entity, mode),
			Entity:      entity,
			Explanation: rec.Detail,
			Meta:        map[string]any{"recommendation_type": rec.Type},
		}
		generated = append(generated, e.upsert(alert))
	}

	active, _ := e.store.Summary()
	metrics.SetActiveAlerts(active)

	return generated
}

func (e *Engine) upsert(alert models.Alert) models.Alert {
	metrics.AlertGenerated(alert.Type)
	return e.store.Upsert(alert)
}

// Fingerprint builds the stable dedupe key from alert type, sorted entity
// labels, and the data-source mode tag. Entity key order never changes the
// result.
func Fingerprint(alertType string, entity map[string]string, mode string) string {
	segment := "entity=cluster"
	if len(entity) > 0 {
		keys := make([]string, 0, len(entity))
		for k := range entity {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, entity[k]))
		}
		segment = strings.Join(parts, "|")
	}
	return fmt.Sprintf("%s|%s|mode=%s", alertType, segment, mode)
}

func severityForAnomaly(severity models.AnomalySeverity) models.AlertSeverity {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return models.AlertSeverityCritical
	case models.SeverityWarning:
		return models.AlertSeverityWarning
	default:
		return models.AlertSeverityInfo
	}
}
