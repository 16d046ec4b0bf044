package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/clusterpulse/aiops-engine/internal/alerts"
	"github.com/clusterpulse/aiops-engine/internal/audit"
	"github.com/clusterpulse/aiops-engine/internal/auth"
	"github.com/clusterpulse/aiops-engine/internal/engine"
	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/patterns"
	"github.com/clusterpulse/aiops-engine/internal/recommendations"
	"github.com/clusterpulse/aiops-engine/internal/services"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// Handler exposes the AIOps API over REST.
type Handler struct {
	logger      *slog.Logger
	analysis    *services.AnalysisService
	alertStore  *alerts.Store
	miner       *patterns.Miner
	recoActions *recommendations.ActionStore
	auditStore  *audit.Store
	users       *auth.Users
	jwtSecret   string
	tokenTTL    time.Duration
	now         utils.NowFunc
}

// NewHandler wires the API handler with its collaborators.
func NewHandler(
	logger *slog.Logger,
	analysis *services.AnalysisService,
	alertStore *alerts.Store,
	miner *patterns.Miner,
	recoActions *recommendations.ActionStore,
	auditStore *audit.Store,
	users *auth.Users,
	jwtSecret string,
	tokenTTL time.Duration,
	now utils.NowFunc,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = utils.SystemClock
	}
	return &Handler{
		logger:      logger,
		analysis:    analysis,
		alertStore:  alertStore,
		miner:       miner,
		recoActions: recoActions,
		auditStore:  auditStore,
		users:       users,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		now:         now,
	}
}

// Routes registers all API routes on the router.
func (h *Handler) Routes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(RequestID, RequestLog(h.logger), Recover(h.logger))

	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(Authenticate(h.jwtSecret))

	authed.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	authed.HandleFunc("/overview", h.Overview).Methods(http.MethodGet)
	authed.HandleFunc("/anomalies", h.Anomalies).Methods(http.MethodGet)
	authed.HandleFunc("/forecast", h.Forecast).Methods(http.MethodGet)
	authed.HandleFunc("/recommendations", h.Recommendations).Methods(http.MethodGet)
	authed.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	authed.HandleFunc("/alerts/patterns", h.AlertPatterns).Methods(http.MethodGet)
	authed.HandleFunc("/audit", h.ListAudit).Methods(http.MethodGet)
	authed.HandleFunc("/mode", h.GetMode).Methods(http.MethodGet)

	write := authed.NewRoute().Subrouter()
	write.Use(RequireRoles(auth.WriteRoles...))
	write.HandleFunc("/alerts/{id}/ack", h.AcknowledgeAlert).Methods(http.MethodPost)
	write.HandleFunc("/alerts/{id}/resolve", h.ResolveAlert).Methods(http.MethodPost)
	write.HandleFunc("/recommendations/{id}/apply", h.ApplyRecommendation).Methods(http.MethodPost)
	write.HandleFunc("/recommendations/{id}/dismiss", h.DismissRecommendation).Methods(http.MethodPost)
	write.HandleFunc("/recommendations/{id}/snooze", h.SnoozeRecommendation).Methods(http.MethodPost)
	write.HandleFunc("/simulate/apply", h.ApplyScenario).Methods(http.MethodPost)
	write.HandleFunc("/simulate/reset", h.ResetScenario).Methods(http.MethodPost)

	admin := authed.NewRoute().Subrouter()
	admin.Use(RequireRoles(auth.RoleAdmin))
	admin.HandleFunc("/alerts/clear", h.ClearAlerts).Methods(http.MethodPost)
	admin.HandleFunc("/mode", h.SetMode).Methods(http.MethodPost)
}

// Login authenticates a user and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, ok := h.users.Authenticate(req.Email, req.Password)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := auth.IssueToken(h.jwtSecret, user, h.tokenTTL, h.now)
	if err != nil {
		h.logger.Error("token issuance failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	h.recordAudit(user.Email, user.Role, "auth.login", "", nil)
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]string{
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Me returns the authenticated identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{
		"email": claims.Email,
		"role":  claims.Role,
	})
}

// Health reports service liveness plus the effective data mode.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": engine.AgentVersion,
		"mode":    h.analysis.EffectiveMode(r.Context()),
	})
}

// Overview runs a full analysis and returns the snapshot augmented with
// pipeline outputs.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	snapshot, result, err := h.analysis.Analyze(r.Context())
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	overview := make(map[string]any, len(snapshot)+4)
	for k, v := range snapshot {
		overview[k] = v
	}
	overview["health_score"] = result.HealthScore
	overview["active_anomalies"] = len(result.Anomalies)
	overview["recommendations"] = len(result.Recommendations)
	if result.Forecast.PredictedPeak > 0 {
		overview["load_forecast_preview"] = int(result.Forecast.PredictedPeak)
	}
	overview["alerts_summary"] = result.AlertsSummary
	overview["ai_meta"] = result.Meta
	respondJSON(w, http.StatusOK, overview)
}

// Anomalies returns the detections from a fresh analysis run.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	_, result, err := h.analysis.Analyze(r.Context())
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"anomalies": result.Anomalies,
		"ai_meta":   result.Meta,
	})
}

// Forecast returns the load forecast from a fresh analysis run. The horizon
// is tunable via points and interval_minutes query params.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	points, ok := queryInt(r, "points", engine.DefaultForecastPoints, 1, 60)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid points")
		return
	}
	intervalMinutes, ok := queryInt(r, "interval_minutes", int(engine.DefaultForecastInterval.Minutes()), 1, 1440)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid interval_minutes")
		return
	}

	_, result, err := h.analysis.AnalyzeWithHorizon(r.Context(), points, time.Duration(intervalMinutes)*time.Minute)
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"forecast": result.Forecast,
		"ai_meta":  result.Meta,
	})
}

// Recommendations returns remediation advice plus the composite risk.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	_, result, err := h.analysis.Analyze(r.Context())
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"recommendations": result.Recommendations,
		"sla_risk":        result.SLARisk,
		"ai_meta":         result.Meta,
	})
}

// ListAlerts returns stored alerts, optionally filtered by status and paged
// with a last-seen-id cursor.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := models.AlertStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.AlertActive, models.AlertAcknowledged, models.AlertResolved:
	default:
		respondError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	limit, ok := queryInt(r, "limit", 100, 1, 500)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	list := h.alertStore.List(status)
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		for i, alert := range list {
			if alert.ID == cursor {
				list = list[i+1:]
				break
			}
		}
	}
	next := ""
	if len(list) > limit {
		list = list[:limit]
		next = list[limit-1].ID
	}

	active, critical := h.alertStore.Summary()
	respondJSON(w, http.StatusOK, map[string]any{
		"alerts":      list,
		"active":      active,
		"critical":    critical,
		"next_cursor": next,
	})
}

// AlertPatterns mines recurrence patterns over the current alert store.
func (h *Handler) AlertPatterns(w http.ResponseWriter, r *http.Request) {
	mined := h.miner.Mine(h.alertStore.List(""))
	respondJSON(w, http.StatusOK, map[string]any{"patterns": mined})
}

// AcknowledgeAlert marks an alert acknowledged by the caller.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, "alert.acknowledge", h.alertStore.Acknowledge)
}

// ResolveAlert marks an alert resolved by the caller.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.transitionAlert(w, r, "alert.resolve", h.alertStore.Resolve)
}

func (h *Handler) transitionAlert(w http.ResponseWriter, r *http.Request, action string, apply func(id, actor string) (models.Alert, error)) {
	claims := auth.ClaimsFromContext(r.Context())
	id := mux.Vars(r)["id"]
	alert, err := apply(id, claims.Email)
	if err != nil {
		if errors.Is(err, alerts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "alert not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.recordAudit(claims.Email, claims.Role, action, id, nil)
	respondJSON(w, http.StatusOK, alert)
}

// ApplyRecommendation marks a recommendation as applied by the caller.
func (h *Handler) ApplyRecommendation(w http.ResponseWriter, r *http.Request) {
	h.transitionRecommendation(w, r, recommendations.StatusApplied, "reco.apply")
}

// DismissRecommendation marks a recommendation as dismissed by the caller.
func (h *Handler) DismissRecommendation(w http.ResponseWriter, r *http.Request) {
	h.transitionRecommendation(w, r, recommendations.StatusDismissed, "reco.dismiss")
}

// SnoozeRecommendation marks a recommendation as snoozed by the caller.
func (h *Handler) SnoozeRecommendation(w http.ResponseWriter, r *http.Request) {
	h.transitionRecommendation(w, r, recommendations.StatusSnoozed, "reco.snooze")
}

// transitionRecommendation records the decision for any recommendation id.
// Advice is regenerated on every analysis run, so ids are not validated
// against a stored set; a repeated decision overwrites the previous one.
func (h *Handler) transitionRecommendation(w http.ResponseWriter, r *http.Request, status recommendations.ActionStatus, auditAction string) {
	claims := auth.ClaimsFromContext(r.Context())
	id := mux.Vars(r)["id"]

	action, previous, had := h.recoActions.Set(id, status, claims.Email)
	meta := map[string]any{"status_after": string(status)}
	if had {
		meta["status_before"] = string(previous.Status)
	}
	h.recordAudit(claims.Email, claims.Role, auditAction, id, meta)
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"recommendation_id": id,
		"action":            strings.TrimPrefix(auditAction, "reco."),
		"updated_at":        action.UpdatedAt,
	})
}

// ClearAlerts removes every stored alert. Admin only.
func (h *Handler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	removed := h.alertStore.ClearAll()
	h.recordAudit(claims.Email, claims.Role, "alerts.clear", "", map[string]any{"removed": removed})
	respondJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// ListAudit returns the audit trail visible to the caller's role.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	cursor := r.URL.Query().Get("cursor")
	events, next := h.auditStore.List(audit.Actor{Email: claims.Email, Role: claims.Role}, limit, cursor)
	respondJSON(w, http.StatusOK, map[string]any{
		"events":      events,
		"next_cursor": next,
	})
}

// ApplyScenario activates a demo scenario.
func (h *Handler) ApplyScenario(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	var req struct {
		Scenario string `json:"scenario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.analysis.ApplyScenario(req.Scenario); err != nil {
		respondError(w, http.StatusBadRequest, errorMessage(err))
		return
	}
	h.recordAudit(claims.Email, claims.Role, "scenario.apply", req.Scenario, nil)
	respondJSON(w, http.StatusOK, map[string]string{"scenario": req.Scenario})
}

// ResetScenario restores the demo baseline.
func (h *Handler) ResetScenario(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	h.analysis.ResetScenario()
	h.recordAudit(claims.Email, claims.Role, "scenario.reset", "", nil)
	respondJSON(w, http.StatusOK, map[string]string{"scenario": "none"})
}

// GetMode reports the configured and effective data modes.
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"mode":           h.analysis.Mode(),
		"effective_mode": h.analysis.EffectiveMode(r.Context()),
		"scenario":       h.analysis.Scenario(),
	})
}

// SetMode switches the configured data mode.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.analysis.SetMode(req.Mode); err != nil {
		respondError(w, http.StatusBadRequest, errorMessage(err))
		return
	}
	h.recordAudit(claims.Email, claims.Role, "mode.set", req.Mode, nil)
	respondJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

// recordAudit appends an event best-effort; audit failures never block the
// request path.
func (h *Handler) recordAudit(email, role, action, target string, meta map[string]any) {
	if h.auditStore == nil {
		return
	}
	h.auditStore.Append(models.AuditEvent{
		ActorEmail: email,
		ActorRole:  role,
		Action:     action,
		TargetID:   target,
		Metadata:   meta,
	})
}

func (h *Handler) respondAnalysisError(w http.ResponseWriter, err error) {
	h.logger.Error("analysis failed", "error", err)
	respondError(w, http.StatusServiceUnavailable, "analysis unavailable: "+err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// queryInt parses an optional integer query param, enforcing bounds. The
// second return is false when the value is unparsable or out of range.
func queryInt(r *http.Request, name string, fallback, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// errorMessage strips the internal operation prefix from service errors so
// API clients see only the human-facing message.
func errorMessage(err error) string {
	if appErr, ok := utils.AsAppError(err); ok {
		return appErr.Msg
	}
	return err.Error()
}
