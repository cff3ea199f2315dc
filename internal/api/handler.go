// Package api provides the HTTP surface for email analysis and rule
// management.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AamirAhmadDon/phishing-detector/internal/detector"
	"github.com/AamirAhmadDon/phishing-detector/internal/domain"
	"github.com/AamirAhmadDon/phishing-detector/internal/repository"
	"github.com/AamirAhmadDon/phishing-detector/internal/rules"
)

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	detector *detector.Detector
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, det *detector.Detector, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		detector: det,
		version:  version,
	}
}

// Analyze handles POST /analyze requests. The email is scored
// synchronously and the analysis is persisted and published.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req domain.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "text is required",
		})
		return
	}

	email := req.ToEmail(tenantID)
	email.ID = uuid.New().String()

	if h.repo != nil {
		if err := h.repo.SaveEmail(ctx, tenantID, email); err != nil {
			slog.Error("failed to save email", "error", err)
			// Scoring still proceeds; persistence is best effort here
		}
	}

	analysis, err := h.detector.Analyze(ctx, &detector.Input{
		TenantID: tenantID,
		EmailID:  email.ID,
		TraceID:  traceID,
		Sender:   req.Sender,
		Text:     req.Text,
	})
	if err != nil {
		if errors.Is(err, detector.ErrEmptyText) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("email analysis failed", "email_id", email.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed",
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			slog.Error("failed to save analysis", "email_id", email.ID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(analysis)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, payload); err != nil {
			slog.Error("failed to publish analysis", "email_id", email.ID, "error", err)
		}
		if analysis.Verdict == domain.VerdictPhishing {
			if err := h.bus.Publish(ctx, tenantID, domain.TopicAlert, payload); err != nil {
				slog.Error("failed to publish alert", "email_id", email.ID, "error", err)
			}
		}
	}

	slog.Info("email analyzed",
		"email_id", email.ID,
		"tenant_id", tenantID,
		"verdict", analysis.Verdict,
		"score", analysis.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, analysis.ToResponse())
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetAnalysis retrieves an analysis by ID.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	analysisID := chi.URLParam(r, "id")

	if analysisID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "analysis id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysis, err := h.repo.GetAnalysis(ctx, tenantID, analysisID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get analysis", "id", analysisID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// GetEmail retrieves a stored email by ID.
func (h *Handler) GetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	emailID := chi.URLParam(r, "id")

	if emailID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "email id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	email, err := h.repo.GetEmail(ctx, tenantID, emailID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to get email", "id", emailID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "email not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, email)
}

// ListRules returns the rule set currently loaded in the detector.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rs := h.detector.RuleSet()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suspiciousPatterns": rs.SuspiciousPatterns,
		"expressionRules":    rs.ExpressionRules,
		"scoringRules":       rs.ScoringRules,
	})
}

// GetRule retrieves one loaded rule by label.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	rs := h.detector.RuleSet()

	if pattern, ok := rs.SuspiciousPatterns[ruleID]; ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":         ruleID,
			"kind":       domain.RuleKindPattern,
			"expression": pattern,
			"weight":     rs.Weight(ruleID),
		})
		return
	}
	if expr, ok := rs.ExpressionRules[ruleID]; ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":         ruleID,
			"kind":       domain.RuleKindExpression,
			"expression": expr,
			"weight":     rs.Weight(ruleID),
		})
		return
	}
	if weight, ok := rs.ScoringRules[ruleID]; ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":     ruleID,
			"kind":   domain.RuleKindScore,
			"weight": weight,
		})
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	Expression  string `json:"expression,omitempty"`
	Weight      int    `json:"weight"`
	Enabled     bool   `json:"enabled"`
}

// CreateRule creates a new rule and saves it to the database.
// Rules are saved globally (tenant_id = "*") so they apply to all tenants.
// After saving, call POST /rules/reload to hot-reload into the detector.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Kind == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id and kind are required",
		})
		return
	}
	if (req.Kind == domain.RuleKindPattern || req.Kind == domain.RuleKindExpression) && req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "expression is required for pattern and expression rules",
		})
		return
	}

	if err := rules.ValidateRule(req.Kind, req.Expression); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	ruleConfig := &domain.RuleConfig{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Description: req.Description,
		Version:     "1.0.0",
		Kind:        req.Kind,
		Expression:  req.Expression,
		Weight:      req.Weight,
		Enabled:     req.Enabled,
	}

	if h.repo != nil {
		if err := h.repo.SaveRuleConfig(ctx, GlobalTenantID, ruleConfig); err != nil {
			slog.Error("failed to save rule config", "id", ruleConfig.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("rule created", "id", ruleConfig.ID, "kind", ruleConfig.Kind)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    ruleConfig,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// DeleteRule soft-deletes a persisted rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.DeleteRuleConfig(ctx, GlobalTenantID, ruleID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "rule not found",
		})
		return
	}

	slog.Info("rule deleted", "id", ruleID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rule deleted. Call POST /rules/reload to apply changes.",
	})
}

// ReloadRules reloads all rules from the database into the detector.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListRuleConfigs(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	rs := domain.RuleSetFromConfigs(dbRules)
	if err := h.detector.Reload(rs); err != nil {
		slog.Error("failed to reload rules into detector", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
