// Package dashboard exposes the read-only HTTP surface over recorded runs
// and live verification: recent bulk and provisioning runs, audit snapshots,
// clone validation, and refresh schedule state.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"snowclone/internal/domain"
	"snowclone/internal/middleware"
	"snowclone/internal/service/refresh"
)

// Verifier is the read-only verification surface the dashboard triggers.
// Implemented by audit.Auditor.
type Verifier interface {
	Snapshot(ctx context.Context, declaredRoles []string, targetDB string) *domain.AuditSnapshot
	ValidateClone(ctx context.Context, source, target string) *domain.CloneValidation
	CloneHistory(ctx context.Context, like string) []domain.CloneRecord
}

// ScheduleLister reports refresh schedule state. Implemented by
// refresh.Scheduler.
type ScheduleLister interface {
	Entries() []refresh.Entry
}

// Handler serves the dashboard endpoints. Verifier may be nil when no
// warehouse session is configured; affected endpoints return 503.
type Handler struct {
	History   domain.RunHistory
	Verifier  Verifier
	Schedules ScheduleLister

	// AuditRoles and DefaultDatabase come from the project configuration:
	// the declared role names and the fallback target database for audits.
	AuditRoles      []string
	DefaultDatabase string

	Logger *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// reqLogger prefers the request-scoped logger so handler errors carry the
// request ID.
func (h *Handler) reqLogger(r *http.Request) *slog.Logger {
	return middleware.LoggerFromContext(r.Context(), h.logger())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"code": status, "message": message})
}

// Healthz reports process liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns returns the most recent recorded runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > 200 {
			parsed = 200
		}
		limit = parsed
	}

	runs, err := h.History.RecentRuns(r.Context(), limit)
	if err != nil {
		h.reqLogger(r).Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun returns one run with its full report payload.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.History.GetRun(r.Context(), id)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, nf.Message)
			return
		}
		h.reqLogger(r).Error("get run failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}

	resp := map[string]interface{}{"run": rec}
	if len(rec.Payload) > 0 {
		resp["report"] = json.RawMessage(rec.Payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Audit triggers a live role/grant snapshot against the warehouse.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse session configured")
		return
	}
	targetDB := r.URL.Query().Get("database")
	if targetDB == "" {
		targetDB = h.DefaultDatabase
	}
	snap := h.Verifier.Snapshot(r.Context(), h.AuditRoles, targetDB)
	writeJSON(w, http.StatusOK, snap)
}

// Validate checks one source/target pair for clone lineage.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse session configured")
		return
	}
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		writeError(w, http.StatusBadRequest, "source and target query parameters are required")
		return
	}
	writeJSON(w, http.StatusOK, h.Verifier.ValidateClone(r.Context(), source, target))
}

// CloneHistory lists recorded clone lineage, optionally filtered by name.
func (h *Handler) CloneHistory(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse session configured")
		return
	}
	records := h.Verifier.CloneHistory(r.Context(), r.URL.Query().Get("filter"))
	if records == nil {
		records = []domain.CloneRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clones": records})
}

// ListSchedules reports the refresh schedules and their next run times.
func (h *Handler) ListSchedules(w http.ResponseWriter, _ *http.Request) {
	entries := []refresh.Entry{}
	if h.Schedules != nil {
		entries = h.Schedules.Entries()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": entries})
}

// Overview renders the HTML landing page with recent runs.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	runs, err := h.History.RecentRuns(r.Context(), 15)
	if err != nil {
		h.reqLogger(r).Error("overview: list runs failed", "error", err)
		runs = nil
	}
	var schedules []refresh.Entry
	if h.Schedules != nil {
		schedules = h.Schedules.Entries()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = overviewPage(runs, schedules).Render(w)
}
