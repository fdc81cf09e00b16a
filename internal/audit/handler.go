package audit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// RollupRebuilder regenerates owner rollups from source records.
type RollupRebuilder interface {
	RecomputeRollups(ctx context.Context) error
}

// Handler exposes the integrity auditor over HTTP.
type Handler struct {
	logger  *slog.Logger
	auditor *Auditor
	rollups RollupRebuilder
}

// NewHandler constructs the audit HTTP handler.
func NewHandler(logger *slog.Logger, auditor *Auditor, rollups RollupRebuilder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, auditor: auditor, rollups: rollups}
}

// MountRoutes registers audit endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleAudit)
	r.Post("/repair", h.handleRepair)
	r.Post("/rollups", h.handleRollups)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.Audit(r.Context())
	if err != nil {
		h.logger.Error("audit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleRepair(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.Repair(r.Context())
	if err != nil {
		h.logger.Error("repair", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleRollups(w http.ResponseWriter, r *http.Request) {
	if h.rollups == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "rollup rebuild not configured")
		return
	}
	if err := h.rollups.RecomputeRollups(r.Context()); err != nil {
		h.logger.Error("recompute rollups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
