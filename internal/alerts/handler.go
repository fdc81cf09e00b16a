package alerts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler exposes the alert scanner over HTTP.
type Handler struct {
	logger  *slog.Logger
	scanner *Scanner
	rules   Rules
}

// NewHandler constructs the alerts HTTP handler.
func NewHandler(logger *slog.Logger, scanner *Scanner, rules Rules) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, scanner: scanner, rules: rules}
}

// MountRoutes registers alert endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleScan)
}

type scanResponse struct {
	Alerts []Alert `json:"alerts"`
	Count  int     `json:"count"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	found, err := h.scanner.Scan(r.Context(), h.rules)
	if err != nil {
		h.logger.Error("alert scan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scanResponse{Alerts: found, Count: len(found)})
}
