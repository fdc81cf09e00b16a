package links

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Handler exposes the cross-link resolver over HTTP.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
}

// NewHandler constructs the links HTTP handler.
func NewHandler(logger *slog.Logger, resolver *Resolver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, resolver: resolver}
}

// MountRoutes registers link resolution endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/{kind}", h.handleResolve)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	kind := records.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown record kind "+string(kind))
		return
	}
	result, err := h.resolver.ResolveLinks(r.Context(), kind)
	if err != nil {
		h.logger.Error("resolve links", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
