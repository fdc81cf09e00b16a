package integration

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// PostingMetrics counts posting outcomes per source kind.
type PostingMetrics interface {
	AddPostings(kind, outcome string, count int)
}

// SyncQueue hands a full sync pass to the background worker.
type SyncQueue interface {
	EnqueueSync(ctx context.Context, resolveLinks bool) error
}

// Handler exposes the posting engine over HTTP.
type Handler struct {
	logger  *slog.Logger
	engine  *Engine
	metrics PostingMetrics
	queue   SyncQueue
}

// NewHandler constructs the sync HTTP handler.
func NewHandler(logger *slog.Logger, engine *Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, engine: engine}
}

// WithMetrics attaches a posting outcome counter.
func (h *Handler) WithMetrics(m PostingMetrics) *Handler {
	h.metrics = m
	return h
}

// WithQueue enables async sync requests (?async=true) via the worker queue.
func (h *Handler) WithQueue(q SyncQueue) *Handler {
	h.queue = q
	return h
}

func (h *Handler) countPostings(kind records.Kind, result PostResult) {
	if h.metrics == nil {
		return
	}
	h.metrics.AddPostings(string(kind), "posted", result.Posted)
	h.metrics.AddPostings(string(kind), "skipped", result.Skipped)
}

// MountRoutes registers sync endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/", h.handleSyncAll)
	r.Post("/{kind}", h.handleSyncKind)
}

// MountReverseRoutes registers the reversal endpoint onto the router.
func (h *Handler) MountReverseRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/{kind}/{id}", h.handleReverse)
}

type syncResponse struct {
	Results map[records.Kind]PostResult `json:"results"`
}

func (h *Handler) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	if h.queue != nil && r.URL.Query().Get("async") == "true" {
		if err := h.queue.EnqueueSync(r.Context(), true); err != nil {
			h.logger.Error("enqueue sync", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
		return
	}
	results, err := h.engine.SyncAll(r.Context())
	if err != nil {
		h.logger.Error("sync all", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	for kind, result := range results {
		h.countPostings(kind, result)
	}
	httpx.JSON(w, http.StatusOK, syncResponse{Results: results})
}

func (h *Handler) handleSyncKind(w http.ResponseWriter, r *http.Request) {
	kind := records.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown record kind "+string(kind))
		return
	}
	result, err := h.engine.PostAll(r.Context(), kind)
	if err != nil {
		h.logger.Error("sync kind", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.countPostings(kind, result)
	httpx.JSON(w, http.StatusOK, result)
}

type reverseResponse struct {
	Kind     records.Kind `json:"kind"`
	RecordID string       `json:"recordId"`
	Reversed bool         `json:"reversed"`
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	kind := records.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown record kind "+string(kind))
		return
	}
	recordID := chi.URLParam(r, "id")
	if recordID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "record id required")
		return
	}
	reversed, err := h.engine.Reverse(r.Context(), kind, recordID)
	if err != nil {
		h.logger.Error("reverse", slog.String("kind", string(kind)), slog.String("record_id", recordID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reverseResponse{Kind: kind, RecordID: recordID, Reversed: reversed})
}
