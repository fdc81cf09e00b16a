package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler exposes reporting reads over HTTP.
type Handler struct {
	logger     *slog.Logger
	aggregator *Aggregator
	now        func() time.Time
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, aggregator *Aggregator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, aggregator: aggregator, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/summary", h.handleSummary)
}

// MountLedgerRoutes registers the raw ledger listing onto the router.
func (h *Handler) MountLedgerRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/", h.handleLedger)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	summary, err := h.aggregator.Summarize(r.Context(), from, to)
	if err != nil {
		h.logger.Error("summarize", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

type ledgerResponse struct {
	Entries []ledger.Entry `json:"entries"`
	Count   int            `json:"count"`
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	var (
		entries []ledger.Entry
		err     error
	)
	if r.URL.Query().Get("from") == "" && r.URL.Query().Get("to") == "" {
		entries, err = h.aggregator.LedgerEntries(r.Context())
	} else {
		var from, to time.Time
		from, to, err = h.parseRange(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		entries, err = h.aggregator.LedgerEntriesByDateRange(r.Context(), from, to)
	}
	if err != nil {
		h.logger.Error("list ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledgerResponse{Entries: entries, Count: len(entries)})
}

// parseRange reads from/to query parameters, defaulting to the trailing 30
// days when absent.
func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now().UTC()
	to := now
	from := now.AddDate(0, 0, -30)

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// inclusive upper bound for a date-only value
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to precedes from")
	}
	return from, to, nil
}
