package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/records"
)

func newTestRouter(t *testing.T) (*fixture, chi.Router) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(nil, f.engine)
	r := chi.NewRouter()
	r.Route("/api/sync", h.MountRoutes)
	r.Route("/api/reverse", h.MountReverseRoutes)
	return f, r
}

func TestSyncKindEndpoint(t *testing.T) {
	f, router := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/expense", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result PostResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 1, result.Posted)
	require.Equal(t, 0, result.Skipped)
}

func TestSyncKindEndpointRejectsUnknownKind(t *testing.T) {
	_, router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/widget", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncAllEndpoint(t *testing.T) {
	f, router := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results map[records.Kind]PostResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, len(records.Kinds()))
	require.Equal(t, 1, resp.Results[records.KindExpense].Posted)
}

type queueStub struct {
	calls int
}

func (q *queueStub) EnqueueSync(ctx context.Context, resolveLinks bool) error {
	q.calls++
	return nil
}

func TestSyncAllEndpointEnqueuesWhenAsync(t *testing.T) {
	f := newFixture(t)
	queue := &queueStub{}
	h := NewHandler(nil, f.engine).WithQueue(queue)
	r := chi.NewRouter()
	r.Route("/api/sync", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync?async=true", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, queue.calls)
}

func TestReverseEndpoint(t *testing.T) {
	f, router := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
	}))
	_, err := f.engine.PostAll(ctx, records.KindExpense)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reverse/expense/EXP_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reversed bool `json:"reversed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Reversed)

	entries, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}
