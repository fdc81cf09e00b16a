package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

func TestAlertsEndpoint(t *testing.T) {
	scanner, _, inv := newScanner(t)
	ctx := context.Background()

	require.NoError(t, inv.SaveProducts(ctx, []inventory.Product{
		{ID: "P1", Name: "Lamp", Stock: 0, MinStock: 5},
	}))

	r := chi.NewRouter()
	r.Route("/api/alerts", NewHandler(nil, scanner, DefaultRules()).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Alerts []Alert `json:"alerts"`
		Count  int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "out_of_stock", resp.Alerts[0].Kind)
	require.Equal(t, SeverityHigh, resp.Alerts[0].Severity)
}
