package inventory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
)

func newService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(kv.NewRedisWithClient(client, ""))
}

func seed(t *testing.T, svc *Service, products ...Product) {
	t.Helper()
	require.NoError(t, svc.SaveProducts(context.Background(), products))
}

func TestAddStockMovement(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed(t, svc, Product{ID: "P1", Name: "Tea", Stock: 10})

	require.NoError(t, svc.AddStockMovement(ctx, "P1", MovementReturn, 3, 45, "RET_1"))

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 13.0, products[0].Stock, 0.0001)
	require.InDelta(t, 3.0, products[0].ReturnedQty, 0.0001)

	movements, err := svc.Movements(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, "RET_1", movements[0].ReferenceID)
	require.Equal(t, MovementReturn, movements[0].Kind)
}

func TestSaleMovementLeavesReturnedQty(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed(t, svc, Product{ID: "P1", Name: "Tea", Stock: 10, ReturnedQty: 4})

	require.NoError(t, svc.AddStockMovement(ctx, "P1", MovementSale, -3, 0, "INV_1"))

	products, err := svc.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 7.0, products[0].Stock, 0.0001)
	require.InDelta(t, 4.0, products[0].ReturnedQty, 0.0001)
}

func TestNegativeMovementFloorsAtZero(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed(t, svc, Product{ID: "P1", Name: "Tea", Stock: 2})

	require.NoError(t, svc.AddStockMovement(ctx, "P1", MovementReturn, -5, 0, "RET_1"))
	products, err := svc.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.0, products[0].Stock, 0.0001)

	// double reversal still never goes below zero
	require.NoError(t, svc.AddStockMovement(ctx, "P1", MovementReturn, -5, 0, "RET_1"))
	products, err = svc.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.0, products[0].Stock, 0.0001)
}

func TestMovementValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed(t, svc, Product{ID: "P1", Name: "Tea", Stock: 2})

	require.ErrorIs(t, svc.AddStockMovement(ctx, "P1", MovementReturn, 0, 0, "RET_1"), ErrInvalidQuantity)
	require.ErrorIs(t, svc.AddStockMovement(ctx, "P9", MovementReturn, 1, 0, "RET_1"), ErrProductNotFound)
}

func TestLowAndOutOfStock(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed(t, svc,
		Product{ID: "P1", Name: "Tea", Stock: 2, MinStock: 5},
		Product{ID: "P2", Name: "Sugar", Stock: 0, MinStock: 5},
		Product{ID: "P3", Name: "Rice", Stock: 50, MinStock: 5},
	)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "P1", low[0].ID)

	out, err := svc.OutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "P2", out[0].ID)
}
