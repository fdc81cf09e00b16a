package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
)

// Service coordinates product stock reads and movements.
type Service struct {
	kv  kv.Store
	now func() time.Time
}

// NewService builds Service.
func NewService(store kv.Store) *Service {
	return &Service{kv: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock, used in tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Products returns the full product collection.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return kv.GetList[Product](ctx, s.kv, KeyProducts)
}

// SaveProducts replaces the product collection.
func (s *Service) SaveProducts(ctx context.Context, items []Product) error {
	return s.kv.Set(ctx, KeyProducts, items)
}

// AddStockMovement applies a quantity change to a product and records the
// movement. Negative quantities floor the stock at zero so a double reversal
// can never drive stock negative. Only return movements adjust the product's
// returned-quantity counter; sales and adjustments leave it alone.
func (s *Service) AddStockMovement(ctx context.Context, productID, kind string, quantity, value float64, referenceID string) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	products, err := s.Products(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range products {
		if products[i].ID != productID {
			continue
		}
		found = true
		next := products[i].Stock + quantity
		if next < 0 {
			next = 0
		}
		products[i].Stock = next
		if kind == MovementReturn {
			products[i].ReturnedQty += quantity
			if products[i].ReturnedQty < 0 {
				products[i].ReturnedQty = 0
			}
		}
		break
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err := s.SaveProducts(ctx, products); err != nil {
		return err
	}

	movements, err := kv.GetList[Movement](ctx, s.kv, KeyStockMovements)
	if err != nil {
		return err
	}
	movements = append(movements, Movement{
		ID:          uuid.NewString(),
		ProductID:   productID,
		Kind:        kind,
		Quantity:    quantity,
		Value:       value,
		ReferenceID: referenceID,
		CreatedAt:   s.now(),
	})
	return s.kv.Set(ctx, KeyStockMovements, movements)
}

// LowStock returns products at or below their minimum stock, excluding the
// ones already out of stock.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0)
	for _, p := range products {
		if p.Stock > 0 && p.Stock <= p.MinStock {
			out = append(out, p)
		}
	}
	return out, nil
}

// OutOfStock returns products with zero stock.
func (s *Service) OutOfStock(ctx context.Context) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0)
	for _, p := range products {
		if p.Stock <= 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// Movements returns the movement log for one product, newest last.
func (s *Service) Movements(ctx context.Context, productID string) ([]Movement, error) {
	movements, err := kv.GetList[Movement](ctx, s.kv, KeyStockMovements)
	if err != nil {
		return nil, err
	}
	out := make([]Movement, 0)
	for _, m := range movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}
