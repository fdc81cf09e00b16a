package inventory

import (
	"errors"
	"time"
)

// Collection keys in the key-value store.
const (
	KeyProducts       = "products"
	KeyStockMovements = "stock_movements"
)

// Movement kinds. Only return movements touch a product's returned-quantity
// counter.
const (
	MovementReturn     = "return"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
)

// ErrInvalidQuantity indicates a zero quantity movement.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non-zero")

// ErrProductNotFound indicates the movement references an unknown product.
var ErrProductNotFound = errors.New("inventory: product not found")

// Product is a sellable item with a running stock level.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SKU         string  `json:"sku,omitempty"`
	Stock       float64 `json:"stock"`
	MinStock    float64 `json:"minStock"`
	Price       float64 `json:"price"`
	Cost        float64 `json:"cost"`
	ReturnedQty float64 `json:"returnedQty"`
}

// Movement records one stock change with the record that caused it.
type Movement struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	Kind        string    `json:"kind"`
	Quantity    float64   `json:"quantity"`
	Value       float64   `json:"value"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}
