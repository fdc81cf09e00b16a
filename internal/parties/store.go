package parties

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
)

// Store reads and writes the owner collections.
type Store struct {
	kv kv.Store
}

// NewStore constructs a Store over the key-value port.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Customers returns the customer collection.
func (s *Store) Customers(ctx context.Context) ([]Customer, error) {
	return kv.GetList[Customer](ctx, s.kv, KeyCustomers)
}

// SaveCustomers replaces the customer collection.
func (s *Store) SaveCustomers(ctx context.Context, items []Customer) error {
	return s.kv.Set(ctx, KeyCustomers, items)
}

// Suppliers returns the supplier collection.
func (s *Store) Suppliers(ctx context.Context) ([]Supplier, error) {
	return kv.GetList[Supplier](ctx, s.kv, KeySuppliers)
}

// SaveSuppliers replaces the supplier collection.
func (s *Store) SaveSuppliers(ctx context.Context, items []Supplier) error {
	return s.kv.Set(ctx, KeySuppliers, items)
}

// Employees returns the employee collection.
func (s *Store) Employees(ctx context.Context) ([]Employee, error) {
	return kv.GetList[Employee](ctx, s.kv, KeyEmployees)
}

// SaveEmployees replaces the employee collection.
func (s *Store) SaveEmployees(ctx context.Context, items []Employee) error {
	return s.kv.Set(ctx, KeyEmployees, items)
}
