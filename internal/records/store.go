package records

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
)

// Store reads and writes the source record collections.
type Store struct {
	kv kv.Store
}

// NewStore constructs a Store over the key-value port.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Expenses returns the expense collection.
func (s *Store) Expenses(ctx context.Context) ([]Expense, error) {
	return kv.GetList[Expense](ctx, s.kv, KeyExpenses)
}

// SaveExpenses replaces the expense collection.
func (s *Store) SaveExpenses(ctx context.Context, items []Expense) error {
	return s.kv.Set(ctx, KeyExpenses, items)
}

// PayrollRecords returns the payroll collection.
func (s *Store) PayrollRecords(ctx context.Context) ([]PayrollRecord, error) {
	return kv.GetList[PayrollRecord](ctx, s.kv, KeyPayrollRecords)
}

// SavePayrollRecords replaces the payroll collection.
func (s *Store) SavePayrollRecords(ctx context.Context, items []PayrollRecord) error {
	return s.kv.Set(ctx, KeyPayrollRecords, items)
}

// Returns returns the merchandise return collection.
func (s *Store) Returns(ctx context.Context) ([]Return, error) {
	return kv.GetList[Return](ctx, s.kv, KeyReturns)
}

// SaveReturns replaces the return collection.
func (s *Store) SaveReturns(ctx context.Context, items []Return) error {
	return s.kv.Set(ctx, KeyReturns, items)
}

// Checks returns the check collection.
func (s *Store) Checks(ctx context.Context) ([]Check, error) {
	return kv.GetList[Check](ctx, s.kv, KeyChecks)
}

// SaveChecks replaces the check collection.
func (s *Store) SaveChecks(ctx context.Context, items []Check) error {
	return s.kv.Set(ctx, KeyChecks, items)
}

// Installments returns the installment collection.
func (s *Store) Installments(ctx context.Context) ([]Installment, error) {
	return kv.GetList[Installment](ctx, s.kv, KeyInstallments)
}

// SaveInstallments replaces the installment collection.
func (s *Store) SaveInstallments(ctx context.Context, items []Installment) error {
	return s.kv.Set(ctx, KeyInstallments, items)
}

// SalesInvoices returns the sales invoice collection.
func (s *Store) SalesInvoices(ctx context.Context) ([]SalesInvoice, error) {
	return kv.GetList[SalesInvoice](ctx, s.kv, KeySalesInvoices)
}

// SaveSalesInvoices replaces the sales invoice collection.
func (s *Store) SaveSalesInvoices(ctx context.Context, items []SalesInvoice) error {
	return s.kv.Set(ctx, KeySalesInvoices, items)
}

// PurchaseInvoices returns the purchase invoice collection.
func (s *Store) PurchaseInvoices(ctx context.Context) ([]PurchaseInvoice, error) {
	return kv.GetList[PurchaseInvoice](ctx, s.kv, KeyPurchaseInvoices)
}

// SavePurchaseInvoices replaces the purchase invoice collection.
func (s *Store) SavePurchaseInvoices(ctx context.Context, items []PurchaseInvoice) error {
	return s.kv.Set(ctx, KeyPurchaseInvoices, items)
}

// Exists reports whether a record with the given id exists in the kind's
// collection. Used by the integrity auditor to detect dangling references.
func (s *Store) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	switch kind {
	case KindExpense:
		items, err := s.Expenses(ctx)
		return containsID(items, err, func(r Expense) string { return r.ID }, id)
	case KindPayroll:
		items, err := s.PayrollRecords(ctx)
		return containsID(items, err, func(r PayrollRecord) string { return r.ID }, id)
	case KindReturn:
		items, err := s.Returns(ctx)
		return containsID(items, err, func(r Return) string { return r.ID }, id)
	case KindCheck:
		items, err := s.Checks(ctx)
		return containsID(items, err, func(r Check) string { return r.ID }, id)
	case KindInstallment:
		items, err := s.Installments(ctx)
		return containsID(items, err, func(r Installment) string { return r.ID }, id)
	case KindSalesInvoice:
		items, err := s.SalesInvoices(ctx)
		return containsID(items, err, func(r SalesInvoice) string { return r.ID }, id)
	case KindPurchaseInvoice:
		items, err := s.PurchaseInvoices(ctx)
		return containsID(items, err, func(r PurchaseInvoice) string { return r.ID }, id)
	}
	return false, fmt.Errorf("records: unknown kind %q", kind)
}

// Count returns the number of records in the kind's collection.
func (s *Store) Count(ctx context.Context, kind Kind) (int, error) {
	switch kind {
	case KindExpense:
		items, err := s.Expenses(ctx)
		return len(items), err
	case KindPayroll:
		items, err := s.PayrollRecords(ctx)
		return len(items), err
	case KindReturn:
		items, err := s.Returns(ctx)
		return len(items), err
	case KindCheck:
		items, err := s.Checks(ctx)
		return len(items), err
	case KindInstallment:
		items, err := s.Installments(ctx)
		return len(items), err
	case KindSalesInvoice:
		items, err := s.SalesInvoices(ctx)
		return len(items), err
	case KindPurchaseInvoice:
		items, err := s.PurchaseInvoices(ctx)
		return len(items), err
	}
	return 0, fmt.Errorf("records: unknown kind %q", kind)
}

func containsID[T any](items []T, err error, id func(T) string, want string) (bool, error) {
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if id(item) == want {
			return true, nil
		}
	}
	return false, nil
}
