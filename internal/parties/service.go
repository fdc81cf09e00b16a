package parties

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Service maintains the derived rollup counters on owner entities. Rollups are
// advisory caches: payroll posting nudges them incrementally, and
// RecomputeRollups regenerates all of them from source records.
type Service struct {
	store   *Store
	sources *records.Store
}

// NewService builds Service.
func NewService(store *Store, sources *records.Store) *Service {
	return &Service{store: store, sources: sources}
}

// Store exposes the underlying owner store.
func (s *Service) Store() *Store {
	return s.store
}

// AddPaidSalary credits a posted payroll amount to the employee summary.
func (s *Service) AddPaidSalary(ctx context.Context, employeeID string, amount float64, month string) error {
	return s.adjustSalary(ctx, employeeID, amount, month)
}

// RemovePaidSalary reverts a reversed payroll amount from the employee summary.
func (s *Service) RemovePaidSalary(ctx context.Context, employeeID string, amount float64) error {
	return s.adjustSalary(ctx, employeeID, -amount, "")
}

func (s *Service) adjustSalary(ctx context.Context, employeeID string, delta float64, month string) error {
	if employeeID == "" {
		return nil
	}
	employees, err := s.store.Employees(ctx)
	if err != nil {
		return err
	}
	for i := range employees {
		if employees[i].ID != employeeID {
			continue
		}
		employees[i].TotalPaidSalaries += delta
		if employees[i].TotalPaidSalaries < 0 {
			employees[i].TotalPaidSalaries = 0
		}
		if month != "" {
			employees[i].LastPaidMonth = month
		}
		return s.store.SaveEmployees(ctx, employees)
	}
	return fmt.Errorf("parties: employee %s not found", employeeID)
}

// RecomputeRollups regenerates every derived counter from the source records.
// The caches are never the source of truth, so a full rebuild is always safe.
func (s *Service) RecomputeRollups(ctx context.Context) error {
	customers, err := s.store.Customers(ctx)
	if err != nil {
		return err
	}
	suppliers, err := s.store.Suppliers(ctx)
	if err != nil {
		return err
	}
	employees, err := s.store.Employees(ctx)
	if err != nil {
		return err
	}

	invoices, err := s.sources.SalesInvoices(ctx)
	if err != nil {
		return err
	}
	purchases, err := s.sources.PurchaseInvoices(ctx)
	if err != nil {
		return err
	}
	returns, err := s.sources.Returns(ctx)
	if err != nil {
		return err
	}
	installments, err := s.sources.Installments(ctx)
	if err != nil {
		return err
	}
	payroll, err := s.sources.PayrollRecords(ctx)
	if err != nil {
		return err
	}

	for i := range customers {
		customers[i].TotalDebt = 0
		customers[i].OrderCount = 0
		customers[i].TotalReturns = 0
		customers[i].HasInstallments = false
	}
	for i := range suppliers {
		suppliers[i].TotalPurchases = 0
	}
	for i := range employees {
		employees[i].TotalPaidSalaries = 0
		employees[i].LastPaidMonth = ""
	}

	customerIdx := make(map[string]int, len(customers))
	for i, c := range customers {
		customerIdx[c.ID] = i
	}
	supplierIdx := make(map[string]int, len(suppliers))
	for i, sp := range suppliers {
		supplierIdx[sp.ID] = i
	}
	employeeIdx := make(map[string]int, len(employees))
	for i, e := range employees {
		employeeIdx[e.ID] = i
	}

	for _, inv := range invoices {
		i, ok := customerIdx[inv.CustomerID]
		if !ok {
			continue
		}
		if inv.Status != records.StatusCancelled {
			customers[i].OrderCount++
		}
		if inv.Status == records.StatusPending {
			customers[i].TotalDebt += inv.Total
		}
	}
	for _, inst := range installments {
		i, ok := customerIdx[inst.CustomerID]
		if !ok {
			continue
		}
		customers[i].HasInstallments = true
		if inst.Status == records.StatusPending {
			customers[i].TotalDebt += inst.Amount
		}
	}
	for _, ret := range returns {
		if i, ok := customerIdx[ret.CustomerID]; ok && ret.Status == records.StatusProcessed {
			customers[i].TotalReturns += ret.Total
		}
	}
	for _, p := range purchases {
		if i, ok := supplierIdx[p.SupplierID]; ok && records.Realized(records.KindPurchaseInvoice, p.Status) {
			suppliers[i].TotalPurchases += p.Total
		}
	}
	for _, pr := range payroll {
		i, ok := employeeIdx[pr.EmployeeID]
		if !ok || !records.Realized(records.KindPayroll, pr.Status) {
			continue
		}
		employees[i].TotalPaidSalaries += pr.NetSalary
		if pr.Month > employees[i].LastPaidMonth {
			employees[i].LastPaidMonth = pr.Month
		}
	}

	if err := s.store.SaveCustomers(ctx, customers); err != nil {
		return err
	}
	if err := s.store.SaveSuppliers(ctx, suppliers); err != nil {
		return err
	}
	return s.store.SaveEmployees(ctx, employees)
}
