// Package audit verifies ledger/source consistency. Dangling ledger
// references are repairable (the entry is deleted); rollup mismatches on
// owner entities are advisory and only ever reported, since the counters are
// recomputable caches and silent deletion would hide data problems.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Auditor scans the ledger and owner rollups for integrity issues.
type Auditor struct {
	sources *records.Store
	owners  *parties.Store
	ledger  *ledger.Store
	logger  *slog.Logger
}

// NewAuditor builds an Auditor.
func NewAuditor(sources *records.Store, owners *parties.Store, led *ledger.Store, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{sources: sources, owners: owners, ledger: led, logger: logger}
}

// Report summarises one audit or repair pass.
type Report struct {
	Fixed  int      `json:"fixed"`
	Issues []string `json:"issues"`
}

// Audit reports every integrity issue without changing anything.
func (a *Auditor) Audit(ctx context.Context) (Report, error) {
	return a.run(ctx, false)
}

// Repair deletes dangling ledger entries and reports everything else.
func (a *Auditor) Repair(ctx context.Context) (Report, error) {
	return a.run(ctx, true)
}

func (a *Auditor) run(ctx context.Context, repair bool) (Report, error) {
	report := Report{Issues: []string{}}

	ids, err := a.sourceIDs(ctx)
	if err != nil {
		return Report{}, err
	}
	entries, err := a.ledger.List(ctx)
	if err != nil {
		return Report{}, err
	}

	for _, entry := range entries {
		if entry.ReferenceID == "" {
			continue
		}
		kind := records.Kind(entry.ReferenceType)
		if !kind.Valid() {
			report.Issues = append(report.Issues,
				fmt.Sprintf("ledger entry %s has unknown reference type %q", entry.ID, entry.ReferenceType))
			continue
		}
		if ids[kind][entry.ReferenceID] {
			continue
		}
		report.Issues = append(report.Issues,
			fmt.Sprintf("ledger entry %s references missing %s %s", entry.ID, entry.ReferenceType, entry.ReferenceID))
		if repair {
			removed, err := a.ledger.RemoveByID(ctx, entry.ID)
			if err != nil {
				return Report{}, err
			}
			if removed {
				report.Fixed++
			}
		}
	}

	if err := a.checkRollups(ctx, &report); err != nil {
		return Report{}, err
	}

	a.logger.Info("integrity pass completed",
		slog.Bool("repair", repair),
		slog.Int("issues", len(report.Issues)),
		slog.Int("fixed", report.Fixed),
	)
	return report, nil
}

func (a *Auditor) sourceIDs(ctx context.Context) (map[records.Kind]map[string]bool, error) {
	ids := make(map[records.Kind]map[string]bool, len(records.Kinds()))
	for _, kind := range records.Kinds() {
		ids[kind] = make(map[string]bool)
	}
	expenses, err := a.sources.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range expenses {
		ids[records.KindExpense][r.ID] = true
	}
	payroll, err := a.sources.PayrollRecords(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range payroll {
		ids[records.KindPayroll][r.ID] = true
	}
	returns, err := a.sources.Returns(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range returns {
		ids[records.KindReturn][r.ID] = true
	}
	checks, err := a.sources.Checks(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range checks {
		ids[records.KindCheck][r.ID] = true
	}
	installments, err := a.sources.Installments(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range installments {
		ids[records.KindInstallment][r.ID] = true
	}
	sales, err := a.sources.SalesInvoices(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range sales {
		ids[records.KindSalesInvoice][r.ID] = true
	}
	purchases, err := a.sources.PurchaseInvoices(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range purchases {
		ids[records.KindPurchaseInvoice][r.ID] = true
	}
	return ids, nil
}

// checkRollups verifies the derived counters on owner entities against source
// records. Findings are advisory only.
func (a *Auditor) checkRollups(ctx context.Context, report *Report) error {
	customers, err := a.owners.Customers(ctx)
	if err != nil {
		return err
	}
	installments, err := a.sources.Installments(ctx)
	if err != nil {
		return err
	}
	byCustomer := make(map[string]int, len(installments))
	for _, inst := range installments {
		byCustomer[inst.CustomerID]++
	}
	for _, c := range customers {
		if c.HasInstallments && byCustomer[c.ID] == 0 {
			report.Issues = append(report.Issues,
				fmt.Sprintf("customer %s flagged hasInstallments without any installment", c.ID))
		}
	}

	employees, err := a.owners.Employees(ctx)
	if err != nil {
		return err
	}
	payroll, err := a.sources.PayrollRecords(ctx)
	if err != nil {
		return err
	}
	paid := make(map[string]float64, len(payroll))
	for _, pr := range payroll {
		if records.Realized(records.KindPayroll, pr.Status) {
			paid[pr.EmployeeID] += pr.NetSalary
		}
	}
	for _, e := range employees {
		if math.Abs(e.TotalPaidSalaries-paid[e.ID]) > 0.01 {
			report.Issues = append(report.Issues,
				fmt.Sprintf("employee %s paid-salary rollup %.2f does not match payroll total %.2f", e.ID, e.TotalPaidSalaries, paid[e.ID]))
		}
	}
	return nil
}
