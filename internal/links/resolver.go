// Package links fills missing owner foreign keys on source records using
// exact, case-sensitive name matching. The matching is a documented
// best-effort heuristic: no fuzzy matching, no guessing on ambiguity. When
// several entities share a name the first one in collection scan order
// (customers, then suppliers, then employees) wins.
package links

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Resolver links records to their owner entities.
type Resolver struct {
	sources *records.Store
	owners  *parties.Store
	logger  *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(sources *records.Store, owners *parties.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sources: sources, owners: owners, logger: logger}
}

// LinkResult summarises one resolution pass.
type LinkResult struct {
	Linked int      `json:"linked"`
	Notes  []string `json:"notes,omitempty"`
}

// ResolveLinks fills missing owner keys for the kind. Resolution is
// monotonic: records that already carry an owner key are never touched.
func (r *Resolver) ResolveLinks(ctx context.Context, kind records.Kind) (LinkResult, error) {
	switch kind {
	case records.KindCheck:
		return r.resolveChecks(ctx)
	case records.KindInstallment:
		return r.resolveInstallments(ctx)
	case records.KindPayroll:
		return r.resolvePayroll(ctx)
	case records.KindExpense, records.KindReturn, records.KindSalesInvoice, records.KindPurchaseInvoice:
		// these kinds carry their owner from creation; nothing to resolve
		return LinkResult{}, nil
	}
	return LinkResult{}, fmt.Errorf("links: unknown kind %q", kind)
}

// ownerMatch is a resolved owner reference.
type ownerMatch struct {
	id        string
	ownerType parties.OwnerType
}

// findByName scans customers, suppliers, then employees for an exact
// case-sensitive name match and stops at the first hit.
func (r *Resolver) findByName(ctx context.Context, name string) (ownerMatch, bool, error) {
	if name == "" {
		return ownerMatch{}, false, nil
	}
	customers, err := r.owners.Customers(ctx)
	if err != nil {
		return ownerMatch{}, false, err
	}
	for _, c := range customers {
		if c.Name == name {
			return ownerMatch{id: c.ID, ownerType: parties.OwnerCustomer}, true, nil
		}
	}
	suppliers, err := r.owners.Suppliers(ctx)
	if err != nil {
		return ownerMatch{}, false, err
	}
	for _, s := range suppliers {
		if s.Name == name {
			return ownerMatch{id: s.ID, ownerType: parties.OwnerSupplier}, true, nil
		}
	}
	employees, err := r.owners.Employees(ctx)
	if err != nil {
		return ownerMatch{}, false, err
	}
	for _, e := range employees {
		if e.Name == name {
			return ownerMatch{id: e.ID, ownerType: parties.OwnerEmployee}, true, nil
		}
	}
	return ownerMatch{}, false, nil
}

func (r *Resolver) resolveChecks(ctx context.Context) (LinkResult, error) {
	checks, err := r.sources.Checks(ctx)
	if err != nil {
		return LinkResult{}, err
	}
	var result LinkResult
	changed := false
	for i := range checks {
		if checks[i].OwnerID != "" {
			continue
		}
		match, ok, err := r.findByName(ctx, checks[i].OwnerName)
		if err != nil {
			return LinkResult{}, err
		}
		if !ok {
			result.Notes = append(result.Notes, fmt.Sprintf("no owner match for check %s (%q)", checks[i].ID, checks[i].OwnerName))
			continue
		}
		checks[i].OwnerID = match.id
		checks[i].OwnerType = string(match.ownerType)
		result.Linked++
		changed = true
	}
	if changed {
		if err := r.sources.SaveChecks(ctx, checks); err != nil {
			return LinkResult{}, err
		}
	}
	r.logResult(records.KindCheck, result)
	return result, nil
}

func (r *Resolver) resolveInstallments(ctx context.Context) (LinkResult, error) {
	installments, err := r.sources.Installments(ctx)
	if err != nil {
		return LinkResult{}, err
	}
	customers, err := r.owners.Customers(ctx)
	if err != nil {
		return LinkResult{}, err
	}
	var result LinkResult
	changed := false
	for i := range installments {
		if installments[i].CustomerID != "" {
			continue
		}
		matched := false
		for _, c := range customers {
			if c.Name != "" && c.Name == installments[i].CustomerName {
				installments[i].CustomerID = c.ID
				result.Linked++
				changed = true
				matched = true
				break
			}
		}
		if !matched {
			result.Notes = append(result.Notes, fmt.Sprintf("no customer match for installment %s (%q)", installments[i].ID, installments[i].CustomerName))
		}
	}
	if changed {
		if err := r.sources.SaveInstallments(ctx, installments); err != nil {
			return LinkResult{}, err
		}
	}
	r.logResult(records.KindInstallment, result)
	return result, nil
}

func (r *Resolver) resolvePayroll(ctx context.Context) (LinkResult, error) {
	payroll, err := r.sources.PayrollRecords(ctx)
	if err != nil {
		return LinkResult{}, err
	}
	employees, err := r.owners.Employees(ctx)
	if err != nil {
		return LinkResult{}, err
	}
	var result LinkResult
	changed := false
	for i := range payroll {
		if payroll[i].EmployeeID != "" {
			continue
		}
		matched := false
		for _, e := range employees {
			if e.Name != "" && e.Name == payroll[i].EmployeeName {
				payroll[i].EmployeeID = e.ID
				result.Linked++
				changed = true
				matched = true
				break
			}
		}
		if !matched {
			result.Notes = append(result.Notes, fmt.Sprintf("no employee match for payroll %s (%q)", payroll[i].ID, payroll[i].EmployeeName))
		}
	}
	if changed {
		if err := r.sources.SavePayrollRecords(ctx, payroll); err != nil {
			return LinkResult{}, err
		}
	}
	r.logResult(records.KindPayroll, result)
	return result, nil
}

func (r *Resolver) logResult(kind records.Kind, result LinkResult) {
	r.logger.Info("link resolution completed",
		slog.String("kind", string(kind)),
		slog.Int("linked", result.Linked),
		slog.Int("unresolved", len(result.Notes)),
	)
}
