package integration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/records"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Reverse removes the ledger entry for a source record whose status regressed
// out of its realized state or that was deleted outright. It reports whether
// an entry was removed. Reversing an absent posting is a no-op, so the call is
// as safe to repeat as posting is.
//
// Returns additionally revert the stock restoration performed at posting
// time, floored at zero; payroll reversal reverts the employee summary.
func (e *Engine) Reverse(ctx context.Context, kind records.Kind, recordID string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("integration: unknown kind %q", kind)
	}
	if recordID == "" {
		return false, fmt.Errorf("integration: record id required")
	}

	unlock := e.locks.Lock(shared.PostingLockKey(string(kind), recordID))
	defer unlock()

	removed, err := e.ledger.RemoveByReference(ctx, recordID, string(kind))
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	switch kind {
	case records.KindReturn:
		if err := e.revertReturnStock(ctx, recordID); err != nil {
			e.logger.Warn("stock reversal incomplete",
				slog.String("return", recordID), slog.Any("error", err))
		}
	case records.KindPayroll:
		if err := e.revertPayrollSummary(ctx, recordID); err != nil {
			e.logger.Warn("employee summary reversal incomplete",
				slog.String("payroll", recordID), slog.Any("error", err))
		}
	}

	e.logger.Info("ledger entry reversed",
		slog.String("kind", string(kind)), slog.String("record", recordID))
	return true, nil
}

// revertReturnStock subtracts the quantities restored when the return was
// posted. When the return record was already deleted there is nothing to read
// the line items from, so stock stays as-is; the integrity auditor flags the
// dangling entry instead.
func (e *Engine) revertReturnStock(ctx context.Context, returnID string) error {
	if e.inventory == nil {
		return nil
	}
	items, err := e.sources.Returns(ctx)
	if err != nil {
		return err
	}
	for _, ret := range items {
		if ret.ID != returnID {
			continue
		}
		for _, line := range ret.Lines {
			if line.Quantity <= 0 || line.ProductID == "" {
				continue
			}
			if err := e.inventory.AddStockMovement(ctx, line.ProductID, inventory.MovementReturn, -line.Quantity, -monetary(line.Quantity, line.UnitPrice), ret.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (e *Engine) revertPayrollSummary(ctx context.Context, payrollID string) error {
	if e.employees == nil {
		return nil
	}
	items, err := e.sources.PayrollRecords(ctx)
	if err != nil {
		return err
	}
	for _, pr := range items {
		if pr.ID != payrollID {
			continue
		}
		if pr.EmployeeID == "" {
			return nil
		}
		return e.employees.RemovePaidSalary(ctx, pr.EmployeeID, pr.NetSalary)
	}
	return nil
}
