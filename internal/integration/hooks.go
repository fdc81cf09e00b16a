package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/records"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Ledger exposes the ledger operations required by posting and reversal.
type Ledger interface {
	Append(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
	RemoveByReference(ctx context.Context, referenceID, referenceType string) (bool, error)
}

// Inventory exposes the stock side effect used by return posting.
type Inventory interface {
	AddStockMovement(ctx context.Context, productID, kind string, quantity, value float64, referenceID string) error
}

// EmployeeFinancials lets payroll posting maintain employee salary summaries
// without importing the parties package directly.
type EmployeeFinancials interface {
	AddPaidSalary(ctx context.Context, employeeID string, amount float64, month string) error
	RemovePaidSalary(ctx context.Context, employeeID string, amount float64) error
}

// Engine projects realized source records into the cash-flow ledger. Posting
// is idempotent: the ledger's reference-pair uniqueness turns a re-run into a
// skip, and every per-record failure is reported instead of aborting the pass.
type Engine struct {
	sources   *records.Store
	ledger    Ledger
	inventory Inventory
	employees EmployeeFinancials
	locks     *shared.KeyedMutex
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine constructs the posting/reversal engine.
func NewEngine(sources *records.Store, led Ledger, inv Inventory, emp EmployeeFinancials, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sources:   sources,
		ledger:    led,
		inventory: inv,
		employees: emp,
		locks:     shared.NewKeyedMutex(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, used in tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// PostResult summarises one posting pass.
type PostResult struct {
	Posted  int      `json:"posted"`
	Skipped int      `json:"skipped"`
	Issues  []string `json:"issues,omitempty"`
}

func (r *PostResult) skip(issue string) {
	r.Skipped++
	if issue != "" {
		r.Issues = append(r.Issues, issue)
	}
}

// PostAll posts every realized record of the kind that is not in the ledger
// yet. A malformed record is skipped and reported by id; the pass continues.
func (e *Engine) PostAll(ctx context.Context, kind records.Kind) (PostResult, error) {
	if !kind.Valid() {
		return PostResult{}, fmt.Errorf("integration: unknown kind %q", kind)
	}
	var result PostResult
	var err error
	switch kind {
	case records.KindExpense:
		result, err = e.postExpenses(ctx)
	case records.KindPayroll:
		result, err = e.postPayroll(ctx)
	case records.KindReturn:
		result, err = e.postReturns(ctx)
	case records.KindCheck:
		result, err = e.postChecks(ctx)
	case records.KindInstallment:
		result, err = e.postInstallments(ctx)
	case records.KindSalesInvoice:
		result, err = e.postSalesInvoices(ctx)
	case records.KindPurchaseInvoice:
		result, err = e.postPurchaseInvoices(ctx)
	}
	if err != nil {
		return PostResult{}, err
	}
	e.logger.Info("posting pass completed",
		slog.String("kind", string(kind)),
		slog.Int("posted", result.Posted),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// post appends one entry under the record's critical section. Duplicate
// postings count as skips, never as errors, so re-running a sync is safe.
func (e *Engine) post(ctx context.Context, entry ledger.Entry, result *PostResult) (bool, error) {
	unlock := e.locks.Lock(shared.PostingLockKey(entry.ReferenceType, entry.ReferenceID))
	defer unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = e.now()
	_, err := e.ledger.Append(ctx, entry)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyPosted) {
			result.skip("")
			return false, nil
		}
		if errors.Is(err, ledger.ErrEntryRequired) {
			result.skip(fmt.Sprintf("malformed entry for %s %s", entry.ReferenceType, entry.ReferenceID))
			return false, nil
		}
		return false, err
	}
	result.Posted++
	return true, nil
}

func (e *Engine) postExpenses(ctx context.Context) (PostResult, error) {
	items, err := e.sources.Expenses(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, exp := range items {
		if !records.Realized(records.KindExpense, exp.Status) {
			continue
		}
		if exp.Amount <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", exp.ID))
			continue
		}
		entry := ledger.Entry{
			Date:          exp.Date,
			Direction:     ledger.DirectionExpense,
			Category:      MapExpenseCategory(exp.Category),
			Subcategory:   exp.Category,
			Amount:        round2(exp.Amount),
			Description:   exp.Description,
			ReferenceID:   exp.ID,
			ReferenceType: string(records.KindExpense),
			Channel:       exp.Channel,
		}
		if _, err := e.post(ctx, entry, &result); err != nil {
			return PostResult{}, err
		}
	}
	return result, nil
}

func (e *Engine) postPayroll(ctx context.Context) (PostResult, error) {
	items, err := e.sources.PayrollRecords(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, pr := range items {
		if !records.Realized(records.KindPayroll, pr.Status) {
			continue
		}
		if pr.NetSalary <= 0 {
			result.skip(fmt.Sprintf("missing net salary on %s", pr.ID))
			continue
		}
		entry := ledger.Entry{
			Date:          pr.Date,
			Direction:     ledger.DirectionExpense,
			Category:      ledger.CategoryPayroll,
			Subcategory:   pr.Month,
			Amount:        round2(pr.NetSalary),
			Description:   fmt.Sprintf("Salary %s %s", pr.EmployeeName, pr.Month),
			ReferenceID:   pr.ID,
			ReferenceType: string(records.KindPayroll),
		}
		posted, err := e.post(ctx, entry, &result)
		if err != nil {
			return PostResult{}, err
		}
		if posted && e.employees != nil && pr.EmployeeID != "" {
			if err := e.employees.AddPaidSalary(ctx, pr.EmployeeID, pr.NetSalary, pr.Month); err != nil {
				e.logger.Warn("employee summary update failed",
					slog.String("payroll", pr.ID), slog.Any("error", err))
				result.Issues = append(result.Issues, fmt.Sprintf("employee summary not updated for %s", pr.ID))
			}
		}
	}
	return result, nil
}

func (e *Engine) postReturns(ctx context.Context) (PostResult, error) {
	items, err := e.sources.Returns(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, ret := range items {
		if !records.Realized(records.KindReturn, ret.Status) {
			continue
		}
		amount := ret.Total
		if amount <= 0 {
			amount = returnTotal(ret)
		}
		if amount <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", ret.ID))
			continue
		}
		entry := ledger.Entry{
			Date:          ret.Date,
			Direction:     ledger.DirectionExpense,
			Category:      ledger.CategoryReturns,
			Amount:        round2(amount),
			Description:   fmt.Sprintf("Return %s against %s", ret.ID, ret.InvoiceID),
			ReferenceID:   ret.ID,
			ReferenceType: string(records.KindReturn),
		}
		posted, err := e.post(ctx, entry, &result)
		if err != nil {
			return PostResult{}, err
		}
		if posted {
			// restore stock once, only for the pass that actually posted
			if err := e.restoreStock(ctx, ret); err != nil {
				e.logger.Warn("stock restoration failed",
					slog.String("return", ret.ID), slog.Any("error", err))
				result.Issues = append(result.Issues, fmt.Sprintf("stock not restored for %s", ret.ID))
			}
		}
	}
	return result, nil
}

func (e *Engine) restoreStock(ctx context.Context, ret records.Return) error {
	if e.inventory == nil {
		return nil
	}
	for _, line := range ret.Lines {
		if line.Quantity <= 0 || line.ProductID == "" {
			continue
		}
		if err := e.inventory.AddStockMovement(ctx, line.ProductID, inventory.MovementReturn, line.Quantity, monetary(line.Quantity, line.UnitPrice), ret.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) postChecks(ctx context.Context) (PostResult, error) {
	items, err := e.sources.Checks(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, chk := range items {
		if !records.Realized(records.KindCheck, chk.Status) {
			continue
		}
		if chk.Amount <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", chk.ID))
			continue
		}
		direction := ledger.DirectionIncome
		if chk.Direction == records.CheckOutgoing {
			direction = ledger.DirectionExpense
		}
		entry := ledger.Entry{
			Date:          chk.Date,
			Direction:     direction,
			Category:      ledger.CategoryChecks,
			Subcategory:   string(chk.Direction),
			Amount:        round2(chk.Amount),
			Description:   fmt.Sprintf("Check %s %s", chk.Number, chk.OwnerName),
			ReferenceID:   chk.ID,
			ReferenceType: string(records.KindCheck),
			Channel:       "check",
		}
		if _, err := e.post(ctx, entry, &result); err != nil {
			return PostResult{}, err
		}
	}
	return result, nil
}

func (e *Engine) postInstallments(ctx context.Context) (PostResult, error) {
	items, err := e.sources.Installments(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, inst := range items {
		if !records.Realized(records.KindInstallment, inst.Status) {
			continue
		}
		if inst.Amount <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", inst.ID))
			continue
		}
		date := inst.PaidAt
		if date.IsZero() {
			date = inst.DueDate
		}
		entry := ledger.Entry{
			Date:          date,
			Direction:     ledger.DirectionIncome,
			Category:      ledger.CategoryDebt,
			Amount:        round2(inst.Amount),
			Description:   fmt.Sprintf("Installment %s from %s", inst.ID, inst.CustomerName),
			ReferenceID:   inst.ID,
			ReferenceType: string(records.KindInstallment),
		}
		if _, err := e.post(ctx, entry, &result); err != nil {
			return PostResult{}, err
		}
	}
	return result, nil
}

func (e *Engine) postSalesInvoices(ctx context.Context) (PostResult, error) {
	items, err := e.sources.SalesInvoices(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, inv := range items {
		if !records.Realized(records.KindSalesInvoice, inv.Status) {
			continue
		}
		if inv.Total <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", inv.ID))
			continue
		}
		entry := ledger.Entry{
			Date:          inv.Date,
			Direction:     ledger.DirectionIncome,
			Category:      ledger.CategorySales,
			Amount:        round2(inv.Total),
			Description:   fmt.Sprintf("Sale %s to %s", inv.ID, inv.CustomerName),
			ReferenceID:   inv.ID,
			ReferenceType: string(records.KindSalesInvoice),
			Channel:       inv.Channel,
		}
		if _, err := e.post(ctx, entry, &result); err != nil {
			return PostResult{}, err
		}
	}
	return result, nil
}

func (e *Engine) postPurchaseInvoices(ctx context.Context) (PostResult, error) {
	items, err := e.sources.PurchaseInvoices(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	for _, inv := range items {
		if !records.Realized(records.KindPurchaseInvoice, inv.Status) {
			continue
		}
		if inv.Total <= 0 {
			result.skip(fmt.Sprintf("missing amount on %s", inv.ID))
			continue
		}
		entry := ledger.Entry{
			Date:          inv.Date,
			Direction:     ledger.DirectionExpense,
			Category:      ledger.CategoryPurchases,
			Amount:        round2(inv.Total),
			Description:   fmt.Sprintf("Purchase %s from %s", inv.ID, inv.SupplierName),
			ReferenceID:   inv.ID,
			ReferenceType: string(records.KindPurchaseInvoice),
		}
		if _, err := e.post(ctx, entry, &result); err != nil {
			return PostResult{}, err
		}
	}
	return result, nil
}

func returnTotal(ret records.Return) float64 {
	var total float64
	for _, line := range ret.Lines {
		total += monetary(line.Quantity, line.UnitPrice)
	}
	return round2(total)
}
