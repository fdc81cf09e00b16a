package integration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

type fixture struct {
	engine    *Engine
	sources   *records.Store
	ledger    *ledger.Store
	inventory *inventory.Service
	parties   *parties.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kv.NewRedisWithClient(client, "")
	sources := records.NewStore(store)
	led := ledger.NewStore(store)
	inv := inventory.NewService(store)
	own := parties.NewService(parties.NewStore(store), sources)
	engine := NewEngine(sources, led, inv, own, nil)
	return &fixture{engine: engine, sources: sources, ledger: led, inventory: inv, parties: own}
}

var day = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestPostPaidExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Description: "إيجار شهر مارس", Category: "إيجار المحل", Amount: 500, Status: records.StatusPaid, Date: day},
	}))

	result, err := f.engine.PostAll(ctx, records.KindExpense)
	require.NoError(t, err)
	require.Equal(t, 1, result.Posted)
	require.Equal(t, 0, result.Skipped)

	entries, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ledger.DirectionExpense, entries[0].Direction)
	require.Equal(t, ledger.CategoryRent, entries[0].Category)
	require.InDelta(t, 500.0, entries[0].Amount, 0.001)
	require.Equal(t, "EXP_1", entries[0].ReferenceID)
	require.Equal(t, "expense", entries[0].ReferenceType)
}

func TestPostAllIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
		{ID: "EXP_2", Category: "misc", Amount: 80, Status: records.StatusPaid, Date: day},
	}))

	for i := 0; i < 3; i++ {
		_, err := f.engine.PostAll(ctx, records.KindExpense)
		require.NoError(t, err)
	}

	entries, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	result, err := f.engine.PostAll(ctx, records.KindExpense)
	require.NoError(t, err)
	require.Equal(t, 0, result.Posted)
	require.Equal(t, 2, result.Skipped)
}

func TestBadRecordSkippedWithoutAbortingBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
		{ID: "EXP_123", Category: "rent", Amount: 0, Status: records.StatusPaid, Date: day},
		{ID: "EXP_3", Category: "rent", Amount: 120, Status: records.StatusPaid, Date: day},
	}))

	result, err := f.engine.PostAll(ctx, records.KindExpense)
	require.NoError(t, err)
	require.Equal(t, 2, result.Posted)
	require.Equal(t, 1, result.Skipped)
	require.Contains(t, result.Issues, "missing amount on EXP_123")
}

func TestPendingRecordsAreIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPending, Date: day},
	}))

	result, err := f.engine.PostAll(ctx, records.KindExpense)
	require.NoError(t, err)
	require.Equal(t, 0, result.Posted)
	require.Equal(t, 0, result.Skipped)
}

func TestPostCheckDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveChecks(ctx, []records.Check{
		{ID: "CHK_1", Number: "1001", OwnerName: "Acme Corp", Direction: records.CheckIncoming, Amount: 900, Status: records.StatusCleared, Date: day},
		{ID: "CHK_2", Number: "1002", OwnerName: "Wholesale", Direction: records.CheckOutgoing, Amount: 350, Status: records.StatusCleared, Date: day},
		{ID: "CHK_3", Number: "1003", OwnerName: "Nour", Direction: records.CheckIncoming, Amount: 100, Status: records.StatusBounced, Date: day},
	}))

	result, err := f.engine.PostAll(ctx, records.KindCheck)
	require.NoError(t, err)
	require.Equal(t, 2, result.Posted)

	in, ok, err := f.ledger.ByReference(ctx, "CHK_1", "check")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledger.DirectionIncome, in.Direction)

	out, ok, err := f.ledger.ByReference(ctx, "CHK_2", "check")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledger.DirectionExpense, out.Direction)
}

func TestPostPayrollUpdatesEmployeeSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.parties.Store().SaveEmployees(ctx, []parties.Employee{{ID: "EMP_1", Name: "Sara"}}))
	require.NoError(t, f.sources.SavePayrollRecords(ctx, []records.PayrollRecord{
		{ID: "PAY_1", EmployeeID: "EMP_1", EmployeeName: "Sara", Month: "2025-03", NetSalary: 2800, Status: records.StatusPaid, Date: day},
	}))

	result, err := f.engine.PostAll(ctx, records.KindPayroll)
	require.NoError(t, err)
	require.Equal(t, 1, result.Posted)

	entry, ok, err := f.ledger.ByReference(ctx, "PAY_1", "payroll")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ledger.CategoryPayroll, entry.Category)
	require.InDelta(t, 2800.0, entry.Amount, 0.001)

	employees, err := f.parties.Store().Employees(ctx)
	require.NoError(t, err)
	require.InDelta(t, 2800.0, employees[0].TotalPaidSalaries, 0.001)
}

func TestPostProcessedReturnRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.inventory.SaveProducts(ctx, []inventory.Product{
		{ID: "P1", Name: "Tea", Stock: 10},
		{ID: "P2", Name: "Sugar", Stock: 4},
	}))
	require.NoError(t, f.sources.SaveReturns(ctx, []records.Return{{
		ID: "RET_1", InvoiceID: "INV_1", CustomerName: "Nour", Status: records.StatusProcessed, Date: day,
		Lines: []records.ReturnLine{
			{ProductID: "P1", Quantity: 3, UnitPrice: 15},
			{ProductID: "P2", Quantity: 5, UnitPrice: 8},
		},
	}}))

	result, err := f.engine.PostAll(ctx, records.KindReturn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Posted)

	entry, ok, err := f.ledger.ByReference(ctx, "RET_1", "return")
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 85.0, entry.Amount, 0.001) // 3*15 + 5*8

	products, err := f.inventory.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 13.0, products[0].Stock, 0.001)
	require.InDelta(t, 9.0, products[1].Stock, 0.001)

	// re-running the pass must not restore stock a second time
	_, err = f.engine.PostAll(ctx, records.KindReturn)
	require.NoError(t, err)
	products, err = f.inventory.Products(ctx)
	require.NoError(t, err)
	require.InDelta(t, 13.0, products[0].Stock, 0.001)
	require.InDelta(t, 9.0, products[1].Stock, 0.001)
}

func TestSyncAllCoversEveryKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
	}))
	require.NoError(t, f.sources.SaveSalesInvoices(ctx, []records.SalesInvoice{
		{ID: "INV_1", CustomerName: "Nour", Total: 320, Status: records.StatusPaid, Date: day},
	}))
	require.NoError(t, f.sources.SavePurchaseInvoices(ctx, []records.PurchaseInvoice{
		{ID: "PUR_1", SupplierName: "Wholesale", Total: 1000, Status: records.StatusPaid, Date: day},
	}))
	require.NoError(t, f.sources.SaveInstallments(ctx, []records.Installment{
		{ID: "INST_1", CustomerName: "Nour", Amount: 50, Status: records.StatusPaid, DueDate: day, PaidAt: day},
	}))

	results, err := f.engine.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, len(records.Kinds()))
	require.Equal(t, 1, results[records.KindExpense].Posted)
	require.Equal(t, 1, results[records.KindSalesInvoice].Posted)
	require.Equal(t, 1, results[records.KindPurchaseInvoice].Posted)
	require.Equal(t, 1, results[records.KindInstallment].Posted)

	entries, err := f.ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestMapExpenseCategory(t *testing.T) {
	require.Equal(t, ledger.CategoryRent, MapExpenseCategory("إيجار المحل"))
	require.Equal(t, ledger.CategoryRent, MapExpenseCategory("Rent"))
	require.Equal(t, ledger.CategoryUtilities, MapExpenseCategory("كهرباء"))
	require.Equal(t, ledger.CategoryPayroll, MapExpenseCategory("salaries"))
	require.Equal(t, ledger.CategoryOther, MapExpenseCategory("مصاريف أخرى"))
}
