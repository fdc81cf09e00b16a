package audit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

func newAuditor(t *testing.T) (*Auditor, *records.Store, *parties.Store, *ledger.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kv.NewRedisWithClient(client, "")
	sources := records.NewStore(store)
	owners := parties.NewStore(store)
	led := ledger.NewStore(store)
	return NewAuditor(sources, owners, led, nil), sources, owners, led
}

var day = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestAuditDetectsDanglingReference(t *testing.T) {
	auditor, _, _, led := newAuditor(t)
	ctx := context.Background()

	// ledger entry whose expense was deleted afterwards
	_, err := led.Append(ctx, ledger.Entry{
		ID: "LE_1", Date: day, Direction: ledger.DirectionExpense,
		Category: ledger.CategoryRent, Amount: 500,
		ReferenceID: "EXP_GONE", ReferenceType: "expense",
	})
	require.NoError(t, err)

	report, err := auditor.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	require.Contains(t, report.Issues[0], "EXP_GONE")
	require.Equal(t, 0, report.Fixed)

	// audit alone changed nothing
	entries, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRepairRemovesDanglingEntry(t *testing.T) {
	auditor, sources, _, led := newAuditor(t)
	ctx := context.Background()

	require.NoError(t, sources.SaveExpenses(ctx, []records.Expense{
		{ID: "EXP_1", Category: "rent", Amount: 500, Status: records.StatusPaid, Date: day},
	}))
	_, err := led.Append(ctx, ledger.Entry{
		ID: "LE_1", Date: day, Direction: ledger.DirectionExpense,
		Category: ledger.CategoryRent, Amount: 500,
		ReferenceID: "EXP_1", ReferenceType: "expense",
	})
	require.NoError(t, err)
	_, err = led.Append(ctx, ledger.Entry{
		ID: "LE_2", Date: day, Direction: ledger.DirectionExpense,
		Category: ledger.CategoryOther, Amount: 80,
		ReferenceID: "EXP_GONE", ReferenceType: "expense",
	})
	require.NoError(t, err)

	report, err := auditor.Repair(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Fixed)

	entries, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "LE_1", entries[0].ID)

	// a follow-up audit is clean
	report, err = auditor.Audit(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Issues)
}

func TestAuditFlagsUnknownReferenceType(t *testing.T) {
	auditor, _, _, led := newAuditor(t)
	ctx := context.Background()
	_, err := led.Append(ctx, ledger.Entry{
		ID: "LE_1", Date: day, Direction: ledger.DirectionIncome,
		Category: ledger.CategoryOther, Amount: 10,
		ReferenceID: "X", ReferenceType: "voucher",
	})
	require.NoError(t, err)

	report, err := auditor.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	require.Contains(t, report.Issues[0], "voucher")
}

func TestAuditReportsRollupMismatchesWithoutFixing(t *testing.T) {
	auditor, sources, owners, _ := newAuditor(t)
	ctx := context.Background()

	require.NoError(t, owners.SaveCustomers(ctx, []parties.Customer{
		{ID: "C1", Name: "Nour", HasInstallments: true},
	}))
	require.NoError(t, owners.SaveEmployees(ctx, []parties.Employee{
		{ID: "EMP_1", Name: "Sara", TotalPaidSalaries: 9999},
	}))
	require.NoError(t, sources.SavePayrollRecords(ctx, []records.PayrollRecord{
		{ID: "PAY_1", EmployeeID: "EMP_1", Month: "2025-03", NetSalary: 2800, Status: records.StatusPaid, Date: day},
	}))

	report, err := auditor.Repair(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Fixed)
	require.Len(t, report.Issues, 2)

	// rollups stay untouched: advisory only
	customers, err := owners.Customers(ctx)
	require.NoError(t, err)
	require.True(t, customers[0].HasInstallments)
}
