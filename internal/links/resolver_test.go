package links

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

func newResolver(t *testing.T) (*Resolver, *records.Store, *parties.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kv.NewRedisWithClient(client, "")
	sources := records.NewStore(store)
	owners := parties.NewStore(store)
	return NewResolver(sources, owners, nil), sources, owners
}

var due = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func TestResolveCheckOwnerByName(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	require.NoError(t, owners.SaveSuppliers(ctx, []parties.Supplier{{ID: "S1", Name: "Wholesale"}}))
	require.NoError(t, sources.SaveChecks(ctx, []records.Check{
		{ID: "CHK_1", OwnerName: "Wholesale", Direction: records.CheckOutgoing, Amount: 100, Status: records.StatusPending, DueDate: due},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindCheck)
	require.NoError(t, err)
	require.Equal(t, 1, result.Linked)

	checks, err := sources.Checks(ctx)
	require.NoError(t, err)
	require.Equal(t, "S1", checks[0].OwnerID)
	require.Equal(t, "supplier", checks[0].OwnerType)
}

func TestSameNameResolvesToFirstCollectionScanned(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	// "Acme Corp" exists both as customer and supplier; the customer
	// collection is scanned first, so the customer wins.
	require.NoError(t, owners.SaveCustomers(ctx, []parties.Customer{{ID: "C1", Name: "Acme Corp"}}))
	require.NoError(t, owners.SaveSuppliers(ctx, []parties.Supplier{{ID: "S1", Name: "Acme Corp"}}))
	require.NoError(t, sources.SaveChecks(ctx, []records.Check{
		{ID: "CHK_1", OwnerName: "Acme Corp", Direction: records.CheckIncoming, Amount: 100, Status: records.StatusPending, DueDate: due},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindCheck)
	require.NoError(t, err)
	require.Equal(t, 1, result.Linked)

	checks, err := sources.Checks(ctx)
	require.NoError(t, err)
	require.Equal(t, "C1", checks[0].OwnerID)
	require.Equal(t, "customer", checks[0].OwnerType)
}

func TestResolutionIsMonotonic(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	require.NoError(t, owners.SaveCustomers(ctx, []parties.Customer{{ID: "C1", Name: "Nour"}}))
	require.NoError(t, sources.SaveChecks(ctx, []records.Check{
		{ID: "CHK_1", OwnerName: "Nour", Direction: records.CheckIncoming, Amount: 100, Status: records.StatusPending, DueDate: due},
	}))

	_, err := resolver.ResolveLinks(ctx, records.KindCheck)
	require.NoError(t, err)

	// a conflicting same-named supplier appears later; the link must not move
	require.NoError(t, owners.SaveSuppliers(ctx, []parties.Supplier{{ID: "S1", Name: "Nour"}}))
	result, err := resolver.ResolveLinks(ctx, records.KindCheck)
	require.NoError(t, err)
	require.Equal(t, 0, result.Linked)

	checks, err := sources.Checks(ctx)
	require.NoError(t, err)
	require.Equal(t, "C1", checks[0].OwnerID)
}

func TestNoMatchLeavesLinkUnresolved(t *testing.T) {
	resolver, sources, _ := newResolver(t)
	ctx := context.Background()
	require.NoError(t, sources.SaveChecks(ctx, []records.Check{
		{ID: "CHK_1", OwnerName: "Nobody", Direction: records.CheckIncoming, Amount: 100, Status: records.StatusPending, DueDate: due},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindCheck)
	require.NoError(t, err)
	require.Equal(t, 0, result.Linked)
	require.Len(t, result.Notes, 1)

	checks, err := sources.Checks(ctx)
	require.NoError(t, err)
	require.Empty(t, checks[0].OwnerID)
}

func TestResolveInstallmentCustomer(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	require.NoError(t, owners.SaveCustomers(ctx, []parties.Customer{{ID: "C1", Name: "Nour"}}))
	require.NoError(t, sources.SaveInstallments(ctx, []records.Installment{
		{ID: "INST_1", CustomerName: "Nour", Amount: 75, Status: records.StatusPending, DueDate: due},
		{ID: "INST_2", CustomerID: "C9", CustomerName: "Nour", Amount: 20, Status: records.StatusPending, DueDate: due},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindInstallment)
	require.NoError(t, err)
	require.Equal(t, 1, result.Linked)

	installments, err := sources.Installments(ctx)
	require.NoError(t, err)
	require.Equal(t, "C1", installments[0].CustomerID)
	// existing links are left alone even when the name also matches
	require.Equal(t, "C9", installments[1].CustomerID)
}

func TestResolvePayrollEmployee(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	require.NoError(t, owners.SaveEmployees(ctx, []parties.Employee{{ID: "EMP_1", Name: "Sara"}}))
	require.NoError(t, sources.SavePayrollRecords(ctx, []records.PayrollRecord{
		{ID: "PAY_1", EmployeeName: "Sara", Month: "2025-03", NetSalary: 2800, Status: records.StatusPending},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindPayroll)
	require.NoError(t, err)
	require.Equal(t, 1, result.Linked)

	payroll, err := sources.PayrollRecords(ctx)
	require.NoError(t, err)
	require.Equal(t, "EMP_1", payroll[0].EmployeeID)
}

func TestCaseSensitiveMatchingOnly(t *testing.T) {
	resolver, sources, owners := newResolver(t)
	ctx := context.Background()
	require.NoError(t, owners.SaveCustomers(ctx, []parties.Customer{{ID: "C1", Name: "nour"}}))
	require.NoError(t, sources.SaveInstallments(ctx, []records.Installment{
		{ID: "INST_1", CustomerName: "Nour", Amount: 75, Status: records.StatusPending, DueDate: due},
	}))

	result, err := resolver.ResolveLinks(ctx, records.KindInstallment)
	require.NoError(t, err)
	require.Equal(t, 0, result.Linked)
}
