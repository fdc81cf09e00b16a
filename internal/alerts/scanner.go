// Package alerts derives threshold notifications from current record and
// ledger state. A scan is a pure recomputation: it never mutates state, and
// two scans over unchanged input produce the same alerts, identity included.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Alert is an ephemeral, derived notification. The ID is derived from the
// alert's content so identical state yields identical alerts across scans.
type Alert struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	ReferenceIDs []string `json:"referenceIds,omitempty"`
}

// InventoryReader is the slice of the inventory collaborator the scanner uses.
type InventoryReader interface {
	Products(ctx context.Context) ([]inventory.Product, error)
	LowStock(ctx context.Context) ([]inventory.Product, error)
	OutOfStock(ctx context.Context) ([]inventory.Product, error)
}

// Scanner evaluates the alert rules against current state.
type Scanner struct {
	sources   *records.Store
	inventory InventoryReader
	logger    *slog.Logger
	now       func() time.Time
}

// NewScanner builds a Scanner.
func NewScanner(sources *records.Store, inv InventoryReader, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		sources:   sources,
		inventory: inv,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, used in tests.
func (s *Scanner) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Scan evaluates every rule and returns the deduplicated alert list.
func (s *Scanner) Scan(ctx context.Context, rules Rules) ([]Alert, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("alerts: invalid rules: %w", err)
	}

	var alerts []Alert
	collect := func(batch []Alert, err error) error {
		if err != nil {
			return err
		}
		alerts = append(alerts, batch...)
		return nil
	}

	if err := collect(s.scanStock(ctx)); err != nil {
		return nil, err
	}
	if err := collect(s.scanStalePending(ctx, rules)); err != nil {
		return nil, err
	}
	if err := collect(s.scanOverdue(ctx)); err != nil {
		return nil, err
	}
	if err := collect(s.scanReturnVolume(ctx, rules)); err != nil {
		return nil, err
	}
	if err := collect(s.scanReturnedProducts(ctx, rules)); err != nil {
		return nil, err
	}
	if err := collect(s.scanExpenseSpike(ctx, rules)); err != nil {
		return nil, err
	}

	alerts = dedupe(alerts)
	s.logger.Info("alert scan completed", slog.Int("alerts", len(alerts)))
	return alerts, nil
}

func newAlert(kind string, severity Severity, message string, refs ...string) Alert {
	seed := kind + "|" + strings.Join(refs, ",")
	return Alert{
		ID:           uuid.NewSHA1(uuid.Nil, []byte(seed)).String(),
		Kind:         kind,
		Severity:     severity,
		Message:      message,
		ReferenceIDs: refs,
	}
}

func dedupe(alerts []Alert) []Alert {
	seen := make(map[string]bool, len(alerts))
	out := alerts[:0]
	for _, a := range alerts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

func (s *Scanner) scanStock(ctx context.Context) ([]Alert, error) {
	if s.inventory == nil {
		return nil, nil
	}
	var alerts []Alert
	low, err := s.inventory.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range low {
		alerts = append(alerts, newAlert("low_stock", SeverityMedium,
			fmt.Sprintf("%s is low on stock (%.0f left, minimum %.0f)", p.Name, p.Stock, p.MinStock), p.ID))
	}
	out, err := s.inventory.OutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		alerts = append(alerts, newAlert("out_of_stock", SeverityHigh,
			fmt.Sprintf("%s is out of stock", p.Name), p.ID))
	}
	return alerts, nil
}

func (s *Scanner) scanStalePending(ctx context.Context, rules Rules) ([]Alert, error) {
	if rules.StalePendingHours <= 0 {
		return nil, nil
	}
	cutoff := s.now().Add(-time.Duration(rules.StalePendingHours) * time.Hour)
	var alerts []Alert

	returns, err := s.sources.Returns(ctx)
	if err != nil {
		return nil, err
	}
	for _, ret := range returns {
		if ret.Status == records.StatusPending && ret.Date.Before(cutoff) {
			alerts = append(alerts, newAlert("stale_return", SeverityMedium,
				fmt.Sprintf("return %s pending since %s", ret.ID, ret.Date.Format("2006-01-02")), ret.ID))
		}
	}

	invoices, err := s.sources.SalesInvoices(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		if inv.Status == records.StatusPending && inv.Date.Before(cutoff) {
			alerts = append(alerts, newAlert("stale_invoice", SeverityLow,
				fmt.Sprintf("invoice %s unpaid since %s", inv.ID, inv.Date.Format("2006-01-02")), inv.ID))
		}
	}
	return alerts, nil
}

func (s *Scanner) scanOverdue(ctx context.Context) ([]Alert, error) {
	now := s.now()
	var alerts []Alert

	checks, err := s.sources.Checks(ctx)
	if err != nil {
		return nil, err
	}
	for _, chk := range checks {
		if chk.Status == records.StatusPending && !chk.DueDate.IsZero() && chk.DueDate.Before(now) {
			alerts = append(alerts, newAlert("overdue_check", SeverityHigh,
				fmt.Sprintf("check %s (%s) was due on %s", chk.Number, chk.OwnerName, chk.DueDate.Format("2006-01-02")), chk.ID))
		}
	}

	installments, err := s.sources.Installments(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range installments {
		if inst.Status == records.StatusPending && !inst.DueDate.IsZero() && inst.DueDate.Before(now) {
			alerts = append(alerts, newAlert("overdue_installment", SeverityMedium,
				fmt.Sprintf("installment %s from %s was due on %s", inst.ID, inst.CustomerName, inst.DueDate.Format("2006-01-02")), inst.ID))
		}
	}
	return alerts, nil
}

func (s *Scanner) scanReturnVolume(ctx context.Context, rules Rules) ([]Alert, error) {
	if rules.DailyReturnVolumeMax <= 0 {
		return nil, nil
	}
	returns, err := s.sources.Returns(ctx)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string][]string)
	for _, ret := range returns {
		day := ret.Date.Format("2006-01-02")
		byDay[day] = append(byDay[day], ret.ID)
	}
	var alerts []Alert
	for day, ids := range byDay {
		if len(ids) <= rules.DailyReturnVolumeMax {
			continue
		}
		sort.Strings(ids)
		alerts = append(alerts, newAlert("return_volume", SeverityHigh,
			fmt.Sprintf("%d returns on %s exceed the daily limit of %d", len(ids), day, rules.DailyReturnVolumeMax), ids...))
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Message < alerts[j].Message })
	return alerts, nil
}

func (s *Scanner) scanReturnedProducts(ctx context.Context, rules Rules) ([]Alert, error) {
	if s.inventory == nil || rules.ProductReturnedQtyMax <= 0 {
		return nil, nil
	}
	products, err := s.inventory.Products(ctx)
	if err != nil {
		return nil, err
	}
	var alerts []Alert
	for _, p := range products {
		if p.ReturnedQty > rules.ProductReturnedQtyMax {
			alerts = append(alerts, newAlert("product_returns", SeverityMedium,
				fmt.Sprintf("%s has %.0f returned units, above the limit of %.0f", p.Name, p.ReturnedQty, rules.ProductReturnedQtyMax), p.ID))
		}
	}
	return alerts, nil
}

// scanExpenseSpike compares the current month's realized expense total with
// the average of preceding months. At least one full prior month is required
// before the rule can fire.
func (s *Scanner) scanExpenseSpike(ctx context.Context, rules Rules) ([]Alert, error) {
	if rules.ExpenseSpikeFactor <= 0 {
		return nil, nil
	}
	expenses, err := s.sources.Expenses(ctx)
	if err != nil {
		return nil, err
	}
	monthly := make(map[string]float64)
	for _, exp := range expenses {
		if !records.Realized(records.KindExpense, exp.Status) {
			continue
		}
		monthly[exp.Date.Format("2006-01")] += exp.Amount
	}
	current := s.now().Format("2006-01")
	currentTotal, ok := monthly[current]
	if !ok {
		return nil, nil
	}
	var sum float64
	var prior int
	for month, total := range monthly {
		if month == current {
			continue
		}
		sum += total
		prior++
	}
	if prior == 0 {
		return nil, nil
	}
	average := sum / float64(prior)
	if average <= 0 || currentTotal <= average*rules.ExpenseSpikeFactor {
		return nil, nil
	}
	return []Alert{newAlert("expense_spike", SeverityHigh,
		fmt.Sprintf("expenses this month (%.2f) exceed %.1fx the monthly average (%.2f)", currentTotal, rules.ExpenseSpikeFactor, average))}, nil
}
