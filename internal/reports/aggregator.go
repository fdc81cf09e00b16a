// Package reports is a read-only consumer of the ledger and record stores.
package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/records"
)

// Summary is the cash-flow rollup for a date range.
type Summary struct {
	From         time.Time                   `json:"from"`
	To           time.Time                   `json:"to"`
	TotalIncome  float64                     `json:"totalIncome"`
	TotalExpense float64                     `json:"totalExpense"`
	Net          float64                     `json:"net"`
	ByCategory   map[ledger.Category]float64 `json:"byCategory"`
	EntryCount   int                         `json:"entryCount"`
	SourceCounts map[records.Kind]int        `json:"sourceCounts"`
}

// Aggregator produces summaries. Concurrent identical requests are coalesced
// through singleflight since report reads re-scan whole collections.
type Aggregator struct {
	ledger  *ledger.Store
	sources *records.Store
	group   singleflight.Group
}

// NewAggregator builds an Aggregator.
func NewAggregator(led *ledger.Store, sources *records.Store) *Aggregator {
	return &Aggregator{ledger: led, sources: sources}
}

// LedgerEntries returns every ledger entry.
func (a *Aggregator) LedgerEntries(ctx context.Context) ([]ledger.Entry, error) {
	return a.ledger.List(ctx)
}

// LedgerEntriesByDateRange returns entries dated within [from, to].
func (a *Aggregator) LedgerEntriesByDateRange(ctx context.Context, from, to time.Time) ([]ledger.Entry, error) {
	return a.ledger.ByDateRange(ctx, from, to)
}

// Summarize rolls the ledger up for the date range.
func (a *Aggregator) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	key := fmt.Sprintf("summary:%d:%d", from.Unix(), to.Unix())
	result, err, _ := a.group.Do(key, func() (any, error) {
		return a.summarize(ctx, from, to)
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

func (a *Aggregator) summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	entries, err := a.ledger.ByDateRange(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		From:         from,
		To:           to,
		ByCategory:   make(map[ledger.Category]float64),
		SourceCounts: make(map[records.Kind]int),
		EntryCount:   len(entries),
	}
	for _, e := range entries {
		switch e.Direction {
		case ledger.DirectionIncome:
			summary.TotalIncome += e.Amount
		case ledger.DirectionExpense:
			summary.TotalExpense += e.Amount
		}
		summary.ByCategory[e.Category] += e.Amount
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	for _, kind := range records.Kinds() {
		count, err := a.sources.Count(ctx, kind)
		if err != nil {
			return Summary{}, err
		}
		summary.SourceCounts[kind] = count
	}
	return summary, nil
}
