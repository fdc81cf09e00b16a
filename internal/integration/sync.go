package integration

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/records"
)

// SyncAll runs a posting pass for every source kind. Kinds are independent of
// each other, so the passes run concurrently; the ledger store serializes the
// actual existence-check-and-append sequence. The whole pass is idempotent
// and safe to abort and re-run.
func (e *Engine) SyncAll(ctx context.Context) (map[records.Kind]PostResult, error) {
	results := make(map[records.Kind]PostResult, len(records.Kinds()))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range records.Kinds() {
		kind := kind
		g.Go(func() error {
			result, err := e.PostAll(ctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			results[kind] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
