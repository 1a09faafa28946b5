// Package parallel provides the bounded, order-preserving fan-out primitive
// shared by the enrichment and analysis stages.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item with at most limit goroutines and returns
// results in input order regardless of completion order. Results are written
// by index, never by completion; a limit <= 0 means unbounded. The first
// error cancels remaining work and is returned.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Batch partitions items into contiguous batches of batchSize. The final
// batch may be short. batchSize <= 0 yields a single batch.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
