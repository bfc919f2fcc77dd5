// Package workpool provides the bounded-concurrency map primitive shared by
// every network-bound stage of an audit.
//
// A fixed number of workers pull item indexes from a shared cursor until it
// is exhausted. Results are written to the slot matching the item's index,
// so the output order always equals the input order regardless of which
// worker finished first.
package workpool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when the caller passes a
// non-positive worker count.
const DefaultWorkers = 6

// Map applies fn to every item using at most workers goroutines and returns
// the results in input order.
//
// fn must not panic and must report failures through its result value; Map
// has no error channel. Cancelling ctx does not stop Map from visiting every
// item: fn receives the cancelled context and is expected to return quickly
// with an error-carrying result, which keeps len(result) == len(items).
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, index int, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	var cursor atomic.Int64
	var g errgroup.Group

	for range workers {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				results[i] = fn(ctx, i, items[i])
			}
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return an error

	return results
}
