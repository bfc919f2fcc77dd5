package workpool

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"
)

// TestMapPreservesOrder tests that results line up with their inputs even
// when later items finish first.
func TestMapPreservesOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	got := Map(context.Background(), items, 8, func(_ context.Context, _ int, item int) int {
		// Reverse the natural finish order.
		time.Sleep(time.Duration(len(items)-item) * 100 * time.Microsecond)
		return item * 2
	})

	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}
	for i, v := range got {
		if v != i*2 {
			t.Errorf("result[%d] = %d, want %d", i, v, i*2)
		}
	}
}

// TestMapBoundsConcurrency tests that no more than the configured number of
// workers run at once.
func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 3

	var inFlight, peak atomic.Int64
	items := make([]int, 40)

	Map(context.Background(), items, workers, func(_ context.Context, _ int, _ int) bool {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Duration(rand.IntN(500)+100) * time.Microsecond) //nolint:gosec // test jitter
		inFlight.Add(-1)
		return true
	})

	if peak.Load() > workers {
		t.Errorf("peak concurrency %d exceeded pool size %d", peak.Load(), workers)
	}
	if peak.Load() == 0 {
		t.Error("expected at least one worker to run")
	}
}

// TestMapDefaults tests empty input and non-positive worker counts.
func TestMapDefaults(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		called := false
		got := Map(context.Background(), []string{}, 4, func(_ context.Context, _ int, s string) string {
			called = true
			return s
		})
		if len(got) != 0 {
			t.Errorf("expected no results, got %d", len(got))
		}
		if called {
			t.Error("fn should not be called for empty input")
		}
	})

	t.Run("zero workers uses default", func(t *testing.T) {
		t.Parallel()

		got := Map(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, i int, v int) int {
			return v + i
		})
		want := []int{1, 3, 5}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("result[%d] = %d, want %d", i, got[i], want[i])
			}
		}
	})
}

// TestMapVisitsEveryItemAfterCancel tests that a cancelled context still
// yields one result per item.
func TestMapVisitsEveryItemAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var visited atomic.Int64
	got := Map(ctx, make([]int, 10), 2, func(ctx context.Context, _ int, _ int) error {
		visited.Add(1)
		return ctx.Err()
	})

	if visited.Load() != 10 {
		t.Errorf("expected 10 visits, got %d", visited.Load())
	}
	for i, err := range got {
		if err == nil {
			t.Errorf("result[%d] expected context error", i)
		}
	}
}
