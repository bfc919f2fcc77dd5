package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/seoprobe/internal/model"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) { return New(), nil })

		if bp.concurrency != DefaultBatchSize {
			t.Errorf("expected concurrency %d, got %d", DefaultBatchSize, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) { return New(), nil }, WithConcurrency(0))

		if bp.concurrency != DefaultBatchSize {
			t.Errorf("expected concurrency %d, got %d", DefaultBatchSize, bp.concurrency)
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32

		bp := NewBatchProcessor(
			func(string) (*Pipeline, error) {
				p := New(WithLogger(quietLogger()))
				p.AddStep(&mockStep{
					name: "slow",
					doFunc: func(_ context.Context, _ *Audit) error {
						n := current.Add(1)
						for {
							old := peak.Load()
							if n <= old || peak.CompareAndSwap(old, n) {
								break
							}
						}
						time.Sleep(10 * time.Millisecond)
						current.Add(-1)
						return nil
					},
				})
				return p, nil
			},
			WithConcurrency(2),
			WithBatchLogger(quietLogger()),
		)

		urls := make([]string, 10)
		for i := range urls {
			urls[i] = "https://example.com/"
		}

		if _, err := bp.ProcessBatch(context.Background(), urls); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency was %d, expected <= 2", peak.Load())
		}
	})

	t.Run("maintains result order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "noop"})
			return p, nil
		}, WithBatchLogger(quietLogger()))

		urls := []string{
			"https://example.com/first",
			"https://example.com/second",
			"https://example.com/third",
		}

		results, err := bp.ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, result := range results {
			if result.URL != urls[i] {
				t.Errorf("result[%d]: got %q, expected %q", i, result.URL, urls[i])
			}
		}
	})

	t.Run("records failures per URL", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{
				name: "fetch",
				doFunc: func(_ context.Context, audit *Audit) error {
					if audit.Report.URL == "https://example.com/fail" {
						return ErrPageFetch
					}
					return nil
				},
			})
			return p, nil
		}, WithBatchLogger(quietLogger()))

		urls := []string{"https://example.com/ok", "https://example.com/fail", "::invalid::"}
		results, err := bp.ProcessBatch(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if results[0].Error != "" {
			t.Errorf("unexpected error in first result: %q", results[0].Error)
		}
		if results[1].Error == "" {
			t.Error("expected error in second result")
		}
		if results[2] == nil || results[2].Error == "" || results[2].URL != "::invalid::" {
			t.Errorf("expected placeholder report for invalid URL, got %+v", results[2])
		}
	})

	t.Run("records factory failures", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func(rawURL string) (*Pipeline, error) {
			if rawURL == "https://example.com/bad" {
				return nil, errors.New("no prober")
			}
			return New(WithLogger(quietLogger())), nil
		}, WithBatchLogger(quietLogger()))

		results, err := bp.ProcessBatch(context.Background(), []string{"https://example.com/bad", "https://example.com/good"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Error != "no prober" {
			t.Errorf("expected factory error to be recorded, got %q", results[0].Error)
		}
		if results[1].Error != "" {
			t.Errorf("unexpected error in second result: %q", results[1].Error)
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(func(string) (*Pipeline, error) {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "noop"})
			return p, nil
		}, WithBatchLogger(quietLogger()))

		_, err := bp.ProcessBatch(ctx, []string{"https://example.com/a", "https://example.com/b"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func(string) (*Pipeline, error) {
		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{name: "noop"})
		return p, nil
	}, WithConcurrency(3), WithBatchLogger(quietLogger()))

	urls := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3", "https://example.com/4"}

	var mu sync.Mutex
	seen := make(map[int]string)
	err := bp.ProcessBatchWithCallback(context.Background(), urls, func(report *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = report.URL
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != len(urls) {
		t.Fatalf("expected %d callbacks, got %d", len(urls), len(seen))
	}
	for i, u := range urls {
		if seen[i] != u {
			t.Errorf("index %d: got %q, want %q", i, seen[i], u)
		}
	}
}
