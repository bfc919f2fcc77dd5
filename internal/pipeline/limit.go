package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/probe"
	"github.com/nao1215/seoprobe/internal/workpool"
)

// limitedProber bounds the requests of one audit. Every stage of the
// default pipeline goes through the same limitedProber, including the
// stages that run side by side.
type limitedProber struct {
	inner Prober
	slots *semaphore.Weighted
}

func newLimitedProber(inner Prober, limit int) *limitedProber {
	if limit <= 0 {
		limit = probe.DefaultConcurrency
	}
	return &limitedProber{
		inner: inner,
		slots: semaphore.NewWeighted(int64(limit)),
	}
}

// Fetch implements Fetcher.
func (l *limitedProber) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", probe.ErrUpstream, err)
	}
	defer l.slots.Release(1)

	return l.inner.Fetch(ctx, rawURL)
}

// ProbeMany implements Prober. Each URL takes its own slot.
func (l *limitedProber) ProbeMany(ctx context.Context, urls []string, concurrency int) []probe.Result {
	return workpool.Map(ctx, urls, concurrency, func(ctx context.Context, _ int, u string) probe.Result {
		if err := l.slots.Acquire(ctx, 1); err != nil {
			return probe.Result{URL: u, Error: "request cancelled"}
		}
		defer l.slots.Release(1)

		return l.inner.ProbeMany(ctx, []string{u}, 1)[0]
	})
}
