package assets

import (
	"context"
	"log/slog"
	"slices"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/probe"
)

// Audit defaults.
const (
	// DefaultMaxAssets bounds the number of assets probed per page.
	DefaultMaxAssets = 60

	// TopN is the number of heaviest assets reported.
	TopN = 10
)

// Prober probes URLs in bounded parallel.
type Prober interface {
	ProbeMany(ctx context.Context, urls []string, concurrency int) []probe.Result
}

// Result is the outcome of an asset audit.
type Result struct {
	// Scanned is the number of assets probed.
	Scanned int

	// Assets holds the probed assets, annotated, in collection order.
	Assets []model.AssetDescriptor

	// Top holds up to TopN assets with a known size, heaviest first.
	Top []model.AssetDescriptor
}

// Summary converts the result into the report form. collected is the number
// of assets found on the page before the maxAssets bound.
func (r *Result) Summary(collected int) model.HeavySummary {
	s := model.HeavySummary{
		Collected: collected,
		Scanned:   r.Scanned,
		Top:       r.Top,
		Assets:    r.Assets,
	}
	for _, a := range r.Assets {
		if a.ByteLength != nil {
			s.TotalBytes += *a.ByteLength
		}
		if a.ThirdParty {
			s.ThirdParty++
		}
		if a.RenderBlocking {
			s.RenderBlocking++
		}
	}
	return s
}

// Auditor probes page assets.
type Auditor struct {
	prober Prober
	logger *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuditor creates an Auditor that probes through prober.
func NewAuditor(prober Prober, opts ...Option) *Auditor {
	a := &Auditor{
		prober: prober,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit probes the first maxAssets assets with at most concurrency requests
// in flight. The input slice is not modified.
func (a *Auditor) Audit(ctx context.Context, assets []model.AssetDescriptor, maxAssets, concurrency int) *Result {
	if maxAssets <= 0 {
		maxAssets = DefaultMaxAssets
	}
	if len(assets) > maxAssets {
		a.logger.Debug("asset list truncated",
			slog.Int("collected", len(assets)),
			slog.Int("max", maxAssets))
		assets = assets[:maxAssets]
	}

	scanned := make([]model.AssetDescriptor, len(assets))
	copy(scanned, assets)

	urls := make([]string, len(scanned))
	for i, d := range scanned {
		urls[i] = d.URL
	}

	// ProbeMany preserves input order, so results[i] belongs to scanned[i].
	results := a.prober.ProbeMany(ctx, urls, concurrency)
	for i, res := range results {
		scanned[i].Status = res.Status
		scanned[i].ContentType = res.ContentType
		scanned[i].CacheControl = res.CacheControl
		// An error status sizes the error page, not the asset.
		if res.OK() {
			scanned[i].ByteLength = res.ByteLength
		}
		scanned[i].Error = res.Error
	}

	return &Result{
		Scanned: len(scanned),
		Assets:  scanned,
		Top:     heaviest(scanned, TopN),
	}
}

// heaviest returns up to n assets with a known size, largest first. Equal
// sizes keep collection order.
func heaviest(assets []model.AssetDescriptor, n int) []model.AssetDescriptor {
	known := make([]model.AssetDescriptor, 0, len(assets))
	for _, a := range assets {
		if a.ByteLength != nil {
			known = append(known, a)
		}
	}

	slices.SortStableFunc(known, func(x, y model.AssetDescriptor) int {
		switch {
		case *x.ByteLength > *y.ByteLength:
			return -1
		case *x.ByteLength < *y.ByteLength:
			return 1
		default:
			return 0
		}
	})

	if len(known) > n {
		known = known[:n]
	}
	return known
}
