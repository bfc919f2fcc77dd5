package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoprobe/internal/model"
)

// DefaultBatchSize is the number of audits run at once by a BatchProcessor.
const DefaultBatchSize = 4

// PipelineFactory builds the pipeline that audits rawURL. It is called once
// per URL, so per-site settings and a fresh prober can be applied.
type PipelineFactory func(rawURL string) (*Pipeline, error)

// BatchProcessor audits several URLs concurrently.
// Each audit gets a fresh pipeline from the factory, so no state is shared
// between audits.
type BatchProcessor struct {
	pipelineFactory PipelineFactory

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory PipelineFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch audits urls and returns one report per URL in input order.
// A failed audit yields a report with Error set rather than a nil entry.
// The error is non-nil only when ctx was cancelled before every audit
// started; reports for audits that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch audit",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]*model.AuditReport, len(urls))
	err := bp.run(ctx, urls, func(report *model.AuditReport, index int) {
		results[index] = report
	})

	bp.logger.Info("batch audit complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return results, err
}

// ProcessBatchWithCallback audits urls and calls callback as each audit
// finishes. The callback is called from the goroutine that ran the audit,
// so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch audit with callback",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	return bp.run(ctx, urls, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, urls []string, done func(*model.AuditReport, int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report, err := bp.audit(ctx, u)
			if err != nil {
				bp.logger.Warn("audit failed", "url", u, "error", err)
				if report == nil {
					report = model.NewAuditReport(u)
				}
				report.Error = err.Error()
			}
			done(report, i)
			return nil
		})
	}
	return g.Wait()
}

func (bp *BatchProcessor) audit(ctx context.Context, rawURL string) (*model.AuditReport, error) {
	p, err := bp.pipelineFactory(rawURL)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, rawURL)
}
