package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/seoprobe/internal/crawler"
	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/robots"
	"github.com/nao1215/seoprobe/internal/sitemap"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// ErrPageFetch is returned when the audited page itself cannot be fetched.
// It is the only failure besides an invalid URL that aborts an audit.
var ErrPageFetch = errors.New("failed to fetch audited page")

// Audit is the state shared by the steps of one audit run.
// Report is the output; the other fields are intermediate results that
// later steps read.
type Audit struct {
	// Report accumulates the results of every step.
	Report *model.AuditReport

	// Page is the fetched audited page. Set by FetchPageStep.
	Page *model.Page

	// Document is the parsed page. It is never nil once FetchPageStep has
	// run; a non-HTML page yields an empty document.
	Document *crawler.Document

	// Robots is the fetched robots.txt. Set by RobotsStep.
	Robots *robots.File

	// Sitemap is the resolved sitemap collection. Set by SitemapStep.
	Sitemap *sitemap.Result
}

// NewAudit creates the state for auditing normalizedURL.
func NewAudit(normalizedURL string) *Audit {
	return &Audit{Report: model.NewAuditReport(normalizedURL)}
}

// Step is one stage of an audit.
// Steps run in sequence and see the results of the steps before them.
type Step interface {
	// Do executes the step. Per-item failures are recorded in the report
	// and Do returns nil; a returned error means later steps cannot run
	// meaningfully.
	Do(ctx context.Context, audit *Audit) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs audit steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// timeout bounds Run. Zero leaves the caller's deadline alone.
	timeout time.Duration
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTimeout bounds each Run with a deadline. When it expires the
// report is returned degraded with TimedOut set.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Run audits rawURL and returns the report.
//
// The error is non-nil only for request-level failures: an input that
// wraps urlnorm.ErrInvalidURL (the report is then nil) or ErrPageFetch.
// Once the page has been fetched, every later failure, including the
// caller's deadline expiring, yields a degraded report and a nil error.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*model.AuditReport, error) {
	normalized, err := urlnorm.Normalize(rawURL, nil)
	if err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	audit := NewAudit(normalized.String())
	err = p.Execute(ctx, audit)
	if err == nil {
		return audit.Report, nil
	}
	if audit.Page == nil || errors.Is(err, ErrPageFetch) {
		return audit.Report, err
	}
	return audit.Report, nil
}

// Execute runs all steps in sequence against audit.
// Cancellation is checked between steps; a step in progress relies on the
// per-request timeouts of its probes.
func (p *Pipeline) Execute(ctx context.Context, audit *Audit) error {
	report := audit.Report
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("audit cancelled",
				"step", step.Name(),
				"url", report.URL,
				"reason", ctx.Err(),
			)
			report.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", report.URL,
		)

		if err := step.Do(ctx, audit); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", report.URL,
				"error", err,
			)
			report.Error = err.Error()
			return err
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	if ctx.Err() != nil {
		// The deadline expired inside a step; its results are partial.
		report.TimedOut = true
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
