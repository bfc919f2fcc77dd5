package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoprobe/internal/assets"
	"github.com/nao1215/seoprobe/internal/crawler"
	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/probe"
	"github.com/nao1215/seoprobe/internal/reciprocity"
	"github.com/nao1215/seoprobe/internal/robots"
	"github.com/nao1215/seoprobe/internal/sitemap"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Prober is the HTTP client every audit stage shares.
// *probe.Prober implements it.
type Prober interface {
	Fetcher
	ProbeMany(ctx context.Context, urls []string, concurrency int) []probe.Result
}

// sitemapSampleSize is the number of resolved URLs copied into the report.
const sitemapSampleSize = 10

// FetchPageStep fetches and parses the audited page.
// It is the only step whose failure aborts the audit.
type FetchPageStep struct {
	fetcher Fetcher
}

// NewFetchPageStep creates a FetchPageStep.
func NewFetchPageStep(fetcher Fetcher) *FetchPageStep {
	return &FetchPageStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchPageStep) Name() string {
	return "fetch_page"
}

// Do fetches the page, records its status and noindex directives, and
// parses its declarations, anchors and assets.
func (s *FetchPageStep) Do(ctx context.Context, audit *Audit) error {
	report := audit.Report

	origin, err := urlnorm.Origin(report.URL)
	if err != nil {
		return err
	}
	report.Origin = origin

	page, err := s.fetcher.Fetch(ctx, report.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPageFetch, err)
	}
	report.Status = page.StatusCode
	report.FinalURL = page.EffectiveURL()
	if page.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrPageFetch, page.StatusCode)
	}
	audit.Page = page

	doc := &crawler.Document{URL: report.URL}
	if page.IsHTML() {
		parsed, err := crawler.ParseDocument(page.EffectiveURL(), page.Body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPageFetch, err)
		}
		doc = parsed
	}
	audit.Document = doc

	var sources []string
	if doc.Noindex {
		sources = append(sources, "meta")
	}
	if crawler.HeaderNoindex(page.Headers) {
		sources = append(sources, "header")
	}
	report.Noindex = len(sources) > 0
	report.NoindexSource = strings.Join(sources, "+")
	return nil
}

// RobotsStep fetches robots.txt and evaluates the audited path against the
// wildcard group. An unreachable robots.txt is treated as absent.
type RobotsStep struct {
	fetcher Fetcher
	agent   string
	logger  *slog.Logger
}

// NewRobotsStep creates a RobotsStep. When agent is non-empty the step also
// reports whether that crawler may fetch the page.
func NewRobotsStep(fetcher Fetcher, agent string, logger *slog.Logger) *RobotsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsStep{fetcher: fetcher, agent: agent, logger: logger}
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Do executes the robots step.
func (s *RobotsStep) Do(ctx context.Context, audit *Audit) error {
	report := audit.Report
	summary := &report.Robots

	file, err := robots.Fetch(ctx, s.fetcher, report.Origin)
	audit.Robots = file
	summary.Status = file.Status
	summary.Fetched = file.Found()
	summary.Sitemaps = append(make([]string, 0, len(file.Rules.Sitemaps)), file.Rules.Sitemaps...)
	if err != nil {
		s.logger.Warn("robots.txt fetch failed", "url", file.URL, "error", err)
		summary.Error = err.Error()
	}

	path := urlnorm.RequestPath(report.URL)
	decision, rule := robots.Evaluate(path, file.Rules)
	summary.Decision = string(decision)
	summary.Blocked = decision == robots.Disallowed
	if rule != nil {
		summary.MatchedRule = rule.String()
	}

	if s.agent != "" && file.Found() {
		summary.Agent = s.agent
		allowed, err := robots.AgentAllowed(file.Body, s.agent, path)
		if err != nil {
			s.logger.Debug("robots.txt agent check failed", "agent", s.agent, "error", err)
		} else {
			summary.AgentAllowed = &allowed
		}
	}
	return nil
}

// SitemapStep resolves the site's sitemaps and checks whether the audited
// URL is listed.
type SitemapStep struct {
	resolver *sitemap.Resolver
	maxFiles int
	maxURLs  int
}

// NewSitemapStep creates a SitemapStep with the given traversal bounds.
func NewSitemapStep(resolver *sitemap.Resolver, maxFiles, maxURLs int) *SitemapStep {
	return &SitemapStep{resolver: resolver, maxFiles: maxFiles, maxURLs: maxURLs}
}

// Name returns the step name.
func (s *SitemapStep) Name() string {
	return "sitemap"
}

// Do executes the sitemap step.
func (s *SitemapStep) Do(ctx context.Context, audit *Audit) error {
	report := audit.Report

	var declared []string
	if audit.Robots != nil {
		declared = audit.Robots.Rules.Sitemaps
	}
	candidates := sitemap.Candidates(report.Origin, declared)
	res := s.resolver.Resolve(ctx, candidates, report.Origin, s.maxFiles, s.maxURLs)
	audit.Sitemap = res

	locs := res.Locs()
	report.Sitemap = model.SitemapSummary{
		Sitemaps: append(make([]string, 0, len(res.Sitemaps)), res.Sitemaps...),
		Tested:   len(locs),
		Found:    res.Contains(report.URL) || (report.FinalURL != "" && res.Contains(report.FinalURL)),
		Sample:   locs[:min(len(locs), sitemapSampleSize)],
		Skipped:  res.Skipped,
	}
	return nil
}

// ReciprocityStep verifies the page's canonical, AMP and hreflang pointers.
type ReciprocityStep struct {
	verifier *reciprocity.Verifier
}

// NewReciprocityStep creates a ReciprocityStep.
func NewReciprocityStep(verifier *reciprocity.Verifier) *ReciprocityStep {
	return &ReciprocityStep{verifier: verifier}
}

// Name returns the step name.
func (s *ReciprocityStep) Name() string {
	return "reciprocity"
}

// Do executes the reciprocity step.
func (s *ReciprocityStep) Do(ctx context.Context, audit *Audit) error {
	if audit.Document == nil {
		return nil
	}
	res := s.verifier.VerifyAll(ctx, reciprocity.Source{
		URL:          audit.Report.URL,
		FinalURL:     audit.Report.FinalURL,
		Declarations: audit.Document.Declarations,
	})
	audit.Report.Canonical = res.Canonical
	audit.Report.AMP = res.AMP
	audit.Report.Hreflang = res.Hreflang
	return nil
}

// InlinkStep samples sitemap pages for links to the audited URL.
type InlinkStep struct {
	sampler    *crawler.Sampler
	sampleSize int
}

// NewInlinkStep creates an InlinkStep that scans at most sampleSize pages.
func NewInlinkStep(sampler *crawler.Sampler, sampleSize int) *InlinkStep {
	return &InlinkStep{sampler: sampler, sampleSize: sampleSize}
}

// Name returns the step name.
func (s *InlinkStep) Name() string {
	return "inlinks"
}

// Do executes the inlink step.
func (s *InlinkStep) Do(ctx context.Context, audit *Audit) error {
	var candidates []string
	if audit.Sitemap != nil {
		candidates = audit.Sitemap.Locs()
	}
	audit.Report.Inlinks = s.sampler.Sample(ctx, candidates, audit.Report.URL, s.sampleSize)
	return nil
}

// AssetStep probes the page's assets for size and caching metadata.
type AssetStep struct {
	auditor     *assets.Auditor
	maxAssets   int
	concurrency int
}

// NewAssetStep creates an AssetStep.
func NewAssetStep(auditor *assets.Auditor, maxAssets, concurrency int) *AssetStep {
	return &AssetStep{auditor: auditor, maxAssets: maxAssets, concurrency: concurrency}
}

// Name returns the step name.
func (s *AssetStep) Name() string {
	return "assets"
}

// Do executes the asset step.
func (s *AssetStep) Do(ctx context.Context, audit *Audit) error {
	var collected []model.AssetDescriptor
	if audit.Document != nil {
		collected = audit.Document.Assets
	}
	res := s.auditor.Audit(ctx, collected, s.maxAssets, s.concurrency)
	audit.Report.Heavy = res.Summary(len(collected))
	return nil
}

// ParallelStep runs independent steps concurrently.
// The steps must write disjoint parts of the report.
type ParallelStep struct {
	steps []Step
}

// NewParallelStep creates a ParallelStep.
func NewParallelStep(steps ...Step) *ParallelStep {
	return &ParallelStep{steps: steps}
}

// Name joins the names of the inner steps.
func (s *ParallelStep) Name() string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = step.Name()
	}
	return strings.Join(names, "+")
}

// Do runs every inner step and returns the first error. A failing step
// does not cancel its siblings.
func (s *ParallelStep) Do(ctx context.Context, audit *Audit) error {
	var g errgroup.Group
	for _, step := range s.steps {
		g.Go(func() error {
			if err := step.Do(ctx, audit); err != nil {
				return fmt.Errorf("%s: %w", step.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ConflictStep derives conflicts from the results of the earlier steps.
type ConflictStep struct{}

// NewConflictStep creates a ConflictStep.
func NewConflictStep() *ConflictStep {
	return &ConflictStep{}
}

// Name returns the step name.
func (s *ConflictStep) Name() string {
	return "conflicts"
}

// Do executes the conflict step.
func (s *ConflictStep) Do(_ context.Context, audit *Audit) error {
	DetectConflicts(audit.Report)
	return nil
}
