package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/urlnorm"
	"github.com/nao1215/seoprobe/internal/workpool"
)

// Sampling defaults.
const (
	// DefaultSampleSize is the number of candidate pages fetched per audit.
	DefaultSampleSize = 20

	// maxAnchorTextRunes truncates recorded anchor text.
	maxAnchorTextRunes = 100
)

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Sampler looks for links to a target URL on a sample of candidate pages.
type Sampler struct {
	fetcher Fetcher

	// concurrency bounds parallel page fetches.
	concurrency int

	// ignorePatterns are URL path patterns excluded from the sample.
	// Patterns use glob syntax (e.g., "/tag/*", "*.pdf").
	ignorePatterns []string

	logger *slog.Logger
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithSamplerConcurrency sets the number of pages fetched at once.
func WithSamplerConcurrency(n int) SamplerOption {
	return func(s *Sampler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIgnorePatterns sets URL path patterns excluded from sampling.
// Patterns use glob syntax: "/admin/*" excludes everything under /admin,
// "*.pdf" excludes PDF files.
func WithIgnorePatterns(patterns []string) SamplerOption {
	return func(s *Sampler) {
		s.ignorePatterns = patterns
	}
}

// WithSamplerLogger sets the logger.
func WithSamplerLogger(logger *slog.Logger) SamplerOption {
	return func(s *Sampler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSampler creates a Sampler that fetches pages through fetcher.
func NewSampler(fetcher Fetcher, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		fetcher:     fetcher,
		concurrency: workpool.DefaultWorkers,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample fetches up to sampleSize pages chosen by Select and records, per
// page, the first anchor whose target normalizes equal to target.
// Records keep the order of the selected candidates.
func (s *Sampler) Sample(ctx context.Context, candidates []string, target string, sampleSize int) model.InlinkSummary {
	selected := s.Select(candidates, target, sampleSize)
	summary := model.InlinkSummary{
		Candidates: len(candidates),
		Sampled:    len(selected),
		Records:    make([]model.InlinkRecord, 0),
	}

	want, err := urlnorm.Normalize(target, nil)
	if err != nil || len(selected) == 0 {
		return summary
	}

	found := workpool.Map(ctx, selected, s.concurrency, func(ctx context.Context, _ int, pageURL string) *model.InlinkRecord {
		return s.scan(ctx, pageURL, want)
	})

	for _, rec := range found {
		if rec != nil {
			summary.Records = append(summary.Records, *rec)
		}
	}
	summary.Found = len(summary.Records)
	return summary
}

// Select chooses the pages to sample: distinct candidates other than the
// target and not matching an ignore pattern, with those sharing the
// target's first path segment moved to the front. Relative order is kept
// within each group.
func (s *Sampler) Select(candidates []string, target string, sampleSize int) []string {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	self, _ := urlnorm.Normalize(target, nil) //nolint:errcheck // an invalid target excludes nothing
	segment := urlnorm.FirstSegment(target)

	seen := map[urlnorm.NormalizedURL]struct{}{self: {}}
	var related, others []string
	for _, c := range candidates {
		n, err := urlnorm.Normalize(c, nil)
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if !s.allowed(n.String()) {
			continue
		}

		if segment != "" && urlnorm.FirstSegment(n.String()) == segment {
			related = append(related, n.String())
		} else {
			others = append(others, n.String())
		}
	}

	out := append(related, others...)
	if len(out) > sampleSize {
		out = out[:sampleSize]
	}
	return out
}

// scan fetches pageURL and returns a record for the first anchor pointing
// at want. Fetch and parse failures yield nil.
func (s *Sampler) scan(ctx context.Context, pageURL string, want urlnorm.NormalizedURL) *model.InlinkRecord {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.logger.Debug("inlink candidate fetch failed", slog.String("url", pageURL), slog.String("error", err.Error()))
		return nil
	}
	if !page.OK() || !page.IsHTML() {
		return nil
	}

	doc, err := ParseDocument(page.EffectiveURL(), page.Body)
	if err != nil {
		return nil
	}

	for _, a := range doc.Anchors {
		n, err := urlnorm.Normalize(a.Href, nil)
		if err != nil || n != want {
			continue
		}
		return &model.InlinkRecord{
			RefererURL: pageURL,
			AnchorText: truncateRunes(a.Text, maxAnchorTextRunes),
			Nofollow:   a.Nofollow,
		}
	}
	return nil
}

// allowed reports whether the candidate's path matches no ignore pattern.
func (s *Sampler) allowed(candidate string) bool {
	if len(s.ignorePatterns) == 0 {
		return true
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/edit"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
