package reciprocity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/nao1215/seoprobe/internal/crawler"
	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/urlnorm"
	"github.com/nao1215/seoprobe/internal/workpool"
)

// DefaultHreflangSample is the number of hreflang alternates fetched.
const DefaultHreflangSample = 5

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Source is the page whose pointers are verified.
type Source struct {
	// URL is the audited URL.
	URL string

	// FinalURL is the audited URL after redirects. A back-reference to
	// either URL counts.
	FinalURL string

	// Declarations are the pointers declared by the page.
	Declarations crawler.Declarations
}

// refersTo reports whether raw normalizes equal to the source.
func (s Source) refersTo(raw string) bool {
	if raw == "" {
		return false
	}
	if urlnorm.Equal(raw, s.URL) {
		return true
	}
	return s.FinalURL != "" && urlnorm.Equal(raw, s.FinalURL)
}

// Result bundles the three summaries produced by VerifyAll.
type Result struct {
	Canonical model.CanonicalSummary
	AMP       model.AMPSummary
	Hreflang  model.HreflangSummary
}

// Verifier runs reciprocity checks.
type Verifier struct {
	fetcher        Fetcher
	hreflangSample int
	concurrency    int
	logger         *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHreflangSample sets how many hreflang alternates are fetched.
func WithHreflangSample(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.hreflangSample = n
		}
	}
}

// WithConcurrency sets the number of hreflang alternates fetched at once.
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVerifier creates a Verifier that fetches targets through fetcher.
func NewVerifier(fetcher Fetcher, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher:        fetcher,
		hreflangSample: DefaultHreflangSample,
		concurrency:    workpool.DefaultWorkers,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyAll runs the canonical, AMP and hreflang checks concurrently.
func (v *Verifier) VerifyAll(ctx context.Context, src Source) Result {
	var res Result
	var g errgroup.Group

	g.Go(func() error {
		res.Canonical = v.Canonical(ctx, src)
		return nil
	})
	g.Go(func() error {
		res.AMP = v.AMP(ctx, src)
		return nil
	})
	g.Go(func() error {
		res.Hreflang = v.Hreflang(ctx, src)
		return nil
	})

	_ = g.Wait() //nolint:errcheck // checks record failures inline
	return res
}

// Canonical verifies the declared canonical. A self-referencing canonical
// needs no fetch and produces no check.
func (v *Verifier) Canonical(ctx context.Context, src Source) model.CanonicalSummary {
	declared := src.Declarations.Canonical
	summary := model.CanonicalSummary{
		Present:  declared != "",
		Declared: declared,
	}
	if declared == "" {
		return summary
	}
	if src.refersTo(declared) {
		summary.SelfReferencing = true
		return summary
	}

	t := v.follow(ctx, model.PointerCanonical, declared, func(doc *crawler.Document) (string, bool) {
		return doc.Canonical, src.refersTo(doc.Canonical)
	})
	summary.Check = &t.check
	if t.doc == nil {
		return summary
	}

	summary.TargetCanonical = t.doc.Canonical
	summary.LoopBack = t.check.BackReferenceFound
	summary.TargetSelfCanonical = t.doc.Canonical != "" &&
		(urlnorm.Equal(t.doc.Canonical, declared) || urlnorm.Equal(t.doc.Canonical, t.check.TargetFinalURL))
	summary.TargetNoindex = t.doc.Noindex || crawler.HeaderNoindex(t.page.Headers)
	return summary
}

// AMP verifies that the declared AMP document canonicalizes back to the
// source.
func (v *Verifier) AMP(ctx context.Context, src Source) model.AMPSummary {
	declared := src.Declarations.AMP
	summary := model.AMPSummary{
		Present:  declared != "",
		Declared: declared,
	}
	if declared == "" {
		return summary
	}

	sourceCanonical := src.Declarations.Canonical
	t := v.follow(ctx, model.PointerAMP, declared, func(doc *crawler.Document) (string, bool) {
		back := doc.Canonical
		if src.refersTo(back) {
			return back, true
		}
		return back, sourceCanonical != "" && back != "" && urlnorm.Equal(back, sourceCanonical)
	})
	summary.Check = &t.check
	summary.BackCanonicalOk = t.check.BackReferenceFound
	return summary
}

// Hreflang validates every declared code and verifies return links on a
// sample of alternates. Alternates pointing at the source itself, and
// duplicates, are not sampled.
func (v *Verifier) Hreflang(ctx context.Context, src Source) model.HreflangSummary {
	declared := src.Declarations.Hreflang
	summary := model.HreflangSummary{
		Declared: make([]model.HreflangAlternate, 0, len(declared)),
		Checks:   make([]model.ReciprocityCheck, 0),
	}
	summary.Declared = append(summary.Declared, declared...)

	seen := make(map[urlnorm.NormalizedURL]struct{})
	var sample []model.HreflangAlternate
	for _, alt := range declared {
		if !ValidHreflang(alt.Lang) {
			summary.InvalidCodes = append(summary.InvalidCodes, alt.Lang)
		}
		if src.refersTo(alt.Href) {
			continue
		}
		n, err := urlnorm.Normalize(alt.Href, nil)
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if len(sample) < v.hreflangSample {
			sample = append(sample, alt)
		}
	}

	checks := workpool.Map(ctx, sample, v.concurrency, func(ctx context.Context, _ int, alt model.HreflangAlternate) model.ReciprocityCheck {
		t := v.follow(ctx, model.PointerHreflang, alt.Href, func(doc *crawler.Document) (string, bool) {
			for _, back := range doc.Hreflang {
				if src.refersTo(back.Href) {
					return back.Href, true
				}
			}
			return "", false
		})
		t.check.Lang = alt.Lang
		return t.check
	})

	summary.Checks = append(summary.Checks, checks...)
	summary.Sampled = len(checks)
	for _, c := range checks {
		if c.BackReferenceFound {
			summary.Reciprocal++
		}
	}
	return summary
}

// backReference extracts the target's pointer for the checked kind and
// reports whether it points back to the source.
type backReference func(doc *crawler.Document) (ref string, found bool)

type followed struct {
	check model.ReciprocityCheck
	page  *model.Page
	doc   *crawler.Document
}

// follow is the shared declare, fetch, compare routine. doc is nil unless
// the target was fetched with a 2xx status and parsed as HTML.
func (v *Verifier) follow(ctx context.Context, kind model.PointerKind, declared string, back backReference) followed {
	f := followed{check: model.ReciprocityCheck{Kind: kind, DeclaredTarget: declared}}

	page, err := v.fetcher.Fetch(ctx, declared)
	if err != nil {
		f.check.Error = err.Error()
		v.logger.Debug("reciprocity target fetch failed",
			slog.String("kind", string(kind)),
			slog.String("url", declared),
			slog.String("error", err.Error()))
		return f
	}

	f.page = page
	f.check.TargetStatus = page.StatusCode
	f.check.TargetFinalURL = page.EffectiveURL()
	if !page.OK() {
		return f
	}
	if !page.IsHTML() {
		f.check.Error = fmt.Sprintf("target is not HTML (%s)", page.MediaType())
		return f
	}

	doc, err := crawler.ParseDocument(page.EffectiveURL(), page.Body)
	if err != nil {
		f.check.Error = err.Error()
		return f
	}
	f.doc = doc
	f.check.BackReference, f.check.BackReferenceFound = back(doc)
	return f
}

// ValidHreflang reports whether code is "x-default" or a well-formed
// BCP 47 language tag using hyphens.
func ValidHreflang(code string) bool {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, "x-default") {
		return true
	}
	if code == "" || strings.Contains(code, "_") {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}
