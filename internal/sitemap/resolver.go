package sitemap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/urlnorm"
	"github.com/nao1215/seoprobe/internal/workpool"
)

// Default resolution bounds.
const (
	DefaultMaxFiles = 10
	DefaultMaxURLs  = 5000
)

// Fetcher retrieves a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

// Result is the outcome of resolving a set of sitemap candidates.
type Result struct {
	// Sitemaps lists the documents that were fetched and decoded, in the
	// order they were processed.
	Sitemaps []string

	// URLs holds the distinct page URLs in discovery order. Loc is
	// normalized.
	URLs []model.SitemapURL

	// Skipped lists documents that were not used and why.
	Skipped []model.SkippedDocument

	// FilesFetched counts fetch attempts, successful or not.
	FilesFetched int

	// Truncated is true when collection stopped at maxURLs.
	Truncated bool

	seen map[urlnorm.NormalizedURL]struct{}
}

// Contains reports whether rawURL is among the resolved URLs.
func (r *Result) Contains(rawURL string) bool {
	n, err := urlnorm.Normalize(rawURL, nil)
	if err != nil {
		return false
	}
	_, ok := r.seen[n]
	return ok
}

// Locs returns the resolved URLs as strings.
func (r *Result) Locs() []string {
	out := make([]string, len(r.URLs))
	for i, u := range r.URLs {
		out[i] = u.Loc
	}
	return out
}

// Resolver resolves sitemap hierarchies.
type Resolver struct {
	fetcher     Fetcher
	concurrency int
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency sets how many sitemap documents are fetched at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger used to report skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver that fetches documents through fetcher.
func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:     fetcher,
		concurrency: workpool.DefaultWorkers,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// workItem is a queued sitemap document. depth is 0 for candidates and 1
// for children of an index.
type workItem struct {
	url   string
	depth int
}

type fetchOutcome struct {
	doc *Document
	err error
}

// Resolve fetches the candidate sitemaps and collects their page URLs.
// Relative candidates are resolved against origin. At most maxFiles
// documents are fetched and at most maxURLs URLs are returned; non-positive
// bounds fall back to the package defaults.
//
// Documents are fetched in batches by a worker pool, while the visited set
// and the URL set are only touched by the calling goroutine.
func (r *Resolver) Resolve(ctx context.Context, candidates []string, origin string, maxFiles, maxURLs int) *Result {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if maxURLs <= 0 {
		maxURLs = DefaultMaxURLs
	}

	res := &Result{
		Sitemaps: make([]string, 0),
		URLs:     make([]model.SitemapURL, 0),
		seen:     make(map[urlnorm.NormalizedURL]struct{}),
	}

	base, _ := url.Parse(origin) //nolint:errcheck // a nil base only disables relative resolution
	visited := make(map[urlnorm.NormalizedURL]struct{})
	var queue []workItem

	enqueue := func(raw string, depth int, b *url.URL) {
		n, err := urlnorm.Normalize(raw, b)
		if err != nil {
			res.skip(r.logger, raw, err.Error())
			return
		}
		if _, ok := visited[n]; ok {
			return
		}
		visited[n] = struct{}{}
		queue = append(queue, workItem{url: n.String(), depth: depth})
	}

	for _, c := range candidates {
		enqueue(c, 0, base)
	}

	for len(queue) > 0 && res.FilesFetched < maxFiles && len(res.URLs) < maxURLs {
		if ctx.Err() != nil {
			break
		}

		n := min(len(queue), maxFiles-res.FilesFetched, r.concurrency)
		batch := queue[:n]
		queue = queue[n:]

		outcomes := workpool.Map(ctx, batch, r.concurrency, func(ctx context.Context, _ int, item workItem) fetchOutcome {
			doc, err := r.fetchDocument(ctx, item.url)
			return fetchOutcome{doc: doc, err: err}
		})
		res.FilesFetched += n

		for i, out := range outcomes {
			item := batch[i]
			if out.err != nil {
				res.skip(r.logger, item.url, out.err.Error())
				continue
			}

			switch out.doc.Kind {
			case KindIndex:
				if item.depth > 0 {
					res.skip(r.logger, item.url, "nested sitemap index not followed")
					continue
				}
				res.Sitemaps = append(res.Sitemaps, item.url)
				childBase, _ := url.Parse(item.url) //nolint:errcheck // item.url is normalized
				for _, child := range out.doc.Children {
					enqueue(child, item.depth+1, childBase)
				}
			case KindURLSet:
				res.Sitemaps = append(res.Sitemaps, item.url)
				res.addURLs(out.doc.URLs, maxURLs)
			default:
				res.skip(r.logger, item.url, fmt.Sprintf("unrecognized root element <%s>", out.doc.Root))
			}

			if len(res.URLs) >= maxURLs {
				break
			}
		}
	}

	if len(queue) > 0 && len(res.URLs) >= maxURLs {
		res.Truncated = true
	}
	return res
}

func (r *Resolver) fetchDocument(ctx context.Context, rawURL string) (*Document, error) {
	page, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		return nil, fmt.Errorf("status %d", page.StatusCode)
	}
	doc, err := Decode(page.Body)
	if err != nil {
		if errors.Is(err, ErrParse) && page.Truncated {
			return nil, fmt.Errorf("%w (document truncated at size limit)", err)
		}
		return nil, err
	}
	return doc, nil
}

// addURLs inserts entries into the URL set until maxURLs is reached.
func (r *Result) addURLs(entries []model.SitemapURL, maxURLs int) {
	for _, e := range entries {
		if len(r.URLs) >= maxURLs {
			r.Truncated = true
			return
		}
		n, err := urlnorm.Normalize(e.Loc, nil)
		if err != nil {
			continue
		}
		if _, ok := r.seen[n]; ok {
			continue
		}
		r.seen[n] = struct{}{}
		r.URLs = append(r.URLs, model.SitemapURL{Loc: n.String(), LastMod: e.LastMod})
	}
}

func (r *Result) skip(logger *slog.Logger, rawURL, reason string) {
	logger.Debug("skipping sitemap document", slog.String("url", rawURL), slog.String("reason", reason))
	r.Skipped = append(r.Skipped, model.SkippedDocument{URL: rawURL, Reason: reason})
}
