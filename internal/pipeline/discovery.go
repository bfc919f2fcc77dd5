package pipeline

import (
	"context"

	"github.com/nao1215/seoprobe/internal/model"
	"github.com/nao1215/seoprobe/internal/robots"
	"github.com/nao1215/seoprobe/internal/sitemap"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// DiscoverSitemaps finds and resolves the sitemaps of rawURL's origin.
//
// Candidates are the Sitemap: directives of robots.txt followed by
// /sitemap.xml and /sitemap_index.xml. A limit or maxFiles of zero or less
// selects the sitemap package default. The only error is an invalid URL;
// unreachable robots.txt and unusable sitemaps are reported as skipped.
func DiscoverSitemaps(ctx context.Context, fetcher Fetcher, rawURL string, limit, maxFiles int, opts ...sitemap.Option) (*model.SitemapDiscovery, error) {
	origin, err := urlnorm.Origin(rawURL)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = sitemap.DefaultMaxURLs
	}
	if maxFiles <= 0 {
		maxFiles = sitemap.DefaultMaxFiles
	}

	// A robots.txt fetch failure still leaves the conventional candidates.
	file, _ := robots.Fetch(ctx, fetcher, origin) //nolint:errcheck // file is non-nil on error
	candidates := sitemap.Candidates(origin, file.Rules.Sitemaps)

	res := sitemap.NewResolver(fetcher, opts...).Resolve(ctx, candidates, origin, maxFiles, limit)

	urls := make([]model.SitemapURL, len(res.URLs))
	copy(urls, res.URLs)
	return &model.SitemapDiscovery{
		Origin:   origin,
		Sitemaps: append(make([]string, 0, len(res.Sitemaps)), res.Sitemaps...),
		Count:    len(urls),
		URLs:     urls,
		Skipped:  res.Skipped,
	}, nil
}
