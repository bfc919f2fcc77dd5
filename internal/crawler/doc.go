// Package crawler extracts audit-relevant declarations from HTML documents
// and samples internal links.
//
// # Parsing
//
// ParseDocument parses a fetched page once and returns everything later
// stages need from it:
//
//   - Declarations: canonical, AMP and hreflang link elements plus the
//     meta robots directives, resolved against the page (or its <base>).
//   - Anchors: every followable <a href>, with collapsed text and rel flags.
//   - Assets: stylesheets, scripts, images, fonts, media and preloads,
//     classified at collection time and deduplicated by normalized URL.
//
// HTML is parsed with golang.org/x/net/html and queried with goquery.
//
// # Inlink sampling
//
// Sampler fetches a bounded sample of candidate pages and records the first
// anchor on each page that points at the target URL. Candidates sharing the
// target's first path segment are tried first. Scanning a page stops at the
// first matching anchor, so a page contributes at most one record; the
// sample estimates internal linking, it does not enumerate it.
//
// # Usage
//
//	doc, err := crawler.ParseDocument(page.EffectiveURL(), page.Body)
//	sampler := crawler.NewSampler(prober, crawler.WithIgnorePatterns([]string{"/tag/*"}))
//	summary := sampler.Sample(ctx, sitemapURLs, target, 20)
package crawler
