// Package pipeline orchestrates a touchpoints audit of one page.
//
// An audit is a sequence of steps sharing an Audit value. The default
// pipeline fetches the page, evaluates robots.txt, resolves the sitemaps,
// then runs the reciprocity, inlink and asset stages concurrently and
// finally derives conflicts from everything collected:
//
//	p := pipeline.DefaultPipeline(prober, nil)
//	report, err := p.Run(ctx, "https://example.com/page")
//
// Only an invalid URL or a failure to fetch the audited page makes Run
// return an error. Every later failure is recorded in the report, which is
// then degraded rather than missing.
//
// BatchProcessor runs several audits with bounded concurrency, and
// DiscoverSitemaps exposes sitemap discovery on its own.
package pipeline
