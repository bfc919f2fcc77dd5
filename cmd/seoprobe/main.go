// Package main provides the entry point for the seoprobe CLI.
//
// seoprobe audits how a single page's SEO touchpoints agree with the rest
// of its site: robots.txt, sitemaps, canonical/AMP/hreflang declarations,
// internal links and page assets.
//
// Usage:
//
//	seoprobe audit <url>...
//	seoprobe sitemap <url>
//	seoprobe serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
