// Package server exposes the audit engine over HTTP with gin.
//
// Routes:
//
//	GET /api/sitemaps?url=<page>&limit=<n>      sitemap discovery
//	GET /api/touchpoints?url=<page>&sample=<n>  touchpoints audit
//	GET /healthz                                liveness
//
// Failures are answered with an error envelope:
//
//	{"error": {"code": "invalid_url", "message": "..."}}
//
// An invalid url parameter is a 400, a failed fetch of the audited page is
// a 502. Once the page itself was fetched, per-item failures stay inside a
// 200 report.
package server
