// Package probe provides the HTTP Prober shared by every audit stage.
//
// # Probing
//
// Probe checks a single resource without downloading its body. It issues a
// HEAD request first; when the server answers 405 (Method Not Allowed) or
// 501 (Not Implemented) it falls back to a GET carrying "Range: bytes=0-0"
// and recovers the total size from Content-Range (or Content-Length when the
// server ignores the range). The body of the fallback response is never
// read.
//
// A probe never returns an error value. Timeouts and network failures are
// recorded in Result.Error and leave Result.Status at zero.
//
// ProbeMany probes a list of URLs with a fixed-size worker pool and returns
// one Result per input, in input order.
//
// # Fetching
//
// Fetch retrieves a full document (HTML pages, robots.txt, sitemaps) with
// the body capped at Config.MaxBodySize. It returns an error only when no
// response arrived; HTTP error statuses are returned in the Page so callers
// decide how to treat them.
//
// # Configuration
//
// All request defaults live in Config: user agent, per-request timeout,
// retry budget (0 or 1), an optional SOCKS5 proxy and extra headers. Each
// request gets its own timeout; there is no cascading cancellation beyond
// the caller's context.
package probe
