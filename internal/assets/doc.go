// Package assets audits the weight of the resources a page loads.
//
// Auditor probes collected assets (see crawler.ParseDocument) with the
// shared Prober, merges status, type, size and caching metadata into each
// descriptor, and ranks them by known size. Assets with an unknown size are
// reported but never ranked.
package assets
