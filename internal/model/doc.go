// Package model defines the request-scoped value objects produced by an audit.
//
// This package contains the following main types:
//   - Page: a fetched document with its response metadata
//   - AuditReport: the merged result of one touchpoints audit
//   - ReciprocityCheck: one canonical/AMP/hreflang back-reference check
//   - InlinkRecord: one confirmed link to the audited URL
//   - AssetDescriptor: one page asset annotated with probe metadata
//   - SitemapDiscovery: the result of the sitemap discovery operation
//
// Models live in their own package because the engine packages (crawler,
// reciprocity, assets, pipeline, report, database) all exchange them.
//
// None of these values outlive a single audit, and none are shared between
// concurrent audits. The JSON field names follow the external request
// shapes served by the HTTP handler.
package model
