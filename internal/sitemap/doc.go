// Package sitemap decodes sitemap XML and resolves sitemap hierarchies into
// a bounded, deduplicated URL collection.
//
// Decode inspects the root element and returns a tagged Document: an index
// listing child sitemaps, a url-set listing page URLs, or Unknown for any
// other well-formed XML. Malformed XML is rejected with ErrParse.
// Gzip-compressed documents are decompressed transparently.
//
// Resolver walks an explicit worklist with a visited set keyed by
// normalized URL. Only one level of index nesting is followed (index to
// url-set), the number of fetched documents is bounded by maxFiles, and
// traversal stops once maxURLs distinct URLs have been collected. A
// document that cannot be fetched or parsed is recorded as skipped and
// never aborts the others.
package sitemap
