package model

// PointerKind identifies the kind of declared pointer a ReciprocityCheck
// verifies.
type PointerKind string

const (
	// PointerCanonical is a <link rel="canonical"> declaration.
	PointerCanonical PointerKind = "canonical"

	// PointerAMP is a <link rel="amphtml"> declaration.
	PointerAMP PointerKind = "amp"

	// PointerHreflang is a <link rel="alternate" hreflang="..."> declaration.
	PointerHreflang PointerKind = "hreflang"
)

// ReciprocityCheck is the outcome of following one declared pointer to its
// target and looking for the matching back-reference there.
type ReciprocityCheck struct {
	// Kind is the pointer kind.
	Kind PointerKind `json:"kind"`

	// Lang is the hreflang value, for hreflang checks only.
	Lang string `json:"lang,omitempty"`

	// DeclaredTarget is the URL the source page points to.
	DeclaredTarget string `json:"declaredTarget"`

	// TargetStatus is the HTTP status of the target fetch, 0 when the
	// fetch failed before a response arrived.
	TargetStatus int `json:"targetStatus,omitempty"`

	// TargetFinalURL is the target URL after redirects.
	TargetFinalURL string `json:"targetFinalUrl,omitempty"`

	// BackReference is the URL the target declares for the same pointer
	// kind, when it declares exactly one (canonical, AMP).
	BackReference string `json:"backReference,omitempty"`

	// BackReferenceFound is true when the target points back to the source.
	BackReferenceFound bool `json:"backReferenceFound"`

	// Error records why the target could not be evaluated.
	Error string `json:"error,omitempty"`
}

// Reachable reports whether the target was fetched with a status below 400.
func (c *ReciprocityCheck) Reachable() bool {
	return c.Error == "" && c.TargetStatus > 0 && c.TargetStatus < 400
}

// InlinkRecord is one confirmed link to the audited URL found on a sampled
// page.
type InlinkRecord struct {
	// RefererURL is the page containing the link.
	RefererURL string `json:"refererUrl"`

	// AnchorText is the link text, whitespace-collapsed and truncated.
	AnchorText string `json:"anchorText"`

	// Nofollow is true when the anchor carries rel="nofollow" (or ugc/sponsored).
	Nofollow bool `json:"nofollow"`
}

// AssetKind classifies a page asset by how the page references it.
type AssetKind string

const (
	AssetStylesheet AssetKind = "stylesheet"
	AssetScript     AssetKind = "script"
	AssetImage      AssetKind = "image"
	AssetFont       AssetKind = "font"
	AssetMedia      AssetKind = "media"
	AssetPreload    AssetKind = "preload"
)

// AssetDescriptor is a page asset, optionally annotated with probe results.
type AssetDescriptor struct {
	// URL is the absolute, normalized asset URL.
	URL string `json:"url"`

	// Kind is the asset classification.
	Kind AssetKind `json:"kind"`

	// Status is the HTTP status of the probe, 0 when not probed or failed.
	Status int `json:"status,omitempty"`

	// ContentType is the probed Content-Type.
	ContentType string `json:"contentType,omitempty"`

	// ByteLength is the probed size in bytes, nil when unknown.
	ByteLength *int64 `json:"byteLength"`

	// CacheControl is the probed Cache-Control header.
	CacheControl string `json:"cacheControl,omitempty"`

	// ThirdParty is true when the asset origin differs from the page origin.
	ThirdParty bool `json:"thirdParty"`

	// RenderBlocking is true for stylesheets and for head scripts without
	// async or defer.
	RenderBlocking bool `json:"renderBlocking"`

	// Error records a probe failure.
	Error string `json:"error,omitempty"`
}

// SitemapURL is one URL resolved from a sitemap.
type SitemapURL struct {
	Loc     string `json:"loc"`
	LastMod string `json:"lastmod,omitempty"`
}

// SitemapDiscovery is the result of the sitemap discovery operation.
type SitemapDiscovery struct {
	// Origin is the origin the sitemaps were discovered for.
	Origin string `json:"origin"`

	// Sitemaps lists the sitemap documents that were fetched and parsed.
	Sitemaps []string `json:"sitemaps"`

	// Count is len(URLs).
	Count int `json:"count"`

	// URLs holds the resolved, deduplicated URLs.
	URLs []SitemapURL `json:"urls"`

	// Skipped lists sitemap documents that could not be used.
	Skipped []SkippedDocument `json:"skipped,omitempty"`
}
