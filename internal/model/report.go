package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditReport is the merged result of one touchpoints audit.
// A report is created fresh per request and is not modified after the
// pipeline returns it.
type AuditReport struct {
	// ID uniquely identifies this audit run.
	ID string `json:"id"`

	// URL is the audited URL as supplied by the caller, normalized.
	URL string `json:"url"`

	// FinalURL is the audited URL after redirects.
	FinalURL string `json:"finalUrl,omitempty"`

	// Origin is scheme://host[:port] of the audited URL.
	Origin string `json:"origin"`

	// Status is the HTTP status of the initial page fetch.
	Status int `json:"status,omitempty"`

	// AuditedAt is when the audit started.
	AuditedAt time.Time `json:"auditedAt"`

	// Noindex is true when the page carries a noindex directive in a meta
	// robots tag or an X-Robots-Tag header.
	Noindex bool `json:"noindex"`

	// NoindexSource names where the noindex directive was found
	// ("meta" or "header").
	NoindexSource string `json:"noindexSource,omitempty"`

	Robots    RobotsSummary    `json:"robots"`
	Sitemap   SitemapSummary   `json:"sitemap"`
	Canonical CanonicalSummary `json:"canonical"`
	AMP       AMPSummary       `json:"amp"`
	Hreflang  HreflangSummary  `json:"hreflang"`

	// Conflicts lists detected inconsistencies between the page's
	// declarations and what the rest of the site says about it.
	Conflicts []string `json:"conflicts"`

	Inlinks InlinkSummary `json:"inlinks"`
	Heavy   HeavySummary  `json:"heavy"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performedSteps,omitempty"`

	// TimedOut is true when the caller's deadline expired mid-audit.
	// The report then holds partial results.
	TimedOut bool `json:"timedOut,omitempty"`

	// Error holds a request-level failure message, if any.
	Error string `json:"error,omitempty"`
}

// NewAuditReport creates an empty report for the given URL.
func NewAuditReport(url string) *AuditReport {
	return &AuditReport{
		ID:        uuid.NewString(),
		URL:       url,
		AuditedAt: time.Now(),
		Conflicts: make([]string, 0),
	}
}

// AddConflict appends a conflict message unless an identical message is
// already present.
func (r *AuditReport) AddConflict(msg string) {
	for _, c := range r.Conflicts {
		if c == msg {
			return
		}
	}
	r.Conflicts = append(r.Conflicts, msg)
}

// HasConflict reports whether any conflict starts with prefix.
func (r *AuditReport) HasConflict(prefix string) bool {
	for _, c := range r.Conflicts {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// RobotsSummary describes how robots.txt treats the audited URL.
type RobotsSummary struct {
	// Fetched is true when robots.txt was retrieved with a 2xx status.
	Fetched bool `json:"fetched"`

	// Status is the HTTP status of the robots.txt fetch.
	Status int `json:"status,omitempty"`

	// Blocked is true when the wildcard group disallows the audited path.
	Blocked bool `json:"blocked"`

	// Decision is "allowed", "disallowed" or "unspecified".
	Decision string `json:"decision"`

	// MatchedRule is the winning rule, e.g. "disallow: /private".
	MatchedRule string `json:"matchedRule,omitempty"`

	// Sitemaps lists the Sitemap: directives found in robots.txt.
	Sitemaps []string `json:"sitemaps"`

	// Agent is the named crawler whose access was checked in addition to
	// the wildcard group.
	Agent string `json:"agent,omitempty"`

	// AgentAllowed reports whether Agent may fetch the audited path.
	// Nil when robots.txt could not be evaluated for the agent.
	AgentAllowed *bool `json:"agentAllowed,omitempty"`

	// Error records a fetch failure; robots.txt is then treated as absent.
	Error string `json:"error,omitempty"`
}

// SitemapSummary describes whether the audited URL is listed in the site's
// sitemaps.
type SitemapSummary struct {
	// Sitemaps lists the sitemap documents that were fetched and parsed.
	Sitemaps []string `json:"sitemaps"`

	// Tested is the number of distinct URLs resolved from the sitemaps.
	Tested int `json:"tested"`

	// Found is true when the audited URL is among them.
	Found bool `json:"found"`

	// Sample holds the first few resolved URLs.
	Sample []string `json:"sample"`

	// Skipped lists sitemap documents that could not be used.
	Skipped []SkippedDocument `json:"skipped,omitempty"`
}

// SkippedDocument records a sitemap document that was skipped and why.
type SkippedDocument struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// CanonicalSummary describes the page's canonical declaration.
type CanonicalSummary struct {
	// Present is true when the page declares a canonical URL.
	Present bool `json:"present"`

	// Declared is the declared canonical URL, resolved against the page.
	Declared string `json:"declared,omitempty"`

	// SelfReferencing is true when the canonical equals the page's own URL.
	SelfReferencing bool `json:"selfReferencing"`

	// Check is the reciprocity check against the canonical target.
	// Nil when the canonical is absent or self-referencing.
	Check *ReciprocityCheck `json:"check,omitempty"`

	// TargetCanonical is the canonical declared by the target page.
	TargetCanonical string `json:"targetCanonical,omitempty"`

	// TargetSelfCanonical is true when the target declares itself canonical.
	TargetSelfCanonical bool `json:"targetSelfCanonical"`

	// LoopBack is true when the target's canonical points back to the page.
	LoopBack bool `json:"loopBack"`

	// TargetNoindex is true when the target carries a noindex directive.
	TargetNoindex bool `json:"targetNoindex,omitempty"`
}

// AMPSummary describes the page's AMP declaration.
type AMPSummary struct {
	// Present is true when the page declares an AMP version.
	Present bool `json:"present"`

	// Declared is the declared AMP URL, resolved against the page.
	Declared string `json:"declared,omitempty"`

	// Check is the reciprocity check against the AMP document.
	Check *ReciprocityCheck `json:"check,omitempty"`

	// BackCanonicalOk is true when the AMP document declares a canonical
	// pointing back to the page.
	BackCanonicalOk bool `json:"backCanonicalOk"`
}

// HreflangAlternate is one declared language/region alternate.
type HreflangAlternate struct {
	Lang string `json:"lang"`
	Href string `json:"href"`
}

// HreflangSummary describes the page's hreflang declarations.
type HreflangSummary struct {
	// Declared lists every declared alternate.
	Declared []HreflangAlternate `json:"declared"`

	// Sampled is the number of alternates that were fetched.
	Sampled int `json:"sampled"`

	// Reciprocal counts sampled alternates that link back.
	Reciprocal int `json:"reciprocal"`

	// Checks holds one reciprocity check per sampled alternate.
	Checks []ReciprocityCheck `json:"checks"`

	// InvalidCodes lists hreflang values that are not valid language tags.
	InvalidCodes []string `json:"invalidCodes,omitempty"`
}

// InlinkSummary describes the internal-link sample.
type InlinkSummary struct {
	// Candidates is the number of candidate pages available for sampling.
	Candidates int `json:"candidates"`

	// Sampled is the number of pages fetched and scanned.
	Sampled int `json:"sampled"`

	// Found is the number of sampled pages linking to the audited URL.
	Found int `json:"found"`

	// Records holds one record per page that links to the audited URL.
	Records []InlinkRecord `json:"records"`
}

// HeavySummary describes the asset weight audit.
type HeavySummary struct {
	// Collected is the number of distinct assets found on the page.
	Collected int `json:"collected"`

	// Scanned is the number of assets that were probed.
	Scanned int `json:"scanned"`

	// TotalBytes sums the known byte lengths of scanned assets.
	TotalBytes int64 `json:"totalBytes"`

	// ThirdParty counts assets served from another origin.
	ThirdParty int `json:"thirdParty"`

	// RenderBlocking counts render-blocking assets.
	RenderBlocking int `json:"renderBlocking"`

	// Top holds the ten heaviest assets with a known size.
	Top []AssetDescriptor `json:"top10"`

	// Assets holds every scanned asset with its probe metadata.
	Assets []AssetDescriptor `json:"assets"`
}
