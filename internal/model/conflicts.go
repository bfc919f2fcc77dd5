package model

import "fmt"

// Conflict message prefixes. Messages built by the helpers below always
// start with one of these, so callers can test for a conflict class with
// AuditReport.HasConflict.
const (
	ConflictNoindexInSitemap      = "noindex but in sitemap"
	ConflictBlockedInSitemap      = "blocked by robots.txt but in sitemap"
	ConflictNoindexBlocked        = "noindex but blocked by robots.txt (crawlers cannot see noindex)"
	ConflictNonCanonicalInSitemap = "non-canonical URL in sitemap"
	ConflictCanonicalUnreachable  = "canonical target unreachable"
	ConflictCanonicalStatus       = "canonical target returned status"
	ConflictCanonicalLoop         = "canonical loop: target canonicalizes back to source"
	ConflictCanonicalChain        = "canonical chain: target declares canonical"
	ConflictCanonicalNoindex      = "canonical target is noindex"
	ConflictAMPUnreachable        = "amp target unreachable"
	ConflictAMPStatus             = "amp target returned status"
	ConflictAMPNoBackCanonical    = "amp page does not declare canonical back to source"
	ConflictHreflangPrefix        = "hreflang alternate"
	ConflictInvalidHreflang       = "invalid hreflang code"
)

// TargetFailureConflict builds the conflict for an unreachable or failing
// pointer target. It returns "" when the check's target was reachable.
func TargetFailureConflict(check *ReciprocityCheck) string {
	if check == nil || check.Reachable() {
		return ""
	}

	switch check.Kind {
	case PointerCanonical:
		if check.Error != "" {
			return fmt.Sprintf("%s: %s", ConflictCanonicalUnreachable, check.Error)
		}
		return fmt.Sprintf("%s %d", ConflictCanonicalStatus, check.TargetStatus)
	case PointerAMP:
		if check.Error != "" {
			return fmt.Sprintf("%s: %s", ConflictAMPUnreachable, check.Error)
		}
		return fmt.Sprintf("%s %d", ConflictAMPStatus, check.TargetStatus)
	case PointerHreflang:
		if check.Error != "" {
			return fmt.Sprintf("%s %s unreachable: %s", ConflictHreflangPrefix, check.DeclaredTarget, check.Error)
		}
		return fmt.Sprintf("%s %s returned status %d", ConflictHreflangPrefix, check.DeclaredTarget, check.TargetStatus)
	default:
		return ""
	}
}

// CanonicalChainConflict builds the conflict for a canonical target that
// declares yet another canonical.
func CanonicalChainConflict(targetCanonical string) string {
	return fmt.Sprintf("%s %s", ConflictCanonicalChain, targetCanonical)
}

// HreflangMissingReturnConflict builds the conflict for an alternate that
// does not link back.
func HreflangMissingReturnConflict(alternate string) string {
	return fmt.Sprintf("%s %s missing return link", ConflictHreflangPrefix, alternate)
}

// InvalidHreflangConflict builds the conflict for an invalid hreflang value.
func InvalidHreflangConflict(code string) string {
	return fmt.Sprintf("%s %s", ConflictInvalidHreflang, code)
}
