// Package reciprocity verifies that a page and the targets of its declared
// canonical, AMP and hreflang pointers agree with each other.
//
// Every check follows the same routine: take the declared target, fetch it,
// parse its own declarations and look for the matching back-reference. The
// pointer kinds differ only in what counts as a back-reference:
//
//   - Canonical: the target's canonical. Pointing back to the source is a
//     loop; pointing at the target itself is the healthy case.
//   - AMP: the AMP document's canonical must point back to the source (or
//     to the source's own declared canonical).
//   - Hreflang: at least one of the alternate's hreflang links must point
//     back to the source. At most five alternates are sampled.
//
// Target failures are recorded in the check's Error and TargetStatus; they
// never abort sibling checks.
package reciprocity
