package pipeline

import "github.com/nao1215/seoprobe/internal/model"

// DetectConflicts appends to r.Conflicts every inconsistency between the
// page's own signals and what robots.txt, the sitemaps and the pointer
// targets say about it. Calling it twice adds nothing new.
func DetectConflicts(r *model.AuditReport) {
	if r.Noindex && r.Sitemap.Found {
		r.AddConflict(model.ConflictNoindexInSitemap)
	}
	if r.Robots.Blocked && r.Sitemap.Found {
		r.AddConflict(model.ConflictBlockedInSitemap)
	}
	if r.Noindex && r.Robots.Blocked {
		r.AddConflict(model.ConflictNoindexBlocked)
	}
	if r.Canonical.Present && !r.Canonical.SelfReferencing && r.Sitemap.Found {
		r.AddConflict(model.ConflictNonCanonicalInSitemap)
	}

	canonicalConflicts(r)
	ampConflicts(r)
	hreflangConflicts(r)
}

func canonicalConflicts(r *model.AuditReport) {
	c := r.Canonical
	if c.Check == nil {
		return
	}
	if msg := model.TargetFailureConflict(c.Check); msg != "" {
		r.AddConflict(msg)
		return
	}

	switch {
	case c.LoopBack:
		r.AddConflict(model.ConflictCanonicalLoop)
	case c.TargetCanonical != "" && !c.TargetSelfCanonical:
		r.AddConflict(model.CanonicalChainConflict(c.TargetCanonical))
	}
	if c.TargetNoindex {
		r.AddConflict(model.ConflictCanonicalNoindex)
	}
}

func ampConflicts(r *model.AuditReport) {
	a := r.AMP
	if a.Check == nil {
		return
	}
	if msg := model.TargetFailureConflict(a.Check); msg != "" {
		r.AddConflict(msg)
		return
	}
	if !a.BackCanonicalOk {
		r.AddConflict(model.ConflictAMPNoBackCanonical)
	}
}

func hreflangConflicts(r *model.AuditReport) {
	for _, code := range r.Hreflang.InvalidCodes {
		r.AddConflict(model.InvalidHreflangConflict(code))
	}
	for i := range r.Hreflang.Checks {
		check := &r.Hreflang.Checks[i]
		if msg := model.TargetFailureConflict(check); msg != "" {
			r.AddConflict(msg)
			continue
		}
		if !check.BackReferenceFound {
			r.AddConflict(model.HreflangMissingReturnConflict(check.DeclaredTarget))
		}
	}
}
