package pipeline

import (
	"testing"

	"github.com/nao1215/seoprobe/internal/model"
)

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	okCheck := func(kind model.PointerKind, target string, back bool) *model.ReciprocityCheck {
		return &model.ReciprocityCheck{Kind: kind, DeclaredTarget: target, TargetStatus: 200, BackReferenceFound: back}
	}

	tests := []struct {
		name  string
		setup func(r *model.AuditReport)
		want  []string
	}{
		{
			name:  "clean report",
			setup: func(_ *model.AuditReport) {},
			want:  nil,
		},
		{
			name: "noindex in sitemap",
			setup: func(r *model.AuditReport) {
				r.Noindex = true
				r.Sitemap.Found = true
			},
			want: []string{model.ConflictNoindexInSitemap},
		},
		{
			name: "blocked in sitemap and noindex",
			setup: func(r *model.AuditReport) {
				r.Noindex = true
				r.Robots.Blocked = true
				r.Sitemap.Found = true
			},
			want: []string{
				model.ConflictNoindexInSitemap,
				model.ConflictBlockedInSitemap,
				model.ConflictNoindexBlocked,
			},
		},
		{
			name: "non-canonical URL in sitemap",
			setup: func(r *model.AuditReport) {
				r.Sitemap.Found = true
				r.Canonical = model.CanonicalSummary{
					Present:             true,
					Declared:            "https://example.com/b",
					Check:               okCheck(model.PointerCanonical, "https://example.com/b", false),
					TargetCanonical:     "https://example.com/b",
					TargetSelfCanonical: true,
				}
			},
			want: []string{model.ConflictNonCanonicalInSitemap},
		},
		{
			name: "self canonical in sitemap is fine",
			setup: func(r *model.AuditReport) {
				r.Sitemap.Found = true
				r.Canonical = model.CanonicalSummary{Present: true, SelfReferencing: true}
			},
			want: nil,
		},
		{
			name: "canonical loop with noindex target",
			setup: func(r *model.AuditReport) {
				r.Canonical = model.CanonicalSummary{
					Present:         true,
					Check:           okCheck(model.PointerCanonical, "https://example.com/b", true),
					TargetCanonical: "https://example.com/a",
					LoopBack:        true,
					TargetNoindex:   true,
				}
			},
			want: []string{model.ConflictCanonicalLoop, model.ConflictCanonicalNoindex},
		},
		{
			name: "canonical chain",
			setup: func(r *model.AuditReport) {
				r.Canonical = model.CanonicalSummary{
					Present:         true,
					Check:           okCheck(model.PointerCanonical, "https://example.com/b", false),
					TargetCanonical: "https://example.com/c",
				}
			},
			want: []string{model.CanonicalChainConflict("https://example.com/c")},
		},
		{
			name: "canonical target status",
			setup: func(r *model.AuditReport) {
				r.Canonical = model.CanonicalSummary{
					Present: true,
					Check:   &model.ReciprocityCheck{Kind: model.PointerCanonical, TargetStatus: 404},
				}
			},
			want: []string{"canonical target returned status 404"},
		},
		{
			name: "amp without back canonical",
			setup: func(r *model.AuditReport) {
				r.AMP = model.AMPSummary{Present: true, Check: okCheck(model.PointerAMP, "https://example.com/amp", false)}
			},
			want: []string{model.ConflictAMPNoBackCanonical},
		},
		{
			name: "amp unreachable",
			setup: func(r *model.AuditReport) {
				r.AMP = model.AMPSummary{
					Present: true,
					Check:   &model.ReciprocityCheck{Kind: model.PointerAMP, Error: "timeout after 15s"},
				}
			},
			want: []string{"amp target unreachable: timeout after 15s"},
		},
		{
			name: "hreflang problems",
			setup: func(r *model.AuditReport) {
				r.Hreflang = model.HreflangSummary{
					InvalidCodes: []string{"en_US"},
					Checks: []model.ReciprocityCheck{
						*okCheck(model.PointerHreflang, "https://example.com/de", true),
						*okCheck(model.PointerHreflang, "https://example.com/fr", false),
						{Kind: model.PointerHreflang, DeclaredTarget: "https://example.com/es", TargetStatus: 500},
					},
				}
			},
			want: []string{
				model.InvalidHreflangConflict("en_US"),
				model.HreflangMissingReturnConflict("https://example.com/fr"),
				"hreflang alternate https://example.com/es returned status 500",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := model.NewAuditReport("https://example.com/a")
			tt.setup(r)
			DetectConflicts(r)
			DetectConflicts(r)

			if len(r.Conflicts) != len(tt.want) {
				t.Fatalf("got %q, want %q", r.Conflicts, tt.want)
			}
			for i := range tt.want {
				if r.Conflicts[i] != tt.want[i] {
					t.Errorf("conflict %d: got %q, want %q", i, r.Conflicts[i], tt.want[i])
				}
			}
		})
	}
}
