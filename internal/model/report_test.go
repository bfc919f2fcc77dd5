package model

import (
	"strings"
	"testing"
)

// TestNewAuditReport tests report construction.
func TestNewAuditReport(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com/")
	if r.ID == "" {
		t.Error("expected a report ID")
	}
	if r.URL != "https://example.com/" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.AuditedAt.IsZero() {
		t.Error("expected AuditedAt to be set")
	}
	if r.Conflicts == nil {
		t.Error("expected non-nil conflicts so JSON encodes []")
	}

	other := NewAuditReport("https://example.com/")
	if other.ID == r.ID {
		t.Error("expected distinct IDs per report")
	}
}

// TestAuditReportConflicts tests conflict bookkeeping.
func TestAuditReportConflicts(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com/")
	r.AddConflict(ConflictNoindexInSitemap)
	r.AddConflict(ConflictNoindexInSitemap)
	r.AddConflict(CanonicalChainConflict("https://example.com/c"))

	if len(r.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d: %v", len(r.Conflicts), r.Conflicts)
	}
	if !r.HasConflict(ConflictNoindexInSitemap) {
		t.Error("expected noindex conflict")
	}
	if !r.HasConflict(ConflictCanonicalChain) {
		t.Error("expected canonical chain conflict")
	}
	if r.HasConflict(ConflictAMPUnreachable) {
		t.Error("did not expect amp conflict")
	}
}

// TestTargetFailureConflict tests conflict messages for failed targets.
func TestTargetFailureConflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		check      *ReciprocityCheck
		wantPrefix string
	}{
		{
			name:       "reachable target has no conflict",
			check:      &ReciprocityCheck{Kind: PointerCanonical, TargetStatus: 200},
			wantPrefix: "",
		},
		{
			name:       "canonical network failure",
			check:      &ReciprocityCheck{Kind: PointerCanonical, Error: "timeout"},
			wantPrefix: ConflictCanonicalUnreachable,
		},
		{
			name:       "canonical 404",
			check:      &ReciprocityCheck{Kind: PointerCanonical, TargetStatus: 404},
			wantPrefix: ConflictCanonicalStatus + " 404",
		},
		{
			name:       "amp 500",
			check:      &ReciprocityCheck{Kind: PointerAMP, TargetStatus: 500},
			wantPrefix: ConflictAMPStatus + " 500",
		},
		{
			name:       "hreflang failure names the alternate",
			check:      &ReciprocityCheck{Kind: PointerHreflang, DeclaredTarget: "https://example.com/de", Error: "refused"},
			wantPrefix: ConflictHreflangPrefix + " https://example.com/de unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := TargetFailureConflict(tt.check)
			if tt.wantPrefix == "" {
				if got != "" {
					t.Errorf("expected no conflict, got %q", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("conflict = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}
