package database

import (
	"time"

	"github.com/nao1215/seoprobe/internal/model"
)

// ConflictDiff describes how the conflicts of a URL changed between two
// audits.
type ConflictDiff struct {
	URL string `json:"url"`

	PreviousAt time.Time `json:"previousAt"`
	CurrentAt  time.Time `json:"currentAt"`

	// New lists conflicts present only in the current report.
	New []string `json:"new"`

	// Resolved lists conflicts present only in the previous report.
	Resolved []string `json:"resolved"`

	// Unchanged lists conflicts present in both.
	Unchanged []string `json:"unchanged"`
}

// HasChanges reports whether any conflict appeared or disappeared.
func (d ConflictDiff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Resolved) > 0
}

// DiffConflicts compares the conflicts of previous and current. Each list
// keeps the order of the report it came from.
func DiffConflicts(previous, current *model.AuditReport) ConflictDiff {
	diff := ConflictDiff{
		URL:        current.URL,
		PreviousAt: previous.AuditedAt,
		CurrentAt:  current.AuditedAt,
		New:        []string{},
		Resolved:   []string{},
		Unchanged:  []string{},
	}

	before := make(map[string]bool, len(previous.Conflicts))
	for _, c := range previous.Conflicts {
		before[c] = true
	}
	after := make(map[string]bool, len(current.Conflicts))
	for _, c := range current.Conflicts {
		after[c] = true
		if before[c] {
			diff.Unchanged = append(diff.Unchanged, c)
		} else {
			diff.New = append(diff.New, c)
		}
	}
	for _, c := range previous.Conflicts {
		if !after[c] {
			diff.Resolved = append(diff.Resolved, c)
		}
	}

	return diff
}
