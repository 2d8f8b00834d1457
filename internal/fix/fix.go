// Package fix applies audit suggestions to a buffer.
//
// All functions are pure: inputs are never mutated and callers replace their
// stored buffer and issue list with the returned values.
package fix

import (
	"sort"

	"github.com/copyflow-project/copyflow/internal/segment"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// Outcome is the result of applying one issue.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeSkippedNotFound Outcome = "skipped-not-found"
)

// Err maps a skipped outcome to ErrSegmentNotFound.
func (o Outcome) Err() error {
	if o == OutcomeSkippedNotFound {
		return errclass.ErrSegmentNotFound.WithMessage("segment not found, the text might have already changed")
	}
	return nil
}

// Result is the outcome of a batch fix.
type Result struct {
	Buffer  string             `json:"buffer"`
	Applied int                `json:"applied"`
	Issues  []model.AuditIssue `json:"issues"`
}

// ApplyOne replaces the first occurrence of the issue's target segment with
// its suggestion and marks the issue fixed. When the segment is absent both
// buffer and issue are returned unchanged.
func ApplyOne(buffer string, issue model.AuditIssue) (string, model.AuditIssue, Outcome) {
	out, ok := segment.ReplaceFirst(buffer, issue.TargetSegment, issue.Suggestion)
	if !ok {
		return buffer, issue, OutcomeSkippedNotFound
	}
	issue.Status = model.StatusFixed
	return out, issue, OutcomeApplied
}

// ApplyAll applies every pending issue, longest target segment first, each
// against the buffer produced by the previous replacement. Equal lengths keep
// report order. Issues whose segment is gone by their turn stay pending.
// The returned issues keep the input order.
func ApplyAll(buffer string, issues []model.AuditIssue) Result {
	updated := make([]model.AuditIssue, len(issues))
	copy(updated, issues)

	var order []int
	for i, issue := range updated {
		if issue.IsPending() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(updated[order[a]].TargetSegment) > len(updated[order[b]].TargetSegment)
	})

	res := Result{Buffer: buffer}
	for _, i := range order {
		next, issue, outcome := ApplyOne(res.Buffer, updated[i])
		if outcome != OutcomeApplied {
			continue
		}
		res.Buffer = next
		updated[i] = issue
		res.Applied++
	}
	res.Issues = updated
	return res
}

// Ignore returns a copy of issues with the given issue marked ignored.
func Ignore(issues []model.AuditIssue, id string) ([]model.AuditIssue, error) {
	return setStatus(issues, id, model.StatusIgnored)
}

// MarkFixed returns a copy of issues with the given issue replaced by fixed.
func MarkFixed(issues []model.AuditIssue, fixed model.AuditIssue) []model.AuditIssue {
	out := make([]model.AuditIssue, len(issues))
	copy(out, issues)
	for i := range out {
		if out[i].ID == fixed.ID {
			out[i] = fixed
		}
	}
	return out
}

func setStatus(issues []model.AuditIssue, id string, status model.IssueStatus) ([]model.AuditIssue, error) {
	out := make([]model.AuditIssue, len(issues))
	copy(out, issues)
	for i := range out {
		if out[i].ID == id {
			out[i].Status = status
			return out, nil
		}
	}
	return nil, errclass.ErrIssueNotFound.WithMessagef("issue %s not found", id)
}
