package model

// AuditIssue is a single flagged problem in the translated text.
// TargetSegment is an exact-text anchor into the buffer the report was
// generated against; it is not an offset.
type AuditIssue struct {
	ID              string      `json:"id"`
	Type            IssueType   `json:"type"`
	Category        Category    `json:"category"`
	OriginalSegment string      `json:"original_segment"`
	TargetSegment   string      `json:"target_segment"`
	Suggestion      string      `json:"suggestion"`
	Reason          string      `json:"reason"`
	Status          IssueStatus `json:"status"`
}

// IsPending reports whether the issue can still be fixed.
func (i AuditIssue) IsPending() bool {
	return i.Status == StatusPending
}

// AuditReport is the result of one audit pass. It is replaced wholesale on
// every audit; afterwards only issue statuses change.
type AuditReport struct {
	Score   float64      `json:"score"`
	Summary string       `json:"summary"`
	Issues  []AuditIssue `json:"issues"`
}

// PendingCount returns the number of issues still awaiting a fix.
func (r *AuditReport) PendingCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, issue := range r.Issues {
		if issue.IsPending() {
			n++
		}
	}
	return n
}

// IssueByID returns the issue with the given id.
func (r *AuditReport) IssueByID(id string) (AuditIssue, bool) {
	if r == nil {
		return AuditIssue{}, false
	}
	for _, issue := range r.Issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return AuditIssue{}, false
}

// Clone returns a deep copy of the report.
func (r *AuditReport) Clone() *AuditReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Issues = append([]AuditIssue(nil), r.Issues...)
	return &out
}
