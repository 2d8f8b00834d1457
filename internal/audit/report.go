// Package audit decodes auditor responses into reports.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/copyflow-project/copyflow/pkg/uuidutil"
)

// FallbackSummary is the summary of a report that could not be decoded.
const FallbackSummary = "Failed to parse report."

// wireReport mirrors the response schema. Issues is a pointer so that a
// missing field can be told apart from an empty list.
type wireReport struct {
	Score   float64      `json:"score"`
	Summary string       `json:"summary"`
	Issues  *[]wireIssue `json:"issues"`
}

type wireIssue struct {
	Type            model.IssueType `json:"type"`
	Category        model.Category  `json:"category"`
	OriginalSegment string          `json:"original_segment"`
	TargetSegment   string          `json:"target_segment"`
	Suggestion      string          `json:"suggestion"`
	Reason          string          `json:"reason"`
}

// Fallback returns the report committed when a response is unusable.
func Fallback() *model.AuditReport {
	return &model.AuditReport{
		Score:   0,
		Summary: FallbackSummary,
		Issues:  []model.AuditIssue{},
	}
}

// Parse decodes a raw auditor response. Each issue gets a fresh id from
// newID (uuidutil.NewShort when nil) and pending status; the score is
// clamped to [0, 100]. An unusable payload yields the fallback report
// together with an ErrMalformedReport error; callers commit the report and
// log the error.
func Parse(raw []byte, newID func() string) (*model.AuditReport, error) {
	if newID == nil {
		newID = uuidutil.NewShort
	}

	body := stripFence(bytes.TrimSpace(raw))
	if len(body) == 0 {
		return Fallback(), errclass.ErrMalformedReport.WithMessage("empty audit response")
	}

	var w wireReport
	if err := json.Unmarshal(body, &w); err != nil {
		return Fallback(), errclass.ErrMalformedReport.WithMessagef("decode audit response: %v", err)
	}
	if w.Issues == nil {
		return Fallback(), errclass.ErrMalformedReport.WithMessage("audit response has no issues field")
	}

	report := &model.AuditReport{
		Score:   clampScore(w.Score),
		Summary: w.Summary,
		Issues:  make([]model.AuditIssue, 0, len(*w.Issues)),
	}
	for _, wi := range *w.Issues {
		report.Issues = append(report.Issues, model.AuditIssue{
			ID:              newID(),
			Type:            wi.Type,
			Category:        wi.Category,
			OriginalSegment: wi.OriginalSegment,
			TargetSegment:   wi.TargetSegment,
			Suggestion:      wi.Suggestion,
			Reason:          wi.Reason,
			Status:          model.StatusPending,
		})
	}
	return report, nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	} else {
		return nil
	}
	b = bytes.TrimSpace(b)
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(100, s))
}

// LoadReport decodes a report previously written with Encode. Unlike Parse
// it keeps ids and statuses.
func LoadReport(data []byte) (*model.AuditReport, error) {
	var r model.AuditReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	for i := range r.Issues {
		if r.Issues[i].ID == "" {
			r.Issues[i].ID = uuidutil.NewShort()
		}
		if r.Issues[i].Status == "" {
			r.Issues[i].Status = model.StatusPending
		}
	}
	return &r, nil
}

// Encode serializes a report with ids and statuses for later LoadReport.
func Encode(r *model.AuditReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}
