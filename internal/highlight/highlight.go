// Package highlight partitions a buffer into plain and issue-tagged spans.
package highlight

import (
	"github.com/copyflow-project/copyflow/internal/segment"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// Span is a contiguous piece of the buffer covering bytes [Start, End).
// Issue is nil for plain text.
type Span struct {
	Text  string            `json:"text"`
	Start int               `json:"start"`
	End   int               `json:"end"`
	Issue *model.AuditIssue `json:"issue,omitempty"`
}

// Tagged reports whether the span carries an issue.
func (s Span) Tagged() bool {
	return s.Issue != nil
}

// Partition splits buffer into spans, tagging the first untagged occurrence
// of each issue's target segment. Issues are claimed in order; text already
// claimed by an earlier issue is never re-scanned. Ignored issues and issues
// with an empty segment are skipped, as are segments that no longer occur.
func Partition(buffer string, issues []model.AuditIssue) []Span {
	if buffer == "" {
		return nil
	}
	spans := []Span{{Text: buffer, Start: 0, End: len(buffer)}}

	for idx := range issues {
		issue := issues[idx]
		if issue.Status == model.StatusIgnored || issue.TargetSegment == "" {
			continue
		}
		for s := range spans {
			if spans[s].Tagged() {
				continue
			}
			off, ok := segment.Locate(spans[s].Text, issue.TargetSegment)
			if !ok {
				continue
			}
			spans = splice(spans, s, off, &issue)
			break
		}
	}
	return spans
}

// splice replaces spans[s] with its (before, match, after) pieces,
// dropping empty pieces.
func splice(spans []Span, s, off int, issue *model.AuditIssue) []Span {
	host := spans[s]
	n := len(issue.TargetSegment)

	pieces := make([]Span, 0, 3)
	if off > 0 {
		pieces = append(pieces, Span{
			Text:  host.Text[:off],
			Start: host.Start,
			End:   host.Start + off,
		})
	}
	pieces = append(pieces, Span{
		Text:  host.Text[off : off+n],
		Start: host.Start + off,
		End:   host.Start + off + n,
		Issue: issue,
	})
	if off+n < len(host.Text) {
		pieces = append(pieces, Span{
			Text:  host.Text[off+n:],
			Start: host.Start + off + n,
			End:   host.End,
		})
	}

	out := make([]Span, 0, len(spans)+len(pieces)-1)
	out = append(out, spans[:s]...)
	out = append(out, pieces...)
	return append(out, spans[s+1:]...)
}

// Tagged returns only the spans that carry an issue, in buffer order.
func Tagged(spans []Span) []Span {
	var out []Span
	for _, s := range spans {
		if s.Tagged() {
			out = append(out, s)
		}
	}
	return out
}

// Join concatenates span texts.
func Join(spans []Span) string {
	n := 0
	for _, s := range spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
