// Package render formats session data for terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/internal/highlight"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/model"
)

var (
	criticalStyle = lipgloss.NewStyle().Foreground(color.Red).Underline(true)
	warningStyle  = lipgloss.NewStyle().Foreground(color.Yellow).Underline(true)
	infoStyle     = lipgloss.NewStyle().Foreground(color.Cyan).Underline(true)
	fixedStyle    = lipgloss.NewStyle().Foreground(color.Green)
	deletedStyle  = lipgloss.NewStyle().Foreground(color.Red).Strikethrough(true)
	insertedStyle = lipgloss.NewStyle().Foreground(color.Green).Underline(true)
)

func issueStyle(issue *model.AuditIssue) lipgloss.Style {
	if issue.Status == model.StatusFixed {
		return fixedStyle
	}
	switch issue.Type {
	case model.IssueCritical:
		return criticalStyle
	case model.IssueWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// Spans renders a highlighted buffer. Tagged spans are followed by the
// issue's position in the report, so they can be matched to Report output.
// Without color, tagged text is wrapped in brackets.
func Spans(spans []highlight.Span, issues []model.AuditIssue) string {
	index := make(map[string]int, len(issues))
	for i, issue := range issues {
		index[issue.ID] = i + 1
	}

	var sb strings.Builder
	for _, s := range spans {
		if !s.Tagged() {
			sb.WriteString(s.Text)
			continue
		}
		marker := ""
		if n, ok := index[s.Issue.ID]; ok {
			marker = fmt.Sprintf("^%d", n)
		}
		if color.Enabled() {
			sb.WriteString(issueStyle(s.Issue).Render(s.Text))
			sb.WriteString(color.Dim(marker))
		} else {
			sb.WriteString("[" + s.Text + "]" + marker)
		}
	}
	return sb.String()
}

// Diff renders tokens inline, falling back to diff.FormatHuman markers
// without color.
func Diff(tokens []diff.Token) string {
	if !color.Enabled() {
		return diff.FormatHuman(tokens)
	}
	var sb strings.Builder
	for _, t := range diff.Merge(tokens) {
		switch t.Kind {
		case diff.KindDeleted:
			sb.WriteString(deletedStyle.Render(t.Text))
		case diff.KindInserted:
			sb.WriteString(insertedStyle.Render(t.Text))
		default:
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// Report renders a report summary and its issue list.
func Report(r *model.AuditReport) string {
	if r == nil {
		return color.Dim("No audit report.") + "\n"
	}
	var sb strings.Builder
	sb.WriteString(color.Header(fmt.Sprintf("Score: %s", scoreText(r.Score))))
	sb.WriteString("\n")
	if r.Summary != "" {
		sb.WriteString(r.Summary)
		sb.WriteString("\n")
	}
	if len(r.Issues) == 0 {
		sb.WriteString(color.Success("No issues found."))
		sb.WriteString("\n")
		return sb.String()
	}
	sb.WriteString("\n")
	for i, issue := range r.Issues {
		fmt.Fprintf(&sb, "%d. %s %s %s  %s\n",
			i+1,
			severity(issue.Type),
			color.Info(string(issue.Category)),
			color.ID(issue.ID),
			status(issue.Status),
		)
		fmt.Fprintf(&sb, "   %q -> %q\n", issue.TargetSegment, issue.Suggestion)
		if issue.OriginalSegment != "" {
			fmt.Fprintf(&sb, "   %s %s\n", color.Dim("source:"), issue.OriginalSegment)
		}
		if issue.Reason != "" {
			fmt.Fprintf(&sb, "   %s %s\n", color.Dim("reason:"), issue.Reason)
		}
	}
	return sb.String()
}

func scoreText(score float64) string {
	s := fmt.Sprintf("%.0f/100", score)
	switch {
	case score >= 80:
		return color.Success(s)
	case score >= 50:
		return color.Warning(s)
	default:
		return color.Error(s)
	}
}

func severity(t model.IssueType) string {
	label := fmt.Sprintf("[%s]", t)
	switch t {
	case model.IssueCritical:
		return color.Error(label)
	case model.IssueWarning:
		return color.Warning(label)
	default:
		return color.Info(label)
	}
}

func status(s model.IssueStatus) string {
	switch s {
	case model.StatusFixed:
		return color.Success(string(s))
	case model.StatusIgnored:
		return color.Dim(string(s))
	default:
		return string(s)
	}
}

// History renders entries newest first.
func History(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return color.Dim("No history.") + "\n"
	}
	var sb strings.Builder
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&sb, "%s  %s  %s\n", color.ID(e.ShortID()), color.Dim(e.Clock()), e.ActionDescription)
	}
	return sb.String()
}
