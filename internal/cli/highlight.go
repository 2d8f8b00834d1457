package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/highlight"
	"github.com/copyflow-project/copyflow/internal/render"
	"github.com/copyflow-project/copyflow/internal/segment"
	"github.com/copyflow-project/copyflow/pkg/model"
)

var (
	highlightReport string
	highlightTarget string
)

type highlightSpan struct {
	Text    string `json:"text"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	IssueID string `json:"issue_id,omitempty"`
}

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Show where a saved report's issues occur in a target file",
	Long: `Show where the issues of a saved audit report occur in a target file.

Each flagged segment is highlighted at its first occurrence and followed by
the issue's number in the report. Ignored issues and segments that no
longer occur are not shown.

Examples:
  copyflow highlight --report report.json --target launch.fr.md
  copyflow highlight --report report.json --target launch.fr.md --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, target, err := loadReportAndTarget(highlightReport, highlightTarget)
		if err != nil {
			return err
		}
		spans := highlight.Partition(target, report.Issues)

		if jsonOutput {
			out := make([]highlightSpan, 0, len(spans))
			for _, s := range spans {
				hs := highlightSpan{Text: s.Text, Start: s.Start, End: s.End}
				if s.Tagged() {
					hs.IssueID = s.Issue.ID
				}
				out = append(out, hs)
			}
			return outputJSON(out)
		}

		fmt.Println(render.Spans(spans, report.Issues))
		if n := missingPending(spans, report); n > 0 {
			fmtWarn("%d pending issue(s) not found in %s", n, highlightTarget)
		}
		for _, issue := range report.Issues {
			if !issue.IsPending() {
				continue
			}
			if n := segment.Count(target, issue.TargetSegment); n > 1 {
				fmtWarn("%q occurs %d times; only the first is highlighted and fixed", issue.TargetSegment, n)
			}
		}
		return nil
	},
}

// missingPending counts pending issues that claimed no span. Fixed issues
// whose text still occurs are highlighted too and must not offset the count.
func missingPending(spans []highlight.Span, report *model.AuditReport) int {
	shown := 0
	for _, sp := range highlight.Tagged(spans) {
		if sp.Issue.IsPending() {
			shown++
		}
	}
	return report.PendingCount() - shown
}

func init() {
	highlightCmd.Flags().StringVarP(&highlightReport, "report", "r", "", "report saved by `copyflow audit --out`")
	highlightCmd.Flags().StringVarP(&highlightTarget, "target", "t", "", "translated text file")
	rootCmd.AddCommand(highlightCmd)
}
