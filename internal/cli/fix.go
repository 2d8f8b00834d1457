package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/audit"
	"github.com/copyflow-project/copyflow/internal/fix"
	"github.com/copyflow-project/copyflow/internal/source"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/fsutil"
	"github.com/copyflow-project/copyflow/pkg/metrics"
	"github.com/copyflow-project/copyflow/pkg/model"
)

var (
	fixReport string
	fixTarget string
	fixIssue  string
	fixWrite  bool
)

type fixResult struct {
	Applied int                `json:"applied"`
	Skipped int                `json:"skipped"`
	Target  string             `json:"target"`
	Report  *model.AuditReport `json:"report"`
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply saved audit suggestions to a target file",
	Long: `Apply the suggestions of a saved audit report to a target file.

Without --issue every pending issue is applied, longest segment first.
Issues whose segment can no longer be found stay pending. With --write the
target file and the report (with updated statuses) are saved in place;
otherwise the fixed text is printed.

Examples:
  copyflow fix --report report.json --target launch.fr.md
  copyflow fix --report report.json --target launch.fr.md --issue 3f2a9c1d --write`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fixWrite && fixTarget == "-" {
			return fmt.Errorf("--write requires a target file")
		}
		report, target, err := loadReportAndTarget(fixReport, fixTarget)
		if err != nil {
			return err
		}

		result := fixResult{Report: report}
		if fixIssue != "" {
			issue, ok := report.IssueByID(fixIssue)
			if !ok || !issue.IsPending() {
				return errclass.ErrIssueNotFound.WithMessagef("no pending issue %q in %s", fixIssue, fixReport)
			}
			next, fixed, outcome := fix.ApplyOne(target, issue)
			if err := outcome.Err(); err != nil {
				metrics.Default().RecordFixes(0, 1)
				return err
			}
			target = next
			report.Issues = fix.MarkFixed(report.Issues, fixed)
			result.Applied = 1
		} else {
			res := fix.ApplyAll(target, report.Issues)
			result.Skipped = report.PendingCount() - res.Applied
			target = res.Buffer
			report.Issues = res.Issues
			result.Applied = res.Applied
		}
		metrics.Default().RecordFixes(result.Applied, result.Skipped)
		result.Target = target

		if fixWrite {
			if err := fsutil.WriteText(fixTarget, target); err != nil {
				return fmt.Errorf("write target: %w", err)
			}
			data, err := audit.Encode(report)
			if err != nil {
				return err
			}
			if err := fsutil.AtomicWrite(fixReport, data, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if !fixWrite {
			fmt.Print(target)
			return nil
		}
		fmt.Println(color.Successf("Applied %d fix(es) to %s.", result.Applied, fixTarget))
		if result.Skipped > 0 {
			fmt.Println(color.Warningf("%d issue(s) skipped: segment not found, the text might have already changed.", result.Skipped))
		}
		return nil
	},
}

// loadReportAndTarget reads a report saved by `audit --out` and its target.
func loadReportAndTarget(reportPath, targetPath string) (*model.AuditReport, string, error) {
	if reportPath == "" || targetPath == "" {
		return nil, "", fmt.Errorf("--report and --target are required")
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	report, err := audit.LoadReport(data)
	if err != nil {
		return nil, "", err
	}
	target, err := source.ReadTarget(targetPath, os.Stdin)
	if err != nil {
		return nil, "", err
	}
	return report, target, nil
}

func init() {
	fixCmd.Flags().StringVarP(&fixReport, "report", "r", "", "report saved by `copyflow audit --out`")
	fixCmd.Flags().StringVarP(&fixTarget, "target", "t", "", "translated text file")
	fixCmd.Flags().StringVar(&fixIssue, "issue", "", "apply only this issue id")
	fixCmd.Flags().BoolVar(&fixWrite, "write", false, "save the fixed target and updated report")
	rootCmd.AddCommand(fixCmd)
}
