package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/audit"
	"github.com/copyflow-project/copyflow/internal/highlight"
	"github.com/copyflow-project/copyflow/internal/render"
	"github.com/copyflow-project/copyflow/internal/session"
	"github.com/copyflow-project/copyflow/internal/source"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/fsutil"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/copyflow-project/copyflow/pkg/progress"
	"github.com/copyflow-project/copyflow/pkg/template"
)

var (
	auditSource  string
	auditTarget  string
	auditLang    string
	auditOut     string
	auditFixAll  bool
	auditWrite   bool
	auditHistory bool
)

type auditResult struct {
	Report  *model.AuditReport   `json:"report"`
	Target  string               `json:"target"`
	Fixed   int                  `json:"fixed"`
	EntryID string               `json:"entry_id,omitempty"`
	Output  string               `json:"output,omitempty"`
	History []model.HistoryEntry `json:"history,omitempty"`
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a translation against its source",
	Long: `Audit a translation against its source text.

The auditor scores the translation and flags issues by category
(Accuracy, Grammar, Safety, Style), each anchored to an exact segment of
the target text. Flagged segments are highlighted in the printed target.

With --fix-all every pending suggestion is applied, longest segment first;
--write saves the fixed target back to its file.

Examples:
  copyflow audit --source launch.md --target launch.fr.md --lang fr-FR
  copyflow audit --source a.md --target a.de.md --lang de-DE --out "{base}.report.json"
  copyflow audit --source a.md --target a.de.md --lang de-DE --fix-all --write`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditSource == "" || auditTarget == "" {
			return fmt.Errorf("--source and --target are required")
		}
		if auditWrite && (!auditFixAll || auditTarget == "-") {
			return fmt.Errorf("--write requires --fix-all and a target file")
		}
		src, err := source.Read(auditSource, cmd.InOrStdin(), source.FormatAuto)
		if err != nil {
			return err
		}
		tgt, err := source.ReadTarget(auditTarget, cmd.InOrStdin())
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		sess, err := newSession(client, auditLang, "", false)
		if err != nil {
			return err
		}
		sess.SetSource(src)
		if err := sess.Edit(tgt); err != nil {
			return err
		}

		unsubscribe := sess.Subscribe(func(ev session.Event) {
			if ev.Kind == session.EventNotice {
				fmtWarn("%s", ev.Text)
			}
		})
		defer unsubscribe()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		bar := progress.NewCounter("Auditing", "", !jsonOutput && progress.IsTerminal(os.Stderr))
		bar.Start()
		_, err = sess.Audit(ctx)
		bar.Done("")
		if err != nil {
			return err
		}

		result := auditResult{}
		var latest model.HistoryEntry
		if auditFixAll {
			n, err := sess.FixAll()
			if err != nil {
				return err
			}
			result.Fixed = n
			if last, ok := sess.History().Latest(); ok && n > 0 {
				latest = last
				result.EntryID = last.ID
			}
		}

		st := sess.Snapshot()
		result.Report = st.Report
		result.Target = st.Target
		if auditHistory {
			result.History = st.History
		}

		if auditWrite {
			if err := fsutil.WriteText(auditTarget, st.Target); err != nil {
				return fmt.Errorf("write target: %w", err)
			}
		}
		if auditOut != "" {
			out := template.Expand(auditOut, template.OutputVars(auditTarget, st.Language, ""))
			data, err := audit.Encode(st.Report)
			if err != nil {
				return err
			}
			if err := fsutil.AtomicWrite(out, data, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			result.Output = out
		}

		if jsonOutput {
			return outputJSON(result)
		}

		fmt.Print(render.Report(st.Report))
		fmt.Println()
		fmt.Println(render.Spans(highlight.Partition(st.Target, st.Report.Issues), st.Report.Issues))
		if auditFixAll {
			fmt.Println()
			fmt.Println(color.Successf("Applied %d of %d fixes.", result.Fixed, result.Fixed+st.Report.PendingCount()))
			if result.EntryID != "" {
				fmt.Printf("Recorded as history entry %s.\n", color.Code(latest.ShortID()))
			}
		}
		if auditWrite {
			fmt.Printf("%s %s\n", color.Success("Wrote"), auditTarget)
		}
		if result.Output != "" {
			fmt.Printf("%s %s\n", color.Success("Saved report to"), result.Output)
		}
		if auditHistory {
			fmt.Println()
			fmt.Print(render.History(st.History))
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVarP(&auditSource, "source", "s", "", "source text file (\"-\" for stdin)")
	auditCmd.Flags().StringVarP(&auditTarget, "target", "t", "", "translated text file")
	auditCmd.Flags().StringVarP(&auditLang, "lang", "l", "", "language of the translation (default from config)")
	auditCmd.Flags().StringVarP(&auditOut, "out", "o", "", "save the report as JSON")
	auditCmd.Flags().BoolVar(&auditFixAll, "fix-all", false, "apply every pending suggestion")
	auditCmd.Flags().BoolVar(&auditWrite, "write", false, "write the fixed target back to its file")
	auditCmd.Flags().BoolVar(&auditHistory, "history", false, "show the edit history of this run")
	rootCmd.AddCommand(auditCmd)
}
