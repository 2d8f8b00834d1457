package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/render"
	"github.com/copyflow-project/copyflow/internal/session"
	"github.com/copyflow-project/copyflow/internal/source"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/fsutil"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/progress"
	"github.com/copyflow-project/copyflow/pkg/template"
)

var (
	translateLang   string
	translateTone   string
	translateHTML   bool
	translateOut    string
	translateCopy   bool
	translateRender bool
)

type translateResult struct {
	Language string `json:"language"`
	Tone     string `json:"tone"`
	Text     string `json:"text"`
	Output   string `json:"output,omitempty"`
	Copied   bool   `json:"copied"`
}

var translateCmd = &cobra.Command{
	Use:   "translate [file]",
	Short: "Translate source copy into a target language",
	Long: `Translate source copy into a target language and tone.

The source is read from file, or from stdin when file is omitted or "-".
HTML input is converted to Markdown first. The translation is streamed to
stdout as it arrives; with --render it is printed once complete as
formatted Markdown.

The --out path may contain {base}, {lang}, {lang_short}, {tone}, {date},
{time} and {unix} placeholders.

Interrupting with Ctrl-C keeps the text received so far.

Examples:
  copyflow translate launch.md --lang fr-FR
  copyflow translate page.html --lang de-DE --tone casual --out page.de.md
  copyflow translate launch.md --lang it-IT --out "out/{base}.{lang_short}.md"
  cat post.md | copyflow translate --lang ja-JP --tone "social media" --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		format := source.FormatAuto
		if translateHTML {
			format = source.FormatHTML
		}
		text, err := source.Read(path, cmd.InOrStdin(), format)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		sess, err := newSession(client, translateLang, translateTone, false)
		if err != nil {
			return err
		}
		sess.SetSource(text)

		stream := !jsonOutput && !translateRender
		bar := progress.NewCounter("Translating", "chunks", !stream && progress.IsTerminal(os.Stderr))
		unsubscribe := sess.Subscribe(func(ev session.Event) {
			switch ev.Kind {
			case session.EventChunk:
				bar.Increment()
				if stream {
					fmt.Fprint(os.Stdout, ev.Text)
				}
			case session.EventNotice:
				fmtWarn("%s", ev.Text)
			}
		})
		defer unsubscribe()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		bar.Start()
		genErr := sess.Generate(ctx)
		bar.Done("")
		target := sess.Target()
		if stream && target != "" && !strings.HasSuffix(target, "\n") {
			fmt.Println()
		}
		if genErr != nil && !errclass.IsCancelled(genErr) {
			return genErr
		}

		st := sess.Snapshot()
		result := translateResult{
			Language: string(st.Language),
			Tone:     string(st.Tone),
			Text:     target,
		}

		if translateOut != "" {
			out := template.Expand(translateOut, template.OutputVars(path, st.Language, st.Tone))
			if err := fsutil.WriteText(out, target); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			result.Output = out
		}
		if translateCopy {
			if err := clipboard.WriteAll(target); err != nil {
				fmtWarn("copy to clipboard: %v", err)
			} else {
				result.Copied = true
			}
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if translateRender {
			fmt.Print(render.Markdown(target, 0))
		}
		if result.Output != "" {
			fmt.Fprintf(os.Stderr, "%s %s (%s)\n", color.Success("Wrote"), result.Output, language.DisplayName(st.Language))
		}
		if result.Copied {
			fmt.Fprintln(os.Stderr, color.Success("Copied to clipboard."))
		}
		return nil
	},
}

func init() {
	translateCmd.Flags().StringVarP(&translateLang, "lang", "l", "", "target language (default from config)")
	translateCmd.Flags().StringVarP(&translateTone, "tone", "t", "", "tone: Professional, Casual, Promotional, Social Media")
	translateCmd.Flags().BoolVar(&translateHTML, "html", false, "treat the source as HTML")
	translateCmd.Flags().StringVarP(&translateOut, "out", "o", "", "write the translation to this file")
	translateCmd.Flags().BoolVar(&translateCopy, "copy", false, "copy the translation to the clipboard")
	translateCmd.Flags().BoolVar(&translateRender, "render", false, "render the finished translation as Markdown")
	rootCmd.AddCommand(translateCmd)
}
