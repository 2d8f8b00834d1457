package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/diff"
	"github.com/copyflow-project/copyflow/internal/render"
)

var (
	diffStatOnly bool
)

type diffResult struct {
	Tokens []diff.Token `json:"tokens"`
	Stats  diff.Stats   `json:"stats"`
}

var diffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Show a word-level diff of two text files",
	Long: `Show a word-level diff of two text files.

Text is split into runs of whitespace and non-whitespace. Deleted runs are
shown struck through in red (or as [-text-]) and inserted runs underlined
in green (or as {+text+}).

Examples:
  copyflow diff draft.md final.md
  copyflow diff draft.md final.md --stat`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := readText(args[0])
		if err != nil {
			return err
		}
		after, err := readText(args[1])
		if err != nil {
			return err
		}

		tokens := diff.Diff(before, after)
		stats := diff.Summarize(tokens)

		if jsonOutput {
			return outputJSON(diffResult{Tokens: diff.Merge(tokens), Stats: stats})
		}
		if diffStatOnly || !stats.Changed() {
			fmt.Println(diff.FormatStat(stats))
			return nil
		}
		fmt.Println(render.Diff(tokens))
		return nil
	},
}

// readText reads a file as-is, allowing empty content.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

func init() {
	diffCmd.Flags().BoolVar(&diffStatOnly, "stat", false, "show only token counts")
	rootCmd.AddCommand(diffCmd)
}
