package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/model"
)

type languagesResult struct {
	Languages []language.Option `json:"languages"`
	Tones     []model.Tone      `json:"tones"`
}

var languagesCmd = &cobra.Command{
	Use:     "languages",
	Aliases: []string{"langs"},
	Short:   "List supported target languages and tones",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := language.Options()
		if jsonOutput {
			return outputJSON(languagesResult{Languages: opts, Tones: language.Tones})
		}

		fmt.Println(color.Header("Languages"))
		for _, o := range opts {
			fmt.Printf("  %-6s  %-28s %s\n", color.ID(string(o.Code)), o.Name, color.Dim(o.Description))
		}
		fmt.Println()
		fmt.Println(color.Header("Tones"))
		for _, t := range language.Tones {
			fmt.Printf("  %s\n", t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
