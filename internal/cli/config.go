package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage CopyFlow configuration",
	Long: `Manage CopyFlow configuration stored in $XDG_CONFIG_HOME/copyflow/config.yaml
(or the file given with --config).

Sections:
  api       - model endpoint, model names, temperature, retries, timeout
  defaults  - language and tone used when no flag is given
  audit     - chunked replay of audit responses in the session server
  server    - listen address of "copyflow serve"
  logging   - level and format

The API key is never stored in the file. It is read from GEMINI_API_KEY or
API_KEY, including values from a .env file in the working directory.

Available commands:
  show      - Show the effective configuration
  init      - Write a default configuration file`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		if jsonOutput {
			var view map[string]any
			if err := yaml.Unmarshal(data, &view); err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			view["api_key_set"] = cfg.APIKey != ""
			return outputJSON(view)
		}

		fmt.Println("# CopyFlow Configuration")
		fmt.Printf("# Location: %s\n", configLocation())
		if cfg.APIKey != "" {
			fmt.Println("# API key: set")
		} else {
			fmt.Println("# API key: (not set)")
		}
		fmt.Println()
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configLocation()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]string{"path": path})
		}
		fmt.Printf("%s %s\n", color.Success("Wrote"), path)
		return nil
	},
}

func configLocation() string {
	if configPath != "" {
		return configPath
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "(unknown)"
	}
	return path
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
