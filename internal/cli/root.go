package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/llm"
	"github.com/copyflow-project/copyflow/internal/session"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/config"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
)

var (
	jsonOutput bool
	configPath string
	noColor    bool
	logLevel   string

	// cfg is populated by the root pre-run hook before any subcommand runs.
	cfg = config.Default()

	rootCmd = &cobra.Command{
		Use:   "copyflow",
		Short: "CopyFlow - AI copywriting assistant",
		Long: `CopyFlow translates marketing copy with a language model, audits the
result for accuracy, grammar, safety and style issues, and applies the
suggested fixes by exact-text anchoring.

Every change to the target text is kept in a linear history that can be
previewed, diffed and restored when running the session server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	configureRoot(rootCmd)
}

// configureRoot installs the persistent flags and config loading hook.
func configureRoot(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/copyflow/config.yaml)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	}
}

// Execute runs the root command.
func Execute() {
	registerValueCompletions(translateCmd, auditCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	color.Init(noColor)
	if noColor {
		color.Disable()
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	c.ApplyEnv(os.Getenv)

	level := c.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	l := logging.NewLogger(lvl)
	if c.Logging.Format != "" {
		l.SetFormat(logging.Format(c.Logging.Format))
	}
	logging.SetGlobal(l)

	cfg = c
	return nil
}

// newClient builds a Gemini client from the loaded configuration.
func newClient() (*llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key: set GEMINI_API_KEY or API_KEY (a .env file is read too)")
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(llm.Options{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.API.BaseURL,
		TranslateModel: cfg.API.TranslateModel,
		AuditModel:     cfg.API.AuditModel,
		Temperature:    cfg.API.Temperature,
		MaxRetries:     cfg.API.MaxRetries,
		HTTPClient:     &http.Client{Timeout: timeout},
		Logger:         logging.Global(),
	}), nil
}

// newSession creates a session backed by client, with language and tone
// taken from the flags or the configured defaults.
func newSession(client *llm.Client, lang, tone string, replay bool) (*session.Session, error) {
	if lang == "" {
		lang = cfg.Defaults.Language
	}
	if tone == "" {
		tone = cfg.Defaults.Tone
	}
	code, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("%w\n  %s", err, suggestLanguages(lang))
	}
	t, err := language.ParseTone(tone)
	if err != nil {
		return nil, fmt.Errorf("%w\n  %s", err, suggestTones())
	}

	opts := session.Options{
		Translator: client,
		Auditor:    client,
		Language:   code,
		Tone:       t,
		Logger:     logging.Global(),
		Metrics:    metrics.Default(),
	}
	if replay {
		interval, err := cfg.StreamIntervalDuration()
		if err != nil {
			return nil, err
		}
		opts.AuditChunkSize = cfg.Audit.StreamChunkSize
		opts.AuditInterval = interval
	}
	return session.New(opts), nil
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "copyflow: "
	if color.Enabled() {
		prefix = color.Error("copyflow:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

func fmtWarn(format string, args ...any) {
	prefix := "copyflow: "
	if color.Enabled() {
		prefix = color.Warning("copyflow:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
