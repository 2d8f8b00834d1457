package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/copyflow-project/copyflow/internal/server"
	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/logging"
	"github.com/copyflow-project/copyflow/pkg/metrics"
	"github.com/copyflow-project/copyflow/pkg/webhook"
)

var (
	serveAddr string
	serveLang string
	serveTone string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive session server",
	Long: `Run a single-user copywriting session behind a WebSocket JSON-RPC API.

Clients connect to /ws and call methods such as setSource, generate, audit,
fixIssue, fixAll, preview and restore. Translation chunks and state changes
are pushed to every connected client as "event" notifications.

Also served:
  /healthz   liveness probe
  /metrics   Prometheus metrics

Hooks listed under "webhooks" in the config file receive translation,
audit, fix and restore milestones as signed JSON POSTs.

The server runs in the foreground until interrupted.

Examples:
  copyflow serve
  copyflow serve --addr :8787 --lang fr-FR`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		sess, err := newSession(client, serveLang, serveTone, true)
		if err != nil {
			return err
		}

		wc, err := cfg.WebhookConfig()
		if err != nil {
			return err
		}
		hooks := webhook.NewClient(wc, logging.Global())
		defer hooks.Close()

		srv := server.New(sess, logging.Global(), metrics.Default(), server.WithWebhooks(hooks))
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "%s ws://%s/ws\n", color.Success("Listening on"), addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVarP(&serveLang, "lang", "l", "", "initial target language")
	serveCmd.Flags().StringVarP(&serveTone, "tone", "t", "", "initial tone")
	rootCmd.AddCommand(serveCmd)
}
