package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trade-journal/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only dashboard API",
		Long: `Serve journal data as JSON for dashboards.

Endpoints live under /api/v1 (health, journals, trades, summary, groups,
progress, leaderboard). Prometheus metrics are served on /metrics when
api.metrics is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}

			cfg := api.Config{
				Addr:           app.Config.API.Addr,
				AllowedOrigins: app.Config.API.AllowedOrigins,
				Metrics:        app.Config.API.Metrics,
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}

			output := NewOutput(cmd, app)
			output.Info("Serving journal API on http://%s/api/v1", cfg.Addr)
			return api.NewServer(svc, cfg, Version, app.Logger).Start(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default: config api.addr)")
	return cmd
}
