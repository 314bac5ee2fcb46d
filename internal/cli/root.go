// Package cli provides the command-line interface for the trade journal.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/assistant"
	"trade-journal/internal/config"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/security"
	"trade-journal/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// commandTimeout bounds every store-backed command.
const commandTimeout = 30 * time.Second

// App holds the application dependencies. Config and Logger are set before
// any command runs; the store, service and assistant are opened on first use.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.DataStore
	Service   *journal.Service
	Assistant *assistant.Assistant
}

// NewApp creates an App with a fallback logger.
func NewApp(logger zerolog.Logger) *App {
	return &App{Logger: logger}
}

// Close releases the service and the store.
func (a *App) Close() {
	if a.Service != nil {
		a.Service.Close()
		a.Service = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close store")
		}
		a.Store = nil
	}
}

// journal opens the store and the service, reconciles cached trade values
// with the current settings and purges expired trash.
func (a *App) journal(ctx context.Context) (*journal.Service, error) {
	if a.Service != nil {
		return a.Service, nil
	}
	settings, err := a.Config.AppSettings()
	if err != nil {
		return nil, err
	}

	ds, err := store.NewSQLiteStore(a.Config.Journal.DBPath)
	if err != nil {
		return nil, apperrors.Wrapf(err, "open journal database %s", a.Config.Journal.DBPath)
	}
	a.Store = ds
	a.Logger.Debug().Str("path", a.Config.Journal.DBPath).Msg("SQLite store initialized")

	a.Service = journal.NewService(ds, settings, journal.Options{
		DefaultJournal: a.Config.Journal.Name,
		Workers:        a.Config.Journal.Workers,
		BatchSize:      a.Config.Journal.BatchSize,
		Logger:         a.Logger,
	})

	changed, err := a.Service.SyncSettings(ctx)
	if err != nil {
		return nil, err
	}
	if changed {
		a.Logger.Info().Msg("Settings changed, cached trade values recomputed")
	}
	if n, err := a.Service.PurgeExpired(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to purge trash")
	} else if n > 0 {
		a.Logger.Info().Int64("purged", n).Msg("Expired trash purged")
	}
	return a.Service, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trade Journal - forex trading journal and discipline tracker",
		Long: `Trade Journal records forex trades, derives pips, P/L, R-multiples and a
discipline score for each one, and reports performance by any attribute.

Configuration lives in config.toml, settings.toml and credentials.toml inside
the config directory; missing files are created from templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	addTradeCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	rootCmd.AddCommand(newServeCmd(app))
	addAssistantCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd, app)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trade Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the journal configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if output.IsJSON() {
				return output.JSON(redacted(app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd, app)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if _, err := app.Config.AppSettings(); err != nil {
				output.Error("Settings validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

// redacted returns a copy of the config safe to print.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	c.Credentials.OpenAI.APIKey = security.MaskCredential(c.Credentials.OpenAI.APIKey)
	return c
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Journal")
	output.Printf("  Name:            %s\n", cfg.Journal.Name)
	output.Printf("  Database:        %s\n", cfg.Journal.DBPath)
	output.Printf("  Timezone:        %s\n", cfg.Journal.Timezone)
	output.Printf("  Trash Retention: %d days\n", cfg.Journal.TrashRetentionDays)
	output.Println()

	output.Bold("Trading Plan")
	output.Printf("  Account Size:     %s\n", output.Money(cfg.Plan.AccountSize))
	output.Printf("  Max Risk:         %.2f%%\n", cfg.Plan.MaxRiskPercent)
	output.Printf("  Min Risk/Reward:  %s\n", FormatRiskReward(cfg.Plan.MinRiskReward))
	output.Printf("  Allowed Pairs:    %s\n", JoinOrDash(cfg.Plan.AllowedPairs))
	output.Printf("  Allowed Sessions: %s\n", JoinOrDash(cfg.Plan.AllowedSessions))
	output.Printf("  Daily Loss Limit: %s\n", limitText(output, cfg.Plan.DailyLossLimit))
	output.Printf("  Weekly Loss Limit: %s\n", limitText(output, cfg.Plan.WeeklyLossLimit))
	output.Println()

	output.Bold("Display")
	output.Printf("  Currency: %s (rate %.4f, locale %s)\n", cfg.Display.Currency, cfg.Display.Rate, cfg.Display.Locale)
	output.Println()

	output.Bold("Assistant")
	output.Printf("  Enabled: %v\n", cfg.Assistant.Enabled)
	output.Printf("  Model:   %s\n", cfg.Assistant.Model)
	output.Printf("  API Key: %s\n", keyState(cfg.Credentials.OpenAI.APIKey))
}

func limitText(output *Output, limit float64) string {
	if limit <= 0 {
		return "off"
	}
	return output.Money(limit)
}

func keyState(key string) string {
	if key == "" {
		return "not set"
	}
	return security.MaskCredential(key)
}
