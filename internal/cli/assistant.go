package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/assistant"
)

// addAssistantCommands adds the AI assistant commands.
func addAssistantCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "AI trade entry and support",
		Long: `Ask questions about your journal or read a trade from a screenshot.

Requires assistant.enabled and an OpenAI API key in credentials.toml or
OPENAI_API_KEY.`,
	}
	cmd.PersistentFlags().String("journal", "", "journal name (default: config journal.name)")

	cmd.AddCommand(newAssistantAskCmd(app))
	cmd.AddCommand(newAssistantParseImageCmd(app))
	rootCmd.AddCommand(cmd)
}

// assistant returns the assistant, creating it on first use. Without
// credentials it still exists but every call fails as unavailable.
func (a *App) assistant(journalName string) *assistant.Assistant {
	if a.Assistant != nil {
		return a.Assistant
	}
	cfg := a.Config.Assistant

	var client assistant.LLMClient
	if a.Config.HasAssistant() {
		client = assistant.NewOpenAIClient(a.Config.Credentials.OpenAI.APIKey, a.Config.Credentials.OpenAI.BaseURL, cfg.Model, cfg.MaxTokens)
		a.Logger.Debug().Str("model", cfg.Model).Msg("OpenAI client initialized")
	}

	a.Assistant = assistant.New(client, assistant.Options{
		Timeout:       cfg.Timeout,
		RatePerMinute: cfg.RatePerMinute,
		Background: func(ctx context.Context) (string, error) {
			return a.background(ctx, journalName)
		},
		Logger: a.Logger,
	})
	return a.Assistant
}

// background summarizes a journal as compact JSON for support questions.
func (a *App) background(ctx context.Context, journalName string) (string, error) {
	svc, err := a.journal(ctx)
	if err != nil {
		return "", err
	}
	summary, err := svc.Summary(ctx, journalName)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(struct {
		Overall  interface{} `json:"overall"`
		Breaches interface{} `json:"limit_breaches,omitempty"`
		Currency string      `json:"display_currency"`
	}{summary.Overall, summary.Breaches, svc.Settings().DisplayCurrency})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newAssistantAskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ask <question>",
		Short:   "Ask a question about trading or your journal",
		Args:    cobra.MinimumNArgs(1),
		Example: `  journal assistant ask "Why is my win rate lower on Fridays?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			name, _ := cmd.Flags().GetString("journal")
			answer, err := app.assistant(name).GetSupportResponse(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(answer)
			}
			output.Println(answer.Text)
			output.Println()
			output.Dim("model: %s", answer.Model)
			return nil
		},
	}
}

func newAssistantParseImageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse-image <file>",
		Short: "Read a trade from a chart or broker screenshot",
		Long: `Read a trade from a chart or broker screenshot.

The draft is printed for review. With --save it is added to the journal
after the usual validation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			mime, _ := cmd.Flags().GetString("mime")
			name, _ := cmd.Flags().GetString("journal")

			draft, err := app.assistant(name).ParseTradeFromImage(ctx, image, mime)
			if err != nil {
				return err
			}

			save, _ := cmd.Flags().GetBool("save")
			if !save {
				if output.IsJSON() {
					return output.JSON(draft)
				}
				printDraft(output, draft)
				output.Println()
				output.Dim("Re-run with --save to add it to the journal.")
				return nil
			}

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			t, err := draft.Trade(svc.Settings().Loc())
			if err != nil {
				return err
			}
			t.Journal = name
			saved, err := svc.AddTrade(ctx, t)
			if err != nil {
				output.Error("Draft could not be saved: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Trade %s added from screenshot", shortID(saved.ID))
			printTrade(output, *saved, app)
			return nil
		},
	}
	cmd.Flags().String("mime", "", "image MIME type (default: detected)")
	cmd.Flags().Bool("save", false, "add the parsed trade to the journal")
	return cmd
}

func printDraft(output *Output, d assistant.TradeDraft) {
	output.Bold("Trade Draft  (confidence %.0f%%)", d.Confidence*100)
	output.Printf("  Pair:        %s\n", d.Pair)
	output.Printf("  Direction:   %s\n", d.Direction)
	output.Printf("  Lots:        %.2f\n", d.LotSize)
	output.Printf("  Entry:       %s\n", FormatPrice(d.EntryPrice))
	output.Printf("  Close:       %s\n", FormatPrice(d.ClosePrice))
	output.Printf("  Stop/Target: %s / %s\n", FormatPrice(d.StopLoss), FormatPrice(d.TakeProfit))
	output.Printf("  Opened:      %s\n", orDash(d.OpenTime))
	output.Printf("  Closed:      %s\n", orDash(d.CloseTime))
	if d.Notes != "" {
		output.Printf("  Notes:       %s\n", d.Notes)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
