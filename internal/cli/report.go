package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trade-journal/internal/analysis/stats"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/gamification"
	"trade-journal/internal/models"
)

// addReportCommands adds performance, progress and leaderboard commands.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Performance reports",
		Long:  "Summaries, grouped statistics and loss limit checks for a journal.",
	}
	cmd.PersistentFlags().String("journal", "", "journal name (default: config journal.name)")

	cmd.AddCommand(newReportSummaryCmd(app))
	cmd.AddCommand(newReportGroupCmd(app))
	cmd.AddCommand(newReportLimitsCmd(app))
	cmd.AddCommand(newReportJournalsCmd(app))
	rootCmd.AddCommand(cmd)

	progress := newProgressCmd(app)
	progress.Flags().String("journal", "", "journal name (default: config journal.name)")
	rootCmd.AddCommand(progress)

	board := newLeaderboardCmd(app)
	board.Flags().String("journal", "", "journal name (default: config journal.name)")
	rootCmd.AddCommand(board)
}

func newReportSummaryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Overall, daily and weekly performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			summary, err := svc.Summary(ctx, name)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(summary)
			}

			output.Bold("Performance Summary")
			printMetrics(output, summary.Overall)
			output.Printf("  Max Drawdown:   %s\n", output.Money(summary.MaxDrawdown))
			output.Println()

			days, _ := cmd.Flags().GetInt("days")
			if len(summary.Daily) > 0 {
				output.Bold("Daily P/L")
				printPeriods(output, tail(summary.Daily, days))
				output.Println()
			}
			if len(summary.Weekly) > 0 {
				output.Bold("Weekly P/L")
				printPeriods(output, tail(summary.Weekly, days))
				output.Println()
			}
			for _, b := range summary.Breaches {
				output.Warning("⚠ %s %s: lost %s, limit %s", strings.ReplaceAll(b.Rule, "_", " "), b.Period, output.Money(b.Lost), output.Money(b.Limit))
			}
			return nil
		},
	}
	cmd.Flags().Int("days", 14, "periods to show in the daily and weekly tables (0 = all)")
	return cmd
}

func newReportGroupCmd(app *App) *cobra.Command {
	keys := make([]string, len(stats.GroupKeys))
	for i, k := range stats.GroupKeys {
		keys[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Statistics grouped by a trade attribute",
		Long:  "Statistics grouped by a trade attribute.\n\nKeys: " + strings.Join(keys, ", "),
		Example: `  journal report group --by pair
  journal report group --by custom_field --field setup_quality
  journal report group --by category --category Quality`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			by, _ := cmd.Flags().GetString("by")
			field, _ := cmd.Flags().GetString("field")
			category, _ := cmd.Flags().GetString("category")
			grouping := stats.Grouping{Key: stats.GroupKey(strings.ToLower(by)), FieldID: strings.ToLower(field), Category: category}

			groups, err := svc.Groups(ctx, name, grouping)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"group": grouping, "groups": groups})
			}
			if len(groups) == 0 {
				output.Info("No trades to group.")
				return nil
			}

			table := NewTable(output, "Group", "Trades", "Win %", "P/L", "Avg R", "PF", "Expectancy", "Score")
			for _, g := range groups {
				table.AddRow(
					g.Key,
					fmt.Sprintf("%d", g.Trades),
					fmt.Sprintf("%.1f", g.WinRate),
					output.PL(g.TotalPL),
					FormatR(g.AvgR),
					fmt.Sprintf("%.2f", g.ProfitFactor),
					output.PL(g.Expectancy),
					fmt.Sprintf("%.0f", g.AvgScore),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("by", string(stats.ByPair), "group key")
	cmd.Flags().String("field", "", "custom field ID for --by custom_field")
	cmd.Flags().String("category", "", "analysis category for --by category")
	return cmd
}

func newReportLimitsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Check daily and weekly loss limits",
		Long:  "Check daily and weekly loss limits. Exits non-zero when a limit was exceeded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			err = svc.CheckLimits(ctx, name)

			var breaches []*apperrors.LimitError
			for _, e := range flatten(err) {
				var le *apperrors.LimitError
				if errors.As(e, &le) {
					breaches = append(breaches, le)
				} else if e != nil {
					return e
				}
			}
			if output.IsJSON() {
				if jerr := output.JSON(map[string]interface{}{"ok": len(breaches) == 0, "breaches": breaches}); jerr != nil {
					return jerr
				}
				return err
			}
			if len(breaches) == 0 {
				output.Success("✓ All loss limits respected")
				return nil
			}
			for _, b := range breaches {
				output.Error("✗ %s %s: lost %s, limit %s", strings.ReplaceAll(b.Rule, "_", " "), b.Period, output.Money(b.Current), output.Money(b.Limit))
			}
			return err
		},
	}
}

// flatten unpacks an errors.Join result.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func newReportJournalsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "journals",
		Short: "List journals",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			names, err := svc.Journals(ctx)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(names)
			}
			for _, n := range names {
				if n == svc.DefaultJournal() {
					output.Printf("%s %s\n", n, output.DimText("(default)"))
					continue
				}
				output.Println(n)
			}
			return nil
		},
	}
}

func newProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Level, XP and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			state, err := svc.Progress(ctx, name)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(state)
			}

			output.Bold("Level: %s  (%d XP)", state.CurrentLevel.Name, state.XP)
			if state.NextLevel != nil {
				output.Printf("  Next: %s at %d trades, avg score %.0f\n",
					state.NextLevel.Name, state.NextLevel.MinTrades, state.NextLevel.MinAvgScore)
			}
			output.Println()

			output.Bold("Achievements")
			table := NewTable(output, "", "Name", "Progress")
			achievements := svc.Settings().Achievements
			if len(achievements) == 0 {
				achievements = gamification.DefaultAchievements()
			}
			for _, def := range achievements {
				mark := output.DimText("·")
				if state.HasAchievement(def.Name) {
					mark = output.Green("✓")
				}
				p := state.Progress[def.Name]
				table.AddRow(mark, def.Name, fmt.Sprintf("%.0f / %.0f", p.Value, p.Target))
			}
			table.Render()
			return nil
		},
	}
}

func newLeaderboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Compare against the practice leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			state, err := svc.Progress(ctx, name)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(state.Leaderboard)
			}

			table := NewTable(output, "#", "Name", "Level", "Trades", "Win %", "Score", "XP")
			for _, e := range state.Leaderboard {
				entryName := e.Name
				if e.IsUser {
					entryName = output.Green(e.Name + " (you)")
				}
				table.AddRow(
					fmt.Sprintf("%d", e.Rank),
					entryName,
					e.Level,
					fmt.Sprintf("%d", e.Trades),
					fmt.Sprintf("%.1f", e.WinRate),
					fmt.Sprintf("%.0f", e.AvgScore),
					fmt.Sprintf("%d", e.XP),
				)
			}
			table.Render()
			return nil
		},
	}
}

func printMetrics(output *Output, m models.GroupMetrics) {
	output.Printf("  Trades:         %d closed, %d open\n", m.Trades, m.Open)
	output.Printf("  Wins/Losses:    %d/%d (%d break-even)\n", m.Wins, m.Losses, m.BreakEven)
	output.Printf("  Win Rate:       %.1f%%\n", m.WinRate)
	output.Printf("  Total P/L:      %s  (%s)\n", output.PL(m.TotalPL), output.Percent(m.ReturnPercent))
	output.Printf("  Avg Win/Loss:   %s / %s\n", output.Money(m.AvgWin), output.Money(m.AvgLoss))
	output.Printf("  Largest:        %s / %s\n", output.PL(m.LargestWin), output.PL(m.LargestLoss))
	output.Printf("  Total R:        %s  (avg %s)\n", FormatR(m.TotalR), FormatR(m.AvgR))
	output.Printf("  Profit Factor:  %.2f\n", m.ProfitFactor)
	output.Printf("  Expectancy:     %s\n", output.PL(m.Expectancy))
	output.Printf("  Streaks:        %d wins, %d losses\n", m.MaxWinStreak, m.MaxLossStreak)
	output.Printf("  Avg Score:      %s\n", output.Score(int(m.AvgScore+0.5)))
}

func printPeriods(output *Output, periods []stats.PeriodPL) {
	table := NewTable(output, "Period", "Trades", "P/L", "Cumulative")
	for _, p := range periods {
		table.AddRow(p.Period, fmt.Sprintf("%d", p.Trades), output.PL(p.PL), output.PL(p.Cumulative))
	}
	table.Render()
}

// tail returns the last n periods, or all of them when n <= 0.
func tail(periods []stats.PeriodPL, n int) []stats.PeriodPL {
	if n <= 0 || len(periods) <= n {
		return periods
	}
	return periods[len(periods)-n:]
}
