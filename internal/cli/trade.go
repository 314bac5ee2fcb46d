package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// addTradeCommands adds trade entry and trash commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record and manage trades",
		Long:  "Add, edit, close and delete trades. Derived values are recomputed on every write.",
	}

	cmd.PersistentFlags().String("journal", "", "journal name (default: config journal.name)")

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeUpdateCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))
	cmd.AddCommand(newTradeRestoreCmd(app))
	cmd.AddCommand(newTradeTrashCmd(app))
	cmd.AddCommand(newTradePurgeCmd(app))
	cmd.AddCommand(newTradeRecomputeCmd(app))

	rootCmd.AddCommand(cmd)
}

func addTradeInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("pair", "", "currency pair, e.g. EURUSD")
	f.String("direction", "", "buy or sell")
	f.Float64("lots", 0, "lot size")
	f.Float64("entry", 0, "entry price")
	f.Float64("close", 0, "close price (omit while open)")
	f.Float64("sl", 0, "stop-loss price")
	f.Float64("tp", 0, "take-profit price")
	f.String("open", "", "open time (default: now)")
	f.String("close-time", "", "close time (default: now when --close is set)")
	f.Float64("commission", 0, "commission paid")
	f.Float64("swap", 0, "swap charged (negative) or earned")
	f.Float64("spread", 0, "spread in pips")
	f.String("strategy", "", "strategy ID")
	f.StringArray("rule", nil, "strategy rule followed (repeatable)")
	f.StringSlice("sentiment", nil, "sentiment tags")
	f.StringSlice("tag", nil, "free tags")
	f.StringArray("field", nil, "custom field as id=value (repeatable)")
	f.Float64("mfe", 0, "best price reached")
	f.Float64("mae", 0, "worst price reached")
	f.String("notes", "", "notes")
}

// applyTradeFlags copies every flag the user set onto t.
func applyTradeFlags(cmd *cobra.Command, t *models.Trade, settings models.AppSettings) error {
	f := cmd.Flags()
	loc := settings.Loc()
	now := time.Now()

	if f.Changed("pair") {
		t.Pair, _ = f.GetString("pair")
	}
	if f.Changed("direction") {
		raw, _ := f.GetString("direction")
		d, err := models.ParseDirection(raw)
		if err != nil {
			return err
		}
		t.Direction = d
	}
	for flag, dst := range map[string]*float64{
		"lots":       &t.LotSize,
		"entry":      &t.EntryPrice,
		"close":      &t.ClosePrice,
		"sl":         &t.StopLoss,
		"tp":         &t.TakeProfit,
		"commission": &t.Commission,
		"swap":       &t.Swap,
		"spread":     &t.SpreadPips,
		"mfe":        &t.MFEPrice,
		"mae":        &t.MAEPrice,
	} {
		if f.Changed(flag) {
			*dst, _ = f.GetFloat64(flag)
		}
	}
	if f.Changed("open") {
		raw, _ := f.GetString("open")
		at, err := parseTime(raw, loc, now)
		if err != nil {
			return err
		}
		t.OpenTime = at
	}
	if f.Changed("close-time") {
		raw, _ := f.GetString("close-time")
		at, err := parseTime(raw, loc, now)
		if err != nil {
			return err
		}
		t.CloseTime = at
	}
	if !t.IsOpen() && t.CloseTime.IsZero() {
		t.CloseTime = now
	}
	if t.IsOpen() {
		t.CloseTime = time.Time{}
	}
	if f.Changed("strategy") {
		t.StrategyID, _ = f.GetString("strategy")
	}
	if f.Changed("rule") {
		t.RulesFollowed, _ = f.GetStringArray("rule")
	}
	if f.Changed("sentiment") {
		t.Sentiments, _ = f.GetStringSlice("sentiment")
	}
	if f.Changed("tag") {
		t.Tags, _ = f.GetStringSlice("tag")
	}
	if f.Changed("field") {
		raw, _ := f.GetStringArray("field")
		values, err := parseFieldFlags(settings, raw)
		if err != nil {
			return err
		}
		if t.CustomFields == nil {
			t.CustomFields = make(map[string]models.FieldValue)
		}
		for id, v := range values {
			t.CustomFields[id] = v
		}
	}
	if f.Changed("notes") {
		t.Notes, _ = f.GetString("notes")
	}
	return nil
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a trade",
		Example: `  journal trade add --pair EURUSD --direction buy --lots 1 --entry 1.1000 --sl 1.0950 --tp 1.1100
  journal trade add --pair GBPUSD --direction sell --lots 0.5 --entry 1.2700 --close 1.2650 \
    --open "2024-05-01 08:00" --close-time "2024-05-01 11:30" --strategy breakout \
    --rule "Volume confirms" --sentiment disciplined --field setup_quality=A`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}

			t := models.Trade{OpenTime: time.Now()}
			t.Journal, _ = cmd.Flags().GetString("journal")
			if err := applyTradeFlags(cmd, &t, svc.Settings()); err != nil {
				return err
			}

			saved, err := svc.AddTrade(ctx, t)
			if err != nil {
				output.Error("Failed to add trade: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Trade %s added", shortID(saved.ID))
			printTrade(output, *saved, app)
			warnLimits(ctx, output, app, saved.Journal)
			return nil
		},
	}
	addTradeInputFlags(cmd)
	return cmd
}

func newTradeUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <trade-id>",
		Short: "Edit a trade",
		Long:  "Edit a trade. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			id, err := resolveID(ctx, svc, journalFlag(cmd), args[0])
			if err != nil {
				return err
			}
			t, err := svc.Trade(ctx, id)
			if err != nil {
				return err
			}
			if err := applyTradeFlags(cmd, t, svc.Settings()); err != nil {
				return err
			}

			saved, err := svc.UpdateTrade(ctx, *t)
			if err != nil {
				output.Error("Failed to update trade: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Trade %s updated", shortID(saved.ID))
			printTrade(output, *saved, app)
			return nil
		},
	}
	addTradeInputFlags(cmd)
	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "close <trade-id>",
		Short:   "Close an open trade",
		Args:    cobra.ExactArgs(1),
		Example: `  journal trade close 3f2a9c1e --price 1.1050 --at "2024-05-01 14:30"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			price, _ := cmd.Flags().GetFloat64("price")
			raw, _ := cmd.Flags().GetString("at")
			at, err := parseTime(raw, svc.Settings().Loc(), time.Now())
			if err != nil {
				return err
			}

			id, err := resolveID(ctx, svc, journalFlag(cmd), args[0])
			if err != nil {
				return err
			}
			saved, err := svc.CloseTrade(ctx, id, price, at)
			if err != nil {
				output.Error("Failed to close trade: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(saved)
			}
			output.Success("✓ Trade %s closed: %s (%s)", shortID(saved.ID), output.PL(saved.Auto.PL), saved.Auto.Result)
			printTrade(output, *saved, app)
			warnLimits(ctx, output, app, saved.Journal)
			return nil
		},
	}
	cmd.Flags().Float64("price", 0, "close price")
	cmd.Flags().String("at", "now", "close time")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		Example: `  journal trade list --pair EURUSD --status closed
  journal trade list --from 2024-05-01 --to 2024-05-31 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			filter, err := tradeFilterFromFlags(cmd, svc.Settings().Loc())
			if err != nil {
				return err
			}
			if filter.Journal == "" {
				filter.Journal = svc.DefaultJournal()
			}

			trades, err := svc.Trades(ctx, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades found.")
				return nil
			}

			loc := svc.Settings().Loc()
			table := NewTable(output, "ID", "Opened", "Pair", "Side", "Lots", "Entry", "Close", "Pips", "P/L", "R", "Result", "Score")
			for _, t := range trades {
				table.AddRow(
					shortID(t.ID),
					FormatDateTime(t.OpenTime, loc, app.Config.Display.DateFormat),
					t.Pair,
					string(t.Direction),
					fmt.Sprintf("%.2f", t.LotSize),
					FormatPrice(t.EntryPrice),
					FormatPrice(t.ClosePrice),
					FormatPips(t.Auto.Pips),
					output.PL(t.Auto.PL),
					FormatR(t.Auto.RMultiple),
					string(t.Auto.Result),
					output.Score(t.Auto.Score),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d trades", len(trades))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("pair", "", "filter by pair")
	f.String("direction", "", "filter by direction")
	f.String("status", "", "open or closed")
	f.String("strategy", "", "filter by strategy ID")
	f.String("from", "", "opened on or after (YYYY-MM-DD)")
	f.String("to", "", "opened on or before (YYYY-MM-DD)")
	f.Int("limit", 0, "maximum trades (0 = all)")
	return cmd
}

func tradeFilterFromFlags(cmd *cobra.Command, loc *time.Location) (store.TradeFilter, error) {
	f := cmd.Flags()
	var filter store.TradeFilter
	filter.Journal, _ = f.GetString("journal")
	pair, _ := f.GetString("pair")
	filter.Pair = models.NormalizePair(pair)
	filter.StrategyID, _ = f.GetString("strategy")
	filter.Limit, _ = f.GetInt("limit")

	if raw, _ := f.GetString("direction"); raw != "" {
		d, err := models.ParseDirection(raw)
		if err != nil {
			return filter, err
		}
		filter.Direction = d
	}
	switch status, _ := f.GetString("status"); strings.ToLower(status) {
	case "":
	case "open":
		filter.Status = models.StatusOpen
	case "closed":
		filter.Status = models.StatusClosed
	default:
		return filter, fmt.Errorf("unknown status %q (open, closed)", status)
	}
	if raw, _ := f.GetString("from"); raw != "" {
		from, err := parseTime(raw, loc, time.Now())
		if err != nil {
			return filter, err
		}
		filter.StartDate = from
	}
	if raw, _ := f.GetString("to"); raw != "" {
		to, err := parseTime(raw, loc, time.Now())
		if err != nil {
			return filter, err
		}
		if len(raw) == len(models.DateLayout) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.EndDate = to
	}
	return filter, nil
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade with its derived values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			id, err := resolveID(ctx, svc, journalFlag(cmd), args[0])
			if err != nil {
				return err
			}
			t, err := svc.Trade(ctx, id)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(t)
			}
			printTrade(output, *t, app)
			return nil
		},
	}
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Move a trade to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			id, err := resolveID(ctx, svc, journalFlag(cmd), args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteTrade(ctx, id); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": id})
			}
			output.Success("✓ Trade %s moved to trash", shortID(id))
			output.Dim("Restore with: journal trade restore %s", id)
			return nil
		},
	}
}

func newTradeRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <trade-id>",
		Short: "Restore a trade from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			t, err := svc.RestoreTrade(ctx, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(t)
			}
			output.Success("✓ Trade %s restored", shortID(t.ID))
			return nil
		},
	}
}

func newTradeTrashCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List trades in the trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			if name == "" {
				name = svc.DefaultJournal()
			}
			trashed, err := svc.Trash(ctx, name)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trashed)
			}
			if len(trashed) == 0 {
				output.Info("Trash is empty.")
				return nil
			}

			retention := svc.Settings().TrashRetentionDays
			loc := svc.Settings().Loc()
			table := NewTable(output, "ID", "Pair", "Opened", "Deleted", "Purged After")
			for _, tt := range trashed {
				purge := "never"
				if retention > 0 {
					purge = FormatDateTime(tt.DeletedAt.AddDate(0, 0, retention), loc, models.DateLayout)
				}
				table.AddRow(
					tt.Trade.ID,
					tt.Trade.Pair,
					FormatDateTime(tt.Trade.OpenTime, loc, app.Config.Display.DateFormat),
					FormatDateTime(tt.DeletedAt, loc, app.Config.Display.DateFormat),
					purge,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newTradePurgeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently remove trash older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int64{"purged": n})
			}
			output.Success("✓ %d trades purged", n)
			return nil
		},
	}
}

func newTradeRecomputeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute derived values of every trade",
		Long:  "Recompute derived values of every trade in a journal with the current settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			svc, err := app.journal(ctx)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("journal")
			start := time.Now()
			n, err := svc.Recompute(ctx, name)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"recomputed": n, "duration_ms": time.Since(start).Milliseconds()})
			}
			output.Success("✓ %d trades recomputed in %s", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// printTrade prints a trade's inputs and derived values.
func printTrade(output *Output, t models.Trade, app *App) {
	settings := models.AppSettings{}
	if app.Service != nil {
		settings = app.Service.Settings()
	}
	loc := settings.Loc()
	layout := app.Config.Display.DateFormat
	a := t.Auto

	output.Println()
	output.Bold("%s %s %.2f lots  [%s]", t.Pair, t.Direction, t.LotSize, a.Status)
	output.Printf("  ID:          %s\n", t.ID)
	output.Printf("  Journal:     %s\n", t.Journal)
	output.Printf("  Opened:      %s @ %s\n", FormatDateTime(t.OpenTime, loc, layout), FormatPrice(t.EntryPrice))
	if !t.IsOpen() {
		output.Printf("  Closed:      %s @ %s (%s)\n", FormatDateTime(t.CloseTime, loc, layout), FormatPrice(t.ClosePrice), a.HoldingTime)
	}
	output.Printf("  Stop/Target: %s / %s  (planned %s)\n", FormatPrice(t.StopLoss), FormatPrice(t.TakeProfit), FormatRiskReward(a.PlannedRR))
	if t.StrategyID != "" {
		output.Printf("  Strategy:    %s  rules %s\n", t.StrategyID, JoinOrDash(t.RulesFollowed))
	}
	if len(a.MatchedSetups) > 0 {
		output.Printf("  Setups:      %s\n", JoinOrDash(a.MatchedSetups))
	}
	if len(t.Sentiments)+len(t.Tags) > 0 {
		output.Printf("  Tags:        %s\n", JoinOrDash(append(append([]string{}, t.Sentiments...), t.Tags...)))
	}
	ids := make([]string, 0, len(t.CustomFields))
	for id := range t.CustomFields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		v := t.CustomFields[id]
		if def, ok := settings.Field(id); ok {
			output.Printf("  %-12s %s\n", def.Name+":", JoinOrDash(def.Labels(v)))
			continue
		}
		output.Printf("  %-12s %s\n", id+":", JoinOrDash(v.Options))
	}
	if t.Notes != "" {
		output.Printf("  Notes:       %s\n", t.Notes)
	}

	output.Println()
	output.Printf("  Pips:        %s\n", FormatPips(a.Pips))
	output.Printf("  P/L:         %s  (%s)\n", output.PL(a.PL), output.Percent(a.GainPercent))
	output.Printf("  Risk:        %s  (%.2f%%)\n", output.Money(a.RiskAmount), a.RiskPercent)
	output.Printf("  R-Multiple:  %s\n", FormatR(a.RMultiple))
	output.Printf("  Result:      %s %s\n", output.Outcome(a.Outcome), a.Result)
	output.Printf("  Score:       %s  %s\n", output.Score(a.Score), output.DimText(a.Remark))
	for _, b := range a.Breaches {
		output.Printf("    %s %s\n", output.Red(fmt.Sprintf("-%d", b.Penalty)), b.Remark)
	}
}

// warnLimits prints any loss limit the journal has breached.
func warnLimits(ctx context.Context, output *Output, app *App, name string) {
	if app.Service == nil {
		return
	}
	if err := app.Service.CheckLimits(ctx, name); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			output.Warning("⚠ %s", line)
		}
	}
}

// resolveID expands a unique ID prefix, as printed by "trade list", to the
// full trade ID of a live trade in the named journal. Full IDs pass through
// unchanged.
func resolveID(ctx context.Context, svc *journal.Service, name, prefix string) (string, error) {
	if len(prefix) >= 36 {
		return prefix, nil
	}
	trades, err := svc.Trades(ctx, store.TradeFilter{Journal: name})
	if err != nil {
		return "", err
	}
	var match string
	for _, t := range trades {
		if !strings.HasPrefix(t.ID, prefix) {
			continue
		}
		if match != "" {
			return "", apperrors.NewValidationError("id", prefix, "matches more than one trade")
		}
		match = t.ID
	}
	if match == "" {
		// Let the service report not-found or trashed.
		return prefix, nil
	}
	return match, nil
}

func journalFlag(cmd *cobra.Command) string {
	name, _ := cmd.Flags().GetString("journal")
	return name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
