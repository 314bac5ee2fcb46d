package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// addHelpCommands adds workflow documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Log a Trade as It Happens",
					commands: []string{
						"journal trade add --pair EURUSD --direction buy --lots 1 --entry 1.1000 --sl 1.0950 --tp 1.1100",
						"journal trade list --status open          # Find the short ID",
						"journal trade close 3f2a9c1e --price 1.1100",
					},
				},
				{
					title: "Log a Finished Trade with Context",
					commands: []string{
						"journal trade add --pair GBPUSD --direction sell --lots 0.5 \\",
						"  --entry 1.2700 --close 1.2650 --open \"2024-05-01 08:00\" --close-time \"2024-05-01 11:30\" \\",
						"  --strategy breakout --rule \"Volume confirms\" --sentiment disciplined \\",
						"  --field setup_quality=A --field confluence=Support,Trendline",
					},
				},
				{
					title: "Weekly Review",
					commands: []string{
						"journal report summary --days 7",
						"journal report group --by weekday",
						"journal report group --by custom_field --field setup_quality",
						"journal report limits                      # Non-zero exit on a breach",
						"journal progress",
					},
				},
				{
					title: "Fix Mistakes",
					commands: []string{
						"journal trade update 3f2a9c1e --sl 1.0940",
						"journal trade delete 3f2a9c1e",
						"journal trade trash",
						"journal trade restore <full-id>",
					},
				},
				{
					title: "Dashboards and Scripts",
					commands: []string{
						"journal serve --addr 127.0.0.1:8787",
						"curl localhost:8787/api/v1/groups?by=session",
						"journal trade list --json | jq '.[].auto.pl'",
					},
				},
				{
					title: "AI Assistant",
					commands: []string{
						"journal assistant parse-image screenshot.png",
						"journal assistant parse-image screenshot.png --save",
						"journal assistant ask \"Which session should I avoid?\"",
					},
				},
			}

			for _, ex := range examples {
				output.Printf("%s\n", output.paint(ex.title, color.FgCyan, color.Bold))
				for _, c := range ex.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app)

			output.Bold("Trade Journal - Quick Start Guide")
			output.Println()

			steps := []struct {
				step  int
				title string
				desc  string
				cmd   string
			}{
				{1, "Find Your Config", "Config files were created from templates on first run.", "journal config path"},
				{2, "Set Your Plan", "Edit config.toml: account size, max risk, minimum R:R and loss limits.", "journal config show"},
				{3, "Describe Your Pairs", "Edit settings.toml: pip size and pip value per pair, plus the Other fallback.", "journal config validate"},
				{4, "Add Strategies and Fields", "Strategies carry rules and setups; custom fields feed grouping and setups.", "journal report group --by strategy"},
				{5, "Log Your First Trade", "Derived pips, P/L, R and score are computed on save.", "journal trade add --pair EURUSD --direction buy --lots 1 --entry 1.1000 --sl 1.0950"},
				{6, "Review", "Check discipline and progress regularly.", "journal report summary && journal progress"},
			}

			for _, s := range steps {
				output.Printf("%s Step %d: %s\n", output.paint("→", color.FgCyan), s.step, output.paint(s.title, color.Bold))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration Files")
			output.Printf("  config.toml      - journal, plan, scoring, display, logging, api, assistant\n")
			output.Printf("  settings.toml    - pairs, keywords, sessions, fields, strategies, categories\n")
			output.Printf("  credentials.toml - OpenAI API key\n")
			output.Println()

			output.Bold("Important Notes")
			output.Printf("  %s Changing settings recomputes every stored trade on the next run\n", output.Yellow("⚠"))
			output.Printf("  %s Deleted trades stay in the trash for journal.trash_retention_days\n", output.Yellow("⚠"))
			output.Printf("  %s Keep credentials.toml private\n", output.Yellow("⚠"))
			return nil
		},
	}
}
