package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"options-engine/internal/models"
	"options-engine/internal/store"
)

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Browse past recommendations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List journaled recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalList(cmd, app)
		},
	}
	list.Flags().String("symbol", "", "filter by underlying")
	list.Flags().String("outcome", "", "filter by outcome (SELECTED, NO_VIABLE_STRATEGY, POSITION_TOO_LARGE)")
	list.Flags().Int("limit", 20, "maximum entries to show")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one journaled recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalShow(cmd, app, args[0])
		},
	})

	return cmd
}

func runJournalList(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	if app.Store == nil {
		return fmt.Errorf("journal unavailable")
	}

	symbol, _ := cmd.Flags().GetString("symbol")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")

	entries, err := app.Store.ListRecommendations(cmd.Context(), store.JournalFilter{
		Symbol:  symbol,
		Outcome: models.Outcome(outcome),
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(entries)
	}
	if len(entries) == 0 {
		output.Dim("No recommendations journaled yet.")
		return nil
	}

	table := NewTable(output, "ID", "Time", "Symbol", "Outcome", "Strategy", "Lots", "At Risk")
	for _, e := range entries {
		rec := e.Recommendation
		strategy, lots, atRisk := "-", "-", "-"
		if rec.Strategy != nil {
			strategy = rec.Strategy.Name
		}
		if rec.Sizing != nil {
			lots = strconv.Itoa(rec.Sizing.Lots)
			atRisk = FormatCompact(rec.Sizing.CapitalAtRisk)
		}
		table.AddRow(
			strconv.FormatInt(e.ID, 10),
			FormatDateTime(rec.Timestamp),
			rec.Symbol,
			output.Outcome(rec.Outcome),
			strategy, lots, atRisk,
		)
	}
	table.Render()
	return nil
}

func runJournalShow(cmd *cobra.Command, app *App, rawID string) error {
	output := NewOutput(cmd)
	if app.Store == nil {
		return fmt.Errorf("journal unavailable")
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid journal id %q", rawID)
	}

	entry, err := app.Store.GetRecommendation(cmd.Context(), id)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(entry)
	}
	displayRecommendation(output, &entry.Recommendation)
	return nil
}
