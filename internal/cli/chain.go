package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-engine/internal/chain"
	"options-engine/internal/models"
	"options-engine/internal/pricing"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show the normalized option chain with Greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, app)
		},
	}
	addChainSourceFlags(cmd)
	return cmd
}

func runChain(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)

	symbol, _ := cmd.Flags().GetString("symbol")
	expiry, err := parseExpiryFlag(cmd)
	if err != nil {
		return err
	}

	src, err := resolveFeed(cmd, app)
	if err != nil {
		return err
	}
	data, err := src.Chain(cmd.Context(), symbol, expiry)
	if err != nil {
		return err
	}

	model := pricing.NewModel(app.Config.Engine.RiskFreeRate)
	normalizer := chain.NewNormalizer(model, app.Config.Engine.DefaultVolatility, app.Logger)
	snap, err := normalizer.Normalize(symbol, data.Expiry, data.Spot, data.AsOf, data.Quotes)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(snap)
	}

	output.Bold("%s %s  Spot: %.2f", snap.Symbol, FormatDate(snap.Expiry), snap.SpotPrice)
	output.Println()

	table := NewTable(output, "Strike", "Type", "LTP", "IV", "Delta", "Theta", "OI", "Moneyness", "Status")
	for _, e := range snap.Entries {
		iv, delta, theta := "-", "-", "-"
		if e.Greeks != nil {
			iv = FormatIV(e.Greeks.IV)
			delta = fmt.Sprintf("%.3f", e.Greeks.Delta)
			theta = fmt.Sprintf("%.2f", e.Greeks.Theta)
		}
		status := "ok"
		if e.Quarantined {
			status = output.ColoredString(ColorRed, "quarantined: "+e.QuarantineReason)
		} else if e.Greeks == nil {
			status = output.ColoredString(ColorYellow, "no IV")
		}
		table.AddRow(
			fmt.Sprintf("%.0f", e.Quote.Strike),
			string(e.Quote.Type),
			fmt.Sprintf("%.2f", e.Quote.LTP),
			iv, delta, theta,
			FormatVolume(e.Quote.OI),
			string(e.Moneyness),
			status,
		)
	}
	table.Render()

	quarantined := 0
	for _, e := range snap.Entries {
		if e.Quarantined {
			quarantined++
		}
	}
	if quarantined > 0 {
		output.Println()
		output.Warning("%d of %d quotes quarantined", quarantined, len(snap.Entries))
	}
	return nil
}

// eligibleCount is used by chain and regime displays.
func eligibleCount(snap *models.ChainSnapshot) int {
	n := 0
	for _, e := range snap.Entries {
		if e.Eligible() {
			n++
		}
	}
	return n
}
