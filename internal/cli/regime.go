package cli

import (
	"github.com/spf13/cobra"

	"options-engine/internal/chain"
	"options-engine/internal/models"
	"options-engine/internal/pricing"
	"options-engine/internal/regime"
)

func newRegimeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regime",
		Short: "Classify the market regime for a chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegime(cmd, app)
		},
	}
	addChainSourceFlags(cmd)
	cmd.Flags().Float64("trend-score", -1, "trend score 0-100")
	return cmd
}

func runRegime(cmd *cobra.Command, app *App) error {
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

	in := regime.Inputs{VIX: data.VIX}
	if score, _ := cmd.Flags().GetFloat64("trend-score"); score >= 0 {
		in.TrendScore = &score
	}

	classifier := regime.NewClassifier(app.Config.Engine.VolLowAnchor, app.Config.Engine.VolHighAnchor)
	mr := classifier.Classify(snap, in)

	if output.IsJSON() {
		return output.JSON(mr)
	}

	output.Bold("%s %s  Spot: %.2f  VIX: %.2f", snap.Symbol, FormatDate(snap.Expiry), snap.SpotPrice, data.VIX)
	output.Printf("  (%d eligible of %d quotes)\n", eligibleCount(snap), len(snap.Entries))
	output.Println()
	displayRegime(output, mr)
	return nil
}

func displayRegime(output *Output, mr models.MarketRegime) {
	output.Bold("Market Regime")
	output.Printf("  Volatility:    %s (percentile %.1f)\n", output.VolRegime(mr.VolRegime), mr.VolPercentile)
	output.Printf("  Trend:         %s\n", output.Trend(mr.Trend))
	if mr.PCR != nil {
		output.Printf("  PCR:           %.2f\n", *mr.PCR)
	} else {
		output.Printf("  PCR:           undefined (no call open interest)\n")
	}
	output.Printf("  Max Pain:      %.0f\n", mr.MaxPainStrike)
	output.Printf("  Days to Expiry: %d\n", mr.DaysToExpiry)
	output.Printf("  Confidence:    %.0f%%\n", mr.Confidence*100)
}
