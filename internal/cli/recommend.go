package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-engine/internal/engine"
	"options-engine/internal/models"
)

func newRecommendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a sized option strategy for the current chain",
		Long: `Fetches the option chain, classifies the market regime and recommends
the best-scoring strategy sized to the configured risk limits.

The recommendation is analytical only; no orders are placed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, app)
		},
	}

	addChainSourceFlags(cmd)
	cmd.Flags().Float64("capital", 500000, "account capital in rupees")
	cmd.Flags().String("trend", "", "override trend (bullish, bearish or neutral)")
	cmd.Flags().Float64("trend-score", -1, "trend score 0-100 (ignored when --trend is set)")
	cmd.Flags().Duration("timeout", 0, "recommendation timeout (default from config)")
	cmd.Flags().Bool("no-save", false, "do not persist the recommendation to the journal")

	return cmd
}

func runRecommend(cmd *cobra.Command, app *App) error {
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

	capital, _ := cmd.Flags().GetFloat64("capital")
	req := engine.Request{
		Symbol:    symbol,
		Expiry:    data.Expiry,
		Spot:      data.Spot,
		VIX:       data.VIX,
		AsOf:      data.AsOf,
		Quotes:    data.Quotes,
		Portfolio: models.PortfolioState{Capital: capital},
	}

	if raw, _ := cmd.Flags().GetString("trend"); raw != "" {
		trend, err := parseTrend(raw)
		if err != nil {
			return err
		}
		req.Trend = &trend
	} else if score, _ := cmd.Flags().GetFloat64("trend-score"); score >= 0 {
		req.TrendScore = &score
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = app.Config.Engine.RequestTimeout
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rec, err := app.Engine.Recommend(ctx, req)
	if err != nil {
		return err
	}

	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave && app.Store != nil {
		if id, err := app.Store.SaveRecommendation(cmd.Context(), rec); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to persist recommendation")
		} else {
			app.Logger.Debug().Int64("id", id).Msg("Recommendation journaled")
		}
	}

	if output.IsJSON() {
		return output.JSON(rec)
	}
	displayRecommendation(output, rec)
	return nil
}

func parseTrend(raw string) (models.TrendLabel, error) {
	switch strings.ToUpper(raw) {
	case "BULLISH":
		return models.TrendBullish, nil
	case "BEARISH":
		return models.TrendBearish, nil
	case "NEUTRAL":
		return models.TrendNeutral, nil
	default:
		return "", fmt.Errorf("unknown trend %q: use bullish, bearish or neutral", raw)
	}
}

func displayRecommendation(output *Output, rec *models.Recommendation) {
	output.Bold("%s  %s", rec.Symbol, FormatDateTime(rec.Timestamp))
	output.Println()

	displayRegime(output, rec.Regime)
	if rec.QuarantinedQuotes > 0 {
		output.Warning("%d quote(s) quarantined and excluded from aggregates", rec.QuarantinedQuotes)
	}
	output.Println()

	output.Printf("Outcome: %s\n", output.Outcome(rec.Outcome))
	if rec.Reason != "" {
		output.Dim("  %s", rec.Reason)
	}

	if rec.Strategy != nil {
		output.Println()
		displayStrategy(output, rec.Strategy)
	}

	if rec.Sizing != nil {
		output.Println()
		output.Bold("Sizing")
		output.Printf("  Lots:            %d\n", rec.Sizing.Lots)
		output.Printf("  Capital at Risk: %s\n", FormatIndianCurrency(rec.Sizing.CapitalAtRisk))
		g := rec.Sizing.PortfolioGreeks
		output.Printf("  Portfolio:       %s\n", FormatGreeks(g.Delta, g.Gamma, g.Theta, g.Vega))
		for _, w := range rec.Sizing.Warnings {
			output.Warning("  ⚠ %s", w)
		}
		if e := rec.Sizing.Exposure; e != nil {
			output.Println()
			output.Bold("Exposure (post-trade)")
			output.Printf("  Delta Notional:  %s (%s)\n", FormatCompact(e.DeltaExposure), e.RiskLevel)
			output.Printf("  1%% Move P&L:     %s\n", FormatIndianCurrency(e.OnePctMovePnL))
			output.Printf("  Gamma Risk:      %s\n", FormatIndianCurrency(e.GammaRisk))
			output.Printf("  Weekly Theta:    %s\n", FormatIndianCurrency(e.WeeklyTheta))
			output.Printf("  IV +5 Impact:    %s\n", FormatIndianCurrency(e.VegaImpact5Pct))
			output.Printf("  1-Day VaR:       %s (95%%) / %s (99%%)\n",
				FormatCompact(e.VaR95), FormatCompact(e.VaR99))
			for _, f := range e.RiskFactors {
				output.Warning("  ⚠ %s", f)
			}
		}
	}

	if len(rec.Checklist) > 0 {
		output.Println()
		output.Bold("Execution Checklist")
		for i, step := range rec.Checklist {
			output.Printf("  %d. %s\n", i+1, step)
		}
	}
}

func displayStrategy(output *Output, c *models.StrategyCandidate) {
	output.Bold("Strategy: %s", c.Name)
	if c.DefinedRisk {
		output.Dim("  defined risk")
	} else {
		output.Warning("  undefined risk")
	}

	table := NewTable(output, "Action", "Type", "Strike", "Premium", "Delta")
	for _, l := range c.Legs {
		table.AddRow(
			string(l.Action),
			string(l.Type),
			fmt.Sprintf("%.0f", l.Strike),
			fmt.Sprintf("%.2f", l.Premium),
			fmt.Sprintf("%.3f", l.Delta),
		)
	}
	table.Render()

	kind := "Credit"
	amount := c.NetCredit
	if amount < 0 {
		kind = "Debit"
		amount = -amount
	}
	output.Printf("  Net %s:     %.2f per share\n", kind, amount)
	output.Printf("  Max Profit:  %.2f  Max Loss: %.2f (per share)\n", c.MaxProfit, c.MaxLoss)

	bes := make([]string, len(c.Breakevens))
	for i, be := range c.Breakevens {
		bes[i] = fmt.Sprintf("%.2f", be)
	}
	output.Printf("  Breakevens:  %s\n", strings.Join(bes, ", "))
	output.Printf("  PoP: %.0f%%  Score: %.2f\n", c.ProbProfit*100, c.Score)
}
