package engine

import (
	"fmt"

	"options-engine/internal/models"
)

// buildChecklist produces the execution steps a trader walks through
// before placing the recommended order.
func buildChecklist(c *models.StrategyCandidate, s *models.Sizing) []string {
	steps := []string{
		"Confirm spot and option quotes are fresh before placing orders",
		fmt.Sprintf("Verify margin requirement with broker for %d lot(s) of %s", s.Lots, c.Name),
	}

	var buys, sells int
	for _, l := range c.Legs {
		if l.Action == models.ActionBuy {
			buys++
		} else {
			sells++
		}
	}
	if buys > 0 && sells > 0 {
		// Long legs first caps margin during a partial fill.
		steps = append(steps, "Place BUY legs before SELL legs")
	}
	for _, l := range c.Legs {
		steps = append(steps, fmt.Sprintf("%s %s %.0f @ limit near %.2f", l.Action, l.Type, l.Strike, l.Premium))
	}

	steps = append(steps, fmt.Sprintf("Confirm total capital at risk of %.2f against plan", s.CapitalAtRisk))
	if !c.DefinedRisk {
		steps = append(steps, "Undefined risk: set a hard stop at 2x the credit received")
	}
	if len(s.Warnings) > 0 {
		steps = append(steps, "Review portfolio Greek warnings before entry")
	}
	return steps
}
