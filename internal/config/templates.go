package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options engine configuration

[engine]
# Annualized risk-free rate used by the pricing kernel.
risk_free_rate = 0.065
# Fallback volatility when the IV solver does not converge for a quote.
default_volatility = 0.18
# India VIX anchors mapping to percentile 0 and 100.
vol_low_anchor = 12.0
vol_high_anchor = 30.0
# Upper bound on one recommendation cycle.
request_timeout = "10s"

[risk]
max_risk_per_trade_pct = 2.0
max_portfolio_risk_pct = 10.0
# Absolute delta window for candidate legs.
min_leg_delta = 0.15
max_leg_delta = 0.85
min_days_to_expiry = 1
max_days_to_expiry = 45
# Hard cap on lots regardless of risk budget.
max_lots = 20
# Soft warning thresholds on net portfolio Greeks.
delta_warn_threshold = 100.0
vega_warn_threshold = 2000.0

[selector]
weight_prob_profit = 0.5
weight_risk_reward = 0.3
weight_confidence = 0.2

[ui]
color_enabled = true
date_format = "02-Jan-2006"
`

const credentialsTemplate = `# API credentials
# SECURITY: This file contains sensitive credentials. Keep it secure (chmod 600).

[zerodha]
api_key = ""
api_secret = ""
access_token = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Credentials are sensitive, restrict permissions.
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
