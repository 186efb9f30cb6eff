// Package config provides configuration management for the options engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine      EngineConfig      `mapstructure:"engine"`
	Risk        RiskConfig        `mapstructure:"risk"`
	Selector    SelectorConfig    `mapstructure:"selector"`
	UI          UIConfig          `mapstructure:"ui"`
	Credentials Credentials       `mapstructure:"-"` // Loaded separately
}

// EngineConfig holds pricing and classification parameters.
type EngineConfig struct {
	// RiskFreeRate is the annualized rate used by the pricing kernel
	// (approximate RBI repo rate).
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	// DefaultVolatility is used when the IV solver fails to converge
	// for a quote.
	DefaultVolatility float64 `mapstructure:"default_volatility"`
	// VolLowAnchor / VolHighAnchor bound the volatility percentile.
	VolLowAnchor  float64 `mapstructure:"vol_low_anchor"`
	VolHighAnchor float64 `mapstructure:"vol_high_anchor"`
	// RequestTimeout bounds one recommendation cycle.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	MaxRiskPerTradePct  float64 `mapstructure:"max_risk_per_trade_pct"`
	MaxPortfolioRiskPct float64 `mapstructure:"max_portfolio_risk_pct"`
	MinLegDelta         float64 `mapstructure:"min_leg_delta"`
	MaxLegDelta         float64 `mapstructure:"max_leg_delta"`
	MinDaysToExpiry     int     `mapstructure:"min_days_to_expiry"`
	MaxDaysToExpiry     int     `mapstructure:"max_days_to_expiry"`
	MaxLots             int     `mapstructure:"max_lots"`
	DeltaWarnThreshold  float64 `mapstructure:"delta_warn_threshold"`
	VegaWarnThreshold   float64 `mapstructure:"vega_warn_threshold"`
}

// SelectorConfig holds candidate scoring weights. The weighting
// scheme is deliberately configurable, not a fixed constant.
type SelectorConfig struct {
	WeightProbProfit float64 `mapstructure:"weight_prob_profit"`
	WeightRiskReward float64 `mapstructure:"weight_risk_reward"`
	WeightConfidence float64 `mapstructure:"weight_confidence"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	Zerodha ZerodhaCredentials `mapstructure:"zerodha"`
}

// ZerodhaCredentials holds Zerodha Kite Connect credentials.
type ZerodhaCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	AccessToken string `mapstructure:"access_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-engine"
	}
	return filepath.Join(home, ".config", "options-engine")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if terr := createTemplateConfig(configDir); terr != nil {
				return terr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.risk_free_rate", 0.065)
	v.SetDefault("engine.default_volatility", 0.18)
	v.SetDefault("engine.vol_low_anchor", 12.0)
	v.SetDefault("engine.vol_high_anchor", 30.0)
	v.SetDefault("engine.request_timeout", 10*time.Second)

	v.SetDefault("risk.max_risk_per_trade_pct", 2.0)
	v.SetDefault("risk.max_portfolio_risk_pct", 10.0)
	v.SetDefault("risk.min_leg_delta", 0.15)
	v.SetDefault("risk.max_leg_delta", 0.85)
	v.SetDefault("risk.min_days_to_expiry", 1)
	v.SetDefault("risk.max_days_to_expiry", 45)
	v.SetDefault("risk.max_lots", 20)
	v.SetDefault("risk.delta_warn_threshold", 100.0)
	v.SetDefault("risk.vega_warn_threshold", 2000.0)

	v.SetDefault("selector.weight_prob_profit", 0.5)
	v.SetDefault("selector.weight_risk_reward", 0.3)
	v.SetDefault("selector.weight_confidence", 0.2)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZERODHA_API_KEY"); v != "" {
		cfg.Credentials.Zerodha.APIKey = v
	}
	if v := os.Getenv("ZERODHA_API_SECRET"); v != "" {
		cfg.Credentials.Zerodha.APISecret = v
	}
	if v := os.Getenv("ZERODHA_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Zerodha.AccessToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.VolHighAnchor <= c.Engine.VolLowAnchor {
		return fmt.Errorf("vol_high_anchor must exceed vol_low_anchor")
	}
	if c.Engine.DefaultVolatility <= 0 || c.Engine.DefaultVolatility > 5.0 {
		return fmt.Errorf("default_volatility must be in (0, 5.0]")
	}

	if c.Risk.MaxRiskPerTradePct <= 0 || c.Risk.MaxRiskPerTradePct > 100 {
		return fmt.Errorf("max_risk_per_trade_pct must be between 0 and 100")
	}
	if c.Risk.MaxPortfolioRiskPct <= 0 || c.Risk.MaxPortfolioRiskPct > 100 {
		return fmt.Errorf("max_portfolio_risk_pct must be between 0 and 100")
	}
	if c.Risk.MinLegDelta < 0 || c.Risk.MaxLegDelta > 1 || c.Risk.MinLegDelta >= c.Risk.MaxLegDelta {
		return fmt.Errorf("leg delta window must satisfy 0 <= min < max <= 1")
	}
	if c.Risk.MinDaysToExpiry < 0 || c.Risk.MaxDaysToExpiry < c.Risk.MinDaysToExpiry {
		return fmt.Errorf("days-to-expiry window is inverted")
	}

	w := c.Selector
	if w.WeightProbProfit < 0 || w.WeightRiskReward < 0 || w.WeightConfidence < 0 {
		return fmt.Errorf("selector weights must be non-negative")
	}
	if w.WeightProbProfit+w.WeightRiskReward+w.WeightConfidence == 0 {
		return fmt.Errorf("at least one selector weight must be non-zero")
	}

	return nil
}
