package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-engine/internal/config"
	"options-engine/internal/engine"
	"options-engine/internal/feed"
	"options-engine/internal/logging"
	"options-engine/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Engine *engine.Engine
	Store  store.Store
	Kite   *feed.KiteFeed
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Engine: engine.New(cfg, logger),
	}

	if cfg.Credentials.Zerodha.APIKey != "" {
		app.Kite = feed.NewKiteFeed(feed.KiteConfig{
			APIKey:      cfg.Credentials.Zerodha.APIKey,
			APISecret:   cfg.Credentials.Zerodha.APISecret,
			AccessToken: cfg.Credentials.Zerodha.AccessToken,
		})
		logger.Debug().Msg("Kite feed initialized")
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "engine.db")
	journal, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize journal, recommendations will not be persisted")
	} else {
		app.Store = journal
		logger.Debug().Msg("SQLite journal initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "options-engine",
		Short: "Options analytics and strategy recommendation CLI for NSE index options",
		Long: `options-engine analyzes NIFTY and BANKNIFTY option chains, classifies
the market regime and recommends a sized option strategy under
configurable risk limits.

Chains come from a Kite Connect session or a CSV export.

Use 'options-engine help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-engine)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAuthCmd(app))
	rootCmd.AddCommand(newRecommendCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newRegimeCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("options-engine v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Pricing Configuration")
	output.Printf("  Risk-Free Rate:   %.2f%%\n", cfg.Engine.RiskFreeRate*100)
	output.Printf("  Default Vol:      %.1f%%\n", cfg.Engine.DefaultVolatility*100)
	output.Printf("  VIX Anchors:      %.1f - %.1f\n", cfg.Engine.VolLowAnchor, cfg.Engine.VolHighAnchor)
	output.Printf("  Request Timeout:  %s\n", cfg.Engine.RequestTimeout)
	output.Println()

	output.Bold("Risk Configuration")
	output.Printf("  Max Risk/Trade:   %.1f%%\n", cfg.Risk.MaxRiskPerTradePct)
	output.Printf("  Max Portfolio:    %.1f%%\n", cfg.Risk.MaxPortfolioRiskPct)
	output.Printf("  Leg Delta Window: %.2f - %.2f\n", cfg.Risk.MinLegDelta, cfg.Risk.MaxLegDelta)
	output.Printf("  DTE Window:       %d - %d days\n", cfg.Risk.MinDaysToExpiry, cfg.Risk.MaxDaysToExpiry)
	output.Printf("  Max Lots:         %d\n", cfg.Risk.MaxLots)
	output.Println()

	output.Bold("Selector Weights")
	output.Printf("  Prob of Profit:   %.2f\n", cfg.Selector.WeightProbProfit)
	output.Printf("  Risk/Reward:      %.2f\n", cfg.Selector.WeightRiskReward)
	output.Printf("  Regime Confidence: %.2f\n", cfg.Selector.WeightConfidence)

	return nil
}

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Kite Connect authentication",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Print the Kite login URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Kite == nil {
				return fmt.Errorf("no Kite credentials configured; set api_key in credentials.toml")
			}
			output.Info("Visit the URL below, complete login, then run:")
			output.Info("  options-engine auth complete <request_token>")
			output.Println(app.Kite.LoginURL())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete <request_token>",
		Short: "Complete the Kite OAuth flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Kite == nil {
				return fmt.Errorf("no Kite credentials configured")
			}
			if err := app.Kite.CompleteLogin(cmd.Context(), args[0]); err != nil {
				return err
			}
			output.Success("✓ Authenticated with Kite Connect")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			authenticated := app.Kite != nil && app.Kite.IsAuthenticated()
			if output.IsJSON() {
				output.JSON(map[string]bool{"authenticated": authenticated})
				return
			}
			if authenticated {
				output.Success("✓ Authenticated")
			} else {
				output.Warning("Not authenticated")
			}
		},
	})

	return cmd
}

// resolveFeed picks the chain source: a CSV export when --csv is
// given, the Kite session otherwise.
func resolveFeed(cmd *cobra.Command, app *App) (feed.Feed, error) {
	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath != "" {
		spot, _ := cmd.Flags().GetFloat64("spot")
		vix, _ := cmd.Flags().GetFloat64("vix")
		if spot <= 0 {
			return nil, fmt.Errorf("--spot is required with --csv")
		}
		return &feed.CSVFeed{Path: csvPath, Spot: spot, VIX: vix}, nil
	}
	if app.Kite == nil {
		return nil, fmt.Errorf("no chain source: configure Kite credentials or pass --csv")
	}
	return app.Kite, nil
}

func parseExpiryFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("expiry")
	if raw == "" {
		return time.Time{}, fmt.Errorf("--expiry is required (format: 2006-01-02)")
	}
	expiry, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --expiry: %w", err)
	}
	return expiry, nil
}

// addChainSourceFlags registers the flags shared by every command
// that fetches a chain.
func addChainSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("symbol", "NIFTY", "underlying index (NIFTY or BANKNIFTY)")
	cmd.Flags().String("expiry", "", "option expiry date (2006-01-02)")
	cmd.Flags().String("csv", "", "load the chain from a CSV export instead of Kite")
	cmd.Flags().Float64("spot", 0, "spot price (required with --csv)")
	cmd.Flags().Float64("vix", 0, "India VIX level (required with --csv)")
}
