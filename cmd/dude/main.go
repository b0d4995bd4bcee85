// dude is the toolbox for the platformer's wave layouts and high-score service.
//
// Usage:
//
//	dude layout [variant]    - Print the generated layout of a wave
//	dude validate            - Validate a batch of generated layouts
//	dude preview             - Animate layouts in the terminal
//	dude serve               - Start the high-score HTTP service
//	dude scores              - Show the local leaderboard
//	dude submit <ini> <n>    - Submit a signed score to a running service
//
// Global flags:
//
//	--layout-config <path>   - Layout tuning file (default: search path)
//	--config <path>          - High-score service file (default: search path)
//	--db <path>              - Override the service database path
//	--debug                  - Enable debug logging
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/dude-platformer/internal/config"
)

var (
	// Global flags
	flagLayoutConfig string
	flagConfig       string
	flagDBPath       string
	flagDebug        bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dude",
	Short: "Dude platformer - layouts, moving platforms and high scores",
	Long: `dude generates and checks the platform layouts of every wave and runs
the signed high-score service the game submits to.

Available commands:
  layout    - Print a generated layout
  validate  - Validate many consecutive layouts
  preview   - Animated terminal preview of layouts
  serve     - Start the high-score HTTP service
  scores    - View the local leaderboard
  submit    - Submit a score to a running service

Examples:
  dude layout 3 --seed 0xc0ffee
  dude validate --count 2000
  dude preview --fps 30
  dude serve --listen :8080
  dude scores --tui`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagLayoutConfig, "layout-config", "", "Path to layout.yaml")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to highscore.yaml")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(submitCmd)
}

func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if flagDebug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func loadLayoutConfig() config.LayoutConfig {
	cfg, err := config.LoadLayout(flagLayoutConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading layout config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadServiceConfig reads .env files, the service config and the --db override.
func loadServiceConfig() config.HighScoreConfig {
	if err := config.LoadEnvFiles(".env.local", ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadHighScore(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading service config: %v\n", err)
		os.Exit(1)
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	return cfg
}

// seedFlag returns the --seed value, or the configured default when unset.
func seedFlag(cmd *cobra.Command, seed uint32, fallback uint32) uint32 {
	if cmd.Flags().Changed("seed") {
		return seed
	}
	return fallback
}
