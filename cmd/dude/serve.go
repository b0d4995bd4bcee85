package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dude-platformer/internal/highscore"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the high-score HTTP service",
	Long: `Start the signed high-score service. Clients request a challenge,
sign their score with the returned token and submit it.

Settings come from highscore.yaml, .env.local/.env and HIGHSCORE_* variables.

Examples:
  dude serve
  dude serve --listen :8080 --db ./scores.db`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadServiceConfig()
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	logger := newLogger("highscore")
	server, err := highscore.NewServer(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
