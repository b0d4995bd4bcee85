package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dude-platformer/internal/platform/tui"
	"github.com/vovakirdan/dude-platformer/internal/storage"
)

var (
	scoresLimit int
	scoresTUI   bool
	scoresReset bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the local leaderboard",
	Long: `Display the leaderboard stored in the service database.

Examples:
  dude scores
  dude scores --limit 20
  dude scores --tui
  dude scores --reset`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&scoresLimit, "limit", 10, "Number of entries to show")
	scoresCmd.Flags().BoolVar(&scoresTUI, "tui", false, "Interactive leaderboard")
	scoresCmd.Flags().BoolVar(&scoresReset, "reset", false, "Delete every leaderboard entry")
}

func runScores(cmd *cobra.Command, args []string) {
	cfg := loadServiceConfig()
	ctx := context.Background()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scores database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if scoresReset {
		if err := store.ClearScores(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing scores: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Leaderboard cleared.")
		return
	}

	if scoresTUI {
		width, height := 80, 24
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width, height = w, h
		}
		if err := tui.RunLeaderboard(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error running leaderboard: %v\n", err)
			os.Exit(1)
		}
		return
	}

	scores, err := store.TopScores(ctx, scoresLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving scores: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("High Scores")
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		return
	}

	fmt.Printf("  %-4s  %-4s  %-10s  %s\n", "Rank", "Name", "Score", "Date")
	fmt.Printf("  %-4s  %-4s  %-10s  %s\n", "----", "----", "-----", "----")
	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-4s  %-10d  %s\n", i+1, entry.Initials, entry.Score, dateStr)
	}

	fmt.Println()
	if stats, err := store.Stats(ctx); err == nil {
		fmt.Printf("Best: %d  Entries: %d  Players: %d\n", stats.HighScore, stats.Entries, stats.Players)
	}
}
