package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dude-platformer/internal/highscore"
)

var (
	submitURL    string
	submitOrigin string
	submitMeta   []string
	submitTop    bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <initials> <score>",
	Short: "Submit a signed score to a running service",
	Long: `Request a challenge from a running high-score service, sign the score
with the session token and submit it. With --top the leaderboard is printed
afterwards.

Examples:
  dude submit ABC 1200 --url http://localhost:8080/api/highscores
  dude submit ZED 900 --meta mode=classic --meta wave=3 --top`,
	Args: cobra.ExactArgs(2),
	Run:  runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitURL, "url", "http://localhost:8080"+highscore.DefaultBaseURL, "Service base URL")
	submitCmd.Flags().StringVar(&submitOrigin, "origin", "", "Origin header to send")
	submitCmd.Flags().StringArrayVar(&submitMeta, "meta", nil, "Metadata key=value (repeatable)")
	submitCmd.Flags().BoolVar(&submitTop, "top", false, "Print the leaderboard after submitting")
}

func runSubmit(cmd *cobra.Command, args []string) {
	score, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid score %q\n", args[1])
		os.Exit(1)
	}

	meta, err := parseMeta(submitMeta)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := highscore.NewClient(submitURL)
	client.Origin = submitOrigin
	ctx, cancel := context.WithTimeout(context.Background(), 2*highscore.DefaultTimeout)
	defer cancel()

	if err := client.Submit(ctx, args[0], score, meta); err != nil {
		fmt.Fprintf(os.Stderr, "Error submitting score: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Submitted %s %d\n", highscore.SanitizeInitials(args[0]), highscore.NormalizeScore(score))

	if !submitTop {
		return
	}
	entries, _, err := client.Top(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching leaderboard: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	for i, e := range entries {
		fmt.Printf("  %-4d  %-4s  %-10d  %s\n", i+1, e.Initials, e.Score, e.CreatedAt)
	}
}

// parseMeta turns key=value pairs into metadata. Integer values are sent
// as numbers, true/false as booleans and anything else as strings.
func parseMeta(pairs []string) (highscore.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(highscore.Metadata, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", pair)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta[k] = n
		} else if b, err := strconv.ParseBool(v); err == nil {
			meta[k] = b
		} else {
			meta[k] = v
		}
	}
	return meta, nil
}
