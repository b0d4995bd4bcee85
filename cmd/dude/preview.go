package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dude-platformer/internal/layout"
	"github.com/vovakirdan/dude-platformer/internal/moving"
	"github.com/vovakirdan/dude-platformer/internal/platform/tui"
)

var (
	previewVariant int
	previewSeed    uint32
	previewFPS     int
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Animate generated layouts in the terminal",
	Long: `Open an interactive preview of generated layouts with their moving
platforms in motion. Use n/p to step through variants.

Examples:
  dude preview
  dude preview --variant 12 --seed 42 --fps 30`,
	Args: cobra.NoArgs,
	Run:  runPreview,
}

func init() {
	previewCmd.Flags().IntVar(&previewVariant, "variant", 0, "First variant index to show")
	previewCmd.Flags().Uint32Var(&previewSeed, "seed", 0, "Run seed (default from config)")
	previewCmd.Flags().IntVar(&previewFPS, "fps", 30, "Animation tick rate")
}

func runPreview(cmd *cobra.Command, args []string) {
	cfg := loadLayoutConfig()
	gen := layout.NewGenerator(cfg)
	planner := moving.NewPlanner(cfg)

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	opts := tui.PreviewOptions{
		Variant:  max(previewVariant, 0),
		Seed:     seedFlag(cmd, previewSeed, gen.DefaultSeed()),
		TickRate: max(previewFPS, 1),
		Width:    width,
		Height:   height,
	}
	if err := tui.RunPreview(gen, planner, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error running preview: %v\n", err)
		os.Exit(1)
	}
}
