package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dude-platformer/internal/layout"
	"github.com/vovakirdan/dude-platformer/internal/moving"
)

var (
	validateCount   int
	validateSeed    uint32
	validateVerbose bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a batch of generated layouts",
	Long: `Generate variants 0..count-1 for one run seed, validate every layout
and check that moving platform velocities are deterministic and within the
configured speed range. Exits non-zero on any failure.

Examples:
  dude validate
  dude validate --count 5000 --seed 0xdeadbeef -v`,
	Args: cobra.NoArgs,
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().IntVar(&validateCount, "count", 2000, "Number of consecutive variants")
	validateCmd.Flags().Uint32Var(&validateSeed, "seed", 0, "Run seed (default from config)")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "List every failing variant")
}

func runValidate(cmd *cobra.Command, args []string) {
	if validateCount < 1 {
		fmt.Fprintln(os.Stderr, "Error: --count must be at least 1")
		os.Exit(1)
	}

	cfg := loadLayoutConfig()
	gen := layout.NewGenerator(cfg)
	planner := moving.NewPlanner(cfg)
	seed := seedFlag(cmd, validateSeed, gen.DefaultSeed())

	report := gen.ValidateBatch(validateCount, seed)

	fmt.Printf("Layouts - %d variants, seed %d\n", report.Count, seed)
	fmt.Println()
	fmt.Printf("  Passed:    %d (%.2f%%)\n", report.Passed, report.PassRate())
	fmt.Printf("  Failed:    %d\n", report.Failed)
	fmt.Printf("  Fallbacks: %d\n", report.Fallbacks)

	shown := report.Failures
	if !validateVerbose && len(shown) > 10 {
		shown = shown[:10]
	}
	for _, f := range shown {
		fmt.Printf("    variant %d: %v\n", f.Variant, f.Err)
	}
	if len(shown) < len(report.Failures) {
		fmt.Printf("    ... %d more (use -v)\n", len(report.Failures)-len(shown))
	}

	badVelocity := 0
	for v := 0; v < validateCount; v++ {
		vel := planner.VelocityFor(seed, v)
		speed := math.Abs(vel)
		if speed < cfg.Moving.SpeedMin || speed > cfg.Moving.SpeedMax || speed != math.Round(speed) ||
			vel != planner.VelocityFor(seed, v) {
			badVelocity++
			if validateVerbose {
				fmt.Printf("    variant %d: velocity %v out of range\n", v, vel)
			}
		}
	}
	fmt.Printf("  Velocity:  %d out of range\n", badVelocity)

	if report.Failed > 0 || badVelocity > 0 {
		os.Exit(1)
	}
}
