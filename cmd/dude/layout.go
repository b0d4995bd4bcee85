package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dude-platformer/internal/layout"
	"github.com/vovakirdan/dude-platformer/internal/moving"
)

var (
	layoutSeed uint32
	layoutJSON bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout [variant]",
	Short: "Print the generated layout of a wave",
	Long: `Generate the layout for one variant index and print its platforms,
validation result and moving platform velocity.

Examples:
  dude layout
  dude layout 7 --seed 12345
  dude layout 7 --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLayout,
}

func init() {
	layoutCmd.Flags().Uint32Var(&layoutSeed, "seed", 0, "Run seed (default from config)")
	layoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "Print the layout as JSON")
}

func runLayout(cmd *cobra.Command, args []string) {
	variant := 0
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid variant %q\n", args[0])
			os.Exit(1)
		}
		variant = v
	}

	cfg := loadLayoutConfig()
	gen := layout.NewGenerator(cfg)
	planner := moving.NewPlanner(cfg)
	seed := seedFlag(cmd, layoutSeed, gen.DefaultSeed())

	l := gen.Generate(variant, seed)
	validationErr := gen.Validate(l.Platforms)

	if layoutJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(l); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding layout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	movers := planner.Attach(l, variant, seed)
	movingIdx := make(map[int]bool, len(movers))
	for _, m := range movers {
		movingIdx[m.Index] = true
	}

	fmt.Printf("Layout - variant %d, seed %d (0x%08x)\n", variant, seed, layout.DeriveSeed(variant, seed))
	fmt.Println()
	fmt.Printf("  %-3s  %-8s  %-8s  %-6s  %s\n", "#", "X", "Y", "Width", "")
	fmt.Printf("  %-3s  %-8s  %-8s  %-6s  %s\n", "---", "-", "-", "-----", "")
	for i, p := range l.Platforms {
		tag := ""
		switch {
		case i == 0:
			tag = "ground"
		case movingIdx[i]:
			tag = "moving"
		}
		fmt.Printf("  %-3d  %-8.1f  %-8.1f  %-6.0f  %s\n", i, p.X, p.Y, p.Width, tag)
	}

	fmt.Println()
	fmt.Printf("Attempts: %d", l.Attempts)
	if l.Fallback {
		fmt.Print(" (fallback)")
	}
	fmt.Println()
	if len(movers) > 0 {
		fmt.Printf("Moving velocity: %+.0f px/s (%s)\n", movers[0].Spec.VelocityX, movers[0].Spec.Mode)
	}
	if validationErr != nil {
		fmt.Printf("Validation: %v\n", validationErr)
		os.Exit(1)
	}
	fmt.Println("Validation: ok")
}
