// Package layout generates and validates the static platform layout of a
// wave. Layouts are a pure function of (variant index, run seed).
package layout

import (
	"math"

	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/core"
)

// Layout is a generated platform set. Platforms[0] is always the ground.
type Layout struct {
	Seed      uint32     `json:"seed"`
	Platforms []Platform `json:"platforms"`
	Tuning    Tuning     `json:"tuning"`
	Attempts  int        `json:"attempts"` // 1-based index of the accepted attempt, max_attempts when Generate fell back
	Fallback  bool       `json:"fallback"`
}

// Elevated returns every platform except the ground.
func (l Layout) Elevated() []Platform {
	if len(l.Platforms) == 0 {
		return nil
	}
	return l.Platforms[1:]
}

// Generator builds layouts from a fixed configuration.
type Generator struct {
	cfg    config.LayoutConfig
	tuning Tuning
}

// NewGenerator creates a generator for the given tuning.
func NewGenerator(cfg config.LayoutConfig) *Generator {
	return &Generator{cfg: cfg, tuning: NewTuning(cfg)}
}

// Tuning returns the derived thresholds.
func (g *Generator) Tuning() Tuning {
	return g.tuning
}

// DefaultSeed is the run seed used when the caller has none.
func (g *Generator) DefaultSeed() uint32 {
	return g.cfg.Generation.DefaultSeed
}

// Validate checks platforms against this generator's tuning.
func (g *Generator) Validate(platforms []Platform) error {
	return g.tuning.Validate(platforms)
}

// CanJump reports whether target is reachable from source.
func (g *Generator) CanJump(source, target Platform) bool {
	return g.tuning.CanJump(source, target)
}

// Generate returns the layout for a variant. A single RNG stream is shared
// by all attempts; when every attempt fails validation the fixed staircase
// is returned instead.
func (g *Generator) Generate(variantIndex int, runSeed uint32) Layout {
	seed := DeriveSeed(variantIndex, runSeed)
	rng := NewRNG(seed)

	for attempt := 1; attempt <= g.cfg.Generation.MaxAttempts; attempt++ {
		platforms := g.attempt(rng)
		if g.tuning.Validate(platforms) == nil {
			return Layout{
				Seed:      seed,
				Platforms: platforms,
				Tuning:    g.tuning,
				Attempts:  attempt,
			}
		}
	}

	return Layout{
		Seed:      seed,
		Platforms: g.fallbackPlatforms(),
		Tuning:    g.tuning,
		Attempts:  g.cfg.Generation.MaxAttempts,
		Fallback:  true,
	}
}

func (g *Generator) ground() Platform {
	w, h := g.cfg.Field.Width, g.cfg.Platforms.Height
	return Platform{
		X:      w / 2,
		Y:      g.cfg.Platforms.GroundY,
		Width:  w,
		Height: h,
		ScaleX: 2,
	}
}

func (g *Generator) elevated(x, y float64) Platform {
	return Platform{
		X:      x,
		Y:      y,
		Width:  g.cfg.Platforms.Width,
		Height: g.cfg.Platforms.Height,
		ScaleX: 1,
	}
}

// attempt places one elevated platform per band. Each platform drifts
// from the previous one's x and alternates its spread direction.
func (g *Generator) attempt(rng *RNG) []Platform {
	gen := g.cfg.Generation
	bands := g.cfg.Platforms.Bands
	t := g.tuning

	platforms := make([]Platform, 0, g.cfg.Platforms.ElevatedCount+1)
	platforms = append(platforms, g.ground())

	anchor := gen.AnchorMin + math.Floor(rng.Float()*gen.AnchorSpan)

	for i := 0; i < g.cfg.Platforms.ElevatedCount; i++ {
		band := bands[i%len(bands)]
		y := band.Base + math.Floor(rng.Signed()*band.Jitter)

		drift := math.Floor(rng.Signed() * gen.Drift)
		proposed := core.ClampF(anchor+drift, t.XMin, t.XMax)
		spread := -1.0
		if i%2 == 1 {
			spread = 1
		}
		x := core.ClampF(proposed+spread*math.Floor(rng.Signed()*gen.Spread), t.XMin, t.XMax)

		candidate := g.elevated(x, y)
		for pass := 0; pass < gen.CorrectionPasses; pass++ {
			for _, placed := range platforms[1:] {
				candidate = t.nudge(placed, candidate)
			}
		}

		platforms = append(platforms, candidate)
		anchor = candidate.X
	}

	return platforms
}

// nudge pushes candidate away from placed when the pair would form a
// narrow corridor or a slot trap. Shifts keep the candidate in bounds.
func (t Tuning) nudge(placed, candidate Platform) Platform {
	away := func() float64 {
		if candidate.X >= placed.X {
			return 1
		}
		return -1
	}

	gap := placed.Box().EdgeGap(candidate.Box())
	if gap > 0 && gap < t.MinTraversalGap {
		candidate.X = core.ClampF(candidate.X+away()*(t.MinTraversalGap-gap), t.XMin, t.XMax)
	}

	dy := math.Abs(placed.Y - candidate.Y)
	overlap := placed.Box().OverlapX(candidate.Box())
	dx := math.Abs(placed.X - candidate.X)
	if dy >= t.SlotDyMin && dy <= t.SlotDyMax && overlap >= t.SlotMinOverlap && dx <= t.SlotMaxCenterOffset {
		stagger := t.SlotMaxCenterOffset - dx + t.PlayerBodyWidth/2
		candidate.X = core.ClampF(candidate.X+away()*stagger, t.XMin, t.XMax)
	}

	return candidate
}

var defaultGenerator = NewGenerator(config.DefaultLayoutConfig())

// Generate builds a layout with the built-in tuning.
func Generate(variantIndex int, runSeed uint32) Layout {
	return defaultGenerator.Generate(variantIndex, runSeed)
}

// Validate checks platforms against the built-in tuning.
func Validate(platforms []Platform) error {
	return defaultGenerator.Validate(platforms)
}

// CanJumpBetween reports reachability under the built-in tuning.
func CanJumpBetween(source, target Platform) bool {
	return defaultGenerator.CanJump(source, target)
}

// DefaultTuning returns the built-in thresholds.
func DefaultTuning() Tuning {
	return defaultGenerator.Tuning()
}
