// Package moving drives horizontally moving platforms. Velocities are a
// pure function of (seed, variant index) so every client sees the same
// motion for the same wave.
package moving

import (
	"math"

	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/core"
	"github.com/vovakirdan/dude-platformer/internal/layout"
)

// Mode selects what happens at the field edge.
type Mode string

const (
	ModeWrap   Mode = config.MovingModeWrap
	ModeBounce Mode = config.MovingModeBounce
)

// velocitySalt decorrelates the velocity stream from the layout stream of
// the same variant.
const velocitySalt = 0xa511e9b3

// Spec is the motion attached to a platform.
type Spec struct {
	Mode       Mode
	VelocityX  float64 // px/s, sign is direction
	Width      float64
	WrapBuffer float64
}

// Body is the collision body mirrored from a platform. The physics layer
// implements it; SyncPosition is called after every move.
type Body interface {
	SyncPosition(x, y float64)
}

// Platform is a platform under motion control.
type Platform struct {
	Index  int // position in the layout's platform list
	X, Y   float64
	Height float64
	Active bool
	Spec   *Spec
	Body   Body
}

// Box returns the platform's current collision box.
func (p *Platform) Box() core.Box {
	if p.Spec == nil {
		return core.BoxAt(p.X, p.Y, 0, p.Height)
	}
	return core.BoxAt(p.X, p.Y, p.Spec.Width, p.Height)
}

// Planner derives velocities and advances moving platforms.
type Planner struct {
	cfg        config.MovingConfig
	fieldWidth float64
}

// NewPlanner creates a planner for the given layout configuration.
func NewPlanner(cfg config.LayoutConfig) *Planner {
	return &Planner{cfg: cfg.Moving, fieldWidth: cfg.Field.Width}
}

// VelocityFor returns the signed horizontal speed for a variant. The
// magnitude is rounded to a whole px/s within [speed_min, speed_max].
func (p *Planner) VelocityFor(seed uint32, variantIndex int) float64 {
	rng := layout.NewRNG(layout.DeriveSeed(variantIndex, seed) ^ velocitySalt)
	span := p.cfg.SpeedMax - p.cfg.SpeedMin
	speed := p.cfg.SpeedMin + math.Round(rng.Float()*span)
	if rng.Float() > 0.5 {
		return speed
	}
	return -speed
}

// Attach builds motion-controlled platforms for every configured moving
// index present in the layout. It returns nil when moving platforms are
// disabled.
func (p *Planner) Attach(l layout.Layout, variantIndex int, runSeed uint32) []*Platform {
	if !p.cfg.Enabled {
		return nil
	}

	velocity := p.VelocityFor(runSeed, variantIndex)
	var out []*Platform
	for _, idx := range p.cfg.Indexes {
		if idx <= 0 || idx >= len(l.Platforms) {
			continue
		}
		src := l.Platforms[idx]
		out = append(out, &Platform{
			Index:  idx,
			X:      src.X,
			Y:      src.Y,
			Height: src.Height,
			Active: true,
			Spec: &Spec{
				Mode:       Mode(p.cfg.Mode),
				VelocityX:  velocity,
				Width:      src.Width,
				WrapBuffer: p.cfg.WrapBuffer,
			},
		})
	}
	return out
}

// Advance moves pl by deltaMs milliseconds of travel and returns its new x.
// Inactive platforms, platforms without a spec and non-positive deltas are
// left untouched.
func (p *Planner) Advance(pl *Platform, deltaMs float64) float64 {
	if pl == nil {
		return 0
	}
	if !pl.Active || pl.Spec == nil || deltaMs <= 0 || math.IsNaN(deltaMs) {
		return pl.X
	}

	spec := pl.Spec
	pl.X += spec.VelocityX * deltaMs / 1000
	half := spec.Width / 2

	switch spec.Mode {
	case ModeBounce:
		minX, maxX := half, p.fieldWidth-half
		if pl.X <= minX || pl.X >= maxX {
			pl.X = core.ClampF(pl.X, minX, maxX)
			spec.VelocityX = -spec.VelocityX
		}
	default:
		left := -half - spec.WrapBuffer
		right := p.fieldWidth + half + spec.WrapBuffer
		if pl.X > right {
			pl.X = left
		} else if pl.X < left {
			pl.X = right
		}
	}

	if pl.Body != nil {
		pl.Body.SyncPosition(pl.X, pl.Y)
	}
	return pl.X
}

var defaultPlanner = NewPlanner(config.DefaultLayoutConfig())

// Velocity returns the built-in planner's velocity for a variant.
func Velocity(seed uint32, variantIndex int) float64 {
	return defaultPlanner.VelocityFor(seed, variantIndex)
}

// Advance moves pl with the built-in field width.
func Advance(pl *Platform, deltaMs float64) float64 {
	return defaultPlanner.Advance(pl, deltaMs)
}
