package layout

import (
	"math"

	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/core"
)

// Platform is a static platform anchored at its center.
type Platform struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ScaleX float64 `json:"scaleX"`
}

// Box returns the platform's collision box.
func (p Platform) Box() core.Box {
	return core.BoxAt(p.X, p.Y, p.Width, p.Height)
}

// Tuning is the resolved set of thresholds the generator and validator
// work with. It is derived once from a LayoutConfig.
type Tuning struct {
	FieldWidth  float64 `json:"fieldWidth"`
	FieldHeight float64 `json:"fieldHeight"`

	TheoreticalRise     float64 `json:"theoreticalRise"`
	MaxUpwardRise       float64 `json:"maxUpwardRise"`
	MaxDrop             float64 `json:"maxDrop"`
	MaxEdgeGapFlat      float64 `json:"maxEdgeGapFlat"`
	MaxEdgeGapAtMaxRise float64 `json:"maxEdgeGapMaxRise"`
	MaxEdgeGapDownward  float64 `json:"maxEdgeGapDownward"`
	PlayerSpeedX        float64 `json:"playerSpeedX"`
	PlayerBodyWidth     float64 `json:"playerBodyWidth"`
	PlayerBodyHeight    float64 `json:"playerBodyHeight"`

	MinTraversalGap        float64 `json:"minTraversalGap"`
	SlotDyMin              float64 `json:"slotDyMin"`
	SlotDyMax              float64 `json:"slotDyMax"`
	SlotMinOverlap         float64 `json:"slotMinOverlap"`
	SlotMaxCenterOffset    float64 `json:"slotMaxCenterOffset"`
	SideApproachDepth      float64 `json:"sideApproachDepth"`
	SideApproachEdgeBuffer float64 `json:"sideApproachEdgeBuffer"`
	SideScanAbove          float64 `json:"sideScanAbove"`
	SideScanBelow          float64 `json:"sideScanBelow"`
	MaxTopY                float64 `json:"maxTopY"`

	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`

	MovingIndexes       []int   `json:"movingIndexes,omitempty"`
	ConservativeJumpGap float64 `json:"movingPlatformConservativeJumpGap"`
}

// NewTuning derives thresholds from the physics and player body.
// The upward rise is the ballistic apex v²/2g minus a safety margin.
func NewTuning(cfg config.LayoutConfig) Tuning {
	v := math.Abs(cfg.Physics.JumpVelocity)
	theoretical := v * v / (2 * cfg.Physics.Gravity)
	maxRise := math.Floor(theoretical - cfg.Reach.RiseSafetyMargin)
	bodyW, bodyH := cfg.Player.BodyWidth, cfg.Player.BodyHeight

	t := Tuning{
		FieldWidth:  cfg.Field.Width,
		FieldHeight: cfg.Field.Height,

		TheoreticalRise:     math.Floor(theoretical),
		MaxUpwardRise:       maxRise,
		MaxDrop:             cfg.Reach.MaxDrop,
		MaxEdgeGapFlat:      cfg.Reach.MaxEdgeGapFlat,
		MaxEdgeGapAtMaxRise: cfg.Reach.MaxEdgeGapAtMaxRise,
		MaxEdgeGapDownward:  cfg.Reach.MaxEdgeGapDownward,
		PlayerSpeedX:        cfg.Physics.PlayerSpeedX,
		PlayerBodyWidth:     bodyW,
		PlayerBodyHeight:    bodyH,

		MinTraversalGap:        bodyW + cfg.Traps.TraversalPadding,
		SlotDyMin:              bodyH + cfg.Traps.SlotHeightPadding,
		SlotDyMax:              maxRise - cfg.Traps.SlotRisePadding,
		SlotMinOverlap:         cfg.Traps.SlotMinOverlap,
		SlotMaxCenterOffset:    cfg.Traps.SlotMaxCenterOffset,
		SideApproachDepth:      bodyW + cfg.Traps.SideApproachPadding,
		SideApproachEdgeBuffer: bodyW/2 + cfg.Traps.SideEdgePadding,
		SideScanAbove:          cfg.Traps.SideScanAbove,
		SideScanBelow:          cfg.Traps.SideScanBelow,
		MaxTopY:                cfg.Field.Height * cfg.Traps.MaxTopFraction,

		XMin: cfg.Platforms.Width/2 + cfg.Platforms.EdgeEntryMargin,
		XMax: cfg.Field.Width - cfg.Platforms.Width/2 - cfg.Platforms.EdgeEntryMargin,

		ConservativeJumpGap: cfg.Moving.ConservativeJumpGap,
	}
	if cfg.Moving.Enabled {
		t.MovingIndexes = append([]int(nil), cfg.Moving.Indexes...)
	}
	return t
}

// maxGapForRise shrinks the allowed edge gap linearly from the flat limit
// at zero rise to the max-rise limit at MaxUpwardRise.
func (t Tuning) maxGapForRise(rise float64) float64 {
	if rise <= 0 || t.MaxUpwardRise <= 0 {
		return t.MaxEdgeGapFlat
	}
	f := core.ClampF(rise/t.MaxUpwardRise, 0, 1)
	return math.Floor(t.MaxEdgeGapFlat - (t.MaxEdgeGapFlat-t.MaxEdgeGapAtMaxRise)*f)
}

// CanJump reports whether a player standing on source can land on target.
// Rise is measured between top surfaces; negative rise is a drop.
func (t Tuning) CanJump(source, target Platform) bool {
	s, d := source.Box(), target.Box()
	rise := s.Top - d.Top

	if rise > t.MaxUpwardRise || rise < -t.MaxDrop {
		return false
	}

	gap := s.EdgeGap(d)
	if rise <= 0 {
		return gap <= t.MaxEdgeGapDownward
	}
	return gap <= t.maxGapForRise(rise)
}
