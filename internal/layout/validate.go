package layout

import (
	"fmt"
	"math"
)

// Validation failure codes.
const (
	CodeTooFewPlatforms = "TOO_FEW_PLATFORMS"
	CodeUnreachable     = "UNREACHABLE"
	CodeNarrowCorridor  = "NARROW_CORRIDOR"
	CodeSlotTrap        = "SLOT_TRAP"
	CodeSideApproach    = "SIDE_APPROACH_BLOCKED"
	CodeMovingIsolated  = "MOVING_PLATFORM_ISOLATED"
	CodeLowCoverage     = "LOW_COVERAGE"
)

// ValidationError contains details about validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate checks a layout whose first platform is the ground.
// Checks, in order:
//   - every platform is reachable from the ground
//   - no narrow corridor between elevated platforms
//   - no vertical slot trap between elevated platforms
//   - both side approaches of every elevated platform are open
//   - every moving platform has a conservative jump connection
//   - the highest elevated platform reaches the upper part of the field
func (t Tuning) Validate(platforms []Platform) error {
	if len(platforms) < 2 {
		return ValidationError{
			Code:    CodeTooFewPlatforms,
			Message: fmt.Sprintf("need a ground and at least one elevated platform, got %d", len(platforms)),
		}
	}

	if missing := t.unreachableCount(platforms); missing > 0 {
		return ValidationError{
			Code:    CodeUnreachable,
			Message: fmt.Sprintf("unreachable platforms: %d", missing),
		}
	}

	elevated := platforms[1:]

	if i, j, gap, ok := t.findNarrowCorridor(elevated); ok {
		return ValidationError{
			Code:    CodeNarrowCorridor,
			Message: fmt.Sprintf("narrow corridor between platforms %d/%d (gap=%g)", i+1, j+1, gap),
		}
	}

	if i, j, dy, shared, ok := t.findSlotTrap(elevated); ok {
		return ValidationError{
			Code:    CodeSlotTrap,
			Message: fmt.Sprintf("vertical slot trap between platforms %d/%d (dy=%g, overlap=%g)", i+1, j+1, dy, shared),
		}
	}

	if i, side, ok := t.findSideApproachTrap(elevated); ok {
		return ValidationError{
			Code: CodeSideApproach,
			Message: fmt.Sprintf("blocked %s approach on platform %d (above<=%g, below<=%g)",
				side, i+1, t.SideScanAbove, t.SideScanBelow),
		}
	}

	if idx, ok := t.findIsolatedMoving(platforms); ok {
		return ValidationError{
			Code:    CodeMovingIsolated,
			Message: fmt.Sprintf("moving platform %d lacks a conservative nearby jump path", idx),
		}
	}

	highest := elevated[0]
	for _, p := range elevated[1:] {
		if p.Y < highest.Y {
			highest = p
		}
	}
	if highest.Y > t.MaxTopY {
		return ValidationError{
			Code:    CodeLowCoverage,
			Message: fmt.Sprintf("highest platform at y=%g, need y<=%g for vertical coverage", highest.Y, t.MaxTopY),
		}
	}

	return nil
}

// unreachableCount runs a breadth-first search from the ground.
func (t Tuning) unreachableCount(platforms []Platform) int {
	visited := make([]bool, len(platforms))
	visited[0] = true
	queue := []int{0}
	reached := 1

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for i := range platforms {
			if visited[i] || !t.CanJump(platforms[current], platforms[i]) {
				continue
			}
			visited[i] = true
			reached++
			queue = append(queue, i)
		}
	}
	return len(platforms) - reached
}

// findNarrowCorridor finds two platforms with a positive edge gap the
// player body cannot pass through reliably.
func (t Tuning) findNarrowCorridor(ps []Platform) (i, j int, gap float64, ok bool) {
	for i = range ps {
		for j = i + 1; j < len(ps); j++ {
			gap = ps[i].Box().EdgeGap(ps[j].Box())
			if gap > 0 && gap < t.MinTraversalGap {
				return i, j, gap, true
			}
		}
	}
	return 0, 0, 0, false
}

func (t Tuning) isSlot(a, b Platform) (dy, shared float64, ok bool) {
	dy = math.Abs(a.Y - b.Y)
	if dy < t.SlotDyMin || dy > t.SlotDyMax {
		return dy, 0, false
	}
	shared = a.Box().OverlapX(b.Box())
	if shared < t.SlotMinOverlap {
		return dy, shared, false
	}
	return dy, shared, math.Abs(a.X-b.X) <= t.SlotMaxCenterOffset
}

// findSlotTrap finds two stacked platforms whose shared span leaves a
// slot too short to stand up in yet too wide to jump out of sideways.
func (t Tuning) findSlotTrap(ps []Platform) (i, j int, dy, shared float64, ok bool) {
	for i = range ps {
		for j = i + 1; j < len(ps); j++ {
			if dy, shared, ok = t.isSlot(ps[i], ps[j]); ok {
				return i, j, dy, shared, true
			}
		}
	}
	return 0, 0, 0, 0, false
}

// sideLane returns the horizontal probe band next to one edge of p.
func (t Tuning) sideLane(p Platform, side string) (left, right float64) {
	b := p.Box()
	if side == "left" {
		return b.Left - t.SideApproachDepth, b.Left + t.SideApproachEdgeBuffer
	}
	return b.Right - t.SideApproachEdgeBuffer, b.Right + t.SideApproachDepth
}

// findSideApproachTrap finds a platform whose side lane is covered by one
// neighbour above and another below within scan range.
func (t Tuning) findSideApproachTrap(ps []Platform) (int, string, bool) {
	for i, p := range ps {
		for _, side := range []string{"left", "right"} {
			left, right := t.sideLane(p, side)
			above, below := false, false

			for j, n := range ps {
				if i == j || !n.Box().SpansX(left, right) {
					continue
				}
				dy := n.Y - p.Y
				if dy < 0 && -dy <= t.SideScanAbove {
					above = true
				}
				if dy > 0 && dy <= t.SideScanBelow {
					below = true
				}
				if above && below {
					return i, side, true
				}
			}
		}
	}
	return 0, "", false
}

// findIsolatedMoving returns the first configured moving platform without a
// nearby static connection in either direction. Index 0 (ground) and
// indexes outside the layout are ignored.
func (t Tuning) findIsolatedMoving(platforms []Platform) (int, bool) {
	for _, idx := range t.MovingIndexes {
		if idx <= 0 || idx >= len(platforms) {
			continue
		}
		moving := platforms[idx]

		connected := false
		for i, other := range platforms {
			if i == idx {
				continue
			}
			if moving.Box().EdgeGap(other.Box()) > t.ConservativeJumpGap {
				continue
			}
			if math.Abs(other.Y-moving.Y) > t.MaxUpwardRise {
				continue
			}
			if t.CanJump(other, moving) || t.CanJump(moving, other) {
				connected = true
				break
			}
		}
		if !connected {
			return idx, true
		}
	}
	return 0, false
}
