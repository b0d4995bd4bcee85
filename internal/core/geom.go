// Package core provides the geometry shared by the layout generator, the
// moving platform planner and the terminal preview. It has no dependencies
// outside the standard library.
package core

import "math"

// Box is an axis-aligned box in playfield pixels. Y grows downward.
type Box struct {
	Left, Top, Right, Bottom float64
}

// BoxAt builds a box from its center and size, the way sprites are anchored.
func BoxAt(cx, cy, w, h float64) Box {
	return Box{
		Left:   cx - w/2,
		Top:    cy - h/2,
		Right:  cx + w/2,
		Bottom: cy + h/2,
	}
}

// Width returns the horizontal extent.
func (b Box) Width() float64 {
	return b.Right - b.Left
}

// Height returns the vertical extent.
func (b Box) Height() float64 {
	return b.Bottom - b.Top
}

// EdgeGap returns the horizontal distance between the nearest edges of two
// boxes, or 0 when their x-extents touch or overlap.
func (b Box) EdgeGap(o Box) float64 {
	if b.Right < o.Left {
		return o.Left - b.Right
	}
	if o.Right < b.Left {
		return b.Left - o.Right
	}
	return 0
}

// OverlapX returns the length of the shared x-extent, never negative.
func (b Box) OverlapX(o Box) float64 {
	return math.Max(0, math.Min(b.Right, o.Right)-math.Max(b.Left, o.Left))
}

// SpansX reports whether the box strictly overlaps the open range (left, right).
func (b Box) SpansX(left, right float64) bool {
	return b.Right > left && b.Left < right
}

// Rect is an integer cell rectangle on a Screen.
type Rect struct {
	X, Y int // Top-left cell
	W, H int
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
