package core

import "math"

// Viewport maps playfield pixels onto a grid of terminal cells.
type Viewport struct {
	FieldW, FieldH float64
	Cols, Rows     int
}

// CellX converts a playfield x to a column, clamped to the grid.
func (v Viewport) CellX(x float64) int {
	if v.FieldW <= 0 || v.Cols <= 0 {
		return 0
	}
	return Clamp(int(math.Floor(x/v.FieldW*float64(v.Cols))), 0, v.Cols-1)
}

// CellY converts a playfield y to a row, clamped to the grid.
func (v Viewport) CellY(y float64) int {
	if v.FieldH <= 0 || v.Rows <= 0 {
		return 0
	}
	return Clamp(int(math.Floor(y/v.FieldH*float64(v.Rows))), 0, v.Rows-1)
}

// Project returns the cells covered by a box. Boxes partly outside the
// field are clipped; boxes entirely outside yield a zero-width rect.
func (v Viewport) Project(b Box) Rect {
	if b.Right <= 0 || b.Left >= v.FieldW {
		return Rect{X: v.CellX(b.Left), Y: v.CellY(b.Top)}
	}
	x0, y0 := v.CellX(b.Left), v.CellY(b.Top)
	x1 := max(v.CellX(b.Right-1), x0)
	y1 := max(v.CellY(b.Bottom-1), y0)
	return NewRect(x0, y0, x1-x0+1, y1-y0+1)
}
