// Package core provides the platform-neutral building blocks shared by the
// simulation, the session layer and the terminal front end: the input
// bitmask, the Fletcher-16 digest and a character screen buffer.
// It has no external dependencies so the simulation stays pure and testable.
package core

// Rect is an axis-aligned rectangle in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Scale maps v from the range [0, from) onto [0, to) using integer math.
// Values outside the source range are clamped to the target range.
func Scale(v, from, to int) int {
	if from <= 0 || to <= 0 {
		return 0
	}
	return Clamp(v*to/from, 0, to-1)
}
