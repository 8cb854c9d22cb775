// Package geom holds the small amount of plane geometry shared by the
// surfaces, the tracker and the router.
//
// All coordinates use screen orientation: x grows to the right, y grows
// downward, and a [Rect] is anchored at its top-left corner.
package geom

import (
	"maps"
	"math"
	"slices"
)

// Point is a position in container coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64   { return r.X + r.Width }
func (r Rect) Bottom() float64  { return r.Y + r.Height }
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// TopCenter is where incoming connectors terminate.
func (r Rect) TopCenter() Point { return Point{r.CenterX(), r.Y} }

// BottomCenter is where outgoing connectors start.
func (r Rect) BottomCenter() Point { return Point{r.CenterX(), r.Bottom()} }

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// RelativeTo expresses r in the coordinate space whose origin is the
// top-left corner of origin.
func (r Rect) RelativeTo(origin Rect) Rect {
	return r.Translate(-origin.X, -origin.Y)
}

// Valid reports whether the rectangle has finite coordinates and a
// non-negative size.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// PositionMap maps node ids to their measured rectangles.
// It is rebuilt wholesale on every measurement pass.
type PositionMap map[string]Rect

// Clone returns an independent copy.
func (m PositionMap) Clone() PositionMap {
	if m == nil {
		return PositionMap{}
	}
	return maps.Clone(m)
}

// IDs returns the measured ids in sorted order.
func (m PositionMap) IDs() []string {
	return slices.Sorted(maps.Keys(m))
}

// Equal reports whether both maps hold the same ids with identical rectangles.
func (m PositionMap) Equal(other PositionMap) bool {
	return maps.Equal(m, other)
}

// Bounds returns the smallest rectangle covering every entry.
func (m PositionMap) Bounds() Rect {
	if len(m) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range m {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.Right())
		maxY = max(maxY, r.Bottom())
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
