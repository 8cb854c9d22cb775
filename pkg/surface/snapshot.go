package surface

import "github.com/matzehuels/portalmap/pkg/geom"

// Snapshot is a Surface over rectangles measured elsewhere. Rects are
// relative to the container; Origin places the container in the viewport.
type Snapshot struct {
	Origin   geom.Point
	Rects    geom.PositionMap
	Detached bool
}

// NewSnapshot returns an attached snapshot with the container at the
// viewport origin.
func NewSnapshot(rects geom.PositionMap) *Snapshot {
	return &Snapshot{Rects: rects.Clone()}
}

// Container returns the bounds of all rectangles, placed at Origin.
func (s *Snapshot) Container() (geom.Rect, bool) {
	if s == nil || s.Detached {
		return geom.Rect{}, false
	}
	b := s.Rects.Bounds()
	return geom.Rect{
		X:      s.Origin.X,
		Y:      s.Origin.Y,
		Width:  b.Right(),
		Height: b.Bottom(),
	}, true
}

// TaggedIDs returns the measured ids, sorted.
func (s *Snapshot) TaggedIDs() []string {
	if s == nil {
		return nil
	}
	return s.Rects.IDs()
}

// Measure returns the rectangle for id in viewport coordinates.
func (s *Snapshot) Measure(id string) (geom.Rect, bool) {
	if s == nil {
		return geom.Rect{}, false
	}
	r, ok := s.Rects[id]
	if !ok {
		return geom.Rect{}, false
	}
	return r.Translate(s.Origin.X, s.Origin.Y), true
}
