// Package tracker measures tagged node boxes on a [surface.Surface] and
// records their rectangles relative to the diagram container.
//
// Every pass rebuilds the position map from scratch, so ids that left the
// layout never linger. A pass over a detached container changes nothing.
package tracker

import (
	"sync"

	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/observability"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// Tracker owns the position map of one diagram instance.
type Tracker struct {
	surface surface.Surface

	mu        sync.RWMutex
	positions geom.PositionMap
	passes    int
}

// New returns a tracker over s with an empty position map.
func New(s surface.Surface) *Tracker {
	return &Tracker{surface: s, positions: geom.PositionMap{}}
}

// MeasureAll runs one measurement pass. It returns the new position map and
// true, or the previous map and false when the container is not attached.
//
// For every tagged id the container's viewport offset is subtracted from the
// box's viewport rectangle. Ids the surface cannot measure are left out.
func (t *Tracker) MeasureAll() (geom.PositionMap, bool) {
	container, ok := t.surface.Container()
	if !ok {
		observability.Layout().OnMeasureSkipped()
		return t.Positions(), false
	}

	ids := t.surface.TaggedIDs()
	next := make(geom.PositionMap, len(ids))
	for _, id := range ids {
		r, ok := t.surface.Measure(id)
		if !ok || !r.Valid() {
			continue
		}
		next[id] = r.RelativeTo(container)
	}

	t.mu.Lock()
	t.positions = next
	t.passes++
	t.mu.Unlock()

	observability.Layout().OnMeasured(len(next))
	return next.Clone(), true
}

// Positions returns a copy of the latest position map.
func (t *Tracker) Positions() geom.PositionMap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.positions.Clone()
}

// Passes returns how many measurement passes have completed.
func (t *Tracker) Passes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.passes
}
