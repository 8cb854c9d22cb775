package tracker

import (
	"math"
	"testing"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// fakeSurface reports viewport rectangles directly.
type fakeSurface struct {
	container geom.Rect
	detached  bool
	rects     map[string]geom.Rect
	order     []string
}

func (f *fakeSurface) Container() (geom.Rect, bool) { return f.container, !f.detached }
func (f *fakeSurface) TaggedIDs() []string          { return f.order }
func (f *fakeSurface) Measure(id string) (geom.Rect, bool) {
	r, ok := f.rects[id]
	return r, ok
}

func TestMeasureAllSubtractsContainerOffset(t *testing.T) {
	s := &fakeSurface{
		container: geom.Rect{X: 100, Y: 50, Width: 1000, Height: 800},
		rects: map[string]geom.Rect{
			"apigee": {X: 400, Y: 200, Width: 300, Height: 40},
		},
		order: []string{"apigee"},
	}
	tr := New(s)

	pm, ok := tr.MeasureAll()
	if !ok {
		t.Fatal("MeasureAll() reported detached")
	}
	want := geom.Rect{X: 300, Y: 150, Width: 300, Height: 40}
	if pm["apigee"] != want {
		t.Errorf("apigee = %+v, want %+v", pm["apigee"], want)
	}
}

func TestMeasureAllIsIdempotent(t *testing.T) {
	s := &fakeSurface{
		container: geom.Rect{X: 10, Y: 10},
		rects: map[string]geom.Rect{
			"a": {X: 20, Y: 30, Width: 5, Height: 5},
			"b": {X: 40, Y: 30, Width: 5, Height: 5},
		},
		order: []string{"a", "b"},
	}
	tr := New(s)

	first, _ := tr.MeasureAll()
	second, _ := tr.MeasureAll()
	if !first.Equal(second) {
		t.Errorf("second pass = %v, want %v", second, first)
	}
	if tr.Passes() != 2 {
		t.Errorf("Passes() = %d, want 2", tr.Passes())
	}
}

func TestMeasureAllRebuildsWholesale(t *testing.T) {
	s := &fakeSurface{
		rects: map[string]geom.Rect{
			"a": {Width: 5, Height: 5},
			"b": {X: 10, Width: 5, Height: 5},
		},
		order: []string{"a", "b"},
	}
	tr := New(s)
	tr.MeasureAll()

	s.order = []string{"b"}
	pm, _ := tr.MeasureAll()
	if _, stale := pm["a"]; stale {
		t.Error("stale id a survived the rebuild")
	}
	if len(pm) != 1 {
		t.Errorf("positions = %v, want only b", pm)
	}
}

func TestMeasureAllDetachedIsNoop(t *testing.T) {
	s := &fakeSurface{
		rects: map[string]geom.Rect{"a": {Width: 5, Height: 5}},
		order: []string{"a"},
	}
	tr := New(s)

	s.detached = true
	pm, ok := tr.MeasureAll()
	if ok {
		t.Error("MeasureAll() on detached container reported ok")
	}
	if len(pm) != 0 {
		t.Errorf("positions = %v, want empty", pm)
	}

	s.detached = false
	tr.MeasureAll()
	s.detached = true
	pm, ok = tr.MeasureAll()
	if ok || len(pm) != 1 {
		t.Errorf("detached pass changed positions: %v, %v", pm, ok)
	}
	if tr.Passes() != 1 {
		t.Errorf("Passes() = %d, want 1", tr.Passes())
	}
}

func TestMeasureAllSkipsUnmeasurable(t *testing.T) {
	s := &fakeSurface{
		rects: map[string]geom.Rect{
			"ok":  {Width: 5, Height: 5},
			"nan": {X: math.NaN(), Width: 5, Height: 5},
		},
		order: []string{"ok", "nan", "gone"},
	}
	pm, _ := New(s).MeasureAll()
	if len(pm) != 1 {
		t.Errorf("positions = %v, want only ok", pm)
	}
}

func TestPositionsIsACopy(t *testing.T) {
	s := &fakeSurface{
		rects: map[string]geom.Rect{"a": {Width: 5, Height: 5}},
		order: []string{"a"},
	}
	tr := New(s)
	pm, _ := tr.MeasureAll()
	pm["a"] = geom.Rect{X: 99}

	if tr.Positions()["a"].X != 0 {
		t.Error("caller mutation leaked into tracker state")
	}
}

func TestMeasureFlowSurface(t *testing.T) {
	vp := surface.NewViewport(1600, 900)
	flow := surface.NewFlow(diagram.Default(), surface.WebMetrics(), vp)
	tr := New(flow)

	pm, ok := tr.MeasureAll()
	if !ok {
		t.Fatal("flow surface reported detached")
	}
	if len(pm) != diagram.Default().NodeCount() {
		t.Errorf("measured %d nodes, want %d", len(pm), diagram.Default().NodeCount())
	}
	// Positions are container-relative, so a wider viewport that only
	// shifts the centered container leaves them unchanged.
	vp.Resize(1800, 900)
	moved, _ := tr.MeasureAll()
	if !pm.Equal(moved) {
		t.Error("positions changed when only the container offset moved")
	}
}
