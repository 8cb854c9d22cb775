package canvas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// lateSurface simulates boxes that grow after late-loading fonts.
type lateSurface struct {
	mu       sync.Mutex
	rects    geom.PositionMap
	detached bool
}

func (s *lateSurface) set(id string, r geom.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rects[id] = r
}

func (s *lateSurface) Container() (geom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return geom.Rect{X: 10, Y: 10, Width: 500, Height: 500}, !s.detached
}

func (s *lateSurface) TaggedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rects.IDs()
}

func (s *lateSurface) Measure(id string) (geom.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rects[id]
	return r, ok
}

func testGraph() *diagram.Graph {
	return diagram.MustNew(diagram.Document{
		Nodes: []diagram.Node{
			{ID: "a", Label: "A", Layer: diagram.LayerApplication},
			{ID: "g", Label: "G", Layer: diagram.LayerGateway},
		},
		Edges: []diagram.Edge{{From: "a", To: "g"}},
	})
}

func newLateSurface() *lateSurface {
	return &lateSurface{rects: geom.PositionMap{
		"a": {X: 10, Y: 10, Width: 40, Height: 20},
		"g": {X: 10, Y: 110, Width: 40, Height: 20},
	}}
}

// collect records frames and lets tests wait for one matching pred.
type collect struct {
	mu     sync.Mutex
	frames []Frame
	notify chan struct{}
}

func newCollect(c *Canvas) *collect {
	col := &collect{notify: make(chan struct{}, 64)}
	c.Subscribe(func(f Frame) {
		col.mu.Lock()
		col.frames = append(col.frames, f)
		col.mu.Unlock()
		select {
		case col.notify <- struct{}{}:
		default:
		}
	})
	return col
}

func (col *collect) count(pred func(Frame) bool) int {
	col.mu.Lock()
	defer col.mu.Unlock()
	n := 0
	for _, f := range col.frames {
		if pred(f) {
			n++
		}
	}
	return n
}

func (col *collect) waitFor(t *testing.T, pred func(Frame) bool) Frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		col.mu.Lock()
		for _, f := range col.frames {
			if pred(f) {
				col.mu.Unlock()
				return f
			}
		}
		col.mu.Unlock()
		select {
		case <-col.notify:
		case <-deadline:
			t.Fatal("timed out waiting for frame")
			return Frame{}
		}
	}
}

func byTrigger(tr Trigger) func(Frame) bool {
	return func(f Frame) bool { return f.State == StateMeasured && f.Trigger == tr }
}

func TestMountMeasuresImmediately(t *testing.T) {
	vp := surface.NewViewport(800, 600)
	c := New(testGraph(), newLateSurface(), vp, WithSettleDelay(0))
	if _, err := uuid.Parse(c.ID()); err != nil {
		t.Errorf("ID() = %q is not a uuid", c.ID())
	}
	if c.State() != StateUnmounted {
		t.Fatalf("State() = %v before mount", c.State())
	}

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	f := c.Frame()
	if f.State != StateMeasured || f.Trigger != TriggerMount {
		t.Fatalf("frame = %+v, want measured by mount", f)
	}
	if got := f.Positions["a"]; got != (geom.Rect{X: 0, Y: 0, Width: 40, Height: 20}) {
		t.Errorf("a = %+v", got)
	}
	if len(f.Segments) == 0 {
		t.Error("no segments routed")
	}
	if f.Viewport != (surface.Size{Width: 800, Height: 600}) {
		t.Errorf("Viewport = %v", f.Viewport)
	}
}

func TestMountDeliversMountedFrameFirst(t *testing.T) {
	c := New(testGraph(), newLateSurface(), surface.NewViewport(800, 600), WithSettleDelay(0))
	col := newCollect(c)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	col.mu.Lock()
	first := col.frames[0]
	col.mu.Unlock()
	if first.State != StateMounted || first.Trigger != TriggerMount {
		t.Errorf("first frame = %v/%q, want mounted by mount", first.State, first.Trigger)
	}
	if n := col.count(func(f Frame) bool { return f.State == StateMounted }); n != 1 {
		t.Errorf("mounted frames = %d, want 1", n)
	}
}

func TestMountTwice(t *testing.T) {
	c := New(testGraph(), newLateSurface(), surface.NewViewport(800, 600), WithSettleDelay(0))
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	if err := c.Mount(context.Background()); !errors.Is(err, ErrAlreadyMounted) {
		t.Errorf("second Mount() error = %v, want ErrAlreadyMounted", err)
	}
}

func TestSettleTimerRemeasures(t *testing.T) {
	s := newLateSurface()
	c := New(testGraph(), s, surface.NewViewport(800, 600), WithSettleDelay(30*time.Millisecond))
	col := newCollect(c)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	// Fonts arrive: the gateway box grows before the settle pass.
	s.set("g", geom.Rect{X: 10, Y: 110, Width: 80, Height: 30})

	f := col.waitFor(t, byTrigger(TriggerSettle))
	if got := f.Positions["g"]; got.Width != 80 {
		t.Errorf("settle pass saw g = %+v, want grown box", got)
	}
	if f.Seq <= 1 {
		t.Errorf("Seq = %d, want increasing sequence", f.Seq)
	}
}

func TestResizeRemeasures(t *testing.T) {
	vp := surface.NewViewport(1440, 900)
	g := diagram.Default()
	flow := surface.NewFlow(g, surface.WebMetrics(), vp)
	c := New(g, flow, vp, WithSettleDelay(0))
	col := newCollect(c)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()
	before := c.Frame()

	vp.Resize(1100, 900)
	f := col.waitFor(t, byTrigger(TriggerResize))
	if f.Viewport.Width != 1100 {
		t.Errorf("Viewport = %v", f.Viewport)
	}
	if f.Positions.Equal(before.Positions) {
		t.Error("narrower container did not change positions")
	}
	if len(f.Positions) != g.NodeCount() {
		t.Errorf("positions = %d, want %d", len(f.Positions), g.NodeCount())
	}
}

func TestResizeDebounce(t *testing.T) {
	vp := surface.NewViewport(800, 600)
	c := New(testGraph(), newLateSurface(), vp,
		WithSettleDelay(0), WithResizeDebounce(40*time.Millisecond))
	col := newCollect(c)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	vp.Resize(801, 600)
	vp.Resize(802, 600)
	vp.Resize(803, 600)
	col.waitFor(t, byTrigger(TriggerResize))
	time.Sleep(120 * time.Millisecond)

	if n := col.count(byTrigger(TriggerResize)); n != 1 {
		t.Errorf("resize passes = %d, want 1", n)
	}
}

func TestUnmountStopsCallbacks(t *testing.T) {
	vp := surface.NewViewport(800, 600)
	c := New(testGraph(), newLateSurface(), vp, WithSettleDelay(30*time.Millisecond))
	col := newCollect(c)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Unmount()
	c.Unmount()

	if c.State() != StateUnmounted {
		t.Errorf("State() = %v after unmount", c.State())
	}
	if vp.Subscribers() != 0 {
		t.Errorf("viewport still has %d subscribers", vp.Subscribers())
	}

	vp.Resize(1024, 768)
	time.Sleep(100 * time.Millisecond)
	if n := col.count(byTrigger(TriggerSettle)); n != 0 {
		t.Errorf("settle fired after unmount")
	}
	if n := col.count(byTrigger(TriggerResize)); n != 0 {
		t.Errorf("resize handled after unmount")
	}
	if c.Remeasure() {
		t.Error("Remeasure() accepted on unmounted canvas")
	}

	// A canvas can be mounted again after unmount.
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("remount: %v", err)
	}
	c.Unmount()
}

func TestDetachedSurfaceStaysMounted(t *testing.T) {
	s := newLateSurface()
	s.detached = true
	c := New(testGraph(), s, surface.NewViewport(800, 600), WithSettleDelay(0))

	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	f := c.Frame()
	if f.State != StateMounted || len(f.Positions) != 0 || len(f.Segments) != 0 {
		t.Errorf("frame = %+v, want empty mounted frame", f)
	}
}

func TestRemeasure(t *testing.T) {
	s := newLateSurface()
	c := New(testGraph(), s, surface.NewViewport(800, 600), WithSettleDelay(0))
	col := newCollect(c)
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	s.set("a", geom.Rect{X: 30, Y: 10, Width: 40, Height: 20})
	if !c.Remeasure() {
		t.Fatal("Remeasure() rejected")
	}
	f := col.waitFor(t, byTrigger(TriggerManual))
	if f.Positions["a"].X != 20 {
		t.Errorf("a = %+v", f.Positions["a"])
	}
}

func TestContextCancelUnmounts(t *testing.T) {
	vp := surface.NewViewport(800, 600)
	c := New(testGraph(), newLateSurface(), vp, WithSettleDelay(0))
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for c.State() != StateUnmounted {
		if time.Now().After(deadline) {
			t.Fatal("canvas still mounted after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if vp.Subscribers() != 0 {
		t.Errorf("viewport still has %d subscribers", vp.Subscribers())
	}
}

func TestCustomRouter(t *testing.T) {
	g := testGraph()
	r := route.New(g, route.WithoutRules(), route.WithStrokeWidth(5))
	c := New(g, newLateSurface(), surface.NewViewport(800, 600), WithSettleDelay(0), WithRouter(r))
	if err := c.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Unmount()

	segs := c.Frame().Segments
	if len(segs) != 1 || segs[0].Role != route.RoleOrthogonal || segs[0].Width != 5 {
		t.Errorf("segments = %+v", segs)
	}
}
