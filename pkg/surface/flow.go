package surface

import (
	"math"
	"sync"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
)

// Box is one laid-out box. Placeholder boxes have no ID and are never
// returned by [Flow.TaggedIDs].
type Box struct {
	ID          string
	Node        diagram.Node
	Label       string
	Lines       []string // label wrapped to the box width
	Rect        geom.Rect
	Placeholder bool
}

// Band is the horizontal strip holding one layer.
type Band struct {
	Layer   diagram.Layer
	Title   string
	Heading string
	Framed  bool
	Rect    geom.Rect
	Boxes   []Box
}

// Layout is the result of one flow pass. Band and box rectangles are
// relative to the container; Container is in viewport coordinates.
type Layout struct {
	Viewport  Size
	Container geom.Rect
	Bands     []Band

	// Text metrics the layout was computed with, for renderers.
	CharWidth  float64
	LineHeight float64
	Gutter     float64
}

// Positions returns the tagged boxes, relative to the container.
func (l *Layout) Positions() geom.PositionMap {
	pm := geom.PositionMap{}
	for _, b := range l.Bands {
		for _, box := range b.Boxes {
			if !box.Placeholder {
				pm[box.ID] = box.Rect
			}
		}
	}
	return pm
}

// Flow is a [Surface] that computes its own layout from a graph, a set of
// metrics and a viewport. The layout is recomputed lazily whenever the
// viewport size changes. Flow is safe for concurrent use.
type Flow struct {
	graph    *diagram.Graph
	metrics  Metrics
	viewport *Viewport

	mu       sync.Mutex
	detached bool
	cached   *Layout
}

// NewFlow returns an attached flow surface.
func NewFlow(g *diagram.Graph, m Metrics, vp *Viewport) *Flow {
	return &Flow{graph: g, metrics: m, viewport: vp}
}

func (f *Flow) Graph() *diagram.Graph { return f.graph }
func (f *Flow) Metrics() Metrics      { return f.metrics }
func (f *Flow) Viewport() *Viewport   { return f.viewport }

// Detach marks the container as no longer attached. Measurements report
// nothing until [Flow.Attach] is called.
func (f *Flow) Detach() {
	f.mu.Lock()
	f.detached = true
	f.mu.Unlock()
}

// Attach re-attaches a detached container.
func (f *Flow) Attach() {
	f.mu.Lock()
	f.detached = false
	f.mu.Unlock()
}

// Layout returns the layout for the current viewport size.
func (f *Flow) Layout() *Layout {
	size := f.viewport.Size()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil || f.cached.Viewport != size {
		f.cached = computeLayout(f.graph, f.metrics, size)
	}
	return f.cached
}

// Bands returns the layer bands of the current layout.
func (f *Flow) Bands() []Band { return f.Layout().Bands }

// Placeholders returns the untagged boxes of the current layout.
func (f *Flow) Placeholders() []Box {
	var out []Box
	for _, b := range f.Layout().Bands {
		for _, box := range b.Boxes {
			if box.Placeholder {
				out = append(out, box)
			}
		}
	}
	return out
}

func (f *Flow) attached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.detached
}

// Container implements [Surface].
func (f *Flow) Container() (geom.Rect, bool) {
	if !f.attached() {
		return geom.Rect{}, false
	}
	return f.Layout().Container, true
}

// TaggedIDs implements [Surface]. Ids are returned in layer order, then
// declaration order.
func (f *Flow) TaggedIDs() []string {
	if !f.attached() {
		return nil
	}
	var ids []string
	for _, b := range f.Layout().Bands {
		for _, box := range b.Boxes {
			if !box.Placeholder {
				ids = append(ids, box.ID)
			}
		}
	}
	return ids
}

// Measure implements [Surface].
func (f *Flow) Measure(id string) (geom.Rect, bool) {
	if !f.attached() {
		return geom.Rect{}, false
	}
	l := f.Layout()
	for _, b := range l.Bands {
		for _, box := range b.Boxes {
			if !box.Placeholder && box.ID == id {
				return box.Rect.Translate(l.Container.X, l.Container.Y), true
			}
		}
	}
	return geom.Rect{}, false
}

func computeLayout(g *diagram.Graph, m Metrics, vp Size) *Layout {
	width := vp.Width
	if m.MaxWidth > 0 {
		width = min(width, m.MaxWidth)
	}
	width = max(width, m.MinWidth)

	out := &Layout{
		Viewport:   vp,
		CharWidth:  m.CharWidth,
		LineHeight: m.LineHeight,
		Gutter:     m.Padding + m.Gutter,
	}
	left := m.Padding + m.Gutter
	inner := max(width-left-m.Padding, 0)
	y := m.Padding

	for i, layer := range g.Layers() {
		if i > 0 {
			y += m.LayerGap
		}
		lm := m.Layer(layer)
		band := Band{
			Layer:   layer,
			Title:   layer.Title(),
			Heading: g.Heading(layer),
			Framed:  lm.Frame,
		}
		top := y
		contentLeft, contentWidth := left, inner
		if lm.Frame {
			contentLeft += lm.FramePad
			contentWidth = max(contentWidth-2*lm.FramePad, 0)
			y += lm.FramePad
		}
		if band.Heading != "" {
			y += lm.HeadingHeight
		}

		var boxes []Box
		for _, n := range g.NodesInLayer(layer) {
			boxes = append(boxes, sizeBox(m, lm, contentWidth, Box{
				ID: n.ID, Node: n, Label: n.Label,
			}))
		}
		for _, p := range g.PlaceholdersIn(layer) {
			boxes = append(boxes, sizeBox(m, lm, contentWidth, Box{
				Label: p.Label, Placeholder: true,
			}))
		}

		y = placeRows(boxes, lm, contentLeft, contentWidth, y)
		if lm.Frame {
			y += lm.FramePad
		}
		band.Rect = geom.Rect{X: left, Y: top, Width: inner, Height: y - top}
		band.Boxes = boxes
		out.Bands = append(out.Bands, band)
	}

	out.Container = geom.Rect{
		X:      max((vp.Width-width)/2, 0),
		Y:      m.OffsetTop,
		Width:  width,
		Height: y + m.Padding,
	}
	return out
}

// sizeBox fixes a box's width and its height from the wrapped text.
func sizeBox(m Metrics, lm LayerMetrics, avail float64, b Box) Box {
	w := lm.BoxWidth
	if w <= 0 || w > avail {
		w = avail
	}
	chars := 1
	if m.CharWidth > 0 {
		chars = int(math.Floor((w - 2*m.TextPad) / m.CharWidth))
	}
	b.Lines = wrapText(b.Label, chars)

	lines := len(b.Lines)
	if b.Node.Sublabel != "" {
		lines++
	}
	if b.Node.HasAPI || b.Node.HasWorkspace {
		lines++
	}
	h := max(lm.BoxHeight, 2*m.TextPad+float64(lines)*m.LineHeight)
	b.Rect = geom.Rect{Width: w, Height: h}
	return b
}

// placeRows flows boxes left to right, wrapping when a row is full, and
// centers each row. It returns the y below the last row.
func placeRows(boxes []Box, lm LayerMetrics, left, width, y float64) float64 {
	start := 0
	for start < len(boxes) {
		end := start + 1
		rowWidth := boxes[start].Rect.Width
		for end < len(boxes) && rowWidth+lm.Gap+boxes[end].Rect.Width <= width {
			rowWidth += lm.Gap + boxes[end].Rect.Width
			end++
		}

		rowHeight := 0.0
		for _, b := range boxes[start:end] {
			rowHeight = max(rowHeight, b.Rect.Height)
		}
		x := left + (width-rowWidth)/2
		for i := start; i < end; i++ {
			r := &boxes[i].Rect
			r.X, r.Y = x, y
			if lm.Stretch {
				r.Height = rowHeight
			}
			x += r.Width + lm.Gap
		}

		y += rowHeight
		start = end
		if start < len(boxes) {
			y += lm.Gap
		}
	}
	return y
}
