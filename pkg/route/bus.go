package route

import (
	"math"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
)

type groupKey struct {
	pair  LayerPair
	color string
}

type busEdge struct {
	edge     diagram.Edge
	src, dst geom.Rect
}

// busGroup collects the edges of one layer pair and color.
type busGroup struct {
	placement BusPlacement
	color     string
	edges     []busEdge
}

func (g *busGroup) add(e diagram.Edge, src, dst geom.Rect) {
	g.edges = append(g.edges, busEdge{edge: e, src: src, dst: dst})
}

// endpoints returns distinct endpoint ids in first-seen order with their
// rectangles and the keys of the edges touching each.
func (g *busGroup) endpoints(source bool) (ids []string, rects map[string]geom.Rect, keys map[string][]string) {
	rects = make(map[string]geom.Rect)
	keys = make(map[string][]string)
	for _, be := range g.edges {
		id, r := be.edge.To, be.dst
		if source {
			id, r = be.edge.From, be.src
		}
		if _, ok := rects[id]; !ok {
			ids = append(ids, id)
			rects[id] = r
		}
		keys[id] = append(keys[id], be.edge.Key())
	}
	return ids, rects, keys
}

func (r *Router) bus(g *busGroup) []Segment {
	srcIDs, srcRects, srcKeys := g.endpoints(true)
	dstIDs, dstRects, dstKeys := g.endpoints(false)

	bottom := math.Inf(-1)
	for _, id := range srcIDs {
		bottom = max(bottom, srcRects[id].Bottom())
	}
	top := math.Inf(1)
	for _, id := range dstIDs {
		top = min(top, dstRects[id].Y)
	}

	// Sources must sit strictly above destinations for a bus to make sense.
	if bottom >= top {
		out := make([]Segment, 0, len(g.edges))
		for _, be := range g.edges {
			out = append(out, r.orthogonal(be.edge, be.src, be.dst, g.color))
		}
		return out
	}

	busY := bottom + (top-bottom)/2
	if g.placement == BusAboveDestination {
		if y := top - r.opts.BusOffset; y > bottom {
			busY = y
		}
	}

	all := make([]string, 0, len(g.edges))
	for _, be := range g.edges {
		all = append(all, be.edge.Key())
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	var out []Segment
	for _, id := range srcIDs {
		p := srcRects[id].BottomCenter()
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		out = append(out, r.segment(RoleDrop, g.color, false, srcKeys[id], p, geom.Point{X: p.X, Y: busY}))
	}
	for _, id := range dstIDs {
		x := dstRects[id].CenterX()
		minX, maxX = min(minX, x), max(maxX, x)
	}
	if maxX > minX {
		out = append(out, r.segment(RoleBus, g.color, false, all,
			geom.Point{X: minX, Y: busY}, geom.Point{X: maxX, Y: busY}))
	}
	for _, id := range dstIDs {
		p := dstRects[id].TopCenter()
		out = append(out, r.segment(RoleTerminal, g.color, true, dstKeys[id], geom.Point{X: p.X, Y: busY}, p))
	}
	return out
}
