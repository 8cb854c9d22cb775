package route

import (
	"math"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
)

// Router routes the edges of one graph. A Router holds no mutable state and
// is safe for concurrent use.
type Router struct {
	layerOf func(id string) diagram.Layer
	opts    Options
}

// New returns a router that looks up node layers in g.
func New(g *diagram.Graph, opts ...Option) *Router {
	return NewWithLayers(g.LayerOf, opts...)
}

// NewWithLayers returns a router that resolves node layers with layerOf.
func NewWithLayers(layerOf func(id string) diagram.Layer, opts ...Option) *Router {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Router{layerOf: layerOf, opts: o}
}

// Options returns the router's effective options.
func (r *Router) Options() Options { return r.opts }

// Route routes the graph's edges over positions with a one-off router.
func Route(g *diagram.Graph, positions geom.PositionMap, edges []diagram.Edge, opts ...Option) []Segment {
	return New(g, opts...).Route(positions, edges)
}

// emission is one slot of the output order: either finished segments or a
// bus group that is expanded once all its edges are known.
type emission struct {
	segs  []Segment
	group *busGroup
}

// Route returns the segments for edges, in edge order. Bus groups appear
// at the position of their first edge.
func (r *Router) Route(positions geom.PositionMap, edges []diagram.Edge) []Segment {
	var slots []emission
	groups := make(map[groupKey]*busGroup)

	for _, e := range edges {
		src, okSrc := positions[e.From]
		dst, okDst := positions[e.To]
		if !okSrc || !okDst {
			continue
		}

		if math.Abs(src.CenterY()-dst.CenterY()) < r.opts.LateralThreshold {
			slots = append(slots, emission{segs: []Segment{r.lateral(e, src, dst)}})
			continue
		}

		pair := LayerPair{r.layerOf(e.From), r.layerOf(e.To)}
		rule, ok := r.opts.Rules[pair]
		color := r.color(e, rule)
		if !ok {
			slots = append(slots, emission{segs: []Segment{r.orthogonal(e, src, dst, color)}})
			continue
		}

		switch rule.Strategy {
		case StrategyBus:
			key := groupKey{pair: pair, color: color}
			g, seen := groups[key]
			if !seen {
				g = &busGroup{placement: rule.Bus, color: color}
				groups[key] = g
				slots = append(slots, emission{group: g})
			}
			g.add(e, src, dst)
		case StrategyStraight:
			slots = append(slots, emission{segs: []Segment{r.straight(e, src, dst, color)}})
		default:
			slots = append(slots, emission{segs: []Segment{r.orthogonal(e, src, dst, color)}})
		}
	}

	var out []Segment
	for _, s := range slots {
		if s.group != nil {
			out = append(out, r.bus(s.group)...)
			continue
		}
		out = append(out, s.segs...)
	}
	return out
}

func (r *Router) color(e diagram.Edge, rule Rule) string {
	switch {
	case e.Color != "":
		return e.Color
	case rule.Color != "":
		return rule.Color
	default:
		return r.opts.DefaultColor
	}
}

func (r *Router) segment(role Role, color string, arrow bool, keys []string, pts ...geom.Point) Segment {
	kind := KindLine
	if len(pts) > 2 {
		kind = KindPath
	}
	return Segment{
		Edges:   keys,
		Role:    role,
		Kind:    kind,
		Points:  pts,
		Color:   color,
		Width:   r.opts.StrokeWidth,
		Opacity: 1,
		Arrow:   arrow,
	}
}

// lateral joins the facing sides of two boxes in the same row.
func (r *Router) lateral(e diagram.Edge, src, dst geom.Rect) Segment {
	color := e.Color
	if color == "" {
		color = r.opts.LateralColor
	}
	y := (src.CenterY() + dst.CenterY()) / 2
	from, to := geom.Point{X: src.Right(), Y: y}, geom.Point{X: dst.X, Y: y}
	if dst.CenterX() < src.CenterX() {
		from, to = geom.Point{X: src.X, Y: y}, geom.Point{X: dst.Right(), Y: y}
	}
	s := r.segment(RoleLateral, color, true, []string{e.Key()}, from, to)
	s.Opacity = r.opts.LateralOpacity
	return s
}

func (r *Router) straight(e diagram.Edge, src, dst geom.Rect, color string) Segment {
	from, to := src.BottomCenter(), dst.TopCenter()
	if dst.CenterY() < src.CenterY() {
		from, to = src.TopCenter(), dst.BottomCenter()
	}
	return r.segment(RoleDirect, color, true, []string{e.Key()}, from, to)
}

// orthogonal runs vertically to the midpoint, across, then vertically into
// the destination. Mirrored when the destination is above the source.
func (r *Router) orthogonal(e diagram.Edge, src, dst geom.Rect, color string) Segment {
	from, to := src.BottomCenter(), dst.TopCenter()
	if dst.CenterY() < src.CenterY() {
		from, to = src.TopCenter(), dst.BottomCenter()
	}
	keys := []string{e.Key()}
	if from.X == to.X {
		return r.segment(RoleOrthogonal, color, true, keys, from, to)
	}
	midY := (from.Y + to.Y) / 2
	return r.segment(RoleOrthogonal, color, true, keys,
		from,
		geom.Point{X: from.X, Y: midY},
		geom.Point{X: to.X, Y: midY},
		to,
	)
}
