package render

import (
	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
	"github.com/matzehuels/portalmap/pkg/tracker"
)

// Build lays the graph out on a flow surface of the given viewport size,
// measures it and routes every edge.
func Build(g *diagram.Graph, m surface.Metrics, width, height float64, opts ...route.Option) Scene {
	flow := surface.NewFlow(g, m, surface.NewViewport(width, height))
	positions, _ := tracker.New(flow).MeasureAll()
	return Scene{
		Graph:    g,
		Layout:   flow.Layout(),
		Segments: route.Route(g, positions, g.Edges(), opts...),
	}
}
