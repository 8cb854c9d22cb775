// Package nodelink renders diagrams as Graphviz node-link graphs.
//
// It is an alternative view to the banded diagram: the same layers become
// ranks, the same colors fill the boxes, and edges are laid out by
// Graphviz instead of the connector router.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Clusters: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Graphviz runs in-process through github.com/goccy/go-graphviz, so no
// external binary is needed.
package nodelink
