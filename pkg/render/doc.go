// Package render draws a routed diagram.
//
// All renderers take a [Scene]: the graph, a flow layout and the routed
// segments. Three outputs exist:
//
//   - HTML ([WriteDiagram], [WriteLayer], [WriteNode]): anchor boxes tagged
//     with data-node-id, grouped in layer bands and laid out by the
//     browser, with an SVG connector overlay for first paint.
//   - SVG ([RenderSVG] for a standalone image, [WriteOverlay] for the
//     connector layer alone).
//   - Text ([RenderText]): a character grid for terminals, drawn from a
//     layout computed with [surface.TerminalMetrics].
//
// The [nodelink] subpackage renders the descriptor as a plain Graphviz
// node-link diagram instead.
//
// [nodelink]: github.com/matzehuels/portalmap/pkg/render/nodelink
package render
