package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/portalmap/pkg/diagram"
)

// WriteNode writes one node as an anchor box tagged with data-node-id.
func WriteNode(buf *bytes.Buffer, n diagram.Node) {
	class := "node node-" + layerClass(n.Layer)
	if n.Variant != "" {
		class += " variant-" + EscapeXML(n.Variant)
	}
	theme := NodeTheme(n)

	fmt.Fprintf(buf, `<a class="%s" data-node-id="%s"`, class, EscapeXML(n.ID))
	if n.URL != "" {
		fmt.Fprintf(buf, ` href="%s" target="_blank" rel="noopener noreferrer"`, EscapeXML(n.URL))
	}
	fmt.Fprintf(buf, ` style="background:%s;border-color:%s;color:%s">`, theme.Fill, theme.Stroke, theme.Text)

	fmt.Fprintf(buf, `<span class="label">%s</span>`, EscapeXML(n.Label))
	if n.Sublabel != "" {
		fmt.Fprintf(buf, `<span class="sublabel">%s</span>`, EscapeXML(n.Sublabel))
	}
	if n.HasAPI || n.HasWorkspace {
		buf.WriteString(`<span class="badges">`)
		if n.HasAPI {
			buf.WriteString(`<span class="badge badge-api">APIs</span>`)
		}
		if n.HasWorkspace {
			buf.WriteString(`<span class="badge badge-workspace">[workspace]</span>`)
		}
		buf.WriteString(`</span>`)
	}
	buf.WriteString("</a>\n")
}

// WriteLayer writes a layer band: the gutter label, the optional heading,
// the node boxes in order and the layer's placeholders.
func WriteLayer(buf *bytes.Buffer, g *diagram.Graph, l diagram.Layer) {
	fmt.Fprintf(buf, `<section class="band band-%s" data-layer="%s">`+"\n", layerClass(l), layerClass(l))
	fmt.Fprintf(buf, `<div class="band-title">%s</div>`+"\n", EscapeXML(l.Title()))
	if h := g.Heading(l); h != "" {
		fmt.Fprintf(buf, `<h3 class="band-heading">%s</h3>`+"\n", EscapeXML(h))
	}
	buf.WriteString(`<div class="band-boxes">` + "\n")
	for _, n := range g.NodesInLayer(l) {
		WriteNode(buf, n)
	}
	for _, p := range g.PlaceholdersIn(l) {
		fmt.Fprintf(buf, `<div class="node placeholder">%s</div>`+"\n", EscapeXML(p.Label))
	}
	buf.WriteString("</div>\n</section>\n")
}

// WriteDiagram writes the diagram container: every band, the connector
// overlay computed for the scene's layout, and the legend.
func WriteDiagram(buf *bytes.Buffer, s Scene) {
	c := s.Layout.Container
	fmt.Fprintf(buf, `<div class="diagram" id="diagram" style="max-width:%spx">`+"\n", num(c.Width))
	for _, l := range s.Graph.Layers() {
		WriteLayer(buf, s.Graph, l)
	}
	WriteOverlay(buf, c.Width, c.Height, s.Segments)
	buf.WriteString("</div>\n")
	WriteLegend(buf)
}

// WriteLegend writes the color legend.
func WriteLegend(buf *bytes.Buffer) {
	buf.WriteString(`<ul class="legend">` + "\n")
	for _, it := range Legend {
		fmt.Fprintf(buf, `<li><span class="swatch" style="background:%s;border-color:%s"></span>%s</li>`+"\n",
			it.Swatch.Fill, it.Swatch.Stroke, EscapeXML(it.Label))
	}
	buf.WriteString("</ul>\n")
}

// HTML returns the diagram markup as a byte slice.
func HTML(s Scene) []byte {
	var buf bytes.Buffer
	WriteDiagram(&buf, s)
	return buf.Bytes()
}
