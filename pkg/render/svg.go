package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

const legendHeight = 36

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	legend bool
	links  bool
	title  string
}

// WithLegend appends the color legend below the diagram.
func WithLegend() SVGOption { return func(r *svgRenderer) { r.legend = true } }

// WithLinks wraps every box in a link to its URL.
func WithLinks() SVGOption { return func(r *svgRenderer) { r.links = true } }

// WithTitle sets the SVG <title>; defaults to the graph title.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// RenderSVG renders the scene as a standalone SVG image.
func RenderSVG(s Scene, opts ...SVGOption) []byte {
	r := svgRenderer{title: s.Graph.Title()}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := s.Layout.Container.Width, s.Layout.Container.Height
	total := height
	if r.legend {
		total += legendHeight
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f" font-family="ui-sans-serif, system-ui, sans-serif">`+"\n",
		num(width), num(total), width, total)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	writeMarkers(&buf, s.Segments)
	fmt.Fprintf(&buf, `  <rect width="%s" height="%s" fill="#ffffff"/>`+"\n", num(width), num(total))

	for _, band := range s.Layout.Bands {
		r.writeBand(&buf, s.Layout, band)
	}
	writeSegments(&buf, s.Segments)
	for _, band := range s.Layout.Bands {
		for _, box := range band.Boxes {
			r.writeBox(&buf, s.Layout, box)
		}
	}
	if r.legend {
		writeSVGLegend(&buf, width, height)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// WriteOverlay writes the connector layer alone: an absolutely positioned
// SVG covering the container, with one arrowhead marker per color.
func WriteOverlay(buf *bytes.Buffer, width, height float64, segs []route.Segment) {
	fmt.Fprintf(buf, `<svg class="connectors" xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" aria-hidden="true">`+"\n",
		num(width), num(height), num(width), num(height))
	writeMarkers(buf, segs)
	writeSegments(buf, segs)
	buf.WriteString("</svg>\n")
}

// Overlay returns the connector layer as a standalone fragment.
func Overlay(width, height float64, segs []route.Segment) []byte {
	var buf bytes.Buffer
	WriteOverlay(&buf, width, height, segs)
	return buf.Bytes()
}

func writeMarkers(buf *bytes.Buffer, segs []route.Segment) {
	var colors []string
	for _, s := range segs {
		if s.Arrow && !slices.Contains(colors, s.Color) {
			colors = append(colors, s.Color)
		}
	}
	if len(colors) == 0 {
		return
	}
	slices.Sort(colors)
	buf.WriteString("  <defs>\n")
	for _, c := range colors {
		fmt.Fprintf(buf, `    <marker id="%s" markerWidth="8" markerHeight="6" refX="7" refY="3" orient="auto">`+
			`<polygon points="0 0, 8 3, 0 6" fill="%s"/></marker>`+"\n", markerID(c), EscapeXML(c))
	}
	buf.WriteString("  </defs>\n")
}

func writeSegments(buf *bytes.Buffer, segs []route.Segment) {
	for _, s := range segs {
		if len(s.Points) < 2 {
			continue
		}
		attrs := fmt.Sprintf(`class="connector connector-%s" data-edges="%s" stroke="%s" stroke-width="%s"`,
			s.Role, EscapeXML(strings.Join(s.Edges, " ")), EscapeXML(s.Color), num(s.Width))
		if s.Opacity > 0 && s.Opacity < 1 {
			attrs += fmt.Sprintf(` opacity="%s"`, num(s.Opacity))
		}
		if s.Arrow {
			attrs += fmt.Sprintf(` marker-end="url(#%s)"`, markerID(s.Color))
		}
		if s.Kind == route.KindLine {
			a, b := s.Start(), s.End()
			fmt.Fprintf(buf, `  <line x1="%s" y1="%s" x2="%s" y2="%s" %s/>`+"\n",
				num(a.X), num(a.Y), num(b.X), num(b.Y), attrs)
			continue
		}
		fmt.Fprintf(buf, `  <path d="%s" fill="none" %s/>`+"\n", s.PathData(), attrs)
	}
}

func (r *svgRenderer) writeBand(buf *bytes.Buffer, l *surface.Layout, band surface.Band) {
	rect := band.Rect
	if band.Framed {
		fmt.Fprintf(buf, `  <rect class="band band-%s" x="%s" y="%s" width="%s" height="%s" rx="8" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="6 4"/>`+"\n",
			band.Layer, num(rect.X), num(rect.Y), num(rect.Width), num(rect.Height), frameStroke(band.Layer))
	}
	fmt.Fprintf(buf, `  <text x="%s" y="%s" font-size="11" font-weight="600" fill="%s" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
		num(rect.X-12), num(rect.CenterY()), gutterColor, EscapeXML(band.Title))
	if band.Heading != "" {
		pad := 0.0
		if len(band.Boxes) > 0 {
			pad = band.Boxes[0].Rect.Y - rect.Y
		}
		fmt.Fprintf(buf, `  <text x="%s" y="%s" font-size="14" font-weight="600" font-style="italic" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			num(rect.CenterX()), num(rect.Y+pad/2+l.LineHeight/4), headingColor, EscapeXML(band.Heading))
	}
}

func (r *svgRenderer) writeBox(buf *bytes.Buffer, l *surface.Layout, box surface.Box) {
	theme := placeholderTheme
	if !box.Placeholder {
		theme = NodeTheme(box.Node)
	}
	rect := box.Rect

	draw := func() {
		id := ""
		if !box.Placeholder {
			id = fmt.Sprintf(` data-node-id="%s"`, EscapeXML(box.ID))
		}
		fmt.Fprintf(buf, `  <rect class="node"%s x="%s" y="%s" width="%s" height="%s" rx="4" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			id, num(rect.X), num(rect.Y), num(rect.Width), num(rect.Height), theme.Fill, theme.Stroke)

		lines := boxLines(box)
		lh := l.LineHeight
		y := rect.CenterY() - float64(len(lines)-1)*lh/2
		for i, ln := range lines {
			size, weight := 11, "600"
			if i >= len(box.Lines) {
				size, weight = 10, "400"
			}
			fmt.Fprintf(buf, `  <text x="%s" y="%s" font-size="%d" font-weight="%s" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				num(rect.CenterX()), num(y+float64(i)*lh), size, weight, theme.Text, EscapeXML(ln))
		}
	}
	if r.links && !box.Placeholder {
		buf.WriteString("  ")
		WrapURL(buf, box.Node.URL, draw)
		buf.WriteString("\n")
		return
	}
	draw()
}

// boxLines returns the wrapped label followed by the sublabel and badges.
func boxLines(box surface.Box) []string {
	lines := slices.Clone(box.Lines)
	if box.Node.Sublabel != "" {
		lines = append(lines, box.Node.Sublabel)
	}
	var badges []string
	if box.Node.HasAPI {
		badges = append(badges, "APIs")
	}
	if box.Node.HasWorkspace {
		badges = append(badges, "[workspace]")
	}
	if len(badges) > 0 {
		lines = append(lines, strings.Join(badges, " "))
	}
	return lines
}

func writeSVGLegend(buf *bytes.Buffer, width, top float64) {
	const item = 110.0
	x := (width - item*float64(len(Legend))) / 2
	y := top + legendHeight/2
	for _, it := range Legend {
		fmt.Fprintf(buf, `  <rect x="%s" y="%s" width="12" height="12" rx="2" fill="%s" stroke="%s"/>`+"\n",
			num(x), num(y-6), it.Swatch.Fill, it.Swatch.Stroke)
		fmt.Fprintf(buf, `  <text x="%s" y="%s" font-size="12" fill="%s" dominant-baseline="middle">%s</text>`+"\n",
			num(x+18), num(y), gutterColor, EscapeXML(it.Label))
		x += item
	}
}

// layerClass is the CSS class suffix for a layer.
func layerClass(l diagram.Layer) string { return l.String() }
