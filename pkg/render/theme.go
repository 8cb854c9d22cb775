package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// Scene is everything a renderer needs.
type Scene struct {
	Graph    *diagram.Graph
	Layout   *surface.Layout
	Segments []route.Segment
}

// Theme colors one box.
type Theme struct {
	Fill   string
	Stroke string
	Text   string
}

var layerThemes = map[diagram.Layer]Theme{
	diagram.LayerApplication: {Fill: "#ffffff", Stroke: "#94a3b8", Text: "#334155"},
	diagram.LayerGateway:     {Fill: "#10b981", Stroke: "#14b8a6", Text: "#ffffff"},
	diagram.LayerMiddleware:  {Fill: "#16a34a", Stroke: "#16a34a", Text: "#ffffff"},
	diagram.LayerBackend:     {Fill: "#0ea5e9", Stroke: "#0ea5e9", Text: "#ffffff"},
}

var variantThemes = map[string]Theme{
	"reporting": {Fill: "#f97316", Stroke: "#f97316", Text: "#ffffff"},
	"portal":    {Fill: "#0ea5e9", Stroke: "#0ea5e9", Text: "#ffffff"},
	"search":    {Fill: "#9333ea", Stroke: "#9333ea", Text: "#ffffff"},
}

var placeholderTheme = Theme{Fill: "#f1f5f9", Stroke: "#cbd5e1", Text: "#94a3b8"}

// NodeTheme returns the colors for a node. Unknown variants fall back to
// the layer colors.
func NodeTheme(n diagram.Node) Theme {
	if t, ok := variantThemes[n.Variant]; ok {
		return t
	}
	return layerThemes[n.Layer]
}

// LegendItem is one legend entry.
type LegendItem struct {
	Label  string
	Swatch Theme
}

// Legend lists the box colors in display order.
var Legend = []LegendItem{
	{"Application", layerThemes[diagram.LayerApplication]},
	{"API Gateway", layerThemes[diagram.LayerGateway]},
	{"Middleware", layerThemes[diagram.LayerMiddleware]},
	{"Reporting", variantThemes["reporting"]},
	{"Backend", variantThemes["search"]},
}

const (
	frameStrokeMiddleware = "#38bdf8"
	frameStrokeBackend    = "#94a3b8"
	headingColor          = "#059669"
	gutterColor           = "#64748b"
)

func frameStroke(l diagram.Layer) string {
	if l == diagram.LayerMiddleware {
		return frameStrokeMiddleware
	}
	return frameStrokeBackend
}

// EscapeXML escapes text for XML and HTML content and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// WrapURL wraps the output of fn in a link opening url in a new browsing
// context. Nothing is wrapped when url is empty.
func WrapURL(buf *bytes.Buffer, url string, fn func()) {
	if url != "" {
		fmt.Fprintf(buf, `<a href="%s" target="_blank" rel="noopener noreferrer">`, EscapeXML(url))
	}
	fn()
	if url != "" {
		buf.WriteString("</a>")
	}
}

// markerID names the arrowhead marker for a stroke color.
func markerID(color string) string {
	var b strings.Builder
	b.WriteString("arrow-")
	for _, r := range strings.TrimPrefix(color, "#") {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
