package surface

import "github.com/matzehuels/portalmap/pkg/diagram"

// Metrics sizes a [Flow] layout. Units are whatever the consumer draws in:
// pixels for the web page, character cells for the terminal.
type Metrics struct {
	MinWidth  float64 // container never narrower than this
	MaxWidth  float64 // container never wider than this; centered beyond
	OffsetTop float64 // container distance from the viewport top

	Padding  float64 // container inner padding
	Gutter   float64 // left strip holding the layer labels
	LayerGap float64 // vertical space between bands

	CharWidth  float64 // average glyph advance
	LineHeight float64
	TextPad    float64 // inner box padding around text

	Layers map[diagram.Layer]LayerMetrics
}

// LayerMetrics sizes the boxes of one band.
type LayerMetrics struct {
	// BoxWidth is the fixed box width. Zero makes each box span the row.
	BoxWidth float64
	// BoxHeight is the minimum box height; boxes grow with their text.
	BoxHeight float64
	// Gap separates boxes horizontally and wrapped rows vertically.
	Gap float64
	// Stretch equalizes box heights within a row.
	Stretch bool

	// Frame draws a dashed band around the boxes, padded by FramePad.
	Frame         bool
	FramePad      float64
	HeadingHeight float64
}

// Layer returns the metrics for l, falling back to the application layer.
func (m Metrics) Layer(l diagram.Layer) LayerMetrics {
	if lm, ok := m.Layers[l]; ok {
		return lm
	}
	return m.Layers[diagram.LayerApplication]
}

// WebMetrics mirrors the landing page stylesheet, in CSS pixels.
func WebMetrics() Metrics {
	return Metrics{
		MinWidth:   1100,
		MaxWidth:   1280,
		Padding:    24,
		Gutter:     112,
		LayerGap:   48,
		CharWidth:  6.5,
		LineHeight: 15,
		TextPad:    8,
		Layers: map[diagram.Layer]LayerMetrics{
			diagram.LayerApplication: {BoxWidth: 110, BoxHeight: 50, Gap: 16},
			diagram.LayerGateway:     {BoxHeight: 56, Gap: 16},
			diagram.LayerMiddleware: {
				BoxWidth: 115, BoxHeight: 70, Gap: 12, Stretch: true,
				Frame: true, FramePad: 16,
			},
			diagram.LayerBackend: {
				BoxWidth: 140, BoxHeight: 60, Gap: 24,
				Frame: true, FramePad: 16, HeadingHeight: 28,
			},
		},
	}
}

// TerminalMetrics lays the diagram out in character cells. Boxes get a
// one-cell border, which TextPad accounts for.
func TerminalMetrics() Metrics {
	return Metrics{
		MinWidth:   60,
		MaxWidth:   220,
		Padding:    1,
		Gutter:     13,
		LayerGap:   4,
		CharWidth:  1,
		LineHeight: 1,
		TextPad:    1,
		Layers: map[diagram.Layer]LayerMetrics{
			diagram.LayerApplication: {BoxWidth: 12, BoxHeight: 3, Gap: 2},
			diagram.LayerGateway:     {BoxHeight: 3, Gap: 2},
			diagram.LayerMiddleware: {
				BoxWidth: 16, BoxHeight: 4, Gap: 1, Stretch: true,
				Frame: true, FramePad: 1,
			},
			diagram.LayerBackend: {
				BoxWidth: 18, BoxHeight: 4, Gap: 3,
				Frame: true, FramePad: 1, HeadingHeight: 1,
			},
		},
	}
}
