package diagram

import (
	"fmt"
	"strings"
)

// Layer is an ordered tier of the diagram, rendered as a horizontal band.
// The zero value is LayerUnknown and is rejected by validation.
type Layer int

const (
	LayerUnknown Layer = iota
	LayerApplication
	LayerGateway
	LayerMiddleware
	LayerBackend
)

// Layers lists the known layers from top to bottom.
var Layers = []Layer{LayerApplication, LayerGateway, LayerMiddleware, LayerBackend}

var layerNames = map[Layer]string{
	LayerApplication: "application",
	LayerGateway:     "gateway",
	LayerMiddleware:  "middleware",
	LayerBackend:     "backend",
}

var layerTitles = map[Layer]string{
	LayerApplication: "Application layer",
	LayerGateway:     "API Gateway",
	LayerMiddleware:  "Middleware",
	LayerBackend:     "Backend",
}

func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return "unknown"
}

// Title is the human-readable band label.
func (l Layer) Title() string { return layerTitles[l] }

// Valid reports whether l is one of the four known layers.
func (l Layer) Valid() bool {
	_, ok := layerNames[l]
	return ok
}

// ParseLayer converts a layer name (case-insensitive) to a Layer.
func ParseLayer(s string) (Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range layerNames {
		if name == s {
			return l, nil
		}
	}
	return LayerUnknown, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayer, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. JSON, YAML and TOML
// decoding all go through it.
func (l *Layer) UnmarshalText(text []byte) error {
	parsed, err := ParseLayer(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
