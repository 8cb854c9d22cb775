package diagram

import (
	_ "embed"
	"sync"
)

//go:embed default.yaml
var defaultYAML []byte

var defaultGraph = sync.OnceValue(func() *Graph {
	g, err := Unmarshal(defaultYAML, FormatYAML)
	if err != nil {
		panic("diagram: embedded default descriptor: " + err.Error())
	}
	return g
})

// Default returns the built-in workspace portal diagram.
func Default() *Graph { return defaultGraph() }

// DefaultYAML returns the source of the built-in diagram, useful as a
// starting point for a custom descriptor.
func DefaultYAML() []byte { return append([]byte(nil), defaultYAML...) }
