package diagram_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/portalmap/pkg/diagram"
)

func ExampleRead() {
	src := `
nodes:
  - {id: web, label: Web, layer: application}
  - {id: gw, label: Gateway, layer: gateway}
  - {id: search, label: Search, layer: middleware}
edges:
  - {from: web, to: gw}
  - {from: gw, to: search}
  - {from: gw, to: billing}
`
	g, err := diagram.Read(strings.NewReader(src), diagram.FormatYAML)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, l := range g.Layers() {
		fmt.Printf("%s: %d node(s)\n", l, len(g.NodesInLayer(l)))
	}
	for _, e := range g.DanglingEdges() {
		fmt.Println("dangling:", e.Key())
	}
	// Output:
	// application: 1 node(s)
	// gateway: 1 node(s)
	// middleware: 1 node(s)
	// dangling: gw->billing
}

func ExampleNew() {
	_, err := diagram.New(diagram.Document{
		Nodes: []diagram.Node{
			{ID: "kbs", Label: "KBS", Layer: diagram.LayerBackend},
			{ID: "kbs", Label: "KBS again", Layer: diagram.LayerBackend},
		},
	})
	fmt.Println(err)
	// Output:
	// DUPLICATE_NODE: node "kbs": duplicate node ID
}
