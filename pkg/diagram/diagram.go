package diagram

import (
	"errors"
	"fmt"
	"slices"

	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

var (
	// ErrInvalidNodeID is returned by [New] when a node ID is empty or
	// contains characters that cannot be carried in a data attribute.
	ErrInvalidNodeID = errors.New("invalid node ID")

	// ErrDuplicateNodeID is returned by [New] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownLayer is returned by [New] and [ParseLayer] when a node's
	// layer is missing or not one of the four known layers.
	ErrUnknownLayer = errors.New("unknown layer")

	// ErrEmptyLabel is returned by [New] when a node has no label.
	ErrEmptyLabel = errors.New("node label must not be empty")
)

// Node is one labeled box of the diagram.
type Node struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Label    string `json:"label" yaml:"label" toml:"label"`
	Sublabel string `json:"sublabel,omitempty" yaml:"sublabel,omitempty" toml:"sublabel,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Layer    Layer  `json:"layer" yaml:"layer" toml:"layer"`

	// HasAPI adds an "APIs" badge.
	HasAPI bool `json:"has_api,omitempty" yaml:"has_api,omitempty" toml:"has_api,omitempty"`
	// HasWorkspace adds a "[workspace]" badge.
	HasWorkspace bool `json:"has_workspace,omitempty" yaml:"has_workspace,omitempty" toml:"has_workspace,omitempty"`

	// Variant selects an alternative color scheme for the box
	// (for example "reporting"). Empty means the layer default.
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty" toml:"variant,omitempty"`
}

// Edge is a directed connection between two nodes. Color overrides the
// routing rule color when set.
type Edge struct {
	From  string `json:"from" yaml:"from" toml:"from"`
	To    string `json:"to" yaml:"to" toml:"to"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// Key identifies the edge in routed output.
func (e Edge) Key() string { return e.From + "->" + e.To }

// Placeholder is an untagged box shown in a layer band. It takes space in
// the layout but is never measured or routed.
type Placeholder struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	Layer Layer  `json:"layer" yaml:"layer" toml:"layer"`
}

// Document is the serialized form of a diagram.
type Document struct {
	Title        string            `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Subtitle     string            `json:"subtitle,omitempty" yaml:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Headings     map[string]string `json:"headings,omitempty" yaml:"headings,omitempty" toml:"headings,omitempty"`
	Nodes        []Node            `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges        []Edge            `json:"edges" yaml:"edges" toml:"edges"`
	Placeholders []Placeholder     `json:"placeholders,omitempty" yaml:"placeholders,omitempty" toml:"placeholders,omitempty"`
}

// Graph is a validated, immutable diagram. The zero value is empty; use [New].
// A Graph is safe for concurrent reads.
type Graph struct {
	doc      Document
	index    map[string]int
	byLayer  map[Layer][]int
	dangling []Edge
}

// New validates doc and builds a Graph. It fails on the first invalid node;
// edges that reference undeclared nodes are kept and listed by
// [Graph.DanglingEdges].
//
// Returned errors carry a [perrors.Code] and wrap one of the package
// sentinels.
func New(doc Document) (*Graph, error) {
	g := &Graph{
		doc:     cloneDocument(doc),
		index:   make(map[string]int, len(doc.Nodes)),
		byLayer: make(map[Layer][]int),
	}
	for i, n := range g.doc.Nodes {
		if err := perrors.ValidateNodeID(n.ID); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidDescriptor,
				fmt.Errorf("%w: %s", ErrInvalidNodeID, perrors.UserMessage(err)), "node #%d", i+1)
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, perrors.Wrap(perrors.ErrCodeDuplicateNode, ErrDuplicateNodeID, "node %q", n.ID)
		}
		if !n.Layer.Valid() {
			return nil, perrors.Wrap(perrors.ErrCodeUnknownLayer, ErrUnknownLayer, "node %q", n.ID)
		}
		if n.Label == "" {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidDescriptor, ErrEmptyLabel, "node %q", n.ID)
		}
		if err := perrors.ValidateTargetURL(n.URL); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidDescriptor, err, "node %q", n.ID)
		}
		g.index[n.ID] = i
		g.byLayer[n.Layer] = append(g.byLayer[n.Layer], i)
	}
	for _, e := range g.doc.Edges {
		if err := perrors.ValidateColor(e.Color); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidDescriptor, err, "edge %s", e.Key())
		}
		_, okFrom := g.index[e.From]
		_, okTo := g.index[e.To]
		if !okFrom || !okTo {
			g.dangling = append(g.dangling, e)
		}
	}
	for _, p := range g.doc.Placeholders {
		if !p.Layer.Valid() {
			return nil, perrors.Wrap(perrors.ErrCodeUnknownLayer, ErrUnknownLayer, "placeholder %q", p.Label)
		}
	}
	return g, nil
}

// MustNew is like [New] but panics on error. Intended for tests and
// package-level defaults.
func MustNew(doc Document) *Graph {
	g, err := New(doc)
	if err != nil {
		panic(err)
	}
	return g
}

// Title returns the diagram title.
func (g *Graph) Title() string { return g.doc.Title }

// Subtitle returns the diagram subtitle.
func (g *Graph) Subtitle() string { return g.doc.Subtitle }

// Heading returns the band heading for a layer, or "" when none is set.
func (g *Graph) Heading(l Layer) string { return g.doc.Headings[l.String()] }

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.doc.Nodes[i], true
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.doc.Nodes) }

// NodesInLayer returns the nodes of one layer in declaration order.
func (g *Graph) NodesInLayer(l Layer) []Node {
	idx := g.byLayer[l]
	out := make([]Node, len(idx))
	for i, j := range idx {
		out[i] = g.doc.Nodes[j]
	}
	return out
}

// Layers returns the layers that contain at least one node or placeholder,
// top to bottom.
func (g *Graph) Layers() []Layer {
	var out []Layer
	for _, l := range Layers {
		if len(g.byLayer[l]) > 0 || len(g.PlaceholdersIn(l)) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// PlaceholdersIn returns the placeholders of one layer.
func (g *Graph) PlaceholdersIn(l Layer) []Placeholder {
	var out []Placeholder
	for _, p := range g.doc.Placeholders {
		if p.Layer == l {
			out = append(out, p)
		}
	}
	return out
}

// LayerOf returns the layer of a node, or LayerUnknown.
func (g *Graph) LayerOf(id string) Layer {
	if n, ok := g.Node(id); ok {
		return n.Layer
	}
	return LayerUnknown
}

// Edges returns all edges in declaration order, including dangling ones.
func (g *Graph) Edges() []Edge { return slices.Clone(g.doc.Edges) }

// DanglingEdges returns edges whose endpoints are not declared nodes.
func (g *Graph) DanglingEdges() []Edge { return slices.Clone(g.dangling) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.doc.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.doc.Edges) }

// Document returns a copy of the serialized form.
func (g *Graph) Document() Document { return cloneDocument(g.doc) }

func cloneDocument(doc Document) Document {
	out := doc
	out.Nodes = slices.Clone(doc.Nodes)
	out.Edges = slices.Clone(doc.Edges)
	out.Placeholders = slices.Clone(doc.Placeholders)
	if doc.Headings != nil {
		out.Headings = make(map[string]string, len(doc.Headings))
		for k, v := range doc.Headings {
			out.Headings[k] = v
		}
	}
	return out
}
