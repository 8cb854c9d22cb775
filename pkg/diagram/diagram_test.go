package diagram

import (
	"errors"
	"testing"

	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

func node(id string, l Layer) Node {
	return Node{ID: id, Label: id, Layer: l}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		sentinel error
		code     perrors.Code
	}{
		{
			name: "Valid",
			doc: Document{
				Nodes: []Node{node("a", LayerApplication), node("g", LayerGateway)},
				Edges: []Edge{{From: "a", To: "g"}},
			},
		},
		{
			name:     "EmptyID",
			doc:      Document{Nodes: []Node{{Label: "x", Layer: LayerBackend}}},
			sentinel: ErrInvalidNodeID,
			code:     perrors.ErrCodeInvalidDescriptor,
		},
		{
			name:     "IDWithSpace",
			doc:      Document{Nodes: []Node{{ID: "a b", Label: "x", Layer: LayerBackend}}},
			sentinel: ErrInvalidNodeID,
			code:     perrors.ErrCodeInvalidDescriptor,
		},
		{
			name: "DuplicateID",
			doc: Document{Nodes: []Node{
				node("kbs", LayerBackend),
				node("kbs", LayerMiddleware),
			}},
			sentinel: ErrDuplicateNodeID,
			code:     perrors.ErrCodeDuplicateNode,
		},
		{
			name:     "MissingLayer",
			doc:      Document{Nodes: []Node{{ID: "a", Label: "a"}}},
			sentinel: ErrUnknownLayer,
			code:     perrors.ErrCodeUnknownLayer,
		},
		{
			name:     "EmptyLabel",
			doc:      Document{Nodes: []Node{{ID: "a", Layer: LayerGateway}}},
			sentinel: ErrEmptyLabel,
			code:     perrors.ErrCodeInvalidDescriptor,
		},
		{
			name: "BadURL",
			doc: Document{Nodes: []Node{
				{ID: "a", Label: "a", Layer: LayerGateway, URL: "javascript:alert(1)"},
			}},
			code: perrors.ErrCodeInvalidDescriptor,
		},
		{
			name: "BadEdgeColor",
			doc: Document{
				Nodes: []Node{node("a", LayerApplication), node("g", LayerGateway)},
				Edges: []Edge{{From: "a", To: "g", Color: "#12"}},
			},
			code: perrors.ErrCodeInvalidDescriptor,
		},
		{
			name: "BadPlaceholderLayer",
			doc: Document{
				Placeholders: []Placeholder{{Label: "+ Add Service"}},
			},
			sentinel: ErrUnknownLayer,
			code:     perrors.ErrCodeUnknownLayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.doc)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if g == nil {
					t.Fatal("New() returned nil graph")
				}
				return
			}
			if err == nil {
				t.Fatal("New() error = nil, want error")
			}
			if !perrors.Is(err, tt.code) {
				t.Errorf("code = %q, want %q", perrors.GetCode(err), tt.code)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
		})
	}
}

func TestDanglingEdges(t *testing.T) {
	g := MustNew(Document{
		Nodes: []Node{node("a", LayerApplication), node("g", LayerGateway)},
		Edges: []Edge{
			{From: "a", To: "g"},
			{From: "a", To: "ghost"},
			{From: "ghost", To: "g"},
		},
	})

	if got := g.EdgeCount(); got != 3 {
		t.Errorf("EdgeCount() = %d, want 3", got)
	}
	dangling := g.DanglingEdges()
	if len(dangling) != 2 {
		t.Fatalf("DanglingEdges() = %v, want 2 edges", dangling)
	}
	if dangling[0].Key() != "a->ghost" || dangling[1].Key() != "ghost->g" {
		t.Errorf("DanglingEdges() = %v", dangling)
	}
}

func TestNodesInLayerKeepsOrder(t *testing.T) {
	g := MustNew(Document{Nodes: []Node{
		node("m2", LayerMiddleware),
		node("a", LayerApplication),
		node("m1", LayerMiddleware),
		node("m3", LayerMiddleware),
	}})

	var ids []string
	for _, n := range g.NodesInLayer(LayerMiddleware) {
		ids = append(ids, n.ID)
	}
	want := []string{"m2", "m1", "m3"}
	if len(ids) != len(want) {
		t.Fatalf("NodesInLayer() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("NodesInLayer()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	layers := g.Layers()
	if len(layers) != 2 || layers[0] != LayerApplication || layers[1] != LayerMiddleware {
		t.Errorf("Layers() = %v", layers)
	}
	if g.LayerOf("m1") != LayerMiddleware || g.LayerOf("nope") != LayerUnknown {
		t.Error("LayerOf() returned wrong layer")
	}
}

func TestGraphIsImmutable(t *testing.T) {
	doc := Document{Nodes: []Node{node("a", LayerApplication)}}
	g := MustNew(doc)

	doc.Nodes[0].Label = "changed"
	nodes := g.Nodes()
	nodes[0].Label = "changed too"

	n, _ := g.Node("a")
	if n.Label != "a" {
		t.Errorf("Label = %q, want %q", n.Label, "a")
	}
}

func TestParseLayer(t *testing.T) {
	tests := []struct {
		in      string
		want    Layer
		wantErr bool
	}{
		{"application", LayerApplication, false},
		{"Gateway", LayerGateway, false},
		{" middleware ", LayerMiddleware, false},
		{"backend", LayerBackend, false},
		{"database", LayerUnknown, true},
		{"", LayerUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseLayer(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLayer(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLayer(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	g := Default()

	if g.Title() != "TMA" {
		t.Errorf("Title() = %q", g.Title())
	}
	counts := map[Layer]int{
		LayerApplication: 5,
		LayerGateway:     1,
		LayerMiddleware:  7,
		LayerBackend:     3,
	}
	for l, want := range counts {
		if got := len(g.NodesInLayer(l)); got != want {
			t.Errorf("%s nodes = %d, want %d", l, got, want)
		}
	}
	if d := g.DanglingEdges(); len(d) != 0 {
		t.Errorf("DanglingEdges() = %v, want none", d)
	}
	if len(g.PlaceholdersIn(LayerBackend)) != 1 {
		t.Error("expected one backend placeholder")
	}
	if g.Heading(LayerBackend) != "Enterprise Platform and Services" {
		t.Errorf("Heading(backend) = %q", g.Heading(LayerBackend))
	}
}
