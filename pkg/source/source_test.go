package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/portalmap/pkg/diagram"
	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, diagram.DefaultYAML(), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := File{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != diagram.Default().NodeCount() {
		t.Errorf("nodes = %d", g.NodeCount())
	}

	_, err = File{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	if !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestEmbeddedAndStatic(t *testing.T) {
	ctx := context.Background()
	g, err := Embedded{}.Load(ctx)
	if err != nil || g != diagram.Default() {
		t.Errorf("Embedded = %v, %v", g, err)
	}
	got, _ := Static{Graph: g}.Load(ctx)
	if got != g {
		t.Error("Static returned a different graph")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	want := diagram.Default().Document()
	rec := newRecord("tma", want)
	if rec.Name != "tma" {
		t.Errorf("name = %q", rec.Name)
	}
	if rec.Nodes[0].Layer != "application" {
		t.Errorf("layer stored as %q", rec.Nodes[0].Layer)
	}

	got, err := rec.document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	g, err := diagram.New(got)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.NodeCount() != len(want.Nodes) || g.EdgeCount() != len(want.Edges) {
		t.Errorf("counts = %d/%d", g.NodeCount(), g.EdgeCount())
	}
	if len(got.Placeholders) != len(want.Placeholders) {
		t.Errorf("placeholders = %d", len(got.Placeholders))
	}
}

func TestRecordUnknownLayer(t *testing.T) {
	rec := record{Nodes: []nodeRecord{{ID: "a", Label: "A", Layer: "database"}}}
	_, err := rec.document()
	if !perrors.Is(err, perrors.ErrCodeUnknownLayer) {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, diagram.ErrUnknownLayer) {
		t.Errorf("err does not wrap ErrUnknownLayer: %v", err)
	}
}

func TestDialMongoRequiresURI(t *testing.T) {
	_, err := DialMongo(context.Background(), MongoConfig{})
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}
