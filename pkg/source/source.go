// Package source loads diagram descriptors.
//
// A [Source] yields a validated [diagram.Graph]. Descriptors come from a
// file on disk, the embedded default, or a MongoDB collection shared by
// several server instances.
package source

import (
	"context"

	"github.com/matzehuels/portalmap/pkg/diagram"
)

// Source loads a descriptor.
type Source interface {
	// Load reads and validates the descriptor.
	Load(ctx context.Context) (*diagram.Graph, error)
	// String describes where the descriptor comes from, for logs.
	String() string
}

// File reads a JSON, YAML or TOML file chosen by extension.
type File struct {
	Path string
}

func (f File) Load(ctx context.Context) (*diagram.Graph, error) {
	return diagram.ReadFile(f.Path)
}

func (f File) String() string { return f.Path }

// Embedded is the built-in default diagram.
type Embedded struct{}

func (Embedded) Load(ctx context.Context) (*diagram.Graph, error) {
	return diagram.Default(), nil
}

func (Embedded) String() string { return "embedded default" }

// Static serves a graph already in memory.
type Static struct {
	Graph *diagram.Graph
}

func (s Static) Load(ctx context.Context) (*diagram.Graph, error) { return s.Graph, nil }

func (s Static) String() string { return "static" }
