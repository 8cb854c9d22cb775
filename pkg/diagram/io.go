package diagram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

// Format is a descriptor serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidFormat, "unknown descriptor format: %s", path)
}

// ReadFile reads and validates a descriptor file. The format is chosen by
// extension.
func ReadFile(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perrors.Wrap(perrors.ErrCodeNotFound, err, "descriptor %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// Read decodes and validates a descriptor from r.
func Read(r io.Reader, format Format) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Unmarshal(data, format)
}

// Unmarshal decodes and validates a descriptor.
func Unmarshal(data []byte, format Format) (*Graph, error) {
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// DecodeDocument decodes a descriptor without validating it.
func DecodeDocument(data []byte, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		_, err = toml.Decode(string(data), &doc)
	default:
		return Document{}, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err != nil {
		if errors.Is(err, ErrUnknownLayer) {
			return Document{}, perrors.Wrap(perrors.ErrCodeUnknownLayer, err, "decode %s", format)
		}
		return Document{}, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	return doc, nil
}

// Marshal encodes the graph in the given format.
func Marshal(g *Graph, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes the graph to w.
func Write(w io.Writer, g *Graph, format Format) error {
	doc := g.Document()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	return nil
}

// WriteFile writes the graph to path in the format implied by its extension.
func WriteFile(g *Graph, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, g, format)
}
