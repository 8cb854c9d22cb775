package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/render"
	"github.com/matzehuels/portalmap/pkg/route"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the sublabel and badges to node labels.
	Detailed bool
	// Clusters draws each layer as a labeled cluster.
	Clusters bool
	// Route supplies edge colors. Zero value uses route.DefaultOptions.
	Route *route.Options
}

// ToDOT converts a diagram to Graphviz DOT. Nodes of one layer share a rank
// and keep their descriptor order; edges inside one layer are drawn as
// dashed, unconstrained associations.
func ToDOT(g *diagram.Graph, opts Options) string {
	ro := route.DefaultOptions()
	if opts.Route != nil {
		ro = *opts.Route
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  newrank=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for _, l := range g.Layers() {
		buf.WriteString("\n")
		nodes := g.NodesInLayer(l)
		indent := "  "
		if opts.Clusters {
			fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+l.String())
			fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(g, l))
			buf.WriteString("    style=dashed;\n    color=\"#94a3b8\";\n    fontsize=11;\n")
			indent = "    "
		}
		for _, n := range nodes {
			fmt.Fprintf(&buf, "%s%q [%s];\n", indent, n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		}
		for i, p := range g.PlaceholdersIn(l) {
			fmt.Fprintf(&buf, "%s%q [label=%q, style=\"rounded,dashed\", color=\"#cbd5e1\", fontcolor=\"#94a3b8\"];\n",
				indent, placeholderID(l, i), p.Label)
		}
		if opts.Clusters {
			buf.WriteString("  }\n")
		}
		if ids := layerIDs(g, l); len(ids) > 1 {
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
			// invisible chain keeps descriptor order
			fmt.Fprintf(&buf, "  %s [style=invis];\n", strings.Join(ids, " -> "))
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if _, ok := g.Node(e.From); !ok {
			continue
		}
		if _, ok := g.Node(e.To); !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(g, e, ro), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func clusterLabel(g *diagram.Graph, l diagram.Layer) string {
	if h := g.Heading(l); h != "" {
		return h
	}
	return l.Title()
}

func placeholderID(l diagram.Layer, i int) string {
	return fmt.Sprintf("_placeholder_%s_%d", l, i)
}

func layerIDs(g *diagram.Graph, l diagram.Layer) []string {
	var ids []string
	for _, n := range g.NodesInLayer(l) {
		ids = append(ids, strconv.Quote(n.ID))
	}
	for i := range g.PlaceholdersIn(l) {
		ids = append(ids, strconv.Quote(placeholderID(l, i)))
	}
	return ids
}

func fmtLabel(n diagram.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}
	parts := []string{n.Label}
	if n.Sublabel != "" {
		parts = append(parts, n.Sublabel)
	}
	var badges []string
	if n.HasAPI {
		badges = append(badges, "APIs")
	}
	if n.HasWorkspace {
		badges = append(badges, "[workspace]")
	}
	if len(badges) > 0 {
		parts = append(parts, strings.Join(badges, " "))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n diagram.Node, detailed bool) []string {
	t := render.NodeTheme(n)
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", t.Fill),
		fmt.Sprintf("color=%q", t.Stroke),
		fmt.Sprintf("fontcolor=%q", t.Text),
	}
	if n.URL != "" {
		attrs = append(attrs, fmt.Sprintf("URL=%q", n.URL), `target="_blank"`)
	}
	return attrs
}

func edgeAttrs(g *diagram.Graph, e diagram.Edge, ro route.Options) []string {
	from, to := g.LayerOf(e.From), g.LayerOf(e.To)
	color := e.Color
	if color == "" {
		if from == to {
			color = ro.LateralColor
		} else if rule, ok := ro.Rules[route.LayerPair{From: from, To: to}]; ok && rule.Color != "" {
			color = rule.Color
		} else {
			color = ro.DefaultColor
		}
	}
	attrs := []string{fmt.Sprintf("color=%q", color)}
	if from == to {
		attrs = append(attrs, "style=dashed", "constraint=false")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the image scales from a
// zero origin instead of Graphviz's point-based size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
