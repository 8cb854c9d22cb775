package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalmap/internal/config"
	"github.com/matzehuels/portalmap/pkg/cache"
	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/render"
	"github.com/matzehuels/portalmap/pkg/render/nodelink"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// Render kinds and formats.
const (
	kindDiagram  = "diagram"
	kindNodelink = "nodelink"

	formatSVG  = "svg"
	formatHTML = "html"
	formatJSON = "json"
	formatDOT  = "dot"
	formatText = "txt"
)

const (
	defaultHeight      = 900
	defaultTextColumns = 120
	defaultTextRows    = 60
)

// renderOpts holds the render command flags that are not config keys.
type renderOpts struct {
	kind     string
	format   string
	output   string
	legend   bool
	links    bool
	detailed bool
	flat     bool
}

// renderCommand creates the render command for exporting the diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [descriptor]",
		Short: "Export the diagram as SVG, HTML, JSON, DOT or text",
		Long: `Lay the diagram out on the flow surface, route its connectors and write
the result.

Types:
  diagram   the layered diagram (formats: svg, html, json, txt)
  nodelink  a Graphviz node-link view of the same graph (formats: svg, dot)

Without a descriptor argument the configured source is used, which falls
back to the built-in default diagram. Use -o - to write to stdout.`,
		Example: `  portalmap render
  portalmap render diagram.yaml -f html -o diagram.html
  portalmap render -f txt -o - --width 100
  portalmap render -t nodelink -f dot -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := c.config()
			if err != nil {
				return err
			}
			cfg := *base
			if opts.format == formatText && !cmd.Flags().Changed("width") {
				cfg.Width = defaultTextColumns
			}
			return c.runRender(cmd.Context(), &cfg, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.kind, "type", "t", kindDiagram, "render type: diagram or nodelink")
	f.StringVarP(&opts.format, "format", "f", formatSVG, "output format: svg, html, json, txt or dot")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default <type>.<format>, - for stdout)")
	f.BoolVar(&opts.legend, "legend", true, "include the layer legend")
	f.BoolVar(&opts.links, "links", true, "wrap boxes in links to their service URL")
	f.BoolVar(&opts.detailed, "detailed", false, "nodelink: add sublabels and badges to node labels")
	f.BoolVar(&opts.flat, "flat", false, "nodelink: do not group layers into clusters")
	f.Float64("width", config.DefaultWidth, "viewport width (px, or columns for txt)")
	_ = cmd.MarkFlagFilename("output")
	addSourceFlags(f)
	addRouteFlags(f)
	addCacheFlags(f)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg *config.Config, args []string, opts renderOpts) error {
	if err := validateRenderOpts(opts); err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	g, src, err := c.loadGraph(ctx, args)
	if err != nil {
		return err
	}
	logger.Debug("descriptor loaded", "source", src, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	store, err := cache.Open(ctx, cfg.CacheConfig())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	key, err := artifactKey(g, cfg, opts)
	if err != nil {
		return err
	}

	data, cached, err := cachedArtifact(ctx, store, key, cfg, func() ([]byte, error) {
		return renderArtifact(ctx, g, cfg, opts)
	})
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	out := opts.output
	if out == "" {
		out = opts.kind + "." + opts.format
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	prog.done("Rendered " + out)
	printSuccess("Rendered %s %s", opts.kind, strings.ToUpper(opts.format))
	printStats(g.NodeCount(), g.EdgeCount(), len(g.DanglingEdges()))
	if cached {
		printDetail("from cache")
	}
	printFile(out)
	return nil
}

func validateRenderOpts(opts renderOpts) error {
	valid := map[string][]string{
		kindDiagram:  {formatSVG, formatHTML, formatJSON, formatText},
		kindNodelink: {formatSVG, formatDOT},
	}
	formats, ok := valid[opts.kind]
	if !ok {
		return fmt.Errorf("unknown render type %q (use diagram or nodelink)", opts.kind)
	}
	for _, f := range formats {
		if f == opts.format {
			return nil
		}
	}
	return fmt.Errorf("format %q is not supported for %s (use %s)", opts.format, opts.kind, strings.Join(formats, ", "))
}

// renderArtifact produces the bytes for one kind/format pair.
func renderArtifact(ctx context.Context, g *diagram.Graph, cfg *config.Config, opts renderOpts) ([]byte, error) {
	if opts.kind == kindNodelink {
		ro := route.DefaultOptions()
		for _, o := range cfg.RouteOptions() {
			o(&ro)
		}
		dot := nodelink.ToDOT(g, nodelink.Options{
			Detailed: opts.detailed,
			Clusters: !opts.flat,
			Route:    &ro,
		})
		if opts.format == formatDOT {
			return []byte(dot), nil
		}
		spinner := newSpinnerWithContext(ctx, "Running graphviz...")
		spinner.Start()
		svg, err := nodelink.RenderSVG(ctx, dot)
		spinner.Stop()
		return svg, err
	}

	if opts.format == formatText {
		scene := render.Build(g, surface.TerminalMetrics(), cfg.Width, defaultTextRows, cfg.RouteOptions()...)
		return []byte(render.RenderText(scene)), nil
	}

	scene := render.Build(g, surface.WebMetrics(), cfg.Width, defaultHeight, cfg.RouteOptions()...)
	switch opts.format {
	case formatHTML:
		return render.HTML(scene), nil
	case formatJSON:
		return sceneJSON(scene)
	default:
		var svgOpts []render.SVGOption
		if opts.legend {
			svgOpts = append(svgOpts, render.WithLegend())
		}
		if opts.links {
			svgOpts = append(svgOpts, render.WithLinks())
		}
		return render.RenderSVG(scene, svgOpts...), nil
	}
}

// sceneJSON is the same payload the /api/route endpoint returns, plus the
// first-paint positions it was routed from.
func sceneJSON(s render.Scene) ([]byte, error) {
	out := struct {
		Width     float64          `json:"width"`
		Height    float64          `json:"height"`
		Positions geom.PositionMap `json:"positions"`
		Segments  []route.Segment  `json:"segments"`
	}{
		Width:     s.Layout.Container.Width,
		Height:    s.Layout.Container.Height,
		Positions: s.Layout.Positions(),
		Segments:  s.Segments,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return append(data, '\n'), nil
}

// artifactKey keys the output by descriptor content, render options and
// routing options.
func artifactKey(g *diagram.Graph, cfg *config.Config, opts renderOpts) (string, error) {
	doc, err := json.Marshal(g.Document())
	if err != nil {
		return "", fmt.Errorf("hash descriptor: %w", err)
	}
	fingerprint := fmt.Sprintf("%g/%g/%g/%t/%t", cfg.Route.LateralThreshold, cfg.Route.BusOffset,
		cfg.Route.StrokeWidth, opts.detailed, opts.flat)
	return cache.NewDefaultKeyer().ArtifactKey(cache.Hash(doc), cache.ArtifactKeyOpts{
		Format:  opts.kind + "/" + opts.format,
		Width:   cfg.Width,
		Legend:  opts.legend,
		Links:   opts.links,
		Options: fingerprint,
	}), nil
}

// cachedArtifact returns the cached bytes for key or computes and stores
// them. Cache failures are logged and otherwise ignored.
func cachedArtifact(ctx context.Context, store cache.Cache, key string, cfg *config.Config, fn func() ([]byte, error)) ([]byte, bool, error) {
	logger := loggerFromContext(ctx)
	if data, hit, err := store.Get(ctx, key); err != nil {
		logger.Warn("cache get failed", "err", err)
	} else if hit {
		return data, true, nil
	}

	data, err := fn()
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, data, cfg.Cache.TTL); err != nil {
		logger.Warn("cache set failed", "err", err)
	}
	return data, false, nil
}
