package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalmap/internal/config"
	"github.com/matzehuels/portalmap/internal/server"
	"github.com/matzehuels/portalmap/pkg/cache"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page with the live diagram",
		Long: `Serve the landing page. The browser measures the rendered boxes after
load, after the settle delay and on every resize, and the server routes the
connectors from those measurements.

With --watch the descriptor file is reloaded when it changes. A descriptor
that fails to load keeps the previous one live.`,
		Example: `  portalmap serve
  portalmap serve -d diagram.yaml --watch --addr :3000
  portalmap serve --cache redis --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", config.DefaultAddr, "listen address")
	f.Bool("watch", false, "reload the descriptor file when it changes")
	f.Float64("width", config.DefaultWidth, "first-paint viewport width (px)")
	addSourceFlags(f)
	addRouteFlags(f)
	addTimingFlags(f)
	addCacheFlags(f)

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	src, closeSrc, err := cfg.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer closeSrc()

	store, err := cache.Open(ctx, cfg.CacheConfig())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	var watchPath string
	if cfg.Watch {
		if cfg.Descriptor == "" {
			printWarning("--watch needs a descriptor file, hot reload disabled")
		} else {
			watchPath = cfg.Descriptor
		}
	}

	srv, err := server.New(ctx, server.Config{
		Source:         src,
		Cache:          store,
		TTL:            cfg.Cache.TTL,
		Logger:         logger,
		Width:          cfg.Width,
		SettleDelay:    cfg.SettleDelay,
		ResizeDebounce: cfg.ResizeDebounce,
		RouteOptions:   cfg.RouteOptions(),
		WatchPath:      watchPath,
	})
	if err != nil {
		return err
	}

	g := srv.Graph()
	printSuccess("Loaded %s", src)
	printStats(g.NodeCount(), g.EdgeCount(), len(g.DanglingEdges()))
	printKeyValue("Listening", serveURL(cfg.Addr))
	printKeyValue("Cache", cfg.Cache.Backend)
	if watchPath != "" {
		printKeyValue("Watching", watchPath)
	}
	printNewline()

	return srv.Serve(ctx, cfg.Addr)
}

// serveURL turns a listen address into a clickable URL.
func serveURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
