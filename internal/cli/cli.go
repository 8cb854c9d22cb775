package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/portalmap/internal/config"
	"github.com/matzehuels/portalmap/pkg/buildinfo"
	"github.com/matzehuels/portalmap/pkg/canvas"
	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "portalmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfgFile string
	cfg     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Portalmap lays out layered architecture diagrams and routes their connectors",
		Long: `Portalmap renders a layered architecture diagram (applications, gateway,
middleware, backends) from a descriptor file and draws the connectors between
the boxes from their measured positions. Serve it as a landing page, export it
as SVG, HTML, DOT or text, or preview it in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default "+config.DefaultFile+" when present)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig merges the config layers for cmd and attaches the logger to
// the command context.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Verbose {
		c.SetLogLevel(LogDebug)
	}
	if c.Logger.GetLevel() <= LogDebug {
		registerLogHooks(c.Logger)
	}
	if cfg.File != "" {
		c.Logger.Debug("config loaded", "file", cfg.File)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// config returns the loaded configuration, falling back to defaults when a
// command runs without the root pre-run.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.cfgFile, nil)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// addSourceFlags registers the descriptor source flags.
func addSourceFlags(f *pflag.FlagSet) {
	f.StringP("descriptor", "d", "", "diagram descriptor file (.yaml, .json or .toml)")
	f.String("mongo-uri", "", "load the descriptor from MongoDB instead of a file")
	f.String("mongo-name", "", "descriptor name in MongoDB (default \"default\")")
}

// addRouteFlags registers the connector routing flags.
func addRouteFlags(f *pflag.FlagSet) {
	ro := route.DefaultOptions()
	f.Float64("lateral-threshold", ro.LateralThreshold, "horizontal distance (px) beyond which same-layer edges become lateral")
	f.Float64("bus-offset", ro.BusOffset, "distance (px) of the bus below the source row")
	f.Float64("stroke-width", ro.StrokeWidth, "connector stroke width (px)")
}

// addCacheFlags registers the artifact cache flags.
func addCacheFlags(f *pflag.FlagSet) {
	f.String("cache", "none", "artifact cache backend: none, file or redis")
	f.String("cache-dir", "", "file cache directory")
	f.Duration("cache-ttl", config.DefaultCacheTTL, "artifact cache TTL")
	f.String("redis-addr", "", "redis address for the redis cache backend")
}

// addTimingFlags registers the canvas timing flags.
func addTimingFlags(f *pflag.FlagSet) {
	f.Duration("settle-delay", canvas.DefaultSettleDelay, "delay of the one-shot re-measure after mount")
	f.Duration("resize-debounce", 0, "coalesce resize events arriving within this window")
}

// =============================================================================
// Descriptor Loading
// =============================================================================

// loadGraph loads the descriptor named by args[0], or the configured
// source when args is empty.
func (c *CLI) loadGraph(ctx context.Context, args []string) (*diagram.Graph, source.Source, error) {
	base, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	cfg := *base
	if len(args) > 0 {
		cfg.Descriptor = args[0]
		cfg.Mongo.URI = ""
	}

	src, closeSrc, err := cfg.OpenSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer closeSrc()

	g, err := src.Load(ctx)
	if err != nil {
		return nil, src, fmt.Errorf("load %s: %w", src, err)
	}
	return g, src, nil
}
