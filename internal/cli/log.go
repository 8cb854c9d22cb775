// Package cli implements the portalmap command-line interface.
//
// The commands load a diagram descriptor, lay it out and route its
// connectors, then serve, export or preview the result. The CLI is built
// using cobra, reads its settings through internal/config and logs with
// charmbracelet/log.
//
// # Commands
//
//   - serve: Serve the landing page with the live diagram
//   - render: Export the diagram as SVG, HTML, JSON, DOT or text
//   - validate: Check a descriptor and report dangling edges
//   - preview: Show the diagram in the terminal and follow resizes
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// registers logging observability hooks for layout and cache events.
// Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/portalmap/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered diagram.svg (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks writes layout and cache events to the debug log.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnMeasured(nodes int) {
	h.logger.Debug("measured", "nodes", nodes)
}

func (h logHooks) OnMeasureSkipped() {
	h.logger.Debug("measure skipped", "reason", "container detached")
}

func (h logHooks) OnRouted(edges, segments int, d time.Duration) {
	h.logger.Debug("routed", "edges", edges, "segments", segments, "took", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// registerLogHooks routes layout and cache events to l. HTTP requests are
// already logged by the server middleware.
func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetLayoutHooks(h)
	observability.SetCacheHooks(h)
}
