package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/portalmap/pkg/canvas"
	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/render"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
)

// previewChrome is the number of rows taken by the header and status lines.
const previewChrome = 4

// previewCommand creates the preview command for the terminal view.
func (c *CLI) previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [descriptor]",
		Short: "Show the diagram in the terminal and follow resizes",
		Long: `Lay the diagram out in character cells and draw its connectors. The
canvas measures on start, once more after the settle delay and on every
terminal resize.

Keys: r re-measure, d detach/attach the container, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args)
		},
	}

	addSourceFlags(cmd.Flags())
	addRouteFlags(cmd.Flags())
	addTimingFlags(cmd.Flags())

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, args []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	g, _, err := c.loadGraph(ctx, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, err := newPreviewModel(ctx, g, 80, 24,
		append(cfg.CanvasOptions(), canvas.WithRouter(route.New(g, cfg.RouteOptions()...)))...)
	if err != nil {
		return err
	}
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

type frameMsg canvas.Frame

type settledMsg struct{}

// previewModel is the bubbletea model of the terminal preview. The canvas
// runs on its own event loop; frames reach the model through a channel.
type previewModel struct {
	graph    *diagram.Graph
	flow     *surface.Flow
	viewport *surface.Viewport
	canvas   *canvas.Canvas
	frames   chan canvas.Frame
	done     chan struct{}
	closed   sync.Once
	unsub    func()
	settle   time.Duration

	frame    canvas.Frame
	width    int
	height   int
	settling bool
	detached bool
}

// newPreviewModel mounts a canvas for g on a flow surface in cells. The
// canvas is unmounted when ctx is cancelled or close is called.
func newPreviewModel(ctx context.Context, g *diagram.Graph, cols, rows int, opts ...canvas.Option) (*previewModel, error) {
	vp := surface.NewViewport(float64(cols), float64(rows-previewChrome))
	flow := surface.NewFlow(g, surface.TerminalMetrics(), vp)
	cv := canvas.New(g, flow, vp, opts...)

	m := &previewModel{
		graph:    g,
		flow:     flow,
		viewport: vp,
		canvas:   cv,
		frames:   make(chan canvas.Frame, 1),
		done:     make(chan struct{}),
		width:    cols,
		height:   rows,
		settling: true,
	}
	o := canvas.Options{SettleDelay: canvas.DefaultSettleDelay}
	for _, opt := range opts {
		opt(&o)
	}
	m.settle = o.SettleDelay

	// The latest frame is read back from the canvas, so a full channel
	// only needs one pending notification.
	m.unsub = cv.Subscribe(func(f canvas.Frame) {
		select {
		case m.frames <- f:
		default:
		}
	})
	if err := cv.Mount(ctx); err != nil {
		m.unsub()
		return nil, err
	}
	m.frame = cv.Frame()
	return m, nil
}

// close unmounts the canvas and releases any pending waitForFrame. It may
// be called more than once.
func (m *previewModel) close() {
	m.closed.Do(func() {
		m.unsub()
		m.canvas.Unmount()
		close(m.done)
	})
}

func (m *previewModel) waitForFrame() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-m.frames:
			return frameMsg(f)
		case <-m.done:
			return nil
		}
	}
}

func (m *previewModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForFrame()}
	if m.settle > 0 {
		cmds = append(cmds, tea.Tick(m.settle, func(time.Time) tea.Msg { return settledMsg{} }))
	} else {
		m.settling = false
	}
	return tea.Batch(cmds...)
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.canvas.Remeasure()
		case "d":
			if m.detached {
				m.flow.Attach()
			} else {
				m.flow.Detach()
			}
			m.detached = !m.detached
			m.canvas.Remeasure()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Resize(float64(msg.Width), float64(max(msg.Height-previewChrome, 1)))
	case frameMsg:
		m.frame = m.canvas.Frame()
		return m, m.waitForFrame()
	case settledMsg:
		m.settling = false
	}
	return m, nil
}

func (m *previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.graph.Title()))
	if sub := m.graph.Subtitle(); sub != "" {
		b.WriteString("  " + StyleDim.Render(sub))
	}
	b.WriteString("\n\n")

	scene := render.Scene{Graph: m.graph, Layout: m.flow.Layout()}
	if m.frame.Viewport == m.viewport.Size() {
		scene.Segments = m.frame.Segments
	}
	b.WriteString(render.RenderText(scene))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *previewModel) statusLine() string {
	parts := []string{
		StyleHighlight.Render(m.frame.State.String()),
		fmt.Sprintf("pass %d", m.frame.Seq),
		fmt.Sprintf("%d segments", len(m.frame.Segments)),
		m.viewport.Size().String(),
	}
	if m.frame.Trigger != "" {
		parts = append(parts, "by "+string(m.frame.Trigger))
	}
	if m.settling {
		parts = append(parts, StyleWarning.Render("settling"))
	}
	if m.detached {
		parts = append(parts, StyleWarning.Render("detached"))
	}
	line := strings.Join(parts, StyleDim.Render(" · "))
	return line + "   " + legendLine() + "   " + StyleDim.Render("r re-measure · d detach · q quit")
}

// legendLine renders the layer legend as colored swatches.
func legendLine() string {
	items := make([]string, 0, len(render.Legend))
	for _, item := range render.Legend {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(item.Swatch.Fill)).Render("■")
		items = append(items, swatch+" "+StyleDim.Render(item.Label))
	}
	return strings.Join(items, " ")
}
