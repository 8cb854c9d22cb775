package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/portalmap/pkg/canvas"
	"github.com/matzehuels/portalmap/pkg/diagram"
)

const danglingDescriptor = `title: Test
nodes:
  - {id: web, label: Web, layer: application}
  - {id: gw, label: Gateway, layer: gateway}
edges:
  - {from: web, to: gw}
  - {from: gw, to: ghost}
`

// execute runs a fresh root command with args.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	_, err := executeOutput(t, args...)
	return err
}

// executeOutput runs a fresh root command and returns its status output.
func executeOutput(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"serve", "render", "validate", "preview", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		file string
		want string
	}{
		{"svg", []string{"-f", "svg"}, "out.svg", "<svg"},
		{"html", []string{"-f", "html"}, "out.html", `id="diagram"`},
		{"json", []string{"-f", "json"}, "out.json", `"segments"`},
		{"text", []string{"-f", "txt"}, "out.txt", "MyTMA"},
		{"dot", []string{"-t", "nodelink", "-f", "dot"}, "out.dot", "digraph G"},
		{"nested dir", []string{}, "nested/dir/out.svg", "</svg>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render"}, tt.args...)
			args = append(args, "-o", tt.file)
			if err := execute(t, args...); err != nil {
				t.Fatalf("render: %v", err)
			}
			data, err := os.ReadFile(tt.file)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
		})
	}
}

func TestRenderCommandDefaultOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := execute(t, "render"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat("diagram.svg"); err != nil {
		t.Errorf("default output not written: %v", err)
	}
}

func TestRenderCommandFileCache(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cacheDir := filepath.Join(dir, "cache")

	for i := 0; i < 2; i++ {
		if err := execute(t, "render", "--cache", "file", "--cache-dir", cacheDir, "-o", "out.svg"); err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("file cache is empty after render")
	}

	if err := execute(t, "cache", "clear", "--cache-dir", cacheDir); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
}

func TestRenderCommandRejectsBadFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := [][]string{
		{"render", "-f", "pdf"},
		{"render", "-t", "nodelink", "-f", "html"},
		{"render", "-t", "tower"},
	}
	for _, args := range tests {
		if err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestRenderCommandMissingDescriptor(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := execute(t, "render", "missing.yaml"); err == nil {
		t.Error("expected error for a missing descriptor")
	}
}

func TestValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile("diagram.yaml", []byte(danglingDescriptor), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := executeOutput(t, "validate", "diagram.yaml")
	if err != nil {
		t.Errorf("validate: %v", err)
	}
	for _, want := range []string{"Valid descriptor diagram.yaml", "1 dangling", "gw->ghost"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}
	if err := execute(t, "validate", "diagram.yaml", "--strict"); err == nil {
		t.Error("validate --strict should fail on a dangling edge")
	}
	if err := execute(t, "validate"); err != nil {
		t.Errorf("validate default descriptor: %v", err)
	}
}

func TestValidateCommandDuplicateNode(t *testing.T) {
	t.Chdir(t.TempDir())
	doc := `nodes:
  - {id: a, label: A, layer: application}
  - {id: a, label: B, layer: gateway}
`
	if err := os.WriteFile("dup.yaml", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "validate", "dup.yaml"); err == nil {
		t.Error("expected duplicate node error")
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := execute(t, "cache", "path", "--cache-dir", "somewhere"); err != nil {
		t.Errorf("cache path: %v", err)
	}
}

func TestServeURL(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:3000": "http://127.0.0.1:3000",
	}
	for addr, want := range tests {
		if got := serveURL(addr); got != want {
			t.Errorf("serveURL(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestConfigFlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	cmd, _, err := root.Find([]string{"validate"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags([]string{"--mongo-name", "staging"}); err != nil {
		t.Fatal(err)
	}
	cmd.SetContext(context.Background())
	if err := c.loadConfig(cmd); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.cfg.Mongo.Name != "staging" {
		t.Errorf("mongo.name = %q, want staging", c.cfg.Mongo.Name)
	}
	if c.cfg.Mongo.Database != "portalmap" {
		t.Errorf("mongo.database = %q, want the default", c.cfg.Mongo.Database)
	}
	if loggerFromContext(cmd.Context()) != c.Logger {
		t.Error("command context should carry the CLI logger")
	}
}

// =============================================================================
// Preview
// =============================================================================

func newTestPreview(t *testing.T) *previewModel {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	m, err := newPreviewModel(ctx, diagram.Default(), 100, 40, canvas.WithSettleDelay(0))
	if err != nil {
		cancel()
		t.Fatalf("newPreviewModel: %v", err)
	}
	t.Cleanup(func() {
		m.close()
		cancel()
	})
	return m
}

func TestPreviewModelMounted(t *testing.T) {
	m := newTestPreview(t)

	if m.frame.State != canvas.StateMeasured {
		t.Fatalf("state = %v, want measured", m.frame.State)
	}
	if len(m.frame.Segments) == 0 {
		t.Error("no segments after mount")
	}
	view := m.View()
	for _, want := range []string{"TMA", "MyTMA", "measured", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPreviewModelResize(t *testing.T) {
	m := newTestPreview(t)

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	if got := m.viewport.Size(); got.Width != 140 || got.Height != 50-previewChrome {
		t.Fatalf("viewport = %v", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.canvas.Frame().Viewport.Width != 140 {
		if time.Now().After(deadline) {
			t.Fatal("no frame for the resized viewport")
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Update(frameMsg(m.canvas.Frame()))
	if m.frame.Trigger != canvas.TriggerResize {
		t.Errorf("trigger = %q, want resize", m.frame.Trigger)
	}
}

func TestPreviewModelKeys(t *testing.T) {
	m := newTestPreview(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if !m.detached {
		t.Error("d should detach the container")
	}
	if !strings.Contains(m.View(), "detached") {
		t.Error("status line should show detached")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if m.detached {
		t.Error("second d should re-attach")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestPreviewModelCloseReleasesWait(t *testing.T) {
	m := newTestPreview(t)
	// Drain the notification left by mount so the wait blocks.
	select {
	case <-m.frames:
	default:
	}
	wait := m.waitForFrame()

	got := make(chan tea.Msg, 1)
	go func() { got <- wait() }()
	m.close()

	select {
	case msg := <-got:
		if msg != nil {
			t.Errorf("wait after close returned %T, want nil", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitForFrame still blocked after close")
	}
}

func TestPreviewModelSettle(t *testing.T) {
	m := newTestPreview(t)
	m.settle = 10 * time.Millisecond
	m.settling = true
	if m.Init() == nil {
		t.Fatal("Init should return a command")
	}
	m.Update(settledMsg{})
	if m.settling {
		t.Error("settledMsg should clear the settling flag")
	}
}
