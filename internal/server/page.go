package server

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/matzehuels/portalmap/pkg/render"
)

//go:embed assets
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "assets/page.html.tmpl"))

type feature struct {
	Title string
	Text  string
}

var features = []feature{
	{"Workspace management", "Create and govern organizational workspaces from one place, with per-tenant isolation."},
	{"Application onboarding", "Register applications once and expose them through the enterprise API gateway."},
	{"Service integrations", "Connect middleware and platform services with documented, versioned APIs."},
	{"Reporting", "Follow usage and adoption across applications and services."},
}

type pageData struct {
	Title          string
	Subtitle       string
	Scene          render.Scene
	SettleDelay    time.Duration
	ResizeDebounce time.Duration
}

func (p pageData) Diagram() template.HTML {
	return template.HTML(render.HTML(p.Scene))
}

func (p pageData) SettleMillis() int64 { return p.SettleDelay.Milliseconds() }

func (p pageData) DebounceMillis() int64 { return p.ResizeDebounce.Milliseconds() }

func (p pageData) Features() []feature { return features }

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(assets, "assets/static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
