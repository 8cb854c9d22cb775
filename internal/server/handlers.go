package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/portalmap/pkg/cache"
	perrors "github.com/matzehuels/portalmap/pkg/errors"
	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/render"
	"github.com/matzehuels/portalmap/pkg/render/nodelink"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
	"github.com/matzehuels/portalmap/pkg/tracker"
)

const (
	maxBodyBytes = 1 << 20
	maxWidth     = 8192
	pageHeight   = 900
)

// routeRequest carries rectangles measured by the browser, relative to the
// diagram container.
type routeRequest struct {
	Positions geom.PositionMap `json:"positions"`
	Width     float64          `json:"width,omitempty"`
	Height    float64          `json:"height,omitempty"`
}

type routeResponse struct {
	Segments []route.Segment `json:"segments"`
	Measured int             `json:"measured"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	width, err := widthParam(r, s.cfg.Width)
	if err != nil {
		writeError(w, err)
		return
	}
	st := s.current.Load()
	scene := render.Build(st.graph, s.metrics, width, pageHeight, s.cfg.RouteOptions...)

	var buf bytes.Buffer
	if err := renderPage(&buf, pageData{
		Title:          st.graph.Title(),
		Subtitle:       st.graph.Subtitle(),
		Scene:          scene,
		SettleDelay:    s.cfg.SettleDelay,
		ResizeDebounce: s.cfg.ResizeDebounce,
	}); err != nil {
		writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	width, err := widthParam(r, s.cfg.Width)
	if err != nil {
		writeError(w, err)
		return
	}
	st := s.current.Load()
	key := s.keyer.ArtifactKey(st.hash, cache.ArtifactKeyOpts{
		Format:  "svg",
		Width:   width,
		Legend:  true,
		Links:   true,
		Options: routeFingerprint(st.router.Options()),
	})

	w.Header().Set("Content-Type", "image/svg+xml")
	if data, hit, err := s.cache.Get(r.Context(), key); err != nil {
		s.logger.Warn("cache get failed", "key", key, "err", err)
	} else if hit {
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(data)
		return
	}

	scene := render.Build(st.graph, s.metrics, width, pageHeight, s.cfg.RouteOptions...)
	svg := render.RenderSVG(scene, render.WithLegend(), render.WithLinks())
	if err := s.cache.Set(r.Context(), key, svg, s.cfg.TTL); err != nil {
		s.logger.Warn("cache set failed", "key", key, "err", err)
	}
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(svg)
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	dot := nodelink.ToDOT(s.Graph(), nodelink.Options{Clusters: true})
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = io.WriteString(w, dot)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Graph().Document())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.current.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"nodes":  st.graph.NodeCount(),
		"edges":  st.graph.EdgeCount(),
		"loaded": st.loaded.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRouteRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	segs, n := s.route(req)
	if segs == nil {
		segs = []route.Segment{}
	}
	writeJSON(w, http.StatusOK, routeResponse{Segments: segs, Measured: n})
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRouteRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	segs, _ := s.route(req)
	width, height := req.Width, req.Height
	if width <= 0 || height <= 0 {
		b := req.Positions.Bounds()
		width, height = b.Right(), b.Bottom()
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(render.Overlay(width, height, segs))
}

// route runs one measurement pass over the posted rectangles and routes
// the live descriptor's edges through them. Rectangles for ids the live
// descriptor does not declare are dropped, so edges to them stay unrouted.
func (s *Server) route(req routeRequest) ([]route.Segment, int) {
	st := s.current.Load()
	known := make(geom.PositionMap, len(req.Positions))
	for id, r := range req.Positions {
		if _, ok := st.graph.Node(id); ok {
			known[id] = r
		}
	}
	positions, _ := tracker.New(surface.NewSnapshot(known)).MeasureAll()
	segs := st.router.Route(positions, st.graph.Edges())
	s.logger.Debug("routed", "measured", len(positions), "segments", len(segs))
	return segs, len(positions)
}

func decodeRouteRequest(r *http.Request) (routeRequest, error) {
	var req routeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request body")
	}
	if req.Positions == nil {
		return req, perrors.New(perrors.ErrCodeInvalidInput, "positions is required")
	}
	return req, nil
}

func widthParam(r *http.Request, def float64) (float64, error) {
	raw := r.URL.Query().Get("width")
	if raw == "" {
		return def, nil
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || w <= 0 || w > maxWidth {
		return 0, perrors.New(perrors.ErrCodeInvalidInput, "width must be a number in (0, %d]", maxWidth)
	}
	return w, nil
}

func routeFingerprint(o route.Options) string {
	return strconv.FormatFloat(o.LateralThreshold, 'g', -1, 64) + "/" +
		strconv.FormatFloat(o.BusOffset, 'g', -1, 64) + "/" +
		strconv.FormatFloat(o.StrokeWidth, 'g', -1, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = string(perrors.GetCode(err))
	if body.Error.Code == "" {
		body.Error.Code = string(perrors.ErrCodeInternal)
	}
	body.Error.Message = perrors.UserMessage(err)
	var pe *perrors.Error
	if !errors.As(err, &pe) {
		body.Error.Message = "internal error"
	}
	writeJSON(w, perrors.HTTPStatus(err), body)
}
