// Package pkg provides the libraries behind portalmap, a layout and
// connector-routing engine for layered architecture diagrams.
//
// # Overview
//
// A diagram is a declarative descriptor of boxes in four layers
// (applications, gateway, middleware, backends) and the edges between
// them. The boxes are laid out by a surface, their rectangles are measured,
// and the connectors are routed from those measurements:
//
//	descriptor (yaml, json, toml, MongoDB)
//	         ↓
//	    [diagram] package (validated graph)
//	         ↓
//	    [surface] package (flow layout, or browser snapshots)
//	         ↓
//	    [tracker] package (measure node rectangles)
//	         ↓
//	    [route] package (drops, buses, laterals, straight edges)
//	         ↓
//	    [render] package (HTML, SVG overlay, text)
//
// [canvas] ties measurement and routing to a mount lifecycle: a pass on
// mount, a settle pass shortly after and one per viewport resize.
//
// # Quick Start
//
//	g := diagram.Default()
//	scene := render.Build(g, surface.WebMetrics(), 1280, 900)
//	svg := render.RenderSVG(scene, render.WithLegend())
//
// # Supporting Packages
//
//   - [geom]: rectangles, points and the position map
//   - [source]: descriptor sources (file, embedded default, MongoDB)
//   - [cache]: artifact cache (file, redis)
//   - [errors]: structured error codes
//   - [observability]: layout, cache and HTTP hooks
//   - [buildinfo]: version information
package pkg
