// Package surface abstracts "something that has been laid out and can be
// measured".
//
// The position tracker never asks how boxes got where they are. It only
// needs a container rectangle, the list of tagged node ids and a rectangle
// per id, all in one coordinate space (the viewport). [Surface] captures
// exactly that.
//
// Two implementations are provided:
//
//   - [Flow] lays the diagram out itself, mimicking the page's flex layout
//     for a given [Viewport] width. It drives first paint, SVG export and
//     the terminal preview. [WebMetrics] and [TerminalMetrics] select pixel
//     or character-cell units.
//   - [Snapshot] wraps rectangles measured elsewhere, typically posted back
//     by the browser.
//
// [Viewport] carries the current size and notifies subscribers on resize.
// Subscriptions are scoped: [Viewport.OnResize] returns the function that
// removes them.
package surface
