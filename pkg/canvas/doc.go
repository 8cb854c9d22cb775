// Package canvas composes the diagram: it owns one diagram instance's
// tracker, drives measurement from mount, settle and resize triggers, and
// re-routes connectors after every successful measurement.
//
// # Lifecycle
//
//	Unmounted -> Mounted (no positions) -> Measured (M1) -> Measured (M2) ...
//
// [Canvas.Mount] starts one event-loop goroutine. Every trigger (the
// immediate mount pass, the settle timer, viewport resizes) is queued to
// that goroutine, so passes never overlap and measurement always completes
// before the routing that consumes it. [Canvas.Unmount] unsubscribes from
// the viewport, stops pending timers and joins the loop; callbacks that
// were already in flight are dropped.
//
// Each pass replaces the segment set wholesale and publishes a [Frame] to
// subscribers.
package canvas
