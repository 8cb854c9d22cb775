// Package route turns measured box positions and a list of edges into
// connector segments.
//
// Routing is a pure function of its inputs: the same positions and edges
// always produce the same segments in the same order. Edges whose endpoints
// have not been measured are skipped without error.
//
// # Strategies
//
// Each edge is classified once:
//
//   - Lateral: the endpoints' vertical centers differ by less than
//     [Options.LateralThreshold]. One horizontal line joins the facing sides,
//     drawn at reduced opacity.
//   - Otherwise the [Rule] registered for the (source layer, destination
//     layer) pair decides. [StrategyBus] merges every edge of the pair that
//     shares a color into one tree: a drop from each source, one horizontal
//     bus, a terminal into each destination. [StrategyStraight] draws a
//     single line. Pairs without a rule use [StrategyOrthogonal], a
//     three-run path through the vertical midpoint.
//
// Arrowheads always sit at the destination end.
package route
