package route

import "github.com/matzehuels/portalmap/pkg/diagram"

// Strategy selects how edges between two layers are drawn.
type Strategy int

const (
	StrategyOrthogonal Strategy = iota
	StrategyBus
	StrategyStraight
)

func (s Strategy) String() string {
	switch s {
	case StrategyBus:
		return "bus"
	case StrategyStraight:
		return "straight"
	default:
		return "orthogonal"
	}
}

// BusPlacement selects the y coordinate of a bus.
type BusPlacement int

const (
	// BusMidpoint centers the bus between the lowest source bottom and the
	// highest destination top.
	BusMidpoint BusPlacement = iota
	// BusAboveDestination places the bus [Options.BusOffset] above the
	// destination layer, falling back to the midpoint when that would not
	// clear the sources.
	BusAboveDestination
)

// LayerPair keys routing rules.
type LayerPair struct {
	From diagram.Layer
	To   diagram.Layer
}

// Rule is the routing rule for one layer pair.
type Rule struct {
	Strategy Strategy
	Bus      BusPlacement
	Color    string
}

// Options configures a [Router].
type Options struct {
	LateralThreshold float64
	LateralOpacity   float64
	LateralColor     string
	DefaultColor     string
	BusOffset        float64
	StrokeWidth      float64
	Rules            map[LayerPair]Rule
}

const (
	ColorBlue    = "#0ea5e9"
	ColorGreen   = "#22c55e"
	ColorEmerald = "#10b981"
)

// DefaultOptions returns the options the landing page uses.
func DefaultOptions() Options {
	return Options{
		LateralThreshold: 50,
		LateralOpacity:   0.6,
		LateralColor:     ColorEmerald,
		DefaultColor:     ColorBlue,
		BusOffset:        15,
		StrokeWidth:      2,
		Rules: map[LayerPair]Rule{
			{diagram.LayerApplication, diagram.LayerGateway}: {Strategy: StrategyBus, Bus: BusAboveDestination, Color: ColorBlue},
			{diagram.LayerGateway, diagram.LayerMiddleware}:  {Strategy: StrategyBus, Bus: BusMidpoint, Color: ColorBlue},
			{diagram.LayerMiddleware, diagram.LayerBackend}:  {Strategy: StrategyBus, Bus: BusMidpoint, Color: ColorGreen},
		},
	}
}

// Option configures a Router.
type Option func(*Options)

// WithLateralThreshold sets the vertical center distance below which an
// edge is drawn as a lateral line.
func WithLateralThreshold(v float64) Option {
	return func(o *Options) { o.LateralThreshold = v }
}

// WithBusOffset sets the gap between a bus and its destination layer for
// [BusAboveDestination] rules.
func WithBusOffset(v float64) Option {
	return func(o *Options) { o.BusOffset = v }
}

// WithStrokeWidth sets the width of every segment.
func WithStrokeWidth(v float64) Option {
	return func(o *Options) { o.StrokeWidth = v }
}

// WithDefaultColor sets the color for edges that neither carry a color nor
// match a colored rule.
func WithDefaultColor(c string) Option {
	return func(o *Options) { o.DefaultColor = c }
}

// WithRule sets the rule for edges from one layer to another.
func WithRule(from, to diagram.Layer, r Rule) Option {
	return func(o *Options) {
		rules := make(map[LayerPair]Rule, len(o.Rules)+1)
		for k, v := range o.Rules {
			rules[k] = v
		}
		rules[LayerPair{from, to}] = r
		o.Rules = rules
	}
}

// WithoutRules removes every layer-pair rule, leaving lateral detection
// and the orthogonal fallback.
func WithoutRules() Option {
	return func(o *Options) { o.Rules = nil }
}

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}
