package canvas

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/portalmap/pkg/diagram"
	"github.com/matzehuels/portalmap/pkg/geom"
	"github.com/matzehuels/portalmap/pkg/observability"
	"github.com/matzehuels/portalmap/pkg/route"
	"github.com/matzehuels/portalmap/pkg/surface"
	"github.com/matzehuels/portalmap/pkg/tracker"
)

// ErrAlreadyMounted is returned by [Canvas.Mount] on a mounted canvas.
var ErrAlreadyMounted = errors.New("canvas already mounted")

// DefaultSettleDelay is how long after mount the settle pass runs.
const DefaultSettleDelay = 200 * time.Millisecond

// queueSize bounds pending triggers. Passes rebuild everything, so a
// trigger dropped on a full queue is covered by the one already queued.
const queueSize = 32

// State is the lifecycle state of a canvas.
type State int

const (
	StateUnmounted State = iota
	StateMounted
	StateMeasured
)

func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateMeasured:
		return "measured"
	default:
		return "unmounted"
	}
}

// Trigger names what caused a pass.
type Trigger string

const (
	TriggerMount  Trigger = "mount"
	TriggerSettle Trigger = "settle"
	TriggerResize Trigger = "resize"
	TriggerManual Trigger = "manual"
)

// Frame is one published state of the canvas.
type Frame struct {
	Seq       uint64
	State     State
	Trigger   Trigger
	Viewport  surface.Size
	Positions geom.PositionMap
	Segments  []route.Segment
}

// Options configures a Canvas.
type Options struct {
	SettleDelay    time.Duration
	ResizeDebounce time.Duration
	Router         *route.Router
	Logger         *log.Logger
}

// Option configures a Canvas.
type Option func(*Options)

// WithSettleDelay sets the delay of the one-shot settle pass. Zero or a
// negative value disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Options) { o.SettleDelay = d }
}

// WithResizeDebounce coalesces resize events that arrive within d.
// Zero, the default, measures on every resize.
func WithResizeDebounce(d time.Duration) Option {
	return func(o *Options) { o.ResizeDebounce = d }
}

// WithRouter replaces the default router.
func WithRouter(r *route.Router) Option {
	return func(o *Options) { o.Router = r }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

type task struct {
	trigger Trigger
	done    chan struct{}
}

// session holds everything tied to one mount.
type session struct {
	queue chan task
	stop  chan struct{}
	loop  sync.WaitGroup

	mu          sync.Mutex
	unsubscribe func()
	settle      *time.Timer
	debounce    *time.Timer
}

// enqueue hands a trigger to the loop without blocking. It reports false
// once the session is stopped or the queue is full.
func (s *session) enqueue(t task) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.queue <- t:
		return true
	case <-s.stop:
		return false
	default:
		return false
	}
}

// Canvas is one mounted diagram instance.
type Canvas struct {
	id       string
	viewport *surface.Viewport
	tracker  *tracker.Tracker
	router   *route.Router
	edges    []diagram.Edge
	opts     Options
	logger   *log.Logger

	mu      sync.Mutex
	sess    *session
	frame   Frame
	subs    map[int]func(Frame)
	subIDs  []int
	nextSub int
}

// New returns an unmounted canvas for g laid out on s. Resize events come
// from vp.
func New(g *diagram.Graph, s surface.Surface, vp *surface.Viewport, opts ...Option) *Canvas {
	o := Options{SettleDelay: DefaultSettleDelay}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Router == nil {
		o.Router = route.New(g)
	}
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	id := uuid.NewString()
	return &Canvas{
		id:       id,
		viewport: vp,
		tracker:  tracker.New(s),
		router:   o.Router,
		edges:    g.Edges(),
		opts:     o,
		logger:   logger.With("canvas", id[:8]),
		frame:    Frame{Positions: geom.PositionMap{}},
		subs:     make(map[int]func(Frame)),
	}
}

// ID returns the canvas instance id.
func (c *Canvas) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Canvas) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame.State
}

// Frame returns the latest frame.
func (c *Canvas) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Subscribe registers fn to receive every published frame. The mounted frame
// is delivered on the goroutine calling [Canvas.Mount], before Mount returns;
// all later frames are delivered on the canvas event loop. fn must not call
// [Canvas.Unmount].
func (c *Canvas) Subscribe(fn func(Frame)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subIDs = append(c.subIDs, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			for i, s := range c.subIDs {
				if s == id {
					c.subIDs = append(c.subIDs[:i:i], c.subIDs[i+1:]...)
					break
				}
			}
		})
	}
}

// Mount starts the event loop, subscribes to viewport resizes, runs the
// first pass and arms the settle timer. It returns once the first pass has
// completed. Cancelling ctx unmounts the canvas.
func (c *Canvas) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	sess := &session{
		queue: make(chan task, queueSize),
		stop:  make(chan struct{}),
	}
	c.sess = sess
	c.frame = Frame{
		Seq:       c.frame.Seq + 1,
		State:     StateMounted,
		Trigger:   TriggerMount,
		Viewport:  c.viewport.Size(),
		Positions: geom.PositionMap{},
	}
	mounted := c.frame
	subs := c.subscribers()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(mounted)
	}

	sess.mu.Lock()
	sess.unsubscribe = c.viewport.OnResize(func(surface.Size) { c.onResize(sess) })
	sess.mu.Unlock()

	sess.loop.Add(1)
	go c.run(sess)

	go func() {
		select {
		case <-ctx.Done():
			c.unmount(sess)
		case <-sess.stop:
		}
	}()

	done := make(chan struct{})
	if !sess.enqueue(task{trigger: TriggerMount, done: done}) {
		return ctx.Err()
	}
	select {
	case <-done:
	case <-sess.stop:
		return ctx.Err()
	}

	if d := c.opts.SettleDelay; d > 0 {
		sess.mu.Lock()
		sess.settle = time.AfterFunc(d, func() {
			sess.enqueue(task{trigger: TriggerSettle})
		})
		sess.mu.Unlock()
	}
	c.logger.Debug("mounted", "viewport", mounted.Viewport, "settle", c.opts.SettleDelay)
	return nil
}

// Remeasure queues an extra pass. It is a no-op on an unmounted canvas.
func (c *Canvas) Remeasure() bool {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return false
	}
	return sess.enqueue(task{trigger: TriggerManual})
}

// Unmount stops the canvas. It is safe to call more than once, but must not
// be called from a frame subscriber.
func (c *Canvas) Unmount() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess != nil {
		c.unmount(sess)
	}
}

func (c *Canvas) unmount(sess *session) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	c.sess = nil
	c.mu.Unlock()

	sess.mu.Lock()
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	if sess.settle != nil {
		sess.settle.Stop()
	}
	if sess.debounce != nil {
		sess.debounce.Stop()
	}
	sess.mu.Unlock()

	close(sess.stop)
	sess.loop.Wait()

	c.mu.Lock()
	c.frame = Frame{Seq: c.frame.Seq + 1, State: StateUnmounted, Positions: geom.PositionMap{}}
	c.mu.Unlock()
	c.logger.Debug("unmounted")
}

func (c *Canvas) onResize(sess *session) {
	d := c.opts.ResizeDebounce
	if d <= 0 {
		sess.enqueue(task{trigger: TriggerResize})
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.debounce != nil {
		sess.debounce.Stop()
	}
	sess.debounce = time.AfterFunc(d, func() {
		sess.enqueue(task{trigger: TriggerResize})
	})
}

// run is the event loop. Tasks queued before a stop are dropped.
func (c *Canvas) run(sess *session) {
	defer sess.loop.Done()
	for {
		select {
		case <-sess.stop:
			return
		case t := <-sess.queue:
			select {
			case <-sess.stop:
				return
			default:
			}
			c.pass(t.trigger)
			if t.done != nil {
				close(t.done)
			}
		}
	}
}

// pass measures, routes and publishes.
func (c *Canvas) pass(trigger Trigger) {
	positions, ok := c.tracker.MeasureAll()
	if !ok {
		c.logger.Debug("container detached, skipping pass", "trigger", trigger)
		return
	}

	start := time.Now()
	segments := c.router.Route(positions, c.edges)
	observability.Layout().OnRouted(len(c.edges), len(segments), time.Since(start))

	c.mu.Lock()
	c.frame = Frame{
		Seq:       c.frame.Seq + 1,
		State:     StateMeasured,
		Trigger:   trigger,
		Viewport:  c.viewport.Size(),
		Positions: positions,
		Segments:  segments,
	}
	frame := c.frame
	subs := c.subscribers()
	c.mu.Unlock()

	c.logger.Debug("measured", "trigger", trigger, "nodes", len(positions), "segments", len(segments))
	for _, fn := range subs {
		fn(frame)
	}
}

// subscribers must be called with c.mu held.
func (c *Canvas) subscribers() []func(Frame) {
	out := make([]func(Frame), 0, len(c.subIDs))
	for _, id := range c.subIDs {
		out = append(out, c.subs[id])
	}
	return out
}
