// Package engine orchestrates the viewports: it consumes protocol messages
// and user commands on one goroutine, mutates the viewport collection,
// starts asynchronous loads and publishes immutable snapshots of the result.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/wethinkt/go-niiview/internal/fetch"
	"github.com/wethinkt/go-niiview/internal/host"
	"github.com/wethinkt/go-niiview/internal/layout"
	"github.com/wethinkt/go-niiview/internal/nav4d"
	"github.com/wethinkt/go-niiview/internal/prefs"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/render"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/selection"
	"github.com/wethinkt/go-niiview/internal/signal"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/viewport"
	"github.com/wethinkt/go-niiview/internal/viewsync"
)

// ErrIndexOutOfRange is returned by commands naming a missing viewport.
var ErrIndexOutOfRange = viewport.ErrIndexOutOfRange

// DefaultHideUI shows every piece of viewport chrome.
const DefaultHideUI = 3

// sendTimeout bounds a single outbound Send.
const sendTimeout = 5 * time.Second

// Fetcher resolves payloads that carry only a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Options configure an Engine. Zero values pick working defaults: a
// discarding bridge, the headless decoder and renderer, the default fetch
// client, no persistence and the real clock.
type Options struct {
	Bridge    host.Bridge
	Decoder   viewport.Decoder
	Renderer  func() viewport.Renderer
	Fetcher   Fetcher
	Prefs     prefs.Store
	Clock     nav4d.Clock
	Interval  time.Duration // 4D playback period
	Policy    viewsync.Policy
	Axes      viewsync.Axes // zero means both
	Container layout.Size
}

// Engine is the viewport orchestrator. All exported methods are safe for
// concurrent use; they enqueue work for the loop and return immediately.
type Engine struct {
	bridge   host.Bridge
	decoder  viewport.Decoder
	fetcher  Fetcher
	store    prefs.Store
	clock    nav4d.Clock
	interval time.Duration

	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	inflight sync.WaitGroup

	// Everything below is owned by the goroutine draining the queue.
	ctx       context.Context
	coll      *viewport.Collection
	sel       *selection.Model
	syncer    *viewsync.Syncer
	settings  prefs.Settings
	sliceType scene.SliceType
	hideUI    int
	container layout.Size
	canvas    layout.Grid
	location  string
	deferred  map[viewport.Key][]protocol.Message
	loading   map[viewport.Key]int
	dirty     map[viewport.Key]bool
	redrawAll bool
	ready     readyState

	state *signal.Value[Snapshot]
}

// New creates an engine. Settings are loaded from opts.Prefs when set.
func New(opts Options) *Engine {
	e := &Engine{
		bridge:    opts.Bridge,
		decoder:   opts.Decoder,
		fetcher:   opts.Fetcher,
		store:     opts.Prefs,
		interval:  opts.Interval,
		wake:      make(chan struct{}, 1),
		ctx:       context.Background(),
		sel:       selection.New(),
		syncer:    viewsync.New(opts.Policy),
		settings:  prefs.Default(),
		sliceType: scene.Multiplanar,
		hideUI:    DefaultHideUI,
		container: opts.Container,
		deferred:  make(map[viewport.Key][]protocol.Message),
		loading:   make(map[viewport.Key]int),
		dirty:     make(map[viewport.Key]bool),
	}
	if e.bridge == nil {
		e.bridge = host.Discard{}
	}
	if e.decoder == nil {
		e.decoder = render.NewDecoder()
	}
	if e.fetcher == nil {
		e.fetcher = fetch.New()
	}
	newRenderer := opts.Renderer
	if newRenderer == nil {
		newRenderer = render.NewHeadless()
	}
	e.coll = viewport.NewCollection(newRenderer)

	inner := opts.Clock
	if inner == nil {
		inner = nav4d.RealClock{}
	}
	e.clock = loopClock{e: e, inner: inner}

	if opts.Axes != 0 {
		e.syncer.Axes = opts.Axes
	}
	if e.store != nil {
		s, err := prefs.Load(context.Background(), e.store)
		if err != nil {
			tuilog.Log.Warn("engine: loading preferences failed, using defaults", "error", err)
		}
		e.settings = s
	}

	e.relayout()
	e.state = signal.New(e.snapshot())
	return e
}

// loopClock runs timer callbacks on the engine loop instead of the timer
// goroutine.
type loopClock struct {
	e     *Engine
	inner nav4d.Clock
}

func (c loopClock) Every(d time.Duration, fn func()) func() {
	return c.inner.Every(d, func() { c.e.enqueue(fn) })
}

// enqueue appends fn to the queue. It never blocks.
func (e *Engine) enqueue(fn func()) {
	e.mu.Lock()
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// async runs fn off the loop and tracks it for Flush.
func (e *Engine) async(fn func()) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		fn()
	}()
}

func (e *Engine) take() []func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.queue
	e.queue = nil
	return q
}

// drain runs every queued event, publishing once per event that ran.
func (e *Engine) drain() bool {
	ran := false
	for {
		q := e.take()
		if len(q) == 0 {
			return ran
		}
		for _, fn := range q {
			e.safe(fn)
			e.safe(e.commit)
			ran = true
		}
	}
}

// safe runs one event, recovering a panicking handler so the loop survives.
func (e *Engine) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.Inc()
			tuilog.Log.Error("engine: handler panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Run consumes the queue until ctx is cancelled, then releases every
// viewport. It must not run concurrently with Flush or another Run.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx
	e.enqueue(e.listenerReady)
	defer func() {
		e.coll.Close()
		viewportsGauge.Set(0)
	}()

	for {
		e.drain()
		select {
		case <-ctx.Done():
			return nil
		case <-e.wake:
		}
	}
}

// Flush processes queued events on the calling goroutine until the queue is
// empty and no load or fetch is still running. It is meant for hosts that
// never call Run, and for tests.
func (e *Engine) Flush() {
	for {
		e.drain()
		e.inflight.Wait()

		e.mu.Lock()
		empty := len(e.queue) == 0
		e.mu.Unlock()
		if empty {
			return
		}
	}
}

// State returns the latest snapshot.
func (e *Engine) State() Snapshot {
	s, _ := e.state.Get()
	return s
}

// Subscribe returns a channel of snapshots, starting with the current one.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	return e.state.Subscribe()
}

// Post enqueues a decoded message.
func (e *Engine) Post(m protocol.Message) {
	e.enqueue(func() { e.route(m) })
}

// PostEnvelope validates env and enqueues it. Invalid envelopes are logged
// and dropped.
func (e *Engine) PostEnvelope(env protocol.Envelope) {
	m, err := env.Message()
	if err != nil {
		e.rejected(string(env.Type), err)
		return
	}
	e.Post(m)
}

// Receive decodes raw JSON from a host and enqueues it.
func (e *Engine) Receive(data []byte) {
	m, err := protocol.Decode(data)
	if err != nil {
		e.rejected("", err)
		return
	}
	e.Post(m)
}

func (e *Engine) rejected(kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	messagesTotal.WithLabelValues(kind, "invalid").Inc()
	tuilog.Log.Debug("engine: dropping message", "kind", kind, "error", err)
}

// send delivers env to the host. Failures become a host notification and
// leave the collection untouched.
func (e *Engine) send(env protocol.Envelope) {
	ctx, cancel := context.WithTimeout(e.ctx, sendTimeout)
	defer cancel()
	if err := e.bridge.Send(ctx, env); err != nil {
		tuilog.Log.Warn("engine: send failed", "type", env.Type, "error", err)
		e.bridge.Notify(protocol.LevelError, fmt.Sprintf("niiview: could not send %s: %v", env.Type, err))
	}
}

// touch marks in for redraw at the end of the current event.
func (e *Engine) touch(in *viewport.Instance) {
	e.dirty[in.Key] = true
}

// commit redraws what the last event changed and publishes a snapshot.
func (e *Engine) commit() {
	if e.relayout() {
		e.redrawAll = true
	}
	for _, in := range e.coll.All() {
		if !e.redrawAll && !e.dirty[in.Key] {
			continue
		}
		if !in.Loaded {
			continue
		}
		if err := in.Draw(e.sliceType, e.canvas.Cell); err != nil {
			tuilog.Log.Warn("engine: draw failed", "key", in.Key, "error", err)
		}
	}
	clear(e.dirty)
	e.redrawAll = false
	viewportsGauge.Set(float64(e.coll.Len()))
	e.state.Set(e.snapshot())
}

// relayout recomputes the grid from the first volume's geometry and reports
// whether it changed.
func (e *Engine) relayout() bool {
	var hdr *scene.Header
	if e.coll.Len() > 0 {
		first, _ := e.coll.At(0)
		if len(first.Scene.Volumes) > 0 {
			hdr = &first.Scene.Volumes[0].Header
		}
	}
	aspect := layout.AspectRatio(hdr, e.sliceType)
	grid := layout.Plan(e.coll.Len(), aspect, e.container, layout.DefaultGap)
	changed := grid != e.canvas
	e.canvas = grid
	return changed
}
