package presence

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sender is the connection surface the coalescer dispatches through.
type Sender interface {
	Send(ctx context.Context, p Payload)
	State() ConnectionState
	Connect(ctx context.Context) error
}

// PayloadBuilder maps a track onto a payload.
type PayloadBuilder interface {
	Build(ctx context.Context, t Track) Payload
}

// LastUpdate records the most recently dispatched update.
type LastUpdate struct {
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	Position float64   `json:"position"`
	Playing  bool      `json:"isPlaying"`
	SentAt   time.Time `json:"sentAt"`
}

// CoalescerOptions tune suppression and debouncing.
type CoalescerOptions struct {
	Debounce     time.Duration
	Tolerance    time.Duration
	LazyCooldown time.Duration
	Logger       zerolog.Logger
}

const (
	defaultDebounce     = 100 * time.Millisecond
	defaultTolerance    = 2 * time.Second
	defaultLazyCooldown = 5 * time.Second
)

// Coalescer suppresses near-duplicate playback updates and debounces bursts
// into a single dispatch.
type Coalescer struct {
	ctx     context.Context
	sender  Sender
	builder PayloadBuilder
	opts    CoalescerOptions
	logger  zerolog.Logger

	mu         sync.Mutex
	last       *LastUpdate
	current    *Track
	currentAt  time.Time
	pending    Track
	timer      *time.Timer
	seq        uint64
	dispatched uint64
	closed     bool
	observers  []func(Track, Payload)

	// sendMu keeps transmissions in dispatch order.
	sendMu sync.Mutex

	lazyBusy atomic.Bool
	lazyAt   atomic.Int64
}

// NewCoalescer returns a Coalescer whose background work runs under ctx.
func NewCoalescer(ctx context.Context, sender Sender, builder PayloadBuilder, opts CoalescerOptions) *Coalescer {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaultTolerance
	}
	if opts.LazyCooldown <= 0 {
		opts.LazyCooldown = defaultLazyCooldown
	}
	return &Coalescer{
		ctx:     ctx,
		sender:  sender,
		builder: builder,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// Notify records a playback state change. It never blocks on I/O.
func (c *Coalescer) Notify(t Track) {
	if c.sender.State() == Disconnected {
		c.connectLazily()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	current := t
	c.current = &current
	c.currentAt = time.Now()

	if c.suppressLocked(t) {
		// The newest state matches what is already shown, so anything still
		// waiting on the timer is stale.
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
			c.seq++
		}
		return
	}

	c.seq++
	seq := c.seq
	c.pending = t
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.flush(seq) })
}

// Last returns the most recently dispatched update.
func (c *Coalescer) Last() (LastUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return LastUpdate{}, false
	}
	return *c.last, true
}

// Current returns the most recently reported track, dispatched or not, and
// when it was reported.
func (c *Coalescer) Current() (Track, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Track{}, time.Time{}, false
	}
	return *c.current, c.currentAt, true
}

// OnDispatch registers fn to run after each dispatched update.
func (c *Coalescer) OnDispatch(fn func(Track, Payload)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Close cancels any pending update.
func (c *Coalescer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coalescer) suppressLocked(t Track) bool {
	last := c.last
	if last == nil || !t.Playing || !last.Playing {
		return false
	}
	if t.Title != last.Title || t.Artist != last.Artist {
		return false
	}
	return math.Abs(t.Position-last.Position) < c.opts.Tolerance.Seconds()
}

func (c *Coalescer) flush(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	t := c.pending
	c.timer = nil
	c.mu.Unlock()

	payload := c.builder.Build(c.ctx, t)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if seq <= c.dispatched {
		c.mu.Unlock()
		c.logger.Debug().Uint64("seq", seq).Msg("discarding superseded presence update")
		return
	}
	c.dispatched = seq
	c.mu.Unlock()

	c.sender.Send(c.ctx, payload)

	c.mu.Lock()
	c.last = &LastUpdate{
		Title:    t.Title,
		Artist:   t.Artist,
		Position: t.Position,
		Playing:  t.Playing,
		SentAt:   time.Now(),
	}
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(t, payload)
	}
}

// connectLazily starts a background Connect, at most once per cooldown.
func (c *Coalescer) connectLazily() {
	now := time.Now().UnixNano()
	if now-c.lazyAt.Load() < int64(c.opts.LazyCooldown) {
		return
	}
	if !c.lazyBusy.CompareAndSwap(false, true) {
		return
	}
	c.lazyAt.Store(now)
	go func() {
		defer c.lazyBusy.Store(false)
		if err := c.sender.Connect(c.ctx); err != nil {
			c.logger.Debug().Err(err).Msg("lazy presence connect failed")
		}
	}()
}
