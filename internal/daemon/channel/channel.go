// Package channel keeps the latest known value of one live fact, reconciling
// polls, pushes and optimistic writes so that a stale observation never
// overwrites a newer one.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/loop"
)

// ErrNotWritable is returned by Write on a channel without a write capability.
var ErrNotWritable = errors.New("channel is not writable")

// Default timings used when a Config leaves them unset.
const (
	DefaultGraceWindow = 750 * time.Millisecond
	DefaultTimeout     = 2 * time.Second
	staleFactor        = 3
)

// Origin records how the current value arrived.
type Origin int

const (
	OriginNone Origin = iota
	OriginPush
	OriginPoll
	OriginWrite
)

func (o Origin) String() string {
	switch o {
	case OriginPush:
		return "push"
	case OriginPoll:
		return "poll"
	case OriginWrite:
		return "write"
	default:
		return "none"
	}
}

// Source is the read side of a capability. *capability.Resolver satisfies it.
type Source[V any] interface {
	Read(ctx context.Context) (V, capability.Result, error)
	Unavailable() bool
	Subscribe(fn func(V)) (capability.Subscription, error)
	Invalidate()
}

// Sink is the write side of a capability.
type Sink[V any] interface {
	Write(ctx context.Context, v V) (capability.Result, error)
	Unavailable() bool
}

// Observer receives reconciliation events. Polled is called off the loop.
type Observer interface {
	Applied(channel string, origin Origin)
	Dropped(channel string, reason string)
	Polled(channel string, elapsed time.Duration, err error)
}

// Config holds per-channel timing.
type Config struct {
	Name         string
	PollInterval time.Duration
	// StaleAfter defaults to three poll intervals.
	StaleAfter  time.Duration
	GraceWindow time.Duration
	Timeout     time.Duration
	Observer    Observer
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.StaleAfter <= 0 {
		c.StaleAfter = staleFactor * c.PollInterval
		if c.StaleAfter <= 0 {
			c.StaleAfter = staleFactor * time.Second
		}
	}
	if c.GraceWindow <= 0 {
		c.GraceWindow = DefaultGraceWindow
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Snapshot is a read of the channel at one instant.
type Snapshot[V any] struct {
	Value    V
	Known    bool
	Updated  time.Time
	Origin   Origin
	Stale    bool
	Pending  bool
	Seq      uint64
	Strategy string
}

// Option configures a Channel.
type Option[V any] func(*Channel[V])

// WithSink makes the channel writable.
func WithSink[V any](s Sink[V]) Option[V] {
	return func(c *Channel[V]) { c.sink = s }
}

// WithEqual sets the equality used to detect meaningful change.
func WithEqual[V any](eq func(a, b V) bool) Option[V] {
	return func(c *Channel[V]) { c.equal = eq }
}

type pendingWrite[V any] struct {
	value V
	gen   uint64
	timer loop.Timer
}

// writeOp is one backend write. gen is zero for a write issued while the
// capability was unavailable.
type writeOp[V any] struct {
	value V
	gen   uint64
}

// Channel caches one fact. Every method except New must be called on the
// loop goroutine.
type Channel[V any] struct {
	cfg    Config
	lp     loop.Loop
	src    Source[V]
	sink   Sink[V]
	equal  func(a, b V) bool
	logger *slog.Logger

	latest   V
	known    bool
	updated  time.Time
	origin   Origin
	strategy string
	stale    bool

	nextSeq uint64
	applied uint64

	pending    *pendingWrite[V]
	pendingGen uint64

	// At most one backend write is in flight; newer values coalesce here.
	writing bool
	queued  *writeOp[V]

	epoch     uint64
	sub       capability.Subscription
	polling   bool
	pollAgain bool
	tick      loop.Timer
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc

	listeners []func(Snapshot[V])
}

// New creates a stopped channel over src.
func New[V any](lp loop.Loop, cfg Config, src Source[V], opts ...Option[V]) *Channel[V] {
	cfg = cfg.withDefaults()
	c := &Channel[V]{
		cfg:    cfg,
		lp:     lp,
		src:    src,
		equal:  Structural[V],
		logger: cfg.Logger.With("channel", cfg.Name),
		stale:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the channel name.
func (c *Channel[V]) Name() string {
	return c.cfg.Name
}

// Writable reports whether a write capability is configured and has not
// been found unavailable.
func (c *Channel[V]) Writable() bool {
	return c.sink != nil && !c.sink.Unavailable()
}

// OnChange registers fn for every applied change and every stale flip.
func (c *Channel[V]) OnChange(fn func(Snapshot[V])) {
	c.listeners = append(c.listeners, fn)
}

// Start begins polling under ctx. The first poll is issued immediately.
func (c *Channel[V]) Start(ctx context.Context) {
	if c.running {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.poll()
	c.scheduleTick()
}

// Stop halts polling, drops the push subscription and cancels in-flight reads.
func (c *Channel[V]) Stop() {
	if !c.running {
		return
	}
	c.running = false
	c.epoch++
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
	c.clearPending()
	c.queued = nil
	c.closeSub()
	c.cancel()
}

// SetTiming changes poll interval, stale threshold and grace window.
// Zero values fall back to defaults.
func (c *Channel[V]) SetTiming(poll, staleAfter, grace time.Duration) {
	cfg := c.cfg
	cfg.PollInterval = poll
	cfg.StaleAfter = staleAfter
	cfg.GraceWindow = grace
	c.cfg = cfg.withDefaults()
	if c.running {
		if c.tick != nil {
			c.tick.Stop()
		}
		c.scheduleTick()
	}
	c.settle(false)
}

// Read returns the cached value. It never blocks.
func (c *Channel[V]) Read() Snapshot[V] {
	return Snapshot[V]{
		Value:    c.latest,
		Known:    c.known,
		Updated:  c.updated,
		Origin:   c.origin,
		Stale:    c.isStale(c.lp.Now()),
		Pending:  c.pending != nil,
		Seq:      c.applied,
		Strategy: c.strategy,
	}
}

// Write applies v optimistically and performs the backend write off the
// loop. Backend writes go out one at a time in call order; values written
// while one is in flight collapse to the newest. With the write capability
// unavailable the call is a silent no-op apart from a lazy re-resolution
// attempt.
func (c *Channel[V]) Write(v V) error {
	if c.sink == nil {
		return fmt.Errorf("%s: %w", c.cfg.Name, ErrNotWritable)
	}
	if c.sink.Unavailable() {
		c.enqueueWrite(writeOp[V]{value: v})
		return nil
	}

	c.nextSeq++
	c.applied = c.nextSeq
	changed := !c.known || !c.equal(c.latest, v)
	c.latest = v
	c.known = true
	c.updated = c.lp.Now()
	c.origin = OriginWrite

	c.clearPending()
	c.pendingGen++
	gen := c.pendingGen
	c.pending = &pendingWrite[V]{
		value: v,
		gen:   gen,
		timer: c.lp.After(c.cfg.GraceWindow, func() { c.expirePending(gen) }),
	}
	c.observeApplied(OriginWrite)
	c.settle(changed)

	c.enqueueWrite(writeOp[V]{value: v, gen: gen})
	return nil
}

// enqueueWrite sends op to the backend once the write in flight, if any,
// has completed. Only the newest queued value is kept.
func (c *Channel[V]) enqueueWrite(op writeOp[V]) {
	if c.writing {
		if c.queued != nil {
			c.observeDropped("coalesced")
		}
		c.queued = &op
		return
	}
	c.issueWrite(op)
}

func (c *Channel[V]) issueWrite(op writeOp[V]) {
	c.writing = true
	ctx, cancel := c.opContext()
	c.lp.Go(func() {
		defer cancel()
		_, err := c.sink.Write(ctx, op.value)
		c.lp.Post(func() { c.completeWrite(op, err) })
	})
}

func (c *Channel[V]) completeWrite(op writeOp[V], err error) {
	c.writing = false
	switch {
	case op.gen == 0:
		if err == nil {
			c.Refresh()
		}
	case err != nil:
		if !errors.Is(err, capability.ErrUnavailable) {
			c.logger.Warn("write failed", "error", err)
		}
		c.abandonPending(op.gen)
	}
	if next := c.queued; next != nil {
		c.queued = nil
		c.issueWrite(*next)
	}
}

// Refresh issues a poll now unless one is already in flight.
func (c *Channel[V]) Refresh() {
	if !c.running {
		return
	}
	if c.polling {
		c.pollAgain = true
		return
	}
	c.poll()
}

// Invalidate drops the current binding and push subscription, forces
// re-resolution and polls again.
func (c *Channel[V]) Invalidate() {
	c.epoch++
	c.closeSub()
	src := c.src
	if !c.running {
		c.lp.Go(src.Invalidate)
		return
	}
	c.polling = true
	c.lp.Go(func() {
		src.Invalidate()
		c.lp.Post(func() {
			c.polling = false
			c.poll()
		})
	})
}

func (c *Channel[V]) scheduleTick() {
	if c.cfg.PollInterval <= 0 {
		c.tick = nil
		return
	}
	c.tick = c.lp.After(c.cfg.PollInterval, func() {
		if !c.running {
			return
		}
		c.poll()
		c.scheduleTick()
	})
}

func (c *Channel[V]) opContext() (context.Context, context.CancelFunc) {
	parent := c.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, c.cfg.Timeout)
}

// poll stamps the sequence number at issue time, so a result that lands
// after a newer push or write is recognised as older.
func (c *Channel[V]) poll() {
	if c.polling {
		c.settle(false)
		return
	}
	c.polling = true
	c.nextSeq++
	seq, epoch := c.nextSeq, c.epoch
	ctx, cancel := c.opContext()
	c.lp.Go(func() {
		defer cancel()
		start := time.Now()
		v, res, err := c.src.Read(ctx)
		if c.cfg.Observer != nil {
			c.cfg.Observer.Polled(c.cfg.Name, time.Since(start), err)
		}
		c.lp.Post(func() { c.completePoll(seq, epoch, v, res, err) })
	})
}

func (c *Channel[V]) completePoll(seq, epoch uint64, v V, res capability.Result, err error) {
	c.polling = false
	again := c.pollAgain
	c.pollAgain = false

	switch {
	case epoch != c.epoch:
		c.observeDropped("epoch")
		if c.running {
			c.poll()
		}
		return
	case err != nil:
		if !errors.Is(err, capability.ErrUnavailable) && !errors.Is(err, context.Canceled) {
			c.logger.Debug("poll failed", "error", err)
		}
		c.settle(false)
	default:
		if res.Rebound {
			c.rebind(res.Strategy)
		}
		c.strategy = res.Strategy
		c.offer(seq, v, OriginPoll)
	}

	if again && c.running {
		c.poll()
	}
}

// rebind moves push delivery to the newly bound backend. Pushes from the
// previous binding carry an older epoch and are dropped.
func (c *Channel[V]) rebind(strategy string) {
	c.epoch++
	c.closeSub()
	if strategy != "" && c.strategy != "" && strategy != c.strategy {
		c.logger.Info("source rebound", "from", c.strategy, "to", strategy)
	}
	epoch := c.epoch
	c.lp.Go(func() {
		sub, err := c.src.Subscribe(func(v V) {
			c.lp.Post(func() { c.push(epoch, v) })
		})
		c.lp.Post(func() {
			if err != nil {
				if !errors.Is(err, capability.ErrUnsupported) {
					c.logger.Debug("subscribe failed", "error", err)
				}
				return
			}
			if epoch != c.epoch || !c.running {
				_ = sub.Close()
				return
			}
			c.sub = sub
		})
	})
}

func (c *Channel[V]) push(epoch uint64, v V) {
	if epoch != c.epoch || !c.running {
		c.observeDropped("epoch")
		return
	}
	c.nextSeq++
	c.offer(c.nextSeq, v, OriginPush)
}

func (c *Channel[V]) offer(seq uint64, v V, origin Origin) {
	if seq <= c.applied {
		c.observeDropped("superseded")
		c.settle(false)
		return
	}
	if c.pending != nil {
		if !c.equal(v, c.pending.value) {
			c.observeDropped("pending")
			c.settle(false)
			return
		}
		c.clearPending()
	}

	c.applied = seq
	c.updated = c.lp.Now()
	changed := !c.known || !c.equal(c.latest, v)
	if changed {
		c.latest = v
		c.known = true
		c.origin = origin
		c.observeApplied(origin)
	}
	c.settle(changed)
}

// settle recomputes staleness and notifies listeners on change or flip.
func (c *Channel[V]) settle(changed bool) {
	stale := c.isStale(c.lp.Now())
	if !changed && stale == c.stale {
		return
	}
	c.stale = stale
	snap := c.Read()
	for _, fn := range c.listeners {
		fn(snap)
	}
}

func (c *Channel[V]) isStale(now time.Time) bool {
	if !c.known || c.src.Unavailable() {
		return true
	}
	if c.pending != nil {
		return false
	}
	return now.Sub(c.updated) > c.cfg.StaleAfter
}

func (c *Channel[V]) expirePending(gen uint64) {
	if c.pending == nil || c.pending.gen != gen {
		return
	}
	c.pending = nil
	c.settle(false)
}

func (c *Channel[V]) abandonPending(gen uint64) {
	if c.pending == nil || c.pending.gen != gen {
		return
	}
	c.clearPending()
	c.Refresh()
}

func (c *Channel[V]) clearPending() {
	if c.pending == nil {
		return
	}
	if c.pending.timer != nil {
		c.pending.timer.Stop()
	}
	c.pending = nil
}

func (c *Channel[V]) closeSub() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Close(); err != nil {
		c.logger.Debug("closing subscription", "error", err)
	}
	c.sub = nil
}

func (c *Channel[V]) observeApplied(o Origin) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.Applied(c.cfg.Name, o)
	}
}

func (c *Channel[V]) observeDropped(reason string) {
	if c.cfg.Observer != nil {
		c.cfg.Observer.Dropped(c.cfg.Name, reason)
	}
}
