package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry policy for an unavailable capability.
const (
	DefaultRetryInitial = 2 * time.Second
	DefaultRetryMax     = 5 * time.Minute
)

// Observer receives resolution events, typically for metrics.
type Observer interface {
	Bound(id ID, strategy string)
	Demoted(id ID, strategy string)
	Availability(id ID, available bool)
}

// Status is a point-in-time view of a resolver for diagnostics.
type Status struct {
	ID          ID        `json:"id"`
	Active      string    `json:"active,omitempty"`
	Unavailable bool      `json:"unavailable"`
	Candidates  []string  `json:"candidates"`
	Demoted     []string  `json:"demoted,omitempty"`
	Binds       int       `json:"binds"`
	LastError   string    `json:"last_error,omitempty"`
	NextRetry   time.Time `json:"next_retry,omitempty"`
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	now       func() time.Time
	retry     func() backoff.BackOff
	validator any
	observer  Observer
	logger    *slog.Logger
}

// WithClock overrides the time source used for retry scheduling.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetryPolicy sets the backoff used between lazy re-resolution attempts
// once a capability is unavailable. A policy returning backoff.Stop makes
// unavailability permanent.
func WithRetryPolicy(fn func() backoff.BackOff) Option {
	return func(o *options) { o.retry = fn }
}

// WithValidator rejects values that a backend returned without error but
// that are unusable, such as an empty device list where one was expected.
func WithValidator[V any](fn func(V) error) Option {
	return func(o *options) { o.validator = fn }
}

// WithObserver attaches an Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultRetryInitial
	b.MaxInterval = DefaultRetryMax
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

type entry[V any] struct {
	name    string
	rank    int
	backend Backend[V]
	probed  bool
	probeOK bool
	demoted bool
}

// Resolver binds one capability to the first working strategy.
//
// Operations hold the resolver's lock across backend I/O, so a capability
// never has two calls in flight. Callers on the loop goroutine must only
// use Unavailable and ID; everything else belongs on a worker.
type Resolver[V any] struct {
	id       ID
	mu       sync.Mutex
	entries  []*entry[V]
	active   int
	identity string
	binds    int
	lastErr  error

	unavailable atomic.Bool
	nextRetry   time.Time
	retry       backoff.BackOff

	validate func(V) error
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

// New creates a resolver over strategies, sorted by rank (stable).
// Prefer Register, which also enforces backend ownership.
func New[V any](id ID, strategies []Strategy[V], opts ...Option) *Resolver[V] {
	o := options{now: time.Now, retry: defaultRetry}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	sorted := make([]Strategy[V], len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	r := &Resolver[V]{
		id:       id,
		active:   -1,
		retry:    o.retry(),
		now:      o.now,
		observer: o.observer,
		logger:   o.logger.With("capability", string(id)),
	}
	if fn, ok := o.validator.(func(V) error); ok {
		r.validate = fn
	}
	for _, s := range sorted {
		r.entries = append(r.entries, &entry[V]{name: s.Backend.Name(), rank: s.Rank, backend: s.Backend})
	}
	if len(r.entries) == 0 {
		r.unavailable.Store(true)
		r.nextRetry = time.Time{}
	}
	return r
}

// ID returns the capability this resolver serves.
func (r *Resolver[V]) ID() ID {
	return r.id
}

// Unavailable reports whether every strategy has failed. Safe to call from
// any goroutine without blocking on I/O.
func (r *Resolver[V]) Unavailable() bool {
	return r.unavailable.Load()
}

// Read returns a value from the bound strategy, resolving or rebinding as
// needed within the same call.
func (r *Resolver[V]) Read(ctx context.Context) (V, Result, error) {
	var out V
	res, err := r.do(ctx, func(b Backend[V]) error {
		v, err := b.Read(ctx)
		if err != nil {
			return err
		}
		if r.validate != nil {
			if verr := r.validate(v); verr != nil {
				return fmt.Errorf("%w: %v", ErrEmpty, verr)
			}
		}
		out = v
		return nil
	})
	if err != nil {
		var zero V
		return zero, res, err
	}
	return out, res, nil
}

// Write applies v through the bound strategy, resolving or rebinding as
// needed within the same call.
func (r *Resolver[V]) Write(ctx context.Context, v V) (Result, error) {
	return r.do(ctx, func(b Backend[V]) error {
		return b.Write(ctx, v)
	})
}

// Subscribe registers fn with the bound strategy when it supports push.
func (r *Resolver[V]) Subscribe(fn func(V)) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 {
		return nil, ErrUnavailable
	}
	sub, ok := r.entries[r.active].backend.(Subscriber[V])
	if !ok {
		return nil, ErrUnsupported
	}
	return sub.Subscribe(fn)
}

// Invalidate drops the binding, all demotions, cached probes and retry
// backoff. The next access resolves from the top of the list.
func (r *Resolver[V]) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	r.retry.Reset()
	r.nextRetry = time.Time{}
	r.logger.Debug("capability invalidated")
}

// Active returns the bound strategy name.
func (r *Resolver[V]) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active < 0 {
		return "", false
	}
	return r.entries[r.active].name, true
}

// Status returns a diagnostic snapshot.
func (r *Resolver[V]) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		ID:          r.id,
		Unavailable: r.unavailable.Load(),
		Binds:       r.binds,
	}
	if r.active >= 0 {
		st.Active = r.entries[r.active].name
	}
	for _, e := range r.entries {
		st.Candidates = append(st.Candidates, e.name)
		if e.demoted {
			st.Demoted = append(st.Demoted, e.name)
		}
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	if st.Unavailable {
		st.NextRetry = r.nextRetry
	}
	return st
}

func (r *Resolver[V]) do(ctx context.Context, op func(Backend[V]) error) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.admitLocked() {
		return Result{}, ErrUnavailable
	}

	if r.active >= 0 && r.identityChangedLocked(ctx) {
		r.logger.Info("device identity changed, re-resolving", "strategy", r.entries[r.active].name)
		r.resetLocked()
	}

	if r.active >= 0 {
		e := r.entries[r.active]
		err := op(e.backend)
		if err == nil {
			return Result{Strategy: e.name}, nil
		}
		if ctx.Err() != nil {
			return Result{Strategy: e.name}, ctx.Err()
		}
		r.demoteLocked(r.active, err)
	}

	for i, e := range r.entries {
		if e.demoted || !r.probeLocked(ctx, e) {
			continue
		}
		if err := op(e.backend); err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			r.demoteLocked(i, err)
			continue
		}
		r.bindLocked(ctx, i)
		return Result{Strategy: e.name, Rebound: true}, nil
	}

	r.markUnavailableLocked()
	return Result{}, ErrUnavailable
}

// admitLocked decides whether an access may touch backends. While
// unavailable, one lazy attempt is allowed per backoff interval.
func (r *Resolver[V]) admitLocked() bool {
	if !r.unavailable.Load() {
		return true
	}
	if len(r.entries) == 0 {
		return false
	}
	if !r.nextRetry.IsZero() && r.now().Before(r.nextRetry) {
		return false
	}
	for _, e := range r.entries {
		e.demoted = false
		e.probed = false
	}
	return true
}

func (r *Resolver[V]) probeLocked(ctx context.Context, e *entry[V]) bool {
	if !e.probed {
		e.probeOK = e.backend.Probe(ctx)
		e.probed = true
		r.logger.Debug("probed strategy", "strategy", e.name, "ok", e.probeOK)
	}
	return e.probeOK
}

func (r *Resolver[V]) identityChangedLocked(ctx context.Context) bool {
	idf, ok := r.entries[r.active].backend.(Identifier)
	if !ok {
		return false
	}
	current, err := idf.Identity(ctx)
	if err != nil {
		return false
	}
	return current != r.identity
}

func (r *Resolver[V]) demoteLocked(i int, err error) {
	e := r.entries[i]
	e.demoted = true
	if r.active == i {
		r.active = -1
		r.identity = ""
	}
	for _, other := range r.entries {
		if !other.demoted {
			other.probed = false
		}
	}
	terr := &TransientError{Capability: r.id, Strategy: e.name, Err: err}
	r.lastErr = terr
	if errors.Is(err, ErrUnsupported) {
		r.logger.Debug("strategy does not support operation", "strategy", e.name)
	} else {
		r.logger.Warn("strategy failed, demoting", "strategy", e.name, "error", terr)
	}
	if r.observer != nil {
		r.observer.Demoted(r.id, e.name)
	}
}

func (r *Resolver[V]) bindLocked(ctx context.Context, i int) {
	e := r.entries[i]
	r.active = i
	r.binds++
	r.identity = ""
	if idf, ok := e.backend.(Identifier); ok {
		if id, err := idf.Identity(ctx); err == nil {
			r.identity = id
		}
	}
	r.retry.Reset()
	r.nextRetry = time.Time{}
	if r.unavailable.Swap(false) && r.observer != nil {
		r.observer.Availability(r.id, true)
	}
	r.logger.Info("capability bound", "strategy", e.name, "rank", e.rank)
	if r.observer != nil {
		r.observer.Bound(r.id, e.name)
	}
}

func (r *Resolver[V]) markUnavailableLocked() {
	r.active = -1
	wait := r.retry.NextBackOff()
	if wait == backoff.Stop {
		r.nextRetry = time.Unix(1<<62, 0)
	} else {
		r.nextRetry = r.now().Add(wait)
	}
	if !r.unavailable.Swap(true) {
		r.logger.Warn("capability unavailable", "candidates", len(r.entries), "retry_in", wait)
		if r.observer != nil {
			r.observer.Availability(r.id, false)
		}
	}
}

func (r *Resolver[V]) resetLocked() {
	r.active = -1
	r.identity = ""
	for _, e := range r.entries {
		e.demoted = false
		e.probed = false
	}
}
