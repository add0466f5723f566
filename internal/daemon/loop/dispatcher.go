package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultWorkers bounds concurrent off-loop backend calls.
const DefaultWorkers = 8

// Dispatcher is the production Loop: one goroutine drains an unbounded FIFO
// of posted callbacks, and a bounded pool runs blocking work.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool

	sem     chan struct{}
	workers sync.WaitGroup
	runDone chan struct{}

	stopOnce sync.Once
	started  bool
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher with the given worker limit.
func NewDispatcher(workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		sem:     make(chan struct{}, workers),
		runDone: make(chan struct{}),
		logger:  logger.With("component", "loop"),
	}
}

// Start runs the loop goroutine until ctx is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	go d.run(ctx)
}

// Stop halts the loop and waits for in-flight workers to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()
		close(d.done)
	})
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if started {
		<-d.runDone
	}
	d.workers.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.runDone)
	for {
		select {
		case <-ctx.Done():
			d.stopOnce.Do(func() {
				d.mu.Lock()
				d.stopped = true
				d.mu.Unlock()
				close(d.done)
			})
			return
		case <-d.done:
			return
		case <-d.wake:
			d.drain()
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 || d.stopped {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.invoke(fn)
	}
}

func (d *Dispatcher) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("loop callback panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post queues fn to run on the loop goroutine. Posting after Stop is a no-op.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// After posts fn to the loop once d has elapsed.
func (d *Dispatcher) After(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, func() { d.Post(fn) })
}

// Go runs fn on a worker, blocking for a free slot in a separate goroutine
// so the caller never waits.
func (d *Dispatcher) Go(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.workers.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.workers.Done()
		select {
		case d.sem <- struct{}{}:
		case <-d.done:
			return
		}
		defer func() { <-d.sem }()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("worker panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}

// Now returns wall-clock time.
func (d *Dispatcher) Now() time.Time {
	return time.Now()
}
