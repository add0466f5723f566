// Package notification implements the transient alert queue: FIFO, at most
// one item visible, auto-dismiss, and a short gap between consecutive items.
package notification

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glance-io/glance/internal/daemon/loop"
)

// Defaults used when Config leaves a duration unset.
const (
	DefaultGap     = 300 * time.Millisecond
	DefaultDismiss = 4 * time.Second
)

// Phase is the queue's display state.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseVisible
	PhaseGap
)

func (p Phase) String() string {
	switch p {
	case PhaseVisible:
		return "visible"
	case PhaseGap:
		return "gap"
	default:
		return "empty"
	}
}

// Payload is what the rendering shell shows.
type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Source string `json:"source,omitempty"`
}

// Item is one queued notification.
type Item struct {
	ID               string        `json:"id"`
	Payload          Payload       `json:"payload"`
	CreatedAt        time.Time     `json:"created_at"`
	AutoDismissAfter time.Duration `json:"auto_dismiss_after"`
	ShownAt          time.Time     `json:"shown_at,omitempty"`
}

// Config holds queue timing.
type Config struct {
	Gap            time.Duration
	DefaultDismiss time.Duration
	Logger         *slog.Logger
}

// Queue must only be used from the loop goroutine.
type Queue struct {
	lp      loop.Loop
	gap     time.Duration
	dismiss time.Duration
	logger  *slog.Logger

	waiting []Item
	current Item
	phase   Phase

	// gen identifies the live timer; a timer whose gen no longer matches
	// belongs to a finished transition and does nothing.
	gen   uint64
	timer loop.Timer

	listeners []func()
}

// New creates an empty queue.
func New(lp loop.Loop, cfg Config) *Queue {
	q := &Queue{lp: lp}
	q.SetTiming(cfg.Gap, cfg.DefaultDismiss)
	q.logger = cfg.Logger
	if q.logger == nil {
		q.logger = slog.Default()
	}
	q.logger = q.logger.With("component", "notifications")
	return q
}

// SetTiming changes the gap and default auto-dismiss durations for items
// that have not been shown yet. A zero gap selects DefaultGap; a negative
// one disables the gap.
func (q *Queue) SetTiming(gap, defaultDismiss time.Duration) {
	if gap < 0 {
		gap = 0
	} else if gap == 0 {
		gap = DefaultGap
	}
	if defaultDismiss <= 0 {
		defaultDismiss = DefaultDismiss
	}
	q.gap = gap
	q.dismiss = defaultDismiss
}

// OnChange registers fn for every phase or item change.
func (q *Queue) OnChange(fn func()) {
	q.listeners = append(q.listeners, fn)
}

// Enqueue appends p and returns the new item's ID. It never preempts the
// visible item. A non-positive autoDismissAfter uses the default.
func (q *Queue) Enqueue(p Payload, autoDismissAfter time.Duration) string {
	if autoDismissAfter <= 0 {
		autoDismissAfter = q.dismiss
	}
	item := Item{
		ID:               uuid.NewString(),
		Payload:          p,
		CreatedAt:        q.lp.Now(),
		AutoDismissAfter: autoDismissAfter,
	}
	q.waiting = append(q.waiting, item)
	q.logger.Debug("notification queued", "id", item.ID, "source", p.Source, "pending", len(q.waiting))

	if q.phase == PhaseEmpty {
		q.showNext()
		return item.ID
	}
	q.notify()
	return item.ID
}

// DismissCurrent hides the visible item. It reports whether one was visible.
func (q *Queue) DismissCurrent() bool {
	if q.phase != PhaseVisible {
		return false
	}
	q.logger.Debug("notification dismissed", "id", q.current.ID)
	q.finish()
	return true
}

// Current returns the visible item.
func (q *Queue) Current() (Item, bool) {
	if q.phase != PhaseVisible {
		return Item{}, false
	}
	return q.current, true
}

// Pending returns the number of items waiting behind the visible one.
func (q *Queue) Pending() int {
	return len(q.waiting)
}

// Phase returns the display state.
func (q *Queue) Phase() Phase {
	return q.phase
}

// Close stops any outstanding timer.
func (q *Queue) Close() {
	q.gen++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Queue) showNext() {
	item := q.waiting[0]
	q.waiting[0] = Item{}
	q.waiting = q.waiting[1:]
	item.ShownAt = q.lp.Now()

	q.current = item
	q.phase = PhaseVisible
	id, gen := item.ID, q.arm()
	q.timer = q.lp.After(item.AutoDismissAfter, func() { q.expire(id, gen) })
	q.notify()
}

func (q *Queue) expire(id string, gen uint64) {
	if gen != q.gen || q.phase != PhaseVisible || q.current.ID != id {
		return
	}
	q.finish()
}

func (q *Queue) finish() {
	q.current = Item{}
	q.phase = PhaseGap
	gen := q.arm()
	q.notify()
	if q.gap == 0 {
		q.endGap(gen)
		return
	}
	q.timer = q.lp.After(q.gap, func() { q.endGap(gen) })
}

func (q *Queue) endGap(gen uint64) {
	if gen != q.gen || q.phase != PhaseGap {
		return
	}
	if len(q.waiting) > 0 {
		q.showNext()
		return
	}
	q.phase = PhaseEmpty
	q.timer = nil
	q.notify()
}

// arm cancels the outstanding timer and returns a fresh generation.
func (q *Queue) arm() uint64 {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.gen++
	return q.gen
}

func (q *Queue) notify() {
	for _, fn := range q.listeners {
		fn()
	}
}
