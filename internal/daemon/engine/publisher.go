package engine

import (
	"sync"

	"github.com/glance-io/glance/internal/models"
)

// publisher fans display payloads out to subscribers. Each subscriber holds
// at most one undelivered payload; a slow reader skips straight to the
// latest one.
type publisher struct {
	mu     sync.Mutex
	latest models.Display
	subs   map[uint64]chan models.Display
	nextID uint64
	closed bool
}

func newPublisher() *publisher {
	return &publisher{subs: make(map[uint64]chan models.Display)}
}

func (p *publisher) Latest() models.Display {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *publisher) Publish(d models.Display) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.latest = d
	for _, ch := range p.subs {
		offerLatest(ch, d)
	}
}

// Subscribe returns a channel primed with the current payload and a cancel
// func that closes it.
func (p *publisher) Subscribe() (<-chan models.Display, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan models.Display, 1)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	p.nextID++
	id := p.nextID
	p.subs[id] = ch
	if p.latest.Sequence > 0 {
		ch <- p.latest
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(ch)
			}
		})
	}
}

func (p *publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

// offerLatest replaces any undelivered payload in ch with d. Callers hold
// the publisher lock, so no other sender races the drain.
func offerLatest(ch chan models.Display, d models.Display) {
	select {
	case <-ch:
	default:
	}
	ch <- d
}
