package provider

import (
	"time"

	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/state"
)

// NotificationSource is the read side of the notification queue.
type NotificationSource interface {
	Current() (notification.Item, bool)
	Pending() int
}

// NotificationDetail is the visible notification.
type NotificationDetail struct {
	Item    notification.Item `json:"item"`
	Pending int               `json:"pending"`
}

// Notification is active while a queued item is visible.
type Notification struct {
	base
	queue NotificationSource
}

func NewNotification(q NotificationSource) *Notification {
	return &Notification{base: base{IDNotification, PriorityNotification}, queue: q}
}

func (p *Notification) Status() Status {
	item, ok := p.queue.Current()
	if !ok {
		return Status{}
	}
	return Status{
		HasActiveContent: true,
		WantsCompact:     true,
		Detail:           NotificationDetail{Item: item, Pending: p.queue.Pending()},
	}
}

// Timer is active while the countdown runs or is paused.
type Timer struct {
	base
	ch Reader[state.Timer]
}

func NewTimer(ch Reader[state.Timer]) *Timer {
	return &Timer{base: base{IDTimer, PriorityTimer}, ch: ch}
}

func (p *Timer) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: true}
	}
	active := s.Value.Phase == state.TimerRunning || s.Value.Phase == state.TimerPaused
	return Status{
		HasActiveContent: active,
		WantsCompact:     active,
		Stale:            s.Stale,
		Detail:           s.Value,
	}
}

// Pomodoro is active during any work or break interval.
type Pomodoro struct {
	base
	ch Reader[state.Pomodoro]
}

func NewPomodoro(ch Reader[state.Pomodoro]) *Pomodoro {
	return &Pomodoro{base: base{IDPomodoro, PriorityPomodoro}, ch: ch}
}

func (p *Pomodoro) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: true}
	}
	active := s.Value.Phase != state.PomodoroIdle && s.Value.Phase != ""
	return Status{
		HasActiveContent: active,
		WantsCompact:     active,
		Stale:            s.Stale,
		Detail:           s.Value,
	}
}

// Media is active while a player is playing.
type Media struct {
	base
	ch Reader[state.NowPlaying]
}

func NewMedia(ch Reader[state.NowPlaying]) *Media {
	return &Media{base: base{IDMedia, PriorityMedia}, ch: ch}
}

func (p *Media) Status() Status {
	s := p.ch.Read()
	if !s.Known || s.Value.Player == "" {
		return Status{Stale: s.Stale}
	}
	active := s.Value.Status == state.PlaybackPlaying
	return Status{
		HasActiveContent: active,
		WantsCompact:     active,
		Stale:            s.Stale,
		Detail:           s.Value,
	}
}

// MediaPlaceholder keeps a paused track available as the lowest-ranked
// compact candidate. It never forces the compact view on its own.
type MediaPlaceholder struct {
	base
	ch Reader[state.NowPlaying]
}

func NewMediaPlaceholder(ch Reader[state.NowPlaying]) *MediaPlaceholder {
	return &MediaPlaceholder{base: base{IDMediaPlaceholder, PriorityPlaceholder}, ch: ch}
}

func (p *MediaPlaceholder) Status() Status {
	s := p.ch.Read()
	if !s.Known || s.Value.Player == "" || !s.Value.HasTrack() {
		return Status{Stale: s.Stale}
	}
	active := s.Value.Status == state.PlaybackPaused
	return Status{
		HasActiveContent: active,
		Stale:            s.Stale,
		Detail:           s.Value,
	}
}

// CalendarDetail is the imminent event.
type CalendarDetail struct {
	Event    state.Event   `json:"event"`
	StartsIn time.Duration `json:"starts_in"`
}

// Calendar is active when the next event starts within the imminent window.
type Calendar struct {
	base
	ch     Reader[state.Calendar]
	now    func() time.Time
	window time.Duration
}

// DefaultImminentWindow is how far ahead an event counts as imminent.
const DefaultImminentWindow = 10 * time.Minute

func NewCalendar(ch Reader[state.Calendar], now func() time.Time, window time.Duration) *Calendar {
	if window <= 0 {
		window = DefaultImminentWindow
	}
	return &Calendar{base: base{IDCalendar, PriorityCalendar}, ch: ch, now: now, window: window}
}

// SetWindow changes the imminent window.
func (p *Calendar) SetWindow(d time.Duration) {
	if d > 0 {
		p.window = d
	}
}

func (p *Calendar) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale}
	}
	now := p.now()
	ev, ok := s.Value.Next(now)
	if !ok {
		return Status{Stale: s.Stale}
	}
	until := ev.Start.Sub(now)
	active := until >= 0 && until <= p.window
	st := Status{
		HasActiveContent: active,
		WantsCompact:     active,
		Stale:            s.Stale,
		Detail:           CalendarDetail{Event: ev, StartsIn: until},
	}
	return st
}
