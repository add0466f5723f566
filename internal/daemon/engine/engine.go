// Package engine is the daemon core. It owns every state channel, the
// notification queue, the content providers and the presentation machine,
// and turns them into one display payload.
//
// All state lives on the loop goroutine. Exported methods are safe to call
// from any goroutine except the loop itself; they post work to the loop and
// never block on backend I/O.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/channel"
	"github.com/glance-io/glance/internal/daemon/loop"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/presentation"
	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/daemon/state"
	"github.com/glance-io/glance/internal/daemon/timer"
	"github.com/glance-io/glance/internal/models"
)

// ErrStopped is returned by synchronous calls after Stop.
var ErrStopped = errors.New("engine stopped")

// housekeepingInterval re-runs arbitration for time-dependent providers
// such as the calendar, whose channel value does not change as an event
// approaches.
const housekeepingInterval = 15 * time.Second

// Config holds everything the core is built from.
type Config struct {
	Settings *models.Settings
	Version  string
	Logger   *slog.Logger

	CapabilityObserver capability.Observer
	ChannelObserver    channel.Observer
	// CapabilityOptions are applied to every resolver after the defaults.
	CapabilityOptions []capability.Option
}

// trackedChannel is the type-erased view of a channel the core manages.
type trackedChannel struct {
	name       string
	start      func(ctx context.Context)
	stop       func()
	setTiming  func(poll, staleAfter, grace time.Duration)
	invalidate func()
	status     func() models.ChannelStatus
}

// Core is the single engine instance of a process.
type Core struct {
	lp        loop.Loop
	logger    *slog.Logger
	version   string
	startedAt time.Time
	settings  *models.Settings

	registry *capability.Registry
	mediaCmd *capability.Resolver[state.MediaCommand]

	// Transport commands waiting for the one in flight.
	mediaQueue []state.MediaCommand
	mediaBusy  bool

	volume     *channel.Channel[float64]
	brightness *channel.Channel[float64]
	nowPlaying *channel.Channel[state.NowPlaying]
	battery    *channel.Channel[state.Battery]
	network    *channel.Channel[state.Network]
	bluetooth  *channel.Channel[state.Bluetooth]
	privacy    *channel.Channel[state.Privacy]
	focus      *channel.Channel[state.Focus]
	calendar   *channel.Channel[state.Calendar]
	health     *channel.Channel[state.Health]
	timerCh    *channel.Channel[state.Timer]
	pomodoroCh *channel.Channel[state.Pomodoro]
	channels   []trackedChannel

	countdown *timer.Countdown
	pomodoro  *timer.Pomodoro

	queue     *notification.Queue
	providers []provider.Provider
	batteryP  *provider.Battery
	healthP   *provider.Health
	calendarP *provider.Calendar
	machine   *presentation.Machine

	events eventState

	dirty    bool
	seq      uint64
	last     models.Display
	pub      *publisher
	ctx      context.Context
	cancel   context.CancelFunc
	house    loop.Timer
	running  bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// New builds a stopped core. Every resolver is registered up front, so a
// backend listed under two capabilities is reported here.
func New(lp loop.Loop, backends Backends, cfg Config) (*Core, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = models.NewSettings()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaults := []capability.Option{capability.WithClock(lp.Now), capability.WithLogger(logger)}
	if cfg.CapabilityObserver != nil {
		defaults = append(defaults, capability.WithObserver(cfg.CapabilityObserver))
	}
	defaults = append(defaults, cfg.CapabilityOptions...)

	c := &Core{
		lp:        lp,
		logger:    logger.With("component", "engine"),
		version:   cfg.Version,
		startedAt: lp.Now(),
		settings:  settings,
		registry:  capability.NewRegistry(defaults...),
		countdown: timer.NewCountdown(),
		pomodoro:  timer.NewPomodoro(pomodoroConfig(settings.Pomodoro)),
		pub:       newPublisher(),
		stopped:   make(chan struct{}),
	}

	b := &builder{core: c, observer: cfg.ChannelObserver, logger: logger}
	validLevel := capability.WithValidator(func(v float64) error {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("level %v out of range", v)
		}
		return nil
	})

	volRead := register(b, capability.VolumeRead, backends.VolumeRead, validLevel)
	volWrite := register(b, capability.VolumeWrite, backends.VolumeWrite)
	brRead := register(b, capability.BrightnessRead, backends.BrightnessRead, validLevel)
	brWrite := register(b, capability.BrightnessWrite, backends.BrightnessWrite)
	npRead := register(b, capability.NowPlayingRead, backends.NowPlayingRead)
	c.mediaCmd = register(b, capability.NowPlayingCommand, backends.NowPlayingCommand)
	batRead := register(b, capability.BatteryRead, backends.BatteryRead)
	netRead := register(b, capability.NetworkRead, backends.NetworkRead)
	btRead := register(b, capability.BluetoothRead, backends.BluetoothRead)
	privRead := register(b, capability.PrivacyRead, backends.PrivacyRead)
	focusRead := register(b, capability.FocusRead, backends.FocusRead)
	focusWrite := register(b, capability.FocusWrite, backends.FocusWrite)
	calRead := register(b, capability.CalendarRead, backends.CalendarRead)
	healthRead := register(b, capability.HealthRead, backends.HealthRead)
	timerRead := register(b, capability.TimerRead, []capability.Strategy[state.Timer]{
		{Backend: timer.NewCountdownBackend(c.countdown, lp.Now)},
	})
	pomoRead := register(b, capability.PomodoroRead, []capability.Strategy[state.Pomodoro]{
		{Backend: timer.NewPomodoroBackend(c.pomodoro, lp.Now)},
	})
	if b.err != nil {
		return nil, b.err
	}

	numeric := channel.WithEqual(channel.Numeric(channel.DefaultEpsilon))
	c.volume = track(b, models.ChannelVolume, volRead, numeric, channel.WithSink[float64](volWrite))
	c.brightness = track(b, models.ChannelBrightness, brRead, numeric, channel.WithSink[float64](brWrite))
	c.nowPlaying = track[state.NowPlaying](b, models.ChannelNowPlaying, npRead)
	c.battery = track[state.Battery](b, models.ChannelBattery, batRead)
	c.network = track[state.Network](b, models.ChannelNetwork, netRead)
	c.bluetooth = track[state.Bluetooth](b, models.ChannelBluetooth, btRead)
	c.privacy = track[state.Privacy](b, models.ChannelPrivacy, privRead)
	c.focus = track(b, models.ChannelFocus, focusRead, channel.WithSink[state.Focus](focusWrite))
	c.calendar = track[state.Calendar](b, models.ChannelCalendar, calRead)
	c.health = track[state.Health](b, models.ChannelHealth, healthRead)
	c.timerCh = track[state.Timer](b, models.ChannelTimer, timerRead)
	c.pomodoroCh = track[state.Pomodoro](b, models.ChannelPomodoro, pomoRead)

	c.queue = notification.New(lp, notification.Config{
		Gap:            settings.Notifications.Gap,
		DefaultDismiss: settings.Notifications.DefaultDismiss,
		Logger:         logger,
	})
	c.queue.OnChange(c.changed)

	th := thresholds(settings.Thresholds)
	c.batteryP = provider.NewBattery(c.battery, th)
	c.healthP = provider.NewHealth(c.health, th)
	c.calendarP = provider.NewCalendar(c.calendar, lp.Now, settings.Calendar.ImminentWindow)
	c.providers = []provider.Provider{
		provider.NewNotification(c.queue),
		provider.NewTimer(c.timerCh),
		provider.NewPomodoro(c.pomodoroCh),
		provider.NewMedia(c.nowPlaying),
		c.calendarP,
		c.batteryP,
		provider.NewMediaPlaceholder(c.nowPlaying),
		c.healthP,
		provider.NewPrivacy(c.privacy),
		provider.NewBluetooth(c.bluetooth),
		provider.NewNetwork(c.network),
		provider.NewFocus(c.focus),
	}

	c.machine = presentation.New(lp, settings.Presentation.HoverExitDebounce, c.wantsCompact, logger)
	c.machine.OnTransition(func(from, to presentation.State) { c.changed() })

	c.timerCh.OnChange(c.onTimer)
	c.pomodoroCh.OnChange(c.onPomodoro)
	c.battery.OnChange(c.onBattery)
	c.bluetooth.OnChange(c.onBluetooth)
	return c, nil
}

type builder struct {
	core     *Core
	observer channel.Observer
	logger   *slog.Logger
	err      error
}

func register[V any](b *builder, id capability.ID, strategies []capability.Strategy[V], opts ...capability.Option) *capability.Resolver[V] {
	r, err := capability.Register(b.core.registry, id, strategies, opts...)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("registering %s: %w", id, err)
		}
		return capability.New[V](id, nil)
	}
	return r
}

func track[V any](b *builder, name string, src channel.Source[V], opts ...channel.Option[V]) *channel.Channel[V] {
	c := b.core
	p := c.settings.Polling.Get(name)
	ch := channel.New(c.lp, channel.Config{
		Name:         name,
		PollInterval: p.Interval,
		StaleAfter:   p.StaleAfter,
		GraceWindow:  p.Grace,
		Observer:     b.observer,
		Logger:       b.logger,
	}, src, opts...)
	ch.OnChange(func(channel.Snapshot[V]) { c.changed() })
	c.channels = append(c.channels, trackedChannel{
		name:       name,
		start:      ch.Start,
		stop:       ch.Stop,
		setTiming:  ch.SetTiming,
		invalidate: ch.Invalidate,
		status: func() models.ChannelStatus {
			s := ch.Read()
			return models.ChannelStatus{
				Name:     name,
				Known:    s.Known,
				Stale:    s.Stale,
				Origin:   s.Origin.String(),
				Strategy: s.Strategy,
				Updated:  s.Updated,
				Seq:      s.Seq,
			}
		},
	})
	return ch
}

// Start begins polling every channel and publishes the first payload.
func (c *Core) Start(ctx context.Context) {
	c.lp.Post(func() {
		if c.running {
			return
		}
		c.running = true
		c.ctx, c.cancel = context.WithCancel(ctx)
		for _, ch := range c.channels {
			ch.start(c.ctx)
		}
		c.logger.Info("engine started", "channels", len(c.channels))
		c.scheduleHousekeeping()
		c.changed()
	})
}

// Stop halts every channel and timer and closes subscriber streams. It
// waits for the loop to process the request or for ctx to end.
func (c *Core) Stop(ctx context.Context) error {
	err := c.call(ctx, func() {
		if !c.running {
			return
		}
		c.running = false
		for _, ch := range c.channels {
			ch.stop()
		}
		if c.house != nil {
			c.house.Stop()
			c.house = nil
		}
		c.queue.Close()
		c.machine.Close()
		c.cancel()
		c.logger.Info("engine stopped")
	})
	c.stopOnce.Do(func() {
		close(c.stopped)
		c.pub.Close()
	})
	return err
}

// Display returns the latest published payload.
func (c *Core) Display() models.Display {
	return c.pub.Latest()
}

// Subscribe streams display payloads. The channel is closed by cancel or
// by Stop.
func (c *Core) Subscribe() (<-chan models.Display, func()) {
	return c.pub.Subscribe()
}

// Status reports per-capability resolution and per-channel freshness.
func (c *Core) Status(ctx context.Context) (models.DaemonStatus, error) {
	var st models.DaemonStatus
	err := c.call(ctx, func() {
		st = models.DaemonStatus{
			Version:   c.version,
			StartedAt: c.startedAt,
			Queue:     c.queue.Pending(),
		}
		if _, ok := c.queue.Current(); ok {
			st.Queue++
		}
		for _, ch := range c.channels {
			st.Channels = append(st.Channels, ch.status())
		}
	})
	if err != nil {
		return st, err
	}
	// Resolver status takes the resolver lock, which a slow backend may
	// hold, so it is read off the loop.
	for _, s := range c.registry.Statuses() {
		st.Capabilities = append(st.Capabilities, models.CapabilityStatus{
			ID:          string(s.ID),
			Active:      s.Active,
			Unavailable: s.Unavailable,
			Candidates:  s.Candidates,
			Demoted:     s.Demoted,
			Binds:       s.Binds,
			LastError:   s.LastError,
			NextRetry:   s.NextRetry,
		})
	}
	return st, nil
}

// ApplySettings hot-reloads timings, thresholds and clock settings.
func (c *Core) ApplySettings(s *models.Settings) {
	if s == nil {
		return
	}
	c.lp.Post(func() {
		c.settings = s
		for _, ch := range c.channels {
			p := s.Polling.Get(ch.name)
			ch.setTiming(p.Interval, p.StaleAfter, p.Grace)
		}
		c.queue.SetTiming(s.Notifications.Gap, s.Notifications.DefaultDismiss)
		c.machine.SetDebounce(s.Presentation.HoverExitDebounce)
		th := thresholds(s.Thresholds)
		c.batteryP.SetThresholds(th)
		c.healthP.SetThresholds(th)
		c.calendarP.SetWindow(s.Calendar.ImminentWindow)
		c.pomodoro.Configure(pomodoroConfig(s.Pomodoro))
		c.logger.Info("settings applied")
		c.changed()
	})
}

// call runs fn on the loop and waits for it.
func (c *Core) call(ctx context.Context, fn func()) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}
	done := make(chan struct{})
	c.lp.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
}

func (c *Core) scheduleHousekeeping() {
	c.house = c.lp.After(housekeepingInterval, func() {
		if !c.running {
			return
		}
		c.changed()
		c.scheduleHousekeeping()
	})
}

// changed schedules one recompute for any number of changes in the same
// loop turn.
func (c *Core) changed() {
	if c.dirty {
		return
	}
	c.dirty = true
	c.lp.Post(c.recompute)
}

func (c *Core) recompute() {
	evaluated := provider.Evaluate(c.providers)
	c.machine.Reevaluate()
	c.dirty = false

	d := c.buildDisplay(evaluated)
	if c.seq > 0 && sameDisplay(c.last, d) {
		return
	}
	c.seq++
	d.Sequence = c.seq
	d.GeneratedAt = c.lp.Now()
	c.last = d
	c.pub.Publish(d)
}

func (c *Core) wantsCompact() bool {
	return provider.WantsCompact(provider.Evaluate(c.providers))
}

func sameDisplay(a, b models.Display) bool {
	a.Sequence, b.Sequence = 0, 0
	a.GeneratedAt, b.GeneratedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}

func thresholds(t models.ThresholdsConfig) provider.Thresholds {
	def := provider.DefaultThresholds()
	if t.BatteryLow > 0 {
		def.BatteryLow = t.BatteryLow
	}
	if t.CPUHigh > 0 {
		def.CPUHigh = t.CPUHigh
	}
	if t.MemoryHigh > 0 {
		def.MemoryHigh = t.MemoryHigh
	}
	return def
}

func pomodoroConfig(p models.PomodoroConfig) timer.PomodoroConfig {
	return timer.PomodoroConfig{
		Work:          p.Work,
		ShortBreak:    p.ShortBreak,
		LongBreak:     p.LongBreak,
		LongBreakEach: p.LongBreakEach,
	}
}
