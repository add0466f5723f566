package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/channel"
	"github.com/glance-io/glance/internal/daemon/loop"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/provider"
	"github.com/glance-io/glance/internal/daemon/state"
	"github.com/glance-io/glance/internal/models"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fake is an in-memory backend. Writes are recorded and, with follow set,
// become visible to reads.
type fake[V any] struct {
	mu     sync.Mutex
	name   string
	value  V
	reads  int
	writes []V
	follow bool
}

func newFake[V any](name string, v V) *fake[V] {
	return &fake[V]{name: name, value: v}
}

func (f *fake[V]) Name() string               { return f.name }
func (f *fake[V]) Probe(context.Context) bool { return true }

func (f *fake[V]) Read(context.Context) (V, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.value, nil
}

func (f *fake[V]) Write(_ context.Context, v V) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, v)
	if f.follow {
		f.value = v
	}
	return nil
}

func (f *fake[V]) set(v V) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

func (f *fake[V]) written() []V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]V(nil), f.writes...)
}

func (f *fake[V]) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func only[V any](b capability.Backend[V]) []capability.Strategy[V] {
	return []capability.Strategy[V]{{Backend: b}}
}

type drops struct {
	mu      sync.Mutex
	reasons map[string][]string
}

func (d *drops) Applied(string, channel.Origin)      {}
func (d *drops) Polled(string, time.Duration, error) {}
func (d *drops) Dropped(name, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reasons == nil {
		d.reasons = make(map[string][]string)
	}
	d.reasons[name] = append(d.reasons[name], reason)
}

func (d *drops) of(name string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.reasons[name]...)
}

type harness struct {
	m    *loop.Manual
	core *Core
	obs  *drops
}

func newHarness(t *testing.T, b Backends, tweak func(*models.Settings)) *harness {
	t.Helper()
	s := models.NewSettings()
	if tweak != nil {
		tweak(s)
	}
	m := loop.NewManual(t0)
	obs := &drops{}
	core, err := New(m, b, Config{
		Settings:        s,
		Version:         "test",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		ChannelObserver: obs,
	})
	require.NoError(t, err)
	core.Start(context.Background())
	t.Cleanup(func() { _ = core.Stop(context.Background()) })
	return &harness{m: m, core: core, obs: obs}
}

func (h *harness) display() models.Display {
	return h.core.Display()
}

func (h *harness) notificationTitle() string {
	n := h.display().Notification
	if n == nil {
		return ""
	}
	return n.Title
}

func TestEnginePublishesInitialDisplay(t *testing.T) {
	vol := newFake("mixer", 0.4)
	h := newHarness(t, Backends{VolumeRead: only[float64](vol)}, nil)

	d := h.display()
	assert.Equal(t, uint64(1), d.Sequence)
	assert.Equal(t, t0, d.GeneratedAt)
	assert.Equal(t, models.StateIdle, d.State)
	assert.Empty(t, d.CompactProviderID)
	assert.Nil(t, d.Notification)
	assert.Len(t, d.Providers, 12)
	assert.Equal(t, provider.IDNotification, d.Providers[0].ID)

	assert.Equal(t, models.Level{Value: 0.4, Known: true}, d.Controls.Volume)
	assert.True(t, d.Controls.Brightness.Stale, "no brightness backend")
	assert.False(t, d.Controls.Brightness.Known)
}

func TestEngineOptimisticVolumeWrite(t *testing.T) {
	read := newFake("pactl", 0.40)
	write := newFake("pactl", 0.0)
	h := newHarness(t, Backends{
		VolumeRead:  only[float64](read),
		VolumeWrite: only[float64](write),
	}, func(s *models.Settings) {
		s.Polling[models.ChannelVolume] = models.Polling{Interval: 50 * time.Millisecond, Grace: 750 * time.Millisecond}
	})
	require.Equal(t, 0.40, h.display().Controls.Volume.Value)

	h.core.SetVolume(0.55)
	assert.Equal(t, 0.55, h.display().Controls.Volume.Value)
	assert.True(t, h.display().Controls.Volume.Writable)
	assert.Equal(t, []float64{0.55}, write.written())

	// The backend has not caught up yet; the lagging poll is discarded.
	h.m.Advance(50 * time.Millisecond)
	assert.Equal(t, 0.55, h.display().Controls.Volume.Value)
	assert.Contains(t, h.obs.of(models.ChannelVolume), "pending")

	h.m.Advance(250 * time.Millisecond)
	assert.Equal(t, 0.55, h.display().Controls.Volume.Value)

	// The confirming poll produces no further payload.
	read.set(0.55)
	seq := h.display().Sequence
	h.m.Advance(50 * time.Millisecond)
	assert.Equal(t, seq, h.display().Sequence)

	h.m.Advance(time.Second)
	assert.Equal(t, 0.55, h.display().Controls.Volume.Value)
	assert.Equal(t, seq, h.display().Sequence)
}

func TestEngineVolumeClampAndAdjust(t *testing.T) {
	read := newFake("pactl", 0.5)
	write := newFake("pactl", 0.0)
	h := newHarness(t, Backends{
		VolumeRead:  only[float64](read),
		VolumeWrite: only[float64](write),
	}, nil)

	h.core.SetVolume(1.7)
	assert.Equal(t, 1.0, h.display().Controls.Volume.Value)
	h.core.AdjustVolume(-0.25)
	assert.Equal(t, 0.75, h.display().Controls.Volume.Value)
	h.core.SetVolume(-3)
	assert.Equal(t, []float64{1, 0.75, 0}, write.written())
}

func TestEngineWriteWithoutCapabilityKeepsValue(t *testing.T) {
	br := newFake("sysfs", 0.3)
	h := newHarness(t, Backends{BrightnessRead: only[float64](br)}, nil)

	h.core.SetBrightness(0.9)
	lvl := h.display().Controls.Brightness
	assert.Equal(t, 0.3, lvl.Value, "unavailable write is a no-op")
	assert.False(t, lvl.Writable)
}

func TestEngineTimerOutranksMedia(t *testing.T) {
	np := newFake("mpris", state.NowPlaying{Player: "spotify", Status: state.PlaybackPlaying, Title: "Song", Artist: "Band"})
	h := newHarness(t, Backends{NowPlayingRead: only[state.NowPlaying](np)}, nil)

	d := h.display()
	assert.Equal(t, models.StateCompact, d.State)
	assert.Equal(t, provider.IDMedia, d.CompactProviderID)
	media, ok := d.Compact()
	require.True(t, ok)
	assert.Equal(t, "Song · Band", media.Summary)

	h.core.StartTimer(5 * time.Minute)
	d = h.display()
	assert.Equal(t, provider.IDTimer, d.CompactProviderID)
	timer, _ := d.Compact()
	assert.Equal(t, "5:00", timer.Summary)

	h.m.Advance(time.Minute)
	d = h.display()
	timer, _ = d.Compact()
	assert.Equal(t, "4:00", timer.Summary)

	h.core.PauseTimer()
	d = h.display()
	timer, _ = d.Compact()
	assert.Equal(t, "4:00 paused", timer.Summary)

	h.core.ResetTimer()
	assert.Equal(t, provider.IDMedia, h.display().CompactProviderID)
}

func TestEngineNotificationTimeline(t *testing.T) {
	h := newHarness(t, Backends{}, nil)

	h.core.Notify(notification.Payload{Title: "one"}, 3*time.Second)
	h.core.Notify(notification.Payload{Title: "two"}, 2*time.Second)
	h.core.Notify(notification.Payload{Title: "three"}, 3*time.Second)

	assert.Equal(t, "one", h.notificationTitle())
	assert.Equal(t, 2, h.display().Notification.Pending)
	assert.Equal(t, models.StateCompact, h.display().State)
	assert.Equal(t, provider.IDNotification, h.display().CompactProviderID)

	steps := []struct {
		at   time.Duration
		want string
	}{
		{2999 * time.Millisecond, "one"},
		{3000 * time.Millisecond, ""},
		{3300 * time.Millisecond, "two"},
		{5299 * time.Millisecond, "two"},
		{5300 * time.Millisecond, ""},
		{5600 * time.Millisecond, "three"},
		{8599 * time.Millisecond, "three"},
		{8600 * time.Millisecond, ""},
	}
	elapsed := time.Duration(0)
	for _, s := range steps {
		h.m.Advance(s.at - elapsed)
		elapsed = s.at
		assert.Equal(t, s.want, h.notificationTitle(), "at %v", s.at)
	}

	h.m.Advance(time.Second)
	assert.Nil(t, h.display().Notification)
	assert.Equal(t, models.StateIdle, h.display().State)
}

func TestEngineDismissNotification(t *testing.T) {
	h := newHarness(t, Backends{}, nil)
	h.core.Notify(notification.Payload{Title: "a"}, time.Minute)
	h.core.Notify(notification.Payload{Title: "b"}, time.Minute)

	h.core.DismissNotification()
	assert.Equal(t, "", h.notificationTitle())
	h.m.Advance(300 * time.Millisecond)
	assert.Equal(t, "b", h.notificationTitle())
}

func TestEngineTimerExpiryRaisesNotification(t *testing.T) {
	h := newHarness(t, Backends{}, nil)
	h.core.StartTimer(2 * time.Second)
	assert.Equal(t, provider.IDTimer, h.display().CompactProviderID)

	h.m.Advance(2 * time.Second)
	d := h.display()
	require.NotNil(t, d.Notification)
	assert.Equal(t, "Timer finished", d.Notification.Title)
	assert.Equal(t, SourceTimer, d.Notification.Source)
	assert.Equal(t, provider.IDNotification, d.CompactProviderID)
}

func TestEnginePomodoroPhaseChangeRaisesNotification(t *testing.T) {
	h := newHarness(t, Backends{}, func(s *models.Settings) {
		s.Pomodoro = models.PomodoroConfig{Work: time.Minute, ShortBreak: 30 * time.Second, LongBreak: 2 * time.Minute, LongBreakEach: 4}
	})
	h.core.StartPomodoro()
	assert.Equal(t, provider.IDPomodoro, h.display().CompactProviderID)
	assert.Empty(t, h.notificationTitle(), "starting is not announced")

	h.m.Advance(time.Minute)
	assert.Equal(t, "Short break", h.notificationTitle())

	h.core.StopPomodoro()
	h.m.Advance(10 * time.Second)
	assert.NotEqual(t, provider.IDPomodoro, h.display().CompactProviderID)
}

func TestEngineBatteryLowNotifiesOncePerEpisode(t *testing.T) {
	bat := newFake("upower", state.Battery{Present: true, Percent: 25})
	h := newHarness(t, Backends{BatteryRead: only[state.Battery](bat)}, nil)
	assert.Empty(t, h.notificationTitle())

	bat.set(state.Battery{Present: true, Percent: 15})
	h.m.Advance(10 * time.Second)
	assert.Equal(t, "Battery low", h.notificationTitle())

	bat.set(state.Battery{Present: true, Percent: 14})
	h.m.Advance(10 * time.Second)
	assert.Empty(t, h.notificationTitle(), "still low, not announced again")
	assert.Equal(t, provider.IDBattery, h.display().CompactProviderID)

	bat.set(state.Battery{Present: true, Percent: 14, Charging: true})
	h.m.Advance(10 * time.Second)
	bat.set(state.Battery{Present: true, Percent: 13})
	h.m.Advance(10 * time.Second)
	assert.Equal(t, "Battery low", h.notificationTitle())
}

func TestEngineBatteryNotificationsCanBeDisabled(t *testing.T) {
	bat := newFake("upower", state.Battery{Present: true, Percent: 10})
	h := newHarness(t, Backends{BatteryRead: only[state.Battery](bat)}, func(s *models.Settings) {
		s.Notifications.BatteryLow = false
	})
	h.m.Advance(10 * time.Second)
	assert.Empty(t, h.notificationTitle())
}

func TestEngineBluetoothConnectAndDisconnect(t *testing.T) {
	bt := newFake("bluez", state.Bluetooth{Powered: true, Devices: []state.BluetoothDevice{{Address: "AA", Name: "Mouse"}}})
	h := newHarness(t, Backends{BluetoothRead: only[state.Bluetooth](bt)}, func(s *models.Settings) {
		s.Notifications.Gap = -1
	})
	assert.Empty(t, h.notificationTitle(), "initial devices are not announced")

	bt.set(state.Bluetooth{Powered: true, Devices: []state.BluetoothDevice{
		{Address: "AA", Name: "Mouse"},
		{Address: "BB", Name: "Buds"},
	}})
	h.m.Advance(5 * time.Second)
	n := h.display().Notification
	require.NotNil(t, n)
	assert.Equal(t, "Connected", n.Title)
	assert.Equal(t, "Buds", n.Body)

	bt.set(state.Bluetooth{Powered: true, Devices: []state.BluetoothDevice{{Address: "BB", Name: "Buds"}}})
	h.m.Advance(5 * time.Second)
	n = h.display().Notification
	require.NotNil(t, n)
	assert.Equal(t, "Disconnected", n.Title)
	assert.Equal(t, "Mouse", n.Body)
}

func TestEngineHoverDebounce(t *testing.T) {
	h := newHarness(t, Backends{}, nil)

	h.core.HoverEnter()
	assert.Equal(t, models.StateExpanded, h.display().State)
	assert.True(t, h.display().Hovering)

	h.core.HoverExit()
	h.m.Advance(399 * time.Millisecond)
	assert.Equal(t, models.StateExpanded, h.display().State)

	h.m.Advance(time.Millisecond)
	assert.Equal(t, models.StateIdle, h.display().State)
}

func TestEngineHoverExitTargetsContentAtExpiry(t *testing.T) {
	h := newHarness(t, Backends{}, nil)
	h.core.HoverEnter()
	h.core.HoverExit()
	h.m.Advance(100 * time.Millisecond)
	h.core.StartTimer(time.Minute)
	assert.Equal(t, models.StateExpanded, h.display().State)

	h.m.Advance(300 * time.Millisecond)
	assert.Equal(t, models.StateCompact, h.display().State)
	assert.Equal(t, provider.IDTimer, h.display().CompactProviderID)
}

func TestEngineMediaCommands(t *testing.T) {
	np := newFake("mpris", state.NowPlaying{Player: "mpv", Status: state.PlaybackPaused, Title: "a"})
	cmds := newFake[state.MediaCommand]("mpris", "")
	h := newHarness(t, Backends{
		NowPlayingRead:    only[state.NowPlaying](np),
		NowPlayingCommand: only[state.MediaCommand](cmds),
	}, nil)
	reads := np.readCount()

	h.core.TogglePlayPause()
	h.core.NextTrack()
	h.core.PreviousTrack()
	assert.Equal(t, []state.MediaCommand{state.MediaPlayPause, state.MediaNext, state.MediaPrevious}, cmds.written())
	assert.Greater(t, np.readCount(), reads, "commands refresh now-playing")
}

func TestEngineToggleFocus(t *testing.T) {
	read := newFake("dunst", state.Focus{})
	write := newFake("dunst", state.Focus{})
	h := newHarness(t, Backends{
		FocusRead:  only[state.Focus](read),
		FocusWrite: only[state.Focus](write),
	}, nil)

	h.core.ToggleFocus()
	assert.True(t, h.display().Controls.Focus)
	assert.Equal(t, []state.Focus{{Enabled: true}}, write.written())
	d := h.display()
	p, ok := d.Provider(provider.IDFocus)
	require.True(t, ok)
	assert.Len(t, p.Indicators, 1)
}

func TestEngineApplySettings(t *testing.T) {
	bat := newFake("upower", state.Battery{Present: true, Percent: 25})
	h := newHarness(t, Backends{BatteryRead: only[state.Battery](bat)}, nil)
	assert.Equal(t, models.StateIdle, h.display().State)

	s := models.NewSettings()
	s.Thresholds.BatteryLow = 30
	h.core.ApplySettings(s)
	assert.Equal(t, provider.IDBattery, h.display().CompactProviderID)
}

func TestEngineStatus(t *testing.T) {
	vol := newFake("pactl", 0.5)
	h := newHarness(t, Backends{VolumeRead: only[float64](vol)}, nil)

	st, err := h.core.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", st.Version)
	assert.Len(t, st.Channels, 12)
	assert.Equal(t, models.ChannelVolume, st.Channels[0].Name)
	assert.Equal(t, "pactl", st.Channels[0].Strategy)
	assert.Equal(t, "poll", st.Channels[0].Origin)

	byID := map[string]models.CapabilityStatus{}
	for _, c := range st.Capabilities {
		byID[c.ID] = c
	}
	assert.Equal(t, "pactl", byID[string(capability.VolumeRead)].Active)
	assert.True(t, byID[string(capability.BrightnessRead)].Unavailable)
	assert.Equal(t, "clock", byID[string(capability.TimerRead)].Active)
}

func TestEngineRejectsSharedBackend(t *testing.T) {
	shared := newFake("pactl", 0.5)
	_, err := New(loop.NewManual(t0), Backends{
		VolumeRead:  only[float64](shared),
		VolumeWrite: only[float64](shared),
	}, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	assert.ErrorIs(t, err, capability.ErrAlreadyOwned)
}

func TestEngineStopClosesSubscribers(t *testing.T) {
	h := newHarness(t, Backends{}, nil)
	ch, cancel := h.core.Subscribe()
	defer cancel()

	first, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.Sequence)

	require.NoError(t, h.core.Stop(context.Background()))
	_, ok = <-ch
	assert.False(t, ok)

	_, err := h.core.Status(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPublisherKeepsOnlyLatest(t *testing.T) {
	p := newPublisher()
	ch, cancel := p.Subscribe()
	for i := uint64(1); i <= 5; i++ {
		p.Publish(models.Display{Sequence: i})
	}
	got := <-ch
	assert.Equal(t, uint64(5), got.Sequence)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{5 * time.Minute, "5:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatClock(tt.d))
	}
}

// slowCommands delays each write so overlapping commands would interleave.
type slowCommands struct {
	*fake[state.MediaCommand]
	delay time.Duration
}

func (s slowCommands) Write(ctx context.Context, cmd state.MediaCommand) error {
	time.Sleep(s.delay)
	return s.fake.Write(ctx, cmd)
}

func TestEngineMediaCommandsKeepOrderOnDispatcher(t *testing.T) {
	d := loop.NewDispatcher(8, nil)
	d.Start(context.Background())
	defer d.Stop()

	cmds := slowCommands{fake: newFake[state.MediaCommand]("mpris", ""), delay: time.Millisecond}
	core, err := New(d, Backends{
		NowPlayingRead:    only[state.NowPlaying](newFake("mpris", state.NowPlaying{})),
		NowPlayingCommand: only[state.MediaCommand](cmds),
	}, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	core.Start(context.Background())
	defer func() { _ = core.Stop(context.Background()) }()

	var want []state.MediaCommand
	for i := 0; i < 5; i++ {
		want = append(want, state.MediaNext, state.MediaNext, state.MediaPrevious, state.MediaPlayPause)
	}
	for _, cmd := range want {
		switch cmd {
		case state.MediaNext:
			core.NextTrack()
		case state.MediaPrevious:
			core.PreviousTrack()
		case state.MediaPlayPause:
			core.TogglePlayPause()
		}
	}

	require.Eventually(t, func() bool { return len(cmds.written()) == len(want) }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, want, cmds.written())
}

func TestEngineRefreshCalendarLeavesOtherChannels(t *testing.T) {
	vol := newFake("pactl", 0.4)
	cal := newFake("events-file", state.Calendar{})
	h := newHarness(t, Backends{
		VolumeRead:   only[float64](vol),
		CalendarRead: only[state.Calendar](cal),
	}, nil)
	volReads, calReads := vol.readCount(), cal.readCount()

	h.core.RefreshCalendar()
	assert.Greater(t, cal.readCount(), calReads)
	assert.Equal(t, volReads, vol.readCount())
}
