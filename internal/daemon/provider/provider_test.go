package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/daemon/state"
)

type stub struct {
	id       string
	priority int
	status   Status
}

func (s stub) ID() string     { return s.id }
func (s stub) Priority() int  { return s.priority }
func (s stub) Status() Status { return s.status }

func active(id string, priority int) stub {
	return stub{id: id, priority: priority, status: Status{HasActiveContent: true, WantsCompact: true}}
}

func inactive(id string, priority int) stub {
	return stub{id: id, priority: priority}
}

func TestSelectCompact(t *testing.T) {
	tests := []struct {
		name      string
		providers []Provider
		want      string
	}{
		{"none active", []Provider{inactive("a", 100), inactive("b", 50)}, ""},
		{"empty", nil, ""},
		{"highest wins", []Provider{active("media", 50), active("timer", 70), active("calendar", 30)}, "timer"},
		{"inactive high loses", []Provider{inactive("notification", 100), active("media", 50)}, "media"},
		{"tie goes to declaration order", []Provider{active("timer", 70), active("pomodoro", 70)}, "timer"},
		{"tie order reversed", []Provider{active("pomodoro", 70), active("timer", 70)}, "pomodoro"},
		{"notification beats all", []Provider{active("timer", 70), active("media", 50), active("notification", 100)}, "notification"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := SelectCompact(tt.providers)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, p)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, p.ID())
		})
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	providers := []Provider{active("a", 10), active("b", 70), active("c", 70), inactive("d", 90)}
	first, _ := SelectCompact(providers)
	for i := 0; i < 50; i++ {
		p, ok := SelectCompact(providers)
		require.True(t, ok)
		assert.Equal(t, first.ID(), p.ID())
	}
}

func TestWantsCompact(t *testing.T) {
	health := stub{id: "health", priority: 5, status: Status{HasActiveContent: true}}
	assert.False(t, WantsCompact(Evaluate([]Provider{health})))
	assert.False(t, WantsCompact(Evaluate([]Provider{inactive("x", 1)})))
	assert.True(t, WantsCompact(Evaluate([]Provider{health, active("media", 50)})))

	e, ok := Select(Evaluate([]Provider{health}))
	require.True(t, ok, "an active provider is selectable even without compact interest")
	assert.Equal(t, "health", e.Provider.ID())
}

func known[V any](v V) Static[V] {
	return Static[V]{Value: v, Known: true}
}

func TestTimerAndMediaArbitration(t *testing.T) {
	timer := NewTimer(known(state.Timer{Phase: state.TimerRunning, Remaining: time.Minute}))
	media := NewMedia(known(state.NowPlaying{Player: "spotify", Status: state.PlaybackPlaying, Title: "Song"}))
	q := &fakeQueue{}

	p, ok := SelectCompact([]Provider{NewNotification(q), timer, NewPomodoro(known(state.Pomodoro{Phase: state.PomodoroIdle})), media})
	require.True(t, ok)
	assert.Equal(t, IDTimer, p.ID())
}

type fakeQueue struct {
	item    notification.Item
	visible bool
	pending int
}

func (q *fakeQueue) Current() (notification.Item, bool) { return q.item, q.visible }
func (q *fakeQueue) Pending() int                       { return q.pending }

func TestNotificationProvider(t *testing.T) {
	q := &fakeQueue{}
	p := NewNotification(q)
	assert.False(t, p.Status().HasActiveContent)

	q.item = notification.Item{ID: "n1", Payload: notification.Payload{Title: "hi"}}
	q.visible = true
	q.pending = 2
	st := p.Status()
	assert.True(t, st.HasActiveContent)
	assert.True(t, st.WantsCompact)
	assert.Equal(t, NotificationDetail{Item: q.item, Pending: 2}, st.Detail)
}

func TestTimerProvider(t *testing.T) {
	tests := []struct {
		phase  state.TimerPhase
		active bool
	}{
		{state.TimerIdle, false},
		{state.TimerRunning, true},
		{state.TimerPaused, true},
		{state.TimerFinished, false},
	}
	for _, tt := range tests {
		st := NewTimer(known(state.Timer{Phase: tt.phase})).Status()
		assert.Equal(t, tt.active, st.HasActiveContent, string(tt.phase))
	}

	unknown := NewTimer(Static[state.Timer]{Stale: true}).Status()
	assert.False(t, unknown.HasActiveContent)
	assert.True(t, unknown.Stale)
}

func TestMediaProviders(t *testing.T) {
	playing := state.NowPlaying{Player: "mpv", Status: state.PlaybackPlaying, Title: "a"}
	paused := state.NowPlaying{Player: "mpv", Status: state.PlaybackPaused, Title: "a"}

	assert.True(t, NewMedia(known(playing)).Status().HasActiveContent)
	assert.False(t, NewMedia(known(paused)).Status().HasActiveContent)
	assert.False(t, NewMedia(known(state.NowPlaying{})).Status().HasActiveContent, "no player")

	stalePlaying := Static[state.NowPlaying]{Value: playing, Known: true, Stale: true}
	st := NewMedia(stalePlaying).Status()
	assert.True(t, st.HasActiveContent, "stale keeps the last known value")
	assert.True(t, st.Stale)

	ph := NewMediaPlaceholder(known(paused)).Status()
	assert.True(t, ph.HasActiveContent)
	assert.False(t, ph.WantsCompact)
	assert.False(t, NewMediaPlaceholder(known(playing)).Status().HasActiveContent)
	assert.False(t, NewMediaPlaceholder(known(state.NowPlaying{Player: "mpv", Status: state.PlaybackPaused})).Status().HasActiveContent)
}

func TestCalendarProvider(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cal := state.Calendar{Events: []state.Event{
		{ID: "past", Title: "standup", Start: now.Add(-time.Hour), End: now.Add(-30 * time.Minute)},
		{ID: "soon", Title: "review", Start: now.Add(8 * time.Minute), End: now.Add(38 * time.Minute)},
	}}

	st := NewCalendar(known(cal), clock, 0).Status()
	require.True(t, st.HasActiveContent)
	detail, ok := st.Detail.(CalendarDetail)
	require.True(t, ok)
	assert.Equal(t, "soon", detail.Event.ID)
	assert.Equal(t, 8*time.Minute, detail.StartsIn)

	narrow := NewCalendar(known(cal), clock, 5*time.Minute)
	assert.False(t, narrow.Status().HasActiveContent)
	narrow.SetWindow(time.Hour)
	assert.True(t, narrow.Status().HasActiveContent)

	now = now.Add(10 * time.Minute)
	assert.False(t, NewCalendar(known(cal), clock, 0).Status().HasActiveContent, "already started")

	assert.False(t, NewCalendar(Static[state.Calendar]{}, clock, 0).Status().HasActiveContent)
}

func TestBatteryProvider(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		snap   Static[state.Battery]
		active bool
		label  string
	}{
		{"unknown", Static[state.Battery]{Stale: true}, false, unknownLabel},
		{"no battery", known(state.Battery{Present: false}), false, ""},
		{"healthy", known(state.Battery{Present: true, Percent: 80}), false, "80%"},
		{"low discharging", known(state.Battery{Present: true, Percent: 12}), true, "12%"},
		{"low charging", known(state.Battery{Present: true, Percent: 12, Charging: true}), false, "12%"},
		{"low on ac", known(state.Battery{Present: true, Percent: 12, OnAC: true}), false, "12%"},
		{"at threshold", known(state.Battery{Present: true, Percent: 20}), true, "20%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBattery(tt.snap, th).Status()
			assert.Equal(t, tt.active, st.HasActiveContent)
			if tt.label == "" {
				assert.Empty(t, st.Indicators)
				return
			}
			require.Len(t, st.Indicators, 1)
			assert.Equal(t, tt.label, st.Indicators[0].Label)
		})
	}
}

func TestHealthProvider(t *testing.T) {
	th := DefaultThresholds()
	assert.False(t, NewHealth(known(state.Health{CPUPercent: 30, MemoryPercent: 40}), th).Status().HasActiveContent)
	st := NewHealth(known(state.Health{CPUPercent: 97}), th).Status()
	assert.True(t, st.HasActiveContent)
	assert.False(t, st.WantsCompact)

	h := NewHealth(known(state.Health{MemoryPercent: 85}), th)
	assert.False(t, h.Status().HasActiveContent)
	h.SetThresholds(Thresholds{CPUHigh: 90, MemoryHigh: 80})
	assert.True(t, h.Status().HasActiveContent)
}

func TestIndicatorProviders(t *testing.T) {
	priv := NewPrivacy(known(state.Privacy{Camera: true, Mic: true, Apps: []string{"zoom"}})).Status()
	assert.False(t, priv.HasActiveContent)
	require.Len(t, priv.Indicators, 2)
	assert.Equal(t, "camera", priv.Indicators[0].Kind)
	assert.Equal(t, "zoom", priv.Indicators[1].Label)

	bt := NewBluetooth(known(state.Bluetooth{Powered: true, Devices: []state.BluetoothDevice{
		{Address: "AA", Name: "Buds", Battery: 10},
		{Address: "BB", Name: "Mouse"},
	}})).Status()
	require.Len(t, bt.Indicators, 2)
	assert.Equal(t, "Buds 10%", bt.Indicators[0].Label)
	assert.True(t, bt.Indicators[0].Warn)
	assert.Equal(t, "Mouse", bt.Indicators[1].Label)
	assert.Empty(t, NewBluetooth(Static[state.Bluetooth]{Known: true, Stale: true}).Status().Indicators)

	offline := NewNetwork(known(state.Network{Online: false})).Status()
	require.Len(t, offline.Indicators, 1)
	assert.Equal(t, "offline", offline.Indicators[0].Label)
	wifi := NewNetwork(known(state.Network{Online: true, Kind: state.ConnectionWiFi, Name: "home"})).Status()
	assert.Equal(t, Indicator{Kind: "wifi", Label: "home"}, wifi.Indicators[0])
	assert.Equal(t, unknownLabel, NewNetwork(Static[state.Network]{}).Status().Indicators[0].Label)

	assert.Len(t, NewFocus(known(state.Focus{Enabled: true})).Status().Indicators, 1)
	assert.Empty(t, NewFocus(known(state.Focus{})).Status().Indicators)
}
