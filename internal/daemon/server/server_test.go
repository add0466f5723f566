package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/models"
)

// fakeEngine records commands and publishes displays on demand.
type fakeEngine struct {
	mu      sync.Mutex
	display models.Display
	subs    []chan models.Display
	calls   []string
	notes   []notification.Payload
}

func (f *fakeEngine) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) publish(d models.Display) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.display = d
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- d
	}
}

func (f *fakeEngine) Display() models.Display {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.display
}

func (f *fakeEngine) Subscribe() (<-chan models.Display, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan models.Display, 1)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeEngine) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeEngine) Status(ctx context.Context) (models.DaemonStatus, error) {
	return models.DaemonStatus{Version: "1.2.3", Queue: 2}, nil
}

func (f *fakeEngine) TogglePlayPause()               { f.record("play-pause") }
func (f *fakeEngine) NextTrack()                     { f.record("next") }
func (f *fakeEngine) PreviousTrack()                 { f.record("previous") }
func (f *fakeEngine) SetVolume(v float64)            { f.record("set-volume %.2f", v) }
func (f *fakeEngine) AdjustVolume(delta float64)     { f.record("adjust-volume %.2f", delta) }
func (f *fakeEngine) SetBrightness(v float64)        { f.record("set-brightness %.2f", v) }
func (f *fakeEngine) AdjustBrightness(delta float64) { f.record("adjust-brightness %.2f", delta) }
func (f *fakeEngine) ToggleFocus()                   { f.record("toggle-focus") }
func (f *fakeEngine) StartTimer(d time.Duration)     { f.record("start-timer %s", d) }
func (f *fakeEngine) PauseTimer()                    { f.record("pause-timer") }
func (f *fakeEngine) ResetTimer()                    { f.record("reset-timer") }
func (f *fakeEngine) StartPomodoro()                 { f.record("start-pomodoro") }
func (f *fakeEngine) StopPomodoro()                  { f.record("stop-pomodoro") }
func (f *fakeEngine) SkipPomodoro()                  { f.record("skip-pomodoro") }
func (f *fakeEngine) DismissNotification()           { f.record("dismiss") }
func (f *fakeEngine) HoverEnter()                    { f.record("hover-enter") }
func (f *fakeEngine) HoverExit()                     { f.record("hover-exit") }
func (f *fakeEngine) Refresh()                       { f.record("refresh") }
func (f *fakeEngine) Notify(p notification.Payload, d time.Duration) {
	f.mu.Lock()
	f.notes = append(f.notes, p)
	f.mu.Unlock()
	f.record("notify %s", d)
}

func startServer(t *testing.T, eng Engine, opts Options) (*Server, *api.Client) {
	t.Helper()
	srv, err := New(eng, opts)
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()

	conn, err := api.Dial(fmt.Sprintf("127.0.0.1:%d", srv.Port()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})
	return srv, api.NewClient(conn)
}

func TestGetDisplay(t *testing.T) {
	eng := &fakeEngine{display: models.Display{State: models.StateCompact, CompactProviderID: "timer", Sequence: 4}}
	_, client := startServer(t, eng, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.GetDisplay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "timer", resp.Display.CompactProviderID)
	assert.Equal(t, uint64(4), resp.Display.Sequence)
}

func TestExecuteDispatchesCommands(t *testing.T) {
	eng := &fakeEngine{}
	_, client := startServer(t, eng, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmds := []*api.Command{
		{Action: api.ActionSetVolume, Value: 0.4},
		{Action: api.ActionAdjustBrightness, Value: -0.1},
		{Action: api.ActionStartTimer, Duration: 90 * time.Second},
		{Action: api.ActionNotify, Title: "Hi", Duration: time.Second, Meta: &api.RequestMeta{Origin: "cli"}},
		{Action: api.ActionSkipPomodoro},
		{Action: api.ActionRefresh},
	}
	for _, c := range cmds {
		require.NoError(t, client.Execute(ctx, c))
	}
	assert.Equal(t, []string{
		"set-volume 0.40",
		"adjust-brightness -0.10",
		"start-timer 1m30s",
		"notify 1s",
		"skip-pomodoro",
		"refresh",
	}, eng.Calls())
	eng.mu.Lock()
	defer eng.mu.Unlock()
	require.Len(t, eng.notes, 1)
	assert.Equal(t, notification.Payload{Title: "Hi", Source: "cli"}, eng.notes[0])
}

func TestExecuteRejectsInvalid(t *testing.T) {
	eng := &fakeEngine{}
	_, client := startServer(t, eng, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Execute(ctx, &api.Command{Action: "launch-rockets"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = client.Execute(ctx, &api.Command{Action: api.ActionNotify})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, eng.Calls())
}

func TestGetStatus(t *testing.T) {
	srv, client := startServer(t, &fakeEngine{}, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", resp.Status.Version)
	assert.Equal(t, 2, resp.Status.Queue)
	assert.Equal(t, int32(srv.Port()), resp.Port)
	assert.NotZero(t, resp.PID)
}

func TestWatchDisplayStreamsNewerPayloads(t *testing.T) {
	eng := &fakeEngine{display: models.Display{State: models.StateIdle, Sequence: 1}}
	_, client := startServer(t, eng, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.WatchDisplay(ctx)
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Display.Sequence)

	require.Eventually(t, func() bool { return eng.subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	eng.publish(models.Display{State: models.StateIdle, Sequence: 1})
	eng.publish(models.Display{State: models.StateCompact, Sequence: 2})

	next, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Display.Sequence)
	assert.Equal(t, models.StateCompact, next.Display.State)
}

func TestStopEndsStreams(t *testing.T) {
	eng := &fakeEngine{display: models.Display{Sequence: 1}}
	srv, client := startServer(t, eng, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.WatchDisplay(ctx)
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked on an open stream")
	}
	_, err = stream.Recv()
	assert.Error(t, err)
}

func TestShutdownCallsHook(t *testing.T) {
	called := make(chan struct{})
	_, client := startServer(t, &fakeEngine{}, Options{OnShutdown: func() { close(called) }})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Shutdown(ctx))
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hook not called")
	}
}

func TestWebEndpointServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "glance_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	srv, _ := startServer(t, &fakeEngine{}, Options{WebPort: port, Registry: reg})
	require.NotZero(t, srv.WebPort())

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", srv.WebPort()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "glance_test_total 1")

	notFound, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/other", srv.WebPort()))
	require.NoError(t, err)
	notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestTrayState(t *testing.T) {
	eng := &fakeEngine{}
	var shutdowns int
	srv, err := New(eng, Options{OnShutdown: func() { shutdowns++ }})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	ts := NewTrayState(srv)
	assert.Equal(t, srv.Port(), ts.Port())

	ts.VolumeUp()
	ts.VolumeDown()
	ts.TogglePlayPause()
	ts.RequestShutdown()

	assert.Equal(t, []string{"adjust-volume 0.05", "adjust-volume -0.05", "play-pause"}, eng.Calls())
	assert.Equal(t, 1, shutdowns)
}
