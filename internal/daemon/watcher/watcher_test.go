package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/glance-io/glance/internal/config"
)

func newWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	w.delay = 20 * time.Millisecond
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w, dir
}

func next(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case e := <-w.Events():
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

func TestClassify(t *testing.T) {
	typ, ok := classify("/home/u/.glance/settings.yaml")
	require.True(t, ok)
	assert.Equal(t, EventSettingsChanged, typ)

	typ, ok = classify("/home/u/.glance/" + config.EventsFileName)
	require.True(t, ok)
	assert.Equal(t, EventCalendarChanged, typ)

	typ, ok = classify("/home/u/.glance/" + config.GoogleTokenFileName)
	require.True(t, ok)
	assert.Equal(t, EventCalendarChanged, typ)

	_, ok = classify("/home/u/.glance/daemon.yaml")
	assert.False(t, ok)
}

func TestSettingsWriteEmitsOneEvent(t *testing.T) {
	w, dir := newWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
	}
	e := next(t, w)
	assert.Equal(t, EventSettingsChanged, e.Type)
	assert.Equal(t, path, e.Path)

	select {
	case extra := <-w.Events():
		t.Fatalf("burst not coalesced: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAtomicRenameDetected(t *testing.T) {
	w, dir := newWatcher(t)
	tmp := filepath.Join(dir, "events.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("events: []\n"), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, config.EventsFileName)))

	e := next(t, w)
	assert.Equal(t, EventCalendarChanged, e.Type)
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	w, dir := newWatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daemon.yaml"), []byte("x"), 0o644))
	select {
	case e := <-w.Events():
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	w, err := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SettingsFileName), []byte("x"), 0o644))
	w.Stop()
	w.Stop()
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "settings", EventSettingsChanged.String())
	assert.Equal(t, "calendar", EventCalendarChanged.String())
	assert.Equal(t, "unknown", EventType(9).String())
}
