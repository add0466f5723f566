package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glance-io/glance/internal/daemon/state"
)

// fakeRunner answers commands from a table keyed by the joined command line.
type fakeRunner struct {
	programs map[string]bool
	outputs  map[string]string
	errs     map[string]error
	calls    []string
}

func newFakeRunner(programs ...string) *fakeRunner {
	f := &fakeRunner{programs: map[string]bool{}, outputs: map[string]string{}, errs: map[string]error{}}
	for _, p := range programs {
		f.programs[p] = true
	}
	return f
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)
	if err, ok := f.errs[line]; ok {
		return nil, err
	}
	if out, ok := f.outputs[line]; ok {
		return []byte(out), nil
	}
	return nil, nil
}

func (f *fakeRunner) Available(name string) bool { return f.programs[name] }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"Volume: front-left: 42598 /  65% / -11.23 dB,   front-right: 42598 /  65% / -11.23 dB", 0.65, false},
		{"Simple mixer control 'Master',0\n  Mono: Playback 40 [63%] [-11.00dB] [on]", 0.63, false},
		{"12.5%", 0.125, false},
		{"no number here", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePercent(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestPercentArg(t *testing.T) {
	assert.Equal(t, "0%", percentArg(0))
	assert.Equal(t, "50%", percentArg(0.5))
	assert.Equal(t, "33%", percentArg(0.333))
	assert.Equal(t, "100%", percentArg(1))
}

func TestParseWpctlVolume(t *testing.T) {
	v, err := parseWpctlVolume("Volume: 0.55\n")
	require.NoError(t, err)
	assert.InDelta(t, 0.55, v, 1e-9)

	v, err = parseWpctlVolume("Volume: 0.40 [MUTED]\n")
	require.NoError(t, err)
	assert.InDelta(t, 0.40, v, 1e-9)

	_, err = parseWpctlVolume("")
	assert.Error(t, err)
}

func TestPactlReadWriteIdentity(t *testing.T) {
	run := newFakeRunner("pactl")
	run.outputs["pactl get-sink-volume @DEFAULT_SINK@"] = "Volume: front-left: 32768 /  50% / -18.06 dB"
	run.outputs["pactl get-default-sink"] = "alsa_output.pci-0000_00_1f.3.analog-stereo\n"
	p := NewPactl(run)
	ctx := context.Background()

	assert.True(t, p.Probe(ctx))
	v, err := p.Read(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	require.NoError(t, p.Write(ctx, 0.7))
	assert.Contains(t, run.calls, "pactl set-sink-volume @DEFAULT_SINK@ 70%")

	id, err := p.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alsa_output.pci-0000_00_1f.3.analog-stereo", id)
}

func TestHelperProbeMissingProgram(t *testing.T) {
	assert.False(t, NewWpctl(newFakeRunner()).Probe(context.Background()))
	assert.False(t, NewAmixer(newFakeRunner("pactl")).Probe(context.Background()))
}

func TestHelperErrorPropagates(t *testing.T) {
	run := newFakeRunner("amixer")
	run.errs["amixer get Master"] = errors.New("exit status 1")
	_, err := NewAmixer(run).Read(context.Background())
	assert.Error(t, err)
}

func TestBacklight(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "intel_backlight", "brightness"), "480\n")
	writeFile(t, filepath.Join(root, "intel_backlight", "max_brightness"), "960\n")
	writeFile(t, filepath.Join(root, "zz_other", "brightness"), "1\n")
	writeFile(t, filepath.Join(root, "zz_other", "max_brightness"), "1\n")
	b := NewBacklight(root)
	ctx := context.Background()

	assert.True(t, b.Probe(ctx))
	v, err := b.Read(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	require.NoError(t, b.Write(ctx, 0.25))
	raw, err := os.ReadFile(filepath.Join(root, "intel_backlight", "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "240", string(raw))

	id, err := b.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "intel_backlight", id)
}

func TestBacklightNoDevice(t *testing.T) {
	b := NewBacklight(t.TempDir())
	assert.False(t, b.Probe(context.Background()))
	_, err := b.Read(context.Background())
	assert.Error(t, err)

	assert.False(t, NewBacklight(filepath.Join(t.TempDir(), "missing")).Probe(context.Background()))
}

func TestBacklightZeroMax(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acpi_video0", "brightness"), "0")
	writeFile(t, filepath.Join(root, "acpi_video0", "max_brightness"), "0")
	_, err := NewBacklight(root).Read(context.Background())
	assert.Error(t, err)
}

func TestParseBrightnessctl(t *testing.T) {
	v, err := parseBrightnessctl("intel_backlight,backlight,19200,20%,96000\n")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v, 1e-9)

	v, err = parseBrightnessctl("dev,backlight,5,40%,0")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-9)

	_, err = parseBrightnessctl("garbage")
	assert.Error(t, err)
}

func TestPickPlayer(t *testing.T) {
	_, ok := pickPlayer(nil)
	assert.False(t, ok)

	got, ok := pickPlayer([]mprisCandidate{
		{name: mprisPrefix + "vlc", status: state.PlaybackStopped},
		{name: mprisPrefix + "spotify", status: state.PlaybackPaused},
		{name: mprisPrefix + "firefox", status: state.PlaybackPlaying},
	})
	require.True(t, ok)
	assert.Equal(t, mprisPrefix+"firefox", got.name)

	got, _ = pickPlayer([]mprisCandidate{
		{name: mprisPrefix + "b", status: state.PlaybackPaused},
		{name: mprisPrefix + "a", status: state.PlaybackPaused},
	})
	assert.Equal(t, mprisPrefix+"a", got.name)
}

func TestNowPlayingFromProps(t *testing.T) {
	props := map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant("Playing"),
		"Position":       dbus.MakeVariant(int64(30_000_000)),
		"Metadata": dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:title":  dbus.MakeVariant("Song"),
			"xesam:artist": dbus.MakeVariant([]string{"A", "B"}),
			"xesam:album":  dbus.MakeVariant("Album"),
			"mpris:artUrl": dbus.MakeVariant("file:///tmp/art.png"),
			"mpris:length": dbus.MakeVariant(uint64(180_000_000)),
		}),
	}
	np := nowPlayingFromProps(mprisPrefix+"spotify", props)
	assert.Equal(t, state.NowPlaying{
		Player:   "spotify",
		Status:   state.PlaybackPlaying,
		Title:    "Song",
		Artist:   "A, B",
		Album:    "Album",
		ArtURL:   "file:///tmp/art.png",
		Length:   3 * time.Minute,
		Position: 30 * time.Second,
	}, np)

	bare := nowPlayingFromProps(mprisPrefix+"vlc", map[string]dbus.Variant{})
	assert.Equal(t, state.PlaybackStopped, bare.Status)
	assert.False(t, bare.HasTrack())
}

func TestMPRISMethod(t *testing.T) {
	m, err := mprisMethod(state.MediaNext)
	require.NoError(t, err)
	assert.Equal(t, "Next", m)
	_, err = mprisMethod("rewind")
	assert.Error(t, err)
}

func TestPlayerctl(t *testing.T) {
	run := newFakeRunner("playerctl")
	run.outputs["playerctl metadata --format "+playerctlFormat] = "spotify\tPaused\tSong\tArtist\tAlbum\t\t240000000\t1000000\n"
	np, err := NewPlayerctl(run).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "spotify", np.Player)
	assert.Equal(t, state.PlaybackPaused, np.Status)
	assert.Equal(t, "Song", np.Title)
	assert.Equal(t, 4*time.Minute, np.Length)
	assert.Equal(t, time.Second, np.Position)

	idle := newFakeRunner("playerctl")
	idle.errs["playerctl metadata --format "+playerctlFormat] = fmt.Errorf("playerctl: exit status 1: No players found")
	np, err = NewPlayerctl(idle).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.PlaybackStopped, np.Status)
}

func TestPlayerctlControl(t *testing.T) {
	run := newFakeRunner("playerctl")
	c := NewPlayerctlControl(run)
	require.NoError(t, c.Write(context.Background(), state.MediaPlayPause))
	assert.Equal(t, []string{"playerctl play-pause"}, run.calls)
	assert.Error(t, c.Write(context.Background(), "eject"))
	_, err := c.Read(context.Background())
	assert.Error(t, err)
}

func TestBatteryFromUPower(t *testing.T) {
	b := batteryFromUPower(map[string]dbus.Variant{
		"IsPresent":   dbus.MakeVariant(true),
		"Percentage":  dbus.MakeVariant(42.0),
		"State":       dbus.MakeVariant(uint32(upowerDischarging)),
		"TimeToEmpty": dbus.MakeVariant(int64(3600)),
	}, true)
	assert.Equal(t, state.Battery{Present: true, Percent: 42, TimeToEmpty: time.Hour}, b)

	b = batteryFromUPower(map[string]dbus.Variant{
		"IsPresent":  dbus.MakeVariant(true),
		"Percentage": dbus.MakeVariant(80.0),
		"State":      dbus.MakeVariant(uint32(upowerCharging)),
	}, false)
	assert.True(t, b.Charging)
	assert.True(t, b.OnAC)
}

func TestPowerSupply(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "AC", "type"), "Mains\n")
	writeFile(t, filepath.Join(root, "AC", "online"), "0\n")
	writeFile(t, filepath.Join(root, "BAT0", "type"), "Battery\n")
	writeFile(t, filepath.Join(root, "BAT0", "capacity"), "57\n")
	writeFile(t, filepath.Join(root, "BAT0", "status"), "Discharging\n")

	p := NewPowerSupply(root)
	require.True(t, p.Probe(context.Background()))
	b, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.Battery{Present: true, Percent: 57}, b)

	writeFile(t, filepath.Join(root, "AC", "online"), "1\n")
	writeFile(t, filepath.Join(root, "BAT0", "status"), "Charging\n")
	b, err = p.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Charging)
	assert.True(t, b.OnAC)
}

func TestPowerSupplyDesktop(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "AC", "type"), "Mains\n")
	writeFile(t, filepath.Join(root, "AC", "online"), "1\n")
	b, err := NewPowerSupply(root).Read(context.Background())
	require.NoError(t, err)
	assert.False(t, b.Present)
	assert.True(t, b.OnAC)
}

func TestConnectionKind(t *testing.T) {
	assert.Equal(t, state.ConnectionWiFi, connectionKind("802-11-wireless"))
	assert.Equal(t, state.ConnectionEthernet, connectionKind("802-3-ethernet"))
	assert.Equal(t, state.ConnectionOther, connectionKind("vpn"))
	assert.Equal(t, state.ConnectionNone, connectionKind(""))
}

func TestNetworkFromInterfaces(t *testing.T) {
	ifaces := gnet.InterfaceStatList{
		{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: gnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
		{Name: "wlp2s0", Flags: []string{"up", "broadcast"}, Addrs: gnet.InterfaceAddrList{{Addr: "192.168.1.20/24"}}},
		{Name: "enp3s0", Flags: []string{"broadcast"}, Addrs: gnet.InterfaceAddrList{{Addr: "10.0.0.2/24"}}},
	}
	n := networkFromInterfaces(ifaces)
	assert.Equal(t, state.Network{Online: true, Kind: state.ConnectionWiFi, Name: "wlp2s0", Interface: "wlp2s0"}, n)

	ifaces[2].Flags = append(ifaces[2].Flags, "up")
	n = networkFromInterfaces(ifaces)
	assert.Equal(t, state.ConnectionEthernet, n.Kind)
	assert.Equal(t, "enp3s0", n.Interface)

	n = networkFromInterfaces(gnet.InterfaceStatList{ifaces[0]})
	assert.False(t, n.Online)
	assert.Equal(t, state.ConnectionNone, n.Kind)
}

func TestInterfacesBackend(t *testing.T) {
	i := &Interfaces{list: func(context.Context) (gnet.InterfaceStatList, error) {
		return nil, errors.New("boom")
	}}
	_, err := i.Read(context.Background())
	assert.Error(t, err)
}

func TestBluetoothFromObjects(t *testing.T) {
	objs := managedObjects{
		"/org/bluez/hci0": {
			bluezAdapterIface: {"Powered": dbus.MakeVariant(true)},
		},
		"/org/bluez/hci0/dev_BB": {
			bluezDeviceIface: {
				"Address":   dbus.MakeVariant("BB:BB"),
				"Alias":     dbus.MakeVariant("Headphones"),
				"Icon":      dbus.MakeVariant("audio-headset"),
				"Connected": dbus.MakeVariant(true),
			},
			bluezBatteryIface: {"Percentage": dbus.MakeVariant(byte(80))},
		},
		"/org/bluez/hci0/dev_AA": {
			bluezDeviceIface: {
				"Address":   dbus.MakeVariant("AA:AA"),
				"Name":      dbus.MakeVariant("Mouse"),
				"Connected": dbus.MakeVariant(true),
			},
		},
		"/org/bluez/hci0/dev_CC": {
			bluezDeviceIface: {
				"Address":   dbus.MakeVariant("CC:CC"),
				"Alias":     dbus.MakeVariant("Speaker"),
				"Connected": dbus.MakeVariant(false),
			},
		},
	}
	bt := bluetoothFromObjects(objs)
	assert.True(t, bt.Powered)
	assert.Equal(t, []state.BluetoothDevice{
		{Address: "AA:AA", Name: "Mouse"},
		{Address: "BB:BB", Name: "Headphones", Icon: "audio-headset", Battery: 80},
	}, bt.Devices)
}

func TestBluetoothctl(t *testing.T) {
	run := newFakeRunner("bluetoothctl")
	run.outputs["bluetoothctl show"] = "Controller 00:11:22:33:44:55 (public)\n\tName: laptop\n\tPowered: yes\n"
	run.outputs["bluetoothctl devices Connected"] = "Device BB:BB Headphones Pro\nDevice AA:AA Mouse\n"
	run.outputs["bluetoothctl info BB:BB"] = "Device BB:BB (public)\n\tBattery Percentage: 0x5a (90)\n"
	bt, err := NewBluetoothctl(run).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, bt.Powered)
	assert.Equal(t, []state.BluetoothDevice{
		{Address: "AA:AA", Name: "Mouse"},
		{Address: "BB:BB", Name: "Headphones Pro", Battery: 90},
	}, bt.Devices)
}

func TestSensors(t *testing.T) {
	proc := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "self"), 0o755))
	writeFile(t, filepath.Join(proc, "100", "comm"), "zoom\n")
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "100", "fd"), 0o755))
	require.NoError(t, os.Symlink("/dev/video0", filepath.Join(proc, "100", "fd", "7")))
	writeFile(t, filepath.Join(proc, "200", "comm"), "bash\n")
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "200", "fd"), 0o755))
	require.NoError(t, os.Symlink("/dev/pts/0", filepath.Join(proc, "200", "fd", "0")))

	run := newFakeRunner("pactl")
	run.outputs["pactl list source-outputs"] = "Source Output #12\n\tProperties:\n\t\tapplication.name = \"Firefox\"\n\t\tmedia.name = \"capture\"\n"

	s := NewSensors(proc, run)
	require.True(t, s.Probe(context.Background()))
	p, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.Privacy{Camera: true, Mic: true, Apps: []string{"Firefox", "zoom"}}, p)
}

func TestSensorsIdle(t *testing.T) {
	proc := t.TempDir()
	p, err := NewSensors(proc, newFakeRunner()).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.Privacy{}, p)
}

func TestGsettings(t *testing.T) {
	run := newFakeRunner("gsettings")
	run.outputs["gsettings get org.gnome.desktop.notifications show-banners"] = "false\n"
	g := NewGsettings(run)
	ctx := context.Background()

	require.True(t, g.Probe(ctx))
	f, err := g.Read(ctx)
	require.NoError(t, err)
	assert.True(t, f.Enabled)

	require.NoError(t, g.Write(ctx, state.Focus{Enabled: false}))
	assert.Contains(t, run.calls, "gsettings set org.gnome.desktop.notifications show-banners true")

	run.outputs["gsettings get org.gnome.desktop.notifications show-banners"] = "No such schema\n"
	_, err = g.Read(ctx)
	assert.Error(t, err)
	assert.False(t, g.Probe(ctx))
}

func TestEventsFile(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "events.yaml")
	writeFile(t, path, `events:
  - id: late
    title: Lunch
    start: 2026-03-02T12:00:00Z
    end: 2026-03-02T13:00:00Z
  - id: soon
    title: Standup
    start: 2026-03-02T09:10:00Z
    end: 2026-03-02T09:25:00Z
  - id: over
    title: Breakfast
    start: 2026-03-02T07:00:00Z
    end: 2026-03-02T08:00:00Z
  - id: far
    title: Next week
    start: 2026-03-09T09:00:00Z
`)
	f := NewEventsFile(path, 24*time.Hour, func() time.Time { return now })
	cal, err := f.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, cal.Events, 2)
	assert.Equal(t, "soon", cal.Events[0].ID)
	assert.Equal(t, "late", cal.Events[1].ID)

	next, ok := cal.Next(now)
	require.True(t, ok)
	assert.Equal(t, "Standup", next.Title)
}

func TestEventsFileMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	cal, err := NewEventsFile(filepath.Join(dir, "none.yaml"), time.Hour, nil).Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cal.Events)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "events: [unclosed")
	_, err = NewEventsFile(bad, time.Hour, nil).Read(context.Background())
	assert.Error(t, err)
}

func TestGoogleCalendarProbeNeedsFiles(t *testing.T) {
	dir := t.TempDir()
	g := NewGoogleCalendar(GoogleOptions{
		CredentialsFile: filepath.Join(dir, "google_credentials.json"),
		TokenFile:       filepath.Join(dir, "google_token.json"),
	})
	assert.False(t, g.Probe(context.Background()))
	writeFile(t, filepath.Join(dir, "google_credentials.json"), "{}")
	writeFile(t, filepath.Join(dir, "google_token.json"), "{}")
	assert.True(t, g.Probe(context.Background()))
}

func TestGoogleCalendarServesCache(t *testing.T) {
	g := NewGoogleCalendar(GoogleOptions{})
	want := state.Calendar{Events: []state.Event{{ID: "x", Title: "Cached"}}}
	g.cache.Set(eventsCacheKey, want, 0)
	got, err := g.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadTokenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := loadToken(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	path := filepath.Join(dir, "token.json")
	writeFile(t, path, `{"access_token":"a","refresh_token":"r","token_type":"Bearer"}`)
	tok, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", tok.RefreshToken)
}

func TestNewAssignsSeparateInstances(t *testing.T) {
	p, b := New(Options{Runner: newFakeRunner(), EventsFile: "events.yaml"})
	t.Cleanup(func() { _ = p.Close() })

	require.Len(t, b.VolumeRead, 3)
	require.Len(t, b.VolumeWrite, 3)
	for i := range b.VolumeRead {
		assert.NotSame(t, b.VolumeRead[i].Backend, b.VolumeWrite[i].Backend)
		assert.Equal(t, i, b.VolumeRead[i].Rank)
	}
	assert.Equal(t, "pactl", b.VolumeRead[0].Backend.Name())
	assert.Equal(t, "logind", b.BrightnessWrite[1].Backend.Name())
	require.Len(t, b.CalendarRead, 1)
	assert.Equal(t, "events-file", b.CalendarRead[0].Backend.Name())

	_, withGoogle := New(Options{Runner: newFakeRunner(), Google: true})
	assert.Equal(t, "google-calendar", withGoogle.CalendarRead[0].Backend.Name())
}
