package platform

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const (
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	propertiesIface  = "org.freedesktop.DBus.Properties"

	// mprisRefreshTimeout bounds the re-read after a change signal.
	mprisRefreshTimeout = time.Second
)

// mprisCandidate is one player on the bus.
type mprisCandidate struct {
	name   string
	status state.PlaybackStatus
}

// pickPlayer prefers a playing player, then a paused one, then any, with
// ties broken by bus name.
func pickPlayer(cands []mprisCandidate) (mprisCandidate, bool) {
	if len(cands) == 0 {
		return mprisCandidate{}, false
	}
	rank := func(s state.PlaybackStatus) int {
		switch s {
		case state.PlaybackPlaying:
			return 0
		case state.PlaybackPaused:
			return 1
		}
		return 2
	}
	sorted := append([]mprisCandidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].status), rank(sorted[j].status)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].name < sorted[j].name
	})
	return sorted[0], true
}

func parsePlaybackStatus(s string) state.PlaybackStatus {
	switch strings.ToLower(s) {
	case "playing":
		return state.PlaybackPlaying
	case "paused":
		return state.PlaybackPaused
	}
	return state.PlaybackStopped
}

// nowPlayingFromProps converts MPRIS Player properties.
func nowPlayingFromProps(player string, props map[string]dbus.Variant) state.NowPlaying {
	np := state.NowPlaying{
		Player: strings.TrimPrefix(player, mprisPrefix),
		Status: parsePlaybackStatus(variantString(props, "PlaybackStatus")),
	}
	if us := variantInt(props, "Position"); us > 0 {
		np.Position = time.Duration(us) * time.Microsecond
	}
	meta, _ := props["Metadata"].Value().(map[string]dbus.Variant)
	if meta == nil {
		return np
	}
	np.Title = variantString(meta, "xesam:title")
	np.Artist = strings.Join(variantStrings(meta, "xesam:artist"), ", ")
	np.Album = variantString(meta, "xesam:album")
	np.ArtURL = variantString(meta, "mpris:artUrl")
	if us := variantInt(meta, "mpris:length"); us > 0 {
		np.Length = time.Duration(us) * time.Microsecond
	}
	return np
}

// mprisClient holds the player discovery shared by the MPRIS read and
// command backends.
type mprisClient struct {
	bus *Bus
}

func (m mprisClient) probe() bool {
	_, err := m.bus.Conn()
	return err == nil
}

func (m mprisClient) players(ctx context.Context) ([]mprisCandidate, error) {
	conn, err := m.bus.Conn()
	if err != nil {
		return nil, err
	}
	var names []string
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("listing bus names: %w", err)
	}
	var cands []mprisCandidate
	for _, n := range names {
		if !strings.HasPrefix(n, mprisPrefix) {
			continue
		}
		v, err := conn.Object(n, mprisPath).GetProperty(mprisPlayerIface + ".PlaybackStatus")
		if err != nil {
			continue
		}
		s, _ := v.Value().(string)
		cands = append(cands, mprisCandidate{name: n, status: parsePlaybackStatus(s)})
	}
	return cands, nil
}

func (m mprisClient) active(ctx context.Context) (string, bool, error) {
	cands, err := m.players(ctx)
	if err != nil {
		return "", false, err
	}
	c, ok := pickPlayer(cands)
	return c.name, ok, nil
}

// MPRIS reads the most relevant media player over the session bus and
// pushes changes from PropertiesChanged signals.
type MPRIS struct {
	capability.ReadOnly[state.NowPlaying]
	client mprisClient
}

func NewMPRIS(bus *Bus) *MPRIS { return &MPRIS{client: mprisClient{bus: bus}} }

func (m *MPRIS) Name() string { return "mpris" }

func (m *MPRIS) Probe(ctx context.Context) bool { return m.client.probe() }

func (m *MPRIS) Read(ctx context.Context) (state.NowPlaying, error) {
	name, ok, err := m.client.active(ctx)
	if err != nil {
		return state.NowPlaying{}, err
	}
	if !ok {
		return state.NowPlaying{Status: state.PlaybackStopped}, nil
	}
	conn, err := m.client.bus.Conn()
	if err != nil {
		return state.NowPlaying{}, err
	}
	props, err := properties(conn.Object(name, mprisPath), mprisPlayerIface)
	if err != nil {
		return state.NowPlaying{}, err
	}
	return nowPlayingFromProps(name, props), nil
}

// Identity is the bus name of the selected player.
func (m *MPRIS) Identity(ctx context.Context) (string, error) {
	name, _, err := m.client.active(ctx)
	return name, err
}

// Subscribe re-reads the player whenever any MPRIS player reports a
// property change.
func (m *MPRIS) Subscribe(fn func(state.NowPlaying)) (capability.Subscription, error) {
	conn, err := m.client.bus.Conn()
	if err != nil {
		return nil, err
	}
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(mprisPath),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}
	if err := conn.AddMatchSignal(match...); err != nil {
		return nil, fmt.Errorf("subscribing to MPRIS changes: %w", err)
	}
	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	sub := &signalSubscription{conn: conn, match: match, signals: signals, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-sub.done:
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Path != mprisPath || len(sig.Body) == 0 {
					continue
				}
				if iface, _ := sig.Body[0].(string); iface != mprisPlayerIface {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), mprisRefreshTimeout)
				np, err := m.Read(ctx)
				cancel()
				if err == nil {
					fn(np)
				}
			}
		}
	}()
	return sub, nil
}

type signalSubscription struct {
	conn    *dbus.Conn
	match   []dbus.MatchOption
	signals chan *dbus.Signal
	done    chan struct{}
	once    sync.Once
}

func (s *signalSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.conn.RemoveSignal(s.signals)
		err = s.conn.RemoveMatchSignal(s.match...)
	})
	return err
}

// MPRISControl sends transport commands to the selected player.
type MPRISControl struct {
	capability.WriteOnly[state.MediaCommand]
	client mprisClient
}

func NewMPRISControl(bus *Bus) *MPRISControl {
	return &MPRISControl{client: mprisClient{bus: bus}}
}

func (m *MPRISControl) Name() string { return "mpris" }

func (m *MPRISControl) Probe(ctx context.Context) bool { return m.client.probe() }

func (m *MPRISControl) Write(ctx context.Context, cmd state.MediaCommand) error {
	method, err := mprisMethod(cmd)
	if err != nil {
		return err
	}
	name, ok, err := m.client.active(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no media player: %w", capability.ErrEmpty)
	}
	conn, err := m.client.bus.Conn()
	if err != nil {
		return err
	}
	if call := conn.Object(name, mprisPath).CallWithContext(ctx, mprisPlayerIface+"."+method, 0); call.Err != nil {
		return fmt.Errorf("%s %s: %w", name, method, call.Err)
	}
	return nil
}

func mprisMethod(cmd state.MediaCommand) (string, error) {
	switch cmd {
	case state.MediaPlayPause:
		return "PlayPause", nil
	case state.MediaNext:
		return "Next", nil
	case state.MediaPrevious:
		return "Previous", nil
	}
	return "", fmt.Errorf("media command %q: %w", cmd, capability.ErrUnsupported)
}

// playerctlFormat yields one tab-separated line per player.
const playerctlFormat = "{{playerName}}\t{{status}}\t{{xesam:title}}\t{{xesam:artist}}\t{{xesam:album}}\t{{mpris:artUrl}}\t{{mpris:length}}\t{{position}}"

// Playerctl is the helper-program fallback for media.
type Playerctl struct{ helper }

func NewPlayerctl(run Runner) *Playerctl {
	return &Playerctl{helper{run: run, program: "playerctl"}}
}

func (p *Playerctl) Name() string { return "playerctl" }

func (p *Playerctl) Read(ctx context.Context) (state.NowPlaying, error) {
	out, err := p.output(ctx, "metadata", "--format", playerctlFormat)
	if err != nil {
		if strings.Contains(err.Error(), "No players found") {
			return state.NowPlaying{Status: state.PlaybackStopped}, nil
		}
		return state.NowPlaying{}, err
	}
	return parsePlayerctl(out)
}

func (p *Playerctl) Write(ctx context.Context, v state.NowPlaying) error {
	return capability.ErrUnsupported
}

// PlayerctlControl sends transport commands through playerctl.
type PlayerctlControl struct {
	capability.WriteOnly[state.MediaCommand]
	helper
}

func NewPlayerctlControl(run Runner) *PlayerctlControl {
	return &PlayerctlControl{helper: helper{run: run, program: "playerctl"}}
}

func (p *PlayerctlControl) Name() string { return "playerctl" }

func (p *PlayerctlControl) Write(ctx context.Context, cmd state.MediaCommand) error {
	switch cmd {
	case state.MediaPlayPause, state.MediaNext, state.MediaPrevious:
	default:
		return fmt.Errorf("media command %q: %w", cmd, capability.ErrUnsupported)
	}
	_, err := p.output(ctx, string(cmd))
	return err
}

func parsePlayerctl(s string) (state.NowPlaying, error) {
	line := strings.TrimRight(strings.SplitN(s, "\n", 2)[0], "\r")
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return state.NowPlaying{}, fmt.Errorf("unexpected playerctl output %q: %w", line, capability.ErrEmpty)
	}
	np := state.NowPlaying{
		Player: fields[0],
		Status: parsePlaybackStatus(fields[1]),
		Title:  fields[2],
		Artist: fields[3],
		Album:  fields[4],
		ArtURL: fields[5],
	}
	if us, err := strconv.ParseInt(fields[6], 10, 64); err == nil && us > 0 {
		np.Length = time.Duration(us) * time.Microsecond
	}
	if us, err := strconv.ParseInt(fields[7], 10, 64); err == nil && us > 0 {
		np.Position = time.Duration(us) * time.Microsecond
	}
	return np, nil
}
