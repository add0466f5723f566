// Package platform implements the Linux backends behind each capability:
// D-Bus services first, then sysfs and procfs, then helper programs.
package platform

import (
	"errors"
	"time"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/engine"
	"github.com/glance-io/glance/internal/daemon/state"
)

// Options locates the files and roots the backends read.
type Options struct {
	Runner Runner

	BacklightRoot   string
	PowerSupplyRoot string
	ProcRoot        string

	EventsFile            string
	GoogleCredentialsFile string
	GoogleTokenFile       string
	Google                bool
	CalendarID            string
	CalendarLookahead     time.Duration
	CalendarCacheTTL      time.Duration
}

// Platform owns the bus connections shared by the backends.
type Platform struct {
	session *Bus
	system  *Bus
}

// New builds the strategy lists in rank order. Read and write lists get
// separate backend instances because a capability owns its backends.
func New(opts Options) (*Platform, engine.Backends) {
	run := opts.Runner
	if run == nil {
		run = ExecRunner{}
	}
	p := &Platform{session: SessionBus(), system: SystemBus()}

	b := engine.Backends{
		VolumeRead: ranked[float64](
			NewPactl(run), NewWpctl(run), NewAmixer(run)),
		VolumeWrite: ranked[float64](
			NewPactl(run), NewWpctl(run), NewAmixer(run)),
		BrightnessRead: ranked[float64](
			NewBacklight(opts.BacklightRoot), NewBrightnessctl(run)),
		BrightnessWrite: ranked[float64](
			NewBacklight(opts.BacklightRoot), NewLogind(p.system, opts.BacklightRoot), NewBrightnessctl(run)),
		NowPlayingRead: ranked[state.NowPlaying](
			NewMPRIS(p.session), NewPlayerctl(run)),
		NowPlayingCommand: ranked[state.MediaCommand](
			NewMPRISControl(p.session), NewPlayerctlControl(run)),
		BatteryRead: ranked[state.Battery](
			NewUPower(p.system), NewPowerSupply(opts.PowerSupplyRoot)),
		NetworkRead: ranked[state.Network](
			NewNetworkManager(p.system), NewInterfaces()),
		BluetoothRead: ranked[state.Bluetooth](
			NewBlueZ(p.system), NewBluetoothctl(run)),
		PrivacyRead: ranked[state.Privacy](
			NewSensors(opts.ProcRoot, run)),
		FocusRead: ranked[state.Focus](
			NewDunst(p.session), NewGsettings(run)),
		FocusWrite: ranked[state.Focus](
			NewDunst(p.session), NewGsettings(run)),
		HealthRead: ranked[state.Health](
			NewGopsutil()),
	}

	var calendars []capability.Backend[state.Calendar]
	if opts.Google {
		calendars = append(calendars, NewGoogleCalendar(GoogleOptions{
			CredentialsFile: opts.GoogleCredentialsFile,
			TokenFile:       opts.GoogleTokenFile,
			CalendarID:      opts.CalendarID,
			Lookahead:       opts.CalendarLookahead,
			CacheTTL:        opts.CalendarCacheTTL,
		}))
	}
	calendars = append(calendars, NewEventsFile(opts.EventsFile, opts.CalendarLookahead, nil))
	b.CalendarRead = ranked(calendars...)

	return p, b
}

// Close drops both bus connections.
func (p *Platform) Close() error {
	return errors.Join(p.session.Close(), p.system.Close())
}

// ranked assigns ranks in argument order.
func ranked[V any](backends ...capability.Backend[V]) []capability.Strategy[V] {
	out := make([]capability.Strategy[V], len(backends))
	for i, be := range backends {
		out[i] = capability.Strategy[V]{Rank: i, Backend: be}
	}
	return out
}
