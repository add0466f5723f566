package engine

import (
	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

// Backends lists the candidate strategies for every platform capability.
// An empty list leaves the capability unavailable. Each backend instance
// must appear in exactly one list.
type Backends struct {
	VolumeRead        []capability.Strategy[float64]
	VolumeWrite       []capability.Strategy[float64]
	BrightnessRead    []capability.Strategy[float64]
	BrightnessWrite   []capability.Strategy[float64]
	NowPlayingRead    []capability.Strategy[state.NowPlaying]
	NowPlayingCommand []capability.Strategy[state.MediaCommand]
	BatteryRead       []capability.Strategy[state.Battery]
	NetworkRead       []capability.Strategy[state.Network]
	BluetoothRead     []capability.Strategy[state.Bluetooth]
	PrivacyRead       []capability.Strategy[state.Privacy]
	FocusRead         []capability.Strategy[state.Focus]
	FocusWrite        []capability.Strategy[state.Focus]
	CalendarRead      []capability.Strategy[state.Calendar]
	HealthRead        []capability.Strategy[state.Health]
}
