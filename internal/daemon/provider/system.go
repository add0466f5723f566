package provider

import (
	"fmt"
	"strings"

	"github.com/glance-io/glance/internal/daemon/state"
)

// Thresholds tunes when system providers become active.
type Thresholds struct {
	BatteryLow float64
	CPUHigh    float64
	MemoryHigh float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{BatteryLow: 20, CPUHigh: 90, MemoryHigh: 90}
}

const unknownLabel = "—"

// Battery is active when the battery is low and discharging.
type Battery struct {
	base
	ch  Reader[state.Battery]
	low float64
}

func NewBattery(ch Reader[state.Battery], t Thresholds) *Battery {
	return &Battery{base: base{IDBattery, PriorityBattery}, ch: ch, low: t.BatteryLow}
}

// SetThresholds applies new thresholds.
func (p *Battery) SetThresholds(t Thresholds) { p.low = t.BatteryLow }

func (p *Battery) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale, Indicators: []Indicator{{Kind: IDBattery, Label: unknownLabel}}}
	}
	b := s.Value
	if !b.Present {
		return Status{Stale: s.Stale}
	}
	discharging := !b.Charging && !b.OnAC
	low := discharging && b.Percent <= p.low
	return Status{
		HasActiveContent: low,
		WantsCompact:     low,
		Stale:            s.Stale,
		Indicators:       []Indicator{{Kind: IDBattery, Label: fmt.Sprintf("%.0f%%", b.Percent), Warn: low}},
		Detail:           b,
	}
}

// Health is active under sustained CPU or memory pressure. It shows in the
// expanded view only.
type Health struct {
	base
	ch Reader[state.Health]
	t  Thresholds
}

func NewHealth(ch Reader[state.Health], t Thresholds) *Health {
	return &Health{base: base{IDHealth, PriorityHealth}, ch: ch, t: t}
}

// SetThresholds applies new thresholds.
func (p *Health) SetThresholds(t Thresholds) { p.t = t }

func (p *Health) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale}
	}
	h := s.Value
	high := h.CPUPercent >= p.t.CPUHigh || h.MemoryPercent >= p.t.MemoryHigh
	return Status{
		HasActiveContent: high,
		Stale:            s.Stale,
		Detail:           h,
	}
}

// Privacy shows camera and microphone indicators.
type Privacy struct {
	base
	ch Reader[state.Privacy]
}

func NewPrivacy(ch Reader[state.Privacy]) *Privacy {
	return &Privacy{base: base{IDPrivacy, PriorityIndicator}, ch: ch}
}

func (p *Privacy) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale}
	}
	var ind []Indicator
	apps := strings.Join(s.Value.Apps, ", ")
	if s.Value.Camera {
		ind = append(ind, Indicator{Kind: "camera", Label: apps, Warn: true})
	}
	if s.Value.Mic {
		ind = append(ind, Indicator{Kind: "mic", Label: apps, Warn: true})
	}
	return Status{Stale: s.Stale, Indicators: ind, Detail: s.Value}
}

// Bluetooth lists connected peripherals.
type Bluetooth struct {
	base
	ch Reader[state.Bluetooth]
}

func NewBluetooth(ch Reader[state.Bluetooth]) *Bluetooth {
	return &Bluetooth{base: base{IDBluetooth, PriorityIndicator}, ch: ch}
}

func (p *Bluetooth) Status() Status {
	s := p.ch.Read()
	// No adapter means no devices, not "last known".
	if !s.Known || (s.Stale && len(s.Value.Devices) == 0) {
		return Status{Stale: s.Stale}
	}
	var ind []Indicator
	for _, d := range s.Value.Devices {
		label := d.Name
		if d.Battery > 0 {
			label = fmt.Sprintf("%s %d%%", d.Name, d.Battery)
		}
		ind = append(ind, Indicator{Kind: IDBluetooth, Label: label, Warn: d.Battery > 0 && d.Battery <= 15})
	}
	return Status{Stale: s.Stale, Indicators: ind, Detail: s.Value}
}

// Network shows connectivity.
type Network struct {
	base
	ch Reader[state.Network]
}

func NewNetwork(ch Reader[state.Network]) *Network {
	return &Network{base: base{IDNetwork, PriorityIndicator}, ch: ch}
}

func (p *Network) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale, Indicators: []Indicator{{Kind: IDNetwork, Label: unknownLabel}}}
	}
	n := s.Value
	ind := Indicator{Kind: string(n.Kind), Label: n.Name}
	if !n.Online {
		ind = Indicator{Kind: IDNetwork, Label: "offline", Warn: true}
	}
	return Status{Stale: s.Stale, Indicators: []Indicator{ind}, Detail: n}
}

// Focus shows the do-not-disturb state.
type Focus struct {
	base
	ch Reader[state.Focus]
}

func NewFocus(ch Reader[state.Focus]) *Focus {
	return &Focus{base: base{IDFocus, PriorityIndicator}, ch: ch}
}

func (p *Focus) Status() Status {
	s := p.ch.Read()
	if !s.Known {
		return Status{Stale: s.Stale}
	}
	var ind []Indicator
	if s.Value.Enabled {
		ind = append(ind, Indicator{Kind: IDFocus, Label: "do not disturb"})
	}
	return Status{Stale: s.Stale, Indicators: ind, Detail: s.Value}
}
