package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const (
	upowerService       = "org.freedesktop.UPower"
	upowerPath          = dbus.ObjectPath("/org/freedesktop/UPower")
	upowerDisplayDevice = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	upowerDeviceIface   = "org.freedesktop.UPower.Device"

	// DefaultPowerSupplyRoot is where the kernel exposes power supplies.
	DefaultPowerSupplyRoot = "/sys/class/power_supply"
)

// UPower device states.
const (
	upowerCharging      = 1
	upowerDischarging   = 2
	upowerFullyCharged  = 4
	upowerPendingCharge = 5
)

// batteryFromUPower converts DisplayDevice properties.
func batteryFromUPower(props map[string]dbus.Variant, onBattery bool) state.Battery {
	b := state.Battery{
		Present: variantBool(props, "IsPresent"),
		Percent: variantFloat(props, "Percentage"),
		OnAC:    !onBattery,
	}
	switch variantInt(props, "State") {
	case upowerCharging, upowerPendingCharge:
		b.Charging = true
	case upowerFullyCharged:
		b.OnAC = true
	}
	if secs := variantInt(props, "TimeToEmpty"); secs > 0 && !b.Charging {
		b.TimeToEmpty = time.Duration(secs) * time.Second
	}
	return b
}

// UPower reads the aggregate battery over the system bus.
type UPower struct {
	capability.ReadOnly[state.Battery]
	bus *Bus
}

func NewUPower(bus *Bus) *UPower { return &UPower{bus: bus} }

func (u *UPower) Name() string { return "upower" }

func (u *UPower) Probe(ctx context.Context) bool { return u.bus.HasName(upowerService) }

func (u *UPower) Read(ctx context.Context) (state.Battery, error) {
	conn, err := u.bus.Conn()
	if err != nil {
		return state.Battery{}, err
	}
	props, err := properties(conn.Object(upowerService, upowerDisplayDevice), upowerDeviceIface)
	if err != nil {
		return state.Battery{}, err
	}
	onBattery := true
	if v, err := conn.Object(upowerService, upowerPath).GetProperty(upowerService + ".OnBattery"); err == nil {
		onBattery, _ = v.Value().(bool)
	}
	return batteryFromUPower(props, onBattery), nil
}

// PowerSupply reads batteries and AC adapters from sysfs.
type PowerSupply struct {
	capability.ReadOnly[state.Battery]
	root string
}

func NewPowerSupply(root string) *PowerSupply {
	if root == "" {
		root = DefaultPowerSupplyRoot
	}
	return &PowerSupply{root: root}
}

func (p *PowerSupply) Name() string { return "sysfs-power-supply" }

func (p *PowerSupply) Probe(ctx context.Context) bool {
	_, err := os.Stat(p.root)
	return err == nil
}

// Read reports the first battery in name order. A machine without a
// battery yields a known value with Present false.
func (p *PowerSupply) Read(ctx context.Context) (state.Battery, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return state.Battery{}, fmt.Errorf("listing power supplies: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var b state.Battery
	for _, name := range names {
		dir := filepath.Join(p.root, name)
		kind, err := readString(filepath.Join(dir, "type"))
		if err != nil {
			continue
		}
		switch kind {
		case "Mains":
			if online, err := readInt(filepath.Join(dir, "online")); err == nil && online == 1 {
				b.OnAC = true
			}
		case "Battery":
			if b.Present {
				continue
			}
			capacity, err := readInt(filepath.Join(dir, "capacity"))
			if err != nil {
				continue
			}
			b.Present = true
			b.Percent = float64(capacity)
			status, _ := readString(filepath.Join(dir, "status"))
			switch strings.ToLower(status) {
			case "charging":
				b.Charging = true
			case "full", "not charging":
				b.OnAC = true
			}
		}
	}
	return b, nil
}
