package platform

import (
	"bufio"
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const (
	bluezService      = "org.bluez"
	bluezAdapterIface = "org.bluez.Adapter1"
	bluezDeviceIface  = "org.bluez.Device1"
	bluezBatteryIface = "org.bluez.Battery1"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// bluetoothFromObjects extracts adapter power and connected devices from
// the BlueZ object tree.
func bluetoothFromObjects(objs managedObjects) state.Bluetooth {
	var bt state.Bluetooth
	for _, ifaces := range objs {
		if a, ok := ifaces[bluezAdapterIface]; ok && variantBool(a, "Powered") {
			bt.Powered = true
		}
		d, ok := ifaces[bluezDeviceIface]
		if !ok || !variantBool(d, "Connected") {
			continue
		}
		dev := state.BluetoothDevice{
			Address: variantString(d, "Address"),
			Name:    variantString(d, "Alias"),
			Icon:    variantString(d, "Icon"),
		}
		if dev.Name == "" {
			dev.Name = variantString(d, "Name")
		}
		if dev.Name == "" {
			dev.Name = dev.Address
		}
		if b, ok := ifaces[bluezBatteryIface]; ok {
			dev.Battery = int(variantInt(b, "Percentage"))
		}
		bt.Devices = append(bt.Devices, dev)
	}
	sortDevices(bt.Devices)
	return bt
}

func sortDevices(devs []state.BluetoothDevice) {
	sort.Slice(devs, func(i, j int) bool { return devs[i].Address < devs[j].Address })
}

// BlueZ reads adapters and devices over the system bus.
type BlueZ struct {
	capability.ReadOnly[state.Bluetooth]
	bus *Bus
}

func NewBlueZ(bus *Bus) *BlueZ { return &BlueZ{bus: bus} }

func (b *BlueZ) Name() string { return "bluez" }

func (b *BlueZ) Probe(ctx context.Context) bool { return b.bus.HasName(bluezService) }

func (b *BlueZ) Read(ctx context.Context) (state.Bluetooth, error) {
	conn, err := b.bus.Conn()
	if err != nil {
		return state.Bluetooth{}, err
	}
	var objs managedObjects
	err = conn.Object(bluezService, "/").CallWithContext(ctx,
		"org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objs)
	if err != nil {
		return state.Bluetooth{}, err
	}
	return bluetoothFromObjects(objs), nil
}

// Bluetoothctl is the helper-program fallback.
type Bluetoothctl struct {
	capability.ReadOnly[state.Bluetooth]
	helper
}

func NewBluetoothctl(run Runner) *Bluetoothctl {
	return &Bluetoothctl{helper: helper{run: run, program: "bluetoothctl"}}
}

func (b *Bluetoothctl) Name() string { return "bluetoothctl" }

func (b *Bluetoothctl) Read(ctx context.Context) (state.Bluetooth, error) {
	show, err := b.output(ctx, "show")
	if err != nil {
		return state.Bluetooth{}, err
	}
	devices, err := b.output(ctx, "devices", "Connected")
	if err != nil {
		return state.Bluetooth{}, err
	}
	bt := state.Bluetooth{Powered: parseBluetoothctlPowered(show)}
	bt.Devices = parseBluetoothctlDevices(devices)
	for i := range bt.Devices {
		info, err := b.output(ctx, "info", bt.Devices[i].Address)
		if err != nil {
			continue
		}
		bt.Devices[i].Battery = parseBluetoothctlBattery(info)
	}
	return bt, nil
}

func parseBluetoothctlPowered(s string) bool {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "Powered:"); ok {
			return strings.TrimSpace(v) == "yes"
		}
	}
	return false
}

// parseBluetoothctlDevices reads "Device AA:BB:CC:DD:EE:FF Name" lines.
func parseBluetoothctlDevices(s string) []state.BluetoothDevice {
	var devs []state.BluetoothDevice
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		fields := strings.SplitN(strings.TrimSpace(sc.Text()), " ", 3)
		if len(fields) < 2 || fields[0] != "Device" {
			continue
		}
		dev := state.BluetoothDevice{Address: fields[1], Name: fields[1]}
		if len(fields) == 3 {
			dev.Name = fields[2]
		}
		devs = append(devs, dev)
	}
	sortDevices(devs)
	return devs
}

// parseBluetoothctlBattery finds "Battery Percentage: 0x5a (90)" in info
// output.
func parseBluetoothctlBattery(s string) int {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "Battery Percentage:") {
			continue
		}
		i := strings.Index(line, "(")
		j := strings.LastIndex(line, ")")
		if i < 0 || j <= i {
			return 0
		}
		n, _ := strconv.Atoi(line[i+1 : j])
		return n
	}
	return 0
}
