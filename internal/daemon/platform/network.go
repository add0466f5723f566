package platform

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const (
	nmService       = "org.freedesktop.NetworkManager"
	nmPath          = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface         = "org.freedesktop.NetworkManager"
	nmActiveIface   = "org.freedesktop.NetworkManager.Connection.Active"
	nmDeviceIface   = "org.freedesktop.NetworkManager.Device"
	nmWirelessIface = "org.freedesktop.NetworkManager.Device.Wireless"
	nmAPIface       = "org.freedesktop.NetworkManager.AccessPoint"

	// nmStateConnectedSite and above mean at least local connectivity.
	nmStateConnectedSite = 60
)

func connectionKind(nmType string) state.ConnectionKind {
	switch nmType {
	case "802-11-wireless":
		return state.ConnectionWiFi
	case "802-3-ethernet":
		return state.ConnectionEthernet
	case "":
		return state.ConnectionNone
	}
	return state.ConnectionOther
}

// NetworkManager reads the primary connection over the system bus.
type NetworkManager struct {
	capability.ReadOnly[state.Network]
	bus *Bus
}

func NewNetworkManager(bus *Bus) *NetworkManager { return &NetworkManager{bus: bus} }

func (n *NetworkManager) Name() string { return "networkmanager" }

func (n *NetworkManager) Probe(ctx context.Context) bool { return n.bus.HasName(nmService) }

func (n *NetworkManager) Read(ctx context.Context) (state.Network, error) {
	conn, err := n.bus.Conn()
	if err != nil {
		return state.Network{}, err
	}
	props, err := properties(conn.Object(nmService, nmPath), nmIface)
	if err != nil {
		return state.Network{}, err
	}
	nw := state.Network{Kind: state.ConnectionNone}
	if variantInt(props, "State") < nmStateConnectedSite {
		return nw, nil
	}
	primary := variantPath(props, "PrimaryConnection")
	if primary == "" || primary == "/" {
		return nw, nil
	}
	active, err := properties(conn.Object(nmService, primary), nmActiveIface)
	if err != nil {
		return state.Network{}, err
	}
	nw.Online = true
	nw.Name = variantString(active, "Id")
	nw.Kind = connectionKind(variantString(active, "Type"))

	devices, _ := active["Devices"].Value().([]dbus.ObjectPath)
	if len(devices) == 0 {
		return nw, nil
	}
	dev := conn.Object(nmService, devices[0])
	if v, err := dev.GetProperty(nmDeviceIface + ".Interface"); err == nil {
		nw.Interface, _ = v.Value().(string)
	}
	if nw.Kind == state.ConnectionWiFi {
		if v, err := dev.GetProperty(nmWirelessIface + ".ActiveAccessPoint"); err == nil {
			if ap, ok := v.Value().(dbus.ObjectPath); ok && ap != "/" {
				if s, err := conn.Object(nmService, ap).GetProperty(nmAPIface + ".Strength"); err == nil {
					if b, ok := s.Value().(byte); ok {
						nw.Signal = int(b)
					}
				}
			}
		}
	}
	return nw, nil
}

// interfaceLister is gnet.InterfacesWithContext, swappable in tests.
type interfaceLister func(ctx context.Context) (gnet.InterfaceStatList, error)

// Interfaces infers connectivity from the interface table: the first up,
// non-loopback interface with a global unicast address wins.
type Interfaces struct {
	capability.ReadOnly[state.Network]
	list interfaceLister
}

func NewInterfaces() *Interfaces { return &Interfaces{list: gnet.InterfacesWithContext} }

func (i *Interfaces) Name() string { return "interfaces" }

func (i *Interfaces) Probe(ctx context.Context) bool { return true }

func (i *Interfaces) Read(ctx context.Context) (state.Network, error) {
	ifaces, err := i.list(ctx)
	if err != nil {
		return state.Network{}, fmt.Errorf("listing interfaces: %w", err)
	}
	return networkFromInterfaces(ifaces), nil
}

func networkFromInterfaces(ifaces gnet.InterfaceStatList) state.Network {
	sorted := append(gnet.InterfaceStatList(nil), ifaces...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return kindRank(sorted[a].Name) < kindRank(sorted[b].Name)
	})
	for _, iface := range sorted {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		if !hasGlobalAddr(iface.Addrs) {
			continue
		}
		return state.Network{
			Online:    true,
			Kind:      interfaceKind(iface.Name),
			Name:      iface.Name,
			Interface: iface.Name,
		}
	}
	return state.Network{Kind: state.ConnectionNone}
}

func interfaceKind(name string) state.ConnectionKind {
	switch {
	case strings.HasPrefix(name, "wl"):
		return state.ConnectionWiFi
	case strings.HasPrefix(name, "en"), strings.HasPrefix(name, "eth"):
		return state.ConnectionEthernet
	}
	return state.ConnectionOther
}

func kindRank(name string) int {
	switch interfaceKind(name) {
	case state.ConnectionEthernet:
		return 0
	case state.ConnectionWiFi:
		return 1
	}
	return 2
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func hasGlobalAddr(addrs gnet.InterfaceAddrList) bool {
	for _, a := range addrs {
		ip, _, err := net.ParseCIDR(a.Addr)
		if err != nil {
			ip = net.ParseIP(a.Addr)
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}
