package platform

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// Bus is a lazily connected D-Bus connection shared by the backends that
// talk to the same bus. A failed connect is retried on the next use.
type Bus struct {
	name    string
	connect func() (*dbus.Conn, error)

	mu   sync.Mutex
	conn *dbus.Conn
}

// SessionBus returns a lazy session bus.
func SessionBus() *Bus {
	return &Bus{name: "session", connect: func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }}
}

// SystemBus returns a lazy system bus.
func SystemBus() *Bus {
	return &Bus{name: "system", connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }}
}

// Conn returns the live connection, connecting if needed.
func (b *Bus) Conn() (*dbus.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil && b.conn.Connected() {
		return b.conn, nil
	}
	conn, err := b.connect()
	if err != nil {
		return nil, fmt.Errorf("connecting to %s bus: %w", b.name, err)
	}
	b.conn = conn
	return conn, nil
}

// HasName reports whether a well-known name currently has an owner.
func (b *Bus) HasName(name string) bool {
	conn, err := b.Conn()
	if err != nil {
		return false
	}
	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned)
	return err == nil && owned
}

// Close drops the connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

// properties reads every property of iface on obj.
func properties(obj dbus.BusObject, iface string) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	if err := obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, iface).Store(&props); err != nil {
		return nil, fmt.Errorf("reading %s properties: %w", iface, err)
	}
	return props, nil
}

// Typed accessors over property maps. Missing or mistyped values yield
// the zero value.

func variantString(m map[string]dbus.Variant, key string) string {
	s, _ := m[key].Value().(string)
	return s
}

func variantBool(m map[string]dbus.Variant, key string) bool {
	b, _ := m[key].Value().(bool)
	return b
}

func variantStrings(m map[string]dbus.Variant, key string) []string {
	s, _ := m[key].Value().([]string)
	return s
}

func variantPath(m map[string]dbus.Variant, key string) dbus.ObjectPath {
	p, _ := m[key].Value().(dbus.ObjectPath)
	return p
}

func variantFloat(m map[string]dbus.Variant, key string) float64 {
	switch v := m[key].Value().(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	}
	return float64(variantInt(m, key))
}

func variantInt(m map[string]dbus.Variant, key string) int64 {
	switch v := m[key].Value().(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case int16:
		return int64(v)
	case uint16:
		return int64(v)
	case byte:
		return int64(v)
	}
	return 0
}
