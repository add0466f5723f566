package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const (
	dunstService = "org.freedesktop.Notifications"
	dunstPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	dunstPaused  = "org.dunstproject.cmd0.paused"
)

// Dunst maps do-not-disturb onto dunst's paused flag.
type Dunst struct {
	bus *Bus
}

func NewDunst(bus *Bus) *Dunst { return &Dunst{bus: bus} }

func (d *Dunst) Name() string { return "dunst" }

// Probe requires the dunst control interface, not just any notification
// daemon.
func (d *Dunst) Probe(ctx context.Context) bool {
	_, err := d.Read(ctx)
	return err == nil
}

func (d *Dunst) Read(ctx context.Context) (state.Focus, error) {
	conn, err := d.bus.Conn()
	if err != nil {
		return state.Focus{}, err
	}
	v, err := conn.Object(dunstService, dunstPath).GetProperty(dunstPaused)
	if err != nil {
		return state.Focus{}, fmt.Errorf("reading dunst paused: %w", err)
	}
	paused, ok := v.Value().(bool)
	if !ok {
		return state.Focus{}, fmt.Errorf("dunst paused is %s: %w", v.Signature(), capability.ErrEmpty)
	}
	return state.Focus{Enabled: paused}, nil
}

func (d *Dunst) Write(ctx context.Context, f state.Focus) error {
	conn, err := d.bus.Conn()
	if err != nil {
		return err
	}
	if err := conn.Object(dunstService, dunstPath).SetProperty(dunstPaused, dbus.MakeVariant(f.Enabled)); err != nil {
		return fmt.Errorf("setting dunst paused: %w", err)
	}
	return nil
}

const (
	gnomeNotificationsSchema = "org.gnome.desktop.notifications"
	gnomeShowBanners         = "show-banners"
)

// Gsettings maps do-not-disturb onto GNOME's show-banners key, inverted.
type Gsettings struct{ helper }

func NewGsettings(run Runner) *Gsettings {
	return &Gsettings{helper{run: run, program: "gsettings"}}
}

func (g *Gsettings) Name() string { return "gsettings" }

func (g *Gsettings) Probe(ctx context.Context) bool {
	if !g.helper.Probe(ctx) {
		return false
	}
	_, err := g.Read(ctx)
	return err == nil
}

func (g *Gsettings) Read(ctx context.Context) (state.Focus, error) {
	out, err := g.output(ctx, "get", gnomeNotificationsSchema, gnomeShowBanners)
	if err != nil {
		return state.Focus{}, err
	}
	switch strings.TrimSpace(out) {
	case "true":
		return state.Focus{Enabled: false}, nil
	case "false":
		return state.Focus{Enabled: true}, nil
	}
	return state.Focus{}, fmt.Errorf("unexpected show-banners value %q: %w", strings.TrimSpace(out), capability.ErrEmpty)
}

func (g *Gsettings) Write(ctx context.Context, f state.Focus) error {
	banners := "true"
	if f.Enabled {
		banners = "false"
	}
	_, err := g.output(ctx, "set", gnomeNotificationsSchema, gnomeShowBanners, banners)
	return err
}
