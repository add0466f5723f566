package platform

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/glance-io/glance/internal/daemon/capability"
)

// DefaultBacklightRoot is where the kernel exposes backlight devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// Backlight reads and writes a backlight device through sysfs. Writing
// usually needs a udev rule granting the user access; without one the
// write fails and the resolver moves on.
type Backlight struct {
	root string
}

func NewBacklight(root string) *Backlight {
	if root == "" {
		root = DefaultBacklightRoot
	}
	return &Backlight{root: root}
}

func (b *Backlight) Name() string { return "sysfs-backlight" }

func (b *Backlight) Probe(ctx context.Context) bool {
	_, err := b.device()
	return err == nil
}

func (b *Backlight) Read(ctx context.Context) (float64, error) {
	dev, err := b.device()
	if err != nil {
		return 0, err
	}
	cur, err := readInt(filepath.Join(b.root, dev, "brightness"))
	if err != nil {
		return 0, err
	}
	max, err := readInt(filepath.Join(b.root, dev, "max_brightness"))
	if err != nil {
		return 0, err
	}
	if max <= 0 {
		return 0, fmt.Errorf("backlight %s reports max 0: %w", dev, capability.ErrEmpty)
	}
	return float64(cur) / float64(max), nil
}

func (b *Backlight) Write(ctx context.Context, v float64) error {
	dev, err := b.device()
	if err != nil {
		return err
	}
	max, err := readInt(filepath.Join(b.root, dev, "max_brightness"))
	if err != nil {
		return err
	}
	raw := int64(math.Round(v * float64(max)))
	return os.WriteFile(filepath.Join(b.root, dev, "brightness"), []byte(strconv.FormatInt(raw, 10)), 0o644)
}

// Identity is the backlight device name.
func (b *Backlight) Identity(ctx context.Context) (string, error) {
	return b.device()
}

// device picks the first device in name order.
func (b *Backlight) device() (string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return "", fmt.Errorf("listing backlight devices: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no backlight device: %w", capability.ErrEmpty)
	}
	sort.Strings(names)
	return names[0], nil
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

const (
	logindService = "org.freedesktop.login1"
	logindSession = dbus.ObjectPath("/org/freedesktop/login1/session/auto")
)

// Logind writes brightness through systemd-logind, which allows the
// active session to set its own backlight without file permissions.
type Logind struct {
	capability.WriteOnly[float64]
	bus       *Bus
	backlight *Backlight
}

func NewLogind(bus *Bus, root string) *Logind {
	return &Logind{bus: bus, backlight: NewBacklight(root)}
}

func (l *Logind) Name() string { return "logind" }

func (l *Logind) Probe(ctx context.Context) bool {
	return l.backlight.Probe(ctx) && l.bus.HasName(logindService)
}

func (l *Logind) Write(ctx context.Context, v float64) error {
	conn, err := l.bus.Conn()
	if err != nil {
		return err
	}
	dev, err := l.backlight.device()
	if err != nil {
		return err
	}
	max, err := readInt(filepath.Join(l.backlight.root, dev, "max_brightness"))
	if err != nil {
		return err
	}
	raw := uint32(math.Round(v * float64(max)))
	call := conn.Object(logindService, logindSession).CallWithContext(ctx,
		"org.freedesktop.login1.Session.SetBrightness", 0, "backlight", dev, raw)
	if call.Err != nil {
		return fmt.Errorf("logind SetBrightness: %w", call.Err)
	}
	return nil
}

// Brightnessctl is the helper-program fallback.
type Brightnessctl struct{ helper }

func NewBrightnessctl(run Runner) *Brightnessctl {
	return &Brightnessctl{helper{run: run, program: "brightnessctl"}}
}

func (b *Brightnessctl) Name() string { return "brightnessctl" }

func (b *Brightnessctl) Read(ctx context.Context) (float64, error) {
	out, err := b.output(ctx, "-m", "-c", "backlight", "info")
	if err != nil {
		return 0, err
	}
	return parseBrightnessctl(out)
}

func (b *Brightnessctl) Write(ctx context.Context, v float64) error {
	_, err := b.output(ctx, "-q", "-c", "backlight", "set", percentArg(v))
	return err
}

// parseBrightnessctl reads machine output "dev,class,cur,pct%,max".
func parseBrightnessctl(s string) (float64, error) {
	line := strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return 0, fmt.Errorf("unexpected brightnessctl output %q: %w", line, capability.ErrEmpty)
	}
	cur, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing brightness %q: %w", fields[2], err)
	}
	max, err := strconv.ParseFloat(fields[4], 64)
	if err != nil || max <= 0 {
		return parsePercent(fields[3])
	}
	return cur / max, nil
}
