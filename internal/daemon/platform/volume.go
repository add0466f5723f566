package platform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/glance-io/glance/internal/daemon/capability"
)

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// parsePercent returns the first "NN%" in s as a 0..1 fraction.
func parsePercent(s string) (float64, error) {
	m := percentPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("no percentage in %q: %w", strings.TrimSpace(s), capability.ErrEmpty)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing percentage %q: %w", m[1], err)
	}
	return v / 100, nil
}

func percentArg(v float64) string {
	return strconv.Itoa(int(v*100+0.5)) + "%"
}

// Pactl drives the default sink through pactl, which talks to both
// PulseAudio and pipewire-pulse.
type Pactl struct{ helper }

func NewPactl(run Runner) *Pactl { return &Pactl{helper{run: run, program: "pactl"}} }

func (p *Pactl) Name() string { return "pactl" }

func (p *Pactl) Read(ctx context.Context) (float64, error) {
	out, err := p.output(ctx, "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, err
	}
	return parsePercent(out)
}

func (p *Pactl) Write(ctx context.Context, v float64) error {
	_, err := p.output(ctx, "set-sink-volume", "@DEFAULT_SINK@", percentArg(v))
	return err
}

// Identity is the default sink name; a change means the user switched
// outputs.
func (p *Pactl) Identity(ctx context.Context) (string, error) {
	out, err := p.output(ctx, "get-default-sink")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Wpctl drives the default PipeWire sink through WirePlumber.
type Wpctl struct{ helper }

func NewWpctl(run Runner) *Wpctl { return &Wpctl{helper{run: run, program: "wpctl"}} }

func (w *Wpctl) Name() string { return "wpctl" }

func (w *Wpctl) Read(ctx context.Context) (float64, error) {
	out, err := w.output(ctx, "get-volume", "@DEFAULT_AUDIO_SINK@")
	if err != nil {
		return 0, err
	}
	return parseWpctlVolume(out)
}

func (w *Wpctl) Write(ctx context.Context, v float64) error {
	_, err := w.output(ctx, "set-volume", "@DEFAULT_AUDIO_SINK@", strconv.FormatFloat(v, 'f', 2, 64))
	return err
}

// parseWpctlVolume reads "Volume: 0.55" or "Volume: 0.55 [MUTED]".
func parseWpctlVolume(s string) (float64, error) {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "Volume:" && i+1 < len(fields) {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return 0, fmt.Errorf("parsing wpctl volume %q: %w", fields[i+1], err)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("no volume in %q: %w", strings.TrimSpace(s), capability.ErrEmpty)
}

// Amixer drives the ALSA Master control.
type Amixer struct{ helper }

func NewAmixer(run Runner) *Amixer { return &Amixer{helper{run: run, program: "amixer"}} }

func (a *Amixer) Name() string { return "amixer" }

func (a *Amixer) Read(ctx context.Context) (float64, error) {
	out, err := a.output(ctx, "get", "Master")
	if err != nil {
		return 0, err
	}
	return parsePercent(out)
}

func (a *Amixer) Write(ctx context.Context, v float64) error {
	_, err := a.output(ctx, "sset", "Master", percentArg(v))
	return err
}
