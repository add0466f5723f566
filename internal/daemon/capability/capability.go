// Package capability resolves, at runtime, which of several competing
// backends can satisfy an abstract capability and falls back when the bound
// one stops working.
package capability

import (
	"context"
	"errors"
	"fmt"
)

// ID names an abstract capability.
type ID string

// Known capabilities.
const (
	VolumeRead        ID = "volume.read"
	VolumeWrite       ID = "volume.write"
	BrightnessRead    ID = "brightness.read"
	BrightnessWrite   ID = "brightness.write"
	NowPlayingRead    ID = "nowplaying.read"
	NowPlayingCommand ID = "nowplaying.command"
	BatteryRead       ID = "battery.read"
	NetworkRead       ID = "network.read"
	BluetoothRead     ID = "bluetooth.read"
	PrivacyRead       ID = "privacy.read"
	FocusRead         ID = "focus.read"
	FocusWrite        ID = "focus.write"
	CalendarRead      ID = "calendar.read"
	HealthRead        ID = "health.read"
	TimerRead         ID = "timer.read"
	PomodoroRead      ID = "pomodoro.read"
)

var (
	// ErrUnavailable means no strategy could serve the capability.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrUnsupported is returned by a backend for an operation it does not implement.
	ErrUnsupported = errors.New("operation not supported by backend")

	// ErrEmpty is returned when a backend produced no value where one was expected.
	ErrEmpty = errors.New("backend returned an empty value")

	// ErrAlreadyOwned is returned when a backend instance is registered twice.
	ErrAlreadyOwned = errors.New("backend already owned by another capability")
)

// TransientError is a single failed call on a bound strategy. It triggers
// re-resolution and is never surfaced to users.
type TransientError struct {
	Capability ID
	Strategy   string
	Err        error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s via %s: %v", e.Capability, e.Strategy, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Backend is one concrete mechanism implementing a capability.
type Backend[V any] interface {
	Name() string
	Probe(ctx context.Context) bool
	Read(ctx context.Context) (V, error)
	Write(ctx context.Context, v V) error
}

// Subscription is a live push registration.
type Subscription interface {
	Close() error
}

// Subscriber is implemented by backends that can push changes.
type Subscriber[V any] interface {
	Subscribe(fn func(V)) (Subscription, error)
}

// Identifier is implemented by backends whose underlying device or stream
// can change identity at runtime (default sink switched, player replaced).
type Identifier interface {
	Identity(ctx context.Context) (string, error)
}

// Strategy is a ranked candidate backend. Lower rank is preferred.
type Strategy[V any] struct {
	Rank    int
	Backend Backend[V]
}

// Result describes how an operation was served.
type Result struct {
	Strategy string
	// Rebound is true when a binding was established during the call,
	// including the very first one.
	Rebound bool
}

// ReadOnly adapts read-only backends: embed it to get an ErrUnsupported Write.
type ReadOnly[V any] struct{}

func (ReadOnly[V]) Write(context.Context, V) error { return ErrUnsupported }

// WriteOnly adapts write-only backends: embed it to get an ErrUnsupported Read.
type WriteOnly[V any] struct{}

func (WriteOnly[V]) Read(context.Context) (V, error) {
	var zero V
	return zero, ErrUnsupported
}
