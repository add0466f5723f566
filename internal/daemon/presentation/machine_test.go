package presentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/glance-io/glance/internal/daemon/loop"
)

type transition struct{ from, to State }

func newMachine(wants *bool) (*loop.Manual, *Machine, *[]transition) {
	m := loop.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	var got []transition
	pm := New(m, 400*time.Millisecond, func() bool { return *wants }, nil)
	pm.OnTransition(func(from, to State) { got = append(got, transition{from, to}) })
	return m, pm, &got
}

func TestMachineStartsIdle(t *testing.T) {
	wants := false
	_, pm, _ := newMachine(&wants)
	assert.Equal(t, Idle, pm.State())
}

func TestMachineReevaluateMovesBetweenIdleAndCompact(t *testing.T) {
	wants := true
	m, pm, got := newMachine(&wants)
	m.Post(pm.Reevaluate)
	assert.Equal(t, Compact, pm.State())

	m.Post(pm.Reevaluate)
	assert.Len(t, *got, 1, "no transition without a change")

	wants = false
	m.Post(pm.Reevaluate)
	assert.Equal(t, Idle, pm.State())
	assert.Equal(t, []transition{{Idle, Compact}, {Compact, Idle}}, *got)
}

func TestMachineHoverEnterExpandsImmediately(t *testing.T) {
	wants := true
	m, pm, _ := newMachine(&wants)
	m.Post(pm.Reevaluate)
	m.Post(pm.HoverEnter)
	assert.Equal(t, Expanded, pm.State())
	assert.True(t, pm.Hovering())

	// Content changes do not collapse a hovered panel.
	wants = false
	m.Post(pm.Reevaluate)
	assert.Equal(t, Expanded, pm.State())
}

func TestMachineHoverExitIsDebounced(t *testing.T) {
	wants := true
	m, pm, _ := newMachine(&wants)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)

	m.Advance(399 * time.Millisecond)
	assert.Equal(t, Expanded, pm.State())
	m.Post(pm.Reevaluate)
	assert.Equal(t, Expanded, pm.State(), "reevaluation waits for the pending exit")

	m.Advance(time.Millisecond)
	assert.Equal(t, Compact, pm.State())
}

func TestMachineHoverEnterCancelsPendingExit(t *testing.T) {
	wants := false
	m, pm, got := newMachine(&wants)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)
	m.Advance(200 * time.Millisecond)
	m.Post(pm.HoverEnter)
	m.Advance(time.Second)

	assert.Equal(t, Expanded, pm.State())
	assert.Equal(t, []transition{{Idle, Expanded}}, *got)
	assert.Equal(t, 0, m.Pending())
}

func TestMachineExitTargetUsesStateAtExpiry(t *testing.T) {
	wants := false
	m, pm, _ := newMachine(&wants)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)

	// Content arrives during the debounce.
	m.Advance(100 * time.Millisecond)
	wants = true
	m.Advance(300 * time.Millisecond)
	assert.Equal(t, Compact, pm.State())
}

func TestMachineRepeatedExitEpisodes(t *testing.T) {
	wants := false
	m, pm, got := newMachine(&wants)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)
	m.Advance(300 * time.Millisecond)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)

	// The first episode's deadline passes without effect.
	m.Advance(200 * time.Millisecond)
	assert.Equal(t, Expanded, pm.State())

	m.Advance(200 * time.Millisecond)
	assert.Equal(t, Idle, pm.State())
	assert.Equal(t, []transition{{Idle, Expanded}, {Expanded, Idle}}, *got)
}

func TestMachineHoverExitWithoutEnterIsIgnored(t *testing.T) {
	wants := false
	m, pm, got := newMachine(&wants)
	m.Post(pm.HoverExit)
	m.Advance(time.Second)
	assert.Empty(t, *got)
	assert.Equal(t, 0, m.Pending())
}

func TestMachineSetDebounce(t *testing.T) {
	wants := false
	m, pm, _ := newMachine(&wants)
	pm.SetDebounce(time.Second)
	m.Post(pm.HoverEnter)
	m.Post(pm.HoverExit)
	m.Advance(500 * time.Millisecond)
	assert.Equal(t, Expanded, pm.State())
	m.Advance(500 * time.Millisecond)
	assert.Equal(t, Idle, pm.State())
}
