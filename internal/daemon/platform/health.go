package platform

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

// Gopsutil samples CPU, memory and load average. CPU is measured since the
// previous call, so the first sample after start may read zero.
type Gopsutil struct {
	capability.ReadOnly[state.Health]
}

func NewGopsutil() *Gopsutil { return &Gopsutil{} }

func (g *Gopsutil) Name() string { return "gopsutil" }

func (g *Gopsutil) Probe(ctx context.Context) bool {
	_, err := mem.VirtualMemoryWithContext(ctx)
	return err == nil
}

func (g *Gopsutil) Read(ctx context.Context) (state.Health, error) {
	var h state.Health
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return h, fmt.Errorf("sampling cpu: %w", err)
	}
	if len(pct) > 0 {
		h.CPUPercent = pct[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return h, fmt.Errorf("sampling memory: %w", err)
	}
	h.MemoryPercent = vm.UsedPercent
	if avg, err := load.AvgWithContext(ctx); err == nil {
		h.Load1 = avg.Load1
	}
	return h, nil
}
