// Package metrics exports capability resolution and channel reconciliation
// counters to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/channel"
)

// Metrics implements capability.Observer and channel.Observer.
type Metrics struct {
	capabilityBound     *prometheus.GaugeVec
	capabilityDemotions *prometheus.CounterVec
	capabilityAvailable *prometheus.GaugeVec

	channelApplied      *prometheus.CounterVec
	channelDropped      *prometheus.CounterVec
	channelPollDuration *prometheus.HistogramVec
	channelPollErrors   *prometheus.CounterVec
}

var (
	_ capability.Observer = (*Metrics)(nil)
	_ channel.Observer    = (*Metrics)(nil)
)

// New creates the metrics and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		capabilityBound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "glance_capability_bound",
			Help: "1 for the strategy currently bound to a capability, 0 otherwise",
		}, []string{"capability", "strategy"}),
		capabilityDemotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glance_capability_demotions_total",
			Help: "Strategies demoted after a failed call",
		}, []string{"capability", "strategy"}),
		capabilityAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "glance_capability_available",
			Help: "Whether any strategy can serve a capability (1=yes, 0=no)",
		}, []string{"capability"}),
		channelApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glance_channel_updates_applied_total",
			Help: "Values applied to a state channel by origin",
		}, []string{"channel", "origin"}),
		channelDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glance_channel_updates_dropped_total",
			Help: "Values discarded by a state channel by reason",
		}, []string{"channel", "reason"}),
		channelPollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "glance_channel_poll_duration_seconds",
			Help:    "Time spent reading a capability for one poll",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"channel"}),
		channelPollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glance_channel_poll_errors_total",
			Help: "Polls that returned an error",
		}, []string{"channel"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register glance metrics: %w", err)
	}
	return m, nil
}

// Bound marks strategy as the active one for id. The previous strategy
// gauge is cleared when it is demoted or the capability goes unavailable.
func (m *Metrics) Bound(id capability.ID, strategy string) {
	m.capabilityBound.WithLabelValues(string(id), strategy).Set(1)
}

func (m *Metrics) Demoted(id capability.ID, strategy string) {
	m.capabilityDemotions.WithLabelValues(string(id), strategy).Inc()
	m.capabilityBound.WithLabelValues(string(id), strategy).Set(0)
}

func (m *Metrics) Availability(id capability.ID, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	m.capabilityAvailable.WithLabelValues(string(id)).Set(v)
}

func (m *Metrics) Applied(name string, origin channel.Origin) {
	m.channelApplied.WithLabelValues(name, origin.String()).Inc()
}

func (m *Metrics) Dropped(name string, reason string) {
	m.channelDropped.WithLabelValues(name, reason).Inc()
}

func (m *Metrics) Polled(name string, elapsed time.Duration, err error) {
	m.channelPollDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		m.channelPollErrors.WithLabelValues(name).Inc()
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.capabilityBound.Describe(ch)
	m.capabilityDemotions.Describe(ch)
	m.capabilityAvailable.Describe(ch)
	m.channelApplied.Describe(ch)
	m.channelDropped.Describe(ch)
	m.channelPollDuration.Describe(ch)
	m.channelPollErrors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.capabilityBound.Collect(ch)
	m.capabilityDemotions.Collect(ch)
	m.capabilityAvailable.Collect(ch)
	m.channelApplied.Collect(ch)
	m.channelDropped.Collect(ch)
	m.channelPollDuration.Collect(ch)
	m.channelPollErrors.Collect(ch)
}
