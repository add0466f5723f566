package models

import (
	"net"
	"strconv"
	"time"
)

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.glance/daemon.yaml.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	WebPort   int       `yaml:"web_port,omitempty"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}

// Address is the gRPC endpoint clients dial.
func (d *DaemonInfo) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// WebAddress is the gRPC-web and /metrics endpoint, or "" when disabled.
func (d *DaemonInfo) WebAddress() string {
	if d.WebPort == 0 {
		return ""
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(d.WebPort))
}
