// Package buildinfo carries the release stamped into glance and glanced with
// -ldflags "-X github.com/glance-io/glance/internal/buildinfo.Version=...".
package buildinfo

import "runtime"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies program in outgoing HTTP requests and gRPC metadata.
func UserAgent(program string) string {
	return program + "/" + Version
}

// Details lists the label/value rows printed by both version commands.
func Details() [][2]string {
	return [][2]string{
		{"Commit", Commit},
		{"Built", Date},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		{"Go", runtime.Version()},
	}
}
