package platform

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

// DefaultProcRoot is the procfs mount point.
const DefaultProcRoot = "/proc"

// Sensors detects camera use from open /dev/video* descriptors in procfs
// and microphone use from PulseAudio source outputs.
type Sensors struct {
	capability.ReadOnly[state.Privacy]
	proc string
	run  Runner
}

func NewSensors(proc string, run Runner) *Sensors {
	if proc == "" {
		proc = DefaultProcRoot
	}
	return &Sensors{proc: proc, run: run}
}

func (s *Sensors) Name() string { return "procfs" }

func (s *Sensors) Probe(ctx context.Context) bool {
	_, err := os.Stat(filepath.Join(s.proc, "self"))
	return err == nil
}

func (s *Sensors) Read(ctx context.Context) (state.Privacy, error) {
	var p state.Privacy
	apps := map[string]bool{}

	camApps, err := s.cameraUsers()
	if err != nil {
		return state.Privacy{}, err
	}
	if len(camApps) > 0 {
		p.Camera = true
		for _, a := range camApps {
			apps[a] = true
		}
	}

	if s.run != nil && s.run.Available("pactl") {
		out, err := s.run.Run(ctx, "pactl", "list", "source-outputs")
		if err == nil {
			micApps := parseSourceOutputs(string(out))
			if len(micApps) > 0 {
				p.Mic = true
				for _, a := range micApps {
					apps[a] = true
				}
			}
		}
	}

	for a := range apps {
		p.Apps = append(p.Apps, a)
	}
	sort.Strings(p.Apps)
	return p, nil
}

// cameraUsers returns the command names of processes holding a video
// device open. Processes we may not inspect are skipped.
func (s *Sensors) cameraUsers() ([]string, error) {
	entries, err := os.ReadDir(s.proc)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		dir := filepath.Join(s.proc, e.Name())
		fds, err := os.ReadDir(filepath.Join(dir, "fd"))
		if err != nil {
			continue
		}
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(dir, "fd", fd.Name()))
			if err != nil || !strings.HasPrefix(target, "/dev/video") {
				continue
			}
			comm, err := readString(filepath.Join(dir, "comm"))
			if err != nil || comm == "" {
				comm = e.Name()
			}
			names = append(names, comm)
			break
		}
	}
	return names, nil
}

// parseSourceOutputs collects application.name values from
// `pactl list source-outputs`.
func parseSourceOutputs(s string) []string {
	var apps []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		v, ok := strings.CutPrefix(line, "application.name = ")
		if !ok {
			continue
		}
		if name := strings.Trim(v, `"`); name != "" {
			apps = append(apps, name)
		}
	}
	return apps
}
