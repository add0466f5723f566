package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes helper programs. Tests substitute canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	Available(name string) bool
}

// ExecRunner runs real processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return out, nil
}

func (ExecRunner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// helper is embedded by backends that shell out to one program.
type helper struct {
	run     Runner
	program string
}

func (h helper) Probe(ctx context.Context) bool {
	return h.run.Available(h.program)
}

func (h helper) output(ctx context.Context, args ...string) (string, error) {
	out, err := h.run.Run(ctx, h.program, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
