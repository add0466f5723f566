package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/buildinfo"
	"github.com/glance-io/glance/internal/config"
)

// ErrDaemonNotRunning is returned when no daemon.yaml names a live daemon.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Exit codes returned by the glance binary.
const (
	ExitError    = 1
	ExitNoDaemon = 2
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if errors.Is(err, ErrDaemonNotRunning) {
		return ExitNoDaemon
	}
	return ExitError
}

// callTimeout bounds one unary call to the daemon.
const callTimeout = 5 * time.Second

// connectDaemon establishes a gRPC connection to the running daemon.
func connectDaemon() (*grpc.ClientConn, error) {
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return nil, ErrDaemonNotRunning
	}

	conn, err := api.Dial(info.Address(), grpc.WithUserAgent(buildinfo.UserAgent("glance")))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return conn, nil
}

// withClient connects to the daemon and runs fn with a bounded context.
func withClient(fn func(ctx context.Context, client *api.Client) error) error {
	conn, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fn(ctx, api.NewClient(conn))
}

// execute sends one command, starting the daemon if needed.
func execute(cmd *api.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := EnsureDaemon(); err != nil {
		return err
	}
	cmd.Meta = &api.RequestMeta{Origin: "cli", Version: buildinfo.Version}
	return withClient(func(ctx context.Context, client *api.Client) error {
		if err := client.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("%s failed: %w", cmd.Action, err)
		}
		return nil
	})
}
