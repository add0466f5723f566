package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/buildinfo"
	"github.com/glance-io/glance/internal/config"
)

// commandTimeout bounds one Execute call.
const commandTimeout = 3 * time.Second

// executor is the part of the API client the view drives.
type executor interface {
	Execute(ctx context.Context, cmd *api.Command, opts ...grpc.CallOption) error
}

func connectDaemonCmd() tea.Cmd {
	return func() tea.Msg {
		info, err := config.LoadDaemonInfo()
		if err != nil || info == nil {
			return ErrorMsg{Err: fmt.Errorf("daemon not running")}
		}

		conn, err := api.Dial(info.Address(), grpc.WithUserAgent(buildinfo.UserAgent("glance")))
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to connect to daemon: %w", err)}
		}

		return DaemonConnectedMsg{Conn: conn, Client: api.NewClient(conn)}
	}
}

// watchDisplayCmd opens the display stream and forwards every payload to
// the program until ctx ends or the stream fails.
func watchDisplayCmd(ctx context.Context, client *api.Client, program *programRef) tea.Cmd {
	return func() tea.Msg {
		stream, err := client.WatchDisplay(ctx)
		if err != nil {
			if isConnectionLost(err) {
				return DaemonDisconnectedMsg{}
			}
			return ErrorMsg{Err: fmt.Errorf("failed to watch display: %w", err)}
		}

		go func() {
			for {
				resp, err := stream.Recv()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if isConnectionLost(err) {
						program.Send(DaemonDisconnectedMsg{})
					} else {
						program.Send(StreamEndedMsg{})
					}
					return
				}
				program.Send(DisplayMsg{Display: resp.Display})
			}
		}()

		return nil
	}
}

// executeCmd sends one command tagged as coming from the live view.
func executeCmd(client executor, cmd *api.Command) tea.Cmd {
	if client == nil {
		return nil
	}
	cmd.Meta = &api.RequestMeta{Origin: "tui", Version: buildinfo.Version}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := client.Execute(ctx, cmd); err != nil {
			if isConnectionLost(err) {
				return DaemonDisconnectedMsg{}
			}
			return ErrorMsg{Err: fmt.Errorf("%s failed: %w", cmd.Action, err)}
		}
		return nil
	}
}

func reconnectTick() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ReconnectMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

// isConnectionLost checks if a gRPC error indicates the server is gone.
func isConnectionLost(err error) bool {
	code := status.Code(err)
	return code == codes.Unavailable || code == codes.Canceled
}
