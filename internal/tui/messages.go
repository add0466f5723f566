package tui

import (
	"google.golang.org/grpc"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/models"
)

// DaemonConnectedMsg signals a successful gRPC connection.
type DaemonConnectedMsg struct {
	Conn   *grpc.ClientConn
	Client *api.Client
}

// DaemonDisconnectedMsg signals the daemon connection was lost.
type DaemonDisconnectedMsg struct{}

// ReconnectMsg triggers another connection attempt.
type ReconnectMsg struct{}

// DisplayMsg carries one payload from the WatchDisplay stream.
type DisplayMsg struct {
	Display models.Display
}

// StreamEndedMsg signals the display stream closed without a connection error.
type StreamEndedMsg struct{}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}
