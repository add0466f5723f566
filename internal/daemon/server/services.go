package server

import (
	"context"
	"os"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/glance-io/glance/internal/api"
	"github.com/glance-io/glance/internal/daemon/notification"
	"github.com/glance-io/glance/internal/models"
)

// shutdownDelay lets the Shutdown reply reach the client first.
const shutdownDelay = 100 * time.Millisecond

// Engine is the part of the core the API drives.
type Engine interface {
	Display() models.Display
	Subscribe() (<-chan models.Display, func())
	Status(ctx context.Context) (models.DaemonStatus, error)

	TogglePlayPause()
	NextTrack()
	PreviousTrack()
	SetVolume(v float64)
	AdjustVolume(delta float64)
	SetBrightness(v float64)
	AdjustBrightness(delta float64)
	ToggleFocus()
	StartTimer(d time.Duration)
	PauseTimer()
	ResetTimer()
	StartPomodoro()
	StopPomodoro()
	SkipPomodoro()
	Notify(p notification.Payload, autoDismissAfter time.Duration)
	DismissNotification()
	HoverEnter()
	HoverExit()
	Refresh()
}

type glanceService struct {
	engine   Engine
	server   *Server
	shutdown func()
}

func (s *glanceService) GetDisplay(ctx context.Context, _ *emptypb.Empty) (*api.DisplayResponse, error) {
	return &api.DisplayResponse{Display: s.engine.Display()}, nil
}

// WatchDisplay sends the current payload, then each newer one. Payloads
// published while the client is slow are skipped, never queued.
func (s *glanceService) WatchDisplay(_ *emptypb.Empty, stream api.WatchDisplayServer) error {
	updates, cancel := s.engine.Subscribe()
	defer cancel()

	current := s.engine.Display()
	if err := stream.Send(&api.DisplayResponse{Display: current}); err != nil {
		return err
	}
	last := current.Sequence
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-s.server.done:
			return nil
		case d, ok := <-updates:
			if !ok {
				return nil
			}
			if d.Sequence <= last {
				continue
			}
			last = d.Sequence
			if err := stream.Send(&api.DisplayResponse{Display: d}); err != nil {
				return err
			}
		}
	}
}

func (s *glanceService) Execute(ctx context.Context, cmd *api.Command) (*emptypb.Empty, error) {
	if err := cmd.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	e := s.engine
	switch cmd.Action {
	case api.ActionPlayPause:
		e.TogglePlayPause()
	case api.ActionNext:
		e.NextTrack()
	case api.ActionPrevious:
		e.PreviousTrack()
	case api.ActionSetVolume:
		e.SetVolume(cmd.Value)
	case api.ActionAdjustVolume:
		e.AdjustVolume(cmd.Value)
	case api.ActionSetBrightness:
		e.SetBrightness(cmd.Value)
	case api.ActionAdjustBrightness:
		e.AdjustBrightness(cmd.Value)
	case api.ActionToggleFocus:
		e.ToggleFocus()
	case api.ActionStartTimer:
		e.StartTimer(cmd.Duration)
	case api.ActionPauseTimer:
		e.PauseTimer()
	case api.ActionResetTimer:
		e.ResetTimer()
	case api.ActionStartPomodoro:
		e.StartPomodoro()
	case api.ActionStopPomodoro:
		e.StopPomodoro()
	case api.ActionSkipPomodoro:
		e.SkipPomodoro()
	case api.ActionNotify:
		source := "api"
		if cmd.Meta != nil && cmd.Meta.Origin != "" {
			source = cmd.Meta.Origin
		}
		e.Notify(notification.Payload{
			Title:  cmd.Title,
			Body:   cmd.Body,
			Icon:   cmd.Icon,
			Source: source,
		}, cmd.Duration)
	case api.ActionDismiss:
		e.DismissNotification()
	case api.ActionHoverEnter:
		e.HoverEnter()
	case api.ActionHoverExit:
		e.HoverExit()
	case api.ActionRefresh:
		e.Refresh()
	}
	return &emptypb.Empty{}, nil
}

func (s *glanceService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*api.StatusResponse, error) {
	st, err := s.engine.Status(ctx)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &api.StatusResponse{
		Status:    st,
		PID:       int32(os.Getpid()),
		Port:      int32(s.server.Port()),
		WebPort:   int32(s.server.WebPort()),
		StartedAt: timestamppb.New(st.StartedAt),
	}, nil
}

func (s *glanceService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	// Signal shutdown - this will be caught by the main loop
	go func() {
		time.Sleep(shutdownDelay)
		s.shutdown()
	}()
	return &emptypb.Empty{}, nil
}
