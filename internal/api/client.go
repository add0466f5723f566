package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client is a typed client for the Glance service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial connects to the daemon at addr using the JSON codec.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

func (c *Client) GetDisplay(ctx context.Context, opts ...grpc.CallOption) (*DisplayResponse, error) {
	out := new(DisplayResponse)
	if err := c.cc.Invoke(ctx, MethodGetDisplay, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Execute(ctx context.Context, cmd *Command, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodExecute, cmd, &emptypb.Empty{}, opts...)
}

func (c *Client) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.cc.Invoke(ctx, MethodGetStatus, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Shutdown(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodShutdown, &emptypb.Empty{}, &emptypb.Empty{}, opts...)
}

// DisplayStream receives display payloads.
type DisplayStream interface {
	Recv() (*DisplayResponse, error)
	grpc.ClientStream
}

type displayStream struct {
	grpc.ClientStream
}

func (s *displayStream) Recv() (*DisplayResponse, error) {
	m := new(DisplayResponse)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// WatchDisplay streams the current payload followed by every change.
func (c *Client) WatchDisplay(ctx context.Context, opts ...grpc.CallOption) (DisplayStream, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatchDisplay, opts...)
	if err != nil {
		return nil, err
	}
	x := &displayStream{stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
