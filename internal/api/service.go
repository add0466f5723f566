package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "glance.v1.Glance"

// Full method names.
const (
	MethodGetDisplay   = "/" + ServiceName + "/GetDisplay"
	MethodWatchDisplay = "/" + ServiceName + "/WatchDisplay"
	MethodExecute      = "/" + ServiceName + "/Execute"
	MethodGetStatus    = "/" + ServiceName + "/GetStatus"
	MethodShutdown     = "/" + ServiceName + "/Shutdown"
)

// GlanceServer is the server API for the Glance service.
type GlanceServer interface {
	GetDisplay(context.Context, *emptypb.Empty) (*DisplayResponse, error)
	WatchDisplay(*emptypb.Empty, WatchDisplayServer) error
	Execute(context.Context, *Command) (*emptypb.Empty, error)
	GetStatus(context.Context, *emptypb.Empty) (*StatusResponse, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// WatchDisplayServer is the server side of a WatchDisplay stream.
type WatchDisplayServer interface {
	Send(*DisplayResponse) error
	grpc.ServerStream
}

type watchDisplayServer struct {
	grpc.ServerStream
}

func (s *watchDisplayServer) Send(m *DisplayResponse) error {
	return s.ServerStream.SendMsg(m)
}

// RegisterGlanceServer registers srv with s.
func RegisterGlanceServer(s grpc.ServiceRegistrar, srv GlanceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the Glance service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GlanceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDisplay", Handler: getDisplayHandler},
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchDisplay", Handler: watchDisplayHandler, ServerStreams: true},
	},
	Metadata: "glance/v1/glance.proto",
}

func getDisplayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlanceServer).GetDisplay(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetDisplay}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlanceServer).GetDisplay(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Command)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlanceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodExecute}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlanceServer).Execute(ctx, req.(*Command))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlanceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlanceServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlanceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodShutdown}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlanceServer).Shutdown(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchDisplayHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(GlanceServer).WatchDisplay(in, &watchDisplayServer{stream})
}
