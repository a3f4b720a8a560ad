// Package control implements the clipmaster.v1.Control gRPC service served on
// the local IPC socket.
//
// There is no .proto file: requests and responses are protobuf well-known
// types and the service descriptor is declared here by hand.
//
//	Clear(Empty)   → Empty
//	History(Empty) → ListValue   // of Struct{text, copied_at}
//	Stop(Empty)    → ListValue   // final history
//	Watch(Empty)   → stream Struct
package control

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipmaster/internal/history"
	"go.klb.dev/clipmaster/internal/manager"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clipmaster.v1.Control"

const (
	methodClear   = "/" + ServiceName + "/Clear"
	methodHistory = "/" + ServiceName + "/History"
	methodStop    = "/" + ServiceName + "/Stop"
	methodWatch   = "/" + ServiceName + "/Watch"
)

// Manager is the part of *manager.Manager the service drives.
type Manager interface {
	Clear(ctx context.Context) error
	History(ctx context.Context) ([]history.Entry, error)
	Stop(ctx context.Context) ([]history.Entry, error)
	Subscribe(ctx context.Context) (<-chan history.Entry, func(), error)
}

// controlServer is the handler interface named in the service descriptor.
type controlServer interface {
	Clear(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	History(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Stop(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Watch(*emptypb.Empty, grpc.ServerStream) error
}

// Service implements controlServer on top of a Manager.
type Service struct {
	m Manager
}

// New returns a Service backed by m.
func New(m Manager) *Service { return &Service{m: m} }

// Register adds the service to s.
func Register(s grpc.ServiceRegistrar, svc *Service) {
	s.RegisterService(&serviceDesc, svc)
}

// Clear implements Control.Clear.
func (s *Service) Clear(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.m.Clear(ctx); err != nil {
		return nil, toStatus(err)
	}
	slog.Debug("control: history cleared")
	return &emptypb.Empty{}, nil
}

// History implements Control.History.
func (s *Service) History(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries, err := s.m.History(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeEntries(entries), nil
}

// Stop implements Control.Stop.
func (s *Service) Stop(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	slog.Info("control: stop requested")
	entries, err := s.m.Stop(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeEntries(entries), nil
}

// Watch implements Control.Watch: one Struct per newly recorded entry until
// the client goes away or the manager shuts down.
func (s *Service) Watch(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ctx := stream.Context()
	ch, cancel, err := s.m.Subscribe(ctx)
	if err != nil {
		return toStatus(err)
	}
	defer cancel()

	slog.Info("watch started")
	defer slog.Info("watch ended")

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(encodeEntry(e)); err != nil {
				return err
			}
		}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, manager.ErrStopped):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*controlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Clear", Handler: clearHandler},
		{MethodName: "History", Handler: historyHandler},
		{MethodName: "Stop", Handler: stopHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "clipmaster/v1/control",
}

func clearHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(controlServer).Clear(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodClear}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(controlServer).Clear(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(controlServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodHistory}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(controlServer).History(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func stopHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(controlServer).Stop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStop}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(controlServer).Stop(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(controlServer).Watch(in, stream)
}
