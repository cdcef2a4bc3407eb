// Package transport is the worker's admin/control surface: a gRPC server
// exposing the standard health-checking protocol, reflection for ad hoc
// debugging, and one hand-wired unary RPC, DescribeMatchState, returning a
// snapshot of whatever state a match's detectors currently track.
//
// DescribeMatchState is built directly on google.protobuf.Struct so no
// generated .pb.go stub is required: the teacher's own generated
// internal/grpc-app/proto package isn't present in the reference pack to
// safely adapt, and a well-known-type-only service is a real, supported
// grpc-go pattern.
package transport

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// MatchStateProvider supplies the snapshot DescribeMatchState serves. The
// worker implements it over whichever detectors' stores it wants exposed.
type MatchStateProvider interface {
	DescribeMatchState(matchID string) (map[string]any, bool)
}

// Server wraps a *grpc.Server with the health, reflection and
// DescribeMatchState services already registered.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	provider   MatchStateProvider
}

// New constructs a Server. Call Serve to start accepting connections.
func New(provider MatchStateProvider) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	s := &Server{grpcServer: grpcServer, health: healthServer, provider: provider}
	grpcServer.RegisterService(&matchStateServiceDesc, s)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks accepting connections on lis until the server stops.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks the service not-serving and drains in-flight RPCs,
// matching the worker's SIGTERM drain sequence.
func (s *Server) GracefulStop() {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	s.grpcServer.GracefulStop()
}

// DescribeMatchState implements the matchStateServer interface the
// hand-wired RPC handler below dispatches to.
func (s *Server) DescribeMatchState(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchIDField, ok := req.GetFields()["matchId"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "matchId is required")
	}
	matchID := matchIDField.GetStringValue()
	if matchID == "" {
		return nil, status.Error(codes.InvalidArgument, "matchId must be a non-empty string")
	}

	state, found := s.provider.DescribeMatchState(matchID)
	if !found {
		return nil, status.Errorf(codes.NotFound, "no state tracked for match %q", matchID)
	}

	out, err := structpb.NewStruct(state)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode match state: %v", err)
	}
	return out, nil
}

// matchStateServer is the interface the hand-wired service descriptor
// dispatches to, matching the shape a generated unary-RPC stub would have.
type matchStateServer interface {
	DescribeMatchState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var matchStateServiceDesc = grpc.ServiceDesc{
	ServiceName: "soccerstream.transport.MatchStateService",
	HandlerType: (*matchStateServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "DescribeMatchState",
			Handler:    describeMatchStateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/transport/matchstate.proto",
}

func describeMatchStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matchStateServer).DescribeMatchState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/soccerstream.transport.MatchStateService/DescribeMatchState",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(matchStateServer).DescribeMatchState(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
