package grpcserver

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"social-media-restful/interceptors"
)

// Server is the operational gRPC endpoint: the standard health service and
// server reflection.
type Server struct {
	address     string
	serviceName string
	srv         *grpc.Server
	health      *health.Server
	logger      *zap.Logger
}

func NewServer(address, serviceName string, logger *zap.Logger) *Server {
	logger = logger.Named("GRPCServer")

	srv := grpc.NewServer(interceptors.ServerOptions(logger)...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthServer)
	reflection.Register(srv)

	return &Server{
		address:     address,
		serviceName: serviceName,
		srv:         srv,
		health:      healthServer,
		logger:      logger,
	}
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then flips the
// health status to NOT_SERVING and stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.serviceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping gRPC server...")
		s.health.Shutdown()
		s.srv.GracefulStop()
	}()

	s.logger.Info("Starting gRPC server", zap.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}
