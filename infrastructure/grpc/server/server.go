// Package server hosts the admin gRPC endpoint of the hub.
package server

import (
	"chat-hub/auth"
	"log/slog"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var publicMethods = []string{healthpb.Health_Check_FullMethodName}

// NewGRPCServer wires request logging, admin-only JWT auth, health and reflection.
// The returned health server must be shut down before GracefulStop.
func NewGRPCServer(log *slog.Logger, tokens *auth.TokenManager, admin CoordinatorAdminServer) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(log),
			auth.UnaryInterceptor(tokens, auth.RoleAdmin, publicMethods...),
		))

	RegisterCoordinatorAdminServer(s, admin)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(AdminServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s, healthServer
}
