package client

import (
	"chat-hub/infrastructure/grpc/server"
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AdminClient calls the admin endpoint of a hub instance with a bearer token.
type AdminClient struct {
	conn   grpc.ClientConnInterface
	health healthpb.HealthClient
	token  string
}

func NewAdminClient(conn grpc.ClientConnInterface, token string) *AdminClient {
	return &AdminClient{conn: conn, health: healthpb.NewHealthClient(conn), token: token}
}

func (c *AdminClient) Snapshot(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.withToken(ctx), server.SnapshotMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Serving reports whether the admin service declares itself healthy.
func (c *AdminClient) Serving(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: server.AdminServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (c *AdminClient) withToken(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}
