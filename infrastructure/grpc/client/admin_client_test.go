package client

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/grpc/server"
	"chat-hub/observability"
	"chat-hub/projection"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type staticPresence domain.Presence

func (p staticPresence) Snapshot() domain.Presence { return domain.Presence(p) }

func activity(t *testing.T) *projection.Activity {
	a := projection.NewActivity()
	require.NoError(t, a.Consume(context.Background(), event.MessageReceived{Room: "chat-42", MsgID: "m1"}))
	return a
}

func startAdmin(t *testing.T, tokens *auth.TokenManager) *grpc.ClientConn {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager(log)
	monitoring.IncrFramesSent()
	presence := staticPresence{Connections: 3, Identified: 2, Typing: 1, Rooms: map[domain.RoomID]int{"chat-99": 1, "chat-42": 2}}

	listener := bufconn.Listen(1 << 20)
	srv, healthServer := server.NewGRPCServer(log, tokens, server.NewAdminServer("hub-a", presence, activity(t), monitoring))
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(func() {
		healthServer.Shutdown()
		srv.GracefulStop()
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestAdminClient(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	conn := startAdmin(t, tokens)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adminToken, err := tokens.GenerateToken(domain.User{ID: "root", IsAdmin: true})
	require.NoError(t, err)
	userToken, err := tokens.GenerateToken(domain.User{ID: "bob"})
	require.NoError(t, err)

	t.Run("should report health without token", func(t *testing.T) {
		serving, err := NewAdminClient(conn, "").Serving(ctx)
		require.NoError(t, err)
		require.True(t, serving)
	})

	t.Run("should return the snapshot to an admin", func(t *testing.T) {
		req := require.New(t)
		snapshot, err := NewAdminClient(conn, adminToken).Snapshot(ctx)
		req.NoError(err)

		fields := snapshot.AsMap()
		req.Equal("hub-a", fields["instance"])
		req.Equal(float64(3), fields["connections"])
		req.Equal(float64(2), fields["identified"])
		req.Equal(float64(1), fields["typing"])
		req.Equal([]any{
			map[string]any{"room": "chat-42", "members": float64(2)},
			map[string]any{"room": "chat-99", "members": float64(1)},
		}, fields["rooms"])
		monitoring, ok := fields["monitoring"].(map[string]any)
		req.True(ok)
		req.Equal(float64(1), monitoring["frames_sent"])

		rooms, ok := fields["activity"].([]any)
		req.True(ok)
		req.Len(rooms, 1)
		req.Equal("chat-42", rooms[0].(map[string]any)["room"])
		req.Equal(float64(1), rooms[0].(map[string]any)["messages"])
		req.Equal("m1", rooms[0].(map[string]any)["last_message_id"])
	})

	t.Run("should refuse a missing token", func(t *testing.T) {
		_, err := NewAdminClient(conn, "").Snapshot(ctx)
		require.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("should refuse a non admin", func(t *testing.T) {
		_, err := NewAdminClient(conn, userToken).Snapshot(ctx)
		require.Equal(t, codes.PermissionDenied, status.Code(err))
	})
}
