package server

import (
	"chat-hub/domain"
	"chat-hub/observability"
	"chat-hub/projection"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AdminServiceName = "chathub.admin.v1.CoordinatorAdmin"
	SnapshotMethod   = "/" + AdminServiceName + "/Snapshot"
)

// CoordinatorAdminServer exposes the live state of one hub instance.
// Messages are well-known protobuf types so no generated code is needed.
type CoordinatorAdminServer interface {
	Snapshot(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

type PresenceProvider interface {
	Snapshot() domain.Presence
}

type ActivityProvider interface {
	Snapshot() []projection.RoomActivity
}

var CoordinatorAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*CoordinatorAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chathub/admin/v1/admin.proto",
}

func RegisterCoordinatorAdminServer(s grpc.ServiceRegistrar, srv CoordinatorAdminServer) {
	s.RegisterService(&CoordinatorAdminServiceDesc, srv)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorAdminServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SnapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorAdminServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type AdminServer struct {
	instanceID string
	presence   PresenceProvider
	activity   ActivityProvider
	monitoring *observability.MonitoringManager
}

// NewAdminServer builds the admin service. activity may be nil.
func NewAdminServer(
	instanceID string,
	presence PresenceProvider,
	activity ActivityProvider,
	monitoring *observability.MonitoringManager,
) *AdminServer {
	return &AdminServer{instanceID: instanceID, presence: presence, activity: activity, monitoring: monitoring}
}

// Snapshot returns presence, room activity and monitoring counters as one struct:
// instance, connections, identified, typing, rooms (list of {room, members}),
// activity (list of per room counters) and monitoring.
func (s *AdminServer) Snapshot(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	presence := s.presence.Snapshot()

	ids := make([]string, 0, len(presence.Rooms))
	for id := range presence.Rooms {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	rooms := make([]any, 0, len(ids))
	for _, id := range ids {
		rooms = append(rooms, map[string]any{"room": id, "members": presence.Rooms[domain.RoomID(id)]})
	}

	monitoring, err := toMap(s.monitoring.GetLatest())
	if err != nil {
		return nil, err
	}

	out, err := structpb.NewStruct(map[string]any{
		"instance":    s.instanceID,
		"connections": presence.Connections,
		"identified":  presence.Identified,
		"typing":      presence.Typing,
		"rooms":       rooms,
		"activity":    s.roomActivity(),
		"monitoring":  monitoring,
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	return out, nil
}

func (s *AdminServer) roomActivity() []any {
	if s.activity == nil {
		return []any{}
	}
	snapshot := s.activity.Snapshot()
	out := make([]any, 0, len(snapshot))
	for _, room := range snapshot {
		out = append(out, map[string]any{
			"room":            string(room.Room),
			"messages":        room.Messages,
			"typing_starts":   room.TypingStarts,
			"typing_expired":  room.TypingExpired,
			"joins":           room.Joins,
			"leaves":          room.Leaves,
			"last_message_id": room.LastMessageID,
			"last_activity":   room.LastActivity.Format(time.RFC3339),
		})
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
