package auth

import (
	"chat-hub/errors"
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryInterceptor handles JWT validation for incoming gRPC calls.
// Methods listed in publicMethods skip it. When requiredRole is set the caller must carry it.
func UnaryInterceptor(tokens *TokenManager, requiredRole string, publicMethods ...string) grpc.UnaryServerInterceptor {
	public := make(map[string]struct{}, len(publicMethods))
	for _, method := range publicMethods {
		public[method] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := public[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is missing")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
		}

		identity, err := tokens.Authenticate(values[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		if requiredRole != "" && !identity.HasRole(requiredRole) {
			return nil, errors.MapToGRPCError(errors.ErrForbidden)
		}

		return handler(WithIdentity(ctx, identity), req)
	}
}
