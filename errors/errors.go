package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")

	// Real-time protocol
	ErrUnknownEvent       = fmt.Errorf("unknown event")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrMissingRoom        = fmt.Errorf("chat id is missing")
	ErrMissingChatUsers   = fmt.Errorf("chat users are not defined")
	ErrConnectionNotFound = fmt.Errorf("connection not found")
	ErrNotIdentified      = fmt.Errorf("connection has not been set up")
	ErrIdentityChanged    = fmt.Errorf("connection identity cannot change")
	ErrNotInRoom          = fmt.Errorf("connection is not in the room")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrOriginNotAllowed   = fmt.Errorf("origin not allowed")

	// Accounts
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrInvalidPicture     = fmt.Errorf("invalid picture")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthorized       = fmt.Errorf("not authorized")
	ErrForbidden          = fmt.Errorf("forbidden")

	// Chats and messages
	ErrInvalidRequest  = fmt.Errorf("invalid request")
	ErrChatNotFound    = fmt.Errorf("chat not found")
	ErrNotChatMember   = fmt.Errorf("user is not a member of the chat")
	ErrNotGroupAdmin   = fmt.Errorf("only the group admin can do this")
	ErrNotGroupChat    = fmt.Errorf("chat is not a group chat")
	ErrGroupTooSmall   = fmt.Errorf("more than 2 users are required to form a group chat")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrPayloadTooLarge = fmt.Errorf("request body too large")
)

// MapToHTTPStatus returns the HTTP status matching the first known sentinel wrapped in err.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidPicture),
		errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrGroupTooSmall),
		errors.Is(err, ErrNotGroupChat),
		errors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotChatMember),
		errors.Is(err, ErrNotGroupAdmin):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChatNotFound),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MapToGRPCError converts a domain error into a gRPC status error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch MapToHTTPStatus(err) {
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusTooManyRequests, http.StatusRequestEntityTooLarge:
		code = codes.ResourceExhausted
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
