package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// roomScoped is implemented by every request that names a room.
type roomScoped interface {
	GetRoomID() string
}

// roomOf returns the room a call is about: the one in the request, or the
// session's room for calls like GetMyTarget that carry none.
func roomOf(ctx context.Context, req connect.AnyRequest) string {
	if r, ok := req.Any().(roomScoped); ok && r.GetRoomID() != "" {
		return r.GetRoomID()
	}
	if claims := GetSession(ctx); claims != nil {
		return claims.RoomID
	}
	return ""
}

// callAttrs are the fields every RPC log line carries.
func callAttrs(ctx context.Context, req connect.AnyRequest) []any {
	attrs := []any{"procedure", req.Spec().Procedure}
	if roomID := roomOf(ctx, req); roomID != "" {
		attrs = append(attrs, "room_id", roomID)
	}
	if claims := GetSession(ctx); claims != nil {
		attrs = append(attrs, "participant_id", claims.ParticipantID, "epoch", claims.Epoch)
	}
	return attrs
}

// LoggingInterceptor logs every unary call with its room, the calling
// participant (if there is a session) and how long it took. Client errors are
// logged at warn, internal ones at error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := callAttrs(ctx, req)

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.Info("RPC ok", attrs...)
			case errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal:
				slog.Warn("RPC rejected", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
			default:
				slog.Error("RPC failed", append(attrs, "error", err)...)
			}

			return resp, err
		}
	}
}
