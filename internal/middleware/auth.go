package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/manito/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionKey is the context key for the validated session claims.
const SessionKey contextKey = "session"

// GetSession extracts the session claims from the context.
// Returns nil if the request carried no valid session token.
func GetSession(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(SessionKey).(*auth.Claims)
	return claims
}

// WithSession returns a copy of ctx carrying claims.
func WithSession(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, SessionKey, claims)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// OptionalAuth returns a middleware that validates session tokens if present, but
// allows requests without one. Handlers that need a session check GetSession.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored here
				if claims, err := jwtManager.Validate(token); err == nil {
					ctx = WithSession(ctx, claims)
				}
			}

			return next(ctx, req)
		}
	}
}
