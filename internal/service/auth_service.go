package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/manito/internal/auth"
	"github.com/mmynk/manito/internal/metrics"
	"github.com/mmynk/manito/internal/middleware"
	"github.com/mmynk/manito/internal/storage"
	"github.com/mmynk/manito/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	metrics       *metrics.Metrics
}

// NewAuthService creates a new identity claim service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, m *metrics.Metrics) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		metrics:       m,
	}
}

// Claim claims a participant on first use, or verifies the personal password
// afterwards, and returns the participant's target with a session token.
func (s *AuthService) Claim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.ClaimResponse], error) {
	slog.Info("Claim request", "room_id", req.Msg.RoomID, "name", req.Msg.Name)

	identity, err := s.authenticator.ClaimOrVerify(ctx, req.Msg.RoomID, req.Msg.Name, req.Msg.Password)
	if err != nil {
		s.metrics.Claims.WithLabelValues(claimOutcome(err)).Inc()
		slog.Warn("Claim failed", "room_id", req.Msg.RoomID, "name", req.Msg.Name, "error", err)
		return nil, connectError(err)
	}

	outcome := metrics.ClaimVerified
	if identity.Claimed {
		outcome = metrics.ClaimClaimed
	}
	s.metrics.Claims.WithLabelValues(outcome).Inc()

	token, err := s.jwtManager.Generate(identity)
	if err != nil {
		slog.Error("Failed to generate token", "participant_id", identity.Participant.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Claim successful", "room_id", identity.Room.ID, "participant_id", identity.Participant.ID, "outcome", outcome)

	return connect.NewResponse(&api.ClaimResponse{
		TargetName: identity.Participant.TargetName,
		Token:      token,
		FirstClaim: identity.Claimed,
		IsHost:     identity.Participant.Name == identity.Room.HostName,
	}), nil
}

func claimOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrClaimLost):
		return metrics.ClaimLost
	case errors.Is(err, storage.ErrNotFound):
		return metrics.ClaimNotFound
	default:
		return metrics.ClaimMismatch
	}
}

// GetMyTarget returns the target of the session's participant. Sessions issued
// before a rematch are no longer accepted.
func (s *AuthService) GetMyTarget(ctx context.Context, req *connect.Request[api.GetMyTargetRequest]) (*connect.Response[api.GetMyTargetResponse], error) {
	claims := middleware.GetSession(ctx)
	if claims == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	identity, err := s.authenticator.Resume(ctx, claims)
	if err != nil {
		slog.Warn("Session rejected", "participant_id", claims.ParticipantID, "error", err)
		if errors.Is(err, auth.ErrAuthMismatch) {
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.GetMyTargetResponse{
		RoomID:     identity.Room.ID,
		Name:       identity.Participant.Name,
		TargetName: identity.Participant.TargetName,
	}), nil
}
