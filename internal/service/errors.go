package service

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/mmynk/manito/internal/auth"
	"github.com/mmynk/manito/internal/game"
	"github.com/mmynk/manito/internal/storage"
)

// connectError maps a domain error onto the RPC status a client sees.
func connectError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, auth.ErrAuthMismatch):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrClaimLost):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, game.ErrInvalidRoster), errors.Is(err, game.ErrInvalidSettings):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
