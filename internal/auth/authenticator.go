package auth

import (
	"context"

	"github.com/mmynk/manito/internal/models"
)

// Identity is a participant whose ownership has just been proven.
type Identity struct {
	Room        *models.Room
	Participant *models.Participant

	// Claimed is true when this call performed the first claim of the epoch.
	Claimed bool
}

// Authenticator defines how callers prove who they are inside a room.
// This abstraction keeps the service layer independent of how credentials
// are stored and compared.
type Authenticator interface {
	// ClaimOrVerify claims an unclaimed participant with credential, or checks
	// credential against the stored personal password of a claimed one.
	ClaimOrVerify(ctx context.Context, roomID, name, credential string) (*Identity, error)

	// VerifyMaster checks the shared room password and returns the room.
	VerifyMaster(ctx context.Context, roomID, credential string) (*models.Room, error)

	// Resume re-establishes an identity from a previously issued session.
	Resume(ctx context.Context, claims *Claims) (*Identity, error)
}
