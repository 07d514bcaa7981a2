package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

var (
	// ErrAuthMismatch means the password does not match, or was empty.
	ErrAuthMismatch = errors.New("password does not match")
	// ErrClaimLost means a concurrent first claim with another password won.
	ErrClaimLost = errors.New("participant was claimed by someone else")

	errEpochChanged = errors.New("room moved to a new epoch")
)

// maxClaimAttempts bounds how often a claim is retried when rematches keep
// landing between reading the room and writing the claim.
const maxClaimAttempts = 3

// Storage defines the persistence operations the authenticator needs.
type Storage interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	GetRoomWithParticipants(ctx context.Context, roomID string) (*models.RoomSnapshot, error)
	ClaimParticipant(ctx context.Context, participantID, password string, epoch int) (bool, error)
}

// Notifier is told about rooms whose state changed.
type Notifier interface {
	Publish(roomID string)
}

// PasswordAuthenticator implements Authenticator with plain-text passwords.
//
// Passwords are stored and compared in the clear: an empty personal password
// is what marks a participant as unclaimed.
type PasswordAuthenticator struct {
	storage  Storage
	notifier Notifier
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(store Storage, notifier Notifier) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage:  store,
		notifier: notifier,
	}
}

// ClaimOrVerify resolves name in the room and either claims it or verifies it.
//
// The first claim is a conditional write that only succeeds while the stored
// password is empty and the room is still at the epoch that was read. A caller
// that loses to another claim gets ErrClaimLost unless it happened to submit
// the winning password. A rematch in between restarts the attempt against the
// new epoch, so the returned room and target always belong together.
func (a *PasswordAuthenticator) ClaimOrVerify(ctx context.Context, roomID, name, credential string) (*Identity, error) {
	for attempt := 1; ; attempt++ {
		id, err := a.claimOrVerify(ctx, roomID, name, credential)
		if !errors.Is(err, errEpochChanged) {
			return id, err
		}
		if attempt == maxClaimAttempts {
			return nil, fmt.Errorf("%w: room kept changing", ErrClaimLost)
		}
	}
}

func (a *PasswordAuthenticator) claimOrVerify(ctx context.Context, roomID, name, credential string) (*Identity, error) {
	snap, err := a.storage.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}

	participant := snap.Participant(name)
	if participant == nil {
		return nil, fmt.Errorf("participant %q in room %s: %w", name, roomID, storage.ErrNotFound)
	}

	if participant.State() == models.ParticipantClaimed {
		if !participant.Matches(credential) {
			return nil, ErrAuthMismatch
		}
		return &Identity{Room: snap.Room, Participant: participant}, nil
	}

	if err := participant.Claim(credential); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthMismatch, err)
	}

	ok, err := a.storage.ClaimParticipant(ctx, participant.ID, credential, snap.Room.Epoch)
	if err != nil {
		return nil, fmt.Errorf("failed to claim participant: %w", err)
	}
	if ok {
		a.notifier.Publish(roomID)
		return &Identity{Room: snap.Room, Participant: participant, Claimed: true}, nil
	}

	current, err := a.storage.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if current.Room.Epoch != snap.Room.Epoch {
		return nil, errEpochChanged
	}

	winner := current.ParticipantByID(participant.ID)
	if winner == nil {
		return nil, fmt.Errorf("participant %s: %w", participant.ID, storage.ErrNotFound)
	}
	if !winner.Matches(credential) {
		return nil, ErrClaimLost
	}
	return &Identity{Room: current.Room, Participant: winner}, nil
}

// VerifyMaster compares credential with the room's master password.
func (a *PasswordAuthenticator) VerifyMaster(ctx context.Context, roomID, credential string) (*models.Room, error) {
	room, err := a.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if credential == "" || subtle.ConstantTimeCompare([]byte(room.MasterPassword), []byte(credential)) != 1 {
		return nil, ErrAuthMismatch
	}
	return room, nil
}

// Resume checks, against one snapshot of the room, that a session still
// belongs to the current epoch and that its participant is still claimed.
func (a *PasswordAuthenticator) Resume(ctx context.Context, claims *Claims) (*Identity, error) {
	snap, err := a.storage.GetRoomWithParticipants(ctx, claims.RoomID)
	if err != nil {
		return nil, err
	}

	participant, err := claims.Check(snap)
	if err != nil {
		return nil, err
	}
	return &Identity{Room: snap.Room, Participant: participant}, nil
}
