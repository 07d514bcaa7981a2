// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/manito/internal/models"
)

// ErrNotFound is returned when a room or participant does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the room and participant storage operations the game relies on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateRoom persists a room together with its full participant set.
	// Either everything is written or nothing is. IDs and CreatedAt are
	// populated by the store.
	CreateRoom(ctx context.Context, room *models.Room, participants []*models.Participant) error

	// GetRoom retrieves a room by its ID.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// GetRoomWithParticipants reads a room and its participants, ordered by
	// name, as one consistent snapshot.
	GetRoomWithParticipants(ctx context.Context, roomID string) (*models.RoomSnapshot, error)

	// UpdateRoom applies a partial update to a room.
	UpdateRoom(ctx context.Context, roomID string, update models.RoomUpdate) error

	// DeleteRoom removes a room and its participants.
	DeleteRoom(ctx context.Context, roomID string) error

	// ListParticipants returns the participants of a room ordered by name.
	ListParticipants(ctx context.Context, roomID string) ([]*models.Participant, error)

	// FindParticipantByName looks a participant up by display name.
	FindParticipantByName(ctx context.Context, roomID, name string) (*models.Participant, error)

	// GetParticipant retrieves a participant by its ID.
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)

	// ClaimParticipant sets the personal password only if it is currently
	// empty and the room is still at epoch. It reports false when another
	// claim or a rematch got there first.
	ClaimParticipant(ctx context.Context, participantID, password string, epoch int) (bool, error)

	// UpdateRoomWithParticipants applies the participant updates and the room
	// update as one all-or-nothing unit.
	UpdateRoomWithParticipants(ctx context.Context, roomID string, room models.RoomUpdate, participants []models.ParticipantUpdate) error

	// Close releases any resources held by the store.
	Close() error
}
