package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/manito/internal/assign"
	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

// RematchMode selects how a rematch is carried out.
type RematchMode int

const (
	// RematchInPlace redraws targets in the same room and starts a new epoch.
	RematchInPlace RematchMode = iota
	// RematchNewRoom copies the room into a fresh one and leaves the original alone.
	RematchNewRoom
)

func (m RematchMode) String() string {
	if m == RematchNewRoom {
		return "new_room"
	}
	return "in_place"
}

// RematchCoordinator re-runs the assignment for an existing roster.
type RematchCoordinator struct {
	store    storage.Store
	notifier Notifier
	rooms    *Rooms
}

// NewRematchCoordinator creates a RematchCoordinator. Forked rooms are created through rooms.
func NewRematchCoordinator(store storage.Store, notifier Notifier, rooms *Rooms) *RematchCoordinator {
	return &RematchCoordinator{store: store, notifier: notifier, rooms: rooms}
}

// Rematch dispatches to RematchInPlace or RematchToNewRoom.
func (c *RematchCoordinator) Rematch(ctx context.Context, roomID string, mode RematchMode) (*models.Room, error) {
	switch mode {
	case RematchInPlace:
		return c.RematchInPlace(ctx, roomID)
	case RematchNewRoom:
		return c.RematchToNewRoom(ctx, roomID)
	default:
		return nil, fmt.Errorf("unknown rematch mode %d", mode)
	}
}

// RematchInPlace draws a new cycle over the current roster, hides the results
// again and drops every claim. All of it is written in one transaction.
func (c *RematchCoordinator) RematchInPlace(ctx context.Context, roomID string) (*models.Room, error) {
	snap, err := c.store.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	room, participants := snap.Room, snap.Participants

	targets, err := c.rooms.assign(participantNames(participants))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	room.Restart()
	updates := make([]models.ParticipantUpdate, len(participants))
	for i, p := range participants {
		p.Reset(targets[p.Name])
		updates[i] = models.ParticipantUpdate{
			ID:         p.ID,
			TargetName: &p.TargetName,
			ResetClaim: true,
		}
	}

	err = c.store.UpdateRoomWithParticipants(ctx, roomID,
		models.RoomUpdate{State: &room.State, NextEpoch: true},
		updates,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply rematch: %w", err)
	}

	c.notifier.Publish(roomID)

	// Re-read for the epoch the store actually assigned.
	updated, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	slog.Debug("Room rematched in place", "room_id", roomID, "epoch", updated.Epoch)
	return updated, nil
}

// RematchToNewRoom creates a new room with the same title, host, master
// password and names, and a freshly drawn cycle.
func (c *RematchCoordinator) RematchToNewRoom(ctx context.Context, roomID string) (*models.Room, error) {
	snap, err := c.store.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	room, participants := snap.Room, snap.Participants

	names := participantNames(participants)
	if err := assign.ValidateRoster(names); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	hostName := room.HostName
	if hostName == "" {
		hostName = names[0]
	}

	forked, err := c.rooms.create(ctx, room.Title, hostName, room.MasterPassword, names)
	if err != nil {
		return nil, err
	}

	slog.Debug("Room forked for rematch", "room_id", roomID, "new_room_id", forked.ID)
	return forked, nil
}
