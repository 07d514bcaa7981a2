package game

import (
	"context"
	"fmt"

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

// RevealCoordinator makes every target in a room visible.
//
// It does not check who is asking; callers gate it behind the master password.
type RevealCoordinator struct {
	store    storage.Store
	notifier Notifier
}

// NewRevealCoordinator creates a RevealCoordinator backed by store.
func NewRevealCoordinator(store storage.Store, notifier Notifier) *RevealCoordinator {
	return &RevealCoordinator{store: store, notifier: notifier}
}

// Reveal flips the room to revealed. Revealing an already revealed room is a
// no-op; the returned bool reports whether anything changed.
func (c *RevealCoordinator) Reveal(ctx context.Context, roomID string) (bool, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}

	if !room.Reveal() {
		return false, nil
	}

	if err := c.store.UpdateRoom(ctx, roomID, models.RoomUpdate{State: &room.State}); err != nil {
		return false, fmt.Errorf("failed to reveal room: %w", err)
	}

	c.notifier.Publish(roomID)
	return true, nil
}
