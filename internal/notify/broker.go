// Package notify pushes room and participant snapshots to subscribers.
//
// Writers call Publish after a successful change. Each subscription reloads
// the current state from storage when woken, so a slow subscriber only ever
// sees the latest snapshot and never blocks a writer.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/manito/internal/models"
)

// Storage is the read side the broker loads snapshots from.
type Storage interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	GetRoomWithParticipants(ctx context.Context, roomID string) (*models.RoomSnapshot, error)
}

type subscriber struct {
	wake chan struct{}
}

// Broker fans change notifications out to per-room subscribers.
type Broker struct {
	store Storage

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}

	// OnSubscribe, when set, is called with +1/-1 as subscriptions come and go.
	OnSubscribe func(delta int)
}

// NewBroker creates a Broker that loads snapshots from store.
func NewBroker(store Storage) *Broker {
	return &Broker{
		store: store,
		subs:  make(map[string]map[*subscriber]struct{}),
	}
}

// Publish wakes every subscriber of roomID. It never blocks.
func (b *Broker) Publish(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[roomID] {
		select {
		case s.wake <- struct{}{}:
		default:
			// A wakeup is already pending; it will load the latest state.
		}
	}
}

// Subscribers returns the number of live subscriptions for roomID.
func (b *Broker) Subscribers(roomID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[roomID])
}

// SubscribeRoom streams room snapshots, starting with the current one, until
// ctx is cancelled. The channel is closed when the subscription ends.
func (b *Broker) SubscribeRoom(ctx context.Context, roomID string) (<-chan models.Room, error) {
	return subscribe(ctx, b, roomID, func(ctx context.Context) (models.Room, error) {
		room, err := b.store.GetRoom(ctx, roomID)
		if err != nil {
			return models.Room{}, err
		}
		return *room, nil
	})
}

// SubscribeParticipants streams full participant list snapshots, ordered by
// name, starting with the current one, until ctx is cancelled.
func (b *Broker) SubscribeParticipants(ctx context.Context, roomID string) (<-chan []models.Participant, error) {
	return subscribe(ctx, b, roomID, func(ctx context.Context) ([]models.Participant, error) {
		snap, err := b.store.GetRoomWithParticipants(ctx, roomID)
		if err != nil {
			return nil, err
		}
		participants := make([]models.Participant, len(snap.Participants))
		for i, p := range snap.Participants {
			participants[i] = *p
		}
		return participants, nil
	})
}

// Subscribe streams the room together with its participants. Each value is
// read in one go, so its reveal flag always matches its targets.
func (b *Broker) Subscribe(ctx context.Context, roomID string) (<-chan models.RoomSnapshot, error) {
	return subscribe(ctx, b, roomID, func(ctx context.Context) (models.RoomSnapshot, error) {
		snap, err := b.store.GetRoomWithParticipants(ctx, roomID)
		if err != nil {
			return models.RoomSnapshot{}, err
		}
		return *snap, nil
	})
}

// subscribe registers before loading the first snapshot so no change made in
// between is missed.
func subscribe[T any](ctx context.Context, b *Broker, roomID string, load func(context.Context) (T, error)) (<-chan T, error) {
	s := b.add(roomID)

	current, err := load(ctx)
	if err != nil {
		b.remove(roomID, s)
		return nil, err
	}

	out := make(chan T)
	go func() {
		defer close(out)
		defer b.remove(roomID, s)

		for {
			select {
			case out <- current:
			case <-ctx.Done():
				return
			}

			select {
			case <-s.wake:
			case <-ctx.Done():
				return
			}

			next, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("Subscription ended", "room_id", roomID, "error", err)
				}
				return
			}
			current = next
		}
	}()

	return out, nil
}

func (b *Broker) add(roomID string) *subscriber {
	s := &subscriber{wake: make(chan struct{}, 1)}

	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[*subscriber]struct{})
	}
	b.subs[roomID][s] = struct{}{}
	b.mu.Unlock()

	if b.OnSubscribe != nil {
		b.OnSubscribe(1)
	}
	return s
}

func (b *Broker) remove(roomID string, s *subscriber) {
	b.mu.Lock()
	delete(b.subs[roomID], s)
	if len(b.subs[roomID]) == 0 {
		delete(b.subs, roomID)
	}
	b.mu.Unlock()

	if b.OnSubscribe != nil {
		b.OnSubscribe(-1)
	}
}
