package notify

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
	"github.com/mmynk/manito/internal/storage/sqlite"
)

const waitFor = 2 * time.Second

func setupBroker(t *testing.T) (*Broker, *sqlite.SQLiteStore, *models.Room) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	room := &models.Room{Title: "Watch", HostName: "A", MasterPassword: "1234"}
	require.NoError(t, store.CreateRoom(context.Background(), room, []*models.Participant{
		{Name: "A", TargetName: "B"},
		{Name: "B", TargetName: "C"},
		{Name: "C", TargetName: "A"},
	}))

	return NewBroker(store), store, room
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for snapshot")
	}
	panic("unreachable")
}

func TestSubscribeRoom(t *testing.T) {
	broker, store, room := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rooms, err := broker.SubscribeRoom(ctx, room.ID)
	require.NoError(t, err)

	first := receive(t, rooms)
	assert.Equal(t, room.ID, first.ID)
	assert.False(t, first.IsRevealed())

	revealed := models.RoomRevealed
	require.NoError(t, store.UpdateRoom(ctx, room.ID, models.RoomUpdate{State: &revealed}))
	broker.Publish(room.ID)

	second := receive(t, rooms)
	assert.True(t, second.IsRevealed())
}

func TestSubscribeParticipants(t *testing.T) {
	broker, store, room := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lists, err := broker.SubscribeParticipants(ctx, room.ID)
	require.NoError(t, err)

	first := receive(t, lists)
	require.Len(t, first, 3)
	assert.Equal(t, "A", first[0].Name)
	assert.False(t, first[0].IsJoined())

	ok, err := store.ClaimParticipant(ctx, first[0].ID, "pw", room.Epoch)
	require.NoError(t, err)
	require.True(t, ok)
	broker.Publish(room.ID)

	second := receive(t, lists)
	assert.True(t, second[0].IsJoined())
	assert.False(t, first[0].IsJoined(), "earlier snapshots are not mutated")
}

func TestSubscribe(t *testing.T) {
	broker, store, room := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := broker.Subscribe(ctx, room.ID)
	require.NoError(t, err)

	first := receive(t, snapshots)
	assert.Equal(t, room.ID, first.Room.ID)
	require.Len(t, first.Participants, 3)

	revealed := models.RoomRevealed
	require.NoError(t, store.UpdateRoom(ctx, room.ID, models.RoomUpdate{State: &revealed}))
	broker.Publish(room.ID)

	second := receive(t, snapshots)
	assert.True(t, second.Room.IsRevealed())
	assert.Equal(t, "B", second.Participant("A").TargetName)

	// Rematch in place: hide, redraw and bump the epoch in one commit.
	created := models.RoomCreated
	newTargets := map[string]string{"A": "C", "B": "A", "C": "B"}
	updates := make([]models.ParticipantUpdate, 0, len(second.Participants))
	for _, p := range second.Participants {
		target := newTargets[p.Name]
		updates = append(updates, models.ParticipantUpdate{ID: p.ID, TargetName: &target, ResetClaim: true})
	}
	require.NoError(t, store.UpdateRoomWithParticipants(ctx, room.ID,
		models.RoomUpdate{State: &created, NextEpoch: true}, updates))
	broker.Publish(room.ID)

	third := receive(t, snapshots)
	assert.False(t, third.Room.IsRevealed(), "new targets never arrive with the old reveal flag")
	assert.Equal(t, 2, third.Room.Epoch)
	assert.Equal(t, "C", third.Participant("A").TargetName)
}

func TestPublishCoalesces(t *testing.T) {
	broker, store, room := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rooms, err := broker.SubscribeRoom(ctx, room.ID)
	require.NoError(t, err)
	receive(t, rooms)

	revealed := models.RoomRevealed
	require.NoError(t, store.UpdateRoom(ctx, room.ID, models.RoomUpdate{State: &revealed}))
	for i := 0; i < 10; i++ {
		broker.Publish(room.ID)
	}

	latest := receive(t, rooms)
	assert.True(t, latest.IsRevealed())
}

func TestUnsubscribe(t *testing.T) {
	broker, _, room := setupBroker(t)

	var live atomic.Int32
	broker.OnSubscribe = func(delta int) { live.Add(int32(delta)) }

	ctx, cancel := context.WithCancel(context.Background())
	rooms, err := broker.SubscribeRoom(ctx, room.ID)
	require.NoError(t, err)
	receive(t, rooms)
	assert.Equal(t, 1, broker.Subscribers(room.ID))
	assert.EqualValues(t, 1, live.Load())

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-rooms
		return !open
	}, waitFor, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return broker.Subscribers(room.ID) == 0 && live.Load() == 0
	}, waitFor, 10*time.Millisecond)

	// Publishing to a room without subscribers is a no-op.
	broker.Publish(room.ID)
}

func TestSubscribeMissingRoom(t *testing.T) {
	broker, _, _ := setupBroker(t)

	_, err := broker.SubscribeRoom(context.Background(), "nonexistent-id")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = broker.SubscribeParticipants(context.Background(), "nonexistent-id")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = broker.Subscribe(context.Background(), "nonexistent-id")
	require.ErrorIs(t, err, storage.ErrNotFound)

	assert.Zero(t, broker.Subscribers("nonexistent-id"))
}
