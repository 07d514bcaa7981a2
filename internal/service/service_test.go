package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/manito/internal/assign"
	"github.com/mmynk/manito/internal/auth"
	"github.com/mmynk/manito/internal/game"
	"github.com/mmynk/manito/internal/metrics"
	"github.com/mmynk/manito/internal/middleware"
	"github.com/mmynk/manito/internal/notify"
	"github.com/mmynk/manito/internal/storage/sqlite"
	"github.com/mmynk/manito/pkg/api"
)

const (
	testSecret = "test-secret-that-is-at-least-32-bytes-long"
	masterPW   = "party-time"
)

type testServer struct {
	rooms   *api.RoomServiceClient
	auth    *api.AuthServiceClient
	metrics *metrics.Metrics
}

// setupTestServer wires both services against a fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	broker := notify.NewBroker(store)
	m := metrics.New(prometheus.NewRegistry())
	authenticator := auth.NewPasswordAuthenticator(store, broker)
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	rooms := game.NewRooms(store, broker)

	roomSvc := NewRoomService(RoomServiceDeps{
		Rooms:         rooms,
		Reveals:       game.NewRevealCoordinator(store, broker),
		Rematches:     game.NewRematchCoordinator(store, broker, rooms),
		Authenticator: authenticator,
		Watcher:       broker,
		Metrics:       m,
		BaseURL:       "https://manito.test/",
	})
	authSvc := NewAuthService(authenticator, jwtManager, m)

	mux := http.NewServeMux()
	mux.Handle(api.NewRoomServiceHandler(roomSvc))
	mux.Handle(api.NewAuthServiceHandler(authSvc, connect.WithInterceptors(middleware.OptionalAuth(jwtManager))))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		rooms:   api.NewRoomServiceClient(server.Client(), server.URL),
		auth:    api.NewAuthServiceClient(server.Client(), server.URL),
		metrics: m,
	}
}

func (s *testServer) createRoom(t *testing.T, names ...string) *api.Room {
	t.Helper()

	resp, err := s.rooms.CreateRoom(context.Background(), connect.NewRequest(&api.CreateRoomRequest{
		Title:            "Office party",
		MasterPassword:   masterPW,
		ParticipantNames: names,
	}))
	require.NoError(t, err)
	return resp.Msg.Room
}

func (s *testServer) claim(t *testing.T, roomID, name, password string) *api.ClaimResponse {
	t.Helper()

	resp, err := s.auth.Claim(context.Background(), connect.NewRequest(&api.ClaimRequest{
		RoomID:   roomID,
		Name:     name,
		Password: password,
	}))
	require.NoError(t, err)
	return resp.Msg
}

func (s *testServer) getRoom(t *testing.T, roomID string) *api.GetRoomResponse {
	t.Helper()

	resp, err := s.rooms.GetRoom(context.Background(), connect.NewRequest(&api.GetRoomRequest{RoomID: roomID}))
	require.NoError(t, err)
	return resp.Msg
}

func targetsOf(participants []*api.Participant) map[string]string {
	targets := make(map[string]string, len(participants))
	for _, p := range participants {
		targets[p.Name] = p.TargetName
	}
	return targets
}

func TestCreateRoom(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.rooms.CreateRoom(context.Background(), connect.NewRequest(&api.CreateRoomRequest{
		Title:            "  Office party ",
		MasterPassword:   masterPW,
		ParticipantNames: []string{"  Alice ", "Bob", "", "Carol"},
	}))
	require.NoError(t, err)

	room := resp.Msg.Room
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Office party", room.Title)
	assert.Equal(t, "Alice", room.HostName)
	assert.Equal(t, 1, room.Epoch)
	assert.False(t, room.IsRevealed)
	assert.True(t, strings.HasPrefix(resp.Msg.EntryLink, "https://manito.test/entry?"))
	assert.Contains(t, resp.Msg.EntryLink, "roomId="+room.ID)

	got := s.getRoom(t, room.ID)
	require.Len(t, got.Participants, 3)
	assert.Equal(t, "Alice", got.Participants[0].Name)
	assert.Equal(t, "Bob", got.Participants[1].Name)
	assert.Equal(t, "Carol", got.Participants[2].Name)
	for _, p := range got.Participants {
		assert.False(t, p.IsJoined)
		assert.Empty(t, p.TargetName, "targets stay hidden until reveal")
	}
	assert.False(t, got.AllJoined)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RoomsCreated))
}

func TestCreateRoom_Invalid(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name  string
		title string
		pw    string
		names []string
	}{
		{"missing title", "  ", masterPW, []string{"A", "B", "C"}},
		{"short master password", "Party", " abc ", []string{"A", "B", "C"}},
		{"two participants", "Party", masterPW, []string{"A", "B"}},
		{"blank lines only leave two", "Party", masterPW, []string{"A", " ", "B", ""}},
		{"duplicate names", "Party", masterPW, []string{"A", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.rooms.CreateRoom(context.Background(), connect.NewRequest(&api.CreateRoomRequest{
				Title:            tt.title,
				MasterPassword:   tt.pw,
				ParticipantNames: tt.names,
			}))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	s := setupTestServer(t)

	_, err := s.rooms.GetRoom(context.Background(), connect.NewRequest(&api.GetRoomRequest{RoomID: "nonexistent-id"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestEnterRoom(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol")

	_, err := s.rooms.EnterRoom(context.Background(), connect.NewRequest(&api.EnterRoomRequest{
		RoomID:         room.ID,
		MasterPassword: "wrong",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	resp, err := s.rooms.EnterRoom(context.Background(), connect.NewRequest(&api.EnterRoomRequest{
		RoomID:         room.ID,
		MasterPassword: masterPW,
	}))
	require.NoError(t, err)
	assert.Equal(t, room.ID, resp.Msg.Room.ID)
	assert.Len(t, resp.Msg.Participants, 3)
}

func TestClaim(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol")

	t.Run("first claim", func(t *testing.T) {
		resp := s.claim(t, room.ID, "Alice", "a-secret")
		assert.True(t, resp.FirstClaim)
		assert.True(t, resp.IsHost)
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.TargetName)
		assert.NotEqual(t, "Alice", resp.TargetName)
	})

	t.Run("returning participant", func(t *testing.T) {
		first := s.claim(t, room.ID, "Bob", "b-secret")
		again := s.claim(t, room.ID, "Bob", "b-secret")
		assert.False(t, again.FirstClaim)
		assert.False(t, again.IsHost)
		assert.Equal(t, first.TargetName, again.TargetName)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.auth.Claim(context.Background(), connect.NewRequest(&api.ClaimRequest{
			RoomID: room.ID, Name: "Bob", Password: "guess",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := s.auth.Claim(context.Background(), connect.NewRequest(&api.ClaimRequest{
			RoomID: room.ID, Name: "Carol", Password: "",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := s.auth.Claim(context.Background(), connect.NewRequest(&api.ClaimRequest{
			RoomID: room.ID, Name: "Mallory", Password: "x",
		}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.Claims.WithLabelValues(metrics.ClaimClaimed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Claims.WithLabelValues(metrics.ClaimVerified)))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.Claims.WithLabelValues(metrics.ClaimMismatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Claims.WithLabelValues(metrics.ClaimNotFound)))

	got := s.getRoom(t, room.ID)
	assert.False(t, got.AllJoined)
	s.claim(t, room.ID, "Carol", "c-secret")
	assert.True(t, s.getRoom(t, room.ID).AllJoined)
}

func TestGetMyTarget(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol")
	claimed := s.claim(t, room.ID, "Bob", "b-secret")

	req := connect.NewRequest(&api.GetMyTargetRequest{})
	req.Header().Set("Authorization", "Bearer "+claimed.Token)
	resp, err := s.auth.GetMyTarget(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, room.ID, resp.Msg.RoomID)
	assert.Equal(t, "Bob", resp.Msg.Name)
	assert.Equal(t, claimed.TargetName, resp.Msg.TargetName)

	t.Run("no session", func(t *testing.T) {
		_, err := s.auth.GetMyTarget(context.Background(), connect.NewRequest(&api.GetMyTargetRequest{}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := connect.NewRequest(&api.GetMyTargetRequest{})
		req.Header().Set("Authorization", "Bearer forged")
		_, err := s.auth.GetMyTarget(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestReveal(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol", "Dave")

	_, err := s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: "nope",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	resp, err := s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Changed)
	assert.True(t, resp.Msg.Room.IsRevealed)

	resp, err = s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)
	assert.False(t, resp.Msg.Changed, "second reveal is a no-op")

	got := s.getRoom(t, room.ID)
	assert.True(t, got.Room.IsRevealed)
	targets := targetsOf(got.Participants)
	assert.Equal(t, 4, assign.CycleLength(targets, "Alice"))
}

func TestRematch_InPlace(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "A", "B", "C", "D")
	claimed := s.claim(t, room.ID, "A", "pw-a")

	_, err := s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)

	resp, err := s.rooms.Rematch(context.Background(), connect.NewRequest(&api.RematchRequest{
		RoomID: room.ID, MasterPassword: masterPW, Mode: api.RematchModeInPlace,
	}))
	require.NoError(t, err)
	assert.Equal(t, room.ID, resp.Msg.Room.ID)
	assert.Equal(t, 2, resp.Msg.Room.Epoch)
	assert.False(t, resp.Msg.Room.IsRevealed)

	got := s.getRoom(t, room.ID)
	assert.False(t, got.Room.IsRevealed)
	assert.Equal(t, 2, got.Room.Epoch)
	for _, p := range got.Participants {
		assert.False(t, p.IsJoined, "%s should be unclaimed after rematch", p.Name)
		assert.Empty(t, p.TargetName, "%s: targets of the new epoch stay hidden", p.Name)
	}

	// Sessions from the previous epoch are rejected.
	req := connect.NewRequest(&api.GetMyTargetRequest{})
	req.Header().Set("Authorization", "Bearer "+claimed.Token)
	_, err = s.auth.GetMyTarget(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	// The name can be claimed again, with a different password.
	again := s.claim(t, room.ID, "A", "new-pw")
	assert.True(t, again.FirstClaim)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Rematches.WithLabelValues("in_place")))
}

func TestRematch_NewRoom(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "A", "B", "C", "D")

	_, err := s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)
	before := targetsOf(s.getRoom(t, room.ID).Participants)

	resp, err := s.rooms.Rematch(context.Background(), connect.NewRequest(&api.RematchRequest{
		RoomID: room.ID, MasterPassword: masterPW, Mode: api.RematchModeNewRoom,
	}))
	require.NoError(t, err)
	forked := resp.Msg.Room
	assert.NotEqual(t, room.ID, forked.ID)
	assert.Equal(t, "A", forked.HostName)
	assert.False(t, forked.IsRevealed)
	assert.Contains(t, resp.Msg.EntryLink, "roomId="+forked.ID)

	original := s.getRoom(t, room.ID)
	assert.True(t, original.Room.IsRevealed)
	assert.Equal(t, before, targetsOf(original.Participants))

	// The forked room keeps the master password.
	_, err = s.rooms.EnterRoom(context.Background(), connect.NewRequest(&api.EnterRoomRequest{
		RoomID: forked.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.RoomsCreated))
}

func TestRematch_Rejected(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "A", "B", "C")

	_, err := s.rooms.Rematch(context.Background(), connect.NewRequest(&api.RematchRequest{
		RoomID: room.ID, MasterPassword: masterPW, Mode: "SIDEWAYS",
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = s.rooms.Rematch(context.Background(), connect.NewRequest(&api.RematchRequest{
		RoomID: room.ID, MasterPassword: "wrong", Mode: api.RematchModeInPlace,
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}

func TestWatchRoom(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := s.rooms.WatchRoom(ctx, connect.NewRequest(&api.WatchRoomRequest{RoomID: room.ID}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial snapshot: %v", stream.Err())
	assert.False(t, stream.Msg().Room.IsRevealed)

	_, err = s.rooms.Reveal(context.Background(), connect.NewRequest(&api.RevealRequest{
		RoomID: room.ID, MasterPassword: masterPW,
	}))
	require.NoError(t, err)

	require.True(t, stream.Receive(), "snapshot after reveal: %v", stream.Err())
	assert.True(t, stream.Msg().Room.IsRevealed)
}

func TestWatchParticipants(t *testing.T) {
	s := setupTestServer(t)
	room := s.createRoom(t, "Alice", "Bob", "Carol")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := s.rooms.WatchParticipants(ctx, connect.NewRequest(&api.WatchParticipantsRequest{RoomID: room.ID}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial snapshot: %v", stream.Err())
	require.Len(t, stream.Msg().Participants, 3)
	for _, p := range stream.Msg().Participants {
		assert.False(t, p.IsJoined)
	}

	s.claim(t, room.ID, "Bob", "b-secret")

	require.True(t, stream.Receive(), "snapshot after claim: %v", stream.Err())
	joined := map[string]bool{}
	for _, p := range stream.Msg().Participants {
		joined[p.Name] = p.IsJoined
		assert.Empty(t, p.TargetName)
	}
	assert.Equal(t, map[string]bool{"Alice": false, "Bob": true, "Carol": false}, joined)
	assert.False(t, stream.Msg().AllJoined)
}

func TestWatchRoom_NotFound(t *testing.T) {
	s := setupTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := s.rooms.WatchRoom(ctx, connect.NewRequest(&api.WatchRoomRequest{RoomID: "missing"}))
	if err == nil {
		defer stream.Close()
		assert.False(t, stream.Receive())
		err = stream.Err()
	}
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}
