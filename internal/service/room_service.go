// Package service implements the Connect RPC handlers for rooms and identity claims.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"connectrpc.com/connect"
	"github.com/mmynk/manito/internal/auth"
	"github.com/mmynk/manito/internal/game"
	"github.com/mmynk/manito/internal/metrics"
	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/pkg/api"
)

// Watcher streams room and participant snapshots.
type Watcher interface {
	SubscribeRoom(ctx context.Context, roomID string) (<-chan models.Room, error)
	SubscribeParticipants(ctx context.Context, roomID string) (<-chan []models.Participant, error)
}

// RoomServiceDeps holds the collaborators of a RoomService.
type RoomServiceDeps struct {
	Rooms         *game.Rooms
	Reveals       *game.RevealCoordinator
	Rematches     *game.RematchCoordinator
	Authenticator auth.Authenticator
	Watcher       Watcher
	Metrics       *metrics.Metrics

	// BaseURL prefixes the entry links handed out for new rooms.
	BaseURL string
}

// RoomService implements the Connect RoomService.
type RoomService struct {
	deps RoomServiceDeps
}

// NewRoomService creates a new RoomService.
func NewRoomService(deps RoomServiceDeps) *RoomService {
	return &RoomService{deps: deps}
}

// CreateRoom validates the roster, draws targets and stores the new room.
func (s *RoomService) CreateRoom(ctx context.Context, req *connect.Request[api.CreateRoomRequest]) (*connect.Response[api.CreateRoomResponse], error) {
	slog.Info("CreateRoom request received",
		"title", req.Msg.Title,
		"participants_count", len(req.Msg.ParticipantNames),
	)

	room, err := s.deps.Rooms.Create(ctx, game.CreateRoomInput{
		Title:            req.Msg.Title,
		MasterPassword:   req.Msg.MasterPassword,
		ParticipantNames: req.Msg.ParticipantNames,
	})
	if err != nil {
		return nil, connectError(err)
	}
	s.deps.Metrics.RoomsCreated.Inc()

	slog.Info("Room created", "room_id", room.ID, "host", room.HostName)

	return connect.NewResponse(&api.CreateRoomResponse{
		Room:      RoomView(room),
		EntryLink: api.EntryLink(s.deps.BaseURL, room.ID, room.Title),
	}), nil
}

// GetRoom returns the public view of a room and its participants.
func (s *RoomService) GetRoom(ctx context.Context, req *connect.Request[api.GetRoomRequest]) (*connect.Response[api.GetRoomResponse], error) {
	room, participants, err := s.deps.Rooms.Get(ctx, req.Msg.RoomID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.GetRoomResponse{
		Room:         RoomView(room),
		Participants: ParticipantViews(participants, room.IsRevealed()),
		AllJoined:    game.AllJoined(participants),
	}), nil
}

// EnterRoom checks the master password and returns the room.
func (s *RoomService) EnterRoom(ctx context.Context, req *connect.Request[api.EnterRoomRequest]) (*connect.Response[api.EnterRoomResponse], error) {
	if _, err := s.deps.Authenticator.VerifyMaster(ctx, req.Msg.RoomID, req.Msg.MasterPassword); err != nil {
		slog.Warn("EnterRoom rejected", "room_id", req.Msg.RoomID, "error", err)
		return nil, connectError(err)
	}

	room, participants, err := s.deps.Rooms.Get(ctx, req.Msg.RoomID)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.EnterRoomResponse{
		Room:         RoomView(room),
		Participants: ParticipantViews(participants, room.IsRevealed()),
	}), nil
}

// Reveal makes every target visible. Revealing twice is not an error.
func (s *RoomService) Reveal(ctx context.Context, req *connect.Request[api.RevealRequest]) (*connect.Response[api.RevealResponse], error) {
	room, err := s.deps.Authenticator.VerifyMaster(ctx, req.Msg.RoomID, req.Msg.MasterPassword)
	if err != nil {
		slog.Warn("Reveal rejected", "room_id", req.Msg.RoomID, "error", err)
		return nil, connectError(err)
	}

	changed, err := s.deps.Reveals.Reveal(ctx, room.ID)
	if err != nil {
		slog.Error("Reveal failed", "room_id", room.ID, "error", err)
		return nil, connectError(err)
	}
	s.deps.Metrics.Reveals.WithLabelValues(strconv.FormatBool(changed)).Inc()
	room.Reveal()

	slog.Info("Room revealed", "room_id", room.ID, "changed", changed)

	return connect.NewResponse(&api.RevealResponse{
		Room:    RoomView(room),
		Changed: changed,
	}), nil
}

// Rematch redraws the targets, either in place or in a forked room.
func (s *RoomService) Rematch(ctx context.Context, req *connect.Request[api.RematchRequest]) (*connect.Response[api.RematchResponse], error) {
	mode, err := rematchMode(req.Msg.Mode)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if _, err := s.deps.Authenticator.VerifyMaster(ctx, req.Msg.RoomID, req.Msg.MasterPassword); err != nil {
		slog.Warn("Rematch rejected", "room_id", req.Msg.RoomID, "error", err)
		return nil, connectError(err)
	}

	room, err := s.deps.Rematches.Rematch(ctx, req.Msg.RoomID, mode)
	if err != nil {
		slog.Error("Rematch failed", "room_id", req.Msg.RoomID, "mode", mode, "error", err)
		return nil, connectError(err)
	}
	s.deps.Metrics.Rematches.WithLabelValues(mode.String()).Inc()
	if mode == game.RematchNewRoom {
		s.deps.Metrics.RoomsCreated.Inc()
	}

	slog.Info("Rematch complete", "room_id", req.Msg.RoomID, "mode", mode, "result_room_id", room.ID, "epoch", room.Epoch)

	return connect.NewResponse(&api.RematchResponse{
		Room:      RoomView(room),
		EntryLink: api.EntryLink(s.deps.BaseURL, room.ID, room.Title),
	}), nil
}

// rematchMode parses the wire mode. An empty mode means in place.
func rematchMode(mode api.RematchMode) (game.RematchMode, error) {
	switch mode {
	case api.RematchModeInPlace, "":
		return game.RematchInPlace, nil
	case api.RematchModeNewRoom:
		return game.RematchNewRoom, nil
	default:
		return 0, fmt.Errorf("unknown rematch mode %q", mode)
	}
}

// WatchRoom streams room snapshots until the client goes away.
func (s *RoomService) WatchRoom(ctx context.Context, req *connect.Request[api.WatchRoomRequest], stream *connect.ServerStream[api.WatchRoomResponse]) error {
	snapshots, err := s.deps.Watcher.SubscribeRoom(ctx, req.Msg.RoomID)
	if err != nil {
		return connectError(err)
	}

	for room := range snapshots {
		if err := stream.Send(&api.WatchRoomResponse{Room: RoomView(&room)}); err != nil {
			return err
		}
	}
	return nil
}

// WatchParticipants streams participant list snapshots until the client goes
// away. The snapshots carry join status only, never targets.
func (s *RoomService) WatchParticipants(ctx context.Context, req *connect.Request[api.WatchParticipantsRequest], stream *connect.ServerStream[api.WatchParticipantsResponse]) error {
	snapshots, err := s.deps.Watcher.SubscribeParticipants(ctx, req.Msg.RoomID)
	if err != nil {
		return connectError(err)
	}

	for snapshot := range snapshots {
		participants := make([]*models.Participant, len(snapshot))
		for i := range snapshot {
			participants[i] = &snapshot[i]
		}

		err := stream.Send(&api.WatchParticipantsResponse{
			Participants: ParticipantViews(participants, false),
			AllJoined:    game.AllJoined(participants),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
