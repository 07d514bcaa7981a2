package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/manito/internal/assign"
	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/internal/storage"
)

// CreateRoomInput is what a host submits to open a room.
type CreateRoomInput struct {
	Title          string
	MasterPassword string

	// ParticipantNames are raw roster lines. They are trimmed and blank lines
	// dropped; the first remaining name becomes the host.
	ParticipantNames []string
}

// Rooms creates rooms and reads their state.
type Rooms struct {
	store    storage.Store
	notifier Notifier
	assign   func(names []string) (map[string]string, error)
}

// NewRooms creates a Rooms backed by store.
func NewRooms(store storage.Store, notifier Notifier) *Rooms {
	return &Rooms{
		store:    store,
		notifier: notifier,
		assign:   assign.Assign,
	}
}

// Create validates the input, draws targets and stores the room with all of
// its participants in one step.
func (r *Rooms) Create(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidSettings)
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.MasterPassword)) < MinMasterPasswordLength {
		return nil, fmt.Errorf("%w: master password needs at least %d characters", ErrInvalidSettings, MinMasterPasswordLength)
	}

	names := assign.CleanNames(in.ParticipantNames)
	if err := assign.ValidateRoster(names); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	return r.create(ctx, title, names[0], in.MasterPassword, names)
}

// create draws a fresh cycle over names and persists the room.
func (r *Rooms) create(ctx context.Context, title, hostName, masterPassword string, names []string) (*models.Room, error) {
	targets, err := r.assign(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}

	room := &models.Room{
		Title:          title,
		HostName:       hostName,
		MasterPassword: masterPassword,
		State:          models.RoomCreated,
		Epoch:          1,
	}

	participants := make([]*models.Participant, len(names))
	for i, name := range names {
		participants[i] = &models.Participant{
			Name:       name,
			TargetName: targets[name],
		}
	}

	if err := r.store.CreateRoom(ctx, room, participants); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	slog.Debug("Room stored", "room_id", room.ID, "participants", len(participants))
	r.notifier.Publish(room.ID)
	return room, nil
}

// Get returns a room and its participants ordered by name, both read from the
// same committed state.
func (r *Rooms) Get(ctx context.Context, roomID string) (*models.Room, []*models.Participant, error) {
	snap, err := r.store.GetRoomWithParticipants(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return snap.Room, snap.Participants, nil
}

// AllJoined reports whether every participant has claimed their identity.
func AllJoined(participants []*models.Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if !p.IsJoined() {
			return false
		}
	}
	return true
}

func participantNames(participants []*models.Participant) []string {
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	return names
}
