package service

import (
	"github.com/mmynk/manito/internal/models"
	"github.com/mmynk/manito/pkg/api"
)

// RoomView converts a room to its wire form. The master password is dropped.
func RoomView(room *models.Room) *api.Room {
	return &api.Room{
		ID:         room.ID,
		Title:      room.Title,
		HostName:   room.HostName,
		IsRevealed: room.IsRevealed(),
		Epoch:      room.Epoch,
		CreatedAt:  room.CreatedAt,
	}
}

// ParticipantViews converts participants to their wire form. Targets are only
// included when revealed is true.
func ParticipantViews(participants []*models.Participant, revealed bool) []*api.Participant {
	views := make([]*api.Participant, len(participants))
	for i, p := range participants {
		views[i] = &api.Participant{
			Name:     p.Name,
			IsJoined: p.IsJoined(),
		}
		if revealed {
			views[i].TargetName = p.TargetName
		}
	}
	return views
}
