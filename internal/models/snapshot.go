package models

// RoomSnapshot is a room together with its participants, read at one point in
// time. Whether targets may be shown is decided from Room of the same snapshot.
type RoomSnapshot struct {
	Room         *Room
	Participants []*Participant
}

// Participant returns the participant called name, or nil.
func (s *RoomSnapshot) Participant(name string) *Participant {
	for _, p := range s.Participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ParticipantByID returns the participant with the given ID, or nil.
func (s *RoomSnapshot) ParticipantByID(id string) *Participant {
	for _, p := range s.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}
