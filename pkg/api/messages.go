package api

// Room is the public view of a room. The master password is never sent.
type Room struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	HostName   string `json:"host_name"`
	IsRevealed bool   `json:"is_revealed"`
	Epoch      int    `json:"epoch"`
	CreatedAt  int64  `json:"created_at"`
}

// Participant is the public view of a participant. TargetName is only set
// once the room is revealed; passwords are never sent.
type Participant struct {
	Name       string `json:"name"`
	IsJoined   bool   `json:"is_joined"`
	TargetName string `json:"target_name,omitempty"`
}

// RematchMode selects the rematch strategy.
type RematchMode string

const (
	RematchModeInPlace RematchMode = "IN_PLACE"
	RematchModeNewRoom RematchMode = "NEW_ROOM"
)

type CreateRoomRequest struct {
	Title            string   `json:"title"`
	MasterPassword   string   `json:"master_password"`
	ParticipantNames []string `json:"participant_names"`
}

type CreateRoomResponse struct {
	Room      *Room  `json:"room"`
	EntryLink string `json:"entry_link"`
}

type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

type GetRoomResponse struct {
	Room         *Room          `json:"room"`
	Participants []*Participant `json:"participants"`
	AllJoined    bool           `json:"all_joined"`
}

type EnterRoomRequest struct {
	RoomID         string `json:"room_id"`
	MasterPassword string `json:"master_password"`
}

type EnterRoomResponse struct {
	Room         *Room          `json:"room"`
	Participants []*Participant `json:"participants"`
}

type RevealRequest struct {
	RoomID         string `json:"room_id"`
	MasterPassword string `json:"master_password"`
}

type RevealResponse struct {
	Room *Room `json:"room"`
	// Changed is false when the room had already been revealed.
	Changed bool `json:"changed"`
}

type RematchRequest struct {
	RoomID         string      `json:"room_id"`
	MasterPassword string      `json:"master_password"`
	Mode           RematchMode `json:"mode"`
}

type RematchResponse struct {
	// Room is the rematched room: the same one for IN_PLACE, a new one for NEW_ROOM.
	Room      *Room  `json:"room"`
	EntryLink string `json:"entry_link"`
}

type WatchRoomRequest struct {
	RoomID string `json:"room_id"`
}

type WatchRoomResponse struct {
	Room *Room `json:"room"`
}

type WatchParticipantsRequest struct {
	RoomID string `json:"room_id"`
}

type WatchParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
	AllJoined    bool           `json:"all_joined"`
}

type ClaimRequest struct {
	RoomID   string `json:"room_id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type ClaimResponse struct {
	TargetName string `json:"target_name"`
	Token      string `json:"token"`
	// FirstClaim is true when this request set the personal password.
	FirstClaim bool `json:"first_claim"`
	IsHost     bool `json:"is_host"`
}

type GetMyTargetRequest struct{}

type GetMyTargetResponse struct {
	RoomID     string `json:"room_id"`
	Name       string `json:"name"`
	TargetName string `json:"target_name"`
}

// Feed message types sent over the websocket feed.
const (
	FeedRoom         = "room"
	FeedParticipants = "participants"
)

// FeedMessage is one websocket feed frame. Type selects which fields are set.
type FeedMessage struct {
	Type         string         `json:"type"`
	Room         *Room          `json:"room,omitempty"`
	Participants []*Participant `json:"participants,omitempty"`
	AllJoined    bool           `json:"all_joined,omitempty"`
}
