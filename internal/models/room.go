package models

// RoomState is the lifecycle state of a room within its current epoch.
type RoomState int

const (
	// RoomCreated means targets are private to each participant.
	RoomCreated RoomState = iota
	// RoomRevealed means every target is visible to every participant.
	RoomRevealed
)

func (s RoomState) String() string {
	switch s {
	case RoomCreated:
		return "created"
	case RoomRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Room represents one game of secret gift-giving.
type Room struct {
	// ID is the unique identifier for the room (UUID format).
	ID string

	// Title is the display name chosen by the host. Immutable.
	Title string

	// HostName is the first name of the roster at creation time. Immutable.
	HostName string

	// MasterPassword is the shared room-access secret. Stored in the clear.
	MasterPassword string

	// State is RoomCreated until the host reveals the results.
	State RoomState

	// Epoch counts assignment cycles. It starts at 1 and is bumped by an
	// in-place rematch, which invalidates every earlier claim.
	Epoch int

	// CreatedAt is the Unix timestamp when the room was created.
	CreatedAt int64
}

// IsRevealed reports whether targets are visible to everyone.
func (r *Room) IsRevealed() bool {
	return r.State == RoomRevealed
}

// Reveal moves the room to RoomRevealed and reports whether anything changed.
func (r *Room) Reveal() bool {
	if r.State == RoomRevealed {
		return false
	}
	r.State = RoomRevealed
	return true
}

// Restart starts a new epoch with hidden targets.
func (r *Room) Restart() {
	r.State = RoomCreated
	r.Epoch++
}

// RoomUpdate is a partial update of a room. Nil fields are left unchanged.
type RoomUpdate struct {
	State *RoomState

	// NextEpoch increments the stored epoch.
	NextEpoch bool
}
