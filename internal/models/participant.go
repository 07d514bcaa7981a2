package models

import (
	"crypto/subtle"
	"errors"
)

var (
	ErrAlreadyClaimed = errors.New("participant already claimed")
	ErrEmptyPassword  = errors.New("personal password must not be empty")
)

// ParticipantState tells whether somebody has claimed a participant's identity.
type ParticipantState int

const (
	ParticipantUnclaimed ParticipantState = iota
	ParticipantClaimed
)

func (s ParticipantState) String() string {
	if s == ParticipantClaimed {
		return "claimed"
	}
	return "unclaimed"
}

// Participant represents one named player within a room.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// RoomID is the room this participant belongs to.
	RoomID string

	// Name is the display name, unique within the room.
	Name string

	// TargetName is the name of the participant this one gifts to.
	// Never equal to Name.
	TargetName string

	// Password is the personal password chosen on first claim.
	// Empty while unclaimed. Stored in the clear.
	Password string

	// CreatedAt is the Unix timestamp when the participant was created.
	CreatedAt int64
}

// State derives the claim state from the personal password.
func (p *Participant) State() ParticipantState {
	if p.Password == "" {
		return ParticipantUnclaimed
	}
	return ParticipantClaimed
}

// IsJoined reports whether the participant has been claimed.
func (p *Participant) IsJoined() bool {
	return p.State() == ParticipantClaimed
}

// Claim fixes the personal password for the current epoch.
func (p *Participant) Claim(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if p.State() == ParticipantClaimed {
		return ErrAlreadyClaimed
	}
	p.Password = password
	return nil
}

// Matches compares password with the stored one byte for byte.
// An unclaimed participant matches nothing.
func (p *Participant) Matches(password string) bool {
	if p.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p.Password), []byte(password)) == 1
}

// Reset assigns a new target and drops the claim, starting a new epoch.
func (p *Participant) Reset(targetName string) {
	p.TargetName = targetName
	p.Password = ""
}

// ParticipantUpdate is one entry of a batch participant update.
type ParticipantUpdate struct {
	// ID selects the participant.
	ID string

	// TargetName replaces the target when non-nil.
	TargetName *string

	// ResetClaim clears the personal password and joined flag.
	ResetClaim bool
}
