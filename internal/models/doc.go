// Package models defines the core domain models for Manito.
//
// # Models
//
//   - Room: one instance of the gift-giver game, with its roster, master password and reveal state
//   - Participant: one named player in a room holding exactly one gift target
//
// # State
//
// Room and participant lifecycles are explicit state types rather than loose flags:
//
//	Room:        RoomCreated -> RoomRevealed        (Restart returns to RoomCreated in a new epoch)
//	Participant: ParticipantUnclaimed -> ParticipantClaimed (Reset returns to Unclaimed)
//
// A participant is claimed exactly when its personal password is non-empty, so
// "joined without a password" cannot be represented. The transition methods
// are the only code that changes these fields; storage persists their result.
//
// Relationships use ID strings instead of pointers.
package models
