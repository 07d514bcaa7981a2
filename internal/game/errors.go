// Package game runs the room lifecycle: creating rooms, revealing results
// and rematching.
package game

import "errors"

var (
	// ErrInvalidRoster means fewer than three distinct names, or a duplicate.
	ErrInvalidRoster = errors.New("invalid roster")
	// ErrInvalidSettings means a missing title or a master password that is too short.
	ErrInvalidSettings = errors.New("invalid room settings")
)

// MinMasterPasswordLength is the minimum master password length after trimming.
const MinMasterPasswordLength = 4

// Notifier is told about rooms whose state changed.
type Notifier interface {
	Publish(roomID string)
}
