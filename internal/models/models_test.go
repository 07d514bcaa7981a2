package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomTransitions(t *testing.T) {
	room := &Room{Epoch: 1}
	assert.False(t, room.IsRevealed())
	assert.Equal(t, "created", room.State.String())

	assert.True(t, room.Reveal())
	assert.True(t, room.IsRevealed())
	assert.False(t, room.Reveal(), "second reveal must be a no-op")

	room.Restart()
	assert.False(t, room.IsRevealed())
	assert.Equal(t, 2, room.Epoch)
}

func TestParticipantClaim(t *testing.T) {
	p := &Participant{Name: "A", TargetName: "B"}
	assert.Equal(t, ParticipantUnclaimed, p.State())
	assert.False(t, p.IsJoined())
	assert.False(t, p.Matches(""), "unclaimed participant matches nothing")

	require.ErrorIs(t, p.Claim(""), ErrEmptyPassword)
	assert.False(t, p.IsJoined())

	require.NoError(t, p.Claim("secret"))
	assert.True(t, p.IsJoined())
	assert.Equal(t, "claimed", p.State().String())
	assert.True(t, p.Matches("secret"))
	assert.False(t, p.Matches("Secret"))
	assert.False(t, p.Matches("secret "))

	require.ErrorIs(t, p.Claim("other"), ErrAlreadyClaimed)
	assert.Equal(t, "secret", p.Password)
}

func TestParticipantReset(t *testing.T) {
	p := &Participant{Name: "A", TargetName: "B", Password: "pw"}
	p.Reset("C")
	assert.Equal(t, "C", p.TargetName)
	assert.Empty(t, p.Password)
	assert.False(t, p.IsJoined())
}

func TestRoomSnapshotLookup(t *testing.T) {
	snap := &RoomSnapshot{
		Room: &Room{ID: "r"},
		Participants: []*Participant{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob"},
		},
	}

	require.NotNil(t, snap.Participant("Bob"))
	assert.Equal(t, "p2", snap.Participant("Bob").ID)
	assert.Nil(t, snap.Participant("bob"), "names match exactly")

	require.NotNil(t, snap.ParticipantByID("p1"))
	assert.Equal(t, "Alice", snap.ParticipantByID("p1").Name)
	assert.Nil(t, snap.ParticipantByID("p3"))
}
