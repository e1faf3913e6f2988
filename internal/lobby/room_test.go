package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversi_server/internal/board"
)

func twoPlayerRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom("42")
	require.NoError(t, r.AddPlayer("alice"))
	require.NoError(t, r.AddPlayer("bob"))
	return r
}

func TestAddPlayer_FirstJoinerIsBlack(t *testing.T) {
	r := twoPlayerRoom(t)

	players := r.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].ID)
	assert.Equal(t, board.Black, players[0].Role)
	assert.Equal(t, "bob", players[1].ID)
	assert.Equal(t, board.White, players[1].Role)
}

func TestAddPlayer_ThirdJoinerRejected(t *testing.T) {
	r := twoPlayerRoom(t)
	assert.ErrorIs(t, r.AddPlayer("carol"), ErrRoomFull)
	assert.Equal(t, 2, r.Size())
}

func TestAddPlayer_DuplicateRejected(t *testing.T) {
	r := NewRoom("42")
	require.NoError(t, r.AddPlayer("alice"))
	assert.ErrorIs(t, r.AddPlayer("alice"), ErrAlreadyJoined)
	assert.Equal(t, 1, r.Size())
}

func TestUpdateStatus_UnknownPlayer(t *testing.T) {
	r := NewRoom("42")
	err := r.UpdateStatus("ghost", PlayerStatus{ID: "ghost", Role: board.Black})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestUpdateStatus_NoChangeRejected(t *testing.T) {
	r := NewRoom("42")
	require.NoError(t, r.AddPlayer("alice"))
	err := r.UpdateStatus("alice", PlayerStatus{ID: "alice", Role: board.Black, Ready: false})
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestUpdateStatus_RoleChangeClearsAllReadiness(t *testing.T) {
	r := twoPlayerRoom(t)
	require.NoError(t, r.SetReady("alice", true))
	require.NoError(t, r.SetReady("bob", true))
	require.True(t, r.ReadyToStart())

	// Alice takes White while claiming ready; the role change voids every
	// prior commitment, hers included.
	require.NoError(t, r.UpdateStatus("alice", PlayerStatus{ID: "alice", Role: board.White, Ready: true}))
	for _, p := range r.Players() {
		assert.False(t, p.Ready, "player %s", p.ID)
	}
	assert.False(t, r.ReadyToStart())
}

func TestSetReady_KeepsRole(t *testing.T) {
	r := twoPlayerRoom(t)
	require.NoError(t, r.SetReady("bob", true))

	players := r.Players()
	assert.Equal(t, board.White, players[1].Role)
	assert.True(t, players[1].Ready)
	assert.False(t, players[0].Ready, "only bob toggled")
}

func TestSetReady_UnknownPlayer(t *testing.T) {
	r := NewRoom("42")
	assert.ErrorIs(t, r.SetReady("ghost", true), ErrUnknownPlayer)
}

func TestRemovePlayer_ClearsRemainingReadiness(t *testing.T) {
	r := twoPlayerRoom(t)
	require.NoError(t, r.SetReady("alice", true))
	require.NoError(t, r.SetReady("bob", true))

	require.NoError(t, r.RemovePlayer("alice"))
	assert.False(t, r.Contains("alice"))

	players := r.Players()
	require.Len(t, players, 1)
	assert.Equal(t, "bob", players[0].ID)
	assert.False(t, players[0].Ready, "readiness is void once the room changes")
}

func TestRemovePlayer_Unknown(t *testing.T) {
	r := NewRoom("42")
	assert.ErrorIs(t, r.RemovePlayer("ghost"), ErrUnknownPlayer)
}

func TestReadyToStart(t *testing.T) {
	r := NewRoom("42")
	assert.False(t, r.ReadyToStart(), "empty room")

	require.NoError(t, r.AddPlayer("alice"))
	require.NoError(t, r.SetReady("alice", true))
	assert.False(t, r.ReadyToStart(), "one player")

	require.NoError(t, r.AddPlayer("bob"))
	assert.False(t, r.ReadyToStart(), "second player not ready")

	require.NoError(t, r.SetReady("bob", true))
	assert.True(t, r.ReadyToStart())

	require.NoError(t, r.SetReady("alice", false))
	assert.False(t, r.ReadyToStart(), "readiness withdrawn")
}

func TestReadyToStart_RequiresBothColors(t *testing.T) {
	r := twoPlayerRoom(t)
	// Both players grab Black: ready flags alone must not start the match.
	require.NoError(t, r.UpdateStatus("bob", PlayerStatus{ID: "bob", Role: board.Black, Ready: true}))
	require.NoError(t, r.SetReady("alice", true))
	require.NoError(t, r.SetReady("bob", true))
	assert.False(t, r.ReadyToStart())
}

func TestSeats(t *testing.T) {
	r := NewRoom("42")
	_, _, ok := r.Seats()
	assert.False(t, ok)

	require.NoError(t, r.AddPlayer("alice"))
	_, _, ok = r.Seats()
	assert.False(t, ok, "white seat empty")

	require.NoError(t, r.AddPlayer("bob"))
	blackID, whiteID, ok := r.Seats()
	require.True(t, ok)
	assert.Equal(t, "alice", blackID)
	assert.Equal(t, "bob", whiteID)
}
