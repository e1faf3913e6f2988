package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_BlackMovesFirst(t *testing.T) {
	g := NewGame()
	assert.Equal(t, Black, g.Current())
}

func TestGame_TurnTogglesOnAcceptedMove(t *testing.T) {
	g := NewGame()

	require.True(t, g.MakeMove(2, 3))
	assert.Equal(t, White, g.Current())

	require.True(t, g.MakeMove(2, 2))
	assert.Equal(t, Black, g.Current())
}

func TestGame_RejectedMoveKeepsTurn(t *testing.T) {
	g := NewGame()
	assert.False(t, g.MakeMove(0, 0))
	assert.Equal(t, Black, g.Current())
}

func TestGame_Pass(t *testing.T) {
	g := NewGame()
	g.Pass()
	assert.Equal(t, White, g.Current())
}

func TestGame_CurrentHasMoves(t *testing.T) {
	g := NewGame()
	assert.True(t, g.CurrentHasMoves())
}
