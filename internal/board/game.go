package board

// Game pairs a board with the player to move. Black moves first. Turn
// arbitration against client identities lives in the session, not here.
type Game struct {
	board   *Board
	current Player
}

// NewGame starts a game from the standard opening position.
func NewGame() *Game {
	return &Game{board: NewStart(), current: Black}
}

// NewGameFrom resumes a game from an arbitrary position with current to move.
func NewGameFrom(b *Board, current Player) *Game {
	return &Game{board: b, current: current}
}

// Board exposes the underlying board.
func (g *Game) Board() *Board { return g.board }

// Current returns the player to move.
func (g *Game) Current() Player { return g.current }

// IsValidMove reports whether the player to move may play (row, col).
func (g *Game) IsValidMove(row, col int) bool {
	return g.board.IsValidMove(row, col, g.current)
}

// MakeMove applies a move for the player to move. On success the turn
// toggles to the opponent.
func (g *Game) MakeMove(row, col int) bool {
	if !g.board.MakeMove(row, col, g.current) {
		return false
	}
	g.current = g.current.Opponent()
	return true
}

// Pass hands the turn back without a move. The session calls this when the
// player to move has no legal move but the opponent still does.
func (g *Game) Pass() {
	g.current = g.current.Opponent()
}

// CurrentHasMoves reports whether the player to move has any legal move.
func (g *Game) CurrentHasMoves() bool {
	return len(g.board.ValidMoves(g.current)) > 0
}
