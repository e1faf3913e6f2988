package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reversi_server/internal/board"
	"reversi_server/internal/clock"
)

func newTestSession() *Session {
	clk := clock.New(5*time.Minute, 3*time.Second, false)
	clk.SetTicker(clock.NopTicker{})
	clk.Start()
	return New("alice", "bob", clk)
}

func TestMakeMove_TurnGate(t *testing.T) {
	s := newTestSession()

	// White attempts the opening move while Black holds the turn.
	err := s.MakeMove(2, 4, "bob")
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, board.Black, s.Snapshot().CurrentPlayer, "turn unchanged")

	require.NoError(t, s.MakeMove(2, 3, "alice"))
	assert.Equal(t, board.White, s.Snapshot().CurrentPlayer)

	// Black is out of turn now.
	assert.ErrorIs(t, s.MakeMove(2, 2, "alice"), ErrNotYourTurn)
}

func TestMakeMove_BoardRejection(t *testing.T) {
	s := newTestSession()
	before := s.Snapshot()

	assert.ErrorIs(t, s.MakeMove(0, 0, "alice"), ErrInvalidMove)
	assert.Equal(t, before.Board, s.Snapshot().Board, "rejection leaves the board alone")
	assert.Equal(t, board.Black, s.Snapshot().CurrentPlayer)
}

func TestMakeMove_StrangerRejected(t *testing.T) {
	s := newTestSession()
	assert.ErrorIs(t, s.MakeMove(2, 3, "carol"), ErrNotPlaying)
}

func TestMakeMove_SwapsClock(t *testing.T) {
	clk := clock.New(time.Minute, 5*time.Second, false)
	clk.SetTicker(clock.NopTicker{})
	clk.Start()
	s := New("alice", "bob", clk)

	require.NoError(t, s.MakeMove(2, 3, "alice"))
	assert.Equal(t, time.Minute+5*time.Second, clk.BlackRemaining(), "mover earns the bonus")
	assert.Equal(t, time.Minute, clk.WhiteRemaining())
}

// prepSession builds a session over an arbitrary position with current to
// move, so the endgame branches are reachable without replaying a full match.
func prepSession(current board.Player, b *board.Board) *Session {
	clk := clock.New(time.Minute, 3*time.Second, current == board.White)
	clk.SetTicker(clock.NopTicker{})
	clk.Start()
	return &Session{
		game:    board.NewGameFrom(b, current),
		clock:   clk,
		blackID: "alice",
		whiteID: "bob",
	}
}

func TestMakeMove_PassesTurnBackWhenOpponentStuck(t *testing.T) {
	// After Black plays (0,2) White's only disc sits at (2,1) with no legal
	// reply, while Black can still play (2,2).
	b := board.New()
	b.Set(0, 0, board.Black)
	b.Set(0, 1, board.White)
	b.Set(2, 0, board.Black)
	b.Set(2, 1, board.White)
	s := prepSession(board.Black, b)

	require.NoError(t, s.MakeMove(0, 2, "alice"))

	snap := s.Snapshot()
	assert.False(t, snap.Over)
	assert.Equal(t, board.Black, snap.CurrentPlayer, "white had no reply, turn passed back")
	assert.Equal(t, time.Minute.Milliseconds(), snap.WhiteTimeMs, "no bonus for the side that never moved")
	assert.Equal(t, (time.Minute + 3*time.Second).Milliseconds(), snap.BlackTimeMs)

	require.NoError(t, s.MakeMove(2, 2, "alice"), "black keeps moving after the pass")
}

func TestMakeMove_FinishesWhenNeitherSideCanMove(t *testing.T) {
	// Capturing White's last disc leaves no legal move for either side.
	b := board.New()
	b.Set(0, 0, board.Black)
	b.Set(0, 1, board.White)
	s := prepSession(board.Black, b)

	require.NoError(t, s.MakeMove(0, 2, "alice"))

	assert.True(t, s.Terminal())
	assert.Equal(t, "Black wins 3-0", s.Result())
	assert.False(t, s.Clock().Running(), "clock stopped at the finish")
	assert.ErrorIs(t, s.MakeMove(2, 2, "alice"), ErrGameOver)
}

func TestMakeMove_FinishesWithWhiteWinByCount(t *testing.T) {
	b := board.New()
	b.Set(0, 0, board.White)
	b.Set(0, 1, board.Black)
	s := prepSession(board.White, b)

	require.NoError(t, s.MakeMove(0, 2, "bob"))

	assert.True(t, s.Terminal())
	assert.Equal(t, "White wins 3-0", s.Result())
}

func TestMakeMove_FinishesWithDrawOnEqualCounts(t *testing.T) {
	// The row-7 White discs sit out of reach of any capture line, so the
	// final position splits 3-3.
	b := board.New()
	b.Set(0, 0, board.Black)
	b.Set(0, 1, board.White)
	b.Set(7, 0, board.White)
	b.Set(7, 1, board.White)
	b.Set(7, 2, board.White)
	s := prepSession(board.Black, b)

	require.NoError(t, s.MakeMove(0, 2, "alice"))

	assert.True(t, s.Terminal())
	assert.Equal(t, "Draw 3-3", s.Result())
}

func TestIsValidMove_MirrorsGates(t *testing.T) {
	s := newTestSession()
	assert.True(t, s.IsValidMove(2, 3, "alice"))
	assert.False(t, s.IsValidMove(2, 3, "bob"), "not bob's turn")
	assert.False(t, s.IsValidMove(0, 0, "alice"), "illegal square")
	assert.False(t, s.IsValidMove(2, 3, "carol"))

	snap := s.Snapshot()
	assert.Equal(t, snap.Board, s.Snapshot().Board, "probe does not mutate")
}

func TestFinish_TerminalOnce(t *testing.T) {
	s := newTestSession()
	s.Finish("first")
	s.Finish("second")

	assert.True(t, s.Terminal())
	assert.Equal(t, "first", s.Result(), "only the first transition sticks")
	assert.False(t, s.Clock().Running(), "clock stopped at the terminal edge")
}

func TestMakeMove_AfterTerminal(t *testing.T) {
	s := newTestSession()
	s.Finish("abandoned")
	assert.ErrorIs(t, s.MakeMove(2, 3, "alice"), ErrGameOver)
}

func TestHandleTimeout(t *testing.T) {
	s := newTestSession()
	s.HandleTimeout(true)
	assert.True(t, s.Terminal())
	assert.Equal(t, "Black wins on time", s.Result())

	s2 := newTestSession()
	s2.HandleTimeout(false)
	assert.Equal(t, "White wins on time", s2.Result())
}

func TestTimeoutRace_SingleTerminalTransition(t *testing.T) {
	s := newTestSession()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.HandleTimeout(true)
	}()
	go func() {
		defer wg.Done()
		s.Finish("Black wins: opponent disconnected")
	}()
	wg.Wait()

	assert.True(t, s.Terminal())
	assert.Contains(t, []string{
		"Black wins on time",
		"Black wins: opponent disconnected",
	}, s.Result())
}

func TestResign(t *testing.T) {
	s := newTestSession()
	s.Resign("alice")
	assert.Equal(t, "White wins: opponent disconnected", s.Result())

	s2 := newTestSession()
	s2.Resign("bob")
	assert.Equal(t, "Black wins: opponent disconnected", s2.Result())
}

func TestSnapshot_ReflectsLiveState(t *testing.T) {
	s := newTestSession()

	snap := s.Snapshot()
	assert.Len(t, snap.Board, board.EncodedLen)
	assert.Equal(t, board.Black, snap.CurrentPlayer)
	assert.Equal(t, (5 * time.Minute).Milliseconds(), snap.BlackTimeMs)
	assert.Equal(t, (5 * time.Minute).Milliseconds(), snap.WhiteTimeMs)
	assert.False(t, snap.Over)
	assert.Empty(t, snap.Result)

	require.NoError(t, s.MakeMove(2, 3, "alice"))
	after := s.Snapshot()
	assert.NotEqual(t, snap.Board, after.Board)
	assert.Equal(t, board.White, after.CurrentPlayer)
	assert.Greater(t, after.BlackTimeMs, snap.BlackTimeMs, "bonus credited on the move")
}

func TestParticipants(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, "alice", s.BlackID())
	assert.Equal(t, "bob", s.WhiteID())
	assert.True(t, s.Contains("alice"))
	assert.True(t, s.Contains("bob"))
	assert.False(t, s.Contains("carol"))
}
