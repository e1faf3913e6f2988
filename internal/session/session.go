// Package session owns one live match: a game, its Fischer clock, and the two
// participant identities. It arbitrates turn ownership and the single
// transition into the terminal state.
package session

import (
	"errors"
	"fmt"
	"sync"

	"reversi_server/internal/board"
	"reversi_server/internal/clock"
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrInvalidMove = errors.New("invalid move")
	ErrGameOver    = errors.New("game is over")
	ErrNotPlaying  = errors.New("identity not in this session")
)

// Snapshot is the visible match state a GameUpdate is derived from.
type Snapshot struct {
	Board         string // 72-char wire encoding
	CurrentPlayer board.Player
	BlackTimeMs   int64
	WhiteTimeMs   int64
	Over          bool
	Result        string
}

// Session binds two identities to one game and one clock. All mutation goes
// through the session mutex; the clock keeps its own lock and is the only
// other writer that touches shared match state.
type Session struct {
	mu      sync.Mutex
	game    *board.Game
	clock   *clock.Clock
	blackID string
	whiteID string
	over    bool
	result  string
}

// New creates a session. The first-joined player holds Black and moves first.
func New(blackID, whiteID string, clk *clock.Clock) *Session {
	return &Session{
		game:    board.NewGame(),
		clock:   clk,
		blackID: blackID,
		whiteID: whiteID,
	}
}

func (s *Session) BlackID() string     { return s.blackID }
func (s *Session) WhiteID() string     { return s.whiteID }
func (s *Session) Clock() *clock.Clock { return s.clock }

// Contains reports whether id is one of the two participants.
func (s *Session) Contains(id string) bool {
	return id == s.blackID || id == s.whiteID
}

func (s *Session) roleOf(id string) board.Player {
	switch id {
	case s.blackID:
		return board.Black
	case s.whiteID:
		return board.White
	default:
		return board.None
	}
}

// IsValidMove mirrors MakeMove's gates without mutating anything.
func (s *Session) IsValidMove(row, col int, byID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := s.roleOf(byID)
	if s.over || role == board.None || role != s.game.Current() {
		return false
	}
	return s.game.IsValidMove(row, col)
}

// MakeMove applies a move on behalf of byID. The session must not be
// terminal and byID's fixed role must match the player to move; the board
// decides legality beyond that. On success the clock swaps sides, and the
// no-move cases are resolved: the opponent passes when stuck, and the match
// finishes when neither side can move.
func (s *Session) MakeMove(row, col int, byID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.over {
		return ErrGameOver
	}
	role := s.roleOf(byID)
	if role == board.None {
		return ErrNotPlaying
	}
	if role != s.game.Current() {
		return ErrNotYourTurn
	}
	if !s.game.MakeMove(row, col) {
		return ErrInvalidMove
	}
	s.clock.Swap()

	if !s.game.CurrentHasMoves() {
		// A pass flips the clock without paying the bonus: the increment
		// belongs to moves actually made.
		s.game.Pass()
		s.clock.Flip()
		if !s.game.CurrentHasMoves() {
			// Neither side can move: the board is decided.
			s.finishLocked(s.countResult())
		}
	}
	return nil
}

// HandleTimeout marks the session terminal with the non-expired side as
// winner. Idempotent: a race between a final move and the timeout resolves to
// a single terminal transition.
func (s *Session) HandleTimeout(whiteTimedOut bool) {
	winner := "Black"
	if !whiteTimedOut {
		winner = "White"
	}
	s.Finish(fmt.Sprintf("%s wins on time", winner))
}

// Resign ends the match in favor of byID's opponent. Used for explicit
// resignations and for silent disconnects, which this server treats the same
// way.
func (s *Session) Resign(byID string) {
	winner := "Black"
	if byID == s.blackID {
		winner = "White"
	}
	s.Finish(fmt.Sprintf("%s wins: opponent disconnected", winner))
}

// Finish stops the clock and records the result. Only the first call takes
// effect.
func (s *Session) Finish(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(result)
}

func (s *Session) finishLocked(result string) {
	if s.over {
		return
	}
	s.over = true
	s.result = result
	s.clock.Stop()
}

func (s *Session) countResult() string {
	black, white := s.game.Board().Count()
	switch {
	case black > white:
		return fmt.Sprintf("Black wins %d-%d", black, white)
	case white > black:
		return fmt.Sprintf("White wins %d-%d", white, black)
	default:
		return fmt.Sprintf("Draw %d-%d", black, white)
	}
}

// Terminal reports whether the match is over.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// Result returns the terminal result string, empty while the match runs.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot re-derives the broadcastable state from the current board, game
// and clock. Both participants always receive an identical snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Board:         s.game.Board().Encode(),
		CurrentPlayer: s.game.Current(),
		BlackTimeMs:   s.clock.BlackRemaining().Milliseconds(),
		WhiteTimeMs:   s.clock.WhiteRemaining().Milliseconds(),
		Over:          s.over,
		Result:        s.result,
	}
}
