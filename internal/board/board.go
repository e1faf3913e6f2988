package board

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the board dimension (8x8).
const Size = 8

// rowDelim terminates each encoded row. It is not a legal cell character.
const rowDelim = '0'

// EncodedLen is the length of an encoded board: 8 rows of 8 cells plus a
// delimiter per row.
const EncodedLen = Size * (Size + 1)

var ErrBadFormat = errors.New("invalid board format")

// directions are the 8 compass offsets searched for captures
// (N, NE, E, SE, S, SW, W, NW). Shared read-only by all move computations.
var directions = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// Board is an 8x8 Reversi grid. It is a plain value type with no internal
// locking; a board is owned by exactly one game session at a time.
type Board struct {
	cells [Size][Size]Player
}

// New returns an empty board.
func New() *Board { return &Board{} }

// NewStart returns a board with the standard four-disc starting position.
func NewStart() *Board {
	b := New()
	b.Set(3, 3, White)
	b.Set(4, 4, White)
	b.Set(3, 4, Black)
	b.Set(4, 3, Black)
	return b
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Get returns the occupant of (row, col), or None when the coordinates are
// out of range. Out-of-range access is rejected, never wrapped.
func (b *Board) Get(row, col int) Player {
	if !inBounds(row, col) {
		return None
	}
	return b.cells[row][col]
}

// Set places p at (row, col). Out-of-range coordinates are ignored.
func (b *Board) Set(row, col int, p Player) {
	if !inBounds(row, col) {
		return
	}
	b.cells[row][col] = p
}

// IsValidMove reports whether player may place a disc at (row, col): the cell
// must be empty and at least one direction must hold a contiguous run of
// opponent discs bracketed by one of player's own discs. No side effects.
func (b *Board) IsValidMove(row, col int, player Player) bool {
	if player == None || !inBounds(row, col) || b.cells[row][col] != None {
		return false
	}
	opponent := player.Opponent()
	for _, d := range directions {
		r, c := row+d[0], col+d[1]
		if !inBounds(r, c) || b.cells[r][c] != opponent {
			continue
		}
		r += d[0]
		c += d[1]
		for inBounds(r, c) {
			if b.cells[r][c] == opponent {
				r += d[0]
				c += d[1]
				continue
			}
			if b.cells[r][c] == player {
				return true
			}
			break // empty cell ends the line without a bracket
		}
	}
	return false
}

// MakeMove places player's disc at (row, col) and flips every bracketed
// opponent disc. Returns false without mutation when the move is not valid.
func (b *Board) MakeMove(row, col int, player Player) bool {
	if !b.IsValidMove(row, col, player) {
		return false
	}
	opponent := player.Opponent()
	b.cells[row][col] = player

	// Each direction flips independently: collect the contiguous opponent
	// run and commit it only when the walk ends on one of player's discs.
	for _, d := range directions {
		var flips [][2]int
		r, c := row+d[0], col+d[1]
		for inBounds(r, c) && b.cells[r][c] == opponent {
			flips = append(flips, [2]int{r, c})
			r += d[0]
			c += d[1]
		}
		if inBounds(r, c) && b.cells[r][c] == player {
			for _, pos := range flips {
				b.cells[pos[0]][pos[1]] = player
			}
		}
	}
	return true
}

// ValidMoves returns every legal move for player in row-major order.
func (b *Board) ValidMoves(player Player) [][2]int {
	var moves [][2]int
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if b.IsValidMove(row, col, player) {
				moves = append(moves, [2]int{row, col})
			}
		}
	}
	return moves
}

// Count returns the number of discs each side has on the board.
func (b *Board) Count() (black, white int) {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			switch b.cells[row][col] {
			case Black:
				black++
			case White:
				white++
			}
		}
	}
	return black, white
}

// Equal reports whether both boards hold identical cell states.
func (b *Board) Equal(other *Board) bool {
	if other == nil {
		return false
	}
	return b.cells == other.cells
}

// Encode renders the board as 8 rows of 8 characters from {'.','B','W'},
// each row terminated by '0', 72 characters total.
func (b *Board) Encode() string {
	var sb strings.Builder
	sb.Grow(EncodedLen)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sb.WriteByte(b.cells[row][col].Char())
		}
		sb.WriteByte(rowDelim)
	}
	return sb.String()
}

// Decode parses the Encode format. Any row count or row length mismatch is
// rejected.
func Decode(s string) (*Board, error) {
	if len(s) != EncodedLen {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrBadFormat, len(s), EncodedLen)
	}
	rows := strings.Split(strings.TrimSuffix(s, string(rowDelim)), string(rowDelim))
	if len(rows) != Size {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrBadFormat, len(rows), Size)
	}
	b := New()
	for i, line := range rows {
		if len(line) != Size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadFormat, i, len(line), Size)
		}
		for j := 0; j < Size; j++ {
			switch line[j] {
			case 'B':
				b.cells[i][j] = Black
			case 'W':
				b.cells[i][j] = White
			case '.':
				// empty
			default:
				return nil, fmt.Errorf("%w: bad cell %q at row %d col %d", ErrBadFormat, line[j], i, j)
			}
		}
	}
	return b, nil
}
