package board

// Player is the occupant of a cell: nobody, Black or White.
type Player int8

const (
	None Player = iota
	Black
	White
)

// Opponent returns the other color, or None for None.
func (p Player) Opponent() Player {
	switch p {
	case Black:
		return White
	case White:
		return Black
	default:
		return None
	}
}

// Char returns the wire character for the player: 'B', 'W' or '.'.
func (p Player) Char() byte {
	switch p {
	case Black:
		return 'B'
	case White:
		return 'W'
	default:
		return '.'
	}
}

func (p Player) String() string { return string(p.Char()) }

// PlayerFromChar parses 'b'/'B' and 'w'/'W'; anything else is None.
func PlayerFromChar(c byte) Player {
	switch c {
	case 'b', 'B':
		return Black
	case 'w', 'W':
		return White
	default:
		return None
	}
}
