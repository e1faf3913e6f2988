// Package lobby tracks pre-match rooms: who joined, which color they hold,
// and whether both players have confirmed readiness.
package lobby

import (
	"errors"
	"sync"

	"reversi_server/internal/board"
)

var (
	ErrRoomFull      = errors.New("room already has two players")
	ErrAlreadyJoined = errors.New("player already in room")
	ErrUnknownPlayer = errors.New("player not in room")
	ErrNoChange      = errors.New("status unchanged")
)

// PlayerStatus is one player's state inside a room.
type PlayerStatus struct {
	ID    string
	Role  board.Player
	Ready bool
}

// Room is a pre-match waiting area for exactly two identities. All operations
// serialize on the room mutex; concurrent joins and ready toggles observe a
// consistent sequence.
type Room struct {
	mu      sync.Mutex
	name    string
	players map[string]*PlayerStatus
	order   []string // join order; first joiner plays Black
}

func NewRoom(name string) *Room {
	return &Room{
		name:    name,
		players: make(map[string]*PlayerStatus),
	}
}

func (r *Room) Name() string { return r.name }

// AddPlayer inserts id with the default role: Black for the first joiner,
// White for the second.
func (r *Room) AddPlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) >= 2 {
		return ErrRoomFull
	}
	if _, ok := r.players[id]; ok {
		return ErrAlreadyJoined
	}
	role := board.Black
	if len(r.players) > 0 {
		role = board.White
	}
	r.players[id] = &PlayerStatus{ID: id, Role: role}
	r.order = append(r.order, id)
	return nil
}

// UpdateStatus replaces id's status. It fails when id is absent or the new
// status equals the current one. Readiness is a joint commitment: an update
// that changes a player's role invalidates everyone's prior "ready", the
// updater's included.
func (r *Room) UpdateStatus(id string, status PlayerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if cur.Role == status.Role && cur.Ready == status.Ready {
		return ErrNoChange
	}
	roleChanged := cur.Role != status.Role
	r.players[id] = &PlayerStatus{ID: id, Role: status.Role, Ready: status.Ready}
	if roleChanged {
		for _, p := range r.players {
			p.Ready = false
		}
	}
	return nil
}

// SetReady is a readiness-only update.
func (r *Room) SetReady(id string, ready bool) error {
	r.mu.Lock()
	role := board.None
	if cur, ok := r.players[id]; ok {
		role = cur.Role
	}
	r.mu.Unlock()
	if role == board.None {
		return ErrUnknownPlayer
	}
	return r.UpdateStatus(id, PlayerStatus{ID: id, Role: role, Ready: ready})
}

// RemovePlayer drops id and clears readiness on whoever remains.
func (r *Room) RemovePlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return ErrUnknownPlayer
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	for _, p := range r.players {
		p.Ready = false
	}
	return nil
}

// ReadyToStart reports whether the room can be promoted to a session: two
// players, both ready, holding exactly the {Black, White} role pair.
func (r *Room) ReadyToStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) != 2 {
		return false
	}
	var black, white bool
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
		switch p.Role {
		case board.Black:
			black = true
		case board.White:
			white = true
		}
	}
	return black && white
}

// Contains reports whether id has joined this room.
func (r *Room) Contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[id]
	return ok
}

// Size returns the number of joined players.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players returns the statuses in join order, as copies.
func (r *Room) Players() []PlayerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerStatus, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Seats returns the identities holding Black and White. ok is false unless
// both seats are filled with distinct roles.
func (r *Room) Seats() (blackID, whiteID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		switch p.Role {
		case board.Black:
			blackID = p.ID
		case board.White:
			whiteID = p.ID
		}
	}
	return blackID, whiteID, blackID != "" && whiteID != ""
}
