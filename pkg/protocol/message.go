// Package protocol defines the tagged-union messages exchanged with clients.
// Every message travels as one JSON object per line (or per websocket text
// frame): {"type": <discriminator>, "body": <variant payload>}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates the message variants.
type Type string

const (
	// Client -> Server
	TypeMove        Type = "Move"
	TypeLobbyCreate Type = "LobbyCreate"
	TypeLobbyJoin   Type = "LobbyJoin"
	TypeLobbyReady  Type = "LobbyReady"

	// Server -> Client
	TypeStart       Type = "Start"
	TypeGameUpdate  Type = "GameUpdate"
	TypeInvalid     Type = "Invalid"
	TypeGameOver    Type = "GameOver"
	TypeLobbyUpdate Type = "LobbyUpdate"
)

var ErrUnknownType = errors.New("unknown message type")

// Move asks to place a disc at (Row, Col).
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// LobbyCreate asks to open a new room.
type LobbyCreate struct {
	RoomName string `json:"roomName"`
}

// LobbyJoin asks to join an existing room.
type LobbyJoin struct {
	RoomNumber string `json:"roomNumber"`
}

// LobbyReady toggles the sender's readiness in its room.
type LobbyReady struct {
	IsReady bool `json:"isReady"`
}

// Start tells a participant the match began and which color it plays,
// "B" or "W".
type Start struct {
	Color string `json:"color"`
}

// GameUpdate is the full visible match state, sent identically to both
// participants. Board is the 72-character row-delimited encoding.
type GameUpdate struct {
	Board         string `json:"board"`
	CurrentPlayer string `json:"currentPlayer"`
	BlackTimeMs   int64  `json:"blackTimeMs"`
	WhiteTimeMs   int64  `json:"whiteTimeMs"`
}

// Invalid rejects the sender's last request.
type Invalid struct {
	Reason string `json:"reason"`
}

// GameOver announces a terminal match state.
type GameOver struct {
	Reason string `json:"reason"`
}

// RosterEntry is one player's visible state in a lobby listing.
type RosterEntry struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Ready bool   `json:"ready"`
}

// LobbyUpdate is the full lobby listing, room name to roster.
type LobbyUpdate struct {
	Rooms map[string][]RosterEntry `json:"rooms"`
}

// Message is the wire envelope. Body holds exactly one of the variant
// structs above, matching Type.
type Message struct {
	Type Type
	Body any
}

type envelope struct {
	Type Type            `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Encode renders the message as a single JSON line (no trailing newline).
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m.Body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", m.Type, err)
	}
	return json.Marshal(envelope{Type: m.Type, Body: body})
}

// Decode parses one wire line into a typed Message. The variant set is
// closed: an unrecognized discriminator is an error.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}

	var body any
	switch env.Type {
	case TypeMove:
		body = &Move{}
	case TypeLobbyCreate:
		body = &LobbyCreate{}
	case TypeLobbyJoin:
		body = &LobbyJoin{}
	case TypeLobbyReady:
		body = &LobbyReady{}
	case TypeStart:
		body = &Start{}
	case TypeGameUpdate:
		body = &GameUpdate{}
	case TypeInvalid:
		body = &Invalid{}
	case TypeGameOver:
		body = &GameOver{}
	case TypeLobbyUpdate:
		body = &LobbyUpdate{}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err := json.Unmarshal(env.Body, body); err != nil {
		return Message{}, fmt.Errorf("decode %s body: %w", env.Type, err)
	}
	return Message{Type: env.Type, Body: body}, nil
}

// Constructors keep Type and Body paired at call sites.

func NewMove(row, col int) Message { return Message{TypeMove, &Move{Row: row, Col: col}} }

func NewLobbyCreate(name string) Message {
	return Message{TypeLobbyCreate, &LobbyCreate{RoomName: name}}
}

func NewLobbyJoin(number string) Message {
	return Message{TypeLobbyJoin, &LobbyJoin{RoomNumber: number}}
}

func NewLobbyReady(ready bool) Message { return Message{TypeLobbyReady, &LobbyReady{IsReady: ready}} }

func NewStart(color string) Message { return Message{TypeStart, &Start{Color: color}} }

func NewInvalid(reason string) Message { return Message{TypeInvalid, &Invalid{Reason: reason}} }

func NewGameOver(reason string) Message { return Message{TypeGameOver, &GameOver{Reason: reason}} }

func NewGameUpdate(u GameUpdate) Message { return Message{TypeGameUpdate, &u} }

func NewLobbyUpdate(u LobbyUpdate) Message { return Message{TypeLobbyUpdate, &u} }
