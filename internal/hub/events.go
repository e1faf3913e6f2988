package hub

import (
	"reversi_server/internal/session"
	"reversi_server/pkg/protocol"
)

// Conn is the handle the hub holds for one connected client. Send is a
// best-effort, non-blocking push; transports drop frames rather than block a
// caller holding entity locks.
type Conn interface {
	ID() string
	Send(msg protocol.Message)
}

// ClientMessage is posted by a transport for every decoded inbound message,
// carrying the origin handle. Dispatch runs on the reading goroutine.
type ClientMessage struct {
	Msg  protocol.Message
	From Conn
}

// GameStateChange asks the hub to re-derive and broadcast a session's
// visible state. Posted by the hub itself after an accepted move and after
// timeout handling.
type GameStateChange struct {
	Session *session.Session
}
