// Package hub routes every inbound client message to the lobby room or game
// session it belongs to, and pushes the resulting state back out to the
// affected connections. One hub instance runs per server process.
package hub

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"reversi_server/internal/bus"
	"reversi_server/internal/clock"
	"reversi_server/internal/lobby"
	"reversi_server/internal/metrics"
	"reversi_server/internal/session"
	"reversi_server/pkg/protocol"
)

// Hub owns the registries of connected clients, lobby rooms and live
// sessions. The registries are guarded by one mutex; rooms, sessions and
// clocks each carry their own. Event dispatch happens on the posting
// connection's goroutine, so handlers here run concurrently and take the hub
// lock only around map access, never around sends or event posts.
type Hub struct {
	log    *zap.Logger
	events *bus.Bus

	initialTime time.Duration
	bonusTime   time.Duration

	mu       sync.Mutex
	clients  map[string]Conn
	rooms    map[string]*lobby.Room
	sessions map[string]*session.Session // keyed by the room that spawned them

	subs []*bus.Subscription
}

// New wires a hub onto the bus. initialTime and bonusTime parameterize the
// clock of every match the hub starts.
func New(events *bus.Bus, log *zap.Logger, initialTime, bonusTime time.Duration) *Hub {
	h := &Hub{
		log:         log,
		events:      events,
		initialTime: initialTime,
		bonusTime:   bonusTime,
		clients:     make(map[string]Conn),
		rooms:       make(map[string]*lobby.Room),
		sessions:    make(map[string]*session.Session),
	}
	h.subs = append(h.subs,
		bus.Subscribe(events, h.onClientMessage),
		bus.Subscribe(events, h.onGameStateChange),
		bus.Subscribe(events, h.onTimeout),
	)
	return h
}

// Close unsubscribes the hub from the bus.
func (h *Hub) Close() {
	for _, s := range h.subs {
		s.Unsubscribe()
	}
}

// RegisterClient records a freshly accepted connection and sends it the
// current lobby listing.
func (h *Hub) RegisterClient(conn Conn) {
	h.mu.Lock()
	h.clients[conn.ID()] = conn
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ConnectedClients.Set(float64(n))

	conn.Send(protocol.NewLobbyUpdate(h.lobbyListing()))
	h.log.Info("client registered", zap.String("client", conn.ID()), zap.Int("total", n))
}

// UnregisterClient removes a connection whose read loop ended. A silent
// disconnect counts as leaving the room and resigning any live match.
func (h *Hub) UnregisterClient(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	n := len(h.clients)

	var room *lobby.Room
	for _, r := range h.rooms {
		if r.Contains(id) {
			room = r
			break
		}
	}

	var sess *session.Session
	for key, s := range h.sessions {
		if s.Contains(id) {
			sess = s
			delete(h.sessions, key)
			break
		}
	}
	h.mu.Unlock()

	metrics.ConnectedClients.Set(float64(n))
	h.log.Info("client unregistered", zap.String("client", id), zap.Int("total", n))

	if room != nil {
		if err := room.RemovePlayer(id); err == nil && room.Size() == 0 {
			h.mu.Lock()
			delete(h.rooms, room.Name())
			h.mu.Unlock()
		}
		h.syncRoomGauges()
		h.broadcastLobby()
	}

	if sess != nil {
		h.syncRoomGauges()
		if !sess.Terminal() {
			sess.Resign(id)
		}
		h.sendToParticipants(sess, protocol.NewGameOver(sess.Result()))
	}
}

// --- bus listeners ---

func (h *Hub) onClientMessage(e ClientMessage) {
	metrics.MessagesTotal.WithLabelValues(string(e.Msg.Type)).Inc()

	switch body := e.Msg.Body.(type) {
	case *protocol.LobbyCreate:
		h.handleLobbyCreate(e.From, body.RoomName)
	case *protocol.LobbyJoin:
		h.handleLobbyJoin(e.From, body.RoomNumber)
	case *protocol.LobbyReady:
		h.handleLobbyReady(e.From, body.IsReady)
	case *protocol.Move:
		h.handleMove(e.From, body.Row, body.Col)
	default:
		// Server-to-client variants arriving inbound are a client bug.
		h.log.Warn("message ignored",
			zap.String("client", e.From.ID()), zap.String("type", string(e.Msg.Type)))
	}
}

// onGameStateChange re-derives the outbound update from current state and
// sends identical copies to both participants.
func (h *Hub) onGameStateChange(e GameStateChange) {
	snap := e.Session.Snapshot()
	h.sendToParticipants(e.Session, protocol.NewGameUpdate(protocol.GameUpdate{
		Board:         snap.Board,
		CurrentPlayer: snap.CurrentPlayer.String(),
		BlackTimeMs:   snap.BlackTimeMs,
		WhiteTimeMs:   snap.WhiteTimeMs,
	}))
}

// onTimeout resolves a clock expiry into a terminal session and tells both
// players.
func (h *Hub) onTimeout(e clock.TimeoutEvent) {
	h.mu.Lock()
	var sess *session.Session
	for key, s := range h.sessions {
		if s.Clock() == e.Clock {
			sess = s
			delete(h.sessions, key)
			break
		}
	}
	h.mu.Unlock()
	if sess == nil {
		h.log.Warn("timeout for unknown session", zap.Bool("white", e.WhiteTimedOut))
		return
	}
	h.syncRoomGauges()

	sess.HandleTimeout(e.WhiteTimedOut)
	h.events.Post(GameStateChange{Session: sess})
	h.sendToParticipants(sess, protocol.NewGameOver(sess.Result()))
	h.log.Info("session timed out",
		zap.String("black", sess.BlackID()), zap.String("white", sess.WhiteID()),
		zap.Bool("whiteTimedOut", e.WhiteTimedOut))
}

// --- message handlers ---

func (h *Hub) handleLobbyCreate(from Conn, name string) {
	if name == "" {
		from.Send(protocol.NewInvalid("room name must not be empty"))
		return
	}
	room := lobby.NewRoom(name)
	if err := room.AddPlayer(from.ID()); err != nil {
		from.Send(protocol.NewInvalid(err.Error()))
		return
	}

	h.mu.Lock()
	if h.occupiedLocked(from.ID()) {
		h.mu.Unlock()
		from.Send(protocol.NewInvalid("already in a room or game"))
		return
	}
	if _, exists := h.rooms[name]; exists {
		h.mu.Unlock()
		from.Send(protocol.NewInvalid(fmt.Sprintf("room %s already exists", name)))
		return
	}
	h.rooms[name] = room
	h.mu.Unlock()

	h.syncRoomGauges()
	h.log.Info("room created", zap.String("client", from.ID()), zap.String("room", name))
	h.broadcastLobby()
}

func (h *Hub) handleLobbyJoin(from Conn, name string) {
	h.mu.Lock()
	room := h.rooms[name]
	busy := h.occupiedLocked(from.ID())
	h.mu.Unlock()
	if room == nil {
		from.Send(protocol.NewInvalid(fmt.Sprintf("room %s invalid", name)))
		return
	}
	if busy {
		from.Send(protocol.NewInvalid("already in a room or game"))
		return
	}
	if err := room.AddPlayer(from.ID()); err != nil {
		from.Send(protocol.NewInvalid(err.Error()))
		return
	}

	h.log.Info("client joined room", zap.String("client", from.ID()), zap.String("room", name))
	h.broadcastLobby()
	h.maybeStart(room)
}

func (h *Hub) handleLobbyReady(from Conn, ready bool) {
	h.mu.Lock()
	var room *lobby.Room
	for _, r := range h.rooms {
		if r.Contains(from.ID()) {
			room = r
			break
		}
	}
	h.mu.Unlock()
	if room == nil {
		// Routing miss: log and drop, not fatal to the connection.
		h.log.Warn("ready from client outside any room", zap.String("client", from.ID()))
		return
	}

	if err := room.SetReady(from.ID(), ready); err != nil {
		h.log.Debug("readiness unchanged",
			zap.String("client", from.ID()), zap.String("room", room.Name()), zap.Error(err))
		return
	}
	h.log.Info("client readiness set", zap.String("client", from.ID()),
		zap.String("room", room.Name()), zap.Bool("ready", ready))
	h.broadcastLobby()
	h.maybeStart(room)
}

func (h *Hub) handleMove(from Conn, row, col int) {
	h.mu.Lock()
	var sess *session.Session
	for _, s := range h.sessions {
		if s.Contains(from.ID()) {
			sess = s
			break
		}
	}
	h.mu.Unlock()
	if sess == nil {
		h.log.Warn("move from client with no active session", zap.String("client", from.ID()))
		return
	}

	if err := sess.MakeMove(row, col, from.ID()); err != nil {
		metrics.RejectedMoves.Inc()
		from.Send(protocol.NewInvalid(err.Error()))
		return
	}

	h.events.Post(GameStateChange{Session: sess})
	if sess.Terminal() {
		h.removeSession(sess)
		h.sendToParticipants(sess, protocol.NewGameOver(sess.Result()))
	}
}

// maybeStart promotes a ready room into a live session. The room leaves the
// routing table the moment the session exists.
func (h *Hub) maybeStart(room *lobby.Room) {
	if !room.ReadyToStart() {
		return
	}
	blackID, whiteID, ok := room.Seats()
	if !ok {
		return
	}

	h.mu.Lock()
	if _, present := h.rooms[room.Name()]; !present {
		h.mu.Unlock() // a concurrent handler already promoted it
		return
	}
	delete(h.rooms, room.Name())

	clk := clock.New(h.initialTime, h.bonusTime, false) // Black moves first
	clk.SetEventBus(h.events)
	sess := session.New(blackID, whiteID, clk)
	h.sessions[room.Name()] = sess

	black := h.clients[blackID]
	white := h.clients[whiteID]
	h.mu.Unlock()

	h.syncRoomGauges()
	if black != nil {
		black.Send(protocol.NewStart("B"))
	}
	if white != nil {
		white.Send(protocol.NewStart("W"))
	}
	clk.Start()
	h.log.Info("session started", zap.String("room", room.Name()),
		zap.String("black", blackID), zap.String("white", whiteID))

	h.events.Post(GameStateChange{Session: sess})
	h.broadcastLobby()
}

// --- helpers ---

// occupiedLocked reports whether id already sits in a lobby room or a live
// session. A handle belongs to at most one of either at a time, so move and
// ready routing stays unambiguous. Callers hold h.mu.
func (h *Hub) occupiedLocked(id string) bool {
	for _, r := range h.rooms {
		if r.Contains(id) {
			return true
		}
	}
	for _, s := range h.sessions {
		if s.Contains(id) {
			return true
		}
	}
	return false
}

func (h *Hub) removeSession(sess *session.Session) {
	h.mu.Lock()
	for key, s := range h.sessions {
		if s == sess {
			delete(h.sessions, key)
			break
		}
	}
	h.mu.Unlock()
	h.syncRoomGauges()
}

// sendToParticipants delivers msg to both of a session's clients, skipping
// any that already disconnected.
func (h *Hub) sendToParticipants(sess *session.Session, msg protocol.Message) {
	h.mu.Lock()
	black := h.clients[sess.BlackID()]
	white := h.clients[sess.WhiteID()]
	h.mu.Unlock()
	if black != nil {
		black.Send(msg)
	}
	if white != nil {
		white.Send(msg)
	}
}

// lobbyListing snapshots every open room's roster.
func (h *Hub) lobbyListing() protocol.LobbyUpdate {
	h.mu.Lock()
	rooms := make([]*lobby.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	listing := protocol.LobbyUpdate{Rooms: make(map[string][]protocol.RosterEntry, len(rooms))}
	for _, r := range rooms {
		players := r.Players()
		roster := make([]protocol.RosterEntry, 0, len(players))
		for _, p := range players {
			roster = append(roster, protocol.RosterEntry{
				ID:    p.ID,
				Role:  p.Role.String(),
				Ready: p.Ready,
			})
		}
		listing.Rooms[r.Name()] = roster
	}
	return listing
}

// broadcastLobby pushes the lobby listing to every connected client.
func (h *Hub) broadcastLobby() {
	msg := protocol.NewLobbyUpdate(h.lobbyListing())

	h.mu.Lock()
	conns := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Send(msg)
	}
}

func (h *Hub) syncRoomGauges() {
	h.mu.Lock()
	rooms, sessions := len(h.rooms), len(h.sessions)
	h.mu.Unlock()
	metrics.OpenRooms.Set(float64(rooms))
	metrics.ActiveSessions.Set(float64(sessions))
}
