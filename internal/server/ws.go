package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"reversi_server/internal/bus"
	"reversi_server/internal/hub"
	"reversi_server/internal/metrics"
	"reversi_server/pkg/protocol"
)

// WSHandler upgrades the request and runs the same decode-and-post loop as
// the TCP transport, one message per text frame.
func WSHandler(h *hub.Hub, events *bus.Bus, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		c := newWSClient(conn, log)
		h.RegisterClient(c)
		defer func() {
			h.UnregisterClient(c.ID())
			c.close()
		}()

		writeCtx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go c.writePump(writeCtx)

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Info("websocket read ended", zap.String("client", c.ID()), zap.Error(err))
				}
				return
			}
			msg, err := protocol.Decode(data)
			if err != nil {
				metrics.ProtocolErrors.Inc()
				log.Warn("dropping undecodable frame",
					zap.String("client", c.ID()), zap.Error(err))
				continue
			}
			events.Post(hub.ClientMessage{Msg: msg, From: c})
		}
	}
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	log  *zap.Logger
	send chan []byte
	once sync.Once
	done chan struct{}
}

func newWSClient(conn *websocket.Conn, log *zap.Logger) *wsClient {
	return &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		log:  log,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.log.Error("encode outbound message",
			zap.String("client", c.id), zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Warn("send queue full, dropping frame",
			zap.String("client", c.id), zap.String("type", string(msg.Type)))
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	for {
		select {
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.Info("websocket write failed",
					zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	})
}
