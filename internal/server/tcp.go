// Package server holds the connection transports: a TCP listener speaking
// the line-delimited protocol, and a websocket endpoint speaking the same
// messages one per text frame. Both decode inbound data and post it onto the
// event bus; everything after that is the hub's business.
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reversi_server/internal/bus"
	"reversi_server/internal/hub"
	"reversi_server/internal/metrics"
	"reversi_server/pkg/protocol"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 64
	maxLineBytes  = 64 * 1024
)

// TCPServer accepts raw TCP clients, one reading goroutine per connection.
type TCPServer struct {
	addr   string
	hub    *hub.Hub
	events *bus.Bus
	log    *zap.Logger
}

func NewTCPServer(addr string, h *hub.Hub, events *bus.Bus, log *zap.Logger) *TCPServer {
	return &TCPServer{addr: addr, hub: h, events: events, log: log}
}

// ListenAndServe accepts connections until ctx is cancelled.
func (s *TCPServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	s.log.Info("tcp listener started", zap.String("addr", s.addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		c := newLineClient(conn, s.log)
		s.hub.RegisterClient(c)
		go c.writePump()
		go s.readLoop(c)
	}
}

// readLoop is the per-connection blocking read. Each line is one message;
// undecodable and oversized lines are logged and dropped without killing the
// connection. When the loop ends the client is unregistered, which the hub
// treats as an implicit resignation.
func (s *TCPServer) readLoop(c *lineClient) {
	defer func() {
		s.hub.UnregisterClient(c.ID())
		c.close()
	}()

	r := bufio.NewReaderSize(c.conn, 4096)
	var (
		line      []byte
		oversized bool
	)
	for {
		frag, err := r.ReadSlice('\n')
		if !oversized {
			line = append(line, frag...)
			if len(line) > maxLineBytes {
				oversized = true
				metrics.ProtocolErrors.Inc()
				s.log.Warn("dropping oversized line", zap.String("client", c.ID()))
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue // line still open, keep collecting (or skipping)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Info("connection read ended", zap.String("client", c.ID()), zap.Error(err))
			}
			return
		}

		msg := bytes.TrimRight(line, "\r\n")
		line = line[:0]
		if oversized {
			oversized = false
			continue
		}
		if len(msg) == 0 {
			continue
		}
		decoded, err := protocol.Decode(msg)
		if err != nil {
			metrics.ProtocolErrors.Inc()
			s.log.Warn("dropping undecodable line",
				zap.String("client", c.ID()), zap.Error(err))
			continue
		}
		s.events.Post(hub.ClientMessage{Msg: decoded, From: c})
	}
}

// lineClient is one TCP connection's handle. Writes go through a buffered
// queue drained by writePump, so Send never blocks a caller that holds
// entity locks; a full queue drops the frame.
type lineClient struct {
	id   string
	conn net.Conn
	log  *zap.Logger
	send chan []byte
	once sync.Once
	done chan struct{}
}

func newLineClient(conn net.Conn, log *zap.Logger) *lineClient {
	return &lineClient{
		id:   uuid.NewString(),
		conn: conn,
		log:  log,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *lineClient) ID() string { return c.id }

// Send queues one encoded message for delivery, best effort.
func (c *lineClient) Send(msg protocol.Message) {
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

func (c *lineClient) writePump() {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if _, err := c.conn.Write(append(data, '\n')); err != nil {
				c.log.Info("write failed, awaiting disconnect",
					zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *lineClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
