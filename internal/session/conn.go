package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024 * 1024
)

// Transport is what a controller needs from its connection. Conn implements
// it over a websocket; tests substitute an in-memory fake.
type Transport interface {
	Send(msg *ServerMessage) error
	Messages() <-chan *ClientMessage
	Close() error
}

// Conn wraps one websocket connection with the usual pump pair: readPump
// decodes inbound JSON into the messages channel, writePump drains the send
// channel and keeps the transport-level ping ticker running.
type Conn struct {
	ws       *websocket.Conn
	log      *slog.Logger
	send     chan *ServerMessage
	messages chan *ClientMessage
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
}

func NewConn(ws *websocket.Conn, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	return &Conn{
		ws:       ws,
		log:      log,
		send:     make(chan *ServerMessage, 256),
		messages: make(chan *ClientMessage, 64),
		done:     make(chan struct{}),
	}
}

func (c *Conn) Send(msg *ServerMessage) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	select {
	case c.send <- msg:
		return nil
	default:
		c.log.Warn("send buffer full, dropping message", "type", msg.Type)
		return nil
	}
}

func (c *Conn) Messages() <-chan *ClientMessage {
	return c.messages
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	close(c.send)
	return c.ws.Close()
}

func (c *Conn) readPump(ctx context.Context) {
	defer func() {
		c.Close()
		close(c.messages)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Error("failed to unmarshal message", "error", err)
			_ = c.Send(ErrorMessage("Invalid message: not a JSON object"))
			continue
		}

		select {
		case c.messages <- &msg:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.log.Error("failed to marshal message", "error", err)
				continue
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Error("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
