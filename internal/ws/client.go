package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Client is one authenticated live connection and the exclusive owner of its
// subscription filter.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	identity auth.Identity
	send     chan []byte
	done     chan struct{}
	once     sync.Once

	mu   sync.Mutex
	subs Subscription
}

func newClient(h *Hub, conn *websocket.Conn, identity auth.Identity) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      h,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) subscription() Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs
}

// trySend queues data for the write pump, dropping it when the queue is full
// or the connection is shutting down. The send channel is never closed, so a
// racing broadcast can never panic.
func (c *Client) trySend(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) sendWelcome(now time.Time) {
	c.sendJSON(map[string]any{
		"type":       "welcome",
		"serverTime": now.Format(time.RFC3339),
		"clientId":   c.id,
	})
}

// shutdown is idempotent; it stops the write pump and closes the transport,
// which also unblocks the read loop.
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

type inboundMessage struct {
	Type        string   `json:"type"`
	Devices     []string `json:"devices"`
	SensorTypes []string `json:"sensorTypes"`
}

// readPump consumes client messages until the transport errors or closes,
// then deregisters the connection. Malformed messages are logged and ignored;
// the connection stays open.
func (c *Client) readPump() {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.Warn("malformed websocket message", slog.String("client", c.id))
			continue
		}
		if msg.Type == "subscribe" {
			c.handleSubscribe(msg)
		}
	}
}

// handleSubscribe replaces the filter wholesale and acks with the result.
func (c *Client) handleSubscribe(msg inboundMessage) {
	subs := Subscription{
		Devices:     msg.Devices,
		SensorTypes: msg.SensorTypes,
	}
	if subs.Devices == nil {
		subs.Devices = []string{}
	}
	if subs.SensorTypes == nil {
		subs.SensorTypes = []string{}
	}
	c.mu.Lock()
	c.subs = subs
	c.mu.Unlock()

	c.sendJSON(map[string]any{
		"type":          "subscribed",
		"subscriptions": subs,
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
