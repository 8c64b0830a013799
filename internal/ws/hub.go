// Package ws tracks live websocket connections and fans bus events out to
// the subset whose subscription filters match.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/auth"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
)

type TokenVerifier interface {
	VerifyToken(token string) *auth.Identity
}

// Subscription is a per-connection filter. An empty list on either axis
// means no filter on that axis. It is replaced wholesale on each subscribe
// message, never merged.
type Subscription struct {
	Devices     []string `json:"devices"`
	SensorTypes []string `json:"sensorTypes"`
}

// Matches applies the broadcast filter rule: events without a device id
// bypass device filtering; the sensor-type gate only applies when the event
// carries one.
func (s Subscription) Matches(evt bus.Event) bool {
	if evt.DeviceID == "" {
		return true
	}
	if len(s.Devices) > 0 && !contains(s.Devices, evt.DeviceID) {
		return false
	}
	if evt.SensorType != "" && len(s.SensorTypes) > 0 && !contains(s.SensorTypes, evt.SensorType) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Hub is the exclusive owner of the set of live connections. Registration,
// deregistration and broadcast iteration are serialized through its lock so
// a connection is never partially visible.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	verifier TokenVerifier
	log      *slog.Logger
}

func NewHub(verifier TokenVerifier, logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		verifier: verifier,
		log:      logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("websocket client connected",
		slog.String("client", c.id), slog.String("user", c.identity.Username))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	c.shutdown()
	if ok {
		h.log.Info("websocket client disconnected", slog.String("client", c.id))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast delivers the event to every registered connection whose filter
// matches. Delivery is fire-and-forget: a connection with a full send queue
// is skipped, at most once per connection per event.
func (h *Hub) Broadcast(evt bus.Event) {
	clients := h.snapshot()
	if len(clients) == 0 {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for _, c := range clients {
		if c.subscription().Matches(evt) {
			c.trySend(data)
		}
	}
}

// Run consumes events from the channel until it closes, typically fed by
// bus.Subscribe.
func (h *Hub) Run(events <-chan bus.Event) {
	for evt := range events {
		h.Broadcast(evt)
	}
}

// CloseAll tears down every live connection; used on shutdown.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.unregister(c)
	}
}

// HandleWS upgrades the connection, verifies the handshake token from the
// URL query, and runs the connection's read loop. An unauthorized handshake
// is closed with policy-violation (1008) before the connection is ever
// registered.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	identity := h.verifier.VerifyToken(r.URL.Query().Get("token"))
	if identity == nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthorized"), deadline)
		conn.Close()
		return
	}

	client := newClient(h, conn, *identity)
	h.register(client)
	client.sendWelcome(time.Now().UTC())

	go client.writePump()
	client.readPump()
}
