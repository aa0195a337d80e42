// Package websocket relays domain events to dashboard clients. It implements
// a hub-and-spoke pattern where clients subscribe to topics ("bed:<ward>",
// "admission:<id>", "vitals:<patient>") and receive events broadcast to them.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/laso/hms/internal/platform/events"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4096
)

// Message is the wire format pushed to subscribed clients.
type Message struct {
	Topic     string          `json:"topic"`
	Resource  string          `json:"resource"`
	ID        string          `json:"id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound subscribe/unsubscribe request from a client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Client represents a single WebSocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Hub tracks connected clients and their topic subscriptions. All operations
// are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	topics map[string]map[*Client]struct{}
	all    map[*Client]struct{}
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		topics: make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
	}
}

func (h *Hub) attachLocked(client *Client, topic string) {
	set := h.topics[topic]
	if set == nil {
		set = make(map[*Client]struct{})
		h.topics[topic] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) detachLocked(client *Client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.attachLocked(client, topic)
	}
}

// Unregister removes a client from all subscriptions and closes its Send
// channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.detachLocked(client, topic)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		h.attachLocked(client, topic)
	}
	client.Topics = append(client.Topics, topics...)
}

// Unsubscribe removes topics from a client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		dropped[topic] = struct{}{}
		h.detachLocked(client, topic)
	}

	kept := client.Topics[:0]
	for _, topic := range client.Topics {
		if _, gone := dropped[topic]; !gone {
			kept = append(kept, topic)
		}
	}
	client.Topics = kept
}

// ProcessMessage dispatches an inbound client message.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends a message to every client subscribed to its topic. Clients
// with full buffers are skipped rather than blocking the publisher.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal websocket message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[msg.Topic] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Relay returns a bus subscriber that forwards domain events to hub topics.
func (h *Hub) Relay() events.Subscriber {
	return events.SubscriberFunc(func(e events.Event) {
		h.Broadcast(Message{
			Topic:     e.Topic(),
			Resource:  e.Resource,
			ID:        e.ID,
			Status:    e.Status,
			Timestamp: e.Timestamp,
		})
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks belong to the reverse proxy.
	},
}

// Handler upgrades HTTP connections and pumps hub messages to clients.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts the
// read/write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump processes subscribe/unsubscribe frames until the client goes away.
// A client that stops answering pings is cut off after pongWait.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue // Ignore malformed frames.
		}
		h.hub.ProcessMessage(client, msg)
	}
}

// writePump drains the Send channel onto the wire and keeps the connection
// alive with periodic pings.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, open := <-client.Send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				ws.WriteMessage(gorillawebsocket.CloseMessage, nil)
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
