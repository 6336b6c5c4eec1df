package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// FeedTopic receives every ledger event; battle topics only their own.
const FeedTopic = "feed"

func battleTopic(battleID string) string {
	return "battle:" + battleID
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only public stream
	},
}

type WebSocketHandler struct {
	hub *Hub
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := NewHub()
	go hub.Run()
	return &WebSocketHandler{hub: hub}
}

// Hub maintains active connections per topic and fans out messages
type Hub struct {
	// Map of topic -> map of clientId -> connection
	topics map[string]map[string]*Client
	mu     sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
}

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	topic string
	id    string
	send  chan []byte
}

type BroadcastMessage struct {
	Topic   string
	Message []byte
}

func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.topics[client.topic] == nil {
				h.topics[client.topic] = make(map[string]*Client)
			}
			h.topics[client.topic][client.id] = client
			h.mu.Unlock()
			log.Printf("[WS] Client registered: topic=%s client=%s", client.topic, client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("[WS] Client unregistered: topic=%s client=%s", client.topic, client.id)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.topics[msg.Topic] {
				select {
				case client.send <- msg.Message:
				default:
					// Slow consumer; drop it rather than block the hub
					close(client.send)
					delete(h.topics[msg.Topic], id)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.topics {
				for _, client := range clients {
					close(client.send)
				}
			}
			h.topics = make(map[string]map[string]*Client)
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.topics[client.topic]
	if !ok {
		return
	}
	if _, ok := clients[client.id]; ok {
		delete(clients, client.id)
		close(client.send)
		if len(clients) == 0 {
			delete(h.topics, client.topic)
		}
	}
}

// Stop disconnects all clients and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

// ClientCount returns the number of subscribers on topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) BroadcastToTopic(topic string, message []byte) {
	select {
	case h.broadcast <- &BroadcastMessage{Topic: topic, Message: message}:
	case <-h.done:
	}
}

// Deliver fans a ledger event out to the feed and, when the event belongs
// to a battle, to that battle's subscribers. It is the event bus's local
// delivery hook.
func (h *Hub) Deliver(event eventbus.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", event.Type, err)
		return
	}
	h.BroadcastToTopic(FeedTopic, data)
	if event.BattleID != "" {
		h.BroadcastToTopic(battleTopic(event.BattleID), data)
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleFeed streams every ledger event.
// GET /ws/feed
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, FeedTopic)
}

// HandleBattle streams events for one battle id.
// GET /ws/battles/{battleId}
func (h *WebSocketHandler) HandleBattle(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["battleId"]
	if battleID == "" {
		http.Error(w, "Missing battleId", http.StatusBadRequest)
		return
	}
	h.serve(w, r, battleTopic(battleID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed (request=%s): %v", middleware.RequestIDFromContext(r.Context()), err)
		return
	}

	client := &Client{
		hub:   h.hub,
		conn:  conn,
		topic: topic,
		id:    uuid.NewString(),
		send:  make(chan []byte, 256),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// GetHub returns the hub so the event bus can deliver into it
func (h *WebSocketHandler) GetHub() *Hub {
	return h.hub
}
