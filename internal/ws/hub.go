package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one connected user.
type Client struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Hub tracks connected clients and which session room each one watches.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // userID -> client
	rooms   map[string]map[string]*Client // sessionID -> userID -> client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register attaches a user's connection, replacing any previous one. The
// new client takes over the old one's room memberships before the old send
// channel closes, so a concurrent broadcast never hits a closed channel.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	client := &Client{conn: conn, userID: userID, send: make(chan []byte, 64)}

	h.mu.Lock()
	if old, exists := h.clients[userID]; exists {
		for _, room := range h.rooms {
			if room[userID] == old {
				room[userID] = client
			}
		}
		close(old.send)
	}
	h.clients[userID] = client
	h.mu.Unlock()

	go client.writePump()
	log.Printf("[WS] Client connected: %s", userID)
	return client
}

// Unregister drops a client and removes it from every room.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
		close(client.send)
	}
	for sessionID, room := range h.rooms {
		if room[client.userID] == client {
			delete(room, client.userID)
			if len(room) == 0 {
				delete(h.rooms, sessionID)
			}
		}
	}
	log.Printf("[WS] Client disconnected: %s", client.userID)
}

// JoinSession subscribes a client to one session's broadcasts.
func (h *Hub) JoinSession(sessionID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[sessionID]
	if !exists {
		room = make(map[string]*Client)
		h.rooms[sessionID] = room
	}
	room[client.userID] = client
}

// BroadcastToSession sends a message to every client watching a session.
func (h *Hub) BroadcastToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Failed to marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[sessionID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] Send buffer full for %s in session %s, dropping message", client.userID, sessionID)
		}
	}
}

// SendToUser sends a message to one connected user, if present.
func (h *Hub) SendToUser(userID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[userID]
	if !exists {
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping message", userID)
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings.
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for %s: %v", c.userID, err)
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
