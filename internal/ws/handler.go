package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chainduel/backend/internal/middleware"
	"github.com/chainduel/backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleConnection upgrades an authenticated request and joins the client
// to the rooms of every session it participates in. The read loop only
// services control frames and explicit join messages; all game commands go
// through the HTTP API.
func HandleConnection(hub *Hub, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed for %s: %v", userID, err)
			return
		}

		client := hub.Register(userID, conn)
		for _, sessionID := range manager.ActiveFor(userID) {
			hub.JoinSession(sessionID, client)
		}

		go readPump(hub, client)
	}
}

func readPump(hub *Hub, client *Client) {
	defer hub.Unregister(client)

	client.conn.SetReadLimit(1024)
	client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for %s: %v", client.userID, err)
			}
			return
		}

		var msg struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "join" && msg.SessionID != "" {
			hub.JoinSession(msg.SessionID, client)
		}
	}
}
