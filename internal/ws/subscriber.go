package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/chainduel/backend/internal/events"
)

// StartEventSubscriber relays engine events from Redis pub/sub to connected
// clients. Session events go to the session's room; invitation events go
// directly to the two users involved.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis not configured; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, events.Channel)
	ch := pubsub.Channel()
	go func() {
		log.Printf("[WS] Subscribed to %s", events.Channel)
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] Invalid event payload: %v", err)
				continue
			}

			if sessionID, _ := payload["session_id"].(string); sessionID != "" {
				hub.BroadcastToSession(sessionID, payload)
				continue
			}

			// invitation events carry no session yet; deliver to both parties
			for _, key := range []string{"challenger", "challenged"} {
				if userID, _ := payload[key].(string); userID != "" {
					hub.SendToUser(userID, payload)
				}
			}
		}
	}()
}
