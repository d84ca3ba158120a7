package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel websocket fan-out subscribes to.
const Channel = "core_events"

// Event types published over the channel.
const (
	TypeInviteCreated  = "invite_created"
	TypeInviteAccepted = "invite_accepted"
	TypeInviteDeclined = "invite_declined"
	TypeInviteExpired  = "invite_expired"
	TypeSessionStarted = "session_started"
	TypeMoveApplied    = "move_applied"
	TypeSessionSettled = "session_settled"
	TypeSessionForfeit = "session_forfeited"
)

// Publisher pushes JSON events to Redis pub/sub. A nil Redis client turns
// every publish into a no-op so in-memory deployments and tests work
// unchanged.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish marshals and sends one event. Delivery is best-effort: a failed
// publish is logged, never surfaced to the caller.
func (p *Publisher) Publish(eventType string, fields map[string]interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	payload := map[string]interface{}{"type": eventType}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal %s event: %v", eventType, err)
		return
	}
	if n, err := p.rdb.Publish(context.Background(), Channel, b).Result(); err != nil {
		log.Printf("[EVENTS] publish %s failed: %v", eventType, err)
	} else {
		log.Printf("[EVENTS] published %s: subscribers=%d", eventType, n)
	}
}
