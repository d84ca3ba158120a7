package session

import (
	"context"
	"log"
	"time"

	"github.com/chainduel/backend/internal/events"
	"github.com/chainduel/backend/internal/invite"
)

// Sweeper is the time-driven half of the engine: on a fixed interval it
// expires stale invitations and forfeits idle sessions against whoever held
// the turn when the clock ran out. A sweep that loses a race to a final
// move is harmless, and a missed forfeiture self-heals on the next tick.
type Sweeper struct {
	broker   *invite.Broker
	manager  *Manager
	pub      *events.Publisher
	interval time.Duration
	idle     time.Duration
}

func NewSweeper(broker *invite.Broker, manager *Manager, pub *events.Publisher, interval, idle time.Duration) *Sweeper {
	return &Sweeper{
		broker:   broker,
		manager:  manager,
		pub:      pub,
		interval: interval,
		idle:     idle,
	}
}

// Run sweeps until the context is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	log.Printf("[SWEEP] Started: interval=%s idle_limit=%s", sw.interval, sw.idle)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[SWEEP] Stopped")
			return
		case <-ticker.C:
			sw.Sweep()
		}
	}
}

// Sweep runs one pass. Exported so tests and admin tooling can trigger it
// without the ticker.
func (sw *Sweeper) Sweep() {
	for _, inv := range sw.broker.ExpireStale() {
		sw.pub.Publish(events.TypeInviteExpired, map[string]interface{}{
			"invitation_id": inv.ID,
			"challenger":    inv.Challenger,
			"challenged":    inv.Challenged,
		})
	}

	cutoff := time.Now().Add(-sw.idle)
	for _, sessionID := range sw.manager.IdleSince(cutoff) {
		log.Printf("[SWEEP] Session %s idle past limit, forfeiting", sessionID)
		if err := sw.manager.ForfeitIdle(sessionID, cutoff); err != nil {
			log.Printf("[SWEEP] Forfeit of session %s failed: %v", sessionID, err)
		}
	}
}
