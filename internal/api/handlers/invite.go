package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/events"
	"github.com/chainduel/backend/internal/invite"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/session"
)

// CreateChallenge opens a pending invitation from the caller to an opponent.
func CreateChallenge(broker *invite.Broker, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Opponent string `json:"opponent"`
			GameKind string `json:"game_kind"`
			Stake    int64  `json:"stake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "opponent, game_kind and stake required"})
			return
		}

		inv, err := broker.Create(caller(c), req.Opponent, req.GameKind, req.Stake)
		if err != nil {
			respondError(c, err)
			return
		}
		pub.Publish(events.TypeInviteCreated, map[string]interface{}{
			"invitation_id": inv.ID,
			"challenger":    inv.Challenger,
			"challenged":    inv.Challenged,
			"game_kind":     inv.GameKind,
			"stake":         inv.Stake,
			"expires_at":    inv.ExpiresAt,
		})
		c.JSON(http.StatusCreated, inv)
	}
}

// AcceptChallenge resolves an invitation and starts the session, holding
// both stakes in the same step. A stake the challenged player cannot cover
// declines the invitation instead.
func AcceptChallenge(broker *invite.Broker, manager *session.Manager, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, sessionID, err := broker.Accept(c.Param("id"), caller(c), manager.CreateFromInvite)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				pub.Publish(events.TypeInviteDeclined, map[string]interface{}{
					"invitation_id": c.Param("id"),
					"challenged":    caller(c),
					"reason":        invite.ReasonInsufficientFunds,
				})
			}
			respondError(c, err)
			return
		}
		pub.Publish(events.TypeInviteAccepted, map[string]interface{}{
			"invitation_id": inv.ID,
			"challenger":    inv.Challenger,
			"challenged":    inv.Challenged,
			"session_id":    sessionID,
		})
		c.JSON(http.StatusOK, gin.H{"invitation": inv, "session_id": sessionID})
	}
}

// DeclineChallenge resolves an invitation without a game.
func DeclineChallenge(broker *invite.Broker, pub *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := broker.Decline(c.Param("id"), caller(c))
		if err != nil {
			respondError(c, err)
			return
		}
		pub.Publish(events.TypeInviteDeclined, map[string]interface{}{
			"invitation_id": inv.ID,
			"challenger":    inv.Challenger,
			"challenged":    inv.Challenged,
		})
		c.JSON(http.StatusOK, inv)
	}
}

// ListPendingInvites lists live invitations addressed to the caller.
func ListPendingInvites(broker *invite.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"invitations": broker.PendingFor(caller(c))})
	}
}
