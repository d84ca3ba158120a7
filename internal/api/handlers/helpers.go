package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/engine"
	"github.com/chainduel/backend/internal/invite"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/session"
)

// respondError translates engine errors into HTTP responses. Expected user
// errors map to 4xx; anything else is treated as an invariant violation and
// logged before a 500 goes out.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invite.ErrNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, ledger.ErrUnknownAccount):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, invite.ErrNotRecipient):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, invite.ErrAlreadyResolved),
		errors.Is(err, invite.ErrExpired),
		errors.Is(err, invite.ErrDuplicatePending),
		errors.Is(err, session.ErrSessionNotActive),
		errors.Is(err, engine.ErrNotYourTurn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, invite.ErrInvalidStake),
		errors.Is(err, invite.ErrSelfChallenge),
		errors.Is(err, invite.ErrUnknownGameKind),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, engine.ErrIllegalMove),
		errors.Is(err, engine.ErrUnknownActor),
		errors.Is(err, session.ErrUnknownActor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// caller returns the authenticated user id set by the auth middleware.
func caller(c *gin.Context) string {
	return c.GetString("user_id")
}
