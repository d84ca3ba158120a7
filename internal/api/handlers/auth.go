package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/auth"
	"github.com/chainduel/backend/internal/config"
)

// Login exchanges a user id for a session token. Identity proofing happens
// upstream at the chat transport, which forwards a verified user id; this
// endpoint only mints the API credential.
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
			return
		}
		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
			return
		}

		ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
		token, err := auth.MintToken(cfg.JWTSecret, userID, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID, "expires_in": int(ttl.Seconds())})
	}
}
