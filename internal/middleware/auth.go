package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/auth"
	"github.com/chainduel/backend/internal/config"
)

// UserIDKey is the gin context key the auth middleware stores the caller
// under.
const UserIDKey = "user_id"

// RequireAuth validates the bearer token and stashes the user id on the
// context. WebSocket upgrades may carry the token in a query parameter
// since browsers cannot set headers on the upgrade request.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		} else if q := c.Query("token"); q != "" {
			raw = q
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := auth.VerifyToken(cfg.JWTSecret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// RequireOperator gates admin endpoints behind the configured operator PIN.
func RequireOperator(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pin := c.GetHeader("X-Operator-Pin")
		if !auth.CheckOperatorPIN(cfg.OperatorPINHash, pin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator PIN required"})
			return
		}
		c.Next()
	}
}
