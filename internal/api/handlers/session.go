package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/session"
)

// SubmitMove routes one game command to the caller's session.
func SubmitMove(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Command string `json:"command"`
		}
		if err := c.BindJSON(&req); err != nil || req.Command == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "command required"})
			return
		}

		view, err := manager.SubmitMove(c.Param("id"), caller(c), req.Command)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GetSession returns the session record and the caller's view of the board.
func GetSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, board, err := manager.Snapshot(c.Param("id"), caller(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": rec, "board": board})
	}
}

// RenderSession returns a plain-text rendering of the board, which the chat
// transport can drop straight into a monospace message.
func RenderSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, board, err := manager.Snapshot(c.Param("id"), caller(c))
		if err != nil {
			respondError(c, err)
			return
		}
		text, _ := board["my_board"].(string)
		if text == "" {
			text, _ = board["board"].(string)
		}
		c.String(http.StatusOK, text)
	}
}

// ListActiveSessions lists the caller's active session ids.
func ListActiveSessions(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": manager.ActiveFor(caller(c))})
	}
}
