package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chainduel/backend/internal/api/handlers"
	"github.com/chainduel/backend/internal/config"
	"github.com/chainduel/backend/internal/events"
	"github.com/chainduel/backend/internal/invite"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/middleware"
	"github.com/chainduel/backend/internal/session"
	"github.com/chainduel/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, lg *ledger.Ledger, broker *invite.Broker, manager *session.Manager, pub *events.Publisher, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/login", handlers.Login(cfg))

		// operator endpoints: external deposits confirmed by the funding side
		operator := v1.Group("/operator", middleware.RequireOperator(cfg))
		{
			operator.POST("/deposit", handlers.Deposit(lg))
			operator.POST("/withdraw", handlers.Withdraw(lg))
		}

		authed := v1.Group("", middleware.RequireAuth(cfg))
		{
			authed.GET("/account/balance", handlers.GetBalance(lg))
			authed.GET("/account/stats", handlers.GetStats(lg))

			authed.POST("/invitations", handlers.CreateChallenge(broker, pub))
			authed.GET("/invitations", handlers.ListPendingInvites(broker))
			authed.POST("/invitations/:id/accept", handlers.AcceptChallenge(broker, manager, pub))
			authed.POST("/invitations/:id/decline", handlers.DeclineChallenge(broker, pub))

			authed.GET("/sessions", handlers.ListActiveSessions(manager))
			authed.GET("/sessions/:id", handlers.GetSession(manager))
			authed.GET("/sessions/:id/render", handlers.RenderSession(manager))
			authed.POST("/sessions/:id/moves", handlers.SubmitMove(manager))

			authed.GET("/ws", ws.HandleConnection(hub, manager))
		}
	}
}
