package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/chainduel/backend/internal/api"
	"github.com/chainduel/backend/internal/config"
	"github.com/chainduel/backend/internal/database"
	"github.com/chainduel/backend/internal/events"
	"github.com/chainduel/backend/internal/invite"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/migrations"
	"github.com/chainduel/backend/internal/redis"
	"github.com/chainduel/backend/internal/session"
	"github.com/chainduel/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	pub := events.NewPublisher(rdb)

	// Ledger and account book
	lg := ledger.New(db)
	if err := lg.LoadFromDB(); err != nil {
		log.Fatalf("Failed to load accounts: %v", err)
	}

	// Invitation broker and session manager
	broker := invite.New(db, cfg.MinStakeAmount, cfg.MaxStakeAmount,
		time.Duration(cfg.InviteTTLSeconds)*time.Second)
	manager := session.NewManager(lg, pub, db, rdb)
	if err := manager.LoadActiveSessions(); err != nil {
		log.Fatalf("Failed to restore sessions: %v", err)
	}

	// Expiry sweep: stale invitations and idle forfeitures
	sweeper := session.NewSweeper(broker, manager, pub,
		time.Duration(cfg.SweepIntervalSeconds)*time.Second,
		time.Duration(cfg.IdleForfeitSeconds)*time.Second)
	go sweeper.Run(context.Background())

	// WebSocket fan-out of engine events
	hub := ws.NewHub()
	ws.StartEventSubscriber(context.Background(), rdb, hub)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, cfg, lg, broker, manager, pub, hub)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting ChainDuel server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
