package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Wager Settings
	MinStakeAmount       int64
	MaxStakeAmount       int64
	InviteTTLSeconds     int
	IdleForfeitSeconds   int
	SweepIntervalSeconds int

	// Security
	JWTSecret       string
	TokenTTLMinutes int
	OperatorPINHash string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/chainduel?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Wager Settings
		MinStakeAmount:       getEnvInt64("MIN_STAKE_AMOUNT", 1),
		MaxStakeAmount:       getEnvInt64("MAX_STAKE_AMOUNT", 1000),
		InviteTTLSeconds:     getEnvInt("INVITE_TTL_SECONDS", 60),
		IdleForfeitSeconds:   getEnvInt("IDLE_FORFEIT_SECONDS", 300),
		SweepIntervalSeconds: getEnvInt("SWEEP_INTERVAL_SECONDS", 5),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 720),
		OperatorPINHash: getEnv("OPERATOR_PIN_HASH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
