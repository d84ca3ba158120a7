package main

import (
	"log"
	"os"

	"github.com/chainduel/backend/internal/auth"
)

// Generates the bcrypt hash for OPERATOR_PIN_HASH from a plaintext PIN.
func main() {
	pin := os.Getenv("OPERATOR_PIN")
	if len(os.Args) > 1 {
		pin = os.Args[1]
	}
	if pin == "" {
		log.Fatal("Usage: hash-pin <pin> (or set OPERATOR_PIN)")
	}

	hash, err := auth.HashOperatorPIN(pin)
	if err != nil {
		log.Fatalf("Failed to hash PIN: %v", err)
	}

	log.Println("✓ PIN hashed successfully")
	log.Printf("  OPERATOR_PIN_HASH=%s", hash)
}
