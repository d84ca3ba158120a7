package auth

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndVerifyToken(t *testing.T) {
	token, err := MintToken("test-secret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	userID, err := VerifyToken("test-secret", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "alice" {
		t.Errorf("expected alice, got %s", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _ := MintToken("test-secret", "alice", time.Hour)
	if _, err := VerifyToken("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, _ := MintToken("test-secret", "alice", -time.Minute)
	if _, err := VerifyToken("test-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken("test-secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestOperatorPINRoundTrip(t *testing.T) {
	hash, err := HashOperatorPIN("4242")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckOperatorPIN(hash, "4242") {
		t.Error("correct PIN rejected")
	}
	if CheckOperatorPIN(hash, "0000") {
		t.Error("wrong PIN accepted")
	}
	if CheckOperatorPIN("", "4242") || CheckOperatorPIN(hash, "") {
		t.Error("empty hash or PIN accepted")
	}
}
