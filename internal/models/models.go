package models

import (
	"database/sql"
	"time"
)

// Account holds a user's wagering balances in minor currency units.
// available + held only ever changes through ledger operations.
type Account struct {
	UserID           string    `db:"user_id" json:"user_id"`
	AvailableBalance int64     `db:"available_balance" json:"available_balance"`
	HeldBalance      int64     `db:"held_balance" json:"held_balance"`
	TotalGamesPlayed int       `db:"total_games_played" json:"total_games_played"`
	TotalGamesWon    int       `db:"total_games_won" json:"total_games_won"`
	TotalWinnings    int64     `db:"total_winnings" json:"total_winnings"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Invitation is a pending challenge between two users
type Invitation struct {
	ID          string       `db:"id" json:"id"`
	Challenger  string       `db:"challenger" json:"challenger"`
	Challenged  string       `db:"challenged" json:"challenged"`
	GameKind    string       `db:"game_kind" json:"game_kind"`
	Stake       int64        `db:"stake" json:"stake"`
	Status      string       `db:"status" json:"status"`
	Reason      string       `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
	ResolvedAt  sql.NullTime `db:"resolved_at" json:"resolved_at,omitempty"`
}

// GameSession is the durable record of a wagered game between two players
type GameSession struct {
	ID             string         `db:"id" json:"id"`
	PlayerA        string         `db:"player_a" json:"player_a"`
	PlayerB        string         `db:"player_b" json:"player_b"`
	GameKind       string         `db:"game_kind" json:"game_kind"`
	Stake          int64          `db:"stake" json:"stake"`
	Status         string         `db:"status" json:"status"`
	TurnOwner      string         `db:"turn_owner" json:"turn_owner"`
	TurnCount      int            `db:"turn_count" json:"turn_count"`
	BoardState     []byte         `db:"board_state" json:"-"`
	WinnerID       sql.NullString `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	CompletedAt    sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
	LastActivityAt time.Time      `db:"last_activity_at" json:"last_activity_at"`
}

// SessionMove is one applied move in the append-only audit log
type SessionMove struct {
	ID         int       `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Actor      string    `db:"actor" json:"actor"`
	MoveNumber int       `db:"move_number" json:"move_number"`
	Command    string    `db:"command" json:"command"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Settlement is the exactly-once financial resolution of a terminal session
type Settlement struct {
	SessionID         string         `db:"session_id" json:"session_id"`
	Outcome           string         `db:"outcome" json:"outcome"`
	AmountTransferred int64          `db:"amount_transferred" json:"amount_transferred"`
	PayoutTo          sql.NullString `db:"payout_to" json:"payout_to,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}
