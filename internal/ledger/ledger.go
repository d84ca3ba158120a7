package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Outcome identifies how a session resolved. ForfeitA means player A
// forfeited (B is paid), and vice versa.
type Outcome string

const (
	OutcomeWinA     Outcome = "WIN_A"
	OutcomeWinB     Outcome = "WIN_B"
	OutcomeTie      Outcome = "TIE"
	OutcomeForfeitA Outcome = "FORFEIT_A"
	OutcomeForfeitB Outcome = "FORFEIT_B"
)

var (
	// ErrInsufficientFunds is a user error: available balance below the requested hold.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidHoldState signals a caller bug: releasing or settling more than is held.
	ErrInvalidHoldState = errors.New("invalid hold state")
	// ErrSettlementConflict signals a caller bug: a second settlement for the same
	// session with a different outcome.
	ErrSettlementConflict = errors.New("settlement conflict")
	// ErrUnknownAccount is returned for operations on accounts that were never funded.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

type account struct {
	available int64
	held      int64

	gamesPlayed int
	gamesWon    int
	winnings    int64
}

type settlement struct {
	outcome     Outcome
	transferred int64
}

// Ledger owns all balance state. The in-memory book is authoritative; when a
// DB is configured every mutation is mirrored to it so balances and the
// settlement log survive restarts.
type Ledger struct {
	mu          sync.Mutex
	accounts    map[string]*account
	settlements map[string]settlement
	db          *sqlx.DB
}

// New creates a ledger. db may be nil (no persistence).
func New(db *sqlx.DB) *Ledger {
	return &Ledger{
		accounts:    make(map[string]*account),
		settlements: make(map[string]settlement),
		db:          db,
	}
}

// LoadFromDB rehydrates accounts and the settlement log after a restart.
func (l *Ledger) LoadFromDB() error {
	if l.db == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Queryx(`SELECT user_id, available_balance, held_balance, total_games_played, total_games_won, total_winnings FROM accounts`)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var userID string
		a := &account{}
		if err := rows.Scan(&userID, &a.available, &a.held, &a.gamesPlayed, &a.gamesWon, &a.winnings); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		l.accounts[userID] = a
		n++
	}

	srows, err := l.db.Queryx(`SELECT session_id, outcome, amount_transferred FROM settlements`)
	if err != nil {
		return fmt.Errorf("load settlements: %w", err)
	}
	defer srows.Close()
	m := 0
	for srows.Next() {
		var sessionID, outcome string
		var amount int64
		if err := srows.Scan(&sessionID, &outcome, &amount); err != nil {
			return fmt.Errorf("scan settlement: %w", err)
		}
		l.settlements[sessionID] = settlement{outcome: Outcome(outcome), transferred: amount}
		m++
	}

	log.Printf("[LEDGER] Rehydrated %d accounts, %d settlements from DB", n, m)
	return nil
}

// Deposit credits confirmed external funds to a user's available balance.
// This is the funding boundary: the crypto subsystem calls it once a deposit
// is confirmed on-chain.
func (l *Ledger) Deposit(userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.getOrCreate(userID)
	a.available += amount
	l.persistAccount(userID, a)

	log.Printf("[LEDGER] Deposit: user=%s amount=%d available=%d", userID, amount, a.available)
	return nil
}

// Withdraw debits a user's available balance for an external payout. Held
// funds are never touched: a stake in escrow cannot be withdrawn out from
// under an active session.
func (l *Ledger) Withdraw(userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	if !ok {
		return ErrUnknownAccount
	}
	if a.available < amount {
		return ErrInsufficientFunds
	}
	a.available -= amount
	l.persistAccount(userID, a)

	log.Printf("[LEDGER] Withdraw: user=%s amount=%d available=%d", userID, amount, a.available)
	return nil
}

// Balance returns (available, held) for a user. Unknown users report zero.
func (l *Ledger) Balance(userID string) (int64, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return 0, 0
	}
	return a.available, a.held
}

// Stats returns lifetime (gamesPlayed, gamesWon, winnings) for a user.
func (l *Ledger) Stats(userID string) (int, int, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return 0, 0, 0
	}
	return a.gamesPlayed, a.gamesWon, a.winnings
}

// Hold moves amount from available to held, earmarking a stake.
func (l *Ledger) Hold(userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	if !ok || a.available < amount {
		return ErrInsufficientFunds
	}
	a.available -= amount
	a.held += amount
	l.persistAccount(userID, a)

	log.Printf("[LEDGER] Hold: user=%s amount=%d available=%d held=%d", userID, amount, a.available, a.held)
	return nil
}

// Release moves amount from held back to available.
func (l *Ledger) Release(userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[userID]
	if !ok {
		return ErrUnknownAccount
	}
	if a.held < amount {
		log.Printf("[LEDGER] INVARIANT VIOLATION: release of %d exceeds held %d for user %s", amount, a.held, userID)
		return ErrInvalidHoldState
	}
	a.held -= amount
	a.available += amount
	l.persistAccount(userID, a)

	log.Printf("[LEDGER] Release: user=%s amount=%d available=%d held=%d", userID, amount, a.available, a.held)
	return nil
}

// Settle performs a session's entire financial resolution atomically:
// both holds of size stake are consumed, and the pot goes to the winner
// (ties release each stake back to its owner). Idempotent per sessionID —
// a repeat with the same outcome is a no-op reporting the recorded amount;
// a repeat with a different outcome fails with ErrSettlementConflict.
// Returns the amount credited to the winner (0 for ties).
func (l *Ledger) Settle(sessionID string, outcome Outcome, playerA, playerB string, stake int64) (int64, error) {
	if stake <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.settlements[sessionID]; ok {
		if prev.outcome != outcome {
			log.Printf("[LEDGER] INVARIANT VIOLATION: session %s already settled as %s, refusing %s", sessionID, prev.outcome, outcome)
			return 0, ErrSettlementConflict
		}
		log.Printf("[LEDGER] Settle: session %s already settled (%s), no-op", sessionID, outcome)
		return prev.transferred, nil
	}

	accA, okA := l.accounts[playerA]
	accB, okB := l.accounts[playerB]
	if !okA || !okB {
		return 0, ErrUnknownAccount
	}
	if accA.held < stake || accB.held < stake {
		log.Printf("[LEDGER] INVARIANT VIOLATION: settle %s with holds a=%d b=%d below stake %d", sessionID, accA.held, accB.held, stake)
		return 0, ErrInvalidHoldState
	}

	// Consume both holds, then distribute the pot.
	accA.held -= stake
	accB.held -= stake

	var transferred int64
	var winner, payoutTo string
	switch outcome {
	case OutcomeWinA, OutcomeForfeitB:
		accA.available += 2 * stake
		transferred = 2 * stake
		winner, payoutTo = playerA, playerA
	case OutcomeWinB, OutcomeForfeitA:
		accB.available += 2 * stake
		transferred = 2 * stake
		winner, payoutTo = playerB, playerB
	case OutcomeTie:
		accA.available += stake
		accB.available += stake
		transferred = 0
	default:
		// restore holds before refusing
		accA.held += stake
		accB.held += stake
		return 0, fmt.Errorf("unknown outcome %q", outcome)
	}

	accA.gamesPlayed++
	accB.gamesPlayed++
	if winner == playerA {
		accA.gamesWon++
		accA.winnings += transferred
	} else if winner == playerB {
		accB.gamesWon++
		accB.winnings += transferred
	}

	l.settlements[sessionID] = settlement{outcome: outcome, transferred: transferred}
	l.persistSettlement(sessionID, outcome, transferred, payoutTo, playerA, playerB)

	log.Printf("[LEDGER] Settle: session=%s outcome=%s transferred=%d payout_to=%s", sessionID, outcome, transferred, payoutTo)
	return transferred, nil
}

// getOrCreate must be called with l.mu held.
func (l *Ledger) getOrCreate(userID string) *account {
	a, ok := l.accounts[userID]
	if !ok {
		a = &account{}
		l.accounts[userID] = a
	}
	return a
}

// persistAccount mirrors one account row to the DB. Must be called with
// l.mu held. Failures are logged, not returned: the in-memory book stays
// authoritative and the next write retries the row.
func (l *Ledger) persistAccount(userID string, a *account) {
	if l.db == nil {
		return
	}
	_, err := l.db.Exec(`
		INSERT INTO accounts (user_id, available_balance, held_balance, total_games_played, total_games_won, total_winnings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			available_balance = EXCLUDED.available_balance,
			held_balance = EXCLUDED.held_balance,
			total_games_played = EXCLUDED.total_games_played,
			total_games_won = EXCLUDED.total_games_won,
			total_winnings = EXCLUDED.total_winnings,
			updated_at = NOW()
	`, userID, a.available, a.held, a.gamesPlayed, a.gamesWon, a.winnings)
	if err != nil {
		log.Printf("[DB] Failed to persist account %s: %v", userID, err)
	}
}

// persistSettlement writes the settlement record and both updated accounts in
// one transaction. Must be called with l.mu held. The settlements primary key
// doubles as the durable idempotency check across restarts.
func (l *Ledger) persistSettlement(sessionID string, outcome Outcome, transferred int64, payoutTo, playerA, playerB string) {
	if l.db == nil {
		return
	}
	tx, err := l.db.Beginx()
	if err != nil {
		log.Printf("[DB] Failed to begin settlement tx for %s: %v", sessionID, err)
		return
	}
	defer tx.Rollback()

	var pt sql.NullString
	if payoutTo != "" {
		pt = sql.NullString{String: payoutTo, Valid: true}
	}
	if _, err := tx.Exec(`
		INSERT INTO settlements (session_id, outcome, amount_transferred, payout_to, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, string(outcome), transferred, pt, time.Now()); err != nil {
		log.Printf("[DB] Failed to insert settlement %s: %v", sessionID, err)
		return
	}
	for _, userID := range []string{playerA, playerB} {
		a := l.accounts[userID]
		if _, err := tx.Exec(`
			UPDATE accounts SET available_balance=$1, held_balance=$2, total_games_played=$3, total_games_won=$4, total_winnings=$5, updated_at=NOW()
			WHERE user_id=$6
		`, a.available, a.held, a.gamesPlayed, a.gamesWon, a.winnings, userID); err != nil {
			log.Printf("[DB] Failed to update account %s in settlement %s: %v", userID, sessionID, err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("[DB] Failed to commit settlement %s: %v", sessionID, err)
	}
}
