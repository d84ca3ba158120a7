package invite

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chainduel/backend/internal/engine"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/models"
)

// Invitation statuses. Terminal statuses never change again.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// ReasonInsufficientFunds marks an invitation auto-declined because a stake
// hold failed during acceptance.
const ReasonInsufficientFunds = "insufficient_funds"

var (
	ErrInvalidStake     = errors.New("stake is outside the allowed bounds")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrDuplicatePending = errors.New("a pending invitation to this opponent already exists")
	ErrUnknownGameKind  = errors.New("unknown game kind")
	ErrNotFound         = errors.New("invitation not found")
	ErrNotRecipient     = errors.New("only the challenged player may resolve this invitation")
	ErrAlreadyResolved  = errors.New("invitation is no longer pending")
	ErrExpired          = errors.New("invitation has expired")
)

// SessionStarter creates the wagered session for an accepted invitation.
// It is responsible for holding both stakes; a ledger.ErrInsufficientFunds
// return means no session was created and no funds moved.
type SessionStarter func(inv *models.Invitation) (sessionID string, err error)

// Broker tracks pending challenges between pairs of users. State lives in
// memory; the database, when configured, mirrors it for audit and restart.
type Broker struct {
	mu      sync.Mutex
	invites map[string]*models.Invitation

	minStake int64
	maxStake int64
	ttl      time.Duration

	db *sqlx.DB
}

func New(db *sqlx.DB, minStake, maxStake int64, ttl time.Duration) *Broker {
	return &Broker{
		invites:  make(map[string]*models.Invitation),
		minStake: minStake,
		maxStake: maxStake,
		ttl:      ttl,
		db:       db,
	}
}

// Create registers a pending challenge from challenger to challenged.
// No funds are held yet; holds happen at acceptance.
func (b *Broker) Create(challenger, challenged, kind string, stake int64) (*models.Invitation, error) {
	if challenger == challenged {
		return nil, ErrSelfChallenge
	}
	if !engine.ValidKind(kind) {
		return nil, ErrUnknownGameKind
	}
	if stake < b.minStake || stake > b.maxStake {
		return nil, ErrInvalidStake
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for _, inv := range b.invites {
		if inv.Status == StatusPending && inv.Challenger == challenger &&
			inv.Challenged == challenged && now.Before(inv.ExpiresAt) {
			return nil, ErrDuplicatePending
		}
	}

	inv := &models.Invitation{
		ID:         newInviteID(),
		Challenger: challenger,
		Challenged: challenged,
		GameKind:   kind,
		Stake:      stake,
		Status:     StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(b.ttl),
	}
	b.invites[inv.ID] = inv
	log.Printf("[INVITE] Created invitation %s: %s -> %s (%s, stake %d)",
		inv.ID, challenger, challenged, kind, stake)

	b.persist(inv)
	return copyInvite(inv), nil
}

// Accept resolves a pending invitation and starts the session through the
// supplied starter. A failed stake hold declines the invitation instead of
// surfacing an invariant error: the challenged player simply cannot cover
// the wager.
func (b *Broker) Accept(id, actor string, start SessionStarter) (*models.Invitation, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inv, ok := b.invites[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	if actor != inv.Challenged {
		return nil, "", ErrNotRecipient
	}
	if inv.Status != StatusPending {
		return nil, "", ErrAlreadyResolved
	}
	if time.Now().After(inv.ExpiresAt) {
		b.resolve(inv, StatusExpired, "")
		return nil, "", ErrExpired
	}

	sessionID, err := start(inv)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			b.resolve(inv, StatusDeclined, ReasonInsufficientFunds)
			log.Printf("[INVITE] Invitation %s declined: stake hold failed", inv.ID)
			return nil, "", err
		}
		return nil, "", fmt.Errorf("start session for invitation %s: %w", inv.ID, err)
	}

	b.resolve(inv, StatusAccepted, "")
	log.Printf("[INVITE] Invitation %s accepted by %s, session %s", inv.ID, actor, sessionID)
	return copyInvite(inv), sessionID, nil
}

// Decline resolves a pending invitation without starting a session.
func (b *Broker) Decline(id, actor string) (*models.Invitation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inv, ok := b.invites[id]
	if !ok {
		return nil, ErrNotFound
	}
	if actor != inv.Challenged {
		return nil, ErrNotRecipient
	}
	if inv.Status != StatusPending {
		return nil, ErrAlreadyResolved
	}

	b.resolve(inv, StatusDeclined, "")
	log.Printf("[INVITE] Invitation %s declined by %s", inv.ID, actor)
	return copyInvite(inv), nil
}

// Get returns a copy of one invitation.
func (b *Broker) Get(id string) (*models.Invitation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inv, ok := b.invites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyInvite(inv), nil
}

// PendingFor lists unexpired pending invitations addressed to a user.
func (b *Broker) PendingFor(user string) []*models.Invitation {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	out := []*models.Invitation{}
	for _, inv := range b.invites {
		if inv.Status == StatusPending && inv.Challenged == user && now.Before(inv.ExpiresAt) {
			out = append(out, copyInvite(inv))
		}
	}
	return out
}

// ExpireStale flips every pending invitation past its deadline to Expired
// and returns the expired copies. Called by the scheduler sweep.
func (b *Broker) ExpireStale() []*models.Invitation {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	expired := []*models.Invitation{}
	for _, inv := range b.invites {
		if inv.Status == StatusPending && now.After(inv.ExpiresAt) {
			b.resolve(inv, StatusExpired, "")
			log.Printf("[INVITE] Invitation %s expired (%s -> %s)", inv.ID, inv.Challenger, inv.Challenged)
			expired = append(expired, copyInvite(inv))
		}
	}
	return expired
}

// resolve sets a terminal status. Caller holds the lock.
func (b *Broker) resolve(inv *models.Invitation, status, reason string) {
	inv.Status = status
	inv.Reason = reason
	inv.ResolvedAt = sql.NullTime{Time: time.Now(), Valid: true}
	b.persist(inv)
}

func (b *Broker) persist(inv *models.Invitation) {
	if b.db == nil {
		return
	}
	_, err := b.db.Exec(`
		INSERT INTO invitations (id, challenger, challenged, game_kind, stake, status, reason, created_at, expires_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason, resolved_at = EXCLUDED.resolved_at`,
		inv.ID, inv.Challenger, inv.Challenged, inv.GameKind, inv.Stake,
		inv.Status, inv.Reason, inv.CreatedAt, inv.ExpiresAt, inv.ResolvedAt)
	if err != nil {
		log.Printf("[DB] Failed to persist invitation %s: %v", inv.ID, err)
	}
}

func copyInvite(inv *models.Invitation) *models.Invitation {
	c := *inv
	return &c
}

func newInviteID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("inv_%d", time.Now().UnixNano())
	}
	return "inv_" + hex.EncodeToString(b)
}
