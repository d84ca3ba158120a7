package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/chainduel/backend/internal/engine"
	"github.com/chainduel/backend/internal/events"
	"github.com/chainduel/backend/internal/ledger"
	"github.com/chainduel/backend/internal/models"
)

// Session statuses. Active is entered exactly once, at creation; the three
// terminal statuses are final.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusTied      = "tied"
	StatusForfeited = "forfeited"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is no longer active")
	ErrUnknownActor     = errors.New("actor is not a participant in this session")
)

// Session pairs the durable record with the live engine instance. All
// mutation goes through its mutex so concurrent moves, and the sweep's
// forfeiture, serialize per session.
type Session struct {
	mu     sync.Mutex
	rec    models.GameSession
	engine engine.Engine
}

// MoveView is what a successful move submission returns to the caller.
type MoveView struct {
	SessionID   string                 `json:"session_id"`
	Status      string                 `json:"status"`
	TurnOwner   string                 `json:"turn_owner"`
	TurnCount   int                    `json:"turn_count"`
	Terminal    bool                   `json:"terminal"`
	Winner      string                 `json:"winner,omitempty"`
	Outcome     string                 `json:"outcome,omitempty"`
	Transferred int64                  `json:"amount_transferred,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Board       map[string]interface{} `json:"board"`
}

// Manager owns every live session. The in-memory registry is authoritative;
// Postgres and Redis mirror it when configured.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ledger *ledger.Ledger
	pub    *events.Publisher
	db     *sqlx.DB
	rdb    *goredis.Client
}

func NewManager(lg *ledger.Ledger, pub *events.Publisher, db *sqlx.DB, rdb *goredis.Client) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ledger:   lg,
		pub:      pub,
		db:       db,
		rdb:      rdb,
	}
}

// CreateFromInvite holds both stakes and registers a new active session.
// The challenger moves first. If the second hold fails the first is released
// before the error surfaces, so a failed creation moves no funds.
func (m *Manager) CreateFromInvite(inv *models.Invitation) (string, error) {
	if err := m.ledger.Hold(inv.Challenged, inv.Stake); err != nil {
		return "", err
	}
	if err := m.ledger.Hold(inv.Challenger, inv.Stake); err != nil {
		if rerr := m.ledger.Release(inv.Challenged, inv.Stake); rerr != nil {
			log.Printf("[SESSION] Failed to release %s's stake after aborted creation: %v", inv.Challenged, rerr)
		}
		return "", err
	}

	eng, err := engine.New(engine.Kind(inv.GameKind), inv.Challenger, inv.Challenged, time.Now().UnixNano())
	if err != nil {
		// both holds must come back before we fail
		for _, p := range []string{inv.Challenger, inv.Challenged} {
			if rerr := m.ledger.Release(p, inv.Stake); rerr != nil {
				log.Printf("[SESSION] Failed to release %s's stake after aborted creation: %v", p, rerr)
			}
		}
		return "", err
	}

	now := time.Now()
	s := &Session{
		rec: models.GameSession{
			ID:             newSessionID(),
			PlayerA:        inv.Challenger,
			PlayerB:        inv.Challenged,
			GameKind:       inv.GameKind,
			Stake:          inv.Stake,
			Status:         StatusActive,
			TurnOwner:      eng.TurnOwner(),
			CreatedAt:      now,
			LastActivityAt: now,
		},
		engine: eng,
	}

	m.mu.Lock()
	m.sessions[s.rec.ID] = s
	m.mu.Unlock()

	log.Printf("[SESSION] Created session %s: %s vs %s (%s, stake %d)",
		s.rec.ID, s.rec.PlayerA, s.rec.PlayerB, s.rec.GameKind, s.rec.Stake)

	s.mu.Lock()
	m.persist(s)
	s.mu.Unlock()

	m.pub.Publish(events.TypeSessionStarted, map[string]interface{}{
		"session_id": s.rec.ID,
		"player_a":   s.rec.PlayerA,
		"player_b":   s.rec.PlayerB,
		"game_kind":  s.rec.GameKind,
		"stake":      s.rec.Stake,
		"turn_owner": s.rec.TurnOwner,
	})
	return s.rec.ID, nil
}

// SubmitMove routes one command to the session's engine. Engine rejections
// (IllegalMove, NotYourTurn) pass through unchanged and leave the session
// untouched; a terminal result settles the wager before the call returns.
func (m *Manager) SubmitMove(sessionID, actor, command string) (*MoveView, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if actor != s.rec.PlayerA && actor != s.rec.PlayerB {
		return nil, ErrUnknownActor
	}
	if s.rec.Status != StatusActive {
		return nil, ErrSessionNotActive
	}

	res, err := s.engine.ApplyMove(actor, command)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.rec.TurnOwner = s.engine.TurnOwner()
	s.rec.TurnCount = s.engine.TurnCount()
	s.rec.LastActivityAt = now
	m.appendMove(s, actor, command)

	view := &MoveView{
		SessionID: s.rec.ID,
		TurnOwner: s.rec.TurnOwner,
		TurnCount: s.rec.TurnCount,
		Message:   res.Message,
	}

	if res.Terminal {
		outcome := outcomeForWinner(s, res.Winner)
		transferred, serr := m.settle(s, outcome, res.Winner)
		if serr != nil {
			return nil, serr
		}
		view.Terminal = true
		view.Winner = res.Winner
		view.Outcome = string(outcome)
		view.Transferred = transferred
	} else {
		m.persist(s)
		m.pub.Publish(events.TypeMoveApplied, map[string]interface{}{
			"session_id": s.rec.ID,
			"actor":      actor,
			"command":    command,
			"turn_owner": s.rec.TurnOwner,
			"turn_count": s.rec.TurnCount,
		})
	}

	view.Status = s.rec.Status
	view.Board = s.engine.Snapshot(actor)
	return view, nil
}

// Forfeit unconditionally terminates an active session against loser,
// paying the opponent the full pot. Forfeiting an already-terminal session
// is a no-op.
func (m *Manager) Forfeit(sessionID, loser string) error {
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status != StatusActive {
		return nil
	}
	if loser != s.rec.PlayerA && loser != s.rec.PlayerB {
		return ErrUnknownActor
	}
	return m.forfeitLocked(s, loser)
}

// ForfeitIdle forfeits a session against its current turn owner, but only
// if it is still idle past the cutoff. Idleness is re-checked under the
// session lock: a move that lands after the sweep's scan wins the race and
// the forfeiture backs off without touching funds.
func (m *Manager) ForfeitIdle(sessionID string, cutoff time.Time) error {
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status != StatusActive {
		return nil
	}
	if !s.rec.LastActivityAt.Before(cutoff) {
		return nil
	}
	return m.forfeitLocked(s, s.rec.TurnOwner)
}

// forfeitLocked settles the pot against loser. Caller holds the session
// lock and has verified the session is active and loser is a participant.
func (m *Manager) forfeitLocked(s *Session, loser string) error {
	outcome := ledger.OutcomeForfeitB
	winner := s.rec.PlayerA
	if loser == s.rec.PlayerA {
		outcome = ledger.OutcomeForfeitA
		winner = s.rec.PlayerB
	}

	log.Printf("[SESSION] Forfeiting session %s: %s idle, %s wins", s.rec.ID, loser, winner)
	_, err := m.settle(s, outcome, winner)
	return err
}

// Snapshot returns the session record plus the viewer's board rendering.
func (m *Manager) Snapshot(sessionID, viewer string) (*models.GameSession, map[string]interface{}, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if viewer != s.rec.PlayerA && viewer != s.rec.PlayerB {
		return nil, nil, ErrUnknownActor
	}
	rec := s.rec
	return &rec, s.engine.Snapshot(viewer), nil
}

// ActiveFor returns the ids of active sessions the user participates in.
func (m *Manager) ActiveFor(user string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []string{}
	for id, s := range m.sessions {
		s.mu.Lock()
		if s.rec.Status == StatusActive && (s.rec.PlayerA == user || s.rec.PlayerB == user) {
			out = append(out, id)
		}
		s.mu.Unlock()
	}
	return out
}

// IdleSince lists active sessions with no move since the cutoff. The list
// is only a scan-time candidate set: ForfeitIdle re-checks idleness and
// reads the turn owner under the session lock before settling anything.
func (m *Manager) IdleSince(cutoff time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idle := []string{}
	for id, s := range m.sessions {
		s.mu.Lock()
		if s.rec.Status == StatusActive && s.rec.LastActivityAt.Before(cutoff) {
			idle = append(idle, id)
		}
		s.mu.Unlock()
	}
	return idle
}

// LoadActiveSessions rehydrates active sessions from the database after a
// restart, rebuilding each engine from its persisted board state.
func (m *Manager) LoadActiveSessions() error {
	if m.db == nil {
		return nil
	}

	var rows []models.GameSession
	err := m.db.Select(&rows, `
		SELECT id, player_a, player_b, game_kind, stake, status, turn_owner,
		       turn_count, board_state, created_at, last_activity_at
		FROM game_sessions WHERE status = $1`, StatusActive)
	if err != nil {
		return fmt.Errorf("load active sessions: %w", err)
	}

	restored := 0
	for i := range rows {
		rec := rows[i]
		eng, err := engine.Restore(engine.Kind(rec.GameKind), rec.BoardState)
		if err != nil {
			log.Printf("[SESSION] Skipping session %s: cannot restore board: %v", rec.ID, err)
			continue
		}
		m.mu.Lock()
		m.sessions[rec.ID] = &Session{rec: rec, engine: eng}
		m.mu.Unlock()
		restored++
	}
	log.Printf("[SESSION] Restored %d active sessions from database", restored)
	return nil
}

func (m *Manager) get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// settle finalizes the session under its lock: status transition, ledger
// settlement, persistence and the terminal event. The ledger's per-session
// idempotency backs the exactly-once guarantee.
func (m *Manager) settle(s *Session, outcome ledger.Outcome, winner string) (int64, error) {
	transferred, err := m.ledger.Settle(s.rec.ID, outcome, s.rec.PlayerA, s.rec.PlayerB, s.rec.Stake)
	if err != nil {
		log.Printf("[SESSION] Settlement failed for session %s (%s): %v", s.rec.ID, outcome, err)
		return 0, err
	}

	now := time.Now()
	switch outcome {
	case ledger.OutcomeTie:
		s.rec.Status = StatusTied
	case ledger.OutcomeForfeitA, ledger.OutcomeForfeitB:
		s.rec.Status = StatusForfeited
	default:
		s.rec.Status = StatusCompleted
	}
	s.rec.CompletedAt = sql.NullTime{Time: now, Valid: true}
	s.rec.LastActivityAt = now
	if winner != "" {
		s.rec.WinnerID = sql.NullString{String: winner, Valid: true}
	}
	m.persist(s)

	eventType := events.TypeSessionSettled
	if s.rec.Status == StatusForfeited {
		eventType = events.TypeSessionForfeit
	}
	m.pub.Publish(eventType, map[string]interface{}{
		"session_id":         s.rec.ID,
		"outcome":            string(outcome),
		"winner":             winner,
		"amount_transferred": transferred,
		"status":             s.rec.Status,
	})
	log.Printf("[SESSION] Session %s settled: outcome=%s transferred=%d", s.rec.ID, outcome, transferred)
	return transferred, nil
}

// persist mirrors the session row and board snapshot. Caller holds the
// session lock. Storage failures are logged, never surfaced: memory is
// authoritative.
func (m *Manager) persist(s *Session) {
	board, err := s.engine.MarshalState()
	if err != nil {
		log.Printf("[SESSION] Failed to marshal board for session %s: %v", s.rec.ID, err)
		return
	}
	s.rec.BoardState = board

	if m.db != nil {
		_, err := m.db.Exec(`
			INSERT INTO game_sessions (id, player_a, player_b, game_kind, stake, status, turn_owner, turn_count, board_state, winner_id, created_at, completed_at, last_activity_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, turn_owner = EXCLUDED.turn_owner,
				turn_count = EXCLUDED.turn_count, board_state = EXCLUDED.board_state,
				winner_id = EXCLUDED.winner_id, completed_at = EXCLUDED.completed_at,
				last_activity_at = EXCLUDED.last_activity_at`,
			s.rec.ID, s.rec.PlayerA, s.rec.PlayerB, s.rec.GameKind, s.rec.Stake, s.rec.Status,
			s.rec.TurnOwner, s.rec.TurnCount, s.rec.BoardState, s.rec.WinnerID,
			s.rec.CreatedAt, s.rec.CompletedAt, s.rec.LastActivityAt)
		if err != nil {
			log.Printf("[DB] Failed to persist session %s: %v", s.rec.ID, err)
		}
	}

	if m.rdb != nil {
		key := "session:" + s.rec.ID
		if err := m.rdb.Set(context.Background(), key, board, 24*time.Hour).Err(); err != nil {
			log.Printf("[REDIS] Failed to snapshot session %s: %v", s.rec.ID, err)
		}
	}
}

// appendMove writes one row of the append-only move log. Caller holds the
// session lock.
func (m *Manager) appendMove(s *Session, actor, command string) {
	if m.db == nil {
		return
	}
	_, err := m.db.Exec(`
		INSERT INTO session_moves (session_id, actor, move_number, command, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.rec.ID, actor, s.rec.TurnCount, command, time.Now())
	if err != nil {
		log.Printf("[DB] Failed to log move for session %s: %v", s.rec.ID, err)
	}
}

func outcomeForWinner(s *Session, winner string) ledger.Outcome {
	switch winner {
	case s.rec.PlayerA:
		return ledger.OutcomeWinA
	case s.rec.PlayerB:
		return ledger.OutcomeWinB
	}
	return ledger.OutcomeTie
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("sess_%d", time.Now().UnixNano())
	}
	return "sess_" + hex.EncodeToString(b)
}
