package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

// Kind identifies one of the supported game variants.
type Kind string

const (
	KindPuzzle     Kind = "puzzle"
	KindSurvival   Kind = "survival"
	KindPaddleBall Kind = "paddleball"
)

// Per-variant turn ceilings. Reaching the ceiling without a score-based
// winner is a tie.
const (
	PuzzleMaxTurns     = 1000
	SurvivalMaxTurns   = 200
	PaddleBallMaxTurns = 500
)

var (
	// ErrIllegalMove is a user error: the command is not valid for the current
	// board state. The board is unchanged and the turn is not consumed.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNotYourTurn is a user error: the actor is not the current turn owner.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrUnknownActor is returned when the actor is neither player.
	ErrUnknownActor = errors.New("unknown actor")
)

// Result is the outcome of one applied move.
type Result struct {
	Terminal bool
	Winner   string // player ID; empty on a tie
	Message  string
}

// Engine is the common contract over the three game variants. Implementations
// are not safe for concurrent use; the session holding the engine serializes
// access.
type Engine interface {
	Kind() Kind
	// TurnOwner is the player authorized to submit the next move.
	TurnOwner() string
	TurnCount() int
	// ApplyMove validates and applies one command for actor. On Continue the
	// turn flips to the other player. On error the state is untouched.
	ApplyMove(actor, command string) (Result, error)
	// Scores returns (playerA, playerB) scores.
	Scores() (int, int)
	// Snapshot returns the state visible to a viewer, for the transport layer.
	Snapshot(viewer string) map[string]interface{}
	// Render returns a text drawing of the board for message transports.
	Render() string
	// MarshalState serializes the full board state for persistence.
	MarshalState() ([]byte, error)
}

// ValidKind reports whether s names a supported variant.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindPuzzle, KindSurvival, KindPaddleBall:
		return true
	}
	return false
}

// New creates an engine for the given kind. playerA is the challenger and
// moves first. seed drives all in-game randomness so a session can be
// replayed from its move log.
func New(kind Kind, playerA, playerB string, seed int64) (Engine, error) {
	switch kind {
	case KindPuzzle:
		return NewPuzzle(playerA, playerB, seed), nil
	case KindSurvival:
		return NewSurvival(playerA, playerB, seed), nil
	case KindPaddleBall:
		return NewPaddleBall(playerA, playerB, seed), nil
	default:
		return nil, fmt.Errorf("unknown game kind: %s", kind)
	}
}

// Restore rebuilds an engine from a MarshalState snapshot.
func Restore(kind Kind, data []byte) (Engine, error) {
	switch kind {
	case KindPuzzle:
		return RestorePuzzle(data)
	case KindSurvival:
		return RestoreSurvival(data)
	case KindPaddleBall:
		return RestorePaddleBall(data)
	default:
		return nil, fmt.Errorf("unknown game kind: %s", kind)
	}
}

// dice is a counted PRNG: the seed plus the draw count fully determine the
// stream, so snapshots only need to persist those two numbers.
type dice struct {
	seed  int64
	draws int64
	rng   *rand.Rand
}

func newDice(seed int64) *dice {
	return &dice{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func restoreDice(seed, draws int64) *dice {
	d := newDice(seed)
	for i := int64(0); i < draws; i++ {
		d.rng.Int63()
	}
	d.draws = draws
	return d
}

func (d *dice) intn(n int) int {
	d.draws++
	// single underlying draw per call keeps restore cheap
	return int(d.rng.Int63() % int64(n))
}

func (d *dice) pick(vals ...int) int {
	return vals[d.intn(len(vals))]
}
