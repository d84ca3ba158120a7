package engine

import (
	"errors"
	"testing"
)

func newTestPuzzle(t *testing.T) *Puzzle {
	t.Helper()
	return NewPuzzle("alice", "bob", 42)
}

func TestPuzzleTurnAlternation(t *testing.T) {
	p := newTestPuzzle(t)

	if p.TurnOwner() != "alice" {
		t.Fatalf("expected alice to open, got %s", p.TurnOwner())
	}
	if _, err := p.ApplyMove("bob", "down"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn for out-of-turn move, got %v", err)
	}

	if _, err := p.ApplyMove("alice", "down"); err != nil {
		t.Fatalf("alice's move failed: %v", err)
	}
	if p.TurnOwner() != "bob" || p.TurnCount() != 1 {
		t.Errorf("expected turn bob count 1, got %s count %d", p.TurnOwner(), p.TurnCount())
	}

	if _, err := p.ApplyMove("bob", "down"); err != nil {
		t.Fatalf("bob's move failed: %v", err)
	}
	if p.TurnOwner() != "alice" || p.TurnCount() != 2 {
		t.Errorf("expected turn alice count 2, got %s count %d", p.TurnOwner(), p.TurnCount())
	}
}

func TestPuzzleUnknownActor(t *testing.T) {
	p := newTestPuzzle(t)
	if _, err := p.ApplyMove("mallory", "down"); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
}

func TestPuzzleRejectedMoveLeavesStateUntouched(t *testing.T) {
	p := newTestPuzzle(t)
	before, err := p.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if _, err := p.ApplyMove("alice", "teleport"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove for unknown command, got %v", err)
	}

	after, err := p.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Error("rejected move mutated the board state")
	}
	if p.TurnOwner() != "alice" || p.TurnCount() != 0 {
		t.Errorf("rejected move advanced the turn: owner %s count %d", p.TurnOwner(), p.TurnCount())
	}
}

func TestPuzzleRotateAtSpawnIsLegal(t *testing.T) {
	p := newTestPuzzle(t)
	if _, err := p.ApplyMove("alice", "rotate"); err != nil {
		t.Fatalf("rotate on an empty board should be legal: %v", err)
	}
	if p.TurnOwner() != "bob" {
		t.Errorf("rotate should pass the turn, owner is %s", p.TurnOwner())
	}
}

func TestPuzzleWallStopsLateralMovement(t *testing.T) {
	p := newTestPuzzle(t)

	rejected := false
	for i := 0; i < 30; i++ {
		owner := p.TurnOwner()
		_, err := p.ApplyMove(owner, "left")
		if errors.Is(err, ErrIllegalMove) {
			rejected = true
			if p.TurnOwner() != owner {
				t.Errorf("rejected move passed the turn to %s", p.TurnOwner())
			}
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !rejected {
		t.Fatal("piece never reached the left wall")
	}
}

func TestPuzzlePlaysToCompletion(t *testing.T) {
	p := newTestPuzzle(t)

	var final Result
	for i := 0; i < PuzzleMaxTurns+1; i++ {
		res, err := p.ApplyMove(p.TurnOwner(), "drop")
		if err != nil {
			t.Fatalf("drop %d failed: %v", i, err)
		}
		if res.Terminal {
			final = res
			break
		}
	}
	if !final.Terminal {
		t.Fatal("game never terminated")
	}
	if p.TurnCount() > PuzzleMaxTurns {
		t.Errorf("turn count %d exceeds the cap", p.TurnCount())
	}
	switch final.Winner {
	case "alice", "bob", "":
	default:
		t.Errorf("unexpected winner %q", final.Winner)
	}

	if _, err := p.ApplyMove("alice", "down"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected moves after completion to be rejected, got %v", err)
	}
	if _, err := p.ApplyMove("bob", "down"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected moves after completion to be rejected, got %v", err)
	}
}

func TestPuzzleRestoreReplaysPieceStream(t *testing.T) {
	p := newTestPuzzle(t)
	for i := 0; i < 6; i++ {
		if _, err := p.ApplyMove(p.TurnOwner(), "drop"); err != nil {
			t.Fatalf("setup move %d: %v", i, err)
		}
	}

	data, err := p.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := RestorePuzzle(data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.TurnOwner() != p.TurnOwner() || restored.TurnCount() != p.TurnCount() {
		t.Fatalf("restored turn state mismatch: %s/%d vs %s/%d",
			restored.TurnOwner(), restored.TurnCount(), p.TurnOwner(), p.TurnCount())
	}
	if restored.Render() != p.Render() {
		t.Error("restored board renders differently")
	}

	// the next spawn draws from the PRNG on both instances
	owner := p.TurnOwner()
	if _, err := p.ApplyMove(owner, "drop"); err != nil {
		t.Fatalf("original move: %v", err)
	}
	if _, err := restored.ApplyMove(owner, "drop"); err != nil {
		t.Fatalf("restored move: %v", err)
	}
	if restored.Render() != p.Render() {
		t.Error("restored instance diverged after one move")
	}
}

func TestPuzzleSnapshotPerspective(t *testing.T) {
	p := newTestPuzzle(t)

	snap := p.Snapshot("alice")
	if snap["my_turn"] != true {
		t.Error("alice should see my_turn=true at game start")
	}
	snap = p.Snapshot("bob")
	if snap["my_turn"] != false {
		t.Error("bob should see my_turn=false at game start")
	}
}
