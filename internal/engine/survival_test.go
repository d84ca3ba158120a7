package engine

import (
	"errors"
	"testing"
)

func newTestSurvival(t *testing.T) *Survival {
	t.Helper()
	return NewSurvival("alice", "bob", 7)
}

func TestSurvivalReverseDirectionRejected(t *testing.T) {
	sv := newTestSurvival(t)

	// both snakes start heading right
	if _, err := sv.ApplyMove("alice", "left"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected reverse direction to be rejected, got %v", err)
	}
	if sv.TurnOwner() != "alice" || sv.TurnCount() != 0 {
		t.Errorf("rejected move advanced the turn: owner %s count %d", sv.TurnOwner(), sv.TurnCount())
	}
}

func TestSurvivalDirectionChangeConsumesTurn(t *testing.T) {
	sv := newTestSurvival(t)

	res, err := sv.ApplyMove("alice", "up")
	if err != nil {
		t.Fatalf("direction change failed: %v", err)
	}
	if res.Terminal {
		t.Fatal("direction change should not end the game")
	}
	if sv.TurnOwner() != "bob" || sv.TurnCount() != 1 {
		t.Errorf("expected turn bob count 1, got %s count %d", sv.TurnOwner(), sv.TurnCount())
	}
}

func TestSurvivalTickAdvancesBothSnakes(t *testing.T) {
	sv := newTestSurvival(t)

	if _, err := sv.ApplyMove("alice", "tick"); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	snap := sv.Snapshot("alice")
	if snap["my_alive"] != true || snap["opponent_alive"] != true {
		t.Error("both snakes should survive the opening tick")
	}
	if sv.TurnOwner() != "bob" {
		t.Errorf("tick should pass the turn, owner is %s", sv.TurnOwner())
	}
}

func TestSurvivalWallCollisionEliminates(t *testing.T) {
	sv := newTestSurvival(t)

	// alice turns toward the top wall; bob keeps heading right and has the
	// longer run, so alice is eliminated first.
	if _, err := sv.ApplyMove("alice", "up"); err != nil {
		t.Fatalf("direction change failed: %v", err)
	}

	var final Result
	for i := 0; i < 40; i++ {
		res, err := sv.ApplyMove(sv.TurnOwner(), "tick")
		if err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
		if res.Terminal {
			final = res
			break
		}
	}
	if !final.Terminal {
		t.Fatal("game never terminated")
	}
	if final.Winner != "bob" {
		t.Errorf("expected bob to win by elimination, got %q", final.Winner)
	}

	if _, err := sv.ApplyMove("bob", "tick"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected moves after completion to be rejected, got %v", err)
	}
}

func TestSurvivalTurnCapEqualScoresIsDraw(t *testing.T) {
	sv := newTestSurvival(t)

	// direction changes consume turns without moving either snake, so the
	// cap is reached with both scores at zero
	next := map[string]string{"alice": "up", "bob": "up"}
	var final Result
	for i := 0; i < SurvivalMaxTurns; i++ {
		owner := sv.TurnOwner()
		res, err := sv.ApplyMove(owner, next[owner])
		if err != nil {
			t.Fatalf("move %d failed: %v", i, err)
		}
		if next[owner] == "up" {
			next[owner] = "right"
		} else {
			next[owner] = "up"
		}
		if res.Terminal {
			final = res
			break
		}
	}

	if !final.Terminal {
		t.Fatal("game did not end at the turn cap")
	}
	if sv.TurnCount() != SurvivalMaxTurns {
		t.Errorf("expected termination at turn %d, got %d", SurvivalMaxTurns, sv.TurnCount())
	}
	if final.Winner != "" {
		t.Errorf("equal scores at the cap should draw, got winner %q", final.Winner)
	}
	a, b := sv.Scores()
	if a != 0 || b != 0 {
		t.Errorf("expected 0-0, got %d-%d", a, b)
	}
}

func TestSurvivalRestoreRoundTrip(t *testing.T) {
	sv := newTestSurvival(t)
	for _, mv := range []struct{ actor, cmd string }{
		{"alice", "up"}, {"bob", "tick"}, {"alice", "tick"},
	} {
		if _, err := sv.ApplyMove(mv.actor, mv.cmd); err != nil {
			t.Fatalf("setup move %s %s: %v", mv.actor, mv.cmd, err)
		}
	}

	data, err := sv.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := RestoreSurvival(data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.TurnOwner() != sv.TurnOwner() || restored.TurnCount() != sv.TurnCount() {
		t.Fatalf("restored turn state mismatch: %s/%d vs %s/%d",
			restored.TurnOwner(), restored.TurnCount(), sv.TurnOwner(), sv.TurnCount())
	}
	if restored.Render() != sv.Render() {
		t.Error("restored boards render differently")
	}
}
