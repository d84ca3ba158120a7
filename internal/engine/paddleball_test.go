package engine

import (
	"errors"
	"testing"
)

func newTestPaddleBall(t *testing.T) *PaddleBall {
	t.Helper()
	return NewPaddleBall("alice", "bob", 99)
}

func TestPaddleBallPaddleStopsAtFieldEdge(t *testing.T) {
	pb := newTestPaddleBall(t)

	// both paddles start at row 4 and can climb four rows before the edge
	for i := 0; i < 4; i++ {
		if _, err := pb.ApplyMove("alice", "up"); err != nil {
			t.Fatalf("alice up %d: %v", i, err)
		}
		if _, err := pb.ApplyMove("bob", "up"); err != nil {
			t.Fatalf("bob up %d: %v", i, err)
		}
	}

	if _, err := pb.ApplyMove("alice", "up"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove at the field edge, got %v", err)
	}
	if pb.TurnOwner() != "alice" || pb.TurnCount() != 8 {
		t.Errorf("rejected move advanced the turn: owner %s count %d", pb.TurnOwner(), pb.TurnCount())
	}

	if _, err := pb.ApplyMove("alice", "down"); err != nil {
		t.Errorf("down should be legal at the top edge: %v", err)
	}
}

func TestPaddleBallTurnOrderEnforced(t *testing.T) {
	pb := newTestPaddleBall(t)

	if _, err := pb.ApplyMove("bob", "tick"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := pb.ApplyMove("mallory", "tick"); !errors.Is(err, ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
}

func TestPaddleBallRallyTerminates(t *testing.T) {
	pb := newTestPaddleBall(t)

	var final Result
	for i := 0; i < PaddleBallMaxTurns+1; i++ {
		res, err := pb.ApplyMove(pb.TurnOwner(), "tick")
		if err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
		if res.Terminal {
			final = res
			break
		}
	}
	if !final.Terminal {
		t.Fatal("rally never terminated")
	}
	if pb.TurnCount() > PaddleBallMaxTurns {
		t.Errorf("turn count %d exceeds the cap", pb.TurnCount())
	}

	a, b := pb.Scores()
	switch {
	case a >= paddleWinScore:
		if final.Winner != "alice" {
			t.Errorf("alice reached %d points but winner is %q", a, final.Winner)
		}
	case b >= paddleWinScore:
		if final.Winner != "bob" {
			t.Errorf("bob reached %d points but winner is %q", b, final.Winner)
		}
	default:
		if pb.TurnCount() != PaddleBallMaxTurns {
			t.Fatalf("game ended early at turn %d with score %d-%d", pb.TurnCount(), a, b)
		}
		want := ""
		if a > b {
			want = "alice"
		} else if b > a {
			want = "bob"
		}
		if final.Winner != want {
			t.Errorf("cap resolution: score %d-%d, want winner %q, got %q", a, b, want, final.Winner)
		}
	}

	if _, err := pb.ApplyMove("alice", "tick"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected moves after completion to be rejected, got %v", err)
	}
}

func TestPaddleBallSnapshotPerspective(t *testing.T) {
	pb := newTestPaddleBall(t)
	pb.s.ScoreA, pb.s.ScoreB = 3, 5

	snap := pb.Snapshot("bob")
	if snap["my_score"] != 5 || snap["opponent_score"] != 3 {
		t.Errorf("bob's snapshot has wrong perspective: %v / %v",
			snap["my_score"], snap["opponent_score"])
	}
}

func TestPaddleBallRestoreRoundTrip(t *testing.T) {
	pb := newTestPaddleBall(t)
	for i := 0; i < 5; i++ {
		if _, err := pb.ApplyMove(pb.TurnOwner(), "tick"); err != nil {
			t.Fatalf("setup tick %d: %v", i, err)
		}
	}

	data, err := pb.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := RestorePaddleBall(data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.TurnOwner() != pb.TurnOwner() || restored.TurnCount() != pb.TurnCount() {
		t.Fatalf("restored turn state mismatch: %s/%d vs %s/%d",
			restored.TurnOwner(), restored.TurnCount(), pb.TurnOwner(), pb.TurnCount())
	}
	if restored.Render() != pb.Render() {
		t.Error("restored field renders differently")
	}

	// the next serve, if any, draws from the PRNG on both instances
	owner := pb.TurnOwner()
	if _, err := pb.ApplyMove(owner, "tick"); err != nil {
		t.Fatalf("original tick: %v", err)
	}
	if _, err := restored.ApplyMove(owner, "tick"); err != nil {
		t.Fatalf("restored tick: %v", err)
	}
	if restored.Render() != pb.Render() {
		t.Error("restored instance diverged after one tick")
	}
}
