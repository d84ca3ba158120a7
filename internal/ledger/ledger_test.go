package ledger

import (
	"testing"
)

func fundedLedger(t *testing.T, users map[string]int64) *Ledger {
	t.Helper()
	l := New(nil)
	for u, amt := range users {
		if err := l.Deposit(u, amt); err != nil {
			t.Fatalf("deposit %s: %v", u, err)
		}
	}
	return l
}

func total(l *Ledger, users ...string) int64 {
	var sum int64
	for _, u := range users {
		av, held := l.Balance(u)
		sum += av + held
	}
	return sum
}

func TestHoldMovesAvailableToHeld(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"alice": 100})

	if err := l.Hold("alice", 30); err != nil {
		t.Fatalf("hold: %v", err)
	}
	av, held := l.Balance("alice")
	if av != 70 || held != 30 {
		t.Errorf("got available=%d held=%d, want 70/30", av, held)
	}
}

func TestHoldInsufficientFunds(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"alice": 20})

	if err := l.Hold("alice", 25); err != ErrInsufficientFunds {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
	if err := l.Hold("nobody", 1); err != ErrInsufficientFunds {
		t.Errorf("unknown user: got %v, want ErrInsufficientFunds", err)
	}
	// Balance untouched on failure
	av, held := l.Balance("alice")
	if av != 20 || held != 0 {
		t.Errorf("balance mutated on failed hold: available=%d held=%d", av, held)
	}
}

func TestWithdrawDebitsAvailableOnly(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"alice": 100})
	if err := l.Hold("alice", 40); err != nil {
		t.Fatalf("hold: %v", err)
	}

	// 60 available; withdrawing more must not dip into the held stake.
	if err := l.Withdraw("alice", 61); err != ErrInsufficientFunds {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
	if err := l.Withdraw("alice", 60); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	av, held := l.Balance("alice")
	if av != 0 || held != 40 {
		t.Errorf("got available=%d held=%d, want 0/40", av, held)
	}
	if err := l.Withdraw("nobody", 1); err != ErrUnknownAccount {
		t.Errorf("unknown user: got %v, want ErrUnknownAccount", err)
	}
}

func TestReleaseBeyondHeldIsInvariantViolation(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"alice": 100})
	if err := l.Hold("alice", 10); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := l.Release("alice", 11); err != ErrInvalidHoldState {
		t.Errorf("got %v, want ErrInvalidHoldState", err)
	}
	if err := l.Release("alice", 10); err != nil {
		t.Errorf("legal release failed: %v", err)
	}
}

func TestSettleWinTransfersPot(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 100, "b": 100})
	before := total(l, "a", "b")

	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 25); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}

	transferred, err := l.Settle("s1", OutcomeWinB, "a", "b", 25)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if transferred != 50 {
		t.Errorf("transferred=%d, want 50", transferred)
	}
	avA, heldA := l.Balance("a")
	avB, heldB := l.Balance("b")
	if avA != 75 || heldA != 0 {
		t.Errorf("loser balance: available=%d held=%d, want 75/0", avA, heldA)
	}
	if avB != 150 || heldB != 0 {
		t.Errorf("winner balance: available=%d held=%d, want 150/0", avB, heldB)
	}
	if after := total(l, "a", "b"); after != before {
		t.Errorf("balance conservation broken: before=%d after=%d", before, after)
	}
}

func TestSettleTieRefundsBoth(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 50, "b": 50})
	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 10); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}

	transferred, err := l.Settle("s1", OutcomeTie, "a", "b", 10)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if transferred != 0 {
		t.Errorf("transferred=%d on tie, want 0", transferred)
	}
	for _, u := range []string{"a", "b"} {
		av, held := l.Balance(u)
		if av != 50 || held != 0 {
			t.Errorf("%s: available=%d held=%d, want 50/0", u, av, held)
		}
	}
}

func TestSettleIdempotent(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 100, "b": 100})
	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 25); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}

	first, err := l.Settle("s1", OutcomeWinA, "a", "b", 25)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	avA1, _ := l.Balance("a")

	second, err := l.Settle("s1", OutcomeWinA, "a", "b", 25)
	if err != nil {
		t.Fatalf("duplicate settle: %v", err)
	}
	if second != first {
		t.Errorf("duplicate settle reported %d, want %d", second, first)
	}
	avA2, _ := l.Balance("a")
	if avA1 != avA2 {
		t.Errorf("duplicate settle moved funds: %d -> %d", avA1, avA2)
	}
}

func TestSettleConflictingOutcome(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 100, "b": 100})
	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 25); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}

	if _, err := l.Settle("s1", OutcomeWinA, "a", "b", 25); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := l.Settle("s1", OutcomeWinB, "a", "b", 25); err != ErrSettlementConflict {
		t.Errorf("got %v, want ErrSettlementConflict", err)
	}
}

func TestSettleWithoutHoldsIsInvariantViolation(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 100, "b": 100})
	if _, err := l.Settle("s1", OutcomeWinA, "a", "b", 25); err != ErrInvalidHoldState {
		t.Errorf("got %v, want ErrInvalidHoldState", err)
	}
}

func TestForfeitOutcomesPayTheNonIdlePlayer(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 40, "b": 40})
	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 20); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}

	// Player B idled out; A collects the doubled stake.
	transferred, err := l.Settle("s1", OutcomeForfeitB, "a", "b", 20)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if transferred != 40 {
		t.Errorf("transferred=%d, want 40", transferred)
	}
	avA, _ := l.Balance("a")
	avB, _ := l.Balance("b")
	if avA != 60 || avB != 20 {
		t.Errorf("balances a=%d b=%d, want 60/20", avA, avB)
	}
}

func TestStatsUpdatedAtSettlement(t *testing.T) {
	l := fundedLedger(t, map[string]int64{"a": 100, "b": 100})
	for _, u := range []string{"a", "b"} {
		if err := l.Hold(u, 10); err != nil {
			t.Fatalf("hold %s: %v", u, err)
		}
	}
	if _, err := l.Settle("s1", OutcomeWinA, "a", "b", 10); err != nil {
		t.Fatalf("settle: %v", err)
	}

	played, won, winnings := l.Stats("a")
	if played != 1 || won != 1 || winnings != 20 {
		t.Errorf("winner stats: played=%d won=%d winnings=%d", played, won, winnings)
	}
	played, won, _ = l.Stats("b")
	if played != 1 || won != 0 {
		t.Errorf("loser stats: played=%d won=%d", played, won)
	}
}
