package position

import "testing"

func TestStartingPositionPipCounts(t *testing.T) {
	p := StartingPosition()

	if err := p.Validate(); err != nil {
		t.Fatalf("starting position invalid: %v", err)
	}

	if got := p.PipCount(Top); got != 167 {
		t.Errorf("TOP pip count = %d, want 167", got)
	}
	if got := p.PipCount(Bottom); got != 167 {
		t.Errorf("BOTTOM pip count = %d, want 167", got)
	}
}

func TestValidateInvariantC(t *testing.T) {
	p := StartingPosition()
	p.Slots[1] = 3 // now TOP has 16 checkers on board

	if err := p.Validate(); err == nil {
		t.Fatal("expected invariant C violation, got nil")
	} else if ie, ok := err.(*InvariantError); !ok || ie.Kind != InvariantC {
		t.Errorf("expected InvariantC, got %v", err)
	}
}

func TestValidateInvariantS(t *testing.T) {
	p := StartingPosition()
	p.Slots[0] = -1

	if err := p.Validate(); err == nil {
		t.Fatal("expected invariant S violation, got nil")
	} else if ie, ok := err.(*InvariantError); !ok || ie.Kind != InvariantS {
		t.Errorf("expected InvariantS, got %v", err)
	}
}

func TestDecisionValidateCandidatesRequiresOneBest(t *testing.T) {
	d := Decision{
		Candidates: []Move{
			{Rank: 1, Error: 0},
			{Rank: 1, Error: 0.1},
		},
	}
	if err := d.ValidateCandidates(); err == nil {
		t.Fatal("expected D1 violation for two rank-1 candidates")
	}
}

func TestDecisionValidateKind(t *testing.T) {
	dice := [2]int{3, 1}
	d := Decision{Kind: CheckerPlay, Dice: &dice}
	if err := d.ValidateKind(); err != nil {
		t.Errorf("unexpected error for valid checker-play decision: %v", err)
	}

	d2 := Decision{Kind: CubeAction, Dice: &dice}
	if err := d2.ValidateKind(); err == nil {
		t.Fatal("expected D2 violation when cube action carries dice")
	}
}

func TestOpponent(t *testing.T) {
	if Top.Opponent() != Bottom {
		t.Error("Top.Opponent() should be Bottom")
	}
	if Bottom.Opponent() != Top {
		t.Error("Bottom.Opponent() should be Top")
	}
}
