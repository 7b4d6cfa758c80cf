package moveapplier

import (
	"testing"

	"github.com/ankigo/bgpipeline/internal/position"
)

// S3 — Move applier.
func TestApplyBottomCheckerPlay(t *testing.T) {
	p := position.StartingPosition()

	res, err := Apply(p, position.Bottom, "13/9 6/5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("expected no skipped hops, got %v", res.Skipped)
	}

	got := res.Position
	if got.Slots[13] != -4 {
		t.Errorf("slot 13 = %d, want -4", got.Slots[13])
	}
	if got.Slots[9] != -1 {
		t.Errorf("slot 9 = %d, want -1", got.Slots[9])
	}
	if got.Slots[6] != -4 {
		t.Errorf("slot 6 = %d, want -4", got.Slots[6])
	}
	if got.Slots[5] != -1 {
		t.Errorf("slot 5 = %d, want -1", got.Slots[5])
	}

	if pip := got.PipCount(position.Top); pip != 167 {
		t.Errorf("TOP pip count = %d, want 167 (unchanged)", pip)
	}
	// 167 minus the 4+1 pips the 13/9 and 6/5 hops moved.
	if pip := got.PipCount(position.Bottom); pip != 162 {
		t.Errorf("BOTTOM pip count = %d, want 162", pip)
	}
}

// S4 — Hit and bar.
func TestApplyHitSendsToBar(t *testing.T) {
	var p position.Position
	p.Slots[1] = -1  // BOTTOM checker at its own 1-point
	p.Slots[5] = 1   // lone TOP checker (blot) on BOTTOM's path
	p.TopOff = 14
	p.BottomOff = 14

	res, err := Apply(p, position.Bottom, "1/5*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("expected no skipped hops, got %v", res.Skipped)
	}

	got := res.Position
	if got.Slots[5] != -1 {
		t.Errorf("slot 5 = %d, want -1 (hit and occupied by BOTTOM)", got.Slots[5])
	}
	if got.Slots[0] != 1 {
		t.Errorf("TOP bar (slot 0) = %d, want 1", got.Slots[0])
	}
}

func TestApplyCannotMoveReturnsUnchanged(t *testing.T) {
	p := position.StartingPosition()
	res, err := Apply(p, position.Bottom, "Cannot move")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Position.Slots != p.Slots {
		t.Error("expected unchanged position for Cannot move")
	}
}

func TestApplySkipsIllegalHop(t *testing.T) {
	p := position.StartingPosition()
	// TOP's own 6-point (slot 19) holds five TOP checkers in the opening,
	// but TOP's 1-point (slot 24) holds two BOTTOM checkers, so the
	// destination is blocked: the hop is illegal.
	res, err := Apply(p, position.Top, "6/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected exactly one skipped hop, got %d", len(res.Skipped))
	}
	if res.Position.Slots != p.Slots {
		t.Error("position should be unchanged when the only hop is illegal")
	}
}

func TestApplyBearOff(t *testing.T) {
	var p position.Position
	p.Slots[19] = 1
	p.TopOff = 14
	p.BottomOff = 15

	res, err := Apply(p, position.Top, "6/off")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Position.TopOff != 15 {
		t.Errorf("TopOff = %d, want 15", res.Position.TopOff)
	}
	if res.Position.Slots[19] != 0 {
		t.Errorf("slot 19 = %d, want 0", res.Position.Slots[19])
	}
}

func TestParseNotationRepeatSuffix(t *testing.T) {
	hops, ok, err := ParseNotation("24/18(2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if len(hops) != 2 {
		t.Fatalf("expected 2 expanded hops, got %d", len(hops))
	}
	for _, h := range hops {
		if h.From != "24" || h.To != "18" {
			t.Errorf("unexpected hop %+v", h)
		}
	}
}
