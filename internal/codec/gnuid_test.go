package codec

import (
	"testing"

	"github.com/ankigo/bgpipeline/internal/position"
)

// S2 — GNUID opening, same distribution as the XGID S1 scenario.
func TestDecodeGNUIDOpening(t *testing.T) {
	p, _, err := DecodeGNUID("4HPwATDgc/ABMA:8IhuACAACAAE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := position.StartingPosition()
	if p.Slots != want.Slots {
		t.Errorf("decoded slots = %v, want %v", p.Slots, want.Slots)
	}
	if got := p.PipCount(position.Top); got != 167 {
		t.Errorf("TOP pip count = %d, want 167", got)
	}
	if got := p.PipCount(position.Bottom); got != 167 {
		t.Errorf("BOTTOM pip count = %d, want 167", got)
	}
}

func TestDecodeGNUIDPositionOnly(t *testing.T) {
	p, m, err := DecodeGNUID("4HPwATDgc/ABMA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := position.StartingPosition()
	if p.Slots != want.Slots {
		t.Errorf("decoded slots = %v, want %v", p.Slots, want.Slots)
	}
	if m.CubeValue != 1 || m.CubeOwner != position.Centered {
		t.Errorf("expected default metadata for position-only GNUID, got %+v", m)
	}
}

func TestGNUIDPositionRoundTrip(t *testing.T) {
	p := position.StartingPosition()
	encoded := EncodeGNUID(p, Metadata{CubeValue: 1, CubeOwner: position.Centered, OnRoll: position.Top}, true)
	decoded, _, err := DecodeGNUID(encoded)
	if err != nil {
		t.Fatalf("round trip decode failed: %v", err)
	}
	if decoded.Slots != p.Slots {
		t.Errorf("round trip slots mismatch: got %v want %v", decoded.Slots, p.Slots)
	}
}

func TestGNUIDMatchRoundTrip(t *testing.T) {
	p := position.StartingPosition()
	dice := [2]int{4, 3}
	m := Metadata{
		CubeValue:   4,
		CubeOwner:   position.BottomOwns,
		OnRoll:      position.Bottom,
		Dice:        &dice,
		ScoreTop:    3,
		ScoreBottom: 5,
		Crawford:    true,
		MatchLength: 7,
	}

	encoded := EncodeGNUID(p, m, false)
	decodedP, decodedM, err := DecodeGNUID(encoded)
	if err != nil {
		t.Fatalf("round trip decode failed: %v", err)
	}
	if decodedP.Slots != p.Slots {
		t.Errorf("position mismatch: got %v want %v", decodedP.Slots, p.Slots)
	}
	if decodedM.CubeValue != m.CubeValue {
		t.Errorf("CubeValue = %d, want %d", decodedM.CubeValue, m.CubeValue)
	}
	if decodedM.CubeOwner != m.CubeOwner {
		t.Errorf("CubeOwner = %v, want %v", decodedM.CubeOwner, m.CubeOwner)
	}
	if decodedM.OnRoll != m.OnRoll {
		t.Errorf("OnRoll = %v, want %v", decodedM.OnRoll, m.OnRoll)
	}
	if decodedM.Dice == nil || *decodedM.Dice != dice {
		t.Errorf("Dice = %v, want %v", decodedM.Dice, dice)
	}
	if decodedM.ScoreTop != m.ScoreTop || decodedM.ScoreBottom != m.ScoreBottom {
		t.Errorf("scores mismatch: got (%d,%d) want (%d,%d)", decodedM.ScoreTop, decodedM.ScoreBottom, m.ScoreTop, m.ScoreBottom)
	}
	if decodedM.Crawford != m.Crawford {
		t.Errorf("Crawford = %v, want %v", decodedM.Crawford, m.Crawford)
	}
	if decodedM.MatchLength != m.MatchLength {
		t.Errorf("MatchLength = %d, want %d", decodedM.MatchLength, m.MatchLength)
	}
}

func TestDecodeGNUIDRejectsShortPositionID(t *testing.T) {
	_, _, err := DecodeGNUID("short:8IhuACAACAAE")
	if err == nil {
		t.Fatal("expected error for short position ID")
	}
}
