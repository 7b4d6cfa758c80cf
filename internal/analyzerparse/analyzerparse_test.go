package analyzerparse

import (
	"math"
	"testing"
)

const checkerPlaySample = `Analyzed in roll:
    1. XG Roller++           13/8 6/5                    Eq.: +0.123
      0.5432 0.1240 0.0110 - 0.4568 0.1020 0.0090
    2. XG Roller++           24/18 13/11                 Eq.: +0.045 (-0.078)
      0.5100 0.1100 0.0100 - 0.4900 0.1200 0.0100
    3. XG Roller++           13/7 6/5                    Eq.: -0.050 (-0.173)
      0.4800 0.1000 0.0080 - 0.5200 0.1300 0.0120
`

func TestParseCheckerPlayRanksByEquity(t *testing.T) {
	moves, err := ParseCheckerPlay(checkerPlaySample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(moves) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(moves))
	}

	if moves[0].Notation != "13/8 6/5" || moves[0].Rank != 1 || moves[0].Error != 0 {
		t.Errorf("best candidate wrong: %+v", moves[0])
	}
	if moves[1].Notation != "24/18 13/11" || moves[1].Rank != 2 {
		t.Errorf("second candidate wrong: %+v", moves[1])
	}
	if moves[2].Rank != 3 {
		t.Errorf("third candidate wrong rank: %+v", moves[2])
	}

	want := 0.123 - (-0.050)
	got := moves[2].Error
	if got < want-0.0005 || got > want+0.0005 {
		t.Errorf("third candidate error = %v, want ~%v", got, want)
	}

	if moves[0].PlayerWinPct == nil || math.Abs(*moves[0].PlayerWinPct-54.32) > 1e-9 {
		t.Errorf("expected win probability scaled to 54.32%%, got %+v", moves[0])
	}
	if moves[0].OpponentBackgammonPct == nil || math.Abs(*moves[0].OpponentBackgammonPct-0.90) > 1e-9 {
		t.Errorf("expected opponent backgammon probability scaled to 0.90%%, got %+v", moves[0])
	}
}

func TestParseCheckerPlayUnrecognizedTextErrors(t *testing.T) {
	if _, err := ParseCheckerPlay("nothing to see here"); err == nil {
		t.Fatal("expected error for text with no ranked lines")
	}
}

const cubeDecisionSample = `Cubeful equities:
  1. No double           +0.200
  2. Double, take        +0.500
  3. Double, pass        +1.000
Proper cube action: Double, take (0.300)
`

func TestParseCubeDecisionExtractsEquitiesAndPhrase(t *testing.T) {
	in, err := ParseCubeDecision(cubeDecisionSample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.EquityNoDouble != 0.2 || in.EquityTake != 0.5 || in.EquityPass != 1.0 {
		t.Errorf("equities = %+v", in)
	}
	if in.Phrase != "Double, take" {
		t.Errorf("Phrase = %q", in.Phrase)
	}
}

func TestParseCubeDecisionTooleratesRedoublePhrasing(t *testing.T) {
	text := `Cubeful equities:
  1. No redouble         -0.100
  2. Redouble, take      -0.050
  3. Redouble, pass      +1.000
Proper cube action: No redouble
`
	in, err := ParseCubeDecision(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.EquityNoDouble != -0.1 || in.EquityTake != -0.05 || in.EquityPass != 1.0 {
		t.Errorf("equities = %+v", in)
	}
	if in.Phrase != "No redouble" {
		t.Errorf("Phrase = %q", in.Phrase)
	}
}

func TestParseCubeDecisionMissingSentinelErrors(t *testing.T) {
	if _, err := ParseCubeDecision("no cube section here at all"); err == nil {
		t.Fatal("expected error when Cubeful equities sentinel is absent")
	}
}

func TestParseAlertAttributesResponderError(t *testing.T) {
	a := ParseAlert("Alert: wrong take (+0.215)!")
	if a.TakeError == nil || *a.TakeError != 0.215 {
		t.Errorf("expected TakeError=0.215, got %+v", a)
	}
	if a.CubeError != nil {
		t.Errorf("expected no CubeError, got %+v", a)
	}
}

func TestParseAlertAttributesDoublerError(t *testing.T) {
	a := ParseAlert("Alert: missed double (+0.180)!")
	if a.CubeError == nil || *a.CubeError != 0.180 {
		t.Errorf("expected CubeError=0.180, got %+v", a)
	}
	if a.TakeError != nil {
		t.Errorf("expected no TakeError, got %+v", a)
	}
}

func TestParseAlertNoMatchReturnsEmpty(t *testing.T) {
	a := ParseAlert("no alert line present")
	if a.CubeError != nil || a.TakeError != nil {
		t.Errorf("expected empty attribution, got %+v", a)
	}
}
