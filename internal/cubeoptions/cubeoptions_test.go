package cubeoptions

import (
	"math"
	"testing"

	"github.com/ankigo/bgpipeline/internal/position"
)

// S5 — Cube synthesis, "too good / pass".
func TestSynthesizeTooGoodPass(t *testing.T) {
	in := Inputs{
		EquityNoDouble: 0.8,
		EquityTake:     1.2,
		EquityPass:     1.0,
		Phrase:         "Too good to double, pass",
	}

	res := Synthesize(in)
	if res.Best != TooGoodPass {
		t.Fatalf("Best = %v, want %v", res.Best, TooGoodPass)
	}

	wantErrors := map[string]float64{
		string(NoDoubleTake): 0.0,
		string(DoubleTake):   0.4,
		string(DoublePass):   0.2,
		string(TooGoodTake):  0.2,
		string(TooGoodPass):  0,
	}
	for _, c := range res.Candidates {
		want, ok := wantErrors[c.Notation]
		if !ok {
			t.Fatalf("unexpected candidate %q", c.Notation)
		}
		if math.Abs(c.Error-want) > 1e-9 {
			t.Errorf("%s error = %v, want %v", c.Notation, c.Error, want)
		}
	}

	best, ok := bestCandidate(res.Candidates)
	if !ok {
		t.Fatalf("expected exactly one rank-1 candidate")
	}
	if best.Notation != string(TooGoodPass) {
		t.Errorf("rank-1 candidate = %q, want %q", best.Notation, TooGoodPass)
	}
}

func TestSynthesizeNoPhraseArgmax(t *testing.T) {
	in := Inputs{EquityNoDouble: 0.2, EquityTake: 0.5, EquityPass: -1.0}
	res := Synthesize(in)
	if res.Best != DoubleTake {
		t.Errorf("Best = %v, want %v", res.Best, DoubleTake)
	}
}

func TestSynthesizeFiveFixedOptions(t *testing.T) {
	res := Synthesize(Inputs{EquityNoDouble: 0.1, EquityTake: 0.3, EquityPass: 1.0, Phrase: "No double/redouble"})
	if len(res.Candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(res.Candidates))
	}
	ranks := map[int]bool{}
	for _, c := range res.Candidates {
		if ranks[c.Rank] {
			t.Fatalf("duplicate rank %d", c.Rank)
		}
		ranks[c.Rank] = true
	}
	for r := 1; r <= 5; r++ {
		if !ranks[r] {
			t.Errorf("missing rank %d", r)
		}
	}
}

func bestCandidate(candidates []position.Move) (position.Move, bool) {
	for _, c := range candidates {
		if c.Rank == 1 {
			return c, true
		}
	}
	return position.Move{}, false
}
