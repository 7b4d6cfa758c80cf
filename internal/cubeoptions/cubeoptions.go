// Package cubeoptions synthesizes the fixed five-option cube-action record
// from an analyzer's three scalar equities, matching the phrase-driven
// best-move selection GNU Backgammon's own output uses.
package cubeoptions

import (
	"sort"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// Inputs carries the raw equities and optional win-chance tuples an
// analyzer's cube-decision output supplies.
type Inputs struct {
	EquityNoDouble float64
	EquityTake     float64
	EquityPass     float64
	Phrase         string // "Proper cube action: ..." text, may be empty

	// EvalNoDouble/EvalTake are the seven-scalar evaluation tuples (see
	// binfile.EquityTuple) for the no-double and double/take scenarios,
	// when the source supplies them.
	EvalNoDouble *[7]float64
	EvalTake     *[7]float64
}

// optionName is one of the five fixed slots in synthesizer output.
type optionName string

const (
	NoDoubleTake optionName = "No-Double/Take"
	DoubleTake   optionName = "Double/Take"
	DoublePass   optionName = "Double/Pass"
	TooGoodTake  optionName = "Too-Good/Take"
	TooGoodPass  optionName = "Too-Good/Pass"
)

// Result is the fixed five-element ordered cube-option list plus which
// option was selected best.
type Result struct {
	Candidates []position.Move
	Best       optionName
}

// Synthesize builds the five-option cube decision from in, per
// SPEC_FULL.md §4.6.
func Synthesize(in Inputs) Result {
	best, anchor := selectBest(in)

	options := []struct {
		name   optionName
		equity float64
		eval   *[7]float64
		fromAn bool
	}{
		{NoDoubleTake, in.EquityNoDouble, in.EvalNoDouble, true},
		{DoubleTake, in.EquityTake, in.EvalTake, true},
		{DoublePass, in.EquityPass, nil, true},
		{TooGoodTake, in.EquityPass, nil, false},
		{TooGoodPass, in.EquityPass, nil, false},
	}

	candidates := make([]position.Move, len(options))
	for i, o := range options {
		m := position.Move{
			Notation:     string(o.name),
			Equity:       o.equity,
			FromAnalyzer: o.fromAn,
		}
		if o.eval != nil {
			e := *o.eval
			m.OpponentWinPct = pct(e[2])
			m.OpponentGammonPct = pct(e[1])
			m.OpponentBackgammonPct = pct(e[0])
			m.PlayerWinPct = pct(e[3])
			m.PlayerGammonPct = pct(e[4])
			m.PlayerBackgammonPct = pct(e[5])
		}
		if o.name == best {
			m.Error = 0
		} else {
			m.Error = absDiff(anchor, o.equity)
		}
		candidates[i] = m
	}

	assignRanks(candidates, best)

	return Result{Candidates: candidates, Best: best}
}

// selectBest picks the best option and its error-anchor equity, per the
// phrase table in SPEC_FULL.md §4.6.
func selectBest(in Inputs) (optionName, float64) {
	phrase := strings.ToLower(in.Phrase)
	switch {
	case strings.Contains(phrase, "too good") && strings.Contains(phrase, "pass"):
		return TooGoodPass, in.EquityNoDouble
	case strings.Contains(phrase, "too good") && strings.Contains(phrase, "take"):
		return TooGoodTake, in.EquityNoDouble
	case strings.Contains(phrase, "no double") || strings.Contains(phrase, "no redouble"):
		return NoDoubleTake, in.EquityNoDouble
	case (strings.Contains(phrase, "double") || strings.Contains(phrase, "redouble")) && strings.Contains(phrase, "take"):
		return DoubleTake, in.EquityTake
	case (strings.Contains(phrase, "double") || strings.Contains(phrase, "redouble")) && strings.Contains(phrase, "pass"):
		return DoublePass, in.EquityPass
	default:
		// No phrase: argmax over the three actual actions.
		best := NoDoubleTake
		bestEq := in.EquityNoDouble
		if in.EquityTake > bestEq {
			best, bestEq = DoubleTake, in.EquityTake
		}
		if in.EquityPass > bestEq {
			best, bestEq = DoublePass, in.EquityPass
		}
		return best, bestEq
	}
}

// assignRanks gives best rank 1; the other four (Too-Good options included)
// are ranked 2..5 by equity desc, matching SPEC_FULL.md §4.6's "ranked 2..5
// by equity desc" rule applied to whichever four remain.
func assignRanks(candidates []position.Move, best optionName) {
	order := make([]int, 0, len(candidates))
	bestIdx := -1
	for i, c := range candidates {
		if optionName(c.Notation) == best {
			bestIdx = i
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return candidates[order[a]].Equity > candidates[order[b]].Equity })

	if bestIdx >= 0 {
		candidates[bestIdx].Rank = 1
	}
	for rank, idx := range order {
		candidates[idx].Rank = rank + 2
	}
}

func pct(p float64) *float64 {
	v := p * 100
	return &v
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
