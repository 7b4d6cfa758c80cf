package binfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ankigo/bgpipeline/internal/cubeoptions"
	"github.com/ankigo/bgpipeline/internal/position"
)

// UnrecognizedRecordError reports a record this extractor does not know
// how to interpret.
type UnrecognizedRecordError struct {
	Kind RecordKind
}

func (e *UnrecognizedRecordError) Error() string {
	return fmt.Sprintf("unrecognized binary record kind %d", e.Kind)
}

// AnalysisAbsentError reports a Cube record with no analyzed sub-record;
// the caller may treat it as informational and continue, per SPEC_FULL.md
// §7 BinaryAnalysisAbsent.
type AnalysisAbsentError struct{}

func (e *AnalysisAbsentError) Error() string { return "binary cube record has no analysis" }

// session tracks the state that carries across records within a file, per
// SPEC_FULL.md §4.4.
type session struct {
	version     int
	matchLength int
	scoreTop    int
	scoreBottom int
	crawford    bool
}

// Extractor assembles Decisions from a stream of already-decoded binary
// records, tracking match/game state across them.
type Extractor struct {
	sess session
}

// NewExtractor returns an Extractor ready to process a file's records in
// order.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Apply processes one record, returning a Decision when the record yields
// one (Move and analyzed Cube records do; Header records only update
// session state and return nil, nil).
func (x *Extractor) Apply(record any) (*position.Decision, error) {
	switch r := record.(type) {
	case HeaderMatchRecord:
		x.sess.version = r.Version
		x.sess.matchLength = r.MatchLength
		return nil, nil
	case HeaderGameRecord:
		x.sess.scoreTop = r.ScoreTop
		x.sess.scoreBottom = r.ScoreBottom
		x.sess.crawford = r.Crawford
		return nil, nil
	case MoveRecord:
		return x.applyMove(r)
	case CubeRecord:
		return x.applyCube(r)
	default:
		return nil, fmt.Errorf("binfile: unsupported record type %T", record)
	}
}

// transformPosition negates every slot: the binary format uses the
// opposite sign convention from this module's TOP-positive model.
func transformPosition(raw [26]int) (position.Position, error) {
	var p position.Position
	for i, v := range raw {
		p.Slots[i] = int8(-v)
	}
	topTotal, bottomTotal := 0, 0
	for _, v := range p.Slots {
		if v > 0 {
			topTotal += int(v)
		} else if v < 0 {
			bottomTotal += int(-v)
		}
	}
	p.TopOff = 15 - topTotal
	p.BottomOff = 15 - bottomTotal
	if err := p.Validate(); err != nil {
		return position.Position{}, err
	}
	return p, nil
}

func onRollFromFlag(activeIsBottom bool) position.Player {
	if activeIsBottom {
		return position.Bottom
	}
	return position.Top
}

func cubeStateFromSigned(v int) (int, position.CubeState) {
	switch {
	case v > 0:
		return v, position.TopOwns
	case v < 0:
		return -v, position.BottomOwns
	default:
		return 1, position.Centered
	}
}

func (x *Extractor) applyMove(r MoveRecord) (*position.Decision, error) {
	pos, err := transformPosition(r.Position)
	if err != nil {
		return nil, err
	}
	onRoll := onRollFromFlag(r.ActiveIsBottom)
	cubeValue, cubeOwner := cubeStateFromSigned(r.CubeValue)

	candidates := make([]position.Move, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		candidates = append(candidates, position.Move{
			Notation:              c.Notation,
			Equity:                c.Eval.Equity(),
			FromAnalyzer:          true,
			OpponentWinPct:        pct(c.Eval[2]),
			OpponentGammonPct:     pct(c.Eval[1]),
			OpponentBackgammonPct: pct(c.Eval[0]),
			PlayerWinPct:          pct(c.Eval[3]),
			PlayerGammonPct:       pct(c.Eval[4]),
			PlayerBackgammonPct:   pct(c.Eval[5]),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Equity > candidates[j].Equity })
	if len(candidates) > 0 {
		best := candidates[0].Equity
		for i := range candidates {
			candidates[i].Rank = i + 1
			candidates[i].Error = best - candidates[i].Equity
			if candidates[i].Error < 0 {
				candidates[i].Error = -candidates[i].Error
			}
		}
	}

	if r.PlayedNotation != "" {
		played := normalizeNotation(r.PlayedNotation)
		for i := range candidates {
			if normalizeNotation(candidates[i].Notation) == played {
				candidates[i].WasPlayed = true
				break
			}
		}
	}

	d := &position.Decision{
		Position:    pos,
		OnRoll:      onRoll,
		Dice:        r.Dice,
		ScoreTop:    x.sess.scoreTop,
		ScoreBottom: x.sess.scoreBottom,
		MatchLength: x.sess.matchLength,
		Crawford:    x.sess.crawford,
		CubeValue:   cubeValue,
		CubeOwner:   cubeOwner,
		Kind:        position.CheckerPlay,
		Candidates:  candidates,
	}
	return d, nil
}

func (x *Extractor) applyCube(r CubeRecord) (*position.Decision, error) {
	if !r.IsAnalyzed() {
		return nil, &AnalysisAbsentError{}
	}

	pos, err := transformPosition(r.Position)
	if err != nil {
		return nil, err
	}
	onRoll := onRollFromFlag(r.ActiveIsBottom)
	cubeValue, cubeOwner := cubeStateFromSigned(r.CubeValue)

	synth := cubeoptions.Synthesize(cubeoptions.Inputs{
		EquityNoDouble: r.EquityNoDouble,
		EquityTake:     r.EquityTake,
		EquityPass:     r.EquityPass,
		EvalNoDouble:   equityTupleToArray(r.EvalNoDouble),
		EvalTake:       equityTupleToArray(r.EvalTake),
	})

	d := &position.Decision{
		Position:    pos,
		OnRoll:      onRoll,
		ScoreTop:    x.sess.scoreTop,
		ScoreBottom: x.sess.scoreBottom,
		MatchLength: x.sess.matchLength,
		Crawford:    x.sess.crawford,
		CubeValue:   cubeValue,
		CubeOwner:   cubeOwner,
		Kind:        position.CubeAction,
		Candidates:  synth.Candidates,
	}
	return d, nil
}

func equityTupleToArray(t *EquityTuple) *[7]float64 {
	if t == nil {
		return nil
	}
	arr := [7]float64(*t)
	return &arr
}

func pct(p float64) *float64 {
	v := p * 100
	return &v
}

// normalizeNotation sorts a notation string's sub-moves so that
// "12/8 7/6" and "7/6 12/8" compare equal.
func normalizeNotation(notation string) string {
	if notation == "" || strings.EqualFold(notation, "cannot move") {
		return strings.ToLower(notation)
	}
	parts := strings.Fields(notation)
	sort.Sort(sort.Reverse(sort.StringSlice(parts)))
	return strings.Join(parts, " ")
}
