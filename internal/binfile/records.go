// Package binfile extracts Decisions from a proprietary binary game-file
// format: a sequence of typed records (HeaderMatch, HeaderGame, Move, Cube)
// that together describe a whole match.
package binfile

// RecordKind tags a decoded binary record.
type RecordKind int

const (
	RecordHeaderMatch RecordKind = iota
	RecordHeaderGame
	RecordMove
	RecordCube
)

// HeaderMatchRecord opens a file: format version and match length.
type HeaderMatchRecord struct {
	Version     int
	MatchLength int
	Player1     string
	Player2     string
}

// HeaderGameRecord opens a game within the match: running scores and the
// Crawford flag in effect for that game.
type HeaderGameRecord struct {
	ScoreTop    int
	ScoreBottom int
	Crawford    bool
}

// EquityTuple is the seven-scalar evaluation the binary format stores per
// candidate: [0..2] cumulative loss probabilities (backgammon, gammon+bg,
// total), [3..5] cumulative win probabilities (total, gammon+bg,
// backgammon), [6] equity.
type EquityTuple [7]float64

func (e EquityTuple) Equity() float64 { return e[6] }

// CandidateRecord is one row of a Move record's evaluated-move table.
type CandidateRecord struct {
	Notation string
	Eval     EquityTuple
}

// MoveRecord is a checker-play decision as stored in the binary format.
// Position is 26 signed slots in the FILE's own sign convention — the
// opposite of this module's (see transformPosition) — before extraction
// negates it.
type MoveRecord struct {
	ActiveIsBottom bool // binary format's ActiveP flag
	Position       [26]int
	Dice           *[2]int
	CubeValue      int // signed: positive TOP owns, negative BOTTOM owns, 0 centered
	PlayedNotation string
	Candidates     []CandidateRecord
}

// CubeRecord is a cube decision as stored in the binary format. FlagDouble
// of -100 or -1000 means the engine never analyzed this decision.
type CubeRecord struct {
	ActiveIsBottom bool
	Position       [26]int
	CubeValue      int
	FlagDouble     int
	EquityNoDouble float64
	EquityTake     float64
	EquityPass     float64
	EvalNoDouble   *EquityTuple
	EvalTake       *EquityTuple
}

// IsAnalyzed reports whether the cube decision carries real analysis, per
// SPEC_FULL.md §4.4: a FlagDouble sentinel or an all-zero analysis both
// mean "not analyzed".
func (c CubeRecord) IsAnalyzed() bool {
	if c.FlagDouble == -100 || c.FlagDouble == -1000 {
		return false
	}
	if c.EquityNoDouble == 0 && c.EquityTake == 0 && c.EquityPass == -1.0 {
		allZero := true
		for _, v := range c.Position {
			if v != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			return false
		}
	}
	return true
}
