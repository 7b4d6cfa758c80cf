// Package analyzerparse parses GNU-Backgammon-CLI textual analysis
// output: the repeated checker-play ranking block and the cube-decision
// "Cubeful equities" section.
package analyzerparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ankigo/bgpipeline/internal/cubeoptions"
	"github.com/ankigo/bgpipeline/internal/position"
)

// OutputUnparseableError reports analyzer output that matched neither
// sub-parser's sentinel.
type OutputUnparseableError struct {
	Reason string
}

func (e *OutputUnparseableError) Error() string {
	return fmt.Sprintf("analyzer output unparseable: %s", e.Reason)
}

// checkerPlayLine matches "<rank>. <descriptor> <notation>   Eq.: <equity> [(<delta>)]".
var checkerPlayLine = regexp.MustCompile(`^\s*(\d+)\.\s+(.+?)\s{2,}Eq\.:\s*([+-]?\d+\.\d+)(?:\s*\(([+-]?\d+\.\d+)\))?\s*$`)

// probabilityLine matches the six-probability line following a ranked
// entry: "p0 p1 p2 - p3 p4 p5", decimal fractions that are scaled to
// percentages on capture.
var probabilityLine = regexp.MustCompile(`^\s*([\d.]+)\s+([\d.]+)\s+([\d.]+)\s+-\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s*$`)

// notationFromDescriptor strips a leading engine descriptor (e.g. "XG
// Roller++") from the rest of a ranked line. Move tokens always contain a
// "/" (point-to-point hops) or are the literal "Cannot move" sentinel; the
// descriptor never does, so the first "/"-bearing field marks where
// notation begins.
func notationFromDescriptor(rest string) string {
	rest = strings.TrimSpace(rest)
	if strings.EqualFold(rest, cannotMoveSentinel) {
		return rest
	}

	fields := strings.Fields(rest)
	for i, f := range fields {
		if strings.Contains(f, "/") {
			return strings.Join(fields[i:], " ")
		}
	}
	return rest
}

const cannotMoveSentinel = "Cannot move"

// ParseCheckerPlay parses a repeated checker-play ranking block into
// candidate moves, sorted by equity descending with ranks reassigned 1..n
// and errors recomputed from the best equity, per SPEC_FULL.md §4.5.
func ParseCheckerPlay(text string) ([]position.Move, error) {
	lines := strings.Split(text, "\n")

	var moves []position.Move
	for i := 0; i < len(lines); i++ {
		m := checkerPlayLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		equity, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}

		move := position.Move{
			Notation:     notationFromDescriptor(m[2]),
			Equity:       equity,
			FromAnalyzer: true,
		}

		if i+1 < len(lines) {
			if pm := probabilityLine.FindStringSubmatch(lines[i+1]); pm != nil {
				vals := make([]float64, 6)
				for j, s := range pm[1:] {
					v, _ := strconv.ParseFloat(s, 64)
					vals[j] = v * 100
				}
				move.PlayerWinPct = &vals[0]
				move.PlayerGammonPct = &vals[1]
				move.PlayerBackgammonPct = &vals[2]
				move.OpponentWinPct = &vals[3]
				move.OpponentGammonPct = &vals[4]
				move.OpponentBackgammonPct = &vals[5]
			}
		}

		moves = append(moves, move)
	}

	if len(moves) == 0 {
		return nil, &OutputUnparseableError{Reason: "no ranked checker-play lines found"}
	}

	sort.SliceStable(moves, func(i, j int) bool { return moves[i].Equity > moves[j].Equity })
	best := moves[0].Equity
	for i := range moves {
		moves[i].Rank = i + 1
		moves[i].Error = best - moves[i].Equity
		if moves[i].Error < 0 {
			moves[i].Error = -moves[i].Error
		}
	}

	return moves, nil
}

var cubefulSentinel = regexp.MustCompile(`(?i)Cubeful equities:`)

// cubeActionLine matches "1. No double            -0.014" style rows.
var cubeActionLine = regexp.MustCompile(`^\s*\d+\.\s+(.+?)\s+([+-]?\d+\.\d+)\s*$`)

var properCubeAction = regexp.MustCompile(`(?i)Proper cube action:\s*(.+?)\s*(?:\(|$)`)

// ParseCubeDecision parses a "Cubeful equities:" section into the inputs
// C6's synthesizer needs. It tolerates both "double" and "redouble"
// phrasing.
func ParseCubeDecision(text string) (cubeoptions.Inputs, error) {
	lines := strings.Split(text, "\n")

	sentinelIdx := -1
	for i, line := range lines {
		if cubefulSentinel.MatchString(line) {
			sentinelIdx = i
			break
		}
	}
	if sentinelIdx == -1 {
		return cubeoptions.Inputs{}, &OutputUnparseableError{Reason: "no Cubeful equities section found"}
	}

	equities := map[string]float64{}
	phrase := ""
	for i := sentinelIdx + 1; i < len(lines); i++ {
		line := lines[i]
		if m := cubeActionLine.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[2], 64)
			if err == nil {
				equities[normalizeActionName(m[1])] = v
			}
			continue
		}
		if m := properCubeAction.FindStringSubmatch(line); m != nil {
			phrase = strings.TrimSpace(m[1])
			break
		}
		if strings.TrimSpace(line) == "" && len(equities) > 0 {
			break
		}
	}

	if len(equities) == 0 {
		return cubeoptions.Inputs{}, &OutputUnparseableError{Reason: "no cube equity lines found"}
	}

	in := cubeoptions.Inputs{Phrase: phrase}
	for name, eq := range equities {
		switch name {
		case "no double", "no redouble":
			in.EquityNoDouble = eq
		case "double take", "redouble take", "double/take", "redouble/take":
			in.EquityTake = eq
		case "double pass", "redouble pass", "double/pass", "redouble/pass":
			in.EquityPass = eq
		}
	}

	return in, nil
}

func normalizeActionName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// alertLine matches "Alert: wrong take (+0.123)!" style error-attribution
// lines, attributing the magnitude to either the doubler or the responder
// depending on which alert fired.
var alertLine = regexp.MustCompile(`(?i)Alert:\s*(wrong take|bad double|wrong double|missed double|wrong pass)\s*\(\s*([+-]?\d+\.\d+)\s*\)`)

// Attribution carries the doubler-vs-responder error split surfaced by a
// GNU Backgammon "Alert:" line, feeding position.Decision's CubeError and
// TakeError fields.
type Attribution struct {
	CubeError *float64
	TakeError *float64
}

// ParseAlert scans text for a doubler-vs-responder "Alert:" line and
// attributes its magnitude: take/pass alerts are the responder's error,
// double/missed alerts are the doubler's error.
func ParseAlert(text string) Attribution {
	var a Attribution
	m := alertLine.FindStringSubmatch(text)
	if m == nil {
		return a
	}
	kind := strings.ToLower(m[1])
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return a
	}
	switch {
	case strings.Contains(kind, "take") || strings.Contains(kind, "pass"):
		a.TakeError = &v
	case strings.Contains(kind, "double"):
		a.CubeError = &v
	}
	return a
}
