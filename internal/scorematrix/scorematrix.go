// Package scorematrix re-evaluates a cube decision at every score
// combination of a match, showing where the proper action flips. Each
// cell re-encodes the position's XGID at an alternate score, sends the
// batch through the analyzer fan-out, and lands the reply on the same
// five-option synthesis every other cube source uses.
package scorematrix

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ankigo/bgpipeline/internal/analyzerparse"
	"github.com/ankigo/bgpipeline/internal/codec"
	"github.com/ankigo/bgpipeline/internal/cubeoptions"
	"github.com/ankigo/bgpipeline/internal/met"
	"github.com/ankigo/bgpipeline/internal/position"
)

// PositionAnalyzer is the slice of the analyzer driver this package
// needs: an order-preserving batch analysis call.
type PositionAnalyzer interface {
	AnalyzePositions(ctx context.Context, ids []string, progress func(completed, total int)) ([]string, error)
}

// Cell is one score combination's verdict. Away scores are from the
// on-roll player's side: PlayerAway is how many points the player on
// roll still needs at this cell.
type Cell struct {
	PlayerAway   int
	OpponentAway int

	// BestAction is the abbreviated proper action: "N/T", "D/T",
	// "D/P", "TG/T" or "TG/P".
	BestAction string

	ErrorNoDouble *float64
	ErrorDouble   *float64
	ErrorPass     *float64

	// MatchEquity is the on-roll player's match-winning chances at this
	// cell's score, from the match equity table.
	MatchEquity float64
}

// Matrix is the full score grid for one cube decision, indexed
// [playerAway-2][opponentAway-2].
type Matrix struct {
	MatchLength int
	Cells       [][]Cell
}

// CloseThreshold is the displayed-error bound (in thousandths of a
// point) under which a cell counts as a close decision.
const CloseThreshold = 20

// FormatErrors renders the cell's two displayed errors, scaled by 1000,
// as "ND/DT"-style pairs. The error belonging to the cell's own best
// action is skipped: an N/T cell shows the D/T and D/P errors, a D/T
// cell the ND and D/P errors, a D/P cell the ND and D/T errors.
func (c Cell) FormatErrors() string {
	a, b := c.displayedErrors()
	return fmt.Sprintf("%d/%d", a, b)
}

// CloseDecision reports whether the smaller of the two displayed errors
// is under threshold thousandths, meaning some alternative action is
// nearly as good as the best one.
func (c Cell) CloseDecision(threshold int) bool {
	a, b := c.displayedErrors()
	return floats.Min([]float64{float64(a), float64(b)}) < float64(threshold)
}

func (c Cell) displayedErrors() (int, int) {
	nd := scaleError(c.ErrorNoDouble)
	dt := scaleError(c.ErrorDouble)
	dp := scaleError(c.ErrorPass)

	switch c.BestAction {
	case "D/T":
		return nd, dp
	case "D/P":
		return nd, dt
	default: // "N/T", "TG/T", "TG/P": the too-good options stand in for no-double
		return dt, dp
	}
}

func scaleError(e *float64) int {
	if e == nil {
		return 0
	}
	v := *e * 1000
	if v < 0 {
		v = -v
	}
	return int(v + 0.5)
}

// Generate re-analyzes d at every away-score pair from 2-away through
// matchLength-away and assembles the resulting grid. d must be a cube
// decision in match play; equities may be nil, in which case the
// approximate default table annotates the cells.
func Generate(ctx context.Context, d position.Decision, driver PositionAnalyzer, equities *met.Table, progress func(completed, total int)) (Matrix, error) {
	if d.Kind != position.CubeAction {
		return Matrix{}, fmt.Errorf("scorematrix: decision is not a cube action")
	}
	if d.MatchLength < 2 {
		return Matrix{}, fmt.Errorf("scorematrix: match length must be at least 2, got %d", d.MatchLength)
	}
	if equities == nil {
		equities = met.Default()
	}

	ids, coords := scoreVariants(d)
	outputs, err := driver.AnalyzePositions(ctx, ids, progress)
	if err != nil {
		return Matrix{}, err
	}

	size := d.MatchLength - 1
	m := Matrix{MatchLength: d.MatchLength, Cells: make([][]Cell, size)}
	for i := range m.Cells {
		m.Cells[i] = make([]Cell, size)
	}

	for idx, out := range outputs {
		in, err := analyzerparse.ParseCubeDecision(out)
		if err != nil {
			co := coords[idx]
			return Matrix{}, fmt.Errorf("scorematrix: cell %da-%da: %w", co.playerAway, co.opponentAway, err)
		}
		res := cubeoptions.Synthesize(in)

		co := coords[idx]
		cell := Cell{
			PlayerAway:   co.playerAway,
			OpponentAway: co.opponentAway,
			BestAction:   abbreviate(string(res.Best)),
			MatchEquity:  equities.Chance(co.scoreTop, co.scoreBottom, d.MatchLength, d.OnRoll, false),
		}
		for _, cand := range res.Candidates {
			e := cand.Error
			switch cand.Notation {
			case string(cubeoptions.NoDoubleTake):
				cell.ErrorNoDouble = &e
			case string(cubeoptions.DoubleTake):
				cell.ErrorDouble = &e
			case string(cubeoptions.DoublePass):
				cell.ErrorPass = &e
			}
		}
		m.Cells[co.playerAway-2][co.opponentAway-2] = cell
	}

	return m, nil
}

type coord struct {
	playerAway   int
	opponentAway int
	scoreTop     int
	scoreBottom  int
}

// scoreVariants encodes one XGID per away-score pair, mapping the
// on-roll player's away score onto whichever side is on roll.
func scoreVariants(d position.Decision) ([]string, []coord) {
	size := d.MatchLength - 1
	ids := make([]string, 0, size*size)
	coords := make([]coord, 0, size*size)

	for playerAway := 2; playerAway <= d.MatchLength; playerAway++ {
		for opponentAway := 2; opponentAway <= d.MatchLength; opponentAway++ {
			scoreOnRoll := d.MatchLength - playerAway
			scoreOpponent := d.MatchLength - opponentAway

			scoreTop, scoreBottom := scoreOpponent, scoreOnRoll
			if d.OnRoll == position.Top {
				scoreTop, scoreBottom = scoreOnRoll, scoreOpponent
			}

			meta := codec.Metadata{
				CubeValue:   d.CubeValue,
				CubeOwner:   d.CubeOwner,
				OnRoll:      d.OnRoll,
				Dice:        nil,
				ScoreTop:    scoreTop,
				ScoreBottom: scoreBottom,
				MatchLength: d.MatchLength,
				MaxCube:     256,
			}
			ids = append(ids, codec.EncodeXGID(d.Position, meta))
			coords = append(coords, coord{
				playerAway:   playerAway,
				opponentAway: opponentAway,
				scoreTop:     scoreTop,
				scoreBottom:  scoreBottom,
			})
		}
	}
	return ids, coords
}

func abbreviate(option string) string {
	switch option {
	case string(cubeoptions.NoDoubleTake):
		return "N/T"
	case string(cubeoptions.DoubleTake):
		return "D/T"
	case string(cubeoptions.DoublePass):
		return "D/P"
	case string(cubeoptions.TooGoodTake):
		return "TG/T"
	case string(cubeoptions.TooGoodPass):
		return "TG/P"
	}
	return option
}

// FormatHTML renders the matrix as an HTML table fragment for card
// backs. currentPlayerAway/currentOpponentAway highlight the cell the
// source decision was actually played at; pass zeros to skip.
func FormatHTML(m Matrix, currentPlayerAway, currentOpponentAway int) string {
	if len(m.Cells) == 0 || len(m.Cells[0]) == 0 {
		return ""
	}

	var w strings.Builder
	w.WriteString("<div class=\"score-matrix\">\n")
	w.WriteString("<h3>Score Matrix for Initial Double</h3>\n")
	w.WriteString("<table class=\"score-matrix-table\">\n")

	w.WriteString("<tr><th></th>")
	for col := range m.Cells[0] {
		fmt.Fprintf(&w, "<th>%da</th>", col+2)
	}
	w.WriteString("</tr>\n")

	for rowIdx, row := range m.Cells {
		playerAway := rowIdx + 2
		fmt.Fprintf(&w, "<tr><th>%da</th>", playerAway)
		for colIdx, cell := range row {
			opponentAway := colIdx + 2
			classes := actionClass(cell.BestAction)
			if currentPlayerAway == playerAway && currentOpponentAway == opponentAway {
				classes += " current-score"
			}
			if cell.CloseDecision(CloseThreshold) {
				classes += " low-error"
			}
			fmt.Fprintf(&w, "<td class=\"%s\">", classes)
			fmt.Fprintf(&w, "<div class=\"action\">%s</div>", cell.BestAction)
			fmt.Fprintf(&w, "<div class=\"errors\">%s</div>", cell.FormatErrors())
			w.WriteString("</td>")
		}
		w.WriteString("</tr>\n")
	}

	w.WriteString("</table>\n</div>\n")
	return w.String()
}

func actionClass(action string) string {
	switch action {
	case "D/T":
		return "action-double-take"
	case "D/P":
		return "action-double-pass"
	case "N/T":
		return "action-no-double"
	case "TG/T", "TG/P":
		return "action-too-good"
	}
	return "action-unknown"
}
