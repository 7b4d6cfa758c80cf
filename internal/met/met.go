// Package met loads GNU Backgammon match-equity tables (the XML format
// gnubg ships, e.g. g11.xml) and answers away-score lookups. The
// score-matrix analysis uses it to annotate each score cell with the
// on-roll player's match-winning chances.
package met

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/ankigo/bgpipeline/internal/position"
)

// Table is a match equity table: the probability that TOP wins the
// match from a given pair of away scores.
//
// pre[i][j] = P(TOP wins | TOP needs i+1 points, BOTTOM needs j+1),
// before the Crawford game. post[k][i] = P(player k wins | player k
// needs i+1, opponent needs 1) in or after the Crawford game, with
// k=0 for TOP and k=1 for BOTTOM.
type Table struct {
	Name        string
	Description string
	Length      int

	pre  [][]float64
	post [2][]float64

	// rowFit[i] interpolates pre[i] over away scores 1..Length so that
	// lookups past the table's native length predict off the fitted
	// curve (interp.PiecewiseLinear holds the edge value beyond it).
	rowFit  []interp.PiecewiseLinear
	postFit [2]interp.PiecewiseLinear
}

// xml layout of gnubg's .xml MET files.
type xmlMET struct {
	XMLName      xml.Name          `xml:"met"`
	Info         xmlInfo           `xml:"info"`
	PreCrawford  xmlPreCrawford    `xml:"pre-crawford-table"`
	PostCrawford []xmlPostCrawford `xml:"post-crawford-table"`
}

type xmlInfo struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Length      int    `xml:"length"`
}

type xmlPreCrawford struct {
	Type string   `xml:"type,attr"`
	Rows []xmlRow `xml:"row"`
}

type xmlPostCrawford struct {
	Player string `xml:"player,attr"` // "0", "1", or "both"
	Type   string `xml:"type,attr"`
	Row    xmlRow `xml:"row"`
}

type xmlRow struct {
	Values []string `xml:"me"`
}

// LoadXML reads a match equity table from a gnubg-format XML file.
func LoadXML(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("met: open table: %w", err)
	}
	defer f.Close()
	return ParseXML(f)
}

// ParseXML parses a match equity table from gnubg's XML format.
func ParseXML(r io.Reader) (*Table, error) {
	var doc xmlMET
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("met: parse table XML: %w", err)
	}
	if doc.Info.Length <= 0 {
		return nil, fmt.Errorf("met: table declares length %d", doc.Info.Length)
	}

	t := &Table{
		Name:        doc.Info.Name,
		Description: doc.Info.Description,
		Length:      doc.Info.Length,
	}

	t.pre = make([][]float64, 0, len(doc.PreCrawford.Rows))
	for i, row := range doc.PreCrawford.Rows {
		vals := make([]float64, 0, len(row.Values))
		for j, raw := range row.Values {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("met: pre-crawford value [%d][%d]: %w", i, j, err)
			}
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("met: pre-crawford row %d is empty", i)
		}
		t.pre = append(t.pre, vals)
	}
	if len(t.pre) == 0 {
		return nil, fmt.Errorf("met: table has no pre-crawford rows")
	}

	for _, pc := range doc.PostCrawford {
		var players []int
		switch pc.Player {
		case "0":
			players = []int{0}
		case "1":
			players = []int{1}
		case "both", "":
			players = []int{0, 1}
		default:
			continue
		}
		vals := make([]float64, 0, len(pc.Row.Values))
		for j, raw := range pc.Row.Values {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("met: post-crawford value [%d]: %w", j, err)
			}
			vals = append(vals, v)
		}
		for _, p := range players {
			t.post[p] = vals
		}
	}
	for k := 0; k < 2; k++ {
		if len(t.post[k]) == 0 {
			t.post[k] = approxPostCrawford(t.Length)
		}
	}

	if err := t.fit(); err != nil {
		return nil, err
	}
	return t, nil
}

// Default returns an approximate table usable without a data file. The
// pre-Crawford entries follow the away-score ratio, the post-Crawford
// vector the Woolsey-Heinrich decay; both are close enough for cell
// annotation, not for play.
func Default() *Table {
	const length = 25
	t := &Table{
		Name:        "approximate",
		Description: "away-ratio approximation",
		Length:      length,
	}
	t.pre = make([][]float64, length)
	for i := range t.pre {
		t.pre[i] = make([]float64, length)
		for j := range t.pre[i] {
			t.pre[i][j] = float64(j+1) / float64(i+j+2)
		}
	}
	t.post[0] = approxPostCrawford(length)
	t.post[1] = approxPostCrawford(length)
	if err := t.fit(); err != nil {
		// Static construction over non-empty rows cannot fail to fit.
		panic(err)
	}
	return t
}

// approxPostCrawford is the Woolsey-Heinrich decay for the trailer's
// winning chances when the opponent sits at match point.
func approxPostCrawford(length int) []float64 {
	vals := make([]float64, length)
	for i := range vals {
		vals[i] = 1.0 / (1.0 + float64(i+1)*0.7)
	}
	return vals
}

// fit prepares the away-score interpolators. Single-entry rows get a
// two-point flat fit since PiecewiseLinear needs at least two samples.
func (t *Table) fit() error {
	t.rowFit = make([]interp.PiecewiseLinear, len(t.pre))
	for i, row := range t.pre {
		xs, ys := awaySamples(row)
		if err := t.rowFit[i].Fit(xs, ys); err != nil {
			return fmt.Errorf("met: fit row %d: %w", i, err)
		}
	}
	for k := 0; k < 2; k++ {
		xs, ys := awaySamples(t.post[k])
		if err := t.postFit[k].Fit(xs, ys); err != nil {
			return fmt.Errorf("met: fit post-crawford %d: %w", k, err)
		}
	}
	return nil
}

func awaySamples(row []float64) (xs, ys []float64) {
	if len(row) == 1 {
		return []float64{1, 2}, []float64{row[0], row[0]}
	}
	xs = make([]float64, len(row))
	ys = make([]float64, len(row))
	for i, v := range row {
		xs[i] = float64(i + 1)
		ys[i] = v
	}
	return xs, ys
}

// Chance returns pl's probability of winning the match from the given
// score. A matchLength of zero means money play, where the table has
// nothing to say and the answer is an even 0.5.
func (t *Table) Chance(scoreTop, scoreBottom, matchLength int, pl position.Player, crawford bool) float64 {
	if matchLength == 0 {
		return 0.5
	}

	awayTop := matchLength - scoreTop
	awayBottom := matchLength - scoreBottom

	var topChance float64
	switch {
	case awayTop <= 0:
		topChance = 1
	case awayBottom <= 0:
		topChance = 0
	case crawford && awayTop == 1:
		topChance = 1 - t.postChance(1, awayBottom)
	case crawford && awayBottom == 1:
		topChance = t.postChance(0, awayTop)
	default:
		topChance = t.preChance(awayTop, awayBottom)
	}

	if pl == position.Bottom {
		return 1 - topChance
	}
	return topChance
}

func (t *Table) preChance(awayTop, awayBottom int) float64 {
	row := awayTop
	if row > len(t.pre) {
		row = len(t.pre)
	}
	return t.rowFit[row-1].Predict(float64(awayBottom))
}

func (t *Table) postChance(player, away int) float64 {
	return t.postFit[player].Predict(float64(away))
}
