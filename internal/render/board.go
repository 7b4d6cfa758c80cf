// Package render draws a Position to deterministic SVG markup: no
// randomness, no timestamps, no layout that varies run to run for the
// same inputs.
package render

import (
	"fmt"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// Orientation picks which half of the board points 1-24 sit in.
type Orientation string

const (
	CounterClockwise Orientation = "counter-clockwise"
	Clockwise        Orientation = "clockwise"
)

// Board renders positions to SVG using a fixed 900x600 viewBox and a
// configured color scheme and orientation.
type Board struct {
	Width             int
	Height            int
	PointHeightRatio  float64
	Scheme            ColorScheme
	Orientation       Orientation

	margin          float64
	cubeAreaWidth   float64
	bearoffWidth    float64
	playingWidth    float64
	boardHeight     float64
	barWidth        float64
	halfWidth       float64
	pointWidth      float64
	pointHeight     float64
	checkerRadius   float64
}

// NewBoard builds a Board with the fixed geometry constants and derives
// the dependent dimensions once, up front.
func NewBoard(scheme ColorScheme, orientation Orientation) *Board {
	b := &Board{
		Width:            900,
		Height:           600,
		PointHeightRatio: 0.45,
		Scheme:           scheme,
		Orientation:      orientation,
		margin:           20,
		cubeAreaWidth:    70,
		bearoffWidth:     100,
	}
	b.playingWidth = float64(b.Width) - 2*b.margin - b.cubeAreaWidth - b.bearoffWidth
	b.boardHeight = float64(b.Height) - 2*b.margin
	b.barWidth = b.playingWidth * 0.08
	b.halfWidth = (b.playingWidth - b.barWidth) / 2
	b.pointWidth = b.halfWidth / 6
	b.pointHeight = b.boardHeight * b.PointHeightRatio
	b.checkerRadius = minFloat(b.pointWidth*0.45, 25)
	return b
}

// Render draws pos as a complete SVG document. dice may be nil when no
// roll is pending.
func (b *Board) Render(pos position.Position, onRoll position.Player, dice *[2]int, cubeValue int, cubeOwner position.CubeState) string {
	var out strings.Builder

	boardX := b.margin + b.cubeAreaWidth
	boardY := b.margin

	fmt.Fprintf(&out, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" class="backgammon-board">`, b.Width, b.Height)
	b.writeStyles(&out)
	b.writeFullBackground(&out)
	b.writeBoardBackground(&out, boardX, boardY)
	b.writeBar(&out, boardX, boardY)
	b.writePoints(&out, boardX, boardY)
	b.writeCheckers(&out, pos, boardX, boardY)
	b.writeBearoff(&out, pos, boardX, boardY)
	if dice != nil {
		b.writeDice(&out, *dice, boardX, boardY)
	}
	b.writeCube(&out, cubeValue, cubeOwner, boardY)
	b.writePipCounts(&out, pos, boardX, boardY)
	out.WriteString(`</svg>`)

	return out.String()
}

func (b *Board) writeStyles(w *strings.Builder) {
	fmt.Fprintf(w, `<defs><style>
.backgammon-board{max-width:100%%;height:auto;}
.point{stroke:%s;stroke-width:1;}
.checker{stroke:%s;stroke-width:2;}
.checker-top{fill:%s;}
.checker-bottom{fill:%s;}
.checker-text{font-family:Arial,sans-serif;font-weight:bold;text-anchor:middle;dominant-baseline:middle;}
.point-label{font-family:Arial,sans-serif;font-size:10px;fill:%s;text-anchor:middle;}
.pip-count{font-family:Arial,sans-serif;font-size:12px;fill:%s;}
.die{fill:#FFFFFF;stroke:#000000;stroke-width:2;}
.die-pip{fill:#000000;}
.cube{fill:#FFD700;stroke:#000000;stroke-width:2;}
.cube-text{font-family:Arial,sans-serif;font-size:32px;font-weight:bold;fill:#000000;text-anchor:middle;dominant-baseline:middle;}
</style></defs>`,
		b.Scheme.BoardDark, b.Scheme.CheckerBorder, b.Scheme.CheckerTop, b.Scheme.CheckerBottom,
		b.Scheme.Text, b.Scheme.Text)
}

func (b *Board) writeFullBackground(w *strings.Builder) {
	fmt.Fprintf(w, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, b.Width, b.Height, b.Scheme.BoardLight)
}

func (b *Board) writeBoardBackground(w *strings.Builder, boardX, boardY float64) {
	fmt.Fprintf(w, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="3"/>`,
		boardX, boardY, b.playingWidth, b.boardHeight, b.Scheme.BoardLight, b.Scheme.BoardDark)
}

func (b *Board) writeBar(w *strings.Builder, boardX, boardY float64) {
	barX := boardX + b.halfWidth
	fmt.Fprintf(w, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="2"/>`,
		barX, boardY, b.barWidth, b.boardHeight, b.Scheme.Bar, b.Scheme.BoardDark)
}

// visualIndex maps a board point number (1-24) to a 0-23 visual slot.
// Counter-clockwise is the identity layout; clockwise mirrors each half
// horizontally, swapping point-color parity with it.
func (b *Board) visualIndex(point int) int {
	if b.Orientation == Clockwise {
		if point <= 12 {
			return 12 - point
		}
		return 36 - point
	}
	return point - 1
}

// quadrant returns the top-left x of point's triangle, its baseline y,
// and whether it hangs from the top edge, given a visual index 0-23.
func (b *Board) quadrant(visualIdx int, boardX, boardY float64) (x, yBase float64, isTop bool) {
	switch {
	case visualIdx < 6:
		x = boardX + b.halfWidth + b.barWidth + float64(5-visualIdx)*b.pointWidth
		return x, boardY + b.boardHeight, false
	case visualIdx < 12:
		x = boardX + float64(11-visualIdx)*b.pointWidth
		return x, boardY + b.boardHeight, false
	case visualIdx < 18:
		x = boardX + float64(visualIdx-12)*b.pointWidth
		return x, boardY, true
	default:
		x = boardX + b.halfWidth + b.barWidth + float64(visualIdx-18)*b.pointWidth
		return x, boardY, true
	}
}

func (b *Board) writePoints(w *strings.Builder, boardX, boardY float64) {
	w.WriteString(`<g class="points">`)
	for point := 1; point <= 24; point++ {
		visualIdx := b.visualIndex(point)
		x, yBase, isTop := b.quadrant(visualIdx, boardX, boardY)

		yTip := yBase - b.pointHeight
		labelY := yBase + 13
		if isTop {
			yTip = yBase + b.pointHeight
			labelY = yBase - 5
		}

		color := b.Scheme.PointLight
		if point%2 == 1 {
			color = b.Scheme.PointDark
		}

		xMid := x + b.pointWidth/2
		fmt.Fprintf(w, `<polygon class="point" points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"/>`,
			x, yBase, x+b.pointWidth, yBase, xMid, yTip, color)
		fmt.Fprintf(w, `<text class="point-label" x="%.2f" y="%.2f">%d</text>`, xMid, labelY, point)
	}
	w.WriteString(`</g>`)
}

const maxStackedCheckers = 5

func (b *Board) writeCheckers(w *strings.Builder, pos position.Position, boardX, boardY float64) {
	w.WriteString(`<g class="checkers">`)
	for point := 1; point <= 24; point++ {
		count := int(pos.Slots[point])
		if count == 0 {
			continue
		}

		player := position.Top
		if count < 0 {
			player = position.Bottom
		}
		n := count
		if n < 0 {
			n = -n
		}

		x, yBase, isTop := b.quadrant(b.visualIndex(point), boardX, boardY)
		cx := x + b.pointWidth/2

		visible := n
		if visible > maxStackedCheckers {
			visible = maxStackedCheckers
		}
		for i := 0; i < visible; i++ {
			y := b.stackY(yBase, isTop, i)
			if i == maxStackedCheckers-1 && n > maxStackedCheckers {
				b.writeCheckerWithNumber(w, cx, y, player, n)
			} else {
				b.writeChecker(w, cx, y, player)
			}
		}
	}
	b.writeBarCheckers(w, pos, boardX, boardY)
	w.WriteString(`</g>`)
}

func (b *Board) stackY(yBase float64, isTop bool, i int) float64 {
	step := b.checkerRadius*2 + 2
	if isTop {
		return yBase + b.checkerRadius + float64(i)*step
	}
	return yBase - b.checkerRadius - float64(i)*step
}

func (b *Board) writeChecker(w *strings.Builder, cx, cy float64, player position.Player) {
	class := "checker-top"
	if player == position.Bottom {
		class = "checker-bottom"
	}
	fmt.Fprintf(w, `<circle class="checker %s" cx="%.2f" cy="%.2f" r="%.2f"/>`, class, cx, cy, b.checkerRadius)
}

func (b *Board) writeCheckerWithNumber(w *strings.Builder, cx, cy float64, player position.Player, n int) {
	class := "checker-top"
	textColor := b.Scheme.CheckerBottom
	if player == position.Bottom {
		class = "checker-bottom"
		textColor = b.Scheme.CheckerTop
	}
	fmt.Fprintf(w, `<circle class="checker %s" cx="%.2f" cy="%.2f" r="%.2f"/>`, class, cx, cy, b.checkerRadius)
	fmt.Fprintf(w, `<text class="checker-text" x="%.2f" y="%.2f" font-size="%.2f" fill="%s">%d</text>`,
		cx, cy, b.checkerRadius*1.2, textColor, n)
}

const maxVisibleBarCheckers = 3

func (b *Board) writeBarCheckers(w *strings.Builder, pos position.Position, boardX, boardY float64) {
	barCenterX := boardX + b.halfWidth + b.barWidth/2
	boardCenterY := boardY + b.boardHeight/2
	separation := b.checkerRadius*2 + 10

	topCount := int(pos.Slots[0])
	if topCount < 0 {
		topCount = 0
	}
	bottomCount := -int(pos.Slots[25])
	if bottomCount < 0 {
		bottomCount = 0
	}

	b.writeBarStack(w, barCenterX, topCount, position.Top, boardCenterY+separation, 1)
	b.writeBarStack(w, barCenterX, bottomCount, position.Bottom, boardCenterY-separation, -1)
}

func (b *Board) writeBarStack(w *strings.Builder, cx float64, count int, player position.Player, startY float64, direction int) {
	if count <= 0 {
		return
	}
	visible := count
	if visible > maxVisibleBarCheckers {
		visible = maxVisibleBarCheckers
	}
	step := b.checkerRadius*2 + 2
	for i := 0; i < visible; i++ {
		y := startY + float64(direction)*float64(i)*step
		if i == visible-1 && count > visible {
			b.writeCheckerWithNumber(w, cx, y, player, count)
		} else {
			b.writeChecker(w, cx, y, player)
		}
	}
}

func (b *Board) writeBearoff(w *strings.Builder, pos position.Position, boardX, boardY float64) {
	w.WriteString(`<g class="bearoff">`)

	bearoffX := boardX + b.playingWidth + 10
	bearoffWidth := b.bearoffWidth - 20

	const (
		checkerWidth    = 10.0
		checkerHeight   = 50.0
		checkerSpacingX = 3.0
		checkerSpacingY = 4.0
		checkersPerRow  = 5
	)

	trayTop := boardY + 10
	trayBottom := boardY + b.boardHeight/2 - 10
	fmt.Fprintf(w, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="2"/>`,
		bearoffX, trayTop, bearoffWidth, trayBottom-trayTop, b.Scheme.Bearoff, b.Scheme.BoardDark)
	b.writeBearoffStack(w, pos.TopOff, b.Scheme.CheckerTop, bearoffX, bearoffWidth, trayBottom, checkerWidth, checkerHeight, checkerSpacingX, checkerSpacingY, checkersPerRow)

	trayTop = boardY + b.boardHeight/2 + 10
	trayBottom = boardY + b.boardHeight - 10
	fmt.Fprintf(w, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="2"/>`,
		bearoffX, trayTop, bearoffWidth, trayBottom-trayTop, b.Scheme.Bearoff, b.Scheme.BoardDark)
	b.writeBearoffStack(w, pos.BottomOff, b.Scheme.CheckerBottom, bearoffX, bearoffWidth, trayBottom, checkerWidth, checkerHeight, checkerSpacingX, checkerSpacingY, checkersPerRow)

	w.WriteString(`</g>`)
}

func (b *Board) writeBearoffStack(w *strings.Builder, count int, color string, bearoffX, bearoffWidth, trayBottom, checkerWidth, checkerHeight, checkerSpacingX, checkerSpacingY float64, checkersPerRow int) {
	if count <= 0 {
		return
	}
	rowWidth := float64(checkersPerRow)*checkerWidth + float64(checkersPerRow-1)*checkerSpacingX
	startX := bearoffX + (bearoffWidth-rowWidth)/2
	startY := trayBottom - 10 - checkerHeight

	for i := 0; i < count; i++ {
		row := i / checkersPerRow
		col := i % checkersPerRow
		x := startX + float64(col)*(checkerWidth+checkerSpacingX)
		y := startY - float64(row)*(checkerHeight+checkerSpacingY)
		fmt.Fprintf(w, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="1"/>`,
			x, y, checkerWidth, checkerHeight, color, b.Scheme.CheckerBorder)
	}
}

var pipPositionTable = map[int][][2]float64{
	1: {{0.5, 0.5}},
	2: {{0.25, 0.25}, {0.75, 0.75}},
	3: {{0.25, 0.25}, {0.5, 0.5}, {0.75, 0.75}},
	4: {{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}},
	5: {{0.25, 0.25}, {0.75, 0.25}, {0.5, 0.5}, {0.25, 0.75}, {0.75, 0.75}},
	6: {{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.5}, {0.75, 0.5}, {0.25, 0.75}, {0.75, 0.75}},
}

func (b *Board) writeDice(w *strings.Builder, dice [2]int, boardX, boardY float64) {
	const dieSize = 50.0
	const dieSpacing = 15.0

	w.WriteString(`<g class="dice">`)

	totalWidth := 2*dieSize + dieSpacing
	rightHalfStart := boardX + b.halfWidth + b.barWidth
	dieX := rightHalfStart + (b.halfWidth-totalWidth)/2
	dieY := boardY + (b.boardHeight-dieSize)/2

	b.writeDie(w, dieX, dieY, dieSize, dice[0])
	b.writeDie(w, dieX+dieSize+dieSpacing, dieY, dieSize, dice[1])

	w.WriteString(`</g>`)
}

func (b *Board) writeDie(w *strings.Builder, x, y, size float64, value int) {
	fmt.Fprintf(w, `<rect class="die" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="5"/>`, x, y, size, size)
	pipRadius := size / 10
	for _, p := range pipPositionTable[value] {
		fmt.Fprintf(w, `<circle class="die-pip" cx="%.2f" cy="%.2f" r="%.2f"/>`, x+p[0]*size, y+p[1]*size, pipRadius)
	}
}

func (b *Board) writeCube(w *strings.Builder, cubeValue int, cubeOwner position.CubeState, boardY float64) {
	const cubeSize = 50.0
	cubeAreaX := b.margin + 10
	cubeAreaCenter := cubeAreaX + (b.cubeAreaWidth-20)/2
	cubeX := cubeAreaCenter - cubeSize/2

	var cubeY float64
	switch cubeOwner {
	case position.Centered:
		cubeY = boardY + (b.boardHeight-cubeSize)/2
	case position.BottomOwns:
		cubeY = boardY + b.boardHeight - cubeSize - 10
	default: // TopOwns
		cubeY = boardY + 10
	}

	text := fmt.Sprintf("%d", cubeValue)
	if cubeOwner == position.Centered {
		text = "64"
	}

	fmt.Fprintf(w, `<g class="cube"><rect class="cube" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="3"/>`+
		`<text class="cube-text" x="%.2f" y="%.2f">%s</text></g>`,
		cubeX, cubeY, cubeSize, cubeSize, cubeX+cubeSize/2, cubeY+cubeSize/2, text)
}

func (b *Board) writePipCounts(w *strings.Builder, pos position.Position, boardX, boardY float64) {
	topPips := pos.PipCount(position.Top)
	bottomPips := pos.PipCount(position.Bottom)

	textX := boardX + b.playingWidth + 15
	topY := boardY + 10 + 12
	bottomY := boardY + b.boardHeight/2 + 10 + 12

	fmt.Fprintf(w, `<g class="pip-counts"><text class="pip-count" x="%.2f" y="%.2f">Pip: %d</text>`+
		`<text class="pip-count" x="%.2f" y="%.2f">Pip: %d</text></g>`,
		textX, topY, topPips, textX, bottomY, bottomPips)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
