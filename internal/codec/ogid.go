package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// MalformedOGIDError reports a structurally invalid OGID string.
type MalformedOGIDError struct {
	Field  int
	Reason string
}

func (e *MalformedOGIDError) Error() string {
	return fmt.Sprintf("malformed OGID at field %d: %s", e.Field, e.Reason)
}

// ogidPointFieldLen is 24 board points plus one trailing bar digit, per
// player, per spec.md §4.2.3.
const ogidPointFieldLen = 25

// DecodeOGID parses an OGID string.
//
// OGID has no rigorous upstream specification in the source material this
// pipeline was built against: this codec is grounded entirely on spec.md's
// textual description (colon-delimited, per-player point lists in the
// XGID alphabet, followed by cube/dice/turn/game-state/score/match-length
// fields) and is best-effort for strings this codec itself produced, not
// an interop guarantee with any external OGID producer (spec.md Open
// Question #3).
//
// Layout: "<topPoints>:<bottomPoints>:<cubeValue>:<cubeOwner>:<dice>:<turn>:<crawford>:<scoreTop>:<scoreBottom>:<matchLength>"
// Each point-list field holds 24 characters for that player's own 1-point
// through 24-point, followed by one character for that player's bar count,
// each a magnitude with no sign: '-' for none, '0'-'9' for 1-10 checkers,
// 'a'-'p' for 11-26.
func DecodeOGID(s string) (position.Position, Metadata, error) {
	s = strings.TrimPrefix(s, "OGID=")
	parts := strings.Split(s, ":")
	if len(parts) != 10 {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: -1, Reason: fmt.Sprintf("expected 10 colon-delimited fields, got %d", len(parts))}
	}

	var p position.Position

	if err := decodeOGIDPoints(parts[0], position.Top, &p); err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 0, Reason: err.Error()}
	}
	if err := decodeOGIDPoints(parts[1], position.Bottom, &p); err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 1, Reason: err.Error()}
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

	cubeValue, err := strconv.Atoi(parts[2])
	if err != nil || cubeValue < 1 {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 2, Reason: "cube value must be a positive integer"}
	}

	cubeOwnerCode, err := strconv.Atoi(parts[3])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 3, Reason: "cube owner is not an integer"}
	}
	var cubeOwner position.CubeState
	switch cubeOwnerCode {
	case 0:
		cubeOwner = position.Centered
	case -1:
		cubeOwner = position.TopOwns
	case 1:
		cubeOwner = position.BottomOwns
	default:
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 3, Reason: "cube owner must be -1, 0 or 1"}
	}

	diceField := strings.ToUpper(strings.TrimSpace(parts[4]))
	var dice *[2]int
	if diceField != "00" && diceField != "" {
		if len(diceField) != 2 {
			return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 4, Reason: "dice field must be two digits or 00"}
		}
		d0 := int(diceField[0] - '0')
		d1 := int(diceField[1] - '0')
		if d0 < 1 || d0 > 6 || d1 < 1 || d1 > 6 {
			return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 4, Reason: "dice values must be in 1..6"}
		}
		dice = &[2]int{d0, d1}
	}

	turn, err := strconv.Atoi(parts[5])
	if err != nil || (turn != 1 && turn != -1) {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 5, Reason: "turn must be 1 or -1"}
	}
	onRoll := position.Bottom
	if turn == -1 {
		onRoll = position.Top
	}

	crawfordField, err := strconv.Atoi(parts[6])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 6, Reason: "game-state field is not an integer"}
	}

	scoreTop, err := strconv.Atoi(parts[7])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 7, Reason: "score field is not an integer"}
	}
	scoreBottom, err := strconv.Atoi(parts[8])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 8, Reason: "score field is not an integer"}
	}
	matchLength, err := strconv.Atoi(parts[9])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedOGIDError{Field: 9, Reason: "match length is not an integer"}
	}

	meta := Metadata{
		CubeValue:   cubeValue,
		CubeOwner:   cubeOwner,
		OnRoll:      onRoll,
		Dice:        dice,
		ScoreTop:    scoreTop,
		ScoreBottom: scoreBottom,
		Crawford:    crawfordField != 0,
		MatchLength: matchLength,
	}

	return p, meta, nil
}

// decodeOGIDPoints fills in pl's own points (and bar) from a 25-character
// field: index N-1 (N=1..24) holds pl's N-point count, index 24 holds pl's
// bar count.
func decodeOGIDPoints(field string, pl position.Player, p *position.Position) error {
	if len(field) != ogidPointFieldLen {
		return fmt.Errorf("expected %d characters, got %d", ogidPointFieldLen, len(field))
	}
	for n := 1; n <= 24; n++ {
		mag, err := decodeOGIDDigit(field[n-1])
		if err != nil {
			return err
		}
		if mag == 0 {
			continue
		}
		slot := ogidSlotForPoint(pl, n)
		if pl == position.Top {
			p.Slots[slot] += mag
		} else {
			p.Slots[slot] -= mag
		}
	}
	bar, err := decodeOGIDDigit(field[24])
	if err != nil {
		return err
	}
	if pl == position.Top {
		p.Slots[0] += bar
	} else {
		p.Slots[25] -= bar
	}
	return nil
}

// ogidSlotForPoint maps a player's own point number (1..24) to the
// internal slot index: TOP's Nth point sits at slot 25-N (N pips from
// home, see PipCount), BOTTOM's Nth point sits directly at slot N.
func ogidSlotForPoint(pl position.Player, n int) int {
	if pl == position.Top {
		return 25 - n
	}
	return n
}

func decodeOGIDDigit(ch byte) (int8, error) {
	if ch == '-' {
		return 0, nil
	}
	switch {
	case ch >= '0' && ch <= '9':
		return int8(ch-'0') + 1, nil
	case ch >= 'a' && ch <= 'p':
		return int8(ch-'a') + 11, nil
	default:
		return 0, fmt.Errorf("invalid point digit %q", ch)
	}
}

func encodeOGIDDigit(v int8) byte {
	if v <= 0 {
		return '-'
	}
	if v <= 10 {
		return '0' + byte(v-1)
	}
	n := v - 10
	if n > 16 {
		n = 16
	}
	return 'a' + byte(n-1)
}

// EncodeOGID renders a Position and Metadata as an OGID string. Round-trips
// exactly for positions this codec itself decoded or constructed; see the
// package-level note on DecodeOGID about interop with other producers.
func EncodeOGID(p position.Position, m Metadata) string {
	topField := encodeOGIDPoints(p, position.Top)
	bottomField := encodeOGIDPoints(p, position.Bottom)

	cubeOwnerCode := 0
	switch m.CubeOwner {
	case position.TopOwns:
		cubeOwnerCode = -1
	case position.BottomOwns:
		cubeOwnerCode = 1
	}

	diceStr := "00"
	if m.Dice != nil {
		diceStr = fmt.Sprintf("%d%d", m.Dice[0], m.Dice[1])
	}

	turn := 1
	if m.OnRoll == position.Top {
		turn = -1
	}

	crawford := 0
	if m.Crawford {
		crawford = 1
	}

	cubeValue := m.CubeValue
	if cubeValue <= 0 {
		cubeValue = 1
	}

	return fmt.Sprintf("%s:%s:%d:%d:%s:%d:%d:%d:%d:%d",
		topField, bottomField, cubeValue, cubeOwnerCode, diceStr, turn, crawford,
		m.ScoreTop, m.ScoreBottom, m.MatchLength)
}

func encodeOGIDPoints(p position.Position, pl position.Player) string {
	var b strings.Builder
	for n := 1; n <= 24; n++ {
		slot := ogidSlotForPoint(pl, n)
		v := p.Slots[slot]
		var mag int8
		if pl == position.Top && v > 0 {
			mag = v
		} else if pl == position.Bottom && v < 0 {
			mag = -v
		}
		b.WriteByte(encodeOGIDDigit(mag))
	}
	var bar int8
	if pl == position.Top {
		bar = p.Slots[0]
	} else {
		bar = -p.Slots[25]
	}
	b.WriteByte(encodeOGIDDigit(bar))
	return b.String()
}
