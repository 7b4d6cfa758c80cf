// Package codec implements the three wire-level position formats the
// pipeline ingests and emits: XGID, GNUID and OGID.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// MaxCubeLog2Cap is the conservative upper bound on an XGID's max-cube
// field; values above it are rejected as malformed (SPEC_FULL.md Open
// Question #1).
const MaxCubeLog2Cap = 15

// MalformedXGIDError reports a structurally invalid XGID string, naming the
// offending field index (0-based, position string is field 0).
type MalformedXGIDError struct {
	Field  int
	Reason string
}

func (e *MalformedXGIDError) Error() string {
	return fmt.Sprintf("malformed XGID at field %d: %s", e.Field, e.Reason)
}

// Metadata carries the match-context fields that ride alongside a Position
// in a wire format, independent of which codec produced them.
type Metadata struct {
	CubeValue   int
	CubeOwner   position.CubeState
	OnRoll      position.Player
	Dice        *[2]int
	ScoreTop    int
	ScoreBottom int
	Crawford    bool
	MatchLength int
	MaxCube     int
}

// DecodeXGID parses an "XGID=..." string into a Position and Metadata.
func DecodeXGID(s string) (position.Position, Metadata, error) {
	s = strings.TrimPrefix(s, "XGID=")

	parts := strings.Split(s, ":")
	if len(parts) != 10 {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: -1, Reason: fmt.Sprintf("expected 10 colon-delimited fields, got %d", len(parts))}
	}

	posStr := parts[0]
	if len(posStr) != 26 {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 0, Reason: "position field must be 26 characters"}
	}

	cubeLog, err := strconv.Atoi(parts[1])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 1, Reason: "cube log2 is not an integer"}
	}
	cubePos, err := strconv.Atoi(parts[2])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 2, Reason: "cube position is not an integer"}
	}
	turn, err := strconv.Atoi(parts[3])
	if err != nil || (turn != 1 && turn != -1) {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 3, Reason: "turn must be 1 or -1"}
	}

	diceField := strings.ToUpper(strings.TrimSpace(parts[4]))
	var dice *[2]int
	switch {
	case diceField == "00" || diceField == "D" || diceField == "B" || diceField == "R":
		// no rolled dice to report
	case len(diceField) == 2 && diceField[0] >= '0' && diceField[0] <= '9' && diceField[1] >= '0' && diceField[1] <= '9':
		d0 := int(diceField[0] - '0')
		d1 := int(diceField[1] - '0')
		if d0 < 1 || d0 > 6 || d1 < 1 || d1 > 6 {
			return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 4, Reason: "dice values must be in 1..6"}
		}
		dice = &[2]int{d0, d1}
	default:
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 4, Reason: "unrecognized dice field"}
	}

	scoreBottom, err := strconv.Atoi(parts[5])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 5, Reason: "score field is not an integer"}
	}
	scoreTop, err := strconv.Atoi(parts[6])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 6, Reason: "score field is not an integer"}
	}
	crawfordJacoby, err := strconv.Atoi(parts[7])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 7, Reason: "crawford/jacoby field is not an integer"}
	}
	matchLength, err := strconv.Atoi(parts[8])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 8, Reason: "match length is not an integer"}
	}
	maxCubeLog, err := strconv.Atoi(parts[9])
	if err != nil {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 9, Reason: "max cube field is not an integer"}
	}
	if maxCubeLog > MaxCubeLog2Cap {
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 9, Reason: fmt.Sprintf("max cube log2 %d exceeds cap of %d", maxCubeLog, MaxCubeLog2Cap)}
	}

	pos, err := decodeXGIDPosition(posStr, turn)
	if err != nil {
		return position.Position{}, Metadata{}, err
	}

	var cubeOwner position.CubeState
	switch cubePos {
	case 0:
		cubeOwner = position.Centered
	case -1:
		cubeOwner = position.TopOwns
	case 1:
		cubeOwner = position.BottomOwns
	default:
		return position.Position{}, Metadata{}, &MalformedXGIDError{Field: 2, Reason: "cube position must be -1, 0 or 1"}
	}

	onRoll := position.Bottom
	if turn == -1 {
		onRoll = position.Top
	}

	meta := Metadata{
		CubeValue:   1 << uint(max0(cubeLog)),
		CubeOwner:   cubeOwner,
		OnRoll:      onRoll,
		Dice:        dice,
		ScoreTop:    scoreTop,
		ScoreBottom: scoreBottom,
		Crawford:    crawfordJacoby != 0,
		MatchLength: matchLength,
		MaxCube:     1 << uint(max0(maxCubeLog)),
	}

	return pos, meta, nil
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// decodeXGIDPosition applies the turn-keyed dual decode described in
// SPEC_FULL.md §4.2: under turn=1 the 26 characters map directly onto
// slots 0..25; under turn=-1 the whole layout (bars, board order, and the
// lowercase/uppercase meaning) is mirrored.
func decodeXGIDPosition(posStr string, turn int) (position.Position, error) {
	var p position.Position

	decodeAt := func(idx int) (int8, error) {
		v, err := decodeXGIDChar(posStr[idx], turn)
		if err != nil {
			return 0, &MalformedXGIDError{Field: 0, Reason: err.Error()}
		}
		return v, nil
	}

	if turn == 1 {
		for i := 0; i <= 25; i++ {
			v, err := decodeAt(i)
			if err != nil {
				return position.Position{}, err
			}
			p.Slots[i] = v
		}
	} else {
		v0, err := decodeAt(25)
		if err != nil {
			return position.Position{}, err
		}
		p.Slots[0] = v0

		v25, err := decodeAt(0)
		if err != nil {
			return position.Position{}, err
		}
		p.Slots[25] = v25

		for i := 1; i <= 24; i++ {
			v, err := decodeAt(25 - i)
			if err != nil {
				return position.Position{}, err
			}
			p.Slots[i] = v
		}
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

	return p, nil
}

// decodeXGIDChar decodes a single position character under the given turn
// convention. turn=1: lowercase is TOP (positive), uppercase is BOTTOM
// (negative). turn=-1: the meanings swap.
func decodeXGIDChar(ch byte, turn int) (int8, error) {
	if ch == '-' {
		return 0, nil
	}
	var count int8
	var lower bool
	switch {
	case ch >= 'a' && ch <= 'p':
		count = int8(ch-'a') + 1
		lower = true
	case ch >= 'A' && ch <= 'P':
		count = int8(ch-'A') + 1
		lower = false
	default:
		return 0, fmt.Errorf("invalid position character %q", ch)
	}
	if turn == 1 {
		if lower {
			return count, nil
		}
		return -count, nil
	}
	if lower {
		return -count, nil
	}
	return count, nil
}

// EncodeXGID renders a Position and Metadata as a canonical "XGID=..."
// string.
//
// When on_roll is TOP, the position is first mirrored (sign-flip and
// index-reverse) before absolute encoding, so that decoding the result
// with turn=-1 recovers the original Position exactly — the perspective
// flip round-trips (SPEC_FULL.md §8 Testable Property 3). The reference
// Python encoder always emits the absolute layout regardless of on_roll,
// which only round-trips for turn=1; we resolve that ambiguity toward the
// literal round-trip law in spec.md.
func EncodeXGID(p position.Position, m Metadata) string {
	encodeSrc := p
	turn := 1
	if m.OnRoll == position.Top {
		turn = -1
		var mirrored position.Position
		for k := 0; k <= 25; k++ {
			mirrored.Slots[k] = -p.Slots[25-k]
		}
		mirrored.TopOff = p.BottomOff
		mirrored.BottomOff = p.TopOff
		encodeSrc = mirrored
	}

	var b strings.Builder
	for i := 0; i <= 25; i++ {
		b.WriteByte(encodeXGIDChar(encodeSrc.Slots[i]))
	}
	posStr := b.String()

	cubeLog := log2(m.CubeValue)

	cubePos := 0
	switch m.CubeOwner {
	case position.TopOwns:
		cubePos = -1
	case position.BottomOwns:
		cubePos = 1
	}

	diceStr := "00"
	if m.Dice != nil {
		diceStr = fmt.Sprintf("%d%d", m.Dice[0], m.Dice[1])
	}

	crawfordJacoby := 0
	if m.Crawford {
		crawfordJacoby = 1
	}

	maxCube := m.MaxCube
	if maxCube == 0 {
		maxCube = 256
	}
	maxCubeLog := log2(maxCube)

	return fmt.Sprintf("XGID=%s:%d:%d:%d:%s:%d:%d:%d:%d:%d",
		posStr, cubeLog, cubePos, turn, diceStr,
		m.ScoreBottom, m.ScoreTop, crawfordJacoby, m.MatchLength, maxCubeLog)
}

func encodeXGIDChar(v int8) byte {
	if v == 0 {
		return '-'
	}
	if v > 0 {
		n := v
		if n > 16 {
			n = 16
		}
		return 'a' + byte(n-1)
	}
	n := -v
	if n > 16 {
		n = 16
	}
	return 'A' + byte(n-1)
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v /= 2
		n++
	}
	return n
}
