package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// MalformedGNUIDError reports a structurally invalid GNUID string.
type MalformedGNUIDError struct {
	Part   string
	Reason string
}

func (e *MalformedGNUIDError) Error() string {
	return fmt.Sprintf("malformed GNUID %s: %s", e.Part, e.Reason)
}

// DecodeGNUID parses a "PositionID:MatchID" GNUID string.
//
// Unlike XGID, the position ID's checker mapping is independent of who is
// on roll: it always holds TOP's (X's) 25 counts first, then BOTTOM's 25.
// Within each half, point i (0..23) is that player's own (i+1)-point and
// point 24 is that player's bar. Who is on roll only affects the match
// ID's turn bit.
func DecodeGNUID(s string) (position.Position, Metadata, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "GNUBGID="):
		s = s[len("GNUBGID="):]
	case strings.HasPrefix(upper, "GNUID="):
		s = s[len("GNUID="):]
	}

	parts := strings.SplitN(s, ":", 2)
	positionID := strings.TrimSpace(parts[0])
	if len(positionID) != 14 {
		return position.Position{}, Metadata{}, &MalformedGNUIDError{Part: "position", Reason: fmt.Sprintf("expected 14 characters, got %d", len(positionID))}
	}

	pos, err := decodeGNUIDPosition(positionID)
	if err != nil {
		return position.Position{}, Metadata{}, err
	}

	meta := Metadata{CubeValue: 1, CubeOwner: position.Centered, OnRoll: position.Top}
	if len(parts) == 2 {
		matchID := strings.TrimSpace(parts[1])
		if matchID != "" {
			meta, err = decodeGNUIDMatch(matchID)
			if err != nil {
				return position.Position{}, Metadata{}, err
			}
		}
	}

	return pos, meta, nil
}

func decodeGNUIDPosition(positionID string) (position.Position, error) {
	raw, err := base64.RawStdEncoding.DecodeString(positionID)
	if err != nil {
		return position.Position{}, &MalformedGNUIDError{Part: "position", Reason: "invalid base64: " + err.Error()}
	}
	if len(raw) != 10 {
		return position.Position{}, &MalformedGNUIDError{Part: "position", Reason: fmt.Sprintf("expected 10 decoded bytes, got %d", len(raw))}
	}

	// anBoard[0] is TOP's checker count per GNU Backgammon point 0..24
	// (point 24 is the bar), anBoard[1] is BOTTOM's, in the same layout.
	var anBoard [2][25]int
	bitIdx := 0
	totalBits := len(raw) * 8
	getBit := func(i int) int {
		if i >= totalBits {
			return 0
		}
		return int(raw[i/8]>>uint(i%8)) & 1
	}

	for player := 0; player < 2; player++ {
		for point := 0; point < 25; point++ {
			count := 0
			for bitIdx < totalBits && getBit(bitIdx) == 1 {
				count++
				bitIdx++
			}
			anBoard[player][point] = count
			if bitIdx < totalBits {
				bitIdx++ // skip separator
			}
		}
	}

	var p position.Position
	for i := 0; i < 24; i++ {
		ourPoint := 24 - i
		p.Slots[ourPoint] += int8(anBoard[0][i])
	}
	p.Slots[0] = int8(anBoard[0][24])

	for i := 0; i < 24; i++ {
		ourPoint := i + 1
		p.Slots[ourPoint] -= int8(anBoard[1][i])
	}
	p.Slots[25] = -int8(anBoard[1][24])

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

func decodeGNUIDMatch(matchID string) (Metadata, error) {
	if len(matchID) != 12 {
		return Metadata{}, &MalformedGNUIDError{Part: "match", Reason: fmt.Sprintf("expected 12 characters, got %d", len(matchID))}
	}
	raw, err := base64.RawStdEncoding.DecodeString(matchID)
	if err != nil {
		return Metadata{}, &MalformedGNUIDError{Part: "match", Reason: "invalid base64: " + err.Error()}
	}
	if len(raw) != 9 {
		return Metadata{}, &MalformedGNUIDError{Part: "match", Reason: fmt.Sprintf("expected 9 decoded bytes, got %d", len(raw))}
	}

	extract := func(start, count int) int {
		v := 0
		for i := 0; i < count; i++ {
			bitPos := start + i
			byteIdx := bitPos / 8
			if byteIdx >= len(raw) {
				break
			}
			bit := int(raw[byteIdx]>>uint(bitPos%8)) & 1
			v |= bit << uint(i)
		}
		return v
	}
	getBit := func(i int) int {
		byteIdx := i / 8
		if byteIdx >= len(raw) {
			return 0
		}
		return int(raw[byteIdx]>>uint(i%8)) & 1
	}

	cubeLog := extract(0, 4)
	cubeValue := 1
	if cubeLog < 15 {
		cubeValue = 1 << uint(cubeLog)
	}

	cubeOwnerBits := extract(4, 2)
	var cubeOwner position.CubeState
	switch cubeOwnerBits {
	case 3:
		cubeOwner = position.Centered
	case 0:
		cubeOwner = position.TopOwns
	default:
		cubeOwner = position.BottomOwns
	}

	crawford := getBit(7) == 1

	onRoll := position.Top
	if getBit(11) == 1 {
		onRoll = position.Bottom
	}

	die0 := extract(15, 3)
	die1 := extract(18, 3)
	var dice *[2]int
	if die0 > 0 && die1 > 0 {
		dice = &[2]int{die0, die1}
	}

	matchLength := extract(21, 15)
	scoreTop := extract(36, 15)
	scoreBottom := extract(51, 15)

	return Metadata{
		CubeValue:   cubeValue,
		CubeOwner:   cubeOwner,
		OnRoll:      onRoll,
		Dice:        dice,
		ScoreTop:    scoreTop,
		ScoreBottom: scoreBottom,
		Crawford:    crawford,
		MatchLength: matchLength,
	}, nil
}

// EncodeGNUID renders a Position and Metadata as a "PositionID:MatchID"
// GNUID string. If onlyPosition is true, the Match ID half is omitted.
func EncodeGNUID(p position.Position, m Metadata, onlyPosition bool) string {
	positionID := encodeGNUIDPosition(p)
	if onlyPosition {
		return positionID
	}
	return positionID + ":" + encodeGNUIDMatch(m)
}

func encodeGNUIDPosition(p position.Position) string {
	var anBoard [2][25]int
	for ourPoint := 1; ourPoint <= 24; ourPoint++ {
		if p.Slots[ourPoint] > 0 {
			anBoard[0][24-ourPoint] = int(p.Slots[ourPoint])
		}
	}
	anBoard[0][24] = int(p.Slots[0])

	for ourPoint := 1; ourPoint <= 24; ourPoint++ {
		if p.Slots[ourPoint] < 0 {
			anBoard[1][ourPoint-1] = int(-p.Slots[ourPoint])
		}
	}
	if p.Slots[25] < 0 {
		anBoard[1][24] = int(-p.Slots[25])
	}

	raw := make([]byte, 10)
	bitIdx := 0
	setBit := func() {
		if bitIdx < 80 {
			raw[bitIdx/8] |= 1 << uint(bitIdx%8)
		}
		bitIdx++
	}
	skipBit := func() {
		bitIdx++
	}

	for player := 0; player < 2; player++ {
		for point := 0; point < 25; point++ {
			for i := 0; i < anBoard[player][point]; i++ {
				setBit()
			}
			skipBit()
		}
	}

	return base64.RawStdEncoding.EncodeToString(raw)
}

func encodeGNUIDMatch(m Metadata) string {
	raw := make([]byte, 9)
	setBits := func(start, count, value int) {
		for i := 0; i < count; i++ {
			bit := (value >> uint(i)) & 1
			if bit == 0 {
				continue
			}
			bitPos := start + i
			raw[bitPos/8] |= 1 << uint(bitPos%8)
		}
	}

	cubeValue := m.CubeValue
	if cubeValue <= 0 {
		cubeValue = 1
	}
	setBits(0, 4, log2(cubeValue))

	cubeOwnerVal := 3
	switch m.CubeOwner {
	case position.TopOwns:
		cubeOwnerVal = 0
	case position.BottomOwns:
		cubeOwnerVal = 1
	}
	setBits(4, 2, cubeOwnerVal)

	if m.Crawford {
		setBits(7, 1, 1)
	}

	setBits(8, 3, 1) // game state: playing

	if m.OnRoll == position.Bottom {
		setBits(11, 1, 1)
	}

	if m.Dice != nil {
		setBits(15, 3, m.Dice[0])
		setBits(18, 3, m.Dice[1])
	}

	setBits(21, 15, m.MatchLength)
	setBits(36, 15, m.ScoreTop)
	setBits(51, 15, m.ScoreBottom)

	return base64.RawStdEncoding.EncodeToString(raw)
}
