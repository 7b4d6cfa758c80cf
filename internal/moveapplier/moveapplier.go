// Package moveapplier parses backgammon move notation and legally
// transforms a Position under it, including hits, bar entry, bear-off and
// hop repetition.
package moveapplier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// Hop is one parsed FROM/TO pair, already expanded out of any "(N)" repeat
// suffix (each repetition becomes its own Hop).
type Hop struct {
	From string // "bar" or a point number 1..24, in the mover's own numbering
	To   string // "bar", "off", or a point number 1..24
	Hit  bool   // notation carried a trailing '*'; informational only
}

// ParseError reports notation this package could not parse at all (as
// opposed to a legal-but-skipped hop, which is reported separately).
type ParseError struct {
	Notation string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse move notation %q: %s", e.Notation, e.Reason)
}

// cannotMoveSentinel is the literal notation used by analyzers to report
// that the player on roll has no legal move.
const cannotMoveSentinel = "cannot move"

// ParseNotation splits a notation string into its constituent hops,
// expanding any "(N)" repeat suffix. Returns ok=false (no error) for the
// "Cannot move" sentinel, which carries no hops.
func ParseNotation(notation string) (hops []Hop, ok bool, err error) {
	trimmed := strings.TrimSpace(notation)
	if strings.EqualFold(trimmed, cannotMoveSentinel) {
		return nil, false, nil
	}

	for _, field := range strings.Fields(trimmed) {
		repeat := 1
		part := field
		if idx := strings.Index(part, "("); idx != -1 {
			endIdx := strings.Index(part, ")")
			if endIdx <= idx {
				return nil, false, &ParseError{Notation: notation, Reason: "unbalanced repeat suffix"}
			}
			n, convErr := strconv.Atoi(part[idx+1 : endIdx])
			if convErr != nil || n < 1 {
				return nil, false, &ParseError{Notation: notation, Reason: "invalid repeat count"}
			}
			repeat = n
			part = part[:idx]
		}

		hit := false
		if strings.HasSuffix(part, "*") {
			hit = true
			part = strings.TrimSuffix(part, "*")
		}

		fromTo := strings.Split(part, "/")
		if len(fromTo) != 2 {
			return nil, false, &ParseError{Notation: notation, Reason: fmt.Sprintf("hop %q is not FROM/TO", field)}
		}

		for i := 0; i < repeat; i++ {
			hops = append(hops, Hop{From: strings.ToLower(fromTo[0]), To: strings.ToLower(fromTo[1]), Hit: hit})
		}
	}

	if len(hops) == 0 {
		return nil, false, &ParseError{Notation: notation, Reason: "no hops found"}
	}
	return hops, true, nil
}

// pointToSlot maps a player's own point number N (1..24) to the internal
// slot index: TOP's Nth point sits at slot 25-N, BOTTOM's sits directly at
// slot N (matches the pip-count convention in internal/position).
func pointToSlot(pl position.Player, n int) int {
	if pl == position.Top {
		return 25 - n
	}
	return n
}

func barSlot(pl position.Player) int {
	if pl == position.Top {
		return 0
	}
	return 25
}

// Result reports the outcome of Apply.
type Result struct {
	Position position.Position
	Skipped  []Hop // hops that were silently skipped as illegal
}

// Apply transforms p under notation for mover, per SPEC_FULL.md §4.3.
// Illegal hops (no mover checker at FROM, TO blocked by 2+ opposing
// checkers, or an out-of-range point) are silently skipped — the upstream
// analyzer output is tolerant of this — but every skip is reported in the
// returned Result. The resulting Position is validated before return.
func Apply(p position.Position, mover position.Player, notation string) (Result, error) {
	hops, ok, err := ParseNotation(notation)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Position: p}, nil
	}

	cur := p.Copy()
	var skipped []Hop

	for _, h := range hops {
		fromSlot, err := resolveFromSlot(mover, h.From)
		if err != nil {
			skipped = append(skipped, h)
			continue
		}
		if !hasMoverCheckerAt(cur, mover, fromSlot) {
			skipped = append(skipped, h)
			continue
		}

		if h.To == "off" {
			decrementSlot(&cur, mover, fromSlot)
			incrementOff(&cur, mover)
			continue
		}

		toSlot, err := resolveToSlot(mover, h.To)
		if err != nil {
			skipped = append(skipped, h)
			continue
		}
		if blockedByOpponent(cur, mover, toSlot) {
			skipped = append(skipped, h)
			continue
		}

		decrementSlot(&cur, mover, fromSlot)
		applyLanding(&cur, mover, toSlot)
	}

	if err := cur.Validate(); err != nil {
		return Result{}, err
	}

	return Result{Position: cur, Skipped: skipped}, nil
}

func resolveFromSlot(mover position.Player, tok string) (int, error) {
	if tok == "bar" {
		return barSlot(mover), nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > 24 {
		return 0, fmt.Errorf("invalid FROM point %q", tok)
	}
	return pointToSlot(mover, n), nil
}

func resolveToSlot(mover position.Player, tok string) (int, error) {
	if tok == "bar" {
		return barSlot(mover.Opponent()), nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > 24 {
		return 0, fmt.Errorf("invalid TO point %q", tok)
	}
	return pointToSlot(mover, n), nil
}

func hasMoverCheckerAt(p position.Position, mover position.Player, slot int) bool {
	v := p.Slots[slot]
	if mover == position.Top {
		return v > 0
	}
	return v < 0
}

func blockedByOpponent(p position.Position, mover position.Player, slot int) bool {
	v := p.Slots[slot]
	if mover == position.Top {
		return v <= -2
	}
	return v >= 2
}

func decrementSlot(p *position.Position, mover position.Player, slot int) {
	if mover == position.Top {
		p.Slots[slot]--
	} else {
		p.Slots[slot]++
	}
}

func incrementOff(p *position.Position, mover position.Player) {
	if mover == position.Top {
		p.TopOff++
	} else {
		p.BottomOff++
	}
}

// applyLanding writes one mover checker at slot, sending a lone opposing
// checker to its own bar first if present (a hit).
func applyLanding(p *position.Position, mover position.Player, slot int) {
	v := p.Slots[slot]
	isOpposingSingle := (mover == position.Top && v == -1) || (mover == position.Bottom && v == 1)
	if isOpposingSingle {
		opponent := mover.Opponent()
		p.Slots[barSlot(opponent)] += sign(opponent) * 1
		p.Slots[slot] = 0
	}
	if mover == position.Top {
		p.Slots[slot]++
	} else {
		p.Slots[slot]--
	}
}

func sign(pl position.Player) int8 {
	if pl == position.Top {
		return 1
	}
	return -1
}
