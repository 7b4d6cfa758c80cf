// Package pipeline orchestrates the full decision pipeline: decode a
// position, enrich it through the analyzer when it carries no
// candidates, rank and render it, and hand back emitted note-ready
// decisions plus a skipped-item list.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ankigo/bgpipeline/internal/analyzer"
	"github.com/ankigo/bgpipeline/internal/analyzerparse"
	"github.com/ankigo/bgpipeline/internal/codec"
	"github.com/ankigo/bgpipeline/internal/cubeoptions"
	"github.com/ankigo/bgpipeline/internal/moveapplier"
	"github.com/ankigo/bgpipeline/internal/position"
	"github.com/ankigo/bgpipeline/internal/render"
)

// State names a decision's position in the pipeline's state machine.
type State string

const (
	StateRaw      State = "raw"
	StateParsed   State = "parsed"
	StateEnriched State = "enriched"
	StateRanked   State = "ranked"
	StateRendered State = "rendered"
	StateEmitted  State = "emitted"
	StateFailed   State = "failed"
)

// SourceMetadata identifies where a raw item came from, preserved across
// every state transition.
type SourceMetadata struct {
	File     string
	Index    int
	UserNote string
}

// RawItem is one unit of pipeline input. Exactly one of PositionID or
// Decision should be set: PositionID for a bare wire-format string that
// needs C2 decode (and possibly C7+C5 enrichment), Decision for an
// already-parsed record such as one produced by the binary extractor.
type RawItem struct {
	Source     SourceMetadata
	PositionID string
	Decision   *position.Decision
}

// Item is a decision as it moves through the pipeline.
type Item struct {
	State      State
	Decision   position.Decision
	Source     SourceMetadata
	SVG        string
	FailReason string
}

// SkippedItem records a non-fatal local failure: a bad codec string or
// an unparseable analyzer reply for one item in a batch. One bad item
// never blocks its siblings.
type SkippedItem struct {
	Source SourceMetadata
	Reason string
}

// PlayerMask selects which on-roll side a filtering pass keeps.
type PlayerMask struct {
	IncludeTop    bool
	IncludeBottom bool
}

// Config wires the pipeline's collaborators and tunables.
type Config struct {
	Analyzer       *analyzer.Driver // nil disables enrichment entirely
	Board          *render.Board
	PlayerMask     PlayerMask
	ErrorThreshold float64 // [0,1], used only by Filter
}

// Result is the pipeline's user-visible outcome.
type Result struct {
	Emitted []Item
	Skipped []SkippedItem
}

// InvariantViolationError reports a programmer-error bug: a decision
// that failed D1/D2/D3 after ranking. Per spec these are always
// surfaced, never silently skipped.
type InvariantViolationError struct {
	Source SourceMetadata
	Err    error
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("pipeline: invariant violated for %s[%d]: %v", e.Source.File, e.Source.Index, e.Err)
}

func (e *InvariantViolationError) Unwrap() error { return e.Err }

// Run executes the full pipeline over raw, returning emitted items and a
// skipped-item list on success. A fatal error (analyzer fan-out failure,
// cancellation, or an invariant violation) aborts the whole run.
func Run(ctx context.Context, raw []RawItem, cfg Config, progress func(completed, total int)) (Result, error) {
	var result Result

	parsed := make([]Item, 0, len(raw))
	for _, r := range raw {
		item, err := normalize(r)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedItem{Source: r.Source, Reason: err.Error()})
			continue
		}
		parsed = append(parsed, item)
	}

	enriched, err := enrichBatch(ctx, parsed, cfg.Analyzer, progress)
	if err != nil {
		return Result{}, err
	}

	for _, item := range enriched {
		if item.State == StateFailed {
			result.Skipped = append(result.Skipped, SkippedItem{Source: item.Source, Reason: item.FailReason})
			continue
		}

		if err := item.Decision.ValidateCandidates(); err != nil {
			return Result{}, &InvariantViolationError{Source: item.Source, Err: err}
		}
		if err := item.Decision.ValidateKind(); err != nil {
			return Result{}, &InvariantViolationError{Source: item.Source, Err: err}
		}
		item.State = StateRanked

		if item.Decision.Kind == position.CheckerPlay {
			attachResultingPositions(&item.Decision)
		}

		if cfg.Board != nil {
			item.SVG = cfg.Board.Render(item.Decision.Position, item.Decision.OnRoll, item.Decision.Dice, item.Decision.CubeValue, item.Decision.CubeOwner)
			item.State = StateRendered
		}

		item.State = StateEmitted
		result.Emitted = append(result.Emitted, item)
	}

	return result, nil
}

// normalize turns one RawItem into a parsed Item: either by decoding its
// PositionID through C2, or by adopting an already-built Decision
// verbatim (the binary-extractor path).
func normalize(r RawItem) (Item, error) {
	if r.Decision != nil {
		return Item{State: StateParsed, Decision: *r.Decision, Source: r.Source}, nil
	}

	pos, meta, err := codec.Decode(r.PositionID)
	if err != nil {
		return Item{}, err
	}

	kind := position.CheckerPlay
	if meta.Dice == nil {
		kind = position.CubeAction
	}

	canonical := r.PositionID
	if f, _ := codec.DetectFormat(r.PositionID); f != codec.FormatXGID {
		canonical = codec.EncodeXGID(pos, meta)
	}

	d := position.Decision{
		Position:      pos,
		OnRoll:        meta.OnRoll,
		Dice:          meta.Dice,
		ScoreTop:      meta.ScoreTop,
		ScoreBottom:   meta.ScoreBottom,
		MatchLength:   meta.MatchLength,
		CubeValue:     meta.CubeValue,
		CubeOwner:     meta.CubeOwner,
		Crawford:      meta.Crawford,
		Kind:          kind,
		CanonicalXGID: canonical,
	}

	return Item{State: StateParsed, Decision: d, Source: r.Source}, nil
}

// enrichBatch calls C7+C5 for every item whose candidates are empty,
// batching all such items into a single analyzer fan-out call so C7's
// order-preserving, whole-batch-fatal contract applies to the whole
// pipeline run rather than per item. Items that already carry candidates
// skip straight to the "already-analyzed" branch of the state machine.
func enrichBatch(ctx context.Context, items []Item, driver *analyzer.Driver, progress func(completed, total int)) ([]Item, error) {
	needsEnrichment := make([]int, 0, len(items))
	for i, item := range items {
		if len(item.Decision.Candidates) == 0 && item.Decision.CanonicalXGID != "" {
			needsEnrichment = append(needsEnrichment, i)
		}
	}

	if len(needsEnrichment) == 0 || driver == nil {
		return items, nil
	}

	ids := make([]string, len(needsEnrichment))
	for j, i := range needsEnrichment {
		ids[j] = items[i].Decision.CanonicalXGID
	}

	outputs, err := driver.AnalyzePositions(ctx, ids, progress)
	if err != nil {
		return nil, err
	}

	for j, i := range needsEnrichment {
		item := items[i]
		if err := applyAnalyzerOutput(&item, outputs[j]); err != nil {
			item.State = StateFailed
			item.FailReason = err.Error()
			items[i] = item
			continue
		}
		item.State = StateEnriched
		items[i] = item
	}

	return items, nil
}

// applyAnalyzerOutput parses one analyzer reply per the decision's kind
// and attaches the resulting candidates.
func applyAnalyzerOutput(item *Item, output string) error {
	switch item.Decision.Kind {
	case position.CheckerPlay:
		moves, err := analyzerparse.ParseCheckerPlay(output)
		if err != nil {
			return err
		}
		item.Decision.Candidates = moves
	case position.CubeAction:
		in, err := analyzerparse.ParseCubeDecision(output)
		if err != nil {
			return err
		}
		res := cubeoptions.Synthesize(in)
		item.Decision.Candidates = res.Candidates
		if a := analyzerparse.ParseAlert(output); a.CubeError != nil || a.TakeError != nil {
			item.Decision.CubeError = a.CubeError
			item.Decision.TakeError = a.TakeError
		}
	}
	return nil
}

// attachResultingPositions applies each candidate's notation to the
// decision's position so downstream cards can show the board after the
// move. Notation the applier cannot parse leaves that candidate without
// a resulting position; it is display enrichment, not a gate.
func attachResultingPositions(d *position.Decision) {
	for i := range d.Candidates {
		c := &d.Candidates[i]
		if c.ResultingPosition != nil {
			continue
		}
		res, err := moveapplier.Apply(d.Position, d.OnRoll, c.Notation)
		if err != nil {
			continue
		}
		p := res.Position
		c.ResultingPosition = &p
	}
}

// Filter keeps only decisions whose on_roll matches mask and whose
// played move's absolute error meets or exceeds threshold, per the
// binary-file import filtering pass.
func Filter(items []Item, mask PlayerMask, threshold float64) ([]Item, []SkippedItem) {
	var kept []Item
	var skipped []SkippedItem

	for _, item := range items {
		if item.Decision.OnRoll == position.Top && !mask.IncludeTop {
			skipped = append(skipped, SkippedItem{Source: item.Source, Reason: "on_roll excluded by player mask"})
			continue
		}
		if item.Decision.OnRoll == position.Bottom && !mask.IncludeBottom {
			skipped = append(skipped, SkippedItem{Source: item.Source, Reason: "on_roll excluded by player mask"})
			continue
		}

		played, ok := playedMove(item.Decision)
		if !ok || played.Error < threshold {
			skipped = append(skipped, SkippedItem{Source: item.Source, Reason: "played move below error threshold"})
			continue
		}

		kept = append(kept, item)
	}

	return kept, skipped
}

func playedMove(d position.Decision) (position.Move, bool) {
	for _, c := range d.Candidates {
		if c.WasPlayed {
			return c, true
		}
	}
	return position.Move{}, false
}
