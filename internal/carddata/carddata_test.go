package carddata

import (
	"strings"
	"testing"

	"github.com/ankigo/bgpipeline/internal/position"
	"github.com/ankigo/bgpipeline/internal/render"
)

func sampleDecision() position.Decision {
	dice := [2]int{5, 2}
	return position.Decision{
		Position:      position.StartingPosition(),
		OnRoll:        position.Bottom,
		Dice:          &dice,
		ScoreTop:      1,
		ScoreBottom:   2,
		MatchLength:   7,
		CubeValue:     1,
		CubeOwner:     position.Centered,
		Kind:          position.CheckerPlay,
		CanonicalXGID: "XGID=-b----E-C---eE---c-e----B-:0:0:1:52:0:0:0:0:0",
		Candidates: []position.Move{
			{Notation: "13/8 6/5", Equity: 0.123, Error: 0, Rank: 1},
			{Notation: "24/18 13/11", Equity: 0.045, Error: 0.078, Rank: 2, WasPlayed: true},
		},
	}
}

func TestBuildEmbedsBoardAndCandidates(t *testing.T) {
	b := &Builder{}
	rec, media, err := b.Build(sampleDecision(), "<svg>board</svg>", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rec.CanonicalXGID == "" {
		t.Error("note lost its canonical XGID")
	}
	if !strings.Contains(rec.FrontHTML, "<svg>board</svg>") {
		t.Error("front does not embed the board SVG unescaped")
	}
	if !strings.Contains(rec.FrontHTML, "Checker | 52 | 1-2 of 7") {
		t.Errorf("front prompt wrong:\n%s", rec.FrontHTML)
	}
	if !strings.Contains(rec.BackHTML, "13/8 6/5") || !strings.Contains(rec.BackHTML, "24/18 13/11") {
		t.Error("back missing candidate rows")
	}
	if !strings.Contains(rec.BackHTML, `class="best"`) || !strings.Contains(rec.BackHTML, `class="played"`) {
		t.Error("back missing best/played row classes")
	}
	if len(media) != 0 {
		t.Errorf("no candidate boards requested, got %d artifacts", len(media))
	}
}

func TestBuildEscapesUserNote(t *testing.T) {
	d := sampleDecision()
	d.Note = `watch the <blitz> & "prime"`
	rec, _, err := (&Builder{}).Build(d, "<svg/>", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(rec.BackHTML, "<blitz>") {
		t.Error("user note was not HTML-escaped")
	}
	if !strings.Contains(rec.BackHTML, "&lt;blitz&gt;") {
		t.Errorf("escaped note missing:\n%s", rec.BackHTML)
	}
}

func TestBuildRendersCandidateBoards(t *testing.T) {
	d := sampleDecision()
	after := position.StartingPosition()
	after.Slots[13], after.Slots[8] = after.Slots[13]+1, -1
	after.Slots[6], after.Slots[5] = after.Slots[6]+1, -1
	d.Candidates[0].ResultingPosition = &after

	b := &Builder{Board: render.NewBoard(render.Classic, render.CounterClockwise)}
	rec, media, err := b.Build(d, "<svg/>", "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(media) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(media))
	}
	if !strings.HasPrefix(media[0].Filename, "bgpipeline-") || !strings.HasSuffix(media[0].Filename, ".svg") {
		t.Errorf("artifact name = %q", media[0].Filename)
	}
	if !strings.Contains(media[0].SVG, "<svg") {
		t.Error("artifact holds no SVG markup")
	}
	if !strings.Contains(rec.BackHTML, media[0].Filename) {
		t.Error("back HTML does not reference the artifact")
	}

	// Same decision, same artifact name: host media stays stable.
	_, again, err := b.Build(d, "<svg/>", "")
	if err != nil {
		t.Fatalf("Build again: %v", err)
	}
	if again[0].Filename != media[0].Filename {
		t.Errorf("artifact name unstable: %q vs %q", again[0].Filename, media[0].Filename)
	}
}

func TestBuildAppendsScoreMatrix(t *testing.T) {
	rec, _, err := (&Builder{}).Build(sampleDecision(), "<svg/>", `<div class="score-matrix">m</div>`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(rec.BackHTML, `<div class="score-matrix">m</div>`) {
		t.Error("score matrix fragment not embedded")
	}
}

func TestShortDisplayText(t *testing.T) {
	d := sampleDecision()
	if got := ShortDisplayText(d); got != "Checker | 52 | 1-2 of 7" {
		t.Errorf("ShortDisplayText = %q", got)
	}

	d.Kind = position.CubeAction
	d.Dice = nil
	d.MatchLength = 0
	if got := ShortDisplayText(d); got != "Cube | Money" {
		t.Errorf("ShortDisplayText = %q", got)
	}

	d.MatchLength = 5
	d.Crawford = true
	if got := ShortDisplayText(d); got != "Cube | 1-2 of 5 Crawford" {
		t.Errorf("ShortDisplayText = %q", got)
	}
}

func TestMetadataText(t *testing.T) {
	d := sampleDecision()
	got := MetadataText(d)
	want := "Black | Dice: 52 | Score: 1-2 | Cube: — | Match: 7pt"
	if got != want {
		t.Errorf("MetadataText = %q, want %q", got, want)
	}

	d.OnRoll = position.Top
	d.CubeOwner = position.TopOwns
	d.CubeValue = 2
	d.MatchLength = 0
	d.Dice = nil
	got = MetadataText(d)
	want = "White | Dice: N/A | Cube: 2 | Money"
	if got != want {
		t.Errorf("MetadataText = %q, want %q", got, want)
	}
}

func TestTags(t *testing.T) {
	d := sampleDecision()
	tags := Tags(d)
	assertHas := func(tag string) {
		for _, tg := range tags {
			if tg == tag {
				return
			}
		}
		t.Errorf("tags %v missing %q", tags, tag)
	}
	assertHas("backgammon")
	assertHas("checker-play")
	assertHas("7pt")

	d.Candidates[1].Error = 0.2
	tags = Tags(d)
	var blunder bool
	for _, tg := range tags {
		blunder = blunder || tg == "blunder"
	}
	if !blunder {
		t.Errorf("tags %v missing blunder marker for a 0.2 played error", tags)
	}
}
