// Package carddata assembles the note-record values the host flashcard
// adapter consumes: a front and back HTML fragment per decision, its
// canonical XGID, tags, and any referenced SVG media artifacts. The
// surrounding page template and CSS belong to the host, not here.
package carddata

import (
	"fmt"
	"hash/crc32"
	"html/template"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
	"github.com/ankigo/bgpipeline/internal/render"
)

// NoteRecord is the value handed to the host adapter for one decision.
// CanonicalXGID is stable across runs for the same decision.
type NoteRecord struct {
	CanonicalXGID string
	FrontHTML     string
	BackHTML      string
	Tags          []string
}

// MediaArtifact is an SVG referenced by a note's HTML.
type MediaArtifact struct {
	Filename string
	SVG      string
}

// Builder assembles note records. Board, when set, renders each
// candidate's resulting position as a referenced media artifact; nil
// skips candidate boards and emits inline-board-only notes.
type Builder struct {
	Board *render.Board

	// MaxCandidates bounds how many candidates the back lists. Zero
	// means the default of 5.
	MaxCandidates int
}

var frontTemplate = template.Must(template.New("front").Parse(
	`<div class="card-front">
<div class="position-svg">{{.BoardSVG}}</div>
<div class="prompt">{{.Prompt}}</div>
</div>`))

var backTemplate = template.Must(template.New("back").Parse(
	`<div class="card-back">
<div class="position-svg">{{.BoardSVG}}</div>
<div class="metadata">{{.Metadata}}</div>
<table class="candidates">
<tr><th>#</th><th>Move</th><th>Equity</th><th>Error</th></tr>
{{range .Candidates}}<tr class="{{.Class}}"><td>{{.Rank}}</td><td>{{.Notation}}{{if .ResultImage}} <img src="{{.ResultImage}}" alt="">{{end}}</td><td>{{.Equity}}</td><td>{{.Error}}</td></tr>
{{end}}</table>
{{.ScoreMatrix}}
{{if .Note}}<div class="note">{{.Note}}</div>{{end}}
</div>`))

type frontData struct {
	BoardSVG template.HTML
	Prompt   string
}

type backData struct {
	BoardSVG    template.HTML
	Metadata    string
	Candidates  []candidateRow
	ScoreMatrix template.HTML
	Note        string
}

type candidateRow struct {
	Rank        int
	Notation    string
	Equity      string
	Error       string
	Class       string
	ResultImage string
}

// Build assembles the note record for d. boardSVG is the rendered board
// (trusted markup, embedded inline); scoreMatrixHTML, when non-empty, is
// appended to the back.
func (b *Builder) Build(d position.Decision, boardSVG, scoreMatrixHTML string) (NoteRecord, []MediaArtifact, error) {
	var media []MediaArtifact

	var front strings.Builder
	err := frontTemplate.Execute(&front, frontData{
		BoardSVG: template.HTML(boardSVG),
		Prompt:   ShortDisplayText(d),
	})
	if err != nil {
		return NoteRecord{}, nil, fmt.Errorf("carddata: front: %w", err)
	}

	maxCandidates := b.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}

	rows := make([]candidateRow, 0, maxCandidates)
	for i, c := range d.Candidates {
		if i >= maxCandidates {
			break
		}
		row := candidateRow{
			Rank:     c.Rank,
			Notation: c.Notation,
			Equity:   fmt.Sprintf("%+.3f", c.Equity),
			Error:    fmt.Sprintf("%.3f", c.Error),
		}
		switch {
		case c.Rank == 1 && c.WasPlayed:
			row.Class = "best played"
		case c.Rank == 1:
			row.Class = "best"
		case c.WasPlayed:
			row.Class = "played"
		}
		if b.Board != nil && c.ResultingPosition != nil {
			art := MediaArtifact{
				Filename: artifactName(d.CanonicalXGID, c.Notation),
				SVG:      b.Board.Render(*c.ResultingPosition, d.OnRoll.Opponent(), nil, d.CubeValue, d.CubeOwner),
			}
			media = append(media, art)
			row.ResultImage = art.Filename
		}
		rows = append(rows, row)
	}

	var back strings.Builder
	err = backTemplate.Execute(&back, backData{
		BoardSVG:    template.HTML(boardSVG),
		Metadata:    MetadataText(d),
		Candidates:  rows,
		ScoreMatrix: template.HTML(scoreMatrixHTML),
		Note:        d.Note,
	})
	if err != nil {
		return NoteRecord{}, nil, fmt.Errorf("carddata: back: %w", err)
	}

	return NoteRecord{
		CanonicalXGID: d.CanonicalXGID,
		FrontHTML:     front.String(),
		BackHTML:      back.String(),
		Tags:          Tags(d),
	}, media, nil
}

// artifactName derives a filename that is stable across runs from the
// decision's canonical XGID and the candidate notation, so re-exports
// overwrite rather than duplicate host media.
func artifactName(xgid, notation string) string {
	sum := crc32.ChecksumIEEE([]byte(xgid + "|" + notation))
	return fmt.Sprintf("bgpipeline-%08x.svg", sum)
}

// ShortDisplayText is the compact one-line summary used on the card
// front and in list views: "Checker | 52 | 3-1 of 7" or "Cube | Money".
func ShortDisplayText(d position.Decision) string {
	var score string
	if d.MatchLength > 0 {
		score = fmt.Sprintf("%d-%d of %d", d.ScoreTop, d.ScoreBottom, d.MatchLength)
		if d.Crawford {
			score += " Crawford"
		}
	} else {
		score = "Money"
	}

	if d.Kind == position.CheckerPlay {
		dice := "—"
		if d.Dice != nil {
			dice = fmt.Sprintf("%d%d", d.Dice[0], d.Dice[1])
		}
		return fmt.Sprintf("Checker | %s | %s", dice, score)
	}
	return fmt.Sprintf("Cube | %s", score)
}

// MetadataText is the fuller metadata line shown on the card back.
func MetadataText(d position.Decision) string {
	dice := "N/A"
	if d.Dice != nil {
		dice = fmt.Sprintf("%d%d", d.Dice[0], d.Dice[1])
	}

	cube := "—"
	if d.CubeOwner != position.Centered {
		cube = fmt.Sprintf("%d", d.CubeValue)
	}

	// TOP plays the white checkers from the top of the board.
	player := "White"
	if d.OnRoll == position.Bottom {
		player = "Black"
	}

	if d.MatchLength > 0 {
		match := fmt.Sprintf("%dpt", d.MatchLength)
		if d.Crawford {
			match += " (Crawford)"
		}
		return fmt.Sprintf("%s | Dice: %s | Score: %d-%d | Cube: %s | Match: %s",
			player, dice, d.ScoreTop, d.ScoreBottom, cube, match)
	}
	return fmt.Sprintf("%s | Dice: %s | Cube: %s | Money", player, dice, cube)
}

// Tags derives the host-side tags for d: the decision kind, the game
// type, and a blunder marker when the played move's error is large.
func Tags(d position.Decision) []string {
	tags := []string{"backgammon"}

	if d.Kind == position.CheckerPlay {
		tags = append(tags, "checker-play")
	} else {
		tags = append(tags, "cube-action")
	}

	if d.MatchLength > 0 {
		tags = append(tags, fmt.Sprintf("%dpt", d.MatchLength))
	} else {
		tags = append(tags, "money")
	}
	if d.Crawford {
		tags = append(tags, "crawford")
	}

	for _, c := range d.Candidates {
		if c.WasPlayed && c.Error >= 0.08 {
			tags = append(tags, "blunder")
			break
		}
	}
	return tags
}
