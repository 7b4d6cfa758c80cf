// Command bgpipeline runs the decision pipeline over position IDs given
// on the command line: decode, analyze what needs analyzing, render
// boards, and write note records plus their media to an output
// directory for a host flashcard adapter to pick up.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ankigo/bgpipeline/internal/analyzer"
	"github.com/ankigo/bgpipeline/internal/carddata"
	"github.com/ankigo/bgpipeline/internal/config"
	"github.com/ankigo/bgpipeline/internal/met"
	"github.com/ankigo/bgpipeline/internal/pipeline"
	"github.com/ankigo/bgpipeline/internal/position"
	"github.com/ankigo/bgpipeline/internal/progress"
	"github.com/ankigo/bgpipeline/internal/render"
	"github.com/ankigo/bgpipeline/internal/scorematrix"
)

const version = "0.1.0"

func main() {
	cfg := config.Default()

	flag.StringVar(&cfg.ColorScheme, "scheme", cfg.ColorScheme, "Board color scheme (see registry)")
	flag.StringVar(&cfg.Orientation, "orientation", cfg.Orientation, "Board orientation: clockwise or counter-clockwise")
	flag.StringVar(&cfg.AnalyzerExecutablePath, "gnubg", "", "Path to the GNU Backgammon CLI executable (empty disables enrichment)")
	flag.IntVar(&cfg.AnalyzerPlies, "plies", cfg.AnalyzerPlies, "Analysis depth in plies (0-4)")
	flag.BoolVar(&cfg.GenerateScoreMatrix, "score-matrix", false, "Generate a score matrix for cube decisions")
	flag.Float64Var(&cfg.ImportErrorThreshold, "threshold", cfg.ImportErrorThreshold, "Import error threshold [0,1]")
	flag.BoolVar(&cfg.ImportPlayerMask.IncludeTop, "include-top", true, "Keep decisions with TOP on roll")
	flag.BoolVar(&cfg.ImportPlayerMask.IncludeBottom, "include-bottom", true, "Keep decisions with BOTTOM on roll")

	metFile := flag.String("met", "", "Match equity table XML (empty uses the built-in approximation)")
	progressAddr := flag.String("progress-addr", "", "Address to serve WebSocket progress on (empty disables)")
	outDir := flag.String("out", "cards", "Output directory for note records and media")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("bgpipeline v%s\n", version)
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
	if flag.NArg() == 0 {
		log.Fatal("No position IDs given; pass XGID, GNUID or OGID strings as arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var driver *analyzer.Driver
	if cfg.AnalyzerExecutablePath != "" {
		var err error
		driver, err = analyzer.NewDriver(cfg.AnalyzerExecutablePath, cfg.AnalyzerPlies)
		if err != nil {
			log.Fatalf("Analyzer unavailable: %v", err)
		}
	}

	equities := met.Default()
	if *metFile != "" {
		t, err := met.LoadXML(*metFile)
		if err != nil {
			log.Fatalf("Match equity table: %v", err)
		}
		equities = t
	}

	onProgress := func(completed, total int) {
		log.Printf("Analyzed %d/%d", completed, total)
	}
	if *progressAddr != "" {
		hub := progress.NewServer()
		defer hub.Close()
		mux := http.NewServeMux()
		mux.HandleFunc("/progress", hub.Handler)
		go func() {
			if err := http.ListenAndServe(*progressAddr, mux); err != nil {
				log.Printf("Progress server: %v", err)
			}
		}()
		log.Printf("Streaming progress on ws://%s/progress", *progressAddr)
		publish := hub.Callback()
		onProgress = func(completed, total int) {
			log.Printf("Analyzed %d/%d", completed, total)
			publish(completed, total)
		}
	}

	raw := make([]pipeline.RawItem, flag.NArg())
	for i, id := range flag.Args() {
		raw[i] = pipeline.RawItem{
			Source:     pipeline.SourceMetadata{File: "args", Index: i},
			PositionID: id,
		}
	}

	board := render.NewBoard(cfg.Scheme(), cfg.BoardOrientation())
	result, err := pipeline.Run(ctx, raw, pipeline.Config{
		Analyzer: driver,
		Board:    board,
		PlayerMask: pipeline.PlayerMask{
			IncludeTop:    cfg.ImportPlayerMask.IncludeTop,
			IncludeBottom: cfg.ImportPlayerMask.IncludeBottom,
		},
		ErrorThreshold: cfg.ImportErrorThreshold,
	}, onProgress)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	for _, s := range result.Skipped {
		log.Printf("Skipped %s[%d]: %s", s.Source.File, s.Source.Index, s.Reason)
	}

	if err := writeCards(ctx, result.Emitted, cfg, board, driver, equities, *outDir, onProgress); err != nil {
		log.Fatalf("Writing cards: %v", err)
	}
	log.Printf("Emitted %d notes, skipped %d items", len(result.Emitted), len(result.Skipped))
}

func writeCards(ctx context.Context, items []pipeline.Item, cfg config.Config, board *render.Board, driver *analyzer.Driver, equities *met.Table, outDir string, onProgress func(int, int)) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	builder := &carddata.Builder{Board: board}
	notes := make([]carddata.NoteRecord, 0, len(items))

	for _, item := range items {
		matrixHTML := ""
		d := item.Decision
		if cfg.GenerateScoreMatrix && driver != nil && d.Kind == position.CubeAction && d.MatchLength >= 2 {
			m, err := scorematrix.Generate(ctx, d, driver, equities, onProgress)
			if err != nil {
				log.Printf("Score matrix for %s[%d]: %v", item.Source.File, item.Source.Index, err)
			} else {
				playerAway, opponentAway := awayScores(d)
				matrixHTML = scorematrix.FormatHTML(m, playerAway, opponentAway)
			}
		}

		note, media, err := builder.Build(d, item.SVG, matrixHTML)
		if err != nil {
			return err
		}
		notes = append(notes, note)

		for _, art := range media {
			if err := os.WriteFile(filepath.Join(outDir, art.Filename), []byte(art.SVG), 0o644); err != nil {
				return err
			}
		}
	}

	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "notes.json"), data, 0o644)
}

// awayScores translates the decision's absolute scores into the on-roll
// player's away-score pair for score-matrix highlighting.
func awayScores(d position.Decision) (playerAway, opponentAway int) {
	if d.OnRoll == position.Top {
		return d.MatchLength - d.ScoreTop, d.MatchLength - d.ScoreBottom
	}
	return d.MatchLength - d.ScoreBottom, d.MatchLength - d.ScoreTop
}
