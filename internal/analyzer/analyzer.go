// Package analyzer drives a GNU Backgammon CLI executable as a
// subprocess: it scripts a deterministic command sequence into a temp
// file, runs the executable non-interactively, and returns the raw
// textual output for internal/analyzerparse to consume.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// ErrCancelled is returned when a fan-out or single analysis is abandoned
// because its context was cancelled.
var ErrCancelled = errors.New("analyzer: cancelled")

// PositionTimeout bounds a single position analysis.
const PositionTimeout = 120 * time.Second

// MatchTimeout bounds a whole-match analysis.
const MatchTimeout = 600 * time.Second

// serialFanOutThreshold is the batch size at or below which fan-out runs
// serially rather than paying worker-pool setup cost.
const serialFanOutThreshold = 2

// FailedAnalysisError reports which item in a batch failed and why,
// aborting the whole batch per spec.md §5's whole-batch-fatal policy.
type FailedAnalysisError struct {
	Index int
	ID    string
	Err   error
}

func (e *FailedAnalysisError) Error() string {
	return fmt.Sprintf("analyzer: position %d (%s) failed: %v", e.Index, e.ID, e.Err)
}

func (e *FailedAnalysisError) Unwrap() error { return e.Err }

// TimeoutError reports that a single position's analysis exceeded
// PositionTimeout (or a match's exceeded MatchTimeout).
type TimeoutError struct {
	ExecutablePath string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analyzer: %s timed out", e.ExecutablePath)
}

// Driver wraps an analyzer CLI executable.
type Driver struct {
	ExecutablePath string
	Plies          int

	// Timeout overrides PositionTimeout when non-zero. Exposed for
	// tests; production callers leave it unset.
	Timeout time.Duration
}

// NewDriver validates the executable path and returns a ready Driver.
func NewDriver(executablePath string, plies int) (*Driver, error) {
	if _, err := os.Stat(executablePath); err != nil {
		return nil, fmt.Errorf("analyzer: executable not found: %w", err)
	}
	if plies <= 0 {
		plies = 2
	}
	return &Driver{ExecutablePath: executablePath, Plies: plies}, nil
}

// commandScript builds the deterministic command sequence for a single
// position analysis: automatic-game/roll off, the position setter, plies,
// match-percentage display off, then hint.
func (d *Driver) commandScript(setPositionCommand string) string {
	lines := []string{
		"set automatic game off",
		"set automatic roll off",
		setPositionCommand,
		fmt.Sprintf("set analysis chequerplay evaluation plies %d", d.Plies),
		fmt.Sprintf("set analysis cubedecision evaluation plies %d", d.Plies),
		"set output matchpc off",
		"hint",
	}
	return strings.Join(lines, "\n") + "\n"
}

// setPositionCommand picks "set xgid" or "set gnubgid" depending on the
// shape of id, matching the CLI's own two position-loading commands.
func setPositionCommand(id string) string {
	if strings.HasPrefix(id, "XGID=") {
		return "set xgid " + id
	}
	if strings.Count(id, ":") == 9 {
		return "set xgid XGID=" + id
	}
	return "set gnubgid " + id
}

// AnalyzePosition runs a single position through the analyzer and
// returns its combined stdout/stderr text.
func (d *Driver) AnalyzePosition(ctx context.Context, id string) (string, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = PositionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	scriptPath, err := writeCommandFile(d.commandScript(setPositionCommand(id)))
	if err != nil {
		return "", err
	}
	defer os.Remove(scriptPath)

	return runNonInteractive(ctx, d.ExecutablePath, scriptPath)
}

// AnalyzePositions fans a batch of positions out across a bounded worker
// pool, preserving input order in the result slice regardless of
// completion order. Batches of serialFanOutThreshold or fewer run
// serially. A single failure aborts the whole batch.
func (d *Driver) AnalyzePositions(ctx context.Context, ids []string, progress func(completed, total int)) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	if len(ids) <= serialFanOutThreshold {
		results := make([]string, len(ids))
		for i, id := range ids {
			out, err := d.AnalyzePosition(ctx, id)
			if err != nil {
				return nil, &FailedAnalysisError{Index: i, ID: id, Err: err}
			}
			results[i] = out
			if progress != nil {
				progress(i+1, len(ids))
			}
		}
		return results, nil
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, workers)
	results := make([]string, len(ids))
	errs := make(chan *FailedAnalysisError, len(ids))
	done := make(chan int, len(ids))

	for i, id := range ids {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ErrCancelled
		}
		go func(i int, id string) {
			defer func() { <-sem }()
			out, err := d.AnalyzePosition(ctx, id)
			if err != nil {
				errs <- &FailedAnalysisError{Index: i, ID: id, Err: err}
				cancel()
				return
			}
			results[i] = out
			done <- i
		}(i, id)
	}

	completed := 0
	for completed < len(ids) {
		select {
		case <-done:
			completed++
			if progress != nil {
				progress(completed, len(ids))
			}
		case e := <-errs:
			return nil, e
		case <-ctx.Done():
			select {
			case e := <-errs:
				return nil, e
			default:
				return nil, ErrCancelled
			}
		}
	}

	return results, nil
}

// analysisMarker confirms "analyse match" actually ran: exported match
// text carries a "Rolled XX (+/-error):" line for every analyzed roll.
var analysisMarker = regexp.MustCompile(`Rolled \d\d \([+-]?\d+\.\d+\):`)

// AnalyzeMatchOptions configures a full match-file analysis.
type AnalyzeMatchOptions struct {
	MaxCandidateMoves int // default 8, matches "set export moves number"
}

// NoAnalysisFoundError reports that the analyzer exported a match but the
// text carries no analysis markers, meaning "analyse match" failed
// silently.
type NoAnalysisFoundError struct {
	ExportPath string
}

func (e *NoAnalysisFoundError) Error() string {
	return fmt.Sprintf("analyzer: %s was exported without analysis markers", e.ExportPath)
}

// AnalyzeMatch imports a .mat match file, runs "analyse match" at the
// driver's configured plies, and exports the analyzed match to one or
// more text files (GNU Backgammon splits multi-game matches into
// "analyzed_match.txt", "analyzed_match_002.txt", ...). The caller owns
// cleanup of the returned paths.
func (d *Driver) AnalyzeMatch(ctx context.Context, matPath string, opts AnalyzeMatchOptions) ([]string, error) {
	if _, err := os.Stat(matPath); err != nil {
		return nil, fmt.Errorf("analyzer: match file not found: %w", err)
	}
	maxMoves := opts.MaxCandidateMoves
	if maxMoves <= 0 {
		maxMoves = 8
	}

	ctx, cancel := context.WithTimeout(ctx, MatchTimeout)
	defer cancel()

	outputDir, err := os.MkdirTemp("", "bgpipeline-match-")
	if err != nil {
		return nil, fmt.Errorf("analyzer: creating output dir: %w", err)
	}
	outputBase := filepath.Join(outputDir, "analyzed_match.txt")

	lines := []string{
		"set automatic game off",
		"set automatic roll off",
		fmt.Sprintf("set analysis chequerplay evaluation plies %d", d.Plies),
		fmt.Sprintf("set analysis cubedecision evaluation plies %d", d.Plies),
		fmt.Sprintf("set export moves number %d", maxMoves),
		fmt.Sprintf("import mat %s", quoteIfSpaced(matPath)),
		"analyse match",
		fmt.Sprintf("export match text %s", quoteIfSpaced(outputBase)),
	}
	scriptPath, err := writeCommandFile(strings.Join(lines, "\n") + "\n")
	if err != nil {
		return nil, err
	}
	defer os.Remove(scriptPath)

	if _, err := runNonInteractive(ctx, d.ExecutablePath, scriptPath); err != nil {
		return nil, err
	}

	exported, err := collectExportedFiles(outputDir, outputBase)
	if err != nil {
		return nil, err
	}

	if err := verifyAnalysisMarkers(exported[0]); err != nil {
		return nil, err
	}

	return exported, nil
}

// collectExportedFiles gathers "analyzed_match.txt" and its
// "analyzed_match_002.txt", "analyzed_match_003.txt", ... siblings, one
// per game in the match.
func collectExportedFiles(outputDir, outputBase string) ([]string, error) {
	var exported []string
	if _, err := os.Stat(outputBase); err == nil {
		exported = append(exported, outputBase)
	}
	for game := 2; ; game++ {
		next := filepath.Join(outputDir, fmt.Sprintf("analyzed_match_%03d.txt", game))
		if _, err := os.Stat(next); err != nil {
			break
		}
		exported = append(exported, next)
	}
	if len(exported) == 0 {
		return nil, fmt.Errorf("analyzer: no export files created in %s", outputDir)
	}
	return exported, nil
}

func verifyAnalysisMarkers(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("analyzer: reading exported match: %w", err)
	}
	preview := data
	if len(preview) > 5000 {
		preview = preview[:5000]
	}
	if !analysisMarker.Match(preview) {
		return &NoAnalysisFoundError{ExportPath: path}
	}
	return nil
}

func quoteIfSpaced(path string) string {
	if strings.Contains(path, " ") {
		return `"` + path + `"`
	}
	return path
}

func writeCommandFile(script string) (string, error) {
	f, err := os.CreateTemp("", "bgpipeline-cmd-*.txt")
	if err != nil {
		return "", fmt.Errorf("analyzer: creating command file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(script); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("analyzer: writing command file: %w", err)
	}
	return f.Name(), nil
}

// runNonInteractive invokes the executable with "-t -c <scriptfile>" and
// returns combined stdout and stderr, since the analyzer may write
// warnings to either stream.
func runNonInteractive(ctx context.Context, executablePath, scriptPath string) (string, error) {
	cmd := exec.CommandContext(ctx, executablePath, "-t", "-c", scriptPath)
	out, err := cmd.CombinedOutput()
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return "", &TimeoutError{ExecutablePath: executablePath}
	case context.Canceled:
		return "", ErrCancelled
	}
	if err != nil {
		return "", fmt.Errorf("analyzer: running %s: %w (output: %s)", executablePath, err, truncate(string(out), 500))
	}
	return string(out), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
