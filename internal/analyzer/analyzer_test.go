package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFakeExecutable writes a shell script standing in for the analyzer
// CLI: it reads its "-t -c <scriptfile>" command file, sleeps for a
// SLEEP<seconds> marker embedded in the file if present, then echoes the
// file's contents back so tests can confirm which position ran.
func writeFakeExecutable(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-gnubg.sh")
	script := `#!/bin/sh
scriptfile="$3"
content=$(cat "$scriptfile")
delay=$(printf '%s' "$content" | sed -n 's/.*SLEEP\([0-9.]*\).*/\1/p')
if [ -n "$delay" ]; then
  sleep "$delay"
fi
echo "RESULT:$content"
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake executable: %v", err)
	}
	return path
}

func TestAnalyzePositionRunsScriptAndReturnsOutput(t *testing.T) {
	d, err := NewDriver(writeFakeExecutable(t), 3)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	out, err := d.AnalyzePosition(context.Background(), "XGID=-b----E-C---eE---c-e----B-:0:0:1:52:0:0:0:0:0")
	if err != nil {
		t.Fatalf("AnalyzePosition: %v", err)
	}
	if !strings.Contains(out, "set xgid XGID=") || !strings.Contains(out, "hint") {
		t.Errorf("expected scripted commands echoed back, got %q", out)
	}
}

// S6 — fan-out preserves order even when the first item finishes last.
func TestAnalyzePositionsPreservesOrder(t *testing.T) {
	d, err := NewDriver(writeFakeExecutable(t), 1)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	ids := []string{
		"XGID=SLEEP0.2-A",
		"XGID=SLEEP0.05-B",
		"XGID=SLEEP0.01-C",
	}

	var progressCalls [][2]int
	results, err := d.AnalyzePositions(context.Background(), ids, func(completed, total int) {
		progressCalls = append(progressCalls, [2]int{completed, total})
	})
	if err != nil {
		t.Fatalf("AnalyzePositions: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !strings.Contains(results[0], "SLEEP0.2-A") {
		t.Errorf("results[0] should correspond to id A, got %q", results[0])
	}
	if !strings.Contains(results[1], "SLEEP0.05-B") {
		t.Errorf("results[1] should correspond to id B, got %q", results[1])
	}
	if !strings.Contains(results[2], "SLEEP0.01-C") {
		t.Errorf("results[2] should correspond to id C, got %q", results[2])
	}
	if len(progressCalls) != 3 {
		t.Errorf("expected 3 progress callbacks, got %d", len(progressCalls))
	}
}

func TestAnalyzePositionsSerialForSmallBatch(t *testing.T) {
	d, err := NewDriver(writeFakeExecutable(t), 1)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	results, err := d.AnalyzePositions(context.Background(), []string{"XGID=A", "XGID=B"}, nil)
	if err != nil {
		t.Fatalf("AnalyzePositions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

// S7 — analyzer timeout.
func TestAnalyzePositionTimeoutRemovesScriptFile(t *testing.T) {
	d, err := NewDriver(writeFakeExecutable(t), 1)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	d.Timeout = 1 * time.Nanosecond

	var capturedErr error
	_, capturedErr = d.AnalyzePosition(context.Background(), "XGID=SLEEP1-TIMEOUT")
	if capturedErr == nil {
		t.Fatal("expected a timeout error")
	}
	if _, ok := capturedErr.(*TimeoutError); !ok {
		t.Fatalf("expected *TimeoutError, got %T: %v", capturedErr, capturedErr)
	}

	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "bgpipeline-cmd-") {
			info, statErr := e.Info()
			if statErr == nil && time.Since(info.ModTime()) < 5*time.Second {
				t.Errorf("expected command file to be removed after timeout, found %s", e.Name())
			}
		}
	}
}

func TestAnalyzePositionsEmptyInputReturnsNil(t *testing.T) {
	d, err := NewDriver(writeFakeExecutable(t), 1)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	results, err := d.AnalyzePositions(context.Background(), nil, nil)
	if err != nil || results != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", results, err)
	}
}
