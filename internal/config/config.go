// Package config models the read-only settings the pipeline accepts.
// Persistence belongs to external collaborators; this package only
// defines the recognized keys and their validity ranges.
package config

import (
	"fmt"

	"github.com/ankigo/bgpipeline/internal/render"
)

// PlayerMask selects which on-roll sides a binary-file import keeps.
type PlayerMask struct {
	IncludeTop    bool
	IncludeBottom bool
}

// Config carries the recognized settings keys.
type Config struct {
	ColorScheme            string
	Orientation            string
	AnalyzerExecutablePath string
	AnalyzerPlies          int
	GenerateScoreMatrix    bool
	ImportErrorThreshold   float64
	ImportPlayerMask       PlayerMask
}

// Default returns the settings used when the caller supplies nothing.
func Default() Config {
	return Config{
		ColorScheme:          "classic",
		Orientation:          string(render.CounterClockwise),
		AnalyzerPlies:        2,
		ImportErrorThreshold: 0.08,
		ImportPlayerMask:     PlayerMask{IncludeTop: true, IncludeBottom: true},
	}
}

// Validate checks every recognized key's range. The analyzer executable
// path is not stat-ed here; the driver does that when it is built.
func (c Config) Validate() error {
	if _, err := render.GetScheme(c.ColorScheme); err != nil {
		return fmt.Errorf("config: color_scheme: %w", err)
	}
	switch render.Orientation(c.Orientation) {
	case render.Clockwise, render.CounterClockwise:
	default:
		return fmt.Errorf("config: orientation %q is not clockwise or counter-clockwise", c.Orientation)
	}
	if c.AnalyzerPlies < 0 || c.AnalyzerPlies > 4 {
		return fmt.Errorf("config: analyzer_plies %d outside 0..4", c.AnalyzerPlies)
	}
	if c.ImportErrorThreshold < 0 || c.ImportErrorThreshold > 1 {
		return fmt.Errorf("config: import_error_threshold %g outside [0,1]", c.ImportErrorThreshold)
	}
	if !c.ImportPlayerMask.IncludeTop && !c.ImportPlayerMask.IncludeBottom {
		return fmt.Errorf("config: import_player_mask excludes both players")
	}
	return nil
}

// Scheme resolves the configured color scheme. Call Validate first; an
// unknown name falls back to the classic palette here so rendering can
// still proceed in tolerant paths.
func (c Config) Scheme() render.ColorScheme {
	s, err := render.GetScheme(c.ColorScheme)
	if err != nil {
		return render.Classic
	}
	return s
}

// BoardOrientation resolves the configured orientation, defaulting to
// counter-clockwise for anything unrecognized.
func (c Config) BoardOrientation() render.Orientation {
	if render.Orientation(c.Orientation) == render.Clockwise {
		return render.Clockwise
	}
	return render.CounterClockwise
}
