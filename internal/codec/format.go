package codec

import (
	"fmt"
	"strings"

	"github.com/ankigo/bgpipeline/internal/position"
)

// Format names a recognized wire-level position encoding.
type Format string

const (
	FormatXGID  Format = "XGID"
	FormatGNUID Format = "GNUID"
	FormatOGID  Format = "OGID"
)

// UnrecognizedFormatError reports a string that matches none of the known
// codecs' surface shape.
type UnrecognizedFormatError struct {
	Input string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized position format: %q", e.Input)
}

// DetectFormat inspects a string's prefix and field shape to decide which
// codec should parse it, without attempting a full decode.
func DetectFormat(s string) (Format, error) {
	trimmed := strings.TrimSpace(s)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "XGID="):
		return FormatXGID, nil
	case strings.HasPrefix(upper, "GNUID="), strings.HasPrefix(upper, "GNUBGID="):
		return FormatGNUID, nil
	case strings.HasPrefix(upper, "OGID="):
		return FormatOGID, nil
	}

	parts := strings.Split(trimmed, ":")
	switch len(parts) {
	case 10:
		if len(parts[0]) == 26 {
			return FormatXGID, nil
		}
		if len(parts[0]) == ogidPointFieldLen {
			return FormatOGID, nil
		}
	case 1, 2:
		if len(parts[0]) == 14 {
			return FormatGNUID, nil
		}
	}

	return "", &UnrecognizedFormatError{Input: s}
}

// Decode detects s's format and decodes it with the matching codec.
func Decode(s string) (position.Position, Metadata, error) {
	format, err := DetectFormat(s)
	if err != nil {
		return position.Position{}, Metadata{}, err
	}
	switch format {
	case FormatXGID:
		return DecodeXGID(s)
	case FormatGNUID:
		return DecodeGNUID(s)
	case FormatOGID:
		return DecodeOGID(s)
	default:
		return position.Position{}, Metadata{}, &UnrecognizedFormatError{Input: s}
	}
}
