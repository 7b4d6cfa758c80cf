package binfile

import (
	"fmt"
	"io"

	"github.com/ankigo/bgpipeline/internal/binfile/xgarchive"
)

// gameFileMember is the archive member name the game-file record stream
// is always stored under.
const gameFileMember = "temp.xg"

// GameFileData opens an .xg archive stream and returns the raw bytes of
// its game-file member: the typed record stream the vendor struct
// decoder turns into the records Extractor.Apply consumes.
func GameFileData(stream io.ReadSeeker) ([]byte, error) {
	a, err := xgarchive.Open(stream)
	if err != nil {
		return nil, fmt.Errorf("binfile: %w", err)
	}
	for _, e := range a.Entries {
		if e.Name == gameFileMember {
			data, err := a.Extract(e)
			if err != nil {
				return nil, fmt.Errorf("binfile: %w", err)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("binfile: archive has no %s member", gameFileMember)
}
