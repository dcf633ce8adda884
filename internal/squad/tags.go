package squad

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/shared"
)

// ReadTagged reads a playlist from a directory of MP3 files, one track per file in file name order.
//
// Title and artists come from the ID3v2 TIT2 and TPE1 frames; several artists are separated by
// semicolons or, in ID3v2.4, null bytes. The track ID is the file name. Files without a title or
// artist are skipped and counted.
func ReadTagged(dir string) ([]collab.Track, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, dir)
		}
		return nil, 0, fmt.Errorf("failed to read playlist directory: %w", err)
	}

	var (
		tracks  []collab.Track
		skipped int
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}

		track, ok, err := readTag(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			skipped++
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, skipped, nil
}

func readTag(path string) (collab.Track, bool, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist"}})
	if err != nil {
		return collab.Track{}, false, fmt.Errorf("%w: failed to read tags of %s: %v", shared.ErrInvalidInput, path, err)
	}
	defer tag.Close()

	artists := strings.FieldsFunc(tag.Artist(), func(r rune) bool {
		return r == ';' || r == 0
	})

	track, ok := newTrack(filepath.Base(path), tag.Title(), artists)
	return track, ok, nil
}
