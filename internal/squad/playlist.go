package squad

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/shared"
)

// ArtistSeparator separates artist names inside one CSV cell.
const ArtistSeparator = ";"

// ReadPlaylist reads the tracks of a playlist file, choosing the decoder by extension.
// A directory is read as tagged MP3 files with [ReadTagged].
//
// The second return value is the number of rows skipped for missing data.
func ReadPlaylist(path string) ([]collab.Track, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, path)
		}
		return nil, 0, fmt.Errorf("failed to read playlist: %w", err)
	}
	if info.IsDir() {
		return ReadTagged(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read playlist: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DecodeJSON(bytes.NewReader(data))
	case ".csv":
		return DecodeCSV(bytes.NewReader(data))
	default:
		return nil, 0, fmt.Errorf("%w: unsupported playlist format %q", shared.ErrInvalidInput, ext)
	}
}

type playlistFile struct {
	Member string        `json:"member"`
	Tracks []trackRecord `json:"tracks"`
}

type trackRecord struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// DecodeJSON reads a playlist object or a bare array of tracks.
func DecodeJSON(r io.Reader) ([]collab.Track, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read playlist: %w", err)
	}

	var records []trackRecord
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &records)
	} else {
		var file playlistFile
		err = json.Unmarshal(trimmed, &file)
		records = file.Tracks
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: malformed JSON playlist: %v", shared.ErrInvalidInput, err)
	}

	var (
		tracks  []collab.Track
		skipped int
	)
	for _, rec := range records {
		track, ok := newTrack(rec.ID, rec.Title, rec.Artists)
		if !ok {
			skipped++
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, skipped, nil
}

// DecodeCSV reads a playlist with a header row. Columns are found by name, case-insensitively;
// "title" and "artists" are required, "id" is optional.
func DecodeCSV(r io.Reader) ([]collab.Track, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: malformed CSV playlist: %v", shared.ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	idIdx, titleIdx, artistsIdx := -1, -1, -1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "id":
			idIdx = i
		case "title":
			titleIdx = i
		case "artists", "artist":
			artistsIdx = i
		}
	}
	if titleIdx == -1 || artistsIdx == -1 {
		return nil, 0, fmt.Errorf("%w: CSV playlist needs title and artists columns, got %v", shared.ErrInvalidInput, records[0])
	}

	cell := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var (
		tracks  []collab.Track
		skipped int
	)
	for _, record := range records[1:] {
		artists := strings.Split(cell(record, artistsIdx), ArtistSeparator)
		track, ok := newTrack(cell(record, idIdx), cell(record, titleIdx), artists)
		if !ok {
			skipped++
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, skipped, nil
}

// newTrack trims the fields and drops blank artist names. It reports false when the title or every
// artist is missing.
func newTrack(id, title string, artists []string) (collab.Track, bool) {
	title = strings.TrimSpace(title)

	var names []string
	for _, a := range artists {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}

	if title == "" || len(names) == 0 {
		return collab.Track{}, false
	}

	return collab.Track{ID: strings.TrimSpace(id), Title: title, Artists: names}, true
}
