// package formatter renders compiled collabs (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/shared"
)

// DefaultChunkSize is how many track ids a music service accepts per add request.
const DefaultChunkSize = 100

// Format names an output format.
type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Export is a compiled collab with the details needed to title it.
type Export struct {
	Squad  string         `json:"squad"`
	Seed   uint64         `json:"seed"`
	Result *collab.Result `json:"result"`
}

func (e *Export) entries() []collab.Entry {
	if e.Result == nil {
		return nil
	}
	return e.Result.Entries
}

// ExportToCSV writes one row per collab track with columns: position, id, title, artists, frequency, members, phase.
// Artists and members are separated by semicolons.
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"position", "id", "title", "artists", "frequency", "members", "phase"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, e := range export.entries() {
		record := []string{
			strconv.Itoa(i + 1),
			e.Track.ID,
			e.Track.Title,
			strings.Join(e.Track.Artists, ";"),
			strconv.Itoa(e.Frequency),
			strings.Join(e.Members, ";"),
			e.Phase.String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the collab as a numbered list followed by a table of member shares.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Squad))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.entries())))
	buf.WriteString(fmt.Sprintf("**Seed**: %d\n", export.Seed))
	if export.Result != nil {
		buf.WriteString(fmt.Sprintf("**Minimum share**: %d\n", export.Result.MinShare))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, e := range export.entries() {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%d: %s)\n",
			i+1, strings.Join(e.Track.Artists, ", "), e.Track.Title, e.Frequency, strings.Join(e.Members, ", ")))
	}

	if export.Result != nil && len(export.Result.Members) > 0 {
		buf.WriteString("\n## Members\n\n")
		buf.WriteString("| Member | Added | Pool |\n")
		buf.WriteString("|--------|-------|------|\n")
		for _, share := range export.Result.Members {
			buf.WriteString(fmt.Sprintf("| %s | %d | %d |\n", share.Member, share.Added, share.Pool))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the collab as plain text
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Collab: %s\n", export.Squad))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.entries())))

	for i, e := range export.entries() {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%d]\n", i+1, strings.Join(e.Track.Artists, ", "), e.Track.Title, e.Frequency))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the whole export as indented JSON
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Render renders export in format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// DefaultFilename is {squad}_collab.{format}, with the squad name lowercased and spaces replaced.
func DefaultFilename(squad string, format Format) string {
	base := strings.ToLower(strings.Join(strings.Fields(squad), "-"))
	if base == "" {
		base = "squad"
	}
	return fmt.Sprintf("%s_collab.%s", base, format)
}

// Write renders export and writes it to path, creating parent directories.
//
// Defaults to [DefaultFilename] in the working directory. Returns the path written.
func Write(export *Export, format Format, path string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = DefaultFilename(export.Squad, format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

// TrackIDs returns the external ids of the collab in order, skipping tracks without one.
func TrackIDs(result *collab.Result) []string {
	var ids []string
	for _, track := range result.Tracks() {
		if track.ID != "" {
			ids = append(ids, track.ID)
		}
	}
	return ids
}

// Chunk splits ids into batches of at most size, for services that cap how many tracks
// one request may add. A non-positive size uses [DefaultChunkSize].
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
