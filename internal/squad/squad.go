package squad

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/shared"
)

// Manifest is the on-disk description of a squad.
type Manifest struct {
	Name    string   `toml:"name"`
	Members []Member `toml:"members"`
}

// Member names one member and the playlist file they contributed.
type Member struct {
	Name     string `toml:"name"`
	Playlist string `toml:"playlist"`
}

// Squad is a loaded manifest, ready to compile.
type Squad struct {
	Name      string
	Playlists []collab.Playlist
	Skipped   []string // members whose playlist could not be read
}

// ReadManifest parses the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrSquadNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to parse squad manifest: %v", shared.ErrInvalidInput, err)
	}

	if strings.TrimSpace(m.Name) == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	for i, member := range m.Members {
		if strings.TrimSpace(member.Name) == "" {
			return nil, fmt.Errorf("%w: member %d has no name", collab.ErrInvalidMember, i+1)
		}
		if strings.TrimSpace(member.Playlist) == "" {
			return nil, fmt.Errorf("%w: member %q has no playlist", shared.ErrInvalidInput, member.Name)
		}
	}

	return &m, nil
}

// Loader reads squads from disk.
type Loader struct {
	logger *log.Logger
}

// NewLoader creates a Loader that reports skipped members and rows to logger.
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Loader{logger: logger}
}

// Load reads the manifest at path and every member's playlist. Playlist paths are resolved against
// the manifest's directory.
//
// Members whose playlist cannot be read are skipped. If none remain, Load returns [collab.ErrNoPlaylists].
func (l *Loader) Load(ctx context.Context, path string) (*Squad, error) {
	manifest, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	squad := &Squad{Name: manifest.Name}

	for _, member := range manifest.Members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		playlistPath := member.Playlist
		if !filepath.IsAbs(playlistPath) {
			playlistPath = filepath.Join(dir, playlistPath)
		}

		tracks, skipped, err := ReadPlaylist(playlistPath)
		if err != nil {
			l.logger.Warn("skipping member", "member", member.Name, "playlist", playlistPath, "error", err)
			squad.Skipped = append(squad.Skipped, member.Name)
			continue
		}
		if skipped > 0 {
			l.logger.Warn("skipped tracks with missing data", "member", member.Name, "count", skipped)
		}

		l.logger.Debug("loaded playlist", "member", member.Name, "tracks", len(tracks))
		squad.Playlists = append(squad.Playlists, collab.Playlist{Member: member.Name, Tracks: tracks})
	}

	if len(squad.Playlists) == 0 {
		return nil, fmt.Errorf("%w: squad %q has no readable playlists", collab.ErrNoPlaylists, squad.Name)
	}

	l.logger.Info("loaded squad", "squad", squad.Name, "members", len(squad.Playlists), "skipped", len(squad.Skipped))
	return squad, nil
}
