package collab

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/squadify/internal/shared"
)

var (
	ErrNoPlaylists   = fmt.Errorf("%w: no playlists", shared.ErrInvalidInput)
	ErrInvalidMember = fmt.Errorf("%w: invalid member", shared.ErrInvalidInput)
	ErrInvalidTrack  = fmt.Errorf("%w: invalid track", shared.ErrInvalidInput)
)

// Track is a song as supplied by a member's playlist.
//
// ID is opaque and only carried through to the output; it takes no part in identity.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// Key identifies a logical track.
type Key string

// Key returns the identity of t: its title and the set of its artist names.
//
// Artist order and repeated artist names do not change the key. Every field
// is quoted, so no byte in a title or name can stand in for a separator.
func (t Track) Key() Key {
	artists := slices.Clone(t.Artists)
	slices.Sort(artists)
	artists = slices.Compact(artists)

	var b strings.Builder
	b.WriteString(strconv.Quote(t.Title))
	for _, artist := range artists {
		b.WriteString(strconv.Quote(artist))
	}
	return Key(b.String())
}

// Same reports whether t and other are the same logical track.
func (t Track) Same(other Track) bool {
	return t.Key() == other.Key()
}

func (t Track) String() string {
	return t.Title + " - " + strings.Join(t.Artists, ", ")
}

func (t Track) validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: missing title (id %q)", ErrInvalidTrack, t.ID)
	}
	if len(t.Artists) == 0 {
		return fmt.Errorf("%w: %q has no artists", ErrInvalidTrack, t.Title)
	}
	for _, artist := range t.Artists {
		if strings.TrimSpace(artist) == "" {
			return fmt.Errorf("%w: %q has a blank artist name", ErrInvalidTrack, t.Title)
		}
	}
	return nil
}

// Playlist is the list of tracks one member contributes to the squad.
type Playlist struct {
	Member string  `json:"member"`
	Tracks []Track `json:"tracks"`
}
