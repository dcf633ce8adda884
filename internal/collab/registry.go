package collab

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
)

// noTrack marks the end of a list.
const noTrack = -1

// everyone keys the synthetic all-members list in [record.links].
const everyone = -1

type link struct {
	prev, next int
}

// record is the shared, canonical entry of one logical track.
type record struct {
	track   Track
	owners  []int         // member indices, ascending
	links   map[int]*link // member index (or everyone) to that member's neighbours
	removed bool
}

func (r *record) frequency() int {
	return len(r.owners)
}

// registry holds the deduplicated tracks of a squad in descending frequency order.
type registry struct {
	members []string
	tracks  []*record
	tiers   map[int]int // frequency to number of tracks at that frequency
	pools   []int       // per member, number of tracks kept for them
}

// buildRegistry deduplicates the tracks of all playlists, drops sub-floor tracks unless
// cfg.ShareBelowFloor is set, then shuffles with rng and stable-sorts by frequency.
//
// Members and tracks are visited in first-seen order so a seeded rng gives a stable result.
func buildRegistry(playlists []Playlist, cfg Config, rng *rand.Rand) (*registry, error) {
	if len(playlists) == 0 {
		return nil, ErrNoPlaylists
	}

	reg := &registry{tiers: make(map[int]int)}
	memberIdx := make(map[string]int)
	byKey := make(map[Key]*record)
	var seen []*record

	for i, pl := range playlists {
		if strings.TrimSpace(pl.Member) == "" {
			return nil, fmt.Errorf("%w: playlist %d has no member", ErrInvalidMember, i)
		}

		m, ok := memberIdx[pl.Member]
		if !ok {
			m = len(reg.members)
			memberIdx[pl.Member] = m
			reg.members = append(reg.members, pl.Member)
		}

		for j, tr := range pl.Tracks {
			if err := tr.validate(); err != nil {
				return nil, fmt.Errorf("member %q track %d: %w", pl.Member, j, err)
			}

			key := tr.Key()
			rec, ok := byKey[key]
			if !ok {
				rec = &record{track: tr}
				byKey[key] = rec
				seen = append(seen, rec)
			}
			if !slices.Contains(rec.owners, m) {
				rec.owners = append(rec.owners, m)
			}
		}
	}

	reg.pools = make([]int, len(reg.members))
	for _, rec := range seen {
		if rec.frequency() < cfg.MinFrequency && !cfg.ShareBelowFloor {
			continue
		}
		slices.Sort(rec.owners)
		for _, m := range rec.owners {
			reg.pools[m]++
		}
		reg.tracks = append(reg.tracks, rec)
	}

	rng.Shuffle(len(reg.tracks), func(i, j int) {
		reg.tracks[i], reg.tracks[j] = reg.tracks[j], reg.tracks[i]
	})
	sort.SliceStable(reg.tracks, func(i, j int) bool {
		return reg.tracks[i].frequency() > reg.tracks[j].frequency()
	})

	for _, rec := range reg.tracks {
		reg.tiers[rec.frequency()]++
	}

	return reg, nil
}

// memberNames returns the names of the given member indices.
func (r *registry) memberNames(owners []int) []string {
	names := make([]string, len(owners))
	for i, m := range owners {
		names[i] = r.members[m]
	}
	return names
}
