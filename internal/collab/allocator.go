package collab

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// Phase names the allocation phase that placed a track in the collab.
type Phase int

const (
	PhaseMinimumShare Phase = iota + 1
	PhaseTierSweep
	PhaseRemainder
)

func (p Phase) String() string {
	switch p {
	case PhaseMinimumShare:
		return "minimum_share"
	case PhaseTierSweep:
		return "tier_sweep"
	case PhaseRemainder:
		return "remainder"
	default:
		return ""
	}
}

// ParsePhase is the inverse of [Phase.String].
func ParsePhase(s string) (Phase, error) {
	for _, p := range []Phase{PhaseMinimumShare, PhaseTierSweep, PhaseRemainder} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type placement struct {
	track int
	phase Phase
}

// allocator is the state carried through the three phases.
type allocator struct {
	cfg       Config
	reg       *registry
	idx       *index
	remaining map[int]int // frequency to tracks not yet placed
	added     []int       // per member, tracks of theirs already in the collab
	out       []placement
	logger    *log.Logger
}

func newAllocator(cfg Config, reg *registry, logger *log.Logger) *allocator {
	remaining := make(map[int]int, len(reg.tiers))
	for f, n := range reg.tiers {
		remaining[f] = n
	}

	return &allocator{
		cfg:       cfg,
		reg:       reg,
		idx:       newIndex(reg),
		remaining: remaining,
		added:     make([]int, len(reg.members)),
		out:       make([]placement, 0, min(cfg.MaxCollabSize, len(reg.tracks))),
		logger:    logger,
	}
}

func (a *allocator) run() {
	minShare := a.cfg.MinTracksPerMember(len(a.reg.members))

	a.minimumShare(minShare)
	a.logger.Debug("minimum share placed", "per_member", minShare, "collab", len(a.out))

	a.tierSweep()
	a.logger.Debug("tier sweep placed", "collab", len(a.out), "tiers_left", len(a.remaining))

	a.remainder()
	a.logger.Debug("remainder placed", "collab", len(a.out))
}

// consume places t in the collab and removes it from every member's list.
func (a *allocator) consume(t int, phase Phase) {
	rec := a.reg.tracks[t]
	a.out = append(a.out, placement{track: t, phase: phase})

	f := rec.frequency()
	a.remaining[f]--
	if a.remaining[f] <= 0 {
		delete(a.remaining, f)
	}

	for _, m := range rec.owners {
		a.added[m]++
	}

	a.idx.remove(t)
}

func (a *allocator) full() bool {
	return len(a.out) >= a.cfg.MaxCollabSize
}

// highestTier is the frequency of the most popular remaining track, if it
// is at or above the floor.
func (a *allocator) highestTier() (int, bool) {
	t := a.idx.head(everyone)
	if t == noTrack {
		return 0, false
	}
	f := a.reg.tracks[t].frequency()
	if f < a.cfg.MinFrequency {
		return 0, false
	}
	return f, true
}

// minimumShare tops each member up to perMember tracks from their own head,
// giving up on a member who runs out. The global list is never topped up here.
func (a *allocator) minimumShare(perMember int) {
	for m := range a.reg.members {
		for a.added[m] < perMember && !a.full() {
			t := a.idx.head(m)
			if t == noTrack {
				break
			}
			a.consume(t, PhaseMinimumShare)
		}
	}
}

// tierSweep consumes whole tiers, highest first, until one would overflow the collab.
func (a *allocator) tierSweep() {
	for {
		f, ok := a.highestTier()
		if !ok {
			return
		}

		n := a.remaining[f]
		if len(a.out)+n > a.cfg.MaxCollabSize {
			return
		}

		for range n {
			a.consume(a.idx.head(everyone), PhaseTierSweep)
		}
	}
}

// remainder fills the collab from the highest remaining tier one track at a time,
// always serving the member with the fewest tracks placed. Members whose head
// falls below the tier drop out.
func (a *allocator) remainder() {
	tier, ok := a.highestTier()
	if !ok {
		return
	}

	candidates := make([]int, len(a.reg.members))
	for m := range candidates {
		candidates[m] = m
	}

	for !a.full() && len(candidates) > 0 {
		pick := 0
		for i, m := range candidates {
			if a.added[m] < a.added[candidates[pick]] {
				pick = i
			}
		}

		m := candidates[pick]
		t := a.idx.head(m)
		if t == noTrack || a.reg.tracks[t].frequency() < tier {
			candidates = append(candidates[:pick], candidates[pick+1:]...)
			continue
		}

		a.consume(t, PhaseRemainder)
	}
}
